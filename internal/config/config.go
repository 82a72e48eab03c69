// Package config loads tt settings from flags, environment, project and
// user config files.
//
// Precedence, highest first: values set with Set (command-line flags),
// TT_* environment variables, .tags/config.yaml found by walking up from
// the start directory, $XDG_CONFIG_HOME/tt/config.yaml, defaults.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	// EnvPrefix prefixes every environment override: TT_DB, TT_SCAN_MAX_LINES.
	EnvPrefix = "TT"
	// DirName is the per-project state directory.
	DirName = ".tags"
	// FileName is the config file inside DirName.
	FileName = "config.yaml"
)

// Keys
const (
	KeyDB            = "db"
	KeyIndexDir      = "index-dir"
	KeyAutosave      = "autosave"
	KeyAutosaveDelay = "autosave-delay"
	KeyCacheSize     = "cache-size"
	KeyScanMaxLines  = "scan.max-lines"
	KeyScanExclude   = "scan.exclude"
	KeyScanExts      = "scan.extensions"
	KeyLogFile       = "log.file"
	KeyLogLevel      = "log.level"
	KeyLogMaxSizeMB  = "log.max-size-mb"
	KeyLogMaxBackups = "log.max-backups"
	KeyJSON          = "json"
)

// Keys lists every known key in display order.
var Keys = []string{
	KeyDB, KeyIndexDir, KeyAutosave, KeyAutosaveDelay, KeyCacheSize,
	KeyScanMaxLines, KeyScanExclude, KeyScanExts,
	KeyLogFile, KeyLogLevel, KeyLogMaxSizeMB, KeyLogMaxBackups, KeyJSON,
}

// Config is an explicitly constructed settings object. It is not safe for
// concurrent mutation; Set is meant for start-up flag handling.
type Config struct {
	v    *viper.Viper
	root string
	file string
}

// Load builds a Config rooted at the nearest ancestor of startDir that holds
// a .tags directory, or at startDir itself.
func Load(startDir string) (*Config, error) {
	abs, err := filepath.Abs(startDir)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", startDir, err)
	}
	root := findRoot(abs)

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	c := &Config{v: v, root: root}
	for _, candidate := range []string{filepath.Join(root, DirName, FileName), userConfigPath()} {
		if candidate == "" {
			continue
		}
		if _, err := os.Stat(candidate); err != nil {
			continue
		}
		v.SetConfigFile(candidate)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", candidate, err)
		}
		c.file = candidate
		break
	}
	return c, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyDB, filepath.Join(DirName, "tags.json"))
	v.SetDefault(KeyIndexDir, filepath.Join(DirName, "index"))
	v.SetDefault(KeyAutosave, true)
	v.SetDefault(KeyAutosaveDelay, time.Second)
	v.SetDefault(KeyCacheSize, 1000)
	v.SetDefault(KeyScanMaxLines, 50)
	v.SetDefault(KeyScanExclude, []string{})
	v.SetDefault(KeyScanExts, []string{})
	v.SetDefault(KeyLogFile, "")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogMaxSizeMB, 10)
	v.SetDefault(KeyLogMaxBackups, 3)
	v.SetDefault(KeyJSON, false)
}

// findRoot walks up from dir looking for a .tags directory.
func findRoot(dir string) string {
	for cur := dir; ; {
		if info, err := os.Stat(filepath.Join(cur, DirName)); err == nil && info.IsDir() {
			return cur
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return dir
		}
		cur = parent
	}
}

// userConfigPath returns $XDG_CONFIG_HOME/tt/config.yaml (or the platform
// equivalent), or "" when no user config directory is known.
func userConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "tt", FileName)
}

// Root is the project root.
func (c *Config) Root() string { return c.root }

// File is the config file that was read, or "" when none was found.
func (c *Config) File() string { return c.file }

// ProjectFile is where `tt config init` writes.
func (c *Config) ProjectFile() string {
	return filepath.Join(c.root, DirName, FileName)
}

// Set overrides a key, typically from a command-line flag.
func (c *Config) Set(key string, value any) { c.v.Set(key, value) }

func (c *Config) GetString(key string) string          { return c.v.GetString(key) }
func (c *Config) GetBool(key string) bool              { return c.v.GetBool(key) }
func (c *Config) GetInt(key string) int                { return c.v.GetInt(key) }
func (c *Config) GetDuration(key string) time.Duration { return c.v.GetDuration(key) }

// GetStringSlice also accepts a comma-separated string, which is how lists
// arrive from the environment.
func (c *Config) GetStringSlice(key string) []string {
	var out []string
	for _, s := range c.v.GetStringSlice(key) {
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// DBPath is the store file, resolved against the project root.
func (c *Config) DBPath() string { return c.resolve(c.GetString(KeyDB)) }

// IndexDir is the distributed index directory, resolved against the project root.
func (c *Config) IndexDir() string { return c.resolve(c.GetString(KeyIndexDir)) }

// LogFile is the rotating log file, or "" when file logging is off.
func (c *Config) LogFile() string {
	if f := c.GetString(KeyLogFile); f != "" {
		return c.resolve(f)
	}
	return ""
}

// HooksDir is where hook scripts live.
func (c *Config) HooksDir() string { return filepath.Join(c.root, DirName, "hooks") }

func (c *Config) resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.root, p)
}

// Settings returns the effective value of every known key.
func (c *Config) Settings() map[string]any {
	out := make(map[string]any, len(Keys))
	for _, k := range Keys {
		switch k {
		case KeyScanExclude, KeyScanExts:
			out[k] = c.GetStringSlice(k)
		case KeyAutosaveDelay:
			out[k] = c.GetDuration(k).String()
		default:
			out[k] = c.v.Get(k)
		}
	}
	return out
}

// IsKnownKey reports whether key is a recognised setting.
func IsKnownKey(key string) bool {
	for _, k := range Keys {
		if k == key {
			return true
		}
	}
	return false
}

func exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}
