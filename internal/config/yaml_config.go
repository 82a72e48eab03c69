package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// FileConfig is the shape of config.yaml as written by WriteDefault.
type FileConfig struct {
	DB            string   `yaml:"db"`
	IndexDir      string   `yaml:"index-dir"`
	Autosave      bool     `yaml:"autosave"`
	AutosaveDelay string   `yaml:"autosave-delay"`
	CacheSize     int      `yaml:"cache-size"`
	Scan          ScanFile `yaml:"scan"`
	Log           LogFile  `yaml:"log"`
	JSON          bool     `yaml:"json"`
}

// ScanFile is the scan section of config.yaml.
type ScanFile struct {
	MaxLines   int      `yaml:"max-lines"`
	Exclude    []string `yaml:"exclude"`
	Extensions []string `yaml:"extensions"`
}

// LogFile is the log section of config.yaml.
type LogFile struct {
	File       string `yaml:"file"`
	Level      string `yaml:"level"`
	MaxSizeMB  int    `yaml:"max-size-mb"`
	MaxBackups int    `yaml:"max-backups"`
}

// DefaultFileConfig mirrors the built-in defaults.
func DefaultFileConfig() FileConfig {
	return FileConfig{
		DB:            filepath.ToSlash(filepath.Join(DirName, "tags.json")),
		IndexDir:      filepath.ToSlash(filepath.Join(DirName, "index")),
		Autosave:      true,
		AutosaveDelay: time.Second.String(),
		CacheSize:     1000,
		Scan:          ScanFile{MaxLines: 50, Exclude: []string{}, Extensions: []string{}},
		Log:           LogFile{Level: "info", MaxSizeMB: 10, MaxBackups: 3},
	}
}

const fileHeader = "# tt configuration. Environment variables (TT_DB, TT_SCAN_MAX_LINES, ...)\n# and command-line flags take precedence over this file.\n"

// WriteDefault writes a default config file at path. An existing file is
// never overwritten.
func WriteDefault(path string) error {
	ok, err := exists(path)
	if err != nil {
		return err
	}
	if ok {
		return fmt.Errorf("%s already exists", path)
	}
	data, err := yaml.Marshal(DefaultFileConfig())
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(path), err)
	}
	return os.WriteFile(path, append([]byte(fileHeader), data...), 0o644)
}

// SetValue sets a dotted key in the config file at path, creating the file
// if needed. The value is decoded as a YAML scalar, so "true" becomes a
// bool and "20" an int. Comments in the file are not preserved.
func SetValue(path, key, value string) error {
	if !IsKnownKey(key) {
		return fmt.Errorf("unknown config key %q", key)
	}
	doc := map[string]any{}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
		if doc == nil {
			doc = map[string]any{}
		}
	case !os.IsNotExist(err):
		return fmt.Errorf("read %s: %w", path, err)
	}

	var scalar any
	if err := yaml.Unmarshal([]byte(value), &scalar); err != nil || scalar == nil {
		scalar = value
	}
	if key == KeyScanExclude || key == KeyScanExts {
		scalar = splitList(value)
	}
	setNested(doc, strings.Split(key, "."), scalar)

	out, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, out, 0o644)
}

func setNested(m map[string]any, path []string, value any) {
	if len(path) == 1 {
		m[path[0]] = value
		return
	}
	child, ok := m[path[0]].(map[string]any)
	if !ok {
		child = map[string]any{}
		m[path[0]] = child
	}
	setNested(child, path[1:], value)
}

func splitList(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
