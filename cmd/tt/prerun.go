package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/steveyegge/tagtrace/internal/agent"
	"github.com/steveyegge/tagtrace/internal/config"
	"github.com/steveyegge/tagtrace/internal/hooks"
	"github.com/steveyegge/tagtrace/internal/index"
	"github.com/steveyegge/tagtrace/internal/logging"
	"github.com/steveyegge/tagtrace/internal/scanner"
	"github.com/steveyegge/tagtrace/internal/storage/jsonstore"
	"github.com/steveyegge/tagtrace/internal/telemetry"
	"github.com/steveyegge/tagtrace/internal/ui"
)

// noStoreAnnotation marks commands (and their subcommands) that never open
// the tag database.
const noStoreAnnotation = "tt/no-store"

var noStore = map[string]string{noStoreAnnotation: "true"}

func isNoStoreCommand(cmd *cobra.Command) bool {
	if !cmd.HasParent() {
		return true
	}
	for c := cmd; c != nil; c = c.Parent() {
		if c.Name() == "help" || c.Name() == "completion" || c.Annotations[noStoreAnnotation] == "true" {
			return true
		}
	}
	return false
}

func setupSignalContext() {
	rootCtx, rootCancel = signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func loadConfig() {
	wd, err := os.Getwd()
	if err != nil {
		FatalError("get working directory: %v", err)
	}
	c, err := config.Load(wd)
	if err != nil {
		FatalErrorWithHint(err.Error(), "Fix or remove "+config.DirName+"/"+config.FileName)
	}
	cfg = c
}

// applyConfigOverrides merges config values into flags that weren't set on
// the command line, and pushes explicitly set flags back into the config.
// Priority: flags > env > config file > defaults.
func applyConfigOverrides(cmd *cobra.Command) {
	flags := cmd.Flags()
	if flags.Changed("db") {
		cfg.Set(config.KeyDB, dbPath)
	}
	if flags.Changed("index-dir") {
		cfg.Set(config.KeyIndexDir, indexDir)
	}
	if flags.Changed("json") {
		cfg.Set(config.KeyJSON, jsonOutput)
	} else {
		jsonOutput = cfg.GetBool(config.KeyJSON)
	}
	if flags.Changed("no-autosave") {
		cfg.Set(config.KeyAutosave, !noAutosave)
	}
	dbPath = cfg.DBPath()
	indexDir = cfg.IndexDir()
}

func setupLogging() {
	l, err := logging.New(logging.Options{
		Level:      cfg.GetString(config.KeyLogLevel),
		Verbose:    verboseFlag,
		Quiet:      quietFlag,
		File:       cfg.LogFile(),
		MaxSizeMB:  cfg.GetInt(config.KeyLogMaxSizeMB),
		MaxBackups: cfg.GetInt(config.KeyLogMaxBackups),
	})
	if err != nil {
		FatalError("%v", err)
	}
	logger = l
}

func setupUI() {
	ui.Init(!jsonOutput && ui.ShouldUseColor())
}

func setupTelemetry() {
	p, err := telemetry.Init(rootCtx, "tt", Version)
	if err != nil {
		WarnError("telemetry disabled: %v", err)
		return
	}
	providers = p
}

func newScanner() *scanner.Scanner {
	return scanner.New(scanner.Options{
		Exclude:    cfg.GetStringSlice(config.KeyScanExclude),
		Extensions: cfg.GetStringSlice(config.KeyScanExts),
		MaxLines:   cfg.GetInt(config.KeyScanMaxLines),
		Logger:     logger.Logger,
	})
}

func openStore() {
	s, err := jsonstore.New(jsonstore.Options{
		Path:          dbPath,
		Autosave:      cfg.GetBool(config.KeyAutosave),
		AutosaveDelay: cfg.GetDuration(config.KeyAutosaveDelay),
		CacheSize:     cfg.GetInt(config.KeyCacheSize),
		Logger:        logger.Logger,
	})
	if err != nil {
		FatalError("%v", err)
	}
	store = telemetry.WrapStorage(s)
	if err := store.Load(rootCtx); err != nil {
		FatalErrorWithHint(fmt.Sprintf("load %s: %v", dbPath, err), "Restore the file from version control or move it aside")
	}

	tagIndex = index.New(indexDir)
	a, err := agent.New(agent.Options{
		Store:   store,
		Index:   tagIndex,
		Scanner: newScanner(),
		Logger:  logger.Logger,
	})
	if err != nil {
		FatalError("%v", err)
	}
	tagAgent = a
}

func initHookRunner() {
	hookRunner = hooks.NewRunner(cfg.HooksDir(), logger.Logger)
}

// teardown flushes the store, waits for async hooks and flushes telemetry.
func teardown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if hookRunner != nil {
		hookRunner.Wait()
	}
	if store != nil {
		if err := store.Close(ctx); err != nil {
			WarnError("flush %s: %v", store.Path(), err)
		}
		store = nil
	}
	if err := providers.Shutdown(ctx); err != nil {
		logger.Debug("telemetry shutdown", "error", err)
	}
	if logger != nil {
		_ = logger.Close()
	}
	if rootCancel != nil {
		rootCancel()
	}
}

// saveStore writes pending changes now. Write commands call it so the file
// is current even when autosave is off.
func saveStore() {
	if err := store.Save(rootCtx); err != nil {
		FatalError("save %s: %v", store.Path(), err)
	}
}
