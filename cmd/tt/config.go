package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/steveyegge/tagtrace/internal/config"
	"github.com/steveyegge/tagtrace/internal/ui"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show and edit tt configuration",
	Long: `Configuration is read from .tags/config.yaml in the project (found by
walking up from the working directory), falling back to the user config
directory. TT_* environment variables override the file; flags override both.

Keys:
  db, index-dir, autosave, autosave-delay, cache-size, json,
  scan.max-lines, scan.exclude, scan.extensions,
  log.file, log.level, log.max-size-mb, log.max-backups`,
	GroupID:     GroupAdvanced,
	Annotations: noStore,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		settings := cfg.Settings()
		if jsonOutput {
			outputJSON(map[string]any{"root": cfg.Root(), "file": cfg.File(), "settings": settings})
			return
		}
		file := cfg.File()
		if file == "" {
			file = ui.RenderMuted("(none, using defaults)")
		}
		fmt.Printf("%s %s\n%s %s\n\n", ui.RenderMuted("root:"), cfg.Root(), ui.RenderMuted("file:"), file)
		keys := make([]string, 0, len(settings))
		for k := range settings {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Printf("%-16s %v\n", k, settings[k])
		}
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default .tags/config.yaml",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		path := cfg.ProjectFile()
		if err := config.WriteDefault(path); err != nil {
			FatalError("%v", err)
		}
		if jsonOutput {
			outputJSON(map[string]string{"created": path})
			return
		}
		fmt.Printf("%s Wrote %s\n", ui.PassIcon(), path)
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a key in the project config file",
	Long: `Set a key in .tags/config.yaml, creating the file if needed.
List keys take comma-separated values. Comments in the file are not kept.

Examples:
  tt config set scan.max-lines 30
  tt config set scan.exclude vendor,testdata`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		if !config.IsKnownKey(args[0]) {
			FatalErrorWithHint(fmt.Sprintf("unknown config key %q", args[0]), "Run 'tt config --help' for the list of keys")
		}
		path := cfg.ProjectFile()
		if err := config.SetValue(path, args[0], args[1]); err != nil {
			FatalError("%v", err)
		}
		if jsonOutput {
			outputJSON(map[string]string{"key": args[0], "value": args[1], "file": path})
			return
		}
		fmt.Printf("%s Set %s = %s in %s\n", ui.PassIcon(), args[0], args[1], path)
	},
}

func init() {
	configCmd.AddCommand(configShowCmd, configInitCmd, configSetCmd)
	rootCmd.AddCommand(configCmd)
}
