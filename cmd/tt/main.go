package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/steveyegge/tagtrace/internal/agent"
	"github.com/steveyegge/tagtrace/internal/config"
	"github.com/steveyegge/tagtrace/internal/hooks"
	"github.com/steveyegge/tagtrace/internal/index"
	"github.com/steveyegge/tagtrace/internal/logging"
	"github.com/steveyegge/tagtrace/internal/storage"
	"github.com/steveyegge/tagtrace/internal/telemetry"
)

var (
	dbPath      string
	indexDir    string
	jsonOutput  bool
	verboseFlag bool
	quietFlag   bool
	noAutosave  bool

	cfg        *config.Config
	logger     *logging.Logger
	providers  *telemetry.Providers
	store      storage.Storage
	tagIndex   *index.Index
	tagAgent   *agent.Agent
	hookRunner *hooks.Runner

	// Signal-aware context for graceful cancellation
	rootCtx    context.Context
	rootCancel context.CancelFunc
)

// Command groups for help output.
const (
	GroupTags     = "tags"
	GroupChains   = "chains"
	GroupProject  = "project"
	GroupAdvanced = "advanced"
)

func init() {
	rootCmd.AddGroup(
		&cobra.Group{ID: GroupTags, Title: "Working With Tags:"},
		&cobra.Group{ID: GroupChains, Title: "Chains & Health:"},
		&cobra.Group{ID: GroupProject, Title: "Project Files:"},
		&cobra.Group{ID: GroupAdvanced, Title: "Integrations & Setup:"},
	)

	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Tag database path (default: .tags/tags.json)")
	rootCmd.PersistentFlags().StringVar(&indexDir, "index-dir", "", "Distributed index directory (default: .tags/index)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Enable verbose/debug output")
	rootCmd.PersistentFlags().BoolVarP(&quietFlag, "quiet", "q", false, "Suppress non-essential output (errors only)")
	rootCmd.PersistentFlags().BoolVar(&noAutosave, "no-autosave", false, "Disable delayed autosave; write only on explicit save and exit")

	rootCmd.Flags().BoolP("version", "V", false, "Print version information")
}

var rootCmd = &cobra.Command{
	Use:   "tt",
	Short: "tt - requirement traceability tags",
	Long: `Traceability tags link requirements to designs, tasks and tests.

tt keeps a tag database under .tags/, reads TAG blocks from the top of
source files, and keeps REQ -> DESIGN -> TASK -> TEST chains healthy.`,
	Run: func(cmd *cobra.Command, args []string) {
		if v, _ := cmd.Flags().GetBool("version"); v {
			fmt.Printf("tt version %s (%s)\n", Version, Build)
			return
		}
		_ = cmd.Help()
	},
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupSignalContext()
		loadConfig()
		applyConfigOverrides(cmd)
		setupLogging()
		setupUI()
		setupTelemetry()

		if isNoStoreCommand(cmd) {
			return
		}
		openStore()
		initHookRunner()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		teardown()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
