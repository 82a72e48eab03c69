package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/steveyegge/tagtrace/internal/agent"
	"github.com/steveyegge/tagtrace/internal/ui"
)

var scanCmd = &cobra.Command{
	Use:   "scan [path]",
	Short: "Scan source files for TAG blocks",
	Long: `Parse the leading TAG block of every eligible file under path (default: .).
The database is never modified.`,
	GroupID: GroupProject,
	Args:    cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		root := "."
		if len(args) == 1 {
			root = args[0]
		}
		rep, err := tagAgent.ScanProject(rootCtx, root)
		if err != nil {
			FatalError("%v", err)
		}
		if jsonOutput {
			outputJSON(rep)
			return
		}
		printScanReport(rep)
	},
}

func printScanReport(rep *agent.ScanReport) {
	for _, b := range rep.Blocks {
		lock := ""
		if b.Immutable {
			lock = " " + ui.RenderMuted("[immutable]")
		}
		fmt.Printf("%s  %s  %s%s\n", ui.RenderID(b.TagID), b.Status, ui.RenderMuted(fmt.Sprintf("%s:%d", b.FilePath, b.Line)), lock)
	}
	for _, f := range rep.Files {
		if f.Error != "" {
			fmt.Printf("%s %s: %s\n", ui.FailIcon(), f.Path, f.Error)
		}
		if !quietFlag {
			for _, w := range f.Warnings {
				fmt.Printf("%s %s: %s\n", ui.WarnIcon(), f.Path, w)
			}
		}
	}
	fmt.Printf("\n%s %d blocks in %d files (%d failed, %d immutable) in %s\n",
		ui.InfoIcon(), len(rep.Blocks), rep.Metrics.FilesScanned, rep.Failures, rep.Immutable, rep.Metrics.LastSearchDuration)
}

func init() {
	rootCmd.AddCommand(scanCmd)
}
