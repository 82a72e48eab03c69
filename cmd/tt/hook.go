package main

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/steveyegge/tagtrace/internal/hooks"
	"github.com/steveyegge/tagtrace/internal/ui"
)

// exitRejected is the exit code editors and agent harnesses treat as
// "blocked by hook".
const exitRejected = 2

var hookCmd = &cobra.Command{
	Use:         "hook",
	Short:   "Editor and agent hook helpers",
	GroupID: GroupAdvanced,
}

var hookListCmd = &cobra.Command{
	Use:         "list",
	Short:       "Show which tag events have an executable hook",
	Args:        cobra.NoArgs,
	Annotations: noStore,
	Run: func(cmd *cobra.Command, args []string) {
		r := hooks.NewRunner(cfg.HooksDir(), logger.Logger)
		found := map[string]string{}
		for _, ev := range hooks.Events {
			found[ev] = r.HookPath(ev)
		}
		if jsonOutput {
			outputJSON(found)
			return
		}
		for _, ev := range hooks.Events {
			if p := found[ev]; p != "" {
				fmt.Printf("%s %-7s %s\n", ui.PassIcon(), ev, p)
			} else {
				fmt.Printf("%s %-7s %s\n", ui.RenderMuted("-"), ev, ui.RenderMuted("none"))
			}
		}
	},
}

var hookRunCmd = &cobra.Command{
	Use:   "run <event> <id>",
	Short: "Run the hook for an event against a stored tag and wait for it",
	Long: `Run the hook script for <event> (create, update, delete or repair) with
the stored tag <id>, the same way write commands do, but synchronously so
its failure is reported.

Example:
  tt hook run create @REQ:AUTH-001`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		event := args[0]
		if !slices.Contains(hooks.Events, event) {
			FatalErrorWithHint(fmt.Sprintf("unknown event %q", event), "Events: "+strings.Join(hooks.Events, ", "))
		}
		if !hookRunner.HookExists(event) {
			FatalErrorWithHint(fmt.Sprintf("no executable hook for %s", event), "Run 'tt hook list' to see installed hooks")
		}
		e := mustGetTag(args[1])
		if err := hookRunner.RunSync(rootCtx, event, e); err != nil {
			FatalError("hook %s: %v", event, err)
		}
		if jsonOutput {
			outputJSON(map[string]any{"event": event, "id": e.ID, "ok": true})
			return
		}
		fmt.Printf("%s Ran %s hook for %s\n", ui.PassIcon(), event, ui.RenderID(e.ID))
	},
}

var checkEditCmd = &cobra.Command{
	Use:   "check-edit <path> --proposed <file>",
	Short: "Reject edits that change an immutable TAG block",
	Long: `Compare the TAG block of <path> with the block in the proposed content.
If the current block is marked @IMMUTABLE and the edit changes its id, chain,
depends, status, created date or immutable flag (or removes the block), the
edit is rejected with exit code 2.

Example:
  tt hook check-edit auth/login.go --proposed /tmp/login.go.new`,
	Args:        cobra.ExactArgs(1),
	Annotations: noStore,
	Run: func(cmd *cobra.Command, args []string) {
		proposedPath, _ := cmd.Flags().GetString("proposed")
		if proposedPath == "" {
			FatalError("--proposed is required")
		}
		proposed, err := os.ReadFile(proposedPath)
		if err != nil {
			FatalError("read proposed content: %v", err)
		}

		err = hooks.CheckEditFile(args[0], string(proposed))
		if errors.Is(err, hooks.ErrImmutableBlock) {
			if jsonOutput {
				outputJSON(map[string]any{"allowed": false, "reason": err.Error()})
			} else {
				fmt.Fprintf(os.Stderr, "Rejected: %v\n", err)
			}
			teardown()
			os.Exit(exitRejected)
		}
		if err != nil {
			FatalError("%v", err)
		}
		if jsonOutput {
			outputJSON(map[string]any{"allowed": true})
		}
	},
}

func init() {
	checkEditCmd.Flags().String("proposed", "", "File holding the proposed new content")
	hookCmd.AddCommand(checkEditCmd, hookListCmd, hookRunCmd)
	rootCmd.AddCommand(hookCmd)
}
