package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/steveyegge/tagtrace/internal/scanner"
	"github.com/steveyegge/tagtrace/internal/types"
	"github.com/steveyegge/tagtrace/internal/ui"
)

var watchCmd = &cobra.Command{
	Use:   "watch [path]",
	Short: "Rescan TAG blocks whenever source files change",
	Long: `Watch path (default: .) and rescan after changes settle. Each rescan
reports added, removed and changed blocks. Press Ctrl+C to stop.`,
	GroupID: GroupProject,
	Args:    cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		root := "."
		if len(args) == 1 {
			root = args[0]
		}
		delay, _ := cmd.Flags().GetDuration("debounce")
		if err := runWatch(root, delay); err != nil {
			FatalError("%v", err)
		}
	},
}

func runWatch(root string, delay time.Duration) error {
	sc := newScanner()
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := addWatchDirs(watcher, sc, root); err != nil {
		return err
	}

	prev := map[string]types.TagBlock{}
	rescan := func() {
		rep, err := tagAgent.ScanProject(rootCtx, root)
		if err != nil {
			WarnError("rescan failed: %v", err)
			return
		}
		next := blocksByFile(rep.Blocks)
		added, removed, changed := diffBlocks(prev, next)
		prev = next
		if jsonOutput {
			outputJSON(map[string]any{"added": added, "removed": removed, "changed": changed, "total": len(next)})
			return
		}
		fmt.Printf("%s %s %d blocks", ui.RenderMuted(time.Now().Format("15:04:05")), ui.InfoIcon(), len(next))
		if n := len(added) + len(removed) + len(changed); n > 0 {
			fmt.Printf(" (%d added, %d removed, %d changed)", len(added), len(removed), len(changed))
		}
		fmt.Println()
		for _, p := range added {
			fmt.Printf("  + %s %s\n", ui.RenderID(next[p].TagID), ui.RenderMuted(p))
		}
		for _, p := range changed {
			fmt.Printf("  ~ %s %s\n", ui.RenderID(next[p].TagID), ui.RenderMuted(p))
		}
		for _, p := range removed {
			fmt.Printf("  - %s\n", ui.RenderMuted(p))
		}
	}

	// rescan runs only from the debouncer, whose runs never overlap
	deb := NewDebouncer(delay, rescan)
	defer deb.Stop()
	deb.Trigger()
	if !jsonOutput {
		fmt.Fprintf(os.Stderr, "Watching %s for changes... (Press Ctrl+C to exit)\n", root)
	}

	for {
		select {
		case <-rootCtx.Done():
			if !jsonOutput {
				fmt.Fprintf(os.Stderr, "\nStopped watching.\n")
			}
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := addWatchDirs(watcher, sc, event.Name); err != nil {
						logger.Debug("watch new directory", "path", event.Name, "error", err)
					}
					deb.Trigger()
					continue
				}
			}
			if relevant(event, sc) {
				deb.Trigger()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			WarnError("watcher: %v", err)
		}
	}
}

// addWatchDirs adds root and every non-excluded directory below it.
func addWatchDirs(w *fsnotify.Watcher, sc *scanner.Scanner, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && sc.Excluded(d.Name()) {
			return filepath.SkipDir
		}
		if err := w.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

func relevant(event fsnotify.Event, sc *scanner.Scanner) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}
	return sc.Eligible(filepath.Base(event.Name))
}

func blocksByFile(blocks []types.TagBlock) map[string]types.TagBlock {
	m := make(map[string]types.TagBlock, len(blocks))
	for _, b := range blocks {
		m[b.FilePath] = b
	}
	return m
}

// diffBlocks compares two scans keyed by file path. Results are sorted.
func diffBlocks(prev, next map[string]types.TagBlock) (added, removed, changed []string) {
	for p, b := range next {
		old, ok := prev[p]
		switch {
		case !ok:
			added = append(added, p)
		case !reflect.DeepEqual(old, b):
			changed = append(changed, p)
		}
	}
	for p := range prev {
		if _, ok := next[p]; !ok {
			removed = append(removed, p)
		}
	}
	sort.Strings(added)
	sort.Strings(removed)
	sort.Strings(changed)
	return added, removed, changed
}

func init() {
	watchCmd.Flags().Duration("debounce", 500*time.Millisecond, "Quiet period before rescanning")
	rootCmd.AddCommand(watchCmd)
}
