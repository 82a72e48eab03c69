package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/steveyegge/tagtrace/internal/agent"
	"github.com/steveyegge/tagtrace/internal/hooks"
	"github.com/steveyegge/tagtrace/internal/ui"
)

var chainCmd = &cobra.Command{
	Use:   "chain <domain>",
	Short: "Create a REQ -> DESIGN -> TASK -> TEST chain",
	Long: `Create four linked tags for the next free sequence number of a domain.

Similar existing domains are reported; they never block creation.

Examples:
  tt chain auth --description "Users log in with email"
  tt chain "user profile" --file profile/handler.go`,
	GroupID: GroupChains,
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		desc, _ := cmd.Flags().GetString("description")
		files, _ := cmd.Flags().GetStringSlice("file")

		res, err := tagAgent.CreateTagChain(rootCtx, args[0], desc, files)
		if err != nil {
			FatalError("%v", err)
		}
		for _, id := range res.Created {
			if e, err := store.GetTag(rootCtx, id); err == nil && e != nil {
				hookRunner.Run(hooks.EventCreate, e)
			}
		}

		if jsonOutput {
			outputJSON(res)
			return
		}
		fmt.Printf("%s Created chain for %s\n", ui.PassIcon(), ui.RenderAccent(res.Domain))
		for _, id := range res.Created {
			fmt.Printf("  %s%s\n", ui.TreeLast, ui.RenderID(id))
		}
		if !res.ChainIntegrity {
			fmt.Printf("%s chain failed validation; run 'tt validate'\n", ui.WarnIcon())
		}
		printSuggestions(res.Suggestions)
		printWarnings(res.Warnings)
	},
}

var searchCmd = &cobra.Command{
	Use:   "search <keyword>",
	Short: "Search tags by keyword and suggest domains to reuse",
	Long: `Search ids, types and file paths for a keyword and rank similar domains.

Examples:
  tt search auth
  tt search TASK
  tt search handlers/login.go`,
	GroupID: GroupChains,
	Args:    cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		res, err := tagAgent.SearchTags(rootCtx, strings.Join(args, " "))
		if err != nil {
			FatalError("%v", err)
		}
		if jsonOutput {
			outputJSON(res)
			return
		}
		if res.Total == 0 {
			fmt.Println(ui.RenderMuted("No tags found."))
		}
		for _, e := range res.Tags {
			fmt.Println(ui.TagLine(e))
		}
		printSuggestions(res.Recommendations)
		if len(res.Suggestions) > 0 && !quietFlag {
			fmt.Println()
			for _, s := range res.Suggestions {
				fmt.Printf("%s %s\n", ui.InfoIcon(), s)
			}
		}
	},
}

var validateCmd = &cobra.Command{
	Use:     "validate",
	Short:   "Validate every tag and its chain",
	GroupID: GroupChains,
	Args:    cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		rep, err := tagAgent.ValidateTagSystem(rootCtx)
		if err != nil {
			FatalError("%v", err)
		}
		if jsonOutput {
			outputJSON(rep)
		} else {
			printSystemReport(rep)
		}
		if len(rep.InvalidTags) > 0 {
			teardown()
			os.Exit(1)
		}
	},
}

var repairCmd = &cobra.Command{
	Use:   "repair",
	Short: "Repair broken parent references and attach orphans",
	Long: `Retarget parents that no longer exist to the most similar existing tag,
then attach orphans to the tag their type expects (TASK under DESIGN, and so
on). Links that would create a cycle are skipped.`,
	GroupID: GroupChains,
	Args:    cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		res, err := tagAgent.RepairTagChains(rootCtx)
		if err != nil {
			FatalError("%v", err)
		}
		seen := map[string]bool{}
		for _, edge := range res.NewEdges {
			if seen[edge.Child] {
				continue
			}
			seen[edge.Child] = true
			if e, err := store.GetTag(rootCtx, edge.Child); err == nil && e != nil {
				hookRunner.Run(hooks.EventRepair, e)
			}
		}

		if jsonOutput {
			outputJSON(res)
			return
		}
		fmt.Printf("%s Repaired %d chains, fixed %d orphans\n", ui.PassIcon(), res.ChainsRepaired, res.OrphansFixed)
		for _, e := range res.NewEdges {
			fmt.Printf("  %s%s -> %s\n", ui.TreeLast, e.Parent, e.Child)
		}
		for _, s := range res.Skipped {
			fmt.Printf("  %s %s\n", ui.WarnIcon(), s)
		}
	},
}

var indexCmd = &cobra.Command{
	Use:     "index",
	Short:   "Save the database and rebuild the distributed index",
	GroupID: GroupChains,
	Args:    cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		res, err := tagAgent.OptimizeIndexes(rootCtx)
		if err != nil {
			FatalError("%v", err)
		}
		if jsonOutput {
			outputJSON(res)
			return
		}
		fmt.Printf("%s Rebuilt index for %d tags: %s -> %s (%.1f%% smaller)\n",
			ui.PassIcon(), res.Tags, humanBytes(res.SizeBefore), humanBytes(res.SizeAfter), res.Reduction*100)
	},
}

var statsCmd = &cobra.Command{
	Use:     "stats",
	Short:   "Show tag counts, health score and quality gate",
	GroupID: GroupChains,
	Args:    cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		rep, err := tagAgent.GenerateStatistics(rootCtx)
		if err != nil {
			FatalError("%v", err)
		}
		if jsonOutput {
			outputJSON(rep)
			return
		}
		fmt.Printf("%s %d tags, health %.1f, gate %s\n", ui.RenderHeader("stats"), rep.TotalTags, rep.HealthScore, ui.RenderGate(string(rep.QualityGate)))
		fmt.Println(ui.RenderSeparator())
		printCounts("type", rep.ByType)
		printCounts("category", rep.ByCategory)
		printCounts("status", rep.ByStatus)
		fmt.Printf("orphaned %d  circular %d  invalid %d  broken chains %d\n",
			rep.OrphanedTags, rep.CircularReferences, rep.InvalidTags, rep.BrokenChains)
	},
}

func printSuggestions(s []agent.ReuseSuggestion) {
	if len(s) == 0 || quietFlag {
		return
	}
	fmt.Printf("\n%s\n", ui.RenderHeader("similar domains"))
	for _, r := range s {
		line := fmt.Sprintf("  %s %.2f", r.ID, r.Similarity)
		if r.ShouldReuse {
			line += "  " + ui.RenderWarn("consider reusing")
		}
		fmt.Println(line)
	}
}

func printSystemReport(rep *agent.SystemReport) {
	icon := ui.PassIcon()
	if len(rep.InvalidTags) > 0 {
		icon = ui.FailIcon()
	}
	fmt.Printf("%s %d of %d tags valid\n", icon, rep.Valid, rep.Total)
	for _, id := range rep.InvalidTags {
		fmt.Printf("  %s %s\n", ui.FailIcon(), ui.RenderID(id))
		for _, msg := range rep.Errors[id] {
			fmt.Printf("    %s%s\n", ui.TreeLast, msg)
		}
	}
	if len(rep.OrphanedTags) > 0 {
		fmt.Printf("%s orphaned: %s\n", ui.WarnIcon(), strings.Join(rep.OrphanedTags, ", "))
	}
	if len(rep.BrokenChains) > 0 {
		fmt.Printf("%s broken chains: %s\n", ui.WarnIcon(), strings.Join(rep.BrokenChains, ", "))
	}
	for _, c := range rep.Cycles {
		fmt.Printf("%s cycle: %s -> %s\n", ui.FailIcon(), strings.Join(c, " -> "), c[0])
	}
	for _, r := range rep.BrokenRefs {
		fmt.Printf("%s %s references missing parent %s\n", ui.WarnIcon(), r.ID, r.Parent)
	}
	if len(rep.OrphanedTags)+len(rep.BrokenRefs) > 0 && !quietFlag {
		fmt.Println(ui.RenderMuted("Run 'tt repair' to fix orphans and broken references."))
	}
}

func printCounts(label string, m map[string]int) {
	if len(m) == 0 {
		return
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%d", k, m[k]))
	}
	fmt.Printf("%-9s %s\n", label, strings.Join(parts, " "))
}

func humanBytes(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1fMB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1fKB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%dB", n)
	}
}

func init() {
	chainCmd.Flags().String("description", "", "Description stored on every tag of the chain")
	chainCmd.Flags().StringSlice("file", nil, "Related file attached to every tag of the chain (repeatable)")
	rootCmd.AddCommand(chainCmd, searchCmd, validateCmd, repairCmd, indexCmd, statsCmd)
}
