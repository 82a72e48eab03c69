package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/steveyegge/tagtrace/internal/timeparsing"
	"github.com/steveyegge/tagtrace/internal/types"
	"github.com/steveyegge/tagtrace/internal/ui"
	"github.com/steveyegge/tagtrace/internal/validation"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List tags matching filters",
	Long: `List tags from the database. Every filter narrows the result.

Dates accept compact durations (3d, 12h, 2w mean that long ago), natural
language (yesterday, last monday) and absolute dates (2025-01-31, RFC3339).

Examples:
  tt list --type TASK --status pending
  tt list --id 'AUTH' --created-after 7d
  tt list --file auth/ --updated-before 2025-01-01`,
	GroupID: GroupTags,
	Args:    cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		q, err := buildQuery(cmd.Flags(), time.Now())
		if err != nil {
			FatalError("%v", err)
		}
		res, err := store.Search(rootCtx, q)
		if err != nil {
			FatalError("%v", err)
		}
		if jsonOutput {
			outputJSON(res)
			return
		}
		if res.Total == 0 {
			fmt.Println(ui.RenderMuted("No tags found."))
			return
		}
		for _, e := range res.Tags {
			fmt.Println(ui.TagLine(e))
		}
		if !quietFlag {
			fmt.Printf("\n%s\n", ui.RenderMuted(fmt.Sprintf("%d tags (%s)", res.Total, res.Elapsed.Round(time.Microsecond))))
		}
	},
}

// buildQuery maps list flags onto a store query. Dates resolve against now.
func buildQuery(flags *pflag.FlagSet, now time.Time) (types.TagQuery, error) {
	var q types.TagQuery

	typeNames, _ := flags.GetStringSlice("type")
	for _, name := range typeNames {
		t, err := validation.ParseTagType(name)
		if err != nil {
			return q, err
		}
		q.Types = append(q.Types, t)
	}
	catNames, _ := flags.GetStringSlice("category")
	for _, name := range catNames {
		c, err := validation.ParseCategory(name)
		if err != nil {
			return q, err
		}
		q.Categories = append(q.Categories, c)
	}
	statusNames, _ := flags.GetStringSlice("status")
	for _, name := range statusNames {
		s, err := validation.ParseStatus(name)
		if err != nil {
			return q, err
		}
		q.Statuses = append(q.Statuses, s)
	}

	q.IDPattern, _ = flags.GetString("id")
	q.FilePath, _ = flags.GetString("file")
	q.ParentID, _ = flags.GetString("parent")
	q.ChildID, _ = flags.GetString("child")

	dates := []struct {
		flag string
		dst  **time.Time
	}{
		{"created-after", &q.CreatedAfter},
		{"created-before", &q.CreatedBefore},
		{"updated-after", &q.UpdatedAfter},
		{"updated-before", &q.UpdatedBefore},
	}
	for _, d := range dates {
		v, _ := flags.GetString(d.flag)
		if strings.TrimSpace(v) == "" {
			continue
		}
		t, err := timeparsing.Parse(v, now)
		if err != nil {
			return q, fmt.Errorf("--%s: %w", d.flag, err)
		}
		*d.dst = &t
	}
	return q, nil
}

func addQueryFlags(fs *pflag.FlagSet) {
	fs.StringSlice("type", nil, "Tag type (repeatable)")
	fs.StringSlice("category", nil, "Category (repeatable)")
	fs.StringSlice("status", nil, "Status (repeatable)")
	fs.String("id", "", "Regular expression matched against ids")
	fs.String("file", "", "Substring of a related file path")
	fs.String("parent", "", "Only tags with this parent")
	fs.String("child", "", "Only tags with this child")
	fs.String("created-after", "", "Created at or after this time")
	fs.String("created-before", "", "Created at or before this time")
	fs.String("updated-after", "", "Updated at or after this time")
	fs.String("updated-before", "", "Updated at or before this time")
}

func init() {
	addQueryFlags(listCmd.Flags())
	rootCmd.AddCommand(listCmd)
}
