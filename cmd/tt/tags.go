package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/steveyegge/tagtrace/internal/hooks"
	"github.com/steveyegge/tagtrace/internal/storage"
	"github.com/steveyegge/tagtrace/internal/types"
	"github.com/steveyegge/tagtrace/internal/ui"
	"github.com/steveyegge/tagtrace/internal/validation"
)

var createCmd = &cobra.Command{
	Use:   "create <id>",
	Short: "Create a tag",
	Long: `Create a single tag. The type is taken from the id unless --type is given.

Examples:
  tt create @REQ:AUTH-001 --title "Users can log in"
  tt create @TASK:AUTH-001 --parent @DESIGN:AUTH-001 --file auth/login.go`,
	GroupID: GroupTags,
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id := strings.TrimSpace(args[0])
		if err := validation.ValidateID(id); err != nil {
			FatalErrorWithHint(err.Error(), "Tag ids look like @REQ:AUTH-001")
		}
		entry := &types.TagEntry{ID: id}
		if t, _, ok := types.SplitID(id); ok && t.IsValid() {
			entry.Type = t
		}

		flags := cmd.Flags()
		entry.Title, _ = flags.GetString("title")
		entry.Description, _ = flags.GetString("description")
		entry.Author, _ = flags.GetString("author")
		entry.Parents, _ = flags.GetStringSlice("parent")
		entry.Children, _ = flags.GetStringSlice("child")
		entry.Files, _ = flags.GetStringSlice("file")
		if err := applyEnumFlags(cmd, func(t *types.TagType, c *types.Category, s *types.Status, p *types.Priority) {
			if t != nil {
				entry.Type = *t
			}
			if c != nil {
				entry.Category = *c
			}
			if s != nil {
				entry.Status = *s
			}
			if p != nil {
				entry.Priority = *p
			}
		}); err != nil {
			FatalError("%v", err)
		}

		created, err := store.CreateTag(rootCtx, entry)
		if errors.Is(err, storage.ErrDuplicateID) {
			FatalErrorWithHint(err.Error(), fmt.Sprintf("Run 'tt show %s' or 'tt update %s'", id, id))
		}
		if err != nil {
			FatalError("%v", err)
		}
		if err := tagIndex.Append(rootCtx, []*types.TagEntry{created}); err != nil {
			WarnError("index append failed: %v (run 'tt index' to rebuild)", err)
		}
		saveStore()
		hookRunner.Run(hooks.EventCreate, created)

		if jsonOutput {
			outputJSON(created)
			return
		}
		fmt.Printf("%s Created %s\n", ui.PassIcon(), ui.RenderID(created.ID))
	},
}

var showCmd = &cobra.Command{
	Use:     "show <id>",
	Short:   "Show a tag",
	GroupID: GroupTags,
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		e := mustGetTag(args[0])
		if jsonOutput {
			outputJSON(e)
			return
		}
		printTag(e)
	},
}

var updateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update fields of a tag",
	Long: `Update only the fields whose flags are given. The id cannot change.

Examples:
  tt update @TASK:AUTH-001 --status in-progress
  tt update @TEST:AUTH-001 --parent @TASK:AUTH-001 --file auth/login_test.go`,
	GroupID: GroupTags,
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id := strings.TrimSpace(args[0])
		u, err := buildUpdate(cmd)
		if err != nil {
			FatalError("%v", err)
		}
		updated, err := store.UpdateTag(rootCtx, id, u)
		if errors.Is(err, storage.ErrNotFound) {
			FatalErrorWithHint(err.Error(), "Run 'tt list' to see existing ids")
		}
		if err != nil {
			FatalError("%v", err)
		}
		if err := tagIndex.Append(rootCtx, []*types.TagEntry{updated}); err != nil {
			WarnError("index append failed: %v (run 'tt index' to rebuild)", err)
		}
		saveStore()
		hookRunner.Run(hooks.EventUpdate, updated)

		if jsonOutput {
			outputJSON(updated)
			return
		}
		fmt.Printf("%s Updated %s\n", ui.PassIcon(), ui.RenderID(updated.ID))
	},
}

var deleteCmd = &cobra.Command{
	Use:     "delete <id>",
	Short:   "Delete a tag",
	GroupID: GroupTags,
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		e := mustGetTag(args[0])
		ok, err := store.DeleteTag(rootCtx, e.ID)
		if err != nil {
			FatalError("%v", err)
		}
		if !ok {
			FatalError("%s was deleted concurrently", e.ID)
		}
		saveStore()
		hookRunner.Run(hooks.EventDelete, e)

		if jsonOutput {
			outputJSON(map[string]any{"deleted": e.ID})
			return
		}
		fmt.Printf("%s Deleted %s\n", ui.PassIcon(), ui.RenderID(e.ID))
		if len(e.Children) > 0 && !quietFlag {
			fmt.Printf("  %s %d children now reference a missing parent; run 'tt repair'\n", ui.WarnIcon(), len(e.Children))
		}
	},
}

func mustGetTag(id string) *types.TagEntry {
	id = strings.TrimSpace(id)
	e, err := store.GetTag(rootCtx, id)
	if err != nil {
		FatalError("%v", err)
	}
	if e == nil {
		FatalErrorWithHint(fmt.Sprintf("tag %s not found", id), fmt.Sprintf("Run 'tt search %s' to find similar tags", types.DomainStem(id)))
	}
	return e
}

// applyEnumFlags parses --type, --category, --status and --priority when
// they were given and hands the results to set. Unset flags are nil.
func applyEnumFlags(cmd *cobra.Command, set func(*types.TagType, *types.Category, *types.Status, *types.Priority)) error {
	flags := cmd.Flags()
	var (
		t *types.TagType
		c *types.Category
		s *types.Status
		p *types.Priority
	)
	if flags.Changed("type") {
		v, _ := flags.GetString("type")
		parsed, err := validation.ParseTagType(v)
		if err != nil {
			return err
		}
		t = &parsed
	}
	if flags.Changed("category") {
		v, _ := flags.GetString("category")
		parsed, err := validation.ParseCategory(v)
		if err != nil {
			return err
		}
		c = &parsed
	}
	if flags.Changed("status") {
		v, _ := flags.GetString("status")
		parsed, err := validation.ParseStatus(v)
		if err != nil {
			return err
		}
		s = &parsed
	}
	if flags.Changed("priority") {
		v, _ := flags.GetString("priority")
		parsed, err := validation.ParsePriority(v)
		if err != nil {
			return err
		}
		p = &parsed
	}
	set(t, c, s, p)
	return nil
}

// buildUpdate turns the changed flags of cmd into a partial update.
func buildUpdate(cmd *cobra.Command) (types.TagUpdate, error) {
	var u types.TagUpdate
	flags := cmd.Flags()
	str := func(name string) *string {
		if !flags.Changed(name) {
			return nil
		}
		v, _ := flags.GetString(name)
		return &v
	}
	list := func(name string) *[]string {
		if !flags.Changed(name) {
			return nil
		}
		v, _ := flags.GetStringSlice(name)
		return &v
	}
	u.Title = str("title")
	u.Description = str("description")
	u.Author = str("author")
	u.Parents = list("parent")
	u.Children = list("child")
	u.Files = list("file")
	err := applyEnumFlags(cmd, func(t *types.TagType, c *types.Category, s *types.Status, p *types.Priority) {
		u.Type, u.Category, u.Status, u.Priority = t, c, s, p
	})
	if err != nil {
		return types.TagUpdate{}, err
	}
	if emptyUpdate(u) {
		return u, fmt.Errorf("nothing to update (give at least one field flag)")
	}
	return u, nil
}

func emptyUpdate(u types.TagUpdate) bool {
	return u.Type == nil && u.Category == nil && u.Title == nil && u.Description == nil &&
		u.Status == nil && u.Priority == nil && u.Parents == nil && u.Children == nil &&
		u.Files == nil && u.Author == nil && len(u.Metadata) == 0
}

func printTag(e *types.TagEntry) {
	fmt.Println(ui.TagLine(e))
	fmt.Printf("%s%s %s / %s / %s\n", ui.TreeLast, ui.RenderMuted("type:"), e.Type, e.Category, e.Priority)
	if e.Description != "" {
		fmt.Printf("%s%s %s\n", ui.TreeLast, ui.RenderMuted("description:"), e.Description)
	}
	if len(e.Parents) > 0 {
		fmt.Printf("%s%s %s\n", ui.TreeLast, ui.RenderMuted("parents:"), strings.Join(e.Parents, ", "))
	}
	if len(e.Children) > 0 {
		fmt.Printf("%s%s %s\n", ui.TreeLast, ui.RenderMuted("children:"), strings.Join(e.Children, ", "))
	}
	if len(e.Files) > 0 {
		fmt.Printf("%s%s %s\n", ui.TreeLast, ui.RenderMuted("files:"), strings.Join(e.Files, ", "))
	}
	if e.Author != "" {
		fmt.Printf("%s%s %s\n", ui.TreeLast, ui.RenderMuted("author:"), e.Author)
	}
	fmt.Printf("%s%s %s  %s %s\n", ui.TreeLast,
		ui.RenderMuted("created:"), e.CreatedAt.Local().Format("2006-01-02 15:04"),
		ui.RenderMuted("updated:"), e.UpdatedAt.Local().Format("2006-01-02 15:04"))
}

func addFieldFlags(cmd *cobra.Command) {
	cmd.Flags().String("title", "", "Title")
	cmd.Flags().String("description", "", "Description")
	cmd.Flags().String("type", "", "Tag type (default: from the id)")
	cmd.Flags().String("category", "", "Category: PRIMARY, STEERING, IMPLEMENTATION or QUALITY")
	cmd.Flags().String("status", "", "Status: pending, in_progress, completed or blocked")
	cmd.Flags().String("priority", "", "Priority: critical, high, medium or low")
	cmd.Flags().StringSlice("parent", nil, "Parent tag id (repeatable)")
	cmd.Flags().StringSlice("child", nil, "Child tag id (repeatable)")
	cmd.Flags().StringSlice("file", nil, "Related file (repeatable)")
	cmd.Flags().String("author", "", "Author")
}

func init() {
	addFieldFlags(createCmd)
	addFieldFlags(updateCmd)
	rootCmd.AddCommand(createCmd, showCmd, updateCmd, deleteCmd)
}
