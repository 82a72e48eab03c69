package hooks

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"

	"github.com/steveyegge/tagtrace/internal/parser"
)

// ErrImmutableBlock is returned when an edit touches a TAG block marked
// @IMMUTABLE.
var ErrImmutableBlock = errors.New("immutable TAG block")

// CheckEdit rejects a change from oldContent to newContent when the old
// content carries an @IMMUTABLE TAG block and the new content removes it or
// changes any of its fields. Files without a locked block always pass.
func CheckEdit(path, oldContent, newContent string) error {
	before := parser.Parse(oldContent, path)
	if !before.Success || !before.Block.Immutable {
		return nil
	}
	after := parser.Parse(newContent, path)
	if !after.Success {
		return fmt.Errorf("%w: %s removed from %s", ErrImmutableBlock, before.Block.TagID, path)
	}

	b, a := before.Block, after.Block
	var changed []string
	if b.TagID != a.TagID {
		changed = append(changed, "id")
	}
	if !slices.Equal(b.Chain, a.Chain) {
		changed = append(changed, "CHAIN")
	}
	if !slices.Equal(b.Depends, a.Depends) {
		changed = append(changed, "DEPENDS")
	}
	if b.Status != a.Status {
		changed = append(changed, "STATUS")
	}
	if b.Created != a.Created {
		changed = append(changed, "CREATED")
	}
	if !a.Immutable {
		changed = append(changed, "@IMMUTABLE")
	}
	if len(changed) > 0 {
		return fmt.Errorf("%w: %s in %s: %v changed", ErrImmutableBlock, b.TagID, path, changed)
	}
	return nil
}

// CheckEditFile compares the file currently on disk at path with the
// proposed content. A file that does not exist yet has nothing to protect.
func CheckEditFile(path, proposed string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	return CheckEdit(path, string(data), proposed)
}
