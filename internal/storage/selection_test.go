package storage

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/trovekit/trove/pkg/models"
)

func newTestHistory(t *testing.T) *SelectionHistory {
	t.Helper()
	sh, err := LoadSelectionHistory(filepath.Join(t.TempDir(), "selection.yml"))
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	return sh
}

func sel(paths ...string) Selection {
	s := Selection{}
	for _, p := range paths {
		s.Paths = append(s.Paths, models.StorePath(p))
	}
	return s
}

func TestSelectionPushAndNavigate(t *testing.T) {
	sh := newTestHistory(t)

	if !sh.Current().IsEmpty() {
		t.Error("fresh history should have empty current selection")
	}

	sh.Push(sel("notes/a.note.md"))
	sh.Push(sel("notes/b.note.md"))
	sh.Push(sel("notes/c.note.md"))

	if got := sh.Current().Paths[0]; got != "notes/c.note.md" {
		t.Errorf("current should be last pushed, got %s", got)
	}

	prev, err := sh.Previous()
	if err != nil {
		t.Fatalf("previous failed: %v", err)
	}
	if prev.Paths[0] != "notes/b.note.md" {
		t.Errorf("previous selection wrong: %v", prev.Paths)
	}

	next, err := sh.Next()
	if err != nil {
		t.Fatalf("next failed: %v", err)
	}
	if next.Paths[0] != "notes/c.note.md" {
		t.Errorf("next selection wrong: %v", next.Paths)
	}

	if _, err := sh.Next(); err == nil {
		t.Error("next past the end should fail")
	}
	var state *models.InvalidStateError
	_, err = sh.Next()
	if !errors.As(err, &state) {
		t.Errorf("expected invalid state error, got %v", err)
	}
}

func TestSelectionPushDropsEmptyAndDuplicate(t *testing.T) {
	sh := newTestHistory(t)

	sh.Push(sel())
	if sh.Len() != 0 {
		t.Error("empty selection should not be recorded")
	}

	sh.Push(sel("notes/a.note.md"))
	sh.Push(sel("notes/a.note.md"))
	if sh.Len() != 1 {
		t.Errorf("duplicate of last selection should be dropped, history len %d", sh.Len())
	}
}

func TestSelectionPushTruncatesFuture(t *testing.T) {
	sh := newTestHistory(t)
	sh.Push(sel("notes/a.note.md"))
	sh.Push(sel("notes/b.note.md"))
	sh.Push(sel("notes/c.note.md"))

	if _, err := sh.Previous(); err != nil {
		t.Fatal(err)
	}
	if _, err := sh.Previous(); err != nil {
		t.Fatal(err)
	}

	sh.Push(sel("notes/d.note.md"))
	if sh.Len() != 2 {
		t.Errorf("push after navigating back should discard the future, len %d", sh.Len())
	}
	if _, err := sh.Next(); err == nil {
		t.Error("no next should remain after future was truncated")
	}
}

func TestSelectionPop(t *testing.T) {
	sh := newTestHistory(t)

	if _, err := sh.Pop(); err == nil {
		t.Error("pop of empty history should fail")
	}

	sh.Push(sel("notes/a.note.md"))
	popped, err := sh.Pop()
	if err != nil {
		t.Fatalf("pop failed: %v", err)
	}
	if popped.Paths[0] != "notes/a.note.md" {
		t.Errorf("popped wrong selection: %v", popped.Paths)
	}
	if sh.Len() != 0 {
		t.Error("history should be empty after pop")
	}
}

func TestSelectionBounded(t *testing.T) {
	sh := newTestHistory(t)
	sh.maxHistory = 5

	for i := 0; i < 20; i++ {
		sh.Push(sel("notes/" + string(rune('a'+i)) + ".note.md"))
	}
	if sh.Len() != 5 {
		t.Errorf("history should be bounded at 5, got %d", sh.Len())
	}
	if got := sh.Current().Paths[0]; got != "notes/t.note.md" {
		t.Errorf("newest entry should survive truncation, got %s", got)
	}
}

func TestSelectionRemoveValues(t *testing.T) {
	sh := newTestHistory(t)
	sh.Push(sel("notes/a.note.md", "notes/b.note.md"))
	sh.Push(sel("notes/b.note.md"))

	sh.RemoveValues([]models.StorePath{"notes/b.note.md"})

	if sh.Len() != 1 {
		t.Errorf("selection emptied by removal should be dropped, len %d", sh.Len())
	}
	cur := sh.Current()
	if len(cur.Paths) != 1 || cur.Paths[0] != "notes/a.note.md" {
		t.Errorf("unexpected surviving selection: %v", cur.Paths)
	}
}

func TestSelectionReplaceValues(t *testing.T) {
	sh := newTestHistory(t)
	sh.Push(sel("notes/a.note.md"))
	sh.Push(sel("notes/a.note.md", "notes/b.note.md"))

	sh.ReplaceValues(map[models.StorePath]models.StorePath{
		"notes/a.note.md": "notes/renamed.note.md",
	})

	history, _ := sh.History()
	for _, s := range history {
		for _, p := range s.Paths {
			if p == "notes/a.note.md" {
				t.Error("old path should be replaced in all history entries")
			}
		}
	}
}

func TestSelectionPersistsAcrossLoads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "selection.yml")
	sh, err := LoadSelectionHistory(path)
	if err != nil {
		t.Fatal(err)
	}
	sh.Push(sel("notes/a.note.md"))
	sh.Push(sel("notes/b.note.md"))
	sh.Previous()

	reloaded, err := LoadSelectionHistory(path)
	if err != nil {
		t.Fatal(err)
	}
	if reloaded.Len() != 2 {
		t.Errorf("reloaded history length %d", reloaded.Len())
	}
	if got := reloaded.Current().Paths[0]; got != "notes/a.note.md" {
		t.Errorf("current position should persist, got %s", got)
	}
}

func TestSelectionDroppedPushPersistsTruncation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "selection.yml")
	sh, err := LoadSelectionHistory(path)
	if err != nil {
		t.Fatal(err)
	}
	sh.Push(sel("notes/a.note.md"))
	sh.Push(sel("notes/b.note.md"))
	if _, err := sh.Previous(); err != nil {
		t.Fatal(err)
	}

	// A push that is dropped (empty, or duplicate of the current entry)
	// still discards the forward branch, and that must reach disk.
	if err := sh.Push(Selection{}); err != nil {
		t.Fatal(err)
	}

	reloaded, err := LoadSelectionHistory(path)
	if err != nil {
		t.Fatal(err)
	}
	if reloaded.Len() != 1 {
		t.Fatalf("forward branch should be truncated on disk, len=%d", reloaded.Len())
	}
	if got := reloaded.Current().Paths[0]; got != "notes/a.note.md" {
		t.Errorf("current entry should survive, got %s", got)
	}
	if _, err := reloaded.Next(); err == nil {
		t.Error("no forward entry should remain after reload")
	}
}
