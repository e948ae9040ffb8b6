package core

import (
	"strings"
	"testing"

	"github.com/trovekit/trove/pkg/models"
)

func savedPart(title, body string, path models.StorePath) models.Item {
	item := models.NewNote(title, body)
	item.StorePath = path
	return item
}

func TestCombineAsParagraphs(t *testing.T) {
	parts := []models.Item{
		savedPart("Summary", "A short summary.\n", "notes/summary.note.md"),
		savedPart("Outline", "1. First\n2. Second\n", "notes/outline.note.md"),
	}

	combined, err := CombineAsParagraphs(parts, parts)
	if err != nil {
		t.Fatalf("combine failed: %v", err)
	}

	want := "A short summary.\n\n1. First\n2. Second\n"
	if combined.Body != want {
		t.Errorf("unexpected combined body:\n%q\nwant:\n%q", combined.Body, want)
	}
	if combined.ItemType != models.TypeDoc || combined.Format != models.FormatMarkdown {
		t.Errorf("combined item should be a markdown doc: %s/%s", combined.ItemType, combined.Format)
	}
	if !strings.Contains(combined.Title, "Summary") {
		t.Errorf("title should come from the first input: %q", combined.Title)
	}
	if len(combined.Relations.DerivedFrom) != 2 {
		t.Errorf("combined item should derive from all parts: %v", combined.Relations.DerivedFrom)
	}
}

func TestCombineRejectsEmptyAndUnsavedParts(t *testing.T) {
	if _, err := CombineAsParagraphs(nil, nil); err == nil {
		t.Error("combining nothing should fail")
	}

	unsaved := models.NewNote("Floating", "text\n")
	if _, err := CombineAsParagraphs(nil, []models.Item{unsaved}); err == nil {
		t.Error("combining an unsaved part should fail")
	}

	blank := savedPart("Blank", "", "notes/blank.note.md")
	if _, err := CombineAsParagraphs(nil, []models.Item{blank}); err == nil {
		t.Error("combining a bodyless part should fail")
	}
}

func TestCombineMergesHistories(t *testing.T) {
	opA := models.Operation{ActionName: "summarize"}
	opB := models.Operation{ActionName: "outline"}

	a := savedPart("Part A", "aaa\n", "notes/a.note.md")
	a.History = []models.Source{{Operation: opA}}
	b := savedPart("Part B", "bbb\n", "notes/b.note.md")
	b.History = []models.Source{{Operation: opA}, {Operation: opB}}

	combined, err := CombineAsParagraphs(nil, []models.Item{a, b})
	if err != nil {
		t.Fatal(err)
	}
	if len(combined.History) != 2 {
		t.Errorf("shared history entries should be deduplicated: %v", combined.History)
	}
}
