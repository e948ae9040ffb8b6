package storage

import (
	"testing"

	"github.com/trovekit/trove/pkg/models"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Hello, World!", "hello_world"},
		{"  spaced   out  ", "spaced_out"},
		{"Café au lait", "cafe_au_lait"},
		{"MiXeD CaSe 42", "mixed_case_42"},
		{"", "untitled"},
		{"!!!", "untitled"},
	}
	for _, tt := range tests {
		if got := Slugify(tt.in); got != tt.want {
			t.Errorf("Slugify(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseItemFilename(t *testing.T) {
	name, itemType, ext, err := ParseItemFilename("my_note.note.md")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if name != "my_note" || itemType != models.TypeNote || ext != models.ExtMd {
		t.Errorf("unexpected parse: %q %q %q", name, itemType, ext)
	}

	// A plain file without a type part.
	name, itemType, ext, err = ParseItemFilename("readme.md")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if name != "readme" || itemType != "" || ext != models.ExtMd {
		t.Errorf("unexpected parse: %q %q %q", name, itemType, ext)
	}

	// Dots in the base name are preserved.
	name, itemType, _, err = ParseItemFilename("v1.2_notes.doc.md")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if name != "v1.2_notes" || itemType != models.TypeDoc {
		t.Errorf("unexpected parse: %q %q", name, itemType)
	}

	if _, _, _, err := ParseItemFilename("no_extension"); err == nil {
		t.Error("filename without extension should fail")
	}
	if _, _, _, err := ParseItemFilename("file.xyz"); err == nil {
		t.Error("unrecognized extension should fail")
	}
}

func TestUniquifier(t *testing.T) {
	u := NewUniquifier()

	if got := u.Uniquify("foo", ""); got != "foo" {
		t.Errorf("first use should be unchanged: %s", got)
	}
	if got := u.Uniquify("foo", ""); got != "foo_1" {
		t.Errorf("second use should get suffix: %s", got)
	}
	if got := u.Uniquify("foo", ""); got != "foo_2" {
		t.Errorf("third use should get next suffix: %s", got)
	}

	unique, old := u.UniquifyHistoric("foo", "")
	if unique != "foo_3" {
		t.Errorf("unexpected unique name: %s", unique)
	}
	if len(old) != 3 || old[0] != "foo" || old[1] != "foo_1" || old[2] != "foo_2" {
		t.Errorf("unexpected old names: %v", old)
	}

	// Groups are independent namespaces.
	if got := u.Uniquify("foo", "note.md"); got != "foo" {
		t.Errorf("different group should not collide: %s", got)
	}
	if got := u.Uniquify("foo", "note.md"); got != "foo_1" {
		t.Errorf("collision within group should suffix: %s", got)
	}
}
