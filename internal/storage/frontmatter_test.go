package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFrontmatterRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		style FmStyle
	}{
		{"yaml", StyleYAML},
		{"html", StyleHTML},
		{"hash", StyleHash},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "file.txt")
			meta := []byte("title: Hello\ncount: 3\n")
			body := "body line one\nbody line two\n"

			if err := WriteFileWithFrontmatter(path, body, meta, tt.style); err != nil {
				t.Fatalf("write failed: %v", err)
			}

			gotBody, gotMeta, err := ReadFileWithFrontmatter(path)
			if err != nil {
				t.Fatalf("read failed: %v", err)
			}
			if gotBody != body {
				t.Errorf("body mismatch: %q != %q", gotBody, body)
			}
			if string(gotMeta) != string(meta) {
				t.Errorf("metadata mismatch: %q != %q", gotMeta, meta)
			}
		})
	}
}

func TestFrontmatterOffsetSkipsOnlyHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file.md")
	// The body contains its own frontmatter-like delimiters, which must
	// not be parsed as frontmatter.
	body := "---\nnot: frontmatter\n---\nreal body\n"
	if err := WriteFileWithFrontmatter(path, body, []byte("a: 1\n"), StyleYAML); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	gotBody, _, err := ReadFileWithFrontmatter(path)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if gotBody != body {
		t.Errorf("body with embedded delimiters mangled: %q", gotBody)
	}
}

func TestFrontmatterMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plain.txt")
	if err := os.WriteFile(path, []byte("just text\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	body, meta, err := ReadFileWithFrontmatter(path)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if meta != nil && len(meta) != 0 {
		t.Errorf("expected no metadata, got %q", meta)
	}
	if body != "just text\n" {
		t.Errorf("body mismatch: %q", body)
	}
}

func TestFrontmatterUnterminated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.md")
	if err := os.WriteFile(path, []byte("---\ntitle: x\nno end delimiter\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := ReadFrontmatterRaw(path); err == nil {
		t.Error("expected error for unterminated frontmatter")
	}
}

func TestStripFrontmatter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file.md")
	if err := WriteFileWithFrontmatter(path, "the body\n", []byte("title: x\n"), StyleYAML); err != nil {
		t.Fatal(err)
	}
	if err := StripFrontmatter(path); err != nil {
		t.Fatalf("strip failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "the body\n" {
		t.Errorf("expected bare body after strip, got %q", data)
	}
	// Stripping again is a no-op.
	if err := StripFrontmatter(path); err != nil {
		t.Fatalf("re-strip failed: %v", err)
	}
}

func TestHashStylePrefixStripped(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file.yml")
	if err := WriteFileWithFrontmatter(path, "key: value\n", []byte("title: Config\n"), StyleHash); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "# title: Config") {
		t.Errorf("hash style should prefix metadata lines: %q", data)
	}

	_, meta, err := ReadFileWithFrontmatter(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(meta) != "title: Config\n" {
		t.Errorf("prefix not stripped on read: %q", meta)
	}
}
