package storage

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/trovekit/trove/pkg/models"
)

// FmStyle is a frontmatter demarcation style. Different styles keep the
// file valid in its own syntax: YAML dashes for Markdown and text, an
// HTML comment for HTML, and hash-prefixed lines for hash-commented
// formats. Any style is accepted on read; the style is auto-detected
// from the first line.
type FmStyle struct {
	Name          string
	Start         string
	End           string
	Prefix        string
	StripPrefixes []string
}

var (
	StyleYAML = FmStyle{Name: "yaml", Start: "---", End: "---"}
	StyleHTML = FmStyle{Name: "html", Start: "<!---", End: "--->"}
	StyleHash = FmStyle{Name: "hash", Start: "#---", End: "#---", Prefix: "# ", StripPrefixes: []string{"# ", "#"}}
)

func (s FmStyle) stripPrefix(line string) string {
	for _, prefix := range s.StripPrefixes {
		if strings.HasPrefix(line, prefix) {
			return line[len(prefix):]
		}
	}
	return line
}

// StyleForFormat picks the frontmatter style used when writing a body of
// the given format.
func StyleForFormat(format models.Format) FmStyle {
	if format == models.FormatHTML {
		return StyleHTML
	}
	return StyleYAML
}

// WriteFileWithFrontmatter writes body content preceded by raw metadata in
// the given frontmatter style. The write goes to a temp file first and is
// moved into place atomically; parent directories are created as needed.
func WriteFileWithFrontmatter(path string, body string, metadata []byte, style FmStyle) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create parent dirs for %s: %w", path, err)
	}

	tmpPath := path + ".fmf.write.tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	write := func() error {
		w := bufio.NewWriter(f)
		if len(metadata) > 0 {
			if _, err := w.WriteString(style.Start + "\n"); err != nil {
				return err
			}
			for _, line := range strings.Split(strings.TrimRight(string(metadata), "\n"), "\n") {
				if _, err := w.WriteString(style.Prefix + line + "\n"); err != nil {
					return err
				}
			}
			if _, err := w.WriteString(style.End + "\n"); err != nil {
				return err
			}
		}
		if _, err := w.WriteString(body); err != nil {
			return err
		}
		return w.Flush()
	}

	if err := write(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}

// ReadFrontmatterRaw reads only the frontmatter block from a file and
// returns the raw metadata (with per-line prefixes stripped) together with
// the byte offset where the body begins. The body itself is not read.
// A file without recognized frontmatter returns nil metadata and offset 0.
func ReadFrontmatterRaw(path string) ([]byte, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	r := bufio.NewReader(f)
	firstLine, err := r.ReadString('\n')
	if err != nil && err != io.EOF {
		return nil, 0, fmt.Errorf("read %s: %w", path, err)
	}

	var style FmStyle
	switch strings.TrimRight(firstLine, "\r\n") {
	case StyleYAML.Start:
		style = StyleYAML
	case StyleHTML.Start:
		style = StyleHTML
	case StyleHash.Start:
		style = StyleHash
	default:
		return nil, 0, nil
	}

	offset := int64(len(firstLine))
	var metadata strings.Builder
	for {
		line, err := r.ReadString('\n')
		if line != "" {
			offset += int64(len(line))
			if strings.TrimRight(line, "\r\n") == style.End {
				return []byte(metadata.String()), offset, nil
			}
			metadata.WriteString(style.stripPrefix(line))
		}
		if err == io.EOF {
			return nil, 0, fmt.Errorf("frontmatter end delimiter %q not found: %s", style.End, path)
		}
		if err != nil {
			return nil, 0, fmt.Errorf("read %s: %w", path, err)
		}
	}
}

// ReadFileWithFrontmatter reads a file's body and raw frontmatter
// metadata. The body is everything after the frontmatter block, or the
// whole file if there is none.
func ReadFileWithFrontmatter(path string) (body string, metadata []byte, err error) {
	metadata, offset, err := ReadFrontmatterRaw(path)
	if err != nil {
		return "", nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return "", nil, err
	}
	defer f.Close()

	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return "", nil, fmt.Errorf("seek past frontmatter in %s: %w", path, err)
	}
	data, err := io.ReadAll(f)
	if err != nil {
		return "", nil, fmt.Errorf("read body of %s: %w", path, err)
	}
	return string(data), metadata, nil
}

// StripFrontmatter removes the frontmatter block from a file in place,
// copying the body without loading it all into memory. A file without
// frontmatter is left untouched.
func StripFrontmatter(path string) error {
	_, offset, err := ReadFrontmatterRaw(path)
	if err != nil {
		return err
	}
	if offset == 0 {
		return nil
	}

	src, err := os.Open(path)
	if err != nil {
		return err
	}
	defer src.Close()
	if _, err := src.Seek(offset, io.SeekStart); err != nil {
		return fmt.Errorf("seek past frontmatter in %s: %w", path, err)
	}

	tmpPath := path + ".fmf.strip.tmp"
	dst, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("copy body of %s: %w", path, err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}
