package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/trovekit/trove/pkg/models"
)

// WriteItem writes an item to fullPath as a frontmatter file: the item's
// metadata as YAML frontmatter followed by the body. Binary items must be
// stored as external files and cannot be written here.
func WriteItem(item models.Item, fullPath string) error {
	if item.IsBinary() {
		return models.NewInvalidInput("binary items are stored as external files: %s", item)
	}
	if item.Format != "" && item.Format.HasBody() && item.Body == "" && item.ExternalPath == "" {
		return models.NewInvalidInput("%s item must have body text: %s", item.Format, item)
	}

	body := NormalizeBody(item.Body, item.Format)

	// A YAML body already carrying a document marker would collide with
	// the frontmatter delimiters.
	if body != "" && item.Format == models.FormatYAML {
		stripped := strings.TrimLeft(body, " \t\n")
		if strings.HasPrefix(stripped, "---\n") {
			body = stripped[4:]
		}
	}

	metadata, err := yaml.Marshal(item)
	if err != nil {
		return fmt.Errorf("marshal item metadata: %w", err)
	}

	if err := WriteFileWithFrontmatter(fullPath, body, metadata, StyleForFormat(item.Format)); err != nil {
		return &models.PersistError{Op: "write", Path: models.StorePath(fullPath), Err: err}
	}
	return nil
}

// ReadItem reads an item from fullPath. If the path is under baseDir the
// item gets a store path relative to it, otherwise it is treated as an
// external file. The modification time is taken from the filesystem.
// Binary files carry no frontmatter: their metadata is synthesized from
// the filename and the body is never read into memory.
func ReadItem(fullPath string, baseDir string) (models.Item, error) {
	if name, itemType, ext, err := ParseItemFilename(filepath.Base(fullPath)); err == nil && !ext.IsText() {
		return readBinaryItem(fullPath, baseDir, name, itemType, ext)
	}

	body, metadata, err := ReadFileWithFrontmatter(fullPath)
	if err != nil {
		return models.Item{}, err
	}
	if len(metadata) == 0 {
		return models.Item{}, fmt.Errorf("no metadata found in file: %s", fullPath)
	}

	var item models.Item
	if err := yaml.Unmarshal(metadata, &item); err != nil {
		return models.Item{}, fmt.Errorf("parse metadata of %s: %w", fullPath, err)
	}
	if item.ItemType == "" {
		return models.Item{}, fmt.Errorf("missing item type in metadata: %s", fullPath)
	}

	item.Body = body
	if rel, err := filepath.Rel(baseDir, fullPath); err == nil && !strings.HasPrefix(rel, "..") {
		sp, err := models.NewStorePath(filepath.ToSlash(rel))
		if err != nil {
			return models.Item{}, err
		}
		item.StorePath = sp
	} else {
		item.ExternalPath = fullPath
	}

	if ext, ok := models.ParseFileExt(strings.TrimPrefix(filepath.Ext(fullPath), ".")); ok {
		item.FileExt = ext
	}

	if info, err := os.Stat(fullPath); err == nil {
		item.ModifiedAt = info.ModTime().UTC()
	}
	return item, nil
}

// readBinaryItem builds a metadata-only item for a binary file from its
// filename and stat info.
func readBinaryItem(fullPath, baseDir, name string, itemType models.ItemType, ext models.FileExt) (models.Item, error) {
	if itemType == "" {
		itemType = models.TypeResource
	}
	item := models.NewItem(itemType)
	item.Title = name
	item.FileExt = ext
	if format, ok := ext.GuessFormat(); ok {
		item.Format = format
	}

	if rel, err := filepath.Rel(baseDir, fullPath); err == nil && !strings.HasPrefix(rel, "..") {
		sp, err := models.NewStorePath(filepath.ToSlash(rel))
		if err != nil {
			return models.Item{}, err
		}
		item.StorePath = sp
	}
	item.ExternalPath = fullPath

	info, err := os.Stat(fullPath)
	if err != nil {
		return models.Item{}, err
	}
	item.ModifiedAt = info.ModTime().UTC()
	return item, nil
}

var multiBlank = regexp.MustCompile(`\n{3,}`)

// NormalizeBody cleans up a text body for storage: runs of blank lines
// collapse to one blank line and the body ends with exactly one newline.
// Non-text formats and empty bodies pass through unchanged.
func NormalizeBody(body string, format models.Format) string {
	if body == "" || (format != "" && !format.IsText()) {
		return body
	}
	body = strings.ReplaceAll(body, "\r\n", "\n")
	body = multiBlank.ReplaceAllString(body, "\n\n")
	return strings.TrimRight(body, "\n") + "\n"
}
