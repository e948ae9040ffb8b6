package storage

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/trovekit/trove/pkg/models"
)

const maxSlugLen = 64

var deaccent = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Slugify turns a title into a filesystem-friendly name: diacritics are
// stripped, letters lowercased, and runs of other characters become a
// single underscore. The result is truncated to a sane length and never
// empty.
func Slugify(title string) string {
	if flat, _, err := transform.String(deaccent, title); err == nil {
		title = flat
	}

	var b strings.Builder
	lastUnderscore := true
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}

	slug := strings.Trim(b.String(), "_")
	if len(slug) > maxSlugLen {
		slug = strings.Trim(slug[:maxSlugLen], "_")
	}
	if slug == "" {
		slug = "untitled"
	}
	return slug
}

// SlugFor returns the slug for an item's display title.
func SlugFor(item models.Item) string {
	return Slugify(item.AbbrevTitle(80))
}

// JoinSuffix joins a base name with a full suffix like "note.md".
func JoinSuffix(name, fullSuffix string) string {
	return name + "." + fullSuffix
}

// ParseItemFilename splits a store filename of the form
// "name.type.ext" into its parts. The type part may be missing for
// imported plain files, in which case itemType is empty.
func ParseItemFilename(filename string) (name string, itemType models.ItemType, ext models.FileExt, err error) {
	parts := strings.Split(filename, ".")
	if len(parts) < 2 {
		return "", "", "", models.NewInvalidInput("filename has no extension: %s", filename)
	}

	extStr := parts[len(parts)-1]
	parsedExt, ok := models.ParseFileExt(extStr)
	if !ok {
		return "", "", "", models.NewInvalidInput("unrecognized file extension %q: %s", extStr, filename)
	}

	if len(parts) >= 3 {
		if t, ok := models.ParseItemType(parts[len(parts)-2]); ok {
			name = strings.Join(parts[:len(parts)-2], ".")
			return name, t, parsedExt, nil
		}
	}

	name = strings.Join(parts[:len(parts)-1], ".")
	return name, "", parsedExt, nil
}
