package models

import (
	"crypto/sha1"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"
)

// Untitled is the fallback display title for items with no usable title.
const Untitled = "Untitled"

// ItemRelations links an item to the other items it relates to.
type ItemRelations struct {
	DerivedFrom []StorePath `yaml:"derived_from,omitempty"`
	DiffOf      []StorePath `yaml:"diff_of,omitempty"`
}

// IsEmpty reports whether no relations are set.
func (r ItemRelations) IsEmpty() bool {
	return len(r.DerivedFrom) == 0 && len(r.DiffOf) == 0
}

// Item is any piece of content the workspace stores and runs actions on:
// a note, a URL resource, a concept, an exported document, etc. Metadata
// fields carry yaml tags and are written as frontmatter in field order.
// Body, ExternalPath, FileExt and StorePath are not part of the metadata:
// the body is the file content below the frontmatter, and the store path
// is redundant with the filename.
type Item struct {
	ItemType    ItemType      `yaml:"type"`
	Title       string        `yaml:"title,omitempty"`
	URL         string        `yaml:"url,omitempty"`
	Description string        `yaml:"description,omitempty"`
	Format      Format        `yaml:"format,omitempty"`
	State       State         `yaml:"state,omitempty"`
	CreatedAt   time.Time     `yaml:"created_at,omitempty"`
	ModifiedAt  time.Time     `yaml:"modified_at,omitempty"`
	Relations   ItemRelations `yaml:"relations,omitempty"`
	History     []Source      `yaml:"history,omitempty"`
	Extra       map[string]any `yaml:"extra,omitempty"`

	Body         string    `yaml:"-"`
	FileExt      FileExt   `yaml:"-"`
	ExternalPath string    `yaml:"-"`
	StorePath    StorePath `yaml:"-"`
}

// NewItem returns an item of the given type stamped with current timestamps.
func NewItem(itemType ItemType) Item {
	now := time.Now().UTC().Truncate(time.Second)
	return Item{ItemType: itemType, CreatedAt: now, ModifiedAt: now}
}

// NewURLResource returns a resource item pointing at the given URL.
func NewURLResource(rawURL string, title string) Item {
	item := NewItem(TypeResource)
	item.URL = rawURL
	item.Title = title
	item.Format = FormatURL
	return item
}

// NewNote returns a markdown note with the given title and body.
func NewNote(title, body string) Item {
	item := NewItem(TypeNote)
	item.Title = title
	item.Body = body
	item.Format = FormatMarkdown
	return item
}

func (it Item) String() string {
	if it.StorePath != "" {
		return fmt.Sprintf("%s (%s)", it.AbbrevTitle(40), it.StorePath)
	}
	return it.AbbrevTitle(40)
}

// IsBinary reports whether the item's content cannot be held as text.
func (it Item) IsBinary() bool {
	return it.Format != "" && !it.Format.IsText()
}

// IsURLResource reports whether the item is a saved URL resource.
func (it Item) IsURLResource() bool {
	return it.ItemType == TypeResource && it.Format == FormatURL && it.URL != ""
}

// BodyText returns the text body, or an error for binary items.
func (it Item) BodyText() (string, error) {
	if it.IsBinary() {
		return "", NewInvalidState("cannot get text content of a binary item: %s", it)
	}
	return it.Body, nil
}

// GetFileExt returns the explicit file extension or infers one from the
// format. Binary items must carry an explicit extension.
func (it Item) GetFileExt() (FileExt, error) {
	if it.FileExt != "" {
		return it.FileExt, nil
	}
	if it.IsBinary() {
		return "", NewInvalidInput("binary items must have a file extension: %s", it)
	}
	if it.Format != "" {
		if ext, ok := it.Format.FileExt(); ok {
			return ext, nil
		}
	}
	return "", NewInvalidInput("cannot infer file extension for item: %s", it)
}

// FullSuffix is the two-part filename suffix for this item, e.g. "note.md".
func (it Item) FullSuffix() (string, error) {
	ext, err := it.GetFileExt()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s.%s", it.ItemType, ext), nil
}

// AbbrevTitle returns the title, or infers one from other fields,
// truncated to maxLen runes.
func (it Item) AbbrevTitle(maxLen int) string {
	raw := it.Title
	if raw == "" {
		raw = it.URL
	}
	if raw == "" {
		raw = it.Description
	}
	if raw == "" && !it.IsBinary() {
		raw = it.Body
	}
	if raw == "" {
		raw = Untitled
	}
	raw = strings.Join(strings.Fields(raw), " ")
	runes := []rune(raw)
	if maxLen > 3 && len(runes) > maxLen {
		return string(runes[:maxLen-1]) + "…"
	}
	return raw
}

// Touch updates the modification timestamp.
func (it *Item) Touch() {
	it.ModifiedAt = time.Now().UTC().Truncate(time.Second)
}

// AddHistory appends a provenance source, skipping exact duplicates.
func (it *Item) AddHistory(src Source) {
	it.History = MergeHistory(it.History, []Source{src})
}

// LastSource returns the most recent provenance source on the item.
func (it Item) LastSource() (Source, bool) {
	if len(it.History) == 0 {
		return Source{}, false
	}
	return it.History[len(it.History)-1], true
}

// NewCopy returns a copy of the item with a cleared store path and fresh
// timestamps, ready to be saved as a new file.
func (it Item) NewCopy() Item {
	out := it
	out.StorePath = ""
	now := time.Now().UTC().Truncate(time.Second)
	out.CreatedAt = now
	out.ModifiedAt = now
	out.Relations = ItemRelations{
		DerivedFrom: append([]StorePath(nil), it.Relations.DerivedFrom...),
		DiffOf:      append([]StorePath(nil), it.Relations.DiffOf...),
	}
	out.History = append([]Source(nil), it.History...)
	if it.Extra != nil {
		out.Extra = make(map[string]any, len(it.Extra))
		for k, v := range it.Extra {
			out.Extra[k] = v
		}
	}
	return out
}

// DerivedCopy returns a new copy whose derived_from relation points back
// at this item. The item must have been saved first.
func (it Item) DerivedCopy() (Item, error) {
	if it.StorePath == "" {
		return Item{}, NewInvalidState("cannot derive from an item that has not been saved: %s", it)
	}
	out := it.NewCopy()
	out.Relations.DerivedFrom = []StorePath{it.StorePath}
	return out, nil
}

// ItemID is the semantic identity of an item, used to decide when two
// items are the same object (same URL, same concept, same note) even if
// they live at different paths.
type ItemID struct {
	Type   ItemType
	Format Format
	Value  string
}

func (id ItemID) String() string {
	return fmt.Sprintf("id:%s:%s:%s", id.Type, id.Format, id.Value)
}

// ID returns the identity of the item, or false if the item has no stable
// identity and should be treated as unique.
func (it Item) ID() (ItemID, bool) {
	switch {
	case it.IsURLResource():
		return ItemID{Type: it.ItemType, Format: it.Format, Value: CanonicalizeURL(it.URL)}, true
	case it.ItemType == TypeConcept && it.Title != "":
		return ItemID{Type: it.ItemType, Format: FormatPlaintext, Value: CanonicalizeConcept(it.Title)}, true
	case (it.ItemType == TypeNote || it.ItemType == TypeDoc) && it.Title != "" && it.Body != "":
		sum := sha1.Sum([]byte(strings.TrimRight(it.Body, "\n")))
		value := fmt.Sprintf("%s:%x", CanonicalizeConcept(it.Title), sum)
		return ItemID{Type: it.ItemType, Format: it.Format, Value: value}, true
	}
	return ItemID{}, false
}

// ContentEquals reports whether two items have the same content, ignoring
// timestamps and store path. Trailing newlines in bodies do not matter.
func (it Item) ContentEquals(other Item) bool {
	if it.ItemType != other.ItemType ||
		it.Title != other.Title ||
		it.URL != other.URL ||
		it.Description != other.Description ||
		it.Format != other.Format ||
		it.State != other.State ||
		it.ExternalPath != other.ExternalPath {
		return false
	}
	if !storePathsEqual(it.Relations.DerivedFrom, other.Relations.DerivedFrom) ||
		!storePathsEqual(it.Relations.DiffOf, other.Relations.DiffOf) {
		return false
	}
	if !historiesEqual(it.History, other.History) {
		return false
	}
	if !extrasEqual(it.Extra, other.Extra) {
		return false
	}
	return strings.TrimRight(it.Body, "\n") == strings.TrimRight(other.Body, "\n")
}

func storePathsEqual(a, b []StorePath) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func historiesEqual(a, b []Source) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].String() != b[i].String() {
			return false
		}
	}
	return true
}

func extrasEqual(a, b map[string]any) bool {
	if len(a) != len(b) {
		return false
	}
	keys := make([]string, 0, len(a))
	for k := range a {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		bv, ok := b[k]
		if !ok || fmt.Sprint(a[k]) != fmt.Sprint(bv) {
			return false
		}
	}
	return true
}

// CanonicalizeURL normalizes a URL for identity comparison: the scheme
// and host are lowercased, the fragment is dropped, tracking parameters
// are removed, and a bare trailing slash on the path is trimmed.
func CanonicalizeURL(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Scheme == "" {
		return strings.TrimSpace(rawURL)
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	if u.RawQuery != "" {
		q := u.Query()
		for key := range q {
			if strings.HasPrefix(strings.ToLower(key), "utm_") {
				q.Del(key)
			}
		}
		u.RawQuery = q.Encode()
	}
	if u.Path == "/" && u.RawQuery == "" {
		u.Path = ""
	}
	return u.String()
}

// CanonicalizeConcept normalizes a concept title for identity comparison.
func CanonicalizeConcept(title string) string {
	return strings.ToLower(strings.Join(strings.Fields(title), " "))
}
