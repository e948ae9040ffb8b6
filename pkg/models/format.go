package models

// ItemType is the kind of an item in the workspace.
type ItemType string

const (
	TypeNote        ItemType = "note"
	TypeConcept     ItemType = "concept"
	TypeResource    ItemType = "resource"
	TypeDoc         ItemType = "doc"
	TypeConfig      ItemType = "config"
	TypeExport      ItemType = "export"
	TypeInstruction ItemType = "instruction"
)

// ItemTypes lists all recognized item types.
var ItemTypes = []ItemType{
	TypeNote, TypeConcept, TypeResource, TypeDoc,
	TypeConfig, TypeExport, TypeInstruction,
}

// ParseItemType returns the ItemType for s, or false if unrecognized.
func ParseItemType(s string) (ItemType, bool) {
	for _, t := range ItemTypes {
		if string(t) == s {
			return t, true
		}
	}
	return "", false
}

// Folder returns the relative store folder for this item type
// (note -> notes, resource -> resources, etc.).
func (t ItemType) Folder() string {
	return string(t) + "s"
}

// Format is the body data format of an item, or FormatURL for a URL resource
// whose content lives elsewhere.
type Format string

const (
	FormatURL       Format = "url"
	FormatHTML      Format = "html"
	FormatMarkdown  Format = "markdown"
	FormatPlaintext Format = "plaintext"
	FormatYAML      Format = "yaml"
	FormatPDF       Format = "pdf"
	FormatBinary    Format = "binary"
)

// IsText reports whether the format stores its content as UTF-8 text
// that can carry a frontmatter metadata block.
func (f Format) IsText() bool {
	switch f {
	case FormatPDF, FormatBinary:
		return false
	default:
		return true
	}
}

// HasBody reports whether items of this format are expected to carry
// body text. URL resources are pure metadata.
func (f Format) HasBody() bool {
	return f.IsText() && f != FormatURL
}

// FileExt returns the file extension for this format.
func (f Format) FileExt() (FileExt, bool) {
	switch f {
	case FormatHTML:
		return ExtHTML, true
	case FormatMarkdown:
		return ExtMd, true
	case FormatPlaintext:
		return ExtTxt, true
	case FormatYAML, FormatURL:
		return ExtYml, true
	case FormatPDF:
		return ExtPDF, true
	default:
		return "", false
	}
}

// FileExt is a recognized file extension for store files, without the dot.
type FileExt string

const (
	ExtMd   FileExt = "md"
	ExtHTML FileExt = "html"
	ExtTxt  FileExt = "txt"
	ExtYml  FileExt = "yml"
	ExtPDF  FileExt = "pdf"
)

// FileExts lists all recognized file extensions.
var FileExts = []FileExt{ExtMd, ExtHTML, ExtTxt, ExtYml, ExtPDF}

// ParseFileExt returns the FileExt for s (without dot), or false if
// unrecognized.
func ParseFileExt(s string) (FileExt, bool) {
	for _, e := range FileExts {
		if string(e) == s {
			return e, true
		}
	}
	return "", false
}

// IsText reports whether files with this extension are text files.
func (e FileExt) IsText() bool {
	return e != ExtPDF
}

// GuessFormat guesses the body format for a file extension. This is a
// best effort used when importing plain files; .yml is ambiguous and
// defaults to YAML.
func (e FileExt) GuessFormat() (Format, bool) {
	switch e {
	case ExtMd:
		return FormatMarkdown, true
	case ExtHTML:
		return FormatHTML, true
	case ExtTxt:
		return FormatPlaintext, true
	case ExtYml:
		return FormatYAML, true
	case ExtPDF:
		return FormatPDF, true
	default:
		return "", false
	}
}

// State marks the lifecycle state of an item. Transient items are
// intermediate outputs of composite actions, slated for archival once the
// composite completes.
type State string

const (
	StateNormal    State = "normal"
	StateTransient State = "transient"
)
