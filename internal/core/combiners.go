package core

import (
	"fmt"
	"strings"

	"github.com/trovekit/trove/pkg/models"
)

// Combiner merges the per-action results of a combo run into a single
// document. Inputs are the original items the combo ran on; parts are the
// outputs of each sub-action, in sub-action order.
type Combiner func(inputs, parts []models.Item) (models.Item, error)

// CombineItems concatenates part bodies with the given separator into a
// new doc item. Every part must have body text and a store path; the
// combined item is derived from all parts and carries their merged
// history.
func CombineItems(inputs, parts []models.Item, separator string) (models.Item, error) {
	if len(parts) == 0 {
		return models.Item{}, models.NewInvalidInput("no items to combine")
	}

	bodies := make([]string, 0, len(parts))
	derivedFrom := make([]models.StorePath, 0, len(parts))
	histories := make([][]models.Source, 0, len(parts))
	for _, part := range parts {
		body, err := part.BodyText()
		if err != nil {
			return models.Item{}, err
		}
		if strings.TrimSpace(body) == "" {
			return models.Item{}, models.NewInvalidInput("cannot combine item with no body: %s", part)
		}
		if part.StorePath == "" {
			return models.Item{}, models.NewInvalidInput("cannot combine unsaved item: %s", part)
		}
		bodies = append(bodies, strings.TrimRight(body, "\n"))
		derivedFrom = append(derivedFrom, part.StorePath)
		histories = append(histories, part.History)
	}

	combined := models.NewItem(models.TypeDoc)
	combined.Title = combinedTitle(inputs, parts)
	combined.Format = models.FormatMarkdown
	combined.Body = strings.Join(bodies, separator) + "\n"
	combined.Relations.DerivedFrom = derivedFrom
	combined.History = models.MergeHistory(histories...)
	return combined, nil
}

// CombineAsParagraphs joins part bodies with a blank line between them.
func CombineAsParagraphs(inputs, parts []models.Item) (models.Item, error) {
	return CombineItems(inputs, parts, "\n\n")
}

func combinedTitle(inputs, parts []models.Item) string {
	var base string
	switch {
	case len(inputs) > 0 && inputs[0].AbbrevTitle(64) != "":
		base = inputs[0].AbbrevTitle(64)
	case len(parts) > 0:
		base = parts[0].AbbrevTitle(64)
	}
	if base == "" {
		base = "Combined"
	}
	if len(parts) > 1 {
		return fmt.Sprintf("%s (combined)", base)
	}
	return base
}
