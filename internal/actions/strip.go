package actions

import (
	"strings"

	"github.com/trovekit/trove/internal/core"
	"github.com/trovekit/trove/pkg/models"
)

// StripFrontmatter removes a leading YAML frontmatter block that was
// imported as part of an item's body, e.g. from markdown files written by
// other tools. The stripped item replaces the input.
type StripFrontmatter struct {
	core.ActionBase
}

func NewStripFrontmatter() *StripFrontmatter {
	return &StripFrontmatter{
		ActionBase: core.ActionBase{
			ActionName:    "strip_frontmatter",
			ActionDesc:    "Remove a leading frontmatter block from the body of each input.",
			Args:          core.OneOrMoreArgs,
			ActionPrecond: core.HasBody,
		},
	}
}

func (a *StripFrontmatter) RunsPerItem() bool { return true }

func (a *StripFrontmatter) Run(r *core.Runner, items []models.Item) (core.ActionResult, error) {
	out := make([]models.Item, 0, len(items))
	for _, item := range items {
		body, err := item.BodyText()
		if err != nil {
			return core.ActionResult{}, err
		}
		stripped := stripLeadingFrontmatter(body)
		next := item
		next.Body = stripped
		next.Touch()
		out = append(out, next)
	}
	return core.ActionResult{Items: out, ReplacesInput: true}, nil
}

// stripLeadingFrontmatter drops a "---" delimited block at the very start
// of the body, if present. Anything else is returned unchanged.
func stripLeadingFrontmatter(body string) string {
	const delim = "---"
	rest, ok := strings.CutPrefix(body, delim+"\n")
	if !ok {
		return body
	}
	for rest != "" {
		line, tail, found := strings.Cut(rest, "\n")
		if strings.TrimRight(line, " \t") == delim {
			return strings.TrimLeft(tail, "\n")
		}
		if !found {
			break
		}
		rest = tail
	}
	return body
}
