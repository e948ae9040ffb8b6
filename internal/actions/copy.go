package actions

import (
	"github.com/trovekit/trove/internal/core"
	"github.com/trovekit/trove/pkg/models"
)

// CopyItems duplicates each input as a fresh item derived from the
// original. Copies get a distinct title so they do not collapse into the
// original under identity dedup.
type CopyItems struct {
	core.ActionBase
}

func NewCopyItems() *CopyItems {
	return &CopyItems{
		ActionBase: core.ActionBase{
			ActionName: "copy_items",
			ActionDesc: "Copy each input item to a new item derived from the original.",
			Args:       core.OneOrMoreArgs,
		},
	}
}

func (a *CopyItems) RunsPerItem() bool { return true }

func (a *CopyItems) Run(r *core.Runner, items []models.Item) (core.ActionResult, error) {
	out := make([]models.Item, 0, len(items))
	for _, item := range items {
		cp, err := item.DerivedCopy()
		if err != nil {
			return core.ActionResult{}, err
		}
		cp.Title = "Copy of " + item.AbbrevTitle(128)
		out = append(out, cp)
	}
	return core.ActionResult{Items: out}, nil
}
