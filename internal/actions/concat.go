package actions

import (
	"github.com/trovekit/trove/internal/core"
	"github.com/trovekit/trove/pkg/models"
)

// Concat joins the bodies of two or more text items into a single doc.
type Concat struct {
	core.ActionBase
}

func NewConcat() *Concat {
	return &Concat{
		ActionBase: core.ActionBase{
			ActionName:    "concat",
			ActionDesc:    "Concatenate the bodies of the input items into one document.",
			Args:          core.TwoOrMoreArgs,
			ActionPrecond: core.HasBody,
		},
	}
}

func (a *Concat) Run(r *core.Runner, items []models.Item) (core.ActionResult, error) {
	separator := r.Param("concat.separator", "\n\n")
	combined, err := core.CombineItems(items, items, separator)
	if err != nil {
		return core.ActionResult{}, err
	}
	return core.ActionResult{Items: []models.Item{combined}}, nil
}
