package core

import (
	"github.com/trovekit/trove/pkg/models"
)

// Precondition is a named criterion that qualifies which items may be
// inputs to an action.
type Precondition struct {
	Name  string
	Check func(models.Item) bool
}

// Validate checks an item and returns a precondition error naming the
// failed criterion.
func (p *Precondition) Validate(item models.Item) error {
	if p == nil || p.Check(item) {
		return nil
	}
	return &models.PreconditionError{Precondition: p.Name, Path: item.StorePath}
}

// And composes preconditions that must all hold.
func And(name string, ps ...*Precondition) *Precondition {
	return &Precondition{Name: name, Check: func(item models.Item) bool {
		for _, p := range ps {
			if !p.Check(item) {
				return false
			}
		}
		return true
	}}
}

// Or composes preconditions of which at least one must hold.
func Or(name string, ps ...*Precondition) *Precondition {
	return &Precondition{Name: name, Check: func(item models.Item) bool {
		for _, p := range ps {
			if p.Check(item) {
				return true
			}
		}
		return false
	}}
}

// Not inverts a precondition.
func Not(name string, p *Precondition) *Precondition {
	return &Precondition{Name: name, Check: func(item models.Item) bool {
		return !p.Check(item)
	}}
}

var (
	IsResource = &Precondition{Name: "is_resource", Check: func(item models.Item) bool {
		return item.ItemType == models.TypeResource
	}}

	IsConcept = &Precondition{Name: "is_concept", Check: func(item models.Item) bool {
		return item.ItemType == models.TypeConcept
	}}

	IsURLResource = &Precondition{Name: "is_url_resource", Check: func(item models.Item) bool {
		return item.IsURLResource()
	}}

	HasBody = &Precondition{Name: "has_body", Check: func(item models.Item) bool {
		return item.Body != ""
	}}

	IsText = &Precondition{Name: "is_text", Check: func(item models.Item) bool {
		return !item.IsBinary()
	}}

	IsMarkdown = &Precondition{Name: "is_markdown", Check: func(item models.Item) bool {
		return item.Format == models.FormatMarkdown
	}}
)
