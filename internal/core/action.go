// Package core contains the action-execution engine: the action
// contract, the registry, the runner with its memoization and provenance
// handling, and compound (sequence/combo) actions.
package core

import (
	"github.com/trovekit/trove/pkg/models"
)

// ExpectedArgs constrains how many arguments an action accepts. Max of -1
// means unbounded.
type ExpectedArgs struct {
	Min int
	Max int
}

var (
	NoArgs        = ExpectedArgs{Min: 0, Max: 0}
	OneArg        = ExpectedArgs{Min: 1, Max: 1}
	OneOrMoreArgs = ExpectedArgs{Min: 1, Max: -1}
	TwoOrMoreArgs = ExpectedArgs{Min: 2, Max: -1}
	AnyArgs       = ExpectedArgs{Min: 0, Max: -1}
)

// Validate checks an argument count against the constraint.
func (ea ExpectedArgs) Validate(actionName string, n int) error {
	if n < ea.Min {
		return models.NewInvalidInput("action %s expects at least %d argument(s), got %d", actionName, ea.Min, n)
	}
	if ea.Max >= 0 && n > ea.Max {
		return models.NewInvalidInput("action %s expects at most %d argument(s), got %d", actionName, ea.Max, n)
	}
	return nil
}

// ActionResult is what an action produces: output items plus hints for
// the runner. ReplacesInput asks the runner to archive inputs not present
// in the output; SkipDuplicates asks it to skip saving outputs whose
// identity already exists in the store.
type ActionResult struct {
	Items          []models.Item
	ReplacesInput  bool
	SkipDuplicates bool
}

// Action is a transformation over items. Actions are pure with respect to
// the store: they never save; the runner persists outputs and handles
// archival, history, and selection.
type Action interface {
	Name() string
	Description() string
	ExpectedArgs() ExpectedArgs
	// Precondition returns the per-input criterion all inputs must
	// satisfy, or nil if the action accepts anything.
	Precondition() *Precondition
	Run(runner *Runner, items []models.Item) (ActionResult, error)
}

// Preassembler is an optional interface for actions that can predict the
// identity of their outputs without running. The runner uses the
// prediction to detect that all outputs already exist and skip the run.
type Preassembler interface {
	// Preassemble returns skeleton outputs carrying identity and
	// provenance for the would-be run, or false if no prediction is
	// possible for these inputs.
	Preassemble(op models.Operation, items []models.Item) ([]models.Item, bool)
}

// MetadataFetcher marks the action that fetches metadata for URL
// resources. The runner invokes it on URL inputs lacking a title, and
// uses the flag to keep that call from recursing.
type MetadataFetcher interface {
	FetchesMetadata() bool
}

// PerItemAction is an optional interface for actions that logically run
// on each input independently. The runner narrows each output's recorded
// operation to the matching input.
type PerItemAction interface {
	RunsPerItem() bool
}

// ActionBase supplies the boilerplate for the Action interface. Concrete
// actions embed it and implement Run.
type ActionBase struct {
	ActionName    string
	ActionDesc    string
	Args          ExpectedArgs
	ActionPrecond *Precondition
}

func (b ActionBase) Name() string                { return b.ActionName }
func (b ActionBase) Description() string         { return b.ActionDesc }
func (b ActionBase) ExpectedArgs() ExpectedArgs  { return b.Args }
func (b ActionBase) Precondition() *Precondition { return b.ActionPrecond }
