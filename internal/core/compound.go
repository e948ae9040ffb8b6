package core

import (
	"fmt"
	"strings"

	"github.com/trovekit/trove/pkg/models"
)

// SequenceAction chains other actions, feeding each step's outputs to the
// next step as inputs. Intermediate outputs are marked transient; the
// final outputs are recorded as derived from the original inputs.
type SequenceAction struct {
	ActionBase
	steps []string
}

// NewSequenceAction builds a sequence over the named actions. At least
// two steps are required.
func NewSequenceAction(name, description string, steps []string) (*SequenceAction, error) {
	if len(steps) < 2 {
		return nil, models.NewInvalidInput("sequence %s needs at least two steps, got %d", name, len(steps))
	}
	if description == "" {
		description = fmt.Sprintf("Sequence of %s", strings.Join(steps, ", then "))
	}
	return &SequenceAction{
		ActionBase: ActionBase{
			ActionName: name,
			ActionDesc: description,
			Args:       OneOrMoreArgs,
		},
		steps: steps,
	}, nil
}

// Steps returns the action names the sequence runs, in order.
func (a *SequenceAction) Steps() []string {
	out := make([]string, len(a.steps))
	copy(out, a.steps)
	return out
}

func (a *SequenceAction) Run(r *Runner, items []models.Item) (ActionResult, error) {
	originalPaths, err := savedPaths(items)
	if err != nil {
		return ActionResult{}, err
	}

	args := pathArgs(originalPaths)
	var transient []models.StorePath
	var res ActionResult
	for i, step := range a.steps {
		last := i == len(a.steps)-1
		opts := RunOptions{Internal: true}
		if !last {
			opts.OverrideState = models.StateTransient
		}
		res, err = r.RunAction(step, args, opts)
		if err != nil {
			return ActionResult{}, fmt.Errorf("sequence %s, step %s: %w", a.Name(), step, err)
		}
		if len(res.Items) == 0 {
			return ActionResult{}, models.NewInvalidState("sequence %s, step %s produced no outputs", a.Name(), step)
		}
		stepPaths, err := savedPaths(res.Items)
		if err != nil {
			return ActionResult{}, err
		}
		args = pathArgs(stepPaths)
		if !last {
			transient = append(transient, stepPaths...)
		}
	}

	// The final outputs trace their provenance to the items the sequence
	// started from, not to the intermediate steps. An output that is one
	// of the original inputs keeps its own provenance. Intermediates are
	// transient, so a final item copied from one must be reset to normal.
	final := make([]models.Item, len(res.Items))
	for i, item := range res.Items {
		item.State = models.StateNormal
		if !models.ContainsPath(originalPaths, item.StorePath) {
			item.Relations.DerivedFrom = append([]models.StorePath(nil), originalPaths...)
		}
		final[i] = item
	}

	finalSet := make(map[models.StorePath]struct{}, len(final))
	for _, item := range final {
		finalSet[item.StorePath] = struct{}{}
	}
	for _, p := range transient {
		if _, keep := finalSet[p]; keep {
			continue
		}
		if _, err := r.Store.Archive(p, true); err != nil {
			return ActionResult{}, err
		}
	}

	return ActionResult{Items: final}, nil
}

// ComboAction runs several actions on the same inputs and merges their
// outputs into one document with a Combiner. Sub-results are kept as
// transient items so the combined document's provenance stays resolvable.
type ComboAction struct {
	ActionBase
	steps    []string
	combiner Combiner
}

// NewComboAction builds a combo over the named actions. At least two
// steps are required; a nil combiner joins outputs as paragraphs.
func NewComboAction(name, description string, steps []string, combiner Combiner) (*ComboAction, error) {
	if len(steps) < 2 {
		return nil, models.NewInvalidInput("combo %s needs at least two steps, got %d", name, len(steps))
	}
	if combiner == nil {
		combiner = CombineAsParagraphs
	}
	if description == "" {
		description = fmt.Sprintf("Combination of %s", strings.Join(steps, " and "))
	}
	return &ComboAction{
		ActionBase: ActionBase{
			ActionName: name,
			ActionDesc: description,
			Args:       OneOrMoreArgs,
		},
		steps:    steps,
		combiner: combiner,
	}, nil
}

// Steps returns the action names the combo runs.
func (a *ComboAction) Steps() []string {
	out := make([]string, len(a.steps))
	copy(out, a.steps)
	return out
}

func (a *ComboAction) Run(r *Runner, items []models.Item) (ActionResult, error) {
	originalPaths, err := savedPaths(items)
	if err != nil {
		return ActionResult{}, err
	}

	args := pathArgs(originalPaths)
	var parts []models.Item
	for _, step := range a.steps {
		res, err := r.RunAction(step, args, RunOptions{
			Internal:      true,
			OverrideState: models.StateTransient,
		})
		if err != nil {
			return ActionResult{}, fmt.Errorf("combo %s, part %s: %w", a.Name(), step, err)
		}
		if len(res.Items) == 0 {
			return ActionResult{}, models.NewInvalidState("combo %s, part %s produced no outputs", a.Name(), step)
		}
		parts = append(parts, res.Items...)
	}

	combined, err := a.combiner(items, parts)
	if err != nil {
		return ActionResult{}, fmt.Errorf("combo %s: %w", a.Name(), err)
	}
	return ActionResult{Items: []models.Item{combined}}, nil
}

// savedPaths returns the store paths of the given items, requiring that
// every item has one.
func savedPaths(items []models.Item) ([]models.StorePath, error) {
	paths := make([]models.StorePath, 0, len(items))
	for _, item := range items {
		if item.StorePath == "" {
			return nil, models.NewInvalidState("item must be saved before running compound actions: %s", item)
		}
		paths = append(paths, item.StorePath)
	}
	return paths, nil
}

func pathArgs(paths []models.StorePath) []string {
	args := make([]string, len(paths))
	for i, p := range paths {
		args[i] = string(p)
	}
	return args
}
