package core

import (
	"fmt"
	"sort"
	"time"

	"github.com/trovekit/trove/internal/observability"
	"github.com/trovekit/trove/internal/storage"
	"github.com/trovekit/trove/pkg/models"
)

// Runner executes actions against a workspace: it resolves arguments,
// records provenance, memoizes re-runs, persists outputs, and maintains
// the selection. Actions themselves never touch the store.
type Runner struct {
	Store    *storage.FileStore
	Registry *Registry
	Events   observability.EventLog
}

// NewRunner wires a runner to a store and registry.
func NewRunner(store *storage.FileStore, registry *Registry, events observability.EventLog) *Runner {
	if events == nil {
		events = observability.NopEventLog()
	}
	return &Runner{Store: store, Registry: registry, Events: events}
}

// Param returns the workspace override for an action parameter, or the
// fallback when none is set.
func (r *Runner) Param(key, fallback string) string {
	if r.Store == nil || r.Store.Params == nil {
		return fallback
	}
	if v, ok := r.Store.Params.Get(key); ok {
		return v
	}
	return fallback
}

// RunOptions tune a single action invocation.
type RunOptions struct {
	// Rerun forces the action to run even when all predicted outputs
	// already exist.
	Rerun bool
	// Internal suppresses the selection update, for action-to-action
	// calls.
	Internal bool
	// OverrideState stamps all outputs with the given state, e.g. to
	// mark intermediate outputs of a composite action transient.
	OverrideState models.State
}

// RunAction looks up and runs the named action. With no explicit
// arguments, the current selection is used.
func (r *Runner) RunAction(actionName string, args []string, opts RunOptions) (ActionResult, error) {
	action, err := r.Registry.Lookup(actionName)
	if err != nil {
		return ActionResult{}, err
	}
	return r.Run(action, args, opts)
}

// Run executes an action.
func (r *Runner) Run(action Action, args []string, opts RunOptions) (ActionResult, error) {
	start := time.Now()
	result, cached, err := r.run(action, args, opts)
	if err != nil {
		r.Events.Write(observability.Event{
			Time: time.Now(), Level: "ERROR", Type: "action.failed",
			Message: "action failed",
			Data:    map[string]any{"action": action.Name(), "error": err.Error()},
		})
		return ActionResult{}, err
	}

	eventType := "action.completed"
	if cached {
		eventType = "action.cache_hit"
	}
	r.Events.Write(observability.Event{
		Time: time.Now(), Level: "INFO", Type: eventType,
		Message: "action finished",
		Data: map[string]any{
			"action":      action.Name(),
			"outputs":     len(result.Items),
			"duration_ms": time.Since(start).Milliseconds(),
		},
	})
	return result, nil
}

func (r *Runner) run(action Action, args []string, opts RunOptions) (ActionResult, bool, error) {
	args, fromSelection := r.collectArgs(args)

	// An action that takes no arguments ignores any pre-selected inputs.
	if action.ExpectedArgs() == NoArgs && fromSelection {
		args = nil
	}

	if err := action.ExpectedArgs().Validate(action.Name(), len(args)); err != nil {
		return ActionResult{}, false, err
	}

	inputItems, err := r.importAndLoad(args)
	if err != nil {
		return ActionResult{}, false, err
	}

	operation, err := r.operationFor(action.Name(), inputItems)
	if err != nil {
		return ActionResult{}, false, err
	}

	for _, item := range inputItems {
		if err := action.Precondition().Validate(item); err != nil {
			return ActionResult{}, false, err
		}
	}

	inputItems, err = r.fetchURLMetadata(action, inputItems)
	if err != nil {
		return ActionResult{}, false, err
	}

	if cachedResult, ok := r.findCached(action, operation, inputItems, opts); ok {
		if !opts.Internal {
			if err := r.selectOutputs(cachedResult, nil); err != nil {
				return ActionResult{}, false, err
			}
		}
		return cachedResult, true, nil
	}

	result, err := action.Run(r, inputItems)
	if err != nil {
		return ActionResult{}, false, fmt.Errorf("action %s: %w", action.Name(), err)
	}

	perItem := false
	if pi, ok := action.(PerItemAction); ok {
		perItem = pi.RunsPerItem()
	}
	for i := range result.Items {
		op := operation
		if perItem {
			op = operation.WithArgument(i)
		}
		result.Items[i].AddHistory(models.Source{Operation: op, OutputNum: i})
		if opts.OverrideState != "" {
			result.Items[i].State = opts.OverrideState
		}
	}

	if err := r.saveOutputs(&result); err != nil {
		return ActionResult{}, false, err
	}

	archived, err := r.archiveReplacedInputs(result, inputItems)
	if err != nil {
		return ActionResult{}, false, err
	}

	if !opts.Internal {
		if err := r.selectOutputs(result, archived); err != nil {
			return ActionResult{}, false, err
		}
	}
	return result, false, nil
}

// collectArgs falls back to the current selection when no arguments are
// given.
func (r *Runner) collectArgs(args []string) ([]string, bool) {
	if len(args) > 0 {
		return args, false
	}
	current := r.Store.Selections.Current()
	if current.IsEmpty() {
		return nil, false
	}
	out := make([]string, len(current.Paths))
	for i, p := range current.Paths {
		out[i] = string(p)
	}
	return out, true
}

// importAndLoad ensures every argument is saved in the workspace (paths
// and URLs are imported as needed) and loads the corresponding items.
func (r *Runner) importAndLoad(args []string) ([]models.Item, error) {
	items := make([]models.Item, 0, len(args))
	for _, arg := range args {
		storePath, err := r.Store.Import(arg, models.TypeResource, false)
		if err != nil {
			return nil, err
		}
		item, err := r.Store.Load(storePath)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// operationFor fingerprints the inputs and assembles the operation
// record that doubles as the memoization key.
func (r *Runner) operationFor(actionName string, inputItems []models.Item) (models.Operation, error) {
	inputs := make([]models.Input, 0, len(inputItems))
	for _, item := range inputItems {
		if item.StorePath == "" {
			continue
		}
		hash, err := r.Store.Hash(item.StorePath)
		if err != nil {
			return models.Operation{}, err
		}
		inputs = append(inputs, models.Input{Path: item.StorePath, Hash: hash})
	}
	return models.Operation{ActionName: actionName, Arguments: inputs}, nil
}

// fetchURLMetadata enriches URL-resource inputs that lack a title by
// running the registered metadata-fetch action on them. The fetch action
// itself is exempt, which keeps the call from recursing.
func (r *Runner) fetchURLMetadata(action Action, inputItems []models.Item) ([]models.Item, error) {
	if mf, ok := action.(MetadataFetcher); ok && mf.FetchesMetadata() {
		return inputItems, nil
	}
	fetcher, ok := r.Registry.MetadataFetchAction()
	if !ok {
		return inputItems, nil
	}

	for i, item := range inputItems {
		if !item.IsURLResource() || (item.Title != "" && item.Description != "") {
			continue
		}
		if item.StorePath == "" {
			return nil, models.NewInvalidInput("URL item should already be stored: %s", item)
		}
		enriched, err := r.Run(fetcher, []string{string(item.StorePath)}, RunOptions{Internal: true})
		if err != nil {
			return nil, err
		}
		if len(enriched.Items) > 0 {
			inputItems[i] = enriched.Items[0]
		}
	}
	return inputItems, nil
}

// findCached asks the action to predict its outputs and, if every
// predicted output already exists in the store, loads and returns them
// instead of running. The Rerun option defeats the check.
func (r *Runner) findCached(action Action, operation models.Operation, inputItems []models.Item, opts RunOptions) (ActionResult, bool) {
	if opts.Rerun {
		return ActionResult{}, false
	}
	pa, ok := action.(Preassembler)
	if !ok {
		return ActionResult{}, false
	}
	predicted, ok := pa.Preassemble(operation, inputItems)
	if !ok {
		return ActionResult{}, false
	}

	cachedItems := make([]models.Item, 0, len(predicted))
	for _, p := range predicted {
		storePath, found := r.Store.FindByID(p)
		if !found {
			return ActionResult{}, false
		}
		item, err := r.Store.Load(storePath)
		if err != nil {
			return ActionResult{}, false
		}
		cachedItems = append(cachedItems, item)
	}
	return ActionResult{Items: cachedItems}, true
}

// saveOutputs persists the result items. With SkipDuplicates, outputs
// whose identity already exists keep the existing path unsaved.
func (r *Runner) saveOutputs(result *ActionResult) error {
	for i := range result.Items {
		if result.SkipDuplicates {
			if storePath, ok := r.Store.FindByID(result.Items[i]); ok {
				result.Items[i].StorePath = storePath
				continue
			}
		}
		if _, err := r.Store.Save(&result.Items[i]); err != nil {
			return err
		}
	}
	return nil
}

// archiveReplacedInputs archives inputs that the action replaced and that
// are not among the outputs. Archival is missing-ok since a replacing
// action may have already removed the file.
func (r *Runner) archiveReplacedInputs(result ActionResult, inputItems []models.Item) ([]models.StorePath, error) {
	if !result.ReplacesInput || len(inputItems) == 0 {
		return nil, nil
	}

	outputSet := make(map[models.StorePath]struct{}, len(result.Items))
	for _, item := range result.Items {
		if item.StorePath != "" {
			outputSet[item.StorePath] = struct{}{}
		}
	}

	var archived []models.StorePath
	for _, item := range inputItems {
		if item.StorePath == "" {
			continue
		}
		if _, isOutput := outputSet[item.StorePath]; isOutput {
			continue
		}
		if _, err := r.Store.Archive(item.StorePath, true); err != nil {
			return nil, err
		}
		archived = append(archived, item.StorePath)
	}
	return archived, nil
}

// selectOutputs sets the selection to the final outputs, omitting any
// paths that were archived.
func (r *Runner) selectOutputs(result ActionResult, archived []models.StorePath) error {
	archivedSet := make(map[models.StorePath]struct{}, len(archived))
	for _, p := range archived {
		archivedSet[p] = struct{}{}
	}

	var final []models.StorePath
	for _, item := range result.Items {
		if item.StorePath == "" {
			continue
		}
		if _, gone := archivedSet[item.StorePath]; gone {
			continue
		}
		final = append(final, item.StorePath)
	}
	sort.Slice(final, func(i, j int) bool { return final[i] < final[j] })

	return r.Store.Selections.Push(storage.Selection{Paths: final})
}
