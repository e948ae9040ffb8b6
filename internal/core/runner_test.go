package core

import (
	"errors"
	"strings"
	"testing"

	"github.com/trovekit/trove/internal/storage"
	"github.com/trovekit/trove/pkg/models"
)

func newTestRunner(t *testing.T) *Runner {
	t.Helper()
	store, err := storage.NewFileStore(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	return NewRunner(store, NewRegistry(), nil)
}

func saveNote(t *testing.T, r *Runner, title, body string) models.Item {
	t.Helper()
	item := models.NewNote(title, body)
	if _, err := r.Store.Save(&item); err != nil {
		t.Fatalf("save %s: %v", title, err)
	}
	return item
}

// upcaseAction uppercases the body of each input into a derived note. It
// predicts its outputs, so repeated runs are served from the store.
type upcaseAction struct {
	ActionBase
	runs int
}

func newUpcase() *upcaseAction {
	return &upcaseAction{ActionBase: ActionBase{
		ActionName:    "upcase",
		ActionDesc:    "Uppercase the body of each input.",
		Args:          OneOrMoreArgs,
		ActionPrecond: HasBody,
	}}
}

func (a *upcaseAction) RunsPerItem() bool { return true }

func (a *upcaseAction) transform(item models.Item) (models.Item, error) {
	out, err := item.DerivedCopy()
	if err != nil {
		return models.Item{}, err
	}
	out.Title = item.Title + " (upper)"
	out.Body = strings.ToUpper(item.Body)
	return out, nil
}

func (a *upcaseAction) Run(r *Runner, items []models.Item) (ActionResult, error) {
	a.runs++
	out := make([]models.Item, 0, len(items))
	for _, item := range items {
		next, err := a.transform(item)
		if err != nil {
			return ActionResult{}, err
		}
		out = append(out, next)
	}
	return ActionResult{Items: out}, nil
}

func (a *upcaseAction) Preassemble(op models.Operation, items []models.Item) ([]models.Item, bool) {
	out := make([]models.Item, 0, len(items))
	for _, item := range items {
		next, err := a.transform(item)
		if err != nil {
			return nil, false
		}
		out = append(out, next)
	}
	return out, true
}

// trimAction trims whitespace in place, replacing its input.
type trimAction struct {
	ActionBase
}

func newTrim() *trimAction {
	return &trimAction{ActionBase: ActionBase{
		ActionName:    "trim",
		ActionDesc:    "Trim surrounding whitespace from each body.",
		Args:          OneOrMoreArgs,
		ActionPrecond: HasBody,
	}}
}

func (a *trimAction) RunsPerItem() bool { return true }

func (a *trimAction) Run(r *Runner, items []models.Item) (ActionResult, error) {
	out := make([]models.Item, 0, len(items))
	for _, item := range items {
		next := item
		next.Body = strings.TrimSpace(item.Body) + "\n"
		out = append(out, next)
	}
	return ActionResult{Items: out, ReplacesInput: true}, nil
}

func TestRunActionSavesOutputsAndSelects(t *testing.T) {
	r := newTestRunner(t)
	action := newUpcase()
	r.Registry.MustRegister(action)

	input := saveNote(t, r, "Morning Notes", "went for a walk\n")

	result, err := r.RunAction("upcase", []string{string(input.StorePath)}, RunOptions{})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(result.Items) != 1 {
		t.Fatalf("expected one output, got %d", len(result.Items))
	}

	out := result.Items[0]
	if out.StorePath == "" {
		t.Fatal("output should be saved")
	}
	if out.Body != "WENT FOR A WALK\n" {
		t.Errorf("unexpected output body: %q", out.Body)
	}

	src, ok := out.LastSource()
	if !ok {
		t.Fatal("output should carry provenance")
	}
	if src.Operation.ActionName != "upcase" {
		t.Errorf("history should name the action: %s", src.Operation.ActionName)
	}
	if len(src.Operation.Arguments) != 1 || src.Operation.Arguments[0].Path != input.StorePath {
		t.Errorf("history should point at the input: %v", src.Operation.Arguments)
	}
	if src.Operation.Arguments[0].Hash == "" {
		t.Error("history input should carry a content hash")
	}

	sel := r.Store.Selections.Current()
	if len(sel.Paths) != 1 || sel.Paths[0] != out.StorePath {
		t.Errorf("selection should be the output: %v", sel.Paths)
	}

	// The input was not replaced, so it stays live.
	if !r.Store.Exists(input.StorePath) {
		t.Error("input should not be archived")
	}
}

func TestRunActionIsMemoized(t *testing.T) {
	r := newTestRunner(t)
	action := newUpcase()
	r.Registry.MustRegister(action)

	input := saveNote(t, r, "Stable Note", "same content\n")
	args := []string{string(input.StorePath)}

	first, err := r.RunAction("upcase", args, RunOptions{})
	if err != nil {
		t.Fatal(err)
	}
	second, err := r.RunAction("upcase", args, RunOptions{})
	if err != nil {
		t.Fatal(err)
	}

	if action.runs != 1 {
		t.Errorf("second run should be served from the store, ran %d times", action.runs)
	}
	if first.Items[0].StorePath != second.Items[0].StorePath {
		t.Errorf("cached output path mismatch: %s != %s",
			first.Items[0].StorePath, second.Items[0].StorePath)
	}

	third, err := r.RunAction("upcase", args, RunOptions{Rerun: true})
	if err != nil {
		t.Fatal(err)
	}
	if action.runs != 2 {
		t.Errorf("rerun should force execution, ran %d times", action.runs)
	}
	if third.Items[0].StorePath != first.Items[0].StorePath {
		t.Errorf("rerun should land on the same identity path: %s", third.Items[0].StorePath)
	}
}

func TestCacheInvalidatedByContentChange(t *testing.T) {
	r := newTestRunner(t)
	action := newUpcase()
	r.Registry.MustRegister(action)

	input := saveNote(t, r, "Changing Note", "first draft\n")
	args := []string{string(input.StorePath)}

	if _, err := r.RunAction("upcase", args, RunOptions{}); err != nil {
		t.Fatal(err)
	}
	if action.runs != 1 {
		t.Fatalf("expected one run, got %d", action.runs)
	}

	changed, err := r.Store.Load(input.StorePath)
	if err != nil {
		t.Fatal(err)
	}
	changed.Body = "second draft\n"
	changed.Touch()
	if _, err := r.Store.Save(&changed); err != nil {
		t.Fatal(err)
	}

	result, err := r.RunAction("upcase", args, RunOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if action.runs != 2 {
		t.Errorf("changed input content should force re-execution, ran %d times", action.runs)
	}
	if result.Items[0].Body != "SECOND DRAFT\n" {
		t.Errorf("output should reflect the new content: %q", result.Items[0].Body)
	}
}

func TestRunActionFallsBackToSelection(t *testing.T) {
	r := newTestRunner(t)
	r.Registry.MustRegister(newUpcase())

	input := saveNote(t, r, "Selected Note", "body here\n")
	if err := r.Store.Selections.Push(storage.Selection{Paths: []models.StorePath{input.StorePath}}); err != nil {
		t.Fatal(err)
	}

	result, err := r.RunAction("upcase", nil, RunOptions{})
	if err != nil {
		t.Fatalf("run with selection args failed: %v", err)
	}
	if len(result.Items) != 1 || result.Items[0].Body != "BODY HERE\n" {
		t.Errorf("selection should have supplied the input: %+v", result.Items)
	}
}

func TestRunActionValidatesArity(t *testing.T) {
	r := newTestRunner(t)
	r.Registry.MustRegister(newUpcase())

	_, err := r.RunAction("upcase", nil, RunOptions{})
	if err == nil {
		t.Fatal("expected arity error with no args and empty selection")
	}
	if !errors.Is(err, &models.InvalidInputError{}) {
		t.Errorf("arity failure should be invalid input: %v", err)
	}
}

func TestRunActionValidatesPrecondition(t *testing.T) {
	r := newTestRunner(t)
	r.Registry.MustRegister(newUpcase())

	url := models.NewURLResource("https://example.com/page", "A Page")
	if _, err := r.Store.Save(&url); err != nil {
		t.Fatal(err)
	}

	_, err := r.RunAction("upcase", []string{string(url.StorePath)}, RunOptions{})
	if err == nil {
		t.Fatal("expected precondition failure on a bodyless resource")
	}
	var pre *models.PreconditionError
	if !errors.As(err, &pre) {
		t.Fatalf("expected a precondition error, got: %v", err)
	}
	if pre.Precondition != "has_body" {
		t.Errorf("error should name the failed criterion: %s", pre.Precondition)
	}
}

func TestReplacesInputArchivesOldVersion(t *testing.T) {
	r := newTestRunner(t)
	r.Registry.MustRegister(newTrim())

	input := saveNote(t, r, "Messy Note", "  padded body  \n\n")

	result, err := r.RunAction("trim", []string{string(input.StorePath)}, RunOptions{})
	if err != nil {
		t.Fatal(err)
	}
	out := result.Items[0]
	if out.Body != "padded body\n" {
		t.Errorf("unexpected trimmed body: %q", out.Body)
	}

	if r.Store.Exists(input.StorePath) && input.StorePath != out.StorePath {
		t.Error("replaced input should be archived")
	}

	sel := r.Store.Selections.Current()
	if len(sel.Paths) != 1 || sel.Paths[0] != out.StorePath {
		t.Errorf("selection should hold only the replacement: %v", sel.Paths)
	}
}

func TestInternalRunLeavesSelectionAlone(t *testing.T) {
	r := newTestRunner(t)
	r.Registry.MustRegister(newUpcase())

	input := saveNote(t, r, "Quiet Note", "contents\n")
	before := r.Store.Selections.Current()

	if _, err := r.RunAction("upcase", []string{string(input.StorePath)}, RunOptions{Internal: true}); err != nil {
		t.Fatal(err)
	}

	after := r.Store.Selections.Current()
	if !after.Equal(before) {
		t.Errorf("internal run should not update the selection: %v", after.Paths)
	}
}

func TestPerItemHistoryNarrowsOperation(t *testing.T) {
	r := newTestRunner(t)
	r.Registry.MustRegister(newUpcase())

	a := saveNote(t, r, "First Input", "alpha\n")
	b := saveNote(t, r, "Second Input", "beta\n")

	result, err := r.RunAction("upcase", []string{string(a.StorePath), string(b.StorePath)}, RunOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Items) != 2 {
		t.Fatalf("expected two outputs, got %d", len(result.Items))
	}

	wantInputs := []models.StorePath{a.StorePath, b.StorePath}
	for i, item := range result.Items {
		src, ok := item.LastSource()
		if !ok {
			t.Fatalf("output %d missing provenance", i)
		}
		if len(src.Operation.Arguments) != 1 {
			t.Fatalf("per-item output should record a single input, got %d", len(src.Operation.Arguments))
		}
		if src.Operation.Arguments[0].Path != wantInputs[i] {
			t.Errorf("output %d should record input %s, got %s",
				i, wantInputs[i], src.Operation.Arguments[0].Path)
		}
	}
}

func TestOverrideStateMarksOutputs(t *testing.T) {
	r := newTestRunner(t)
	r.Registry.MustRegister(newUpcase())

	input := saveNote(t, r, "Transient Source", "text\n")

	result, err := r.RunAction("upcase", []string{string(input.StorePath)},
		RunOptions{Internal: true, OverrideState: models.StateTransient})
	if err != nil {
		t.Fatal(err)
	}
	if result.Items[0].State != models.StateTransient {
		t.Errorf("output state should be overridden: %s", result.Items[0].State)
	}

	loaded, err := r.Store.Load(result.Items[0].StorePath)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.State != models.StateTransient {
		t.Errorf("overridden state should persist: %s", loaded.State)
	}
}

func TestUnknownActionFails(t *testing.T) {
	r := newTestRunner(t)
	_, err := r.RunAction("no_such_action", []string{"x"}, RunOptions{})
	if err == nil {
		t.Fatal("expected lookup failure")
	}
	if !errors.Is(err, &models.InvalidInputError{}) {
		t.Errorf("unknown action should be invalid input: %v", err)
	}
}
