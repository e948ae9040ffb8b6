package core

import (
	"testing"

	"github.com/trovekit/trove/pkg/models"
)

func TestRegistryRegisterAndLookup(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register(newUpcase()); err != nil {
		t.Fatal(err)
	}

	if _, err := reg.Lookup("upcase"); err != nil {
		t.Errorf("lookup of registered action failed: %v", err)
	}
	if _, err := reg.Lookup("missing"); err == nil {
		t.Error("lookup of unknown action should fail")
	}

	if err := reg.Register(newUpcase()); err == nil {
		t.Error("duplicate registration should fail")
	}
}

func TestRegistryNamesSorted(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister(newShout(), newUpcase(), newTrim())

	names := reg.Names()
	want := []string{"shout", "trim", "upcase"}
	if len(names) != len(want) {
		t.Fatalf("unexpected names: %v", names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("names should be sorted: %v", names)
			break
		}
	}
}

func TestMetadataFetchActionDiscovery(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister(newUpcase())
	if _, ok := reg.MetadataFetchAction(); ok {
		t.Error("no fetcher registered yet")
	}

	reg.MustRegister(&fakeFetcher{ActionBase: ActionBase{ActionName: "fetch_meta", Args: OneOrMoreArgs}})
	fetcher, ok := reg.MetadataFetchAction()
	if !ok || fetcher.Name() != "fetch_meta" {
		t.Errorf("fetcher should be discovered by capability: %v", ok)
	}
}

type fakeFetcher struct {
	ActionBase
	fetched int
}

func (a *fakeFetcher) FetchesMetadata() bool { return true }

func (a *fakeFetcher) RunsPerItem() bool { return true }

func (a *fakeFetcher) Run(r *Runner, items []models.Item) (ActionResult, error) {
	a.fetched += len(items)
	out := make([]models.Item, 0, len(items))
	for _, item := range items {
		next := item
		if next.Title == "" {
			next.Title = "Fetched Title"
		}
		if next.Description == "" {
			next.Description = "Fetched description."
		}
		out = append(out, next)
	}
	return ActionResult{Items: out, ReplacesInput: true}, nil
}

func TestRunnerFetchesURLMetadata(t *testing.T) {
	r := newTestRunner(t)
	fetcher := &fakeFetcher{ActionBase: ActionBase{
		ActionName:    "fetch_meta",
		Args:          OneOrMoreArgs,
		ActionPrecond: IsURLResource,
	}}
	r.Registry.MustRegister(newTouchTitle(), fetcher)

	url := models.NewURLResource("https://example.com/article", "")
	if _, err := r.Store.Save(&url); err != nil {
		t.Fatal(err)
	}

	result, err := r.RunAction("touch_title", []string{string(url.StorePath)}, RunOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if fetcher.fetched != 1 {
		t.Errorf("fetcher should have run once for the bare URL, ran on %d items", fetcher.fetched)
	}
	if result.Items[0].Title == "" {
		t.Error("input should have been enriched before the action ran")
	}
}

// touchTitleAction passes URL resources through, so tests can observe the
// runner-driven metadata enrichment.
type touchTitleAction struct {
	ActionBase
}

func newTouchTitle() *touchTitleAction {
	return &touchTitleAction{ActionBase: ActionBase{
		ActionName:    "touch_title",
		ActionDesc:    "Pass items through unchanged.",
		Args:          OneOrMoreArgs,
		ActionPrecond: IsResource,
	}}
}

func (a *touchTitleAction) Run(r *Runner, items []models.Item) (ActionResult, error) {
	return ActionResult{Items: items, ReplacesInput: true}, nil
}
