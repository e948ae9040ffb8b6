// Package mcp provides an MCP (Model Context Protocol) server that exposes
// trove workspace operations as MCP tools for AI coding assistants.
package mcp

import (
	"context"
	"fmt"
	"time"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/trovekit/trove/internal/core"
	"github.com/trovekit/trove/internal/observability"
	"github.com/trovekit/trove/internal/storage"
	"github.com/trovekit/trove/pkg/models"
)

// Server wraps trove services and exposes them as MCP tools.
type Server struct {
	server      *gomcp.Server
	runner      *core.Runner
	store       *storage.FileStore
	metricsCalc observability.MetricsCalculator
}

// NewServer creates a new MCP server over the given workspace services.
// metricsCalc may be nil if observability is disabled.
func NewServer(runner *core.Runner, metricsCalc observability.MetricsCalculator, version string) *Server {
	if version == "" {
		version = "dev"
	}

	s := &Server{
		runner:      runner,
		store:       runner.Store,
		metricsCalc: metricsCalc,
	}

	s.server = gomcp.NewServer(
		&gomcp.Implementation{Name: "trove", Version: version},
		nil,
	)

	s.registerTools()

	return s
}

// Run starts the MCP server on stdio, blocking until the client
// disconnects or the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &gomcp.StdioTransport{})
}

// MCPServer returns the underlying mcp.Server for testing purposes.
func (s *Server) MCPServer() *gomcp.Server {
	return s.server
}

// --- Tool input/output types ---

type runActionInput struct {
	Action string   `json:"action" jsonschema:"required,the name of the action to run"`
	Args   []string `json:"args,omitempty" jsonschema:"store paths, file paths, or URLs to run on; the current selection is used when empty"`
	Rerun  bool     `json:"rerun,omitempty" jsonschema:"force execution even when all outputs already exist"`
}

type itemOutput struct {
	StorePath   string `json:"store_path"`
	Type        string `json:"type"`
	Format      string `json:"format,omitempty"`
	Title       string `json:"title,omitempty"`
	URL         string `json:"url,omitempty"`
	Description string `json:"description,omitempty"`
	State       string `json:"state,omitempty"`
	Modified    string `json:"modified,omitempty"`
}

type runActionOutput struct {
	Outputs []itemOutput `json:"outputs"`
	Count   int          `json:"count"`
}

type listActionsInput struct{}

type actionInfo struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	MinArgs     int    `json:"min_args"`
	MaxArgs     int    `json:"max_args"`
}

type listActionsOutput struct {
	Actions []actionInfo `json:"actions"`
	Count   int          `json:"count"`
}

type getSelectionInput struct{}

type selectionOutput struct {
	Paths []string `json:"paths"`
	Count int      `json:"count"`
}

type selectItemsInput struct {
	Paths []string `json:"paths" jsonschema:"required,store paths to select"`
}

type listItemsInput struct {
	Type string `json:"type,omitempty" jsonschema:"filter by item type (note, concept, resource, doc, config, export, instruction)"`
}

type listItemsOutput struct {
	Items []itemOutput `json:"items"`
	Count int          `json:"count"`
}

type getItemInput struct {
	Path string `json:"path" jsonschema:"required,the store path of the item"`
}

type getItemOutput struct {
	itemOutput
	Body    string   `json:"body,omitempty"`
	History []string `json:"history,omitempty"`
}

type importItemsInput struct {
	Locators []string `json:"locators" jsonschema:"required,file paths or URLs to import into the workspace"`
}

type archiveItemInput struct {
	Path string `json:"path" jsonschema:"required,the store path of the item to archive"`
}

type messageOutput struct {
	Message string `json:"message"`
}

type getMetricsInput struct {
	Since string `json:"since,omitempty" jsonschema:"time window for metrics (e.g. 7d, 30d, 24h). Defaults to 7d."`
}

type metricsOutput struct {
	ItemsSaved     int            `json:"items_saved"`
	ItemsArchived  int            `json:"items_archived"`
	ItemsImported  int            `json:"items_imported"`
	ActionsRun     int            `json:"actions_run"`
	ActionsByName  map[string]int `json:"actions_by_name"`
	CacheHits      int            `json:"cache_hits"`
	ActionFailures int            `json:"action_failures"`
	EventCount     int            `json:"event_count"`
	OldestEvent    string         `json:"oldest_event,omitempty"`
	NewestEvent    string         `json:"newest_event,omitempty"`
}

// --- Tool registration ---

func (s *Server) registerTools() {
	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "run_action",
		Description: "Run a named action on store paths, file paths, or URLs. With no args the current selection is used. Re-runs with unchanged inputs return the existing outputs.",
	}, s.handleRunAction)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "list_actions",
		Description: "List the registered actions with their descriptions and argument counts.",
	}, s.handleListActions)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_selection",
		Description: "Get the current selection: the store paths most recent actions operated on or produced.",
	}, s.handleGetSelection)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "select_items",
		Description: "Set the current selection to the given store paths.",
	}, s.handleSelectItems)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "list_items",
		Description: "List items in the workspace with an optional type filter.",
	}, s.handleListItems)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_item",
		Description: "Get a single item by store path, including its body and provenance history.",
	}, s.handleGetItem)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "import_items",
		Description: "Import files or URLs into the workspace and return their store paths.",
	}, s.handleImportItems)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "archive_item",
		Description: "Archive an item: move it out of the live tree while keeping it recoverable.",
	}, s.handleArchiveItem)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_metrics",
		Description: "Get aggregated metrics from the event log: items saved and imported, actions run, cache hits.",
	}, s.handleGetMetrics)
}

// --- Tool handlers ---

func (s *Server) handleRunAction(_ context.Context, _ *gomcp.CallToolRequest, input runActionInput) (*gomcp.CallToolResult, runActionOutput, error) {
	if input.Action == "" {
		return errorResult("action is required"), runActionOutput{}, nil
	}

	result, err := s.runner.RunAction(input.Action, input.Args, core.RunOptions{Rerun: input.Rerun})
	if err != nil {
		return errorResult(fmt.Sprintf("running action %s: %s", input.Action, err)), runActionOutput{}, nil
	}

	out := runActionOutput{
		Outputs: make([]itemOutput, len(result.Items)),
		Count:   len(result.Items),
	}
	for i, item := range result.Items {
		out.Outputs[i] = itemToOutput(item)
	}
	return nil, out, nil
}

func (s *Server) handleListActions(_ context.Context, _ *gomcp.CallToolRequest, _ listActionsInput) (*gomcp.CallToolResult, listActionsOutput, error) {
	names := s.runner.Registry.Names()
	out := listActionsOutput{
		Actions: make([]actionInfo, 0, len(names)),
		Count:   len(names),
	}
	for _, name := range names {
		action, err := s.runner.Registry.Lookup(name)
		if err != nil {
			continue
		}
		ea := action.ExpectedArgs()
		out.Actions = append(out.Actions, actionInfo{
			Name:        action.Name(),
			Description: action.Description(),
			MinArgs:     ea.Min,
			MaxArgs:     ea.Max,
		})
	}
	return nil, out, nil
}

func (s *Server) handleGetSelection(_ context.Context, _ *gomcp.CallToolRequest, _ getSelectionInput) (*gomcp.CallToolResult, selectionOutput, error) {
	sel := s.store.Selections.Current()
	out := selectionOutput{
		Paths: make([]string, len(sel.Paths)),
		Count: len(sel.Paths),
	}
	for i, p := range sel.Paths {
		out.Paths[i] = string(p)
	}
	return nil, out, nil
}

func (s *Server) handleSelectItems(_ context.Context, _ *gomcp.CallToolRequest, input selectItemsInput) (*gomcp.CallToolResult, selectionOutput, error) {
	if len(input.Paths) == 0 {
		return errorResult("paths are required"), selectionOutput{}, nil
	}

	paths := make([]models.StorePath, 0, len(input.Paths))
	for _, raw := range input.Paths {
		storePath, ok := s.store.ResolvePath(raw)
		if !ok {
			return errorResult(fmt.Sprintf("not found in workspace: %s", raw)), selectionOutput{}, nil
		}
		paths = append(paths, storePath)
	}

	if err := s.store.Selections.Push(storage.Selection{Paths: paths}); err != nil {
		return errorResult(fmt.Sprintf("setting selection: %s", err)), selectionOutput{}, nil
	}

	out := selectionOutput{Paths: input.Paths, Count: len(input.Paths)}
	return nil, out, nil
}

func (s *Server) handleListItems(_ context.Context, _ *gomcp.CallToolRequest, input listItemsInput) (*gomcp.CallToolResult, listItemsOutput, error) {
	var typeFilter models.ItemType
	if input.Type != "" {
		t, ok := models.ParseItemType(input.Type)
		if !ok {
			return errorResult(fmt.Sprintf("unknown item type %q", input.Type)), listItemsOutput{}, nil
		}
		typeFilter = t
	}

	var out listItemsOutput
	err := s.store.WalkItems("", func(p models.StorePath) error {
		item, err := s.store.Load(p)
		if err != nil {
			return nil // unreadable entries are skipped, not fatal
		}
		if typeFilter != "" && item.ItemType != typeFilter {
			return nil
		}
		out.Items = append(out.Items, itemToOutput(item))
		return nil
	})
	if err != nil {
		return errorResult(fmt.Sprintf("listing items: %s", err)), listItemsOutput{}, nil
	}
	out.Count = len(out.Items)
	return nil, out, nil
}

func (s *Server) handleGetItem(_ context.Context, _ *gomcp.CallToolRequest, input getItemInput) (*gomcp.CallToolResult, getItemOutput, error) {
	if input.Path == "" {
		return errorResult("path is required"), getItemOutput{}, nil
	}

	storePath, ok := s.store.ResolvePath(input.Path)
	if !ok {
		return errorResult(fmt.Sprintf("not found in workspace: %s", input.Path)), getItemOutput{}, nil
	}

	item, err := s.store.Load(storePath)
	if err != nil {
		return errorResult(fmt.Sprintf("loading %s: %s", input.Path, err)), getItemOutput{}, nil
	}

	out := getItemOutput{itemOutput: itemToOutput(item)}
	if !item.IsBinary() {
		out.Body = item.Body
	}
	for _, src := range item.History {
		out.History = append(out.History, src.String())
	}
	return nil, out, nil
}

func (s *Server) handleImportItems(_ context.Context, _ *gomcp.CallToolRequest, input importItemsInput) (*gomcp.CallToolResult, selectionOutput, error) {
	if len(input.Locators) == 0 {
		return errorResult("locators are required"), selectionOutput{}, nil
	}

	paths, err := s.store.ImportAll(input.Locators, models.TypeResource, false)
	if err != nil {
		return errorResult(fmt.Sprintf("importing: %s", err)), selectionOutput{}, nil
	}

	out := selectionOutput{Paths: make([]string, len(paths)), Count: len(paths)}
	for i, p := range paths {
		out.Paths[i] = string(p)
	}
	return nil, out, nil
}

func (s *Server) handleArchiveItem(_ context.Context, _ *gomcp.CallToolRequest, input archiveItemInput) (*gomcp.CallToolResult, messageOutput, error) {
	if input.Path == "" {
		return errorResult("path is required"), messageOutput{}, nil
	}

	storePath, ok := s.store.ResolvePath(input.Path)
	if !ok {
		return errorResult(fmt.Sprintf("not found in workspace: %s", input.Path)), messageOutput{}, nil
	}

	archivePath, err := s.store.Archive(storePath, false)
	if err != nil {
		return errorResult(fmt.Sprintf("archiving %s: %s", input.Path, err)), messageOutput{}, nil
	}

	out := messageOutput{Message: fmt.Sprintf("archived %s to %s", storePath, archivePath)}
	return nil, out, nil
}

func (s *Server) handleGetMetrics(_ context.Context, _ *gomcp.CallToolRequest, input getMetricsInput) (*gomcp.CallToolResult, metricsOutput, error) {
	if s.metricsCalc == nil {
		return errorResult("metrics calculator not available (observability may be disabled)"), emptyMetricsOutput(), nil
	}

	sinceStr := input.Since
	if sinceStr == "" {
		sinceStr = "7d"
	}

	sinceTime, err := parseSince(sinceStr)
	if err != nil {
		return errorResult(fmt.Sprintf("parsing since duration: %s", err)), emptyMetricsOutput(), nil
	}

	metrics, err := s.metricsCalc.Calculate(sinceTime)
	if err != nil {
		return errorResult(fmt.Sprintf("calculating metrics: %s", err)), emptyMetricsOutput(), nil
	}

	out := metricsOutput{
		ItemsSaved:     metrics.ItemsSaved,
		ItemsArchived:  metrics.ItemsArchived,
		ItemsImported:  metrics.ItemsImported,
		ActionsRun:     metrics.ActionsRun,
		ActionsByName:  metrics.ActionsByName,
		CacheHits:      metrics.CacheHits,
		ActionFailures: metrics.ActionFailures,
		EventCount:     metrics.EventCount,
	}
	if metrics.OldestEvent != nil {
		out.OldestEvent = metrics.OldestEvent.Format(time.RFC3339)
	}
	if metrics.NewestEvent != nil {
		out.NewestEvent = metrics.NewestEvent.Format(time.RFC3339)
	}

	return nil, out, nil
}

// --- Helpers ---

func itemToOutput(item models.Item) itemOutput {
	out := itemOutput{
		StorePath:   string(item.StorePath),
		Type:        string(item.ItemType),
		Format:      string(item.Format),
		Title:       item.Title,
		URL:         item.URL,
		Description: item.Description,
		State:       string(item.State),
	}
	if !item.ModifiedAt.IsZero() {
		out.Modified = item.ModifiedAt.Format(time.RFC3339)
	}
	return out
}

func emptyMetricsOutput() metricsOutput {
	return metricsOutput{ActionsByName: make(map[string]int)}
}

func errorResult(msg string) *gomcp.CallToolResult {
	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: msg}},
		IsError: true,
	}
}

// parseSince parses a human-friendly duration string like "7d", "30d", or "24h"
// into the corresponding time in the past.
func parseSince(s string) (time.Time, error) {
	now := time.Now().UTC()

	if len(s) < 2 {
		return time.Time{}, fmt.Errorf("invalid duration %q", s)
	}

	suffix := s[len(s)-1]
	numStr := s[:len(s)-1]
	var num int
	if _, err := fmt.Sscanf(numStr, "%d", &num); err != nil {
		return time.Time{}, fmt.Errorf("invalid duration %q: %w", s, err)
	}

	switch suffix {
	case 'd':
		return now.AddDate(0, 0, -num), nil
	case 'h':
		return now.Add(-time.Duration(num) * time.Hour), nil
	default:
		return time.Time{}, fmt.Errorf("unsupported duration suffix %q (use d or h)", string(suffix))
	}
}
