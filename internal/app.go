// Package internal provides the App struct that wires all components of
// the trove workspace together and initializes the CLI layer.
package internal

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/trovekit/trove/internal/actions"
	"github.com/trovekit/trove/internal/cli"
	"github.com/trovekit/trove/internal/core"
	"github.com/trovekit/trove/internal/observability"
	"github.com/trovekit/trove/internal/storage"
)

// App holds all service dependencies for the trove system.
type App struct {
	BasePath string

	// Configuration
	ConfigMgr core.ConfigurationManager

	// Storage layer
	Store *storage.FileStore

	// Core services
	Registry *core.Registry
	Runner   *core.Runner

	// Observability
	EventLog    observability.EventLog
	AlertEngine observability.AlertEngine
	MetricsCalc observability.MetricsCalculator
	Notifier    observability.Notifier
}

// NewApp creates and wires all components of the trove system. basePath
// is the workspace root directory; it is initialized on first use.
func NewApp(basePath string) (*App, error) {
	app := &App{BasePath: basePath}

	// --- Configuration ---
	home, _ := os.UserHomeDir()
	app.ConfigMgr = core.NewConfigurationManager(basePath, home)
	globalCfg, err := app.ConfigMgr.LoadGlobalConfig()
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	if err := app.ConfigMgr.ValidateConfig(globalCfg); err != nil {
		return nil, err
	}

	// --- Observability ---
	dirs := storage.NewDirs(basePath)
	app.EventLog, err = observability.NewJSONLEventLog(dirs.Abs(dirs.EventLogFile))
	if err != nil {
		// Non-fatal: disable observability if the log can't be created.
		app.EventLog = nil
	}

	// --- Storage layer ---
	app.Store, err = storage.NewFileStore(basePath, app.EventLog)
	if err != nil {
		return nil, fmt.Errorf("opening workspace: %w", err)
	}
	if globalCfg.WarmCache {
		app.Store.WarmCache()
	}

	if app.EventLog != nil {
		thresholds := observability.DefaultAlertThresholds()
		if globalCfg.Alerts.FailureCount > 0 {
			thresholds.FailureCount = globalCfg.Alerts.FailureCount
		}
		if globalCfg.Alerts.FailureWindowHrs > 0 {
			thresholds.FailureWindowHrs = globalCfg.Alerts.FailureWindowHrs
		}
		if globalCfg.Alerts.WarningCount > 0 {
			thresholds.WarningCount = globalCfg.Alerts.WarningCount
		}
		if globalCfg.Alerts.TransientMaxDays > 0 {
			thresholds.TransientMaxDays = globalCfg.Alerts.TransientMaxDays
		}
		if globalCfg.Alerts.MaxEventLogEvents > 0 {
			thresholds.MaxEventLogEvents = globalCfg.Alerts.MaxEventLogEvents
		}
		app.AlertEngine = observability.NewAlertEngine(app.EventLog, app.Store, thresholds)
		app.MetricsCalc = observability.NewMetricsCalculator(app.EventLog)
	}
	if globalCfg.Notifications.Enabled && globalCfg.Notifications.Slack.WebhookURL != "" {
		app.Notifier = observability.NewSlackNotifier(globalCfg.Notifications.Slack.WebhookURL)
	}

	// --- Core services ---
	app.Registry = core.NewRegistry()
	actions.RegisterBuiltins(app.Registry)
	app.Runner = core.NewRunner(app.Store, app.Registry, app.EventLog)

	// --- Wire CLI package-level variables ---
	cli.BasePath = basePath
	cli.Store = app.Store
	cli.Registry = app.Registry
	cli.Runner = app.Runner

	cli.EventLog = app.EventLog
	cli.AlertEngine = app.AlertEngine
	cli.MetricsCalc = app.MetricsCalc
	cli.Notifier = app.Notifier

	return app, nil
}

// Close releases resources held by the App, such as the event log file
// handle. It is safe to call Close on an App whose EventLog is nil.
func (a *App) Close() error {
	if a.EventLog != nil {
		return a.EventLog.Close()
	}
	return nil
}

// ResolveBasePath determines the workspace root directory. It checks the
// TROVE_HOME env var, then walks up from the current directory looking
// for a .trove metadata dir, and falls back to the current directory.
func ResolveBasePath() string {
	if home := os.Getenv("TROVE_HOME"); home != "" {
		return home
	}
	dir, err := os.Getwd()
	if err != nil {
		return "."
	}
	for {
		if info, err := os.Stat(filepath.Join(dir, storage.DotDir)); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	// Fall back to cwd.
	cwd, _ := os.Getwd()
	return cwd
}
