package cli

import (
	"github.com/trovekit/trove/internal/core"
	"github.com/trovekit/trove/internal/observability"
	"github.com/trovekit/trove/internal/storage"
)

// Service instances, set during application wiring in internal/app.go.
var (
	// BasePath is the workspace root directory.
	BasePath string

	Store    *storage.FileStore
	Registry *core.Registry
	Runner   *core.Runner

	EventLog    observability.EventLog
	AlertEngine observability.AlertEngine
	MetricsCalc observability.MetricsCalculator
	Notifier    observability.Notifier
)
