package actions

import (
	"github.com/trovekit/trove/internal/core"
)

// RegisterBuiltins registers all built-in actions on the registry.
func RegisterBuiltins(registry *core.Registry) {
	registry.MustRegister(NewCopyItems())
	registry.MustRegister(NewConcat())
	registry.MustRegister(NewStripFrontmatter())
	registry.MustRegister(NewFetchPageMetadata())
}
