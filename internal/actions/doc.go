// Package actions provides the built-in actions that ship with trove:
// small, dependency-light transformations plus the page metadata fetcher.
// Heavier actions (LLM transforms, media handling) register through the
// same core.Registry from their own packages.
package actions
