package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/trovekit/trove/pkg/models"
)

// SelectionHistoryMax bounds how many selections are kept.
const SelectionHistoryMax = 50

// Selection is a list of store paths for items in the workspace.
type Selection struct {
	Paths []models.StorePath `yaml:"paths"`
}

// IsEmpty reports whether the selection holds no paths.
func (s Selection) IsEmpty() bool { return len(s.Paths) == 0 }

// Equal reports whether two selections hold the same paths in order.
func (s Selection) Equal(other Selection) bool {
	if len(s.Paths) != len(other.Paths) {
		return false
	}
	for i := range s.Paths {
		if s.Paths[i] != other.Paths[i] {
			return false
		}
	}
	return true
}

func (s *Selection) removeValues(targets map[models.StorePath]struct{}) {
	kept := s.Paths[:0]
	for _, p := range s.Paths {
		if _, gone := targets[p]; !gone {
			kept = append(kept, p)
		}
	}
	s.Paths = kept
}

func (s *Selection) replaceValues(replacements map[models.StorePath]models.StorePath) {
	for i, p := range s.Paths {
		if newPath, ok := replacements[p]; ok {
			s.Paths[i] = newPath
		}
	}
}

// SelectionHistory is a navigable stack of selections, the outputs of a
// sequence of commands. The full history persists to a YAML file after
// every mutation, so it survives across processes.
type SelectionHistory struct {
	mu         sync.Mutex
	history    []Selection
	currentIdx int
	savePath   string
	maxHistory int
}

type selectionHistoryFile struct {
	History      []Selection `yaml:"history"`
	CurrentIndex int         `yaml:"current_index"`
}

// LoadSelectionHistory loads selection history from savePath, starting
// fresh if the file does not exist or cannot be parsed. A corrupt file is
// renamed aside rather than silently overwritten.
func LoadSelectionHistory(savePath string) (*SelectionHistory, error) {
	sh := &SelectionHistory{savePath: savePath, maxHistory: SelectionHistoryMax}

	data, err := os.ReadFile(savePath)
	if os.IsNotExist(err) {
		return sh, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read selection history: %w", err)
	}

	var file selectionHistoryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		os.Rename(savePath, savePath+".corrupt")
		return sh, nil
	}
	sh.history = file.History
	sh.currentIdx = file.CurrentIndex
	if sh.currentIdx < 0 || (len(sh.history) > 0 && sh.currentIdx >= len(sh.history)) {
		sh.currentIdx = max(0, len(sh.history)-1)
	}
	return sh, nil
}

func (sh *SelectionHistory) save() error {
	file := selectionHistoryFile{History: sh.history, CurrentIndex: sh.currentIdx}
	data, err := yaml.Marshal(file)
	if err != nil {
		return fmt.Errorf("marshal selection history: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(sh.savePath), 0o755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}
	tmpPath := sh.savePath + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write selection history: %w", err)
	}
	if err := os.Rename(tmpPath, sh.savePath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replace selection history: %w", err)
	}
	return nil
}

// Current returns the selection at the current position, or an empty
// selection if there is no history.
func (sh *SelectionHistory) Current() Selection {
	sh.mu.Lock()
	defer sh.mu.Unlock()
	if len(sh.history) == 0 {
		return Selection{}
	}
	return sh.history[sh.currentIdx]
}

// Len returns the number of selections in history.
func (sh *SelectionHistory) Len() int {
	sh.mu.Lock()
	defer sh.mu.Unlock()
	return len(sh.history)
}

// History returns a copy of the full history and the current index.
func (sh *SelectionHistory) History() ([]Selection, int) {
	sh.mu.Lock()
	defer sh.mu.Unlock()
	out := make([]Selection, len(sh.history))
	copy(out, sh.history)
	return out, sh.currentIdx
}

// Push appends a new selection at the current position, discarding any
// "future" entries beyond it. Empty and duplicate-of-last selections are
// dropped; an empty selection sitting at the tail is replaced instead.
func (sh *SelectionHistory) Push(sel Selection) error {
	sh.mu.Lock()
	defer sh.mu.Unlock()

	sh.history = sh.history[:min(sh.currentIdx+1, len(sh.history))]

	switch {
	case sel.IsEmpty():
		// The forward-branch truncation above must still be persisted.
		return sh.save()
	case len(sh.history) > 0 && sh.history[len(sh.history)-1].Equal(sel):
		return sh.save()
	case len(sh.history) > 0 && sh.history[len(sh.history)-1].IsEmpty():
		sh.history[len(sh.history)-1] = sel
	default:
		sh.history = append(sh.history, sel)
	}
	sh.currentIdx = len(sh.history) - 1

	if sh.maxHistory > 0 && len(sh.history) > sh.maxHistory {
		drop := len(sh.history) - sh.maxHistory
		sh.history = sh.history[drop:]
		sh.currentIdx -= drop
	}
	return sh.save()
}

// SetCurrent replaces the selection at the current position, pushing a
// new one if history is empty.
func (sh *SelectionHistory) SetCurrent(paths []models.StorePath) error {
	sh.mu.Lock()
	if len(sh.history) == 0 {
		sh.mu.Unlock()
		return sh.Push(Selection{Paths: paths})
	}
	defer sh.mu.Unlock()
	sh.history[sh.currentIdx] = Selection{Paths: paths}
	return sh.save()
}

// Pop removes and returns the current selection.
func (sh *SelectionHistory) Pop() (Selection, error) {
	sh.mu.Lock()
	defer sh.mu.Unlock()
	if len(sh.history) == 0 {
		return Selection{}, models.NewInvalidState("no current selection")
	}
	sel := sh.history[len(sh.history)-1]
	sh.history = sh.history[:len(sh.history)-1]
	sh.currentIdx = max(0, sh.currentIdx-1)
	return sel, sh.save()
}

// Previous moves back one selection in history and returns it.
func (sh *SelectionHistory) Previous() (Selection, error) {
	sh.mu.Lock()
	defer sh.mu.Unlock()
	if sh.currentIdx-1 < 0 {
		return Selection{}, models.NewInvalidState("no previous selection")
	}
	sh.currentIdx--
	return sh.history[sh.currentIdx], sh.save()
}

// Next moves forward one selection in history and returns it.
func (sh *SelectionHistory) Next() (Selection, error) {
	sh.mu.Lock()
	defer sh.mu.Unlock()
	if sh.currentIdx+1 >= len(sh.history) {
		return Selection{}, models.NewInvalidState("no next selection")
	}
	sh.currentIdx++
	return sh.history[sh.currentIdx], sh.save()
}

// RemoveValues removes the given paths from every selection in history,
// dropping selections that become empty. Used when items are archived so
// history never points at missing files.
func (sh *SelectionHistory) RemoveValues(targets []models.StorePath) error {
	sh.mu.Lock()
	defer sh.mu.Unlock()

	gone := make(map[models.StorePath]struct{}, len(targets))
	for _, t := range targets {
		gone[t] = struct{}{}
	}
	for i := range sh.history {
		sh.history[i].removeValues(gone)
	}

	kept := sh.history[:0]
	for i := range sh.history {
		if sh.history[i].IsEmpty() {
			if i <= sh.currentIdx {
				sh.currentIdx = max(0, sh.currentIdx-1)
			}
			continue
		}
		kept = append(kept, sh.history[i])
	}
	sh.history = kept
	if sh.currentIdx >= len(sh.history) {
		sh.currentIdx = max(0, len(sh.history)-1)
	}
	return sh.save()
}

// ReplaceValues rewrites paths across every selection in history. Used
// when items are renamed.
func (sh *SelectionHistory) ReplaceValues(replacements map[models.StorePath]models.StorePath) error {
	sh.mu.Lock()
	defer sh.mu.Unlock()
	for i := range sh.history {
		sh.history[i].replaceValues(replacements)
	}
	return sh.save()
}

// PreviousN returns the n selections ending at the current position,
// oldest first. If expectedSize is nonzero, each must hold exactly that
// many paths.
func (sh *SelectionHistory) PreviousN(n, expectedSize int) ([]Selection, error) {
	sh.mu.Lock()
	defer sh.mu.Unlock()
	if len(sh.history) < n {
		return nil, models.NewInvalidState("need %d selections in history but only have %d", n, len(sh.history))
	}
	if sh.currentIdx+1 < n {
		return nil, models.NewInvalidState("need %d selections before current position", n)
	}
	sels := sh.history[sh.currentIdx-n+1 : sh.currentIdx+1]
	if expectedSize > 0 {
		for i, sel := range sels {
			if len(sel.Paths) != expectedSize {
				return nil, models.NewInvalidInput(
					"selection at position %d has %d paths; exactly %d required",
					i-n+1, len(sel.Paths), expectedSize)
			}
		}
	}
	out := make([]Selection, len(sels))
	copy(out, sels)
	return out, nil
}
