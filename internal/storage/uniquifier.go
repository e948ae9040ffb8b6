package storage

import (
	"fmt"
	"sync"
)

type uniqueKey struct {
	name  string
	group string
}

// Uniquifier maintains a set of names, adding numeric suffixes to ensure
// uniqueness when a name collides. Names are scoped by group, so the same
// slug can coexist under different file suffixes. Safe for concurrent use.
type Uniquifier struct {
	mu   sync.Mutex
	keys map[uniqueKey]struct{}
}

// NewUniquifier returns an empty Uniquifier.
func NewUniquifier() *Uniquifier {
	return &Uniquifier{keys: make(map[uniqueKey]struct{})}
}

// Add registers a name as taken without uniquifying it.
func (u *Uniquifier) Add(name, group string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.keys[uniqueKey{name, group}] = struct{}{}
}

// Uniquify returns name unchanged if it is free within the group, or with
// the lowest free numeric suffix appended.
func (u *Uniquifier) Uniquify(name, group string) string {
	unique, _ := u.UniquifyHistoric(name, group)
	return unique
}

// UniquifyHistoric is like Uniquify but also returns the previously-taken
// names for the same base, oldest first. Callers use these to find the
// prior version of an item saved under the same title.
func (u *Uniquifier) UniquifyHistoric(name, group string) (string, []string) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if _, taken := u.keys[uniqueKey{name, group}]; !taken {
		u.keys[uniqueKey{name, group}] = struct{}{}
		return name, nil
	}

	oldNames := []string{name}
	suffix := 1
	for {
		candidate := fmt.Sprintf("%s_%d", name, suffix)
		if _, taken := u.keys[uniqueKey{candidate, group}]; !taken {
			u.keys[uniqueKey{candidate, group}] = struct{}{}
			return candidate, oldNames
		}
		oldNames = append(oldNames, candidate)
		suffix++
	}
}

// Len returns the number of registered names.
func (u *Uniquifier) Len() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.keys)
}
