package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/spf13/viper"
)

// ParamState persists global action parameters for a workspace in a YAML
// settings file. Parameters set here apply to every action run until
// unset, and survive across processes.
type ParamState struct {
	mu       sync.Mutex
	filePath string
	v        *viper.Viper
}

// LoadParamState reads the workspace parameter file, starting empty if it
// does not exist.
func LoadParamState(filePath string) (*ParamState, error) {
	v := viper.New()
	v.SetConfigFile(filePath)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		if !os.IsNotExist(err) {
			if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
				return nil, fmt.Errorf("read params file %s: %w", filePath, err)
			}
		}
	}
	return &ParamState{filePath: filePath, v: v}, nil
}

// Get returns the value of a parameter and whether it is set.
func (ps *ParamState) Get(key string) (string, bool) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	if !ps.v.IsSet(key) {
		return "", false
	}
	return ps.v.GetString(key), true
}

// Values returns all parameters as a map.
func (ps *ParamState) Values() map[string]string {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	out := make(map[string]string)
	for _, key := range ps.v.AllKeys() {
		out[key] = ps.v.GetString(key)
	}
	return out
}

// Keys returns all parameter names, sorted.
func (ps *ParamState) Keys() []string {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	keys := ps.v.AllKeys()
	sort.Strings(keys)
	return keys
}

// Set stores a parameter and persists the parameter file.
func (ps *ParamState) Set(key, value string) error {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.v.Set(key, value)
	return ps.write()
}

// Unset removes parameters and persists the parameter file. Viper cannot
// delete keys in place, so the surviving values move to a fresh instance.
func (ps *ParamState) Unset(keys ...string) error {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	gone := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		gone[k] = struct{}{}
	}
	fresh := viper.New()
	fresh.SetConfigFile(ps.filePath)
	fresh.SetConfigType("yaml")
	for _, key := range ps.v.AllKeys() {
		if _, ok := gone[key]; !ok {
			fresh.Set(key, ps.v.Get(key))
		}
	}
	ps.v = fresh
	return ps.write()
}

func (ps *ParamState) write() error {
	if err := os.MkdirAll(filepath.Dir(ps.filePath), 0o755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}
	if err := ps.v.WriteConfigAs(ps.filePath); err != nil {
		return fmt.Errorf("write params file %s: %w", ps.filePath, err)
	}
	return nil
}
