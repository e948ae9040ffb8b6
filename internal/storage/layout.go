package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/trovekit/trove/pkg/models"
)

// DotDir is the reserved subtree holding workspace metadata. Everything
// under it is excluded from item scans.
const DotDir = ".trove"

// StoreVersion is the store format version, recorded in the workspace
// metadata file so future versions can warn on mismatch.
// sv1: initial version.
const StoreVersion = "sv1"

// Dirs describes the layout of metadata files and directories inside a
// workspace. All paths are relative to the workspace base directory.
type Dirs struct {
	BaseDir string

	MetadataFile  models.StorePath
	ArchiveDir    models.StorePath
	SettingsDir   models.StorePath
	SelectionFile models.StorePath
	ParamsFile    models.StorePath
	CacheDir      models.StorePath
	IndexDir      models.StorePath
	TmpDir        models.StorePath
	EventLogFile  models.StorePath
}

// NewDirs returns the standard layout rooted at baseDir.
func NewDirs(baseDir string) Dirs {
	return Dirs{
		BaseDir:       baseDir,
		MetadataFile:  DotDir + "/metadata.yml",
		ArchiveDir:    DotDir + "/archive",
		SettingsDir:   DotDir + "/settings",
		SelectionFile: DotDir + "/settings/selection.yml",
		ParamsFile:    DotDir + "/settings/params.yml",
		CacheDir:      DotDir + "/cache",
		IndexDir:      DotDir + "/index",
		TmpDir:        DotDir + "/tmp",
		EventLogFile:  DotDir + "/events.jsonl",
	}
}

// Abs resolves a store path against the workspace base directory.
func (d Dirs) Abs(p models.StorePath) string {
	return filepath.Join(d.BaseDir, filepath.FromSlash(string(p)))
}

// IsInitialized reports whether the workspace metadata file exists.
func (d Dirs) IsInitialized() bool {
	info, err := os.Stat(d.Abs(d.MetadataFile))
	return err == nil && info.Mode().IsRegular()
}

type storeMetadata struct {
	StoreVersion string `yaml:"store_version"`
}

// Initialize creates the metadata subdirectories and the workspace
// metadata file. Idempotent; an existing workspace with a different
// store version gets a warning string back.
func (d Dirs) Initialize() (warning string, err error) {
	for _, dir := range []models.StorePath{d.ArchiveDir, d.SettingsDir, d.CacheDir, d.IndexDir, d.TmpDir} {
		if err := os.MkdirAll(d.Abs(dir), 0o755); err != nil {
			return "", fmt.Errorf("create metadata dir %s: %w", dir, err)
		}
	}

	metaPath := d.Abs(d.MetadataFile)
	if data, err := os.ReadFile(metaPath); err == nil {
		var meta storeMetadata
		if yamlErr := yaml.Unmarshal(data, &meta); yamlErr != nil || meta.StoreVersion != StoreVersion {
			return fmt.Sprintf("store metadata is version %q but this build uses %q: %s",
				meta.StoreVersion, StoreVersion, d.MetadataFile), nil
		}
		return "", nil
	}

	data, err := yaml.Marshal(storeMetadata{StoreVersion: StoreVersion})
	if err != nil {
		return "", fmt.Errorf("marshal store metadata: %w", err)
	}
	if err := os.WriteFile(metaPath, data, 0o644); err != nil {
		return "", fmt.Errorf("write store metadata: %w", err)
	}
	return "", nil
}

// IsIgnored reports whether a file or directory name is excluded from
// item scans: the metadata subtree, hidden files, and editor droppings.
func IsIgnored(name string) bool {
	if name == "" {
		return true
	}
	if name[0] == '.' {
		return true
	}
	switch name {
	case "__pycache__", "node_modules", "Thumbs.db":
		return true
	}
	return false
}
