package storage

import (
	"crypto/sha1"
	"errors"
	"fmt"
	"io"
	fs2 "io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/trovekit/trove/internal/observability"
	"github.com/trovekit/trove/pkg/models"
)

// FileStore manages the files in a workspace: saving and loading items,
// the identity index, archival, and the workspace settings (selection
// history and parameters). File operations are atomic and mutable state
// is synchronized, so a single FileStore is safe for concurrent use
// within one process. Concurrent writers from multiple processes are not
// supported.
type FileStore struct {
	BaseDir string
	Name    string
	Dirs    Dirs

	Selections *SelectionHistory
	Params     *ParamState

	mu         sync.Mutex
	uniquifier *Uniquifier
	idMap      map[models.ItemID]models.StorePath
	cache      *mtimeCache
	warnings   []string
	events     observability.EventLog
}

// NewFileStore opens (or initializes) the workspace rooted at baseDir and
// rebuilds all in-memory state from disk.
func NewFileStore(baseDir string, events observability.EventLog) (*FileStore, error) {
	abs, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("resolve workspace dir: %w", err)
	}
	if events == nil {
		events = observability.NopEventLog()
	}
	store := &FileStore{
		BaseDir: abs,
		Name:    filepath.Base(abs),
		events:  events,
	}
	if err := store.Reload(); err != nil {
		return nil, err
	}
	return store, nil
}

// Reload rebuilds all in-memory state from disk: the metadata layout, the
// identity index, selection history, and workspace parameters. The index
// is always a pure function of the current on-disk state.
func (fs *FileStore) Reload() error {
	fs.mu.Lock()
	fs.Dirs = NewDirs(fs.BaseDir)
	fs.uniquifier = NewUniquifier()
	fs.idMap = make(map[models.ItemID]models.StorePath)
	fs.cache = newMtimeCache(itemCacheSize)
	fs.warnings = nil
	fs.mu.Unlock()

	warning, err := fs.Dirs.Initialize()
	if err != nil {
		return err
	}
	if warning != "" {
		fs.addWarning(warning)
	}

	if err := fs.rebuildIndex(); err != nil {
		return err
	}

	selections, err := LoadSelectionHistory(fs.Dirs.Abs(fs.Dirs.SelectionFile))
	if err != nil {
		return err
	}
	fs.Selections = selections
	fs.filterSelectionPaths()

	params, err := LoadParamState(fs.Dirs.Abs(fs.Dirs.ParamsFile))
	if err != nil {
		return err
	}
	fs.Params = params
	return nil
}

// Warnings returns any problems found while loading the store.
func (fs *FileStore) Warnings() []string {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return append([]string(nil), fs.warnings...)
}

func (fs *FileStore) addWarning(msg string) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.warnings = append(fs.warnings, msg)
}

// ItemCount returns the number of indexed item names.
func (fs *FileStore) ItemCount() int {
	return fs.uniquifier.Len()
}

func (fs *FileStore) rebuildIndex() error {
	numDups := 0
	err := fs.WalkItems("", func(storePath models.StorePath) error {
		if dup := fs.indexItem(storePath); dup != "" {
			numDups++
		}
		return nil
	})
	if err != nil {
		return err
	}
	if numDups > 0 {
		fs.addWarning(fmt.Sprintf("found %d duplicate items in store", numDups))
	}
	return nil
}

// indexItem registers a store path in the uniquifier and identity index.
// If another live path already holds the same identity, it is returned as
// the duplicate and the index keeps the newer path.
func (fs *FileStore) indexItem(storePath models.StorePath) (dupPath models.StorePath) {
	name, itemType, ext, err := ParseItemFilename(storePath.Base())
	if err != nil {
		return ""
	}
	group := string(ext)
	if itemType != "" {
		group = JoinSuffix(string(itemType), string(ext))
	}
	fs.uniquifier.Add(name, group)

	item, err := fs.Load(storePath)
	if err != nil {
		fs.events.Write(observability.Event{
			Time: time.Now(), Level: "WARN", Type: "store.skip",
			Message: "could not read file, skipping",
			Data:    map[string]any{"path": string(storePath), "error": err.Error()},
		})
		return ""
	}
	id, ok := item.ID()
	if !ok {
		return ""
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()
	if old, exists := fs.idMap[id]; exists && old != storePath {
		dupPath = old
	}
	fs.idMap[id] = storePath
	return dupPath
}

func (fs *FileStore) unindexItem(storePath models.StorePath) {
	item, err := fs.Load(storePath)
	if err != nil {
		return
	}
	if id, ok := item.ID(); ok {
		fs.mu.Lock()
		if fs.idMap[id] == storePath {
			delete(fs.idMap, id)
		}
		fs.mu.Unlock()
	}
}

// newFilenameFor returns a unique filename for the item close to its
// slugified title, plus the previously-used filename for the same slug if
// one exists.
func (fs *FileStore) newFilenameFor(item models.Item) (filename, oldFilename string, err error) {
	slug := SlugFor(item)
	fullSuffix, err := item.FullSuffix()
	if err != nil {
		return "", "", err
	}
	uniqueSlug, oldSlugs := fs.uniquifier.UniquifyHistoric(slug, fullSuffix)
	filename = JoinSuffix(uniqueSlug, fullSuffix)
	if len(oldSlugs) > 0 {
		oldFilename = JoinSuffix(oldSlugs[0], fullSuffix)
	}
	return filename, oldFilename, nil
}

func defaultPathFor(item models.Item) (models.StorePath, error) {
	fullSuffix, err := item.FullSuffix()
	if err != nil {
		return "", err
	}
	return models.NewStorePath(item.ItemType.Folder() + "/" + JoinSuffix(SlugFor(item), fullSuffix))
}

// Exists reports whether a store path exists on disk.
func (fs *FileStore) Exists(storePath models.StorePath) bool {
	_, err := os.Stat(fs.Dirs.Abs(storePath))
	return err == nil
}

// ResolvePath converts an absolute or relative filesystem path into a
// store path if it lies within the workspace. A path that names an
// existing item relative to the workspace root resolves to it directly,
// regardless of the process working directory.
func (fs *FileStore) ResolvePath(path string) (models.StorePath, bool) {
	if sp, err := models.NewStorePath(filepath.ToSlash(path)); err == nil && fs.Exists(sp) {
		return sp, true
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", false
	}
	rel, err := filepath.Rel(fs.BaseDir, abs)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", false
	}
	sp, err := models.NewStorePath(filepath.ToSlash(rel))
	if err != nil {
		return "", false
	}
	return sp, true
}

// FindByID looks for a live item with the same identity as the given
// item. The in-memory index is checked first, then the item's default
// path on disk in case the index is incomplete.
func (fs *FileStore) FindByID(item models.Item) (models.StorePath, bool) {
	id, ok := item.ID()
	if !ok {
		return "", false
	}

	fs.mu.Lock()
	storePath, found := fs.idMap[id]
	fs.mu.Unlock()

	if found && fs.Exists(storePath) {
		return storePath, true
	}

	defaultPath, err := defaultPathFor(item)
	if err != nil || !fs.Exists(defaultPath) {
		return "", false
	}
	oldItem, err := fs.Load(defaultPath)
	if err != nil {
		return "", false
	}
	if oldID, ok := oldItem.ID(); ok && oldID == id {
		fs.mu.Lock()
		fs.idMap[id] = defaultPath
		fs.mu.Unlock()
		return defaultPath, true
	}
	return "", false
}

// StorePathFor resolves where an item should be saved. found indicates
// the path already belongs to this item (set on the item, or matched by
// identity); oldStorePath points at a previous similarly-named item when
// a fresh name had to be uniquified.
func (fs *FileStore) StorePathFor(item models.Item) (storePath models.StorePath, found bool, oldStorePath models.StorePath, err error) {
	if item.StorePath != "" {
		return item.StorePath, true, "", nil
	}

	if id, ok := item.ID(); ok {
		fs.mu.Lock()
		existing, exists := fs.idMap[id]
		fs.mu.Unlock()
		if exists {
			return existing, true, "", nil
		}
	}

	filename, oldFilename, err := fs.newFilenameFor(item)
	if err != nil {
		return "", false, "", err
	}
	folder := item.ItemType.Folder()
	storePath, err = models.NewStorePath(folder + "/" + filename)
	if err != nil {
		return "", false, "", err
	}
	if oldFilename != "" {
		if old, pathErr := models.NewStorePath(folder + "/" + oldFilename); pathErr == nil && fs.Exists(old) {
			oldStorePath = old
		}
	}
	return storePath, false, oldStorePath, nil
}

// TmpPathFor returns a path for the item inside the reserved tmp subtree.
func (fs *FileStore) TmpPathFor(item models.Item) (models.StorePath, error) {
	if item.StorePath != "" {
		if item.StorePath.IsUnder(fs.Dirs.TmpDir) {
			return item.StorePath, nil
		}
		return fs.Dirs.TmpDir.Join(string(item.StorePath))
	}
	storePath, _, _, err := fs.StorePathFor(item)
	if err != nil {
		return "", err
	}
	return fs.Dirs.TmpDir.Join(string(storePath))
}

// Save persists the item, reusing its store path when set or resolving a
// new one. An existing file at the target is archived first, never
// silently overwritten; if the write fails it is unarchived to roll back.
// When the saved content turns out identical to the previous version
// under the same title, the new file is discarded and the old path is
// reused. The item's StorePath is updated on success.
func (fs *FileStore) Save(item *models.Item) (models.StorePath, error) {
	// An external file already inside the workspace is already saved.
	if item.ExternalPath != "" {
		if rel, ok := fs.ResolvePath(item.ExternalPath); ok {
			item.StorePath = rel
			item.ExternalPath = ""
			return rel, nil
		}
	}

	storePath, _, oldStorePath, err := fs.StorePathFor(*item)
	if err != nil {
		return "", err
	}
	fullPath := fs.Dirs.Abs(storePath)

	archived := false
	if fs.Exists(storePath) {
		if _, err := fs.Archive(storePath, false); err == nil {
			archived = true
		}
	}

	fs.cache.Delete(fullPath)
	if err := fs.writeItemFile(*item, fullPath); err != nil {
		if archived {
			fs.Unarchive(storePath)
		}
		return "", err
	}

	if !item.CreatedAt.IsZero() {
		modTime := item.ModifiedAt
		if modTime.IsZero() {
			modTime = item.CreatedAt
		}
		os.Chtimes(fullPath, modTime, modTime)
	}

	// Identical to the previous version under the old name: discard the
	// new file to reduce churn from repeated re-runs.
	if oldStorePath != "" {
		oldItem, oldErr := fs.Load(oldStorePath)
		newItem, newErr := fs.Load(storePath)
		if oldErr == nil && newErr == nil && newItem.ContentEquals(oldItem) {
			os.Remove(fullPath)
			fs.cache.Delete(fullPath)
			storePath = oldStorePath
		}
	}

	item.StorePath = storePath
	fs.indexItem(storePath)

	fs.events.Write(observability.Event{
		Time: time.Now(), Level: "INFO", Type: "store.saved",
		Message: "saved item",
		Data:    map[string]any{"path": string(storePath)},
	})
	return storePath, nil
}

func (fs *FileStore) writeItemFile(item models.Item, fullPath string) error {
	if item.ExternalPath != "" {
		if err := copyFileAtomic(item.ExternalPath, fullPath); err != nil {
			return &models.PersistError{Op: "copy", Path: models.StorePath(fullPath), Err: err}
		}
		return nil
	}
	return WriteItem(item, fullPath)
}

// Load reads the item at the given store path, via the mtime cache.
func (fs *FileStore) Load(storePath models.StorePath) (models.Item, error) {
	fullPath := fs.Dirs.Abs(storePath)
	if item, ok := fs.cache.Read(fullPath); ok {
		return item, nil
	}
	item, err := ReadItem(fullPath, fs.BaseDir)
	if err != nil {
		return models.Item{}, err
	}
	fs.cache.Update(fullPath, item)
	return item, nil
}

// Hash returns the content hash of the file at the given store path, in
// the form "sha1:<hex>".
func (fs *FileStore) Hash(storePath models.StorePath) (string, error) {
	f, err := os.Open(fs.Dirs.Abs(storePath))
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha1.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash %s: %w", storePath, err)
	}
	return fmt.Sprintf("sha1:%x", h.Sum(nil)), nil
}

// Archive moves the item into the archive subtree, mirroring its relative
// path, and removes it from the identity index and all selections. With
// missingOK a nonexistent path is a no-op, for callers whose replace
// semantics may already have removed the file.
func (fs *FileStore) Archive(storePath models.StorePath, missingOK bool) (models.StorePath, error) {
	origPath := fs.Dirs.Abs(storePath)
	if _, err := os.Stat(origPath); err != nil {
		if missingOK && errors.Is(err, fs2.ErrNotExist) {
			return storePath, nil
		}
		return "", fmt.Errorf("archive %s: %w", storePath, err)
	}

	fs.unindexItem(storePath)
	archivePath, err := fs.Dirs.ArchiveDir.Join(string(storePath))
	if err != nil {
		return "", err
	}
	if err := moveFile(origPath, fs.Dirs.Abs(archivePath)); err != nil {
		return "", &models.PersistError{Op: "archive", Path: storePath, Err: err}
	}
	fs.cache.Delete(origPath)
	fs.Selections.RemoveValues([]models.StorePath{storePath})

	fs.events.Write(observability.Event{
		Time: time.Now(), Level: "INFO", Type: "store.archived",
		Message: "archived item",
		Data:    map[string]any{"path": string(storePath)},
	})
	return archivePath, nil
}

// Unarchive moves an item back out of the archive subtree to its original
// path. The input may be given with or without the archive prefix.
func (fs *FileStore) Unarchive(storePath models.StorePath) (models.StorePath, error) {
	target := storePath
	if storePath.IsUnder(fs.Dirs.ArchiveDir) {
		rel, err := storePath.RelativeTo(fs.Dirs.ArchiveDir)
		if err != nil {
			return "", err
		}
		target = rel
	}
	archivedPath, err := fs.Dirs.ArchiveDir.Join(string(target))
	if err != nil {
		return "", err
	}
	if err := moveFile(fs.Dirs.Abs(archivedPath), fs.Dirs.Abs(target)); err != nil {
		return "", &models.PersistError{Op: "unarchive", Path: storePath, Err: err}
	}
	fs.indexItem(target)
	return target, nil
}

// Rename moves an item to a new store path and rewrites references in the
// identity index and all selections.
func (fs *FileStore) Rename(oldPath, newPath models.StorePath) error {
	if err := moveFile(fs.Dirs.Abs(oldPath), fs.Dirs.Abs(newPath)); err != nil {
		return &models.PersistError{Op: "rename", Path: oldPath, Err: err}
	}
	fs.cache.Delete(fs.Dirs.Abs(oldPath))
	fs.unindexItem(oldPath)
	fs.indexItem(newPath)
	return fs.Selections.ReplaceValues(map[models.StorePath]models.StorePath{oldPath: newPath})
}

// WalkItems calls fn for every item file under start (or the whole store
// when start is empty), skipping ignored files and the metadata subtree.
func (fs *FileStore) WalkItems(start models.StorePath, fn func(models.StorePath) error) error {
	root := fs.BaseDir
	if start != "" {
		root = fs.Dirs.Abs(start)
	}
	return filepath.WalkDir(root, func(path string, d fs2.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if path != root && IsIgnored(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if IsIgnored(d.Name()) {
			return nil
		}
		rel, err := filepath.Rel(fs.BaseDir, path)
		if err != nil {
			return nil
		}
		storePath, pathErr := models.NewStorePath(filepath.ToSlash(rel))
		if pathErr != nil {
			return nil
		}
		return fn(storePath)
	})
}

// TransientItems lists the live transient items, for health checks.
// Unreadable entries are skipped.
func (fs *FileStore) TransientItems() ([]observability.TransientItem, error) {
	var out []observability.TransientItem
	err := fs.WalkItems("", func(storePath models.StorePath) error {
		item, err := fs.Load(storePath)
		if err != nil {
			return nil
		}
		if item.State != models.StateTransient {
			return nil
		}
		out = append(out, observability.TransientItem{
			Path:     string(storePath),
			Modified: item.ModifiedAt,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SweepTransients archives transient items whose last modification is
// older than maxAge, returning the paths that were archived.
func (fs *FileStore) SweepTransients(maxAge time.Duration) ([]models.StorePath, error) {
	items, err := fs.TransientItems()
	if err != nil {
		return nil, err
	}

	cutoff := time.Now().UTC().Add(-maxAge)
	var swept []models.StorePath
	for _, ti := range items {
		if ti.Modified.After(cutoff) {
			continue
		}
		storePath := models.StorePath(ti.Path)
		if _, err := fs.Archive(storePath, true); err != nil {
			return swept, err
		}
		swept = append(swept, storePath)
	}
	return swept, nil
}

// Normalize reloads and re-saves an item so its file is in the current
// format: normalized body, canonical frontmatter field order.
func (fs *FileStore) Normalize(storePath models.StorePath) (models.StorePath, error) {
	item, err := fs.Load(storePath)
	if err != nil {
		return "", err
	}
	return fs.Save(&item)
}

// Import brings a file or URL into the store as an item. URLs become URL
// resources; text files are read with or without frontmatter and saved as
// items; other files are copied in as-is. A path already inside the store
// is returned unchanged unless reimport is set.
func (fs *FileStore) Import(locator string, asType models.ItemType, reimport bool) (models.StorePath, error) {
	if asType == "" {
		asType = models.TypeResource
	}

	if isURL(locator) {
		item := models.NewURLResource(models.CanonicalizeURL(locator), "")
		item.ItemType = asType
		if _, err := fs.Save(&item); err != nil {
			return "", err
		}
		fs.logImport(locator, item.StorePath)
		return item.StorePath, nil
	}

	// An existing store path is already imported.
	if sp, err := models.NewStorePath(filepath.ToSlash(locator)); err == nil && fs.Exists(sp) && !reimport {
		return sp, nil
	}

	abs, err := filepath.Abs(locator)
	if err != nil {
		return "", err
	}
	if rel, ok := fs.ResolvePath(abs); ok && fs.Exists(rel) && !reimport {
		return rel, nil
	}
	if _, err := os.Stat(abs); err != nil {
		return "", fmt.Errorf("import %s: %w", locator, err)
	}

	_, filenameType, ext, err := ParseItemFilename(filepath.Base(abs))
	if err != nil {
		return "", err
	}
	if filenameType != "" {
		asType = filenameType
	}

	if ext.IsText() {
		item, err := ReadItemOrPlainFile(abs, fs.BaseDir, asType)
		if err != nil {
			return "", err
		}
		item.ExternalPath = ""
		item.ItemType = asType
		storePath, err := fs.Save(&item)
		if err != nil {
			return "", err
		}
		fs.logImport(locator, storePath)
		return storePath, nil
	}

	// Binary files are copied over as-is, preserving the name.
	item := models.NewItem(asType)
	item.Title = filepath.Base(abs)
	item.FileExt = ext
	if format, ok := ext.GuessFormat(); ok {
		item.Format = format
	}
	item.ExternalPath = abs
	storePath, _, _, err := fs.StorePathFor(item)
	if err != nil {
		return "", err
	}
	if fs.Exists(storePath) {
		return "", models.NewInvalidState("resource already in store: %s", storePath)
	}
	if err := copyFileAtomic(abs, fs.Dirs.Abs(storePath)); err != nil {
		return "", &models.PersistError{Op: "import", Path: storePath, Err: err}
	}
	fs.indexItem(storePath)
	fs.logImport(locator, storePath)
	return storePath, nil
}

func (fs *FileStore) logImport(locator string, storePath models.StorePath) {
	fs.events.Write(observability.Event{
		Time: time.Now(), Level: "INFO", Type: "store.imported",
		Message: "imported item",
		Data:    map[string]any{"locator": locator, "path": string(storePath)},
	})
}

// ImportAll imports multiple locators, returning the store paths in order.
func (fs *FileStore) ImportAll(locators []string, asType models.ItemType, reimport bool) ([]models.StorePath, error) {
	paths := make([]models.StorePath, 0, len(locators))
	for _, locator := range locators {
		p, err := fs.Import(locator, asType, reimport)
		if err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, nil
}

// filterSelectionPaths drops paths that no longer exist from all
// selections, so stale history never resolves to missing files.
func (fs *FileStore) filterSelectionPaths() {
	history, _ := fs.Selections.History()
	var missing []models.StorePath
	seen := make(map[models.StorePath]struct{})
	for _, sel := range history {
		for _, p := range sel.Paths {
			if _, done := seen[p]; done {
				continue
			}
			seen[p] = struct{}{}
			if !fs.Exists(p) {
				missing = append(missing, p)
			}
		}
	}
	if len(missing) > 0 {
		fs.Selections.RemoveValues(missing)
	}
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// ReadItemOrPlainFile reads a file as an item. A file without frontmatter
// becomes a fresh item of the given type with the file content as body.
func ReadItemOrPlainFile(fullPath, baseDir string, asType models.ItemType) (models.Item, error) {
	item, err := ReadItem(fullPath, baseDir)
	if err == nil {
		return item, nil
	}

	data, readErr := os.ReadFile(fullPath)
	if readErr != nil {
		return models.Item{}, readErr
	}
	item = models.NewItem(asType)
	name, _, ext, parseErr := ParseItemFilename(filepath.Base(fullPath))
	if parseErr != nil {
		return models.Item{}, parseErr
	}
	item.Title = strings.ReplaceAll(name, "_", " ")
	item.FileExt = ext
	if format, ok := ext.GuessFormat(); ok {
		item.Format = format
	}
	item.Body = string(data)
	return item, nil
}

func moveFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	// Rename can fail across filesystems; fall back to copy then remove.
	if err := copyFileAtomic(src, dst); err != nil {
		return err
	}
	return os.Remove(src)
}

func copyFileAtomic(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	tmpPath := dst + ".copy.tmp"
	out, err := os.Create(tmpPath)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, dst); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}
