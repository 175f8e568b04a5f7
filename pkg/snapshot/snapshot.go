// Package snapshot persists a whole-database point-in-time image: the type
// registry plus every table's row bytes, so pkg/dbms can start from a
// snapshot and replay only the write-ahead log entries committed after it,
// instead of replaying the log from the beginning of time.
//
// A snapshot is a directory named snapshot_<transactionNumber>, containing
// registry.bson (the type registry, via go.mongodb.org/mongo-driver's BSON
// codec) and one tables/<name>.tbl file per table. Promotion follows the
// same pattern as the engine's own checkpoint files: build the whole
// directory under a .tmp name, fsync everything in it, then os.Rename it
// into place. A rename within one directory is atomic on the filesystems
// this engine targets, so a reader never observes a half-written snapshot.
//
// Which snapshot is current is published by a separate pointer file, tnum,
// holding the ASCII decimal of the latest promoted transaction number.
// Save writes it last, via the same tmp-then-rename dance (tnum.tmp ->
// tnum), so a reader never sees a pointer naming a snapshot directory that
// isn't fully on disk yet. Load prefers the pointer when present and falls
// back to scanning for the highest-numbered snapshot_<tn> directory
// otherwise, which keeps a base dir written before the pointer existed
// loadable.
package snapshot

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/bobboyms/algebraicdb/pkg/storage"
	"github.com/bobboyms/algebraicdb/pkg/types"
	"go.mongodb.org/mongo-driver/v2/bson"
)

const (
	dirPrefix     = "snapshot_"
	registryFile  = "registry.bson"
	tablesDir     = "tables"
	pointerFile   = "tnum"
	keepSnapshots = 2 // most recent N kept; older ones are redundant once their WAL tail is gone
)

// Manager saves and loads snapshots under BaseDir.
type Manager struct {
	BaseDir string
}

func NewManager(baseDir string) *Manager {
	return &Manager{BaseDir: baseDir}
}

// Save builds a new snapshot for the state as of transactionNumber and
// promotes it atomically, then removes all but the keepSnapshots most
// recent snapshots.
func (m *Manager) Save(transactionNumber uint64, reg *types.TypeRegistry, tables *storage.TableSet) error {
	finalDir := m.snapshotDir(transactionNumber)
	tmpDir := finalDir + ".tmp"

	if err := os.RemoveAll(tmpDir); err != nil {
		return fmt.Errorf("snapshot: clearing stale temp dir: %w", err)
	}
	if err := os.MkdirAll(filepath.Join(tmpDir, tablesDir), 0755); err != nil {
		return fmt.Errorf("snapshot: creating temp dir: %w", err)
	}

	if err := saveRegistry(filepath.Join(tmpDir, registryFile), reg); err != nil {
		return err
	}

	for _, name := range tables.Names() {
		t, err := tables.Get(name)
		if err != nil {
			return err
		}
		t.RLock()
		err = saveTableFile(filepath.Join(tmpDir, tablesDir, name+".tbl"), t)
		t.RUnlock()
		if err != nil {
			return fmt.Errorf("snapshot: writing table %q: %w", name, err)
		}
	}

	if err := fsyncDir(tmpDir); err != nil {
		return err
	}

	if err := os.RemoveAll(finalDir); err != nil {
		return fmt.Errorf("snapshot: clearing stale final dir: %w", err)
	}
	if err := os.Rename(tmpDir, finalDir); err != nil {
		return fmt.Errorf("snapshot: promoting snapshot: %w", err)
	}
	if err := fsyncDir(m.BaseDir); err != nil {
		return err
	}

	if err := m.publishPointer(transactionNumber); err != nil {
		return err
	}

	return m.cleanOldSnapshots(transactionNumber)
}

// publishPointer atomically renames tnum.tmp over tnum so readers see the
// new transaction number only once finalDir is already durable.
func (m *Manager) publishPointer(tn uint64) error {
	path := filepath.Join(m.BaseDir, pointerFile)
	tmpPath := path + ".tmp"

	if err := os.WriteFile(tmpPath, []byte(strconv.FormatUint(tn, 10)), 0644); err != nil {
		return fmt.Errorf("snapshot: writing pointer: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("snapshot: publishing pointer: %w", err)
	}
	return fsyncDir(m.BaseDir)
}

// Load reads the most recent snapshot, returning the transaction number it
// was taken at, the reconstructed type registry, and table set. If no
// snapshot exists yet, it returns transactionNumber 0, a fresh registry, and
// an empty table set — the normal state for a brand new database.
func (m *Manager) Load() (uint64, *types.TypeRegistry, *storage.TableSet, error) {
	tn, dir, found, err := m.latestSnapshot()
	if err != nil {
		return 0, nil, nil, err
	}
	if !found {
		return 0, types.NewTypeRegistry(), storage.NewTableSet(), nil
	}

	reg, err := loadRegistry(filepath.Join(dir, registryFile))
	if err != nil {
		return 0, nil, nil, fmt.Errorf("snapshot: loading registry: %w", err)
	}

	tables := storage.NewTableSet()
	entries, err := os.ReadDir(filepath.Join(dir, tablesDir))
	if err != nil {
		return 0, nil, nil, fmt.Errorf("snapshot: listing tables: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".tbl") {
			continue
		}
		t, err := loadTableFile(filepath.Join(dir, tablesDir, e.Name()), reg)
		if err != nil {
			return 0, nil, nil, fmt.Errorf("snapshot: loading table file %q: %w", e.Name(), err)
		}
		if err := tables.Restore(t); err != nil {
			return 0, nil, nil, err
		}
	}

	return tn, reg, tables, nil
}

func (m *Manager) snapshotDir(tn uint64) string {
	return filepath.Join(m.BaseDir, fmt.Sprintf("%s%020d", dirPrefix, tn))
}

// latestSnapshot resolves the current snapshot: the pointer file if one
// names a directory that still exists, otherwise the highest-numbered
// snapshot_<tn> directory found by scanning, mirroring the
// directory-scan-by-embedded-sequence-number approach the engine already
// uses for checkpoint files.
func (m *Manager) latestSnapshot() (uint64, string, bool, error) {
	if tn, ok, err := m.readPointer(); err != nil {
		return 0, "", false, err
	} else if ok {
		dir := m.snapshotDir(tn)
		if _, statErr := os.Stat(dir); statErr == nil {
			return tn, dir, true, nil
		}
	}

	tns, err := m.listSnapshotNumbers()
	if err != nil {
		return 0, "", false, err
	}
	if len(tns) == 0 {
		return 0, "", false, nil
	}
	best := tns[len(tns)-1]
	return best, m.snapshotDir(best), true, nil
}

func (m *Manager) readPointer() (uint64, bool, error) {
	data, err := os.ReadFile(filepath.Join(m.BaseDir, pointerFile))
	if os.IsNotExist(err) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("snapshot: reading pointer: %w", err)
	}
	tn, err := strconv.ParseUint(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		return 0, false, nil
	}
	return tn, true, nil
}

func (m *Manager) listSnapshotNumbers() ([]uint64, error) {
	entries, err := os.ReadDir(m.BaseDir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("snapshot: listing base dir: %w", err)
	}

	var tns []uint64
	for _, e := range entries {
		if !e.IsDir() || !strings.HasPrefix(e.Name(), dirPrefix) {
			continue
		}
		tn, err := strconv.ParseUint(strings.TrimPrefix(e.Name(), dirPrefix), 10, 64)
		if err != nil {
			continue
		}
		tns = append(tns, tn)
	}
	sort.Slice(tns, func(i, j int) bool { return tns[i] < tns[j] })
	return tns, nil
}

// cleanOldSnapshots removes every snapshot strictly older than the
// keepSnapshots most recent ones, including the one just promoted.
func (m *Manager) cleanOldSnapshots(justPromoted uint64) error {
	tns, err := m.listSnapshotNumbers()
	if err != nil {
		return err
	}
	if len(tns) <= keepSnapshots {
		return nil
	}
	toRemove := tns[:len(tns)-keepSnapshots]
	for _, tn := range toRemove {
		if err := os.RemoveAll(m.snapshotDir(tn)); err != nil {
			return fmt.Errorf("snapshot: removing stale snapshot %d: %w", tn, err)
		}
	}
	return nil
}

func saveRegistry(path string, reg *types.TypeRegistry) error {
	data, err := bson.Marshal(bson.M{"entries": reg.Snapshot()})
	if err != nil {
		return fmt.Errorf("snapshot: marshaling registry: %w", err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func loadRegistry(path string) (*types.TypeRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc struct {
		Entries []types.NamedType `bson:"entries"`
	}
	if err := bson.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("snapshot: unmarshaling registry: %w", err)
	}
	return types.RestoreRegistry(doc.Entries), nil
}

// fsyncDir fsyncs a directory's own inode so the file and subdirectory
// creations inside it survive a crash, not just the file contents
// themselves. A no-op error from opening the directory for read is ignored
// on platforms where directory fsync isn't meaningful.
func fsyncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer d.Close()
	if err := d.Sync(); err != nil && !os.IsPermission(err) {
		return fmt.Errorf("snapshot: fsyncing %s: %w", dir, err)
	}
	return nil
}
