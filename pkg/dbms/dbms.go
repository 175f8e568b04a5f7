// Package dbms ties together the type registry, the table directory, the
// write-ahead log, and periodic snapshotting into the single entry point a
// session hands parsed statements to. It owns the two locks every
// statement's resource set is built against: the type registry's coarse
// Read/Write gate (separate from types.TypeRegistry's own internal mutex,
// which still protects direct Insert/GetId calls made outside this
// package) and the table directory's create/drop mutex embedded in
// storage.TableSet.
package dbms

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bobboyms/algebraicdb/pkg/ast"
	"github.com/bobboyms/algebraicdb/pkg/executor"
	"github.com/bobboyms/algebraicdb/pkg/parser"
	"github.com/bobboyms/algebraicdb/pkg/resource"
	"github.com/bobboyms/algebraicdb/pkg/snapshot"
	"github.com/bobboyms/algebraicdb/pkg/storage"
	"github.com/bobboyms/algebraicdb/pkg/typecheck"
	"github.com/bobboyms/algebraicdb/pkg/types"
	"github.com/bobboyms/algebraicdb/pkg/wal"
)

// Options configures a DB. A zero-value DataDir (or Persistent=false)
// means run in memory only: no WAL, no snapshots, nothing survives
// process exit.
type Options struct {
	DataDir          string
	Persistent       bool
	WalOptions       wal.Options
	SnapshotInterval time.Duration // 0 disables periodic snapshotting
	WalTruncateAt    uint64        // WAL is only truncated once it reaches this many bytes; 0 means always
}

// DB is one running database: its in-memory state, plus (when persistent)
// the durability machinery backing it.
type DB struct {
	typeMapLock sync.RWMutex
	registry    *types.TypeRegistry
	tables      *storage.TableSet

	persistent    bool
	walDir        string
	walTruncateAt uint64
	w             *wal.Writer
	snapshots     *snapshot.Manager
	currentTn     *storage.TxTracker

	stopSnapshotter chan struct{}
	snapshotterDone chan struct{}
}

// Open starts a DB, recovering from the last snapshot plus whatever WAL
// entries were appended after it, if opts.Persistent.
func Open(opts Options) (*DB, error) {
	if !opts.Persistent || opts.DataDir == "" {
		return &DB{
			registry:   types.NewTypeRegistry(),
			tables:     storage.NewTableSet(),
			persistent: false,
		}, nil
	}

	if err := os.MkdirAll(opts.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("dbms: creating data dir: %w", err)
	}

	snaps := snapshot.NewManager(filepath.Join(opts.DataDir, "snapshots"))
	tn, reg, tables, err := snaps.Load()
	if err != nil {
		return nil, fmt.Errorf("dbms: loading snapshot: %w", err)
	}

	walOpts := opts.WalOptions
	walOpts.DirPath = opts.DataDir
	if walOpts.BufferSize == 0 {
		walOpts = wal.DefaultOptions(opts.DataDir)
		walOpts.FlushInterval = opts.WalOptions.FlushInterval
	}

	db := &DB{
		registry:        reg,
		tables:          tables,
		persistent:      true,
		walDir:          opts.DataDir,
		walTruncateAt:   opts.WalTruncateAt,
		snapshots:       snaps,
		currentTn:       storage.NewTxTracker(tn),
		stopSnapshotter: make(chan struct{}),
		snapshotterDone: make(chan struct{}),
	}

	if err := db.replay(tn); err != nil {
		return nil, fmt.Errorf("dbms: replaying wal: %w", err)
	}

	w, err := wal.NewWriter(walOpts, db.currentTn.Current())
	if err != nil {
		return nil, fmt.Errorf("dbms: opening wal: %w", err)
	}
	db.w = w

	if opts.SnapshotInterval > 0 {
		go db.runSnapshotter(opts.SnapshotInterval)
	} else {
		close(db.snapshotterDone)
	}

	return db, nil
}

// replay reads every WAL entry with a transaction number greater than
// fromTn and re-executes it, reparsing the statement text rather than
// deserializing an AST — the WAL was never going to outlive the parser
// that wrote it, so there's no format to version.
func (db *DB) replay(fromTn uint64) error {
	path := filepath.Join(db.walDir, wal.FileName)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	r, err := wal.NewReader(path)
	if err != nil {
		return err
	}
	defer r.Close()

	for {
		entry, err := r.ReadEntry()
		if err != nil {
			return err
		}
		if entry == nil {
			return nil
		}
		if entry.TransactionNumber <= fromTn {
			continue
		}
		stmt, err := parser.ParseStmt(entry.Statement)
		if err != nil {
			return err
		}
		if _, err := db.run(stmt, entry.Statement, false); err != nil {
			return err
		}
		db.currentTn.Set(entry.TransactionNumber)
	}
}

// Execute parses and runs a single already-segmented statement.
func (db *DB) Execute(stmtText string) (executor.Result, error) {
	stmt, err := parser.ParseStmt(stmtText)
	if err != nil {
		return executor.Result{}, err
	}
	return db.run(stmt, stmtText, true)
}

// ExecuteStmt runs a statement the caller has already parsed (a session
// parses once, to know whether it's looking at a bare statement or a
// transaction member, so it shouldn't have to parse again here).
func (db *DB) ExecuteStmt(stmt ast.Stmt, stmtText string) (executor.Result, error) {
	return db.run(stmt, stmtText, true)
}

// run acquires stmt's resources, typechecks it, logs it to the WAL if it
// mutates anything and logToWal is set, then executes it. logToWal is
// false only during replay, where re-appending would duplicate entries
// already on disk.
func (db *DB) run(stmt ast.Stmt, stmtText string, logToWal bool) (executor.Result, error) {
	acquire := resource.AnalyzeAcquire(stmt)
	resources, err := db.buildResources(acquire)
	if err != nil {
		return executor.Result{}, err
	}
	guard := resources.TakeOnce()
	defer guard.Release()

	if err := typecheck.Check(stmt, guard); err != nil {
		return executor.Result{}, err
	}

	if logToWal && db.persistent && isMutating(stmt) {
		tn, err := db.w.Append(stmtText)
		if err != nil {
			return executor.Result{}, err
		}
		db.currentTn.Set(tn)
	}

	return executor.Execute(stmt, guard, db.tables)
}

// RunTransaction executes every statement of an explicit BEGIN..END block
// under one resource acquisition covering the union of what each statement
// needs, so no other connection's statements can interleave between them.
func (db *DB) RunTransaction(stmts []ast.Stmt, texts []string) ([]executor.Result, error) {
	acquire := resource.AnalyzeTransactionAcquire(stmts)
	resources, err := db.buildResources(acquire)
	if err != nil {
		return nil, err
	}
	guard := resources.TakeOnce()
	defer guard.Release()

	results := make([]executor.Result, len(stmts))
	for i, stmt := range stmts {
		if err := typecheck.Check(stmt, guard); err != nil {
			return nil, err
		}
		if db.persistent && isMutating(stmt) {
			tn, err := db.w.Append(texts[i])
			if err != nil {
				return nil, err
			}
			db.currentTn.Set(tn)
		}
		res, err := executor.Execute(stmt, guard, db.tables)
		if err != nil {
			return nil, err
		}
		results[i] = res
	}
	return results, nil
}

func (db *DB) buildResources(acquire resource.Acquire) (*resource.Resources[storage.Table], error) {
	entries := make([]resource.TableEntry[storage.Table], 0, len(acquire.TableReqs))
	for _, req := range acquire.TableReqs {
		t, err := db.tables.Get(req.Table)
		if err != nil {
			return nil, err
		}
		entries = append(entries, resource.TableEntry[storage.Table]{Name: req.Table, RW: req.RW, Lock: t, Val: t})
	}
	return resource.NewResources(acquire.TypeMapPerm, &db.typeMapLock, db.registry, entries), nil
}

func isMutating(stmt ast.Stmt) bool {
	return stmt.Insert != nil || stmt.Update != nil || stmt.Delete != nil ||
		stmt.CreateTable != nil || stmt.CreateType != nil || stmt.Drop != nil
}

// runSnapshotter periodically promotes the current in-memory state to a
// new snapshot and truncates the WAL entries it makes redundant.
func (db *DB) runSnapshotter(interval time.Duration) {
	defer close(db.snapshotterDone)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := db.Snapshot(); err != nil {
				fmt.Printf("snapshot failed: %v\n", err)
				continue
			}
		case <-db.stopSnapshotter:
			return
		}
	}
}

// Snapshot promotes the current in-memory state to a new on-disk snapshot
// and truncates the WAL entries it supersedes. Safe to call concurrently
// with statement execution: it only takes each table's read lock and the
// type registry's, one at a time, the same as any read-only statement
// would.
func (db *DB) Snapshot() error {
	if !db.persistent {
		return nil
	}
	tn := db.currentTn.Current()

	db.typeMapLock.RLock()
	err := db.snapshots.Save(tn, db.registry, db.tables)
	db.typeMapLock.RUnlock()
	if err != nil {
		return err
	}

	if !db.walPastTruncateThreshold() {
		return nil
	}
	return db.w.Truncate(tn)
}

// walPastTruncateThreshold reports whether the WAL file has grown past the
// configured size before it's worth rewriting — truncation only pays for
// itself once the file is big enough that replay-on-restart would
// otherwise take a while.
func (db *DB) walPastTruncateThreshold() bool {
	if db.walTruncateAt == 0 {
		return true
	}
	info, err := os.Stat(filepath.Join(db.walDir, wal.FileName))
	if err != nil {
		return false
	}
	return uint64(info.Size()) >= db.walTruncateAt
}

// Close stops the background snapshotter and closes the WAL.
func (db *DB) Close() error {
	if !db.persistent {
		return nil
	}
	close(db.stopSnapshotter)
	<-db.snapshotterDone
	return db.w.Close()
}

// TypeRegistry exposes the registry for read-only inspection outside a
// statement's own resource acquisition, e.g. rendering \dt-style metadata
// commands a session might support.
func (db *DB) TypeRegistry() *types.TypeRegistry { return db.registry }

// Tables exposes the table directory the same way.
func (db *DB) Tables() *storage.TableSet { return db.tables }
