package storage

import (
	"sync/atomic"
)

// TxTracker hands out monotonically increasing transaction numbers. A
// statement's transaction number is assigned exactly once, under the
// WAL's own append mutex (see pkg/wal.Writer.Append); this tracker exists
// so pkg/dbms can also read "the last number assigned" outside that path,
// for snapshot naming and replay bookkeeping, without taking the WAL's
// lock to do it.
type TxTracker struct {
	current uint64
}

// NewTxTracker starts a tracker at start — typically the transaction
// number recorded in the most recently loaded snapshot, or 0 for a fresh
// database.
func NewTxTracker(start uint64) *TxTracker {
	return &TxTracker{current: start}
}

// Next advances past and returns the next transaction number.
func (t *TxTracker) Next() uint64 {
	return atomic.AddUint64(&t.current, 1)
}

// Current returns the last transaction number assigned.
func (t *TxTracker) Current() uint64 {
	return atomic.LoadUint64(&t.current)
}

// Set overwrites the current transaction number, used during WAL replay
// to catch the tracker up to each entry as it's re-applied.
func (t *TxTracker) Set(val uint64) {
	atomic.StoreUint64(&t.current, val)
}
