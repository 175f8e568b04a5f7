// Package wal implements the write-ahead log: every committed statement is
// framed, checksummed, and appended before its effects are applied, so a
// crash can always be recovered from by replaying the log against the
// last snapshot. The frame layout and the "checksum covers everything but
// itself" rule carry over unchanged from the system this was distilled
// from; the checksum algorithm and payload encoding differ, since this is
// Go rather than Rust.
package wal

import (
	"encoding/binary"
	"io"
)

// beginSize is the encoded width of EntryBegin: two uint64 fields.
const beginSize = 16

// endSize is the encoded width of EntryEnd: one uint64 checksum field.
const endSize = 8

// EntryBegin opens a framed WAL record.
type EntryBegin struct {
	TransactionNumber uint64
	PayloadSize       uint64
}

func (h EntryBegin) encode(buf []byte) {
	binary.LittleEndian.PutUint64(buf[0:8], h.TransactionNumber)
	binary.LittleEndian.PutUint64(buf[8:16], h.PayloadSize)
}

func decodeBegin(buf []byte) EntryBegin {
	return EntryBegin{
		TransactionNumber: binary.LittleEndian.Uint64(buf[0:8]),
		PayloadSize:       binary.LittleEndian.Uint64(buf[8:16]),
	}
}

// EntryEnd closes a framed WAL record with a checksum taken over
// EntryBegin||Payload — not including EntryEnd itself, since the checksum
// obviously can't cover its own bytes.
type EntryEnd struct {
	Checksum uint64
}

func (e EntryEnd) encode(buf []byte) {
	binary.LittleEndian.PutUint64(buf[0:8], e.Checksum)
}

func decodeEnd(buf []byte) EntryEnd {
	return EntryEnd{Checksum: binary.LittleEndian.Uint64(buf[0:8])}
}

// Entry is one fully-decoded WAL record: the transaction it belongs to and
// the statement text that was executed under it.
type Entry struct {
	TransactionNumber uint64
	Statement         string
}

// WriteTo encodes and writes one entry as EntryBegin || payload || EntryEnd.
func WriteTo(w io.Writer, transactionNumber uint64, statement string) (int64, error) {
	payload := []byte(statement)

	begin := EntryBegin{TransactionNumber: transactionNumber, PayloadSize: uint64(len(payload))}
	var beginBuf [beginSize]byte
	begin.encode(beginBuf[:])

	checksumArea := make([]byte, 0, beginSize+len(payload))
	checksumArea = append(checksumArea, beginBuf[:]...)
	checksumArea = append(checksumArea, payload...)

	end := EntryEnd{Checksum: Checksum(checksumArea)}
	var endBuf [endSize]byte
	end.encode(endBuf[:])

	n1, err := w.Write(checksumArea)
	if err != nil {
		return int64(n1), err
	}
	n2, err := w.Write(endBuf[:])
	return int64(n1 + n2), err
}
