package wal

import (
	"io"
	"os"

	"github.com/bobboyms/algebraicdb/pkg/errors"
)

const maxPayloadSize = 1 << 30 // 1GB guard against reading garbage as a length

// Reader reads framed entries from a WAL file sequentially.
type Reader struct {
	file   *os.File
	offset int64
}

// NewReader opens a reader over an existing log file.
func NewReader(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return &Reader{file: f}, nil
}

// ReadEntry reads the next entry, returning (nil, nil) at a clean
// end-of-file (no partial frame pending), or a *errors.WalCorruptionError
// if the file ends mid-frame or a checksum doesn't match. Either signals
// the log is unusable past this point; at startup, both are fatal, since
// there is no way to tell how much of a corrupted tail is trustworthy.
func (r *Reader) ReadEntry() (*Entry, error) {
	var beginBuf [beginSize]byte
	n, err := io.ReadFull(r.file, beginBuf[:])
	if err == io.EOF && n == 0 {
		return nil, nil
	}
	if err != nil {
		return nil, &errors.WalCorruptionError{Offset: r.offset, Reason: "truncated entry header"}
	}

	begin := decodeBegin(beginBuf[:])
	if begin.PayloadSize > maxPayloadSize {
		return nil, &errors.WalCorruptionError{Offset: r.offset, Reason: "implausible payload size"}
	}

	payloadBuf := acquireBuffer()
	defer releaseBuffer(payloadBuf)
	if uint64(cap(*payloadBuf)) < begin.PayloadSize {
		*payloadBuf = make([]byte, begin.PayloadSize)
	} else {
		*payloadBuf = (*payloadBuf)[:begin.PayloadSize]
	}

	if _, err := io.ReadFull(r.file, *payloadBuf); err != nil {
		return nil, &errors.WalCorruptionError{Offset: r.offset, Reason: "truncated payload"}
	}

	var endBuf [endSize]byte
	if _, err := io.ReadFull(r.file, endBuf[:]); err != nil {
		return nil, &errors.WalCorruptionError{Offset: r.offset, Reason: "truncated entry trailer"}
	}
	end := decodeEnd(endBuf[:])

	checksumArea := make([]byte, 0, beginSize+len(*payloadBuf))
	checksumArea = append(checksumArea, beginBuf[:]...)
	checksumArea = append(checksumArea, *payloadBuf...)
	if !Validate(checksumArea, end.Checksum) {
		return nil, &errors.WalCorruptionError{Offset: r.offset, Reason: "checksum mismatch"}
	}

	r.offset += int64(beginSize) + int64(begin.PayloadSize) + int64(endSize)
	return &Entry{TransactionNumber: begin.TransactionNumber, Statement: string(*payloadBuf)}, nil
}

// Close closes the underlying file.
func (r *Reader) Close() error {
	return r.file.Close()
}
