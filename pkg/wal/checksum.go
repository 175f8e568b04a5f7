package wal

import "hash/crc64"

// isoTable backs a 64-bit checksum, matching the WAL frame's 8-byte
// checksum field width.
var isoTable = crc64.MakeTable(crc64.ISO)

// Checksum computes the checksum written into an entry's EntryEnd.
func Checksum(data []byte) uint64 {
	return crc64.Checksum(data, isoTable)
}

// Validate reports whether data matches an expected checksum read back
// from a frame.
func Validate(data []byte, expected uint64) bool {
	return Checksum(data) == expected
}
