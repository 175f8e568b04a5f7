package wal

import "testing"

func TestChecksumValidatesExactData(t *testing.T) {
	data := []byte("CREATE TABLE accounts (balance: Integer)")
	sum := Checksum(data)
	if !Validate(data, sum) {
		t.Fatal("Validate should accept the checksum it was computed from")
	}
}

func TestChecksumDetectsMutation(t *testing.T) {
	data := []byte("CREATE TABLE accounts (balance: Integer)")
	sum := Checksum(data)
	mutated := append([]byte(nil), data...)
	mutated[0] ^= 0xFF
	if Validate(mutated, sum) {
		t.Fatal("Validate should reject mutated data")
	}
}
