package snapshot

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/bobboyms/algebraicdb/pkg/storage"
	"github.com/bobboyms/algebraicdb/pkg/types"
)

const (
	tableMagic   = 0x5442_4c46 // "TBLF"
	tableVersion = 1
)

// writeTableFile serializes a table's schema and row bytes to w: magic,
// version, name, column definitions, then the raw row buffer. Row bytes are
// written verbatim since storage.NewSchema recomputes offsets from the
// column list on load, the same way the registry's Snapshot/RestoreRegistry
// pair round-trips type ids by replaying insertion order instead of storing
// them.
func writeTableFile(w io.Writer, t *storage.Table) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(tableMagic)); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint16(tableVersion)); err != nil {
		return err
	}
	if err := writeString(w, t.Name); err != nil {
		return err
	}

	columns := t.Schema.Columns
	if err := binary.Write(w, binary.LittleEndian, uint32(len(columns))); err != nil {
		return err
	}
	for _, c := range columns {
		if err := writeString(w, c.Name); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, uint32(c.TypeId)); err != nil {
			return err
		}
	}

	if err := binary.Write(w, binary.LittleEndian, uint64(len(t.Data))); err != nil {
		return err
	}
	_, err := w.Write(t.Data)
	return err
}

// readTableFile is writeTableFile's inverse, rebuilding the Table against
// reg so column TypeIds resolve to the same sizes they had when written.
func readTableFile(r io.Reader, reg *types.TypeRegistry) (*storage.Table, error) {
	var magic uint32
	if err := binary.Read(r, binary.LittleEndian, &magic); err != nil {
		return nil, err
	}
	if magic != tableMagic {
		return nil, fmt.Errorf("snapshot: bad table file magic %#x", magic)
	}
	var version uint16
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return nil, err
	}
	if version != tableVersion {
		return nil, fmt.Errorf("snapshot: unsupported table file version %d", version)
	}

	name, err := readString(r)
	if err != nil {
		return nil, err
	}

	var columnCount uint32
	if err := binary.Read(r, binary.LittleEndian, &columnCount); err != nil {
		return nil, err
	}
	columns := make([]storage.Column, columnCount)
	for i := range columns {
		colName, err := readString(r)
		if err != nil {
			return nil, err
		}
		var typeId uint32
		if err := binary.Read(r, binary.LittleEndian, &typeId); err != nil {
			return nil, err
		}
		columns[i] = storage.Column{Name: colName, TypeId: types.TypeId(typeId)}
	}

	var dataLen uint64
	if err := binary.Read(r, binary.LittleEndian, &dataLen); err != nil {
		return nil, err
	}
	data := make([]byte, dataLen)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, err
	}

	schema := storage.NewSchema(columns, reg)
	table := storage.NewTable(name, schema)
	table.Data = data
	return table, nil
}

func writeString(w io.Writer, s string) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

func readString(r io.Reader) (string, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

// saveTableFile writes a table to a fresh file at path, fsyncing before
// close so a promoted snapshot directory never contains a half-written
// table.
func saveTableFile(path string, t *storage.Table) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	if err := writeTableFile(f, t); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func loadTableFile(path string, reg *types.TypeRegistry) (*storage.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return readTableFile(f, reg)
}
