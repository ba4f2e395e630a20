package storage

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"sort"

	"github.com/klauspost/compress/zstd"
	"github.com/leengari/atomdb/internal/domain/errors"
	"github.com/leengari/atomdb/internal/domain/schema"
)

// ByteOrder is the byte order used for fixed-width snapshot fields
var ByteOrder = binary.LittleEndian

// Magic identifies a binary snapshot (ASCII: "ATOM")
var Magic = [4]byte{'A', 'T', 'O', 'M'}

const (
	// BinaryVersion is the current binary snapshot format version
	BinaryVersion byte = 1

	// FlagZstd marks a zstd-compressed body
	FlagZstd byte = 1 << 0

	headerSize  = 6 // magic + version + flags
	trailerSize = 4 // CRC32 of header and body

	maxDecodedSize = 1 << 30
)

// BinaryCodec writes a compact length-prefixed snapshot.
//
// Layout: magic | version | flags | body | crc32
//
// The body is a uvarint table count followed by, for each table in name
// order: name, column count, columns, row count and rows. A row is its
// id, a field count and key/value pairs in key order. Strings are
// uvarint-length prefixed.
type BinaryCodec struct {
	Compress bool
}

func (c BinaryCodec) Name() string {
	if c.Compress {
		return FormatBinary + "+" + CompressionZstd
	}
	return FormatBinary
}

func (c BinaryCodec) Encode(db *schema.Database) ([]byte, error) {
	body := encodeBody(db)

	var flags byte
	if c.Compress {
		enc, err := zstd.NewWriter(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
		}
		body = enc.EncodeAll(body, nil)
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("failed to close zstd encoder: %w", err)
		}
		flags |= FlagZstd
	}

	out := make([]byte, 0, headerSize+len(body)+trailerSize)
	out = append(out, Magic[:]...)
	out = append(out, BinaryVersion, flags)
	out = append(out, body...)
	out = ByteOrder.AppendUint32(out, crc32.ChecksumIEEE(out))
	return out, nil
}

func (c BinaryCodec) Decode(b []byte) (*schema.Database, error) {
	if len(b) < headerSize+trailerSize {
		return nil, errors.Corrupt("snapshot too short: %d bytes", len(b))
	}

	payload := b[:len(b)-trailerSize]
	expectedCRC := ByteOrder.Uint32(b[len(b)-trailerSize:])
	if actualCRC := crc32.ChecksumIEEE(payload); actualCRC != expectedCRC {
		return nil, errors.Corrupt("CRC mismatch: expected %08x, got %08x", expectedCRC, actualCRC)
	}

	if [4]byte(payload[:4]) != Magic {
		return nil, errors.Corrupt("bad magic %q", payload[:4])
	}
	if v := payload[4]; v != BinaryVersion {
		return nil, errors.Corrupt("unsupported version %d", v)
	}
	flags := payload[5]
	if flags&^FlagZstd != 0 {
		return nil, errors.Corrupt("unknown flags %08b", flags)
	}

	body := payload[headerSize:]
	if flags&FlagZstd != 0 {
		dec, err := zstd.NewReader(nil, zstd.WithDecoderMaxMemory(maxDecodedSize))
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
		}
		defer dec.Close()

		body, err = dec.DecodeAll(body, nil)
		if err != nil {
			return nil, &errors.CorruptDataError{Reason: "zstd body", Err: err}
		}
	}

	tables, err := decodeBody(body)
	if err != nil {
		return nil, err
	}
	return build(tables)
}

func encodeBody(db *schema.Database) []byte {
	var buf []byte
	tables := sortedTables(db)

	buf = binary.AppendUvarint(buf, uint64(len(tables)))
	for _, t := range tables {
		buf = appendString(buf, t.Name)

		buf = binary.AppendUvarint(buf, uint64(len(t.Columns)))
		for _, col := range t.Columns {
			buf = appendString(buf, col)
		}

		buf = binary.AppendUvarint(buf, uint64(len(t.Rows)))
		for id, row := range t.Rows {
			buf = binary.AppendUvarint(buf, uint64(id))

			keys := make([]string, 0, len(row.Data))
			for k := range row.Data {
				keys = append(keys, k)
			}
			sort.Strings(keys)

			buf = binary.AppendUvarint(buf, uint64(len(keys)))
			for _, k := range keys {
				buf = appendString(buf, k)
				buf = appendString(buf, row.Data[k])
			}
		}
	}
	return buf
}

func appendString(buf []byte, s string) []byte {
	buf = binary.AppendUvarint(buf, uint64(len(s)))
	return append(buf, s...)
}

// bodyReader is a cursor over a decoded body
type bodyReader struct {
	buf    []byte
	offset int
}

func (r *bodyReader) uvarint(what string) (uint64, error) {
	v, n := binary.Uvarint(r.buf[r.offset:])
	if n <= 0 {
		return 0, errors.Corrupt("bad varint for %s at offset %d", what, r.offset)
	}
	r.offset += n
	return v, nil
}

// count reads a length that must fit in what remains of the body
func (r *bodyReader) count(what string) (int, error) {
	v, err := r.uvarint(what)
	if err != nil {
		return 0, err
	}
	if v > uint64(len(r.buf)-r.offset) {
		return 0, errors.Corrupt("%s %d exceeds remaining %d bytes at offset %d", what, v, len(r.buf)-r.offset, r.offset)
	}
	return int(v), nil
}

func (r *bodyReader) str(what string) (string, error) {
	n, err := r.count(what + " length")
	if err != nil {
		return "", err
	}
	s := string(r.buf[r.offset : r.offset+n])
	r.offset += n
	return s, nil
}

func decodeBody(body []byte) ([]tableData, error) {
	r := &bodyReader{buf: body}

	tableCount, err := r.count("table count")
	if err != nil {
		return nil, err
	}

	tables := make([]tableData, 0, tableCount)
	for i := 0; i < tableCount; i++ {
		var td tableData
		if td.name, err = r.str("table name"); err != nil {
			return nil, err
		}

		colCount, err := r.count("column count")
		if err != nil {
			return nil, err
		}
		td.columns = make([]string, colCount)
		for c := range td.columns {
			if td.columns[c], err = r.str("column name"); err != nil {
				return nil, err
			}
		}

		rowCount, err := r.count("row count")
		if err != nil {
			return nil, err
		}
		td.rows = make([]rowData, rowCount)
		for j := range td.rows {
			id, err := r.uvarint("row id")
			if err != nil {
				return nil, err
			}
			if id >= uint64(rowCount) {
				return nil, errors.Corrupt("table '%s': row id %d out of range", td.name, id)
			}

			fieldCount, err := r.count("field count")
			if err != nil {
				return nil, err
			}
			fields := make(map[string]string, fieldCount)
			for k := 0; k < fieldCount; k++ {
				key, err := r.str("field name")
				if err != nil {
					return nil, err
				}
				val, err := r.str("field value")
				if err != nil {
					return nil, err
				}
				fields[key] = val
			}
			td.rows[j] = rowData{id: int(id), fields: fields}
		}
		tables = append(tables, td)
	}

	if r.offset != len(body) {
		return nil, errors.Corrupt("%d trailing bytes after body", len(body)-r.offset)
	}
	return tables, nil
}
