package session

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"math"
	"time"
)

const recordFormatVersionCurrent = 1

// lastActivityOffset is the fixed byte offset of the LastActivity field.
// The Redis touch script splices the timestamp in place, so it must stay
// directly after the version byte in every future format version.
const lastActivityOffset = 1

// EncodeRecord serializes a [Record] into the compact binary form stored in
// Redis: version byte, LastActivity as big-endian unix milliseconds, the
// length-prefixed token, then the length-prefixed aux blob.
func EncodeRecord(rec Record) ([]byte, error) {
	if len(rec.Token) > math.MaxUint8 {
		return nil, errors.New("session: token too long")
	}
	if len(rec.Aux) > math.MaxUint16 {
		return nil, errors.New("session: aux blob too large")
	}

	var buf bytes.Buffer
	buf.Grow(1 + 8 + 1 + len(rec.Token) + 2 + len(rec.Aux))

	buf.WriteByte(recordFormatVersionCurrent)

	if err := binary.Write(&buf, binary.BigEndian, rec.LastActivity.UnixMilli()); err != nil {
		return nil, err
	}

	buf.WriteByte(byte(len(rec.Token)))
	buf.WriteString(rec.Token)

	if err := binary.Write(&buf, binary.BigEndian, uint16(len(rec.Aux))); err != nil {
		return nil, err
	}
	buf.Write(rec.Aux)

	return buf.Bytes(), nil
}

// DecodeRecord reverses [EncodeRecord]. Truncated or unversioned input is an
// error; trailing bytes beyond the declared fields are rejected so a
// corrupted blob never half-decodes.
func DecodeRecord(data []byte) (Record, error) {
	var rec Record
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return rec, err
	}
	if version != recordFormatVersionCurrent {
		return rec, errors.New("session: unknown record format version")
	}

	var lastActivityMilli int64
	if err := binary.Read(reader, binary.BigEndian, &lastActivityMilli); err != nil {
		return rec, err
	}
	rec.LastActivity = time.UnixMilli(lastActivityMilli)

	tokenLen, err := reader.ReadByte()
	if err != nil {
		return rec, err
	}
	tok := make([]byte, tokenLen)
	if _, err := io.ReadFull(reader, tok); err != nil {
		return rec, err
	}
	rec.Token = string(tok)

	var auxLen uint16
	if err := binary.Read(reader, binary.BigEndian, &auxLen); err != nil {
		return rec, err
	}
	if auxLen > 0 {
		aux := make([]byte, auxLen)
		if _, err := io.ReadFull(reader, aux); err != nil {
			return rec, err
		}
		rec.Aux = aux
	}

	if reader.Len() != 0 {
		return Record{}, errors.New("session: trailing bytes in record")
	}
	return rec, nil
}
