// Package codec implements the fixed-order binary layout used for on-chain
// commitments.
//
// Layout (frozen, shared with every reader and writer of commitments):
//   - uint16: 2 bytes, big-endian.
//   - string: 1-byte length prefix followed by that many UTF-8 bytes.
//   - fixed string: exactly n UTF-8 bytes, no prefix.
package codec

import (
	"encoding/binary"
	"fmt"
	"math"
	"unicode/utf8"
)

const (
	uint16Size = 2
	// MaxStringLength is the longest string a 1-byte length prefix can describe.
	MaxStringLength = math.MaxUint8
)

// Encoder appends fields to an in-memory buffer.
type Encoder struct {
	buf []byte
}

// NewEncoder returns an empty Encoder.
func NewEncoder() *Encoder {
	return &Encoder{}
}

// WriteUint16 appends v as two big-endian bytes.
func (e *Encoder) WriteUint16(v uint16) {
	e.buf = binary.BigEndian.AppendUint16(e.buf, v)
}

// WriteString appends a length-prefixed string.
func (e *Encoder) WriteString(s string) error {
	if len(s) > MaxStringLength {
		return fmt.Errorf("%w: %d bytes", ErrStringTooLong, len(s))
	}
	e.buf = append(e.buf, byte(len(s)))
	e.buf = append(e.buf, s...)
	return nil
}

// WriteFixedString appends s without a prefix. s must be exactly n bytes.
func (e *Encoder) WriteFixedString(s string, n int) error {
	if len(s) != n {
		return fmt.Errorf("%w: want %d bytes, got %d", ErrFixedLength, n, len(s))
	}
	e.buf = append(e.buf, s...)
	return nil
}

// Bytes returns the encoded buffer.
func (e *Encoder) Bytes() []byte {
	return e.buf
}

// Decoder reads fields from a buffer in order.
type Decoder struct {
	data []byte
	pos  int
}

// NewDecoder returns a Decoder positioned at the start of data.
func NewDecoder(data []byte) *Decoder {
	return &Decoder{data: data}
}

// ReadUint16 reads two big-endian bytes.
func (d *Decoder) ReadUint16() (uint16, error) {
	b, err := d.take(uint16Size)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

// ReadString reads a length-prefixed string.
func (d *Decoder) ReadString() (string, error) {
	size, err := d.take(1)
	if err != nil {
		return "", err
	}
	return d.ReadFixedString(int(size[0]))
}

// ReadFixedString reads exactly n bytes as a string.
func (d *Decoder) ReadFixedString(n int) (string, error) {
	b, err := d.take(n)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		return "", fmt.Errorf("%w: invalid utf-8 at offset %d", ErrMalformedRecord, d.pos-n)
	}
	return string(b), nil
}

// EOF reports whether the whole buffer has been consumed.
func (d *Decoder) EOF() bool {
	return d.pos >= len(d.data)
}

// Remaining returns the number of unread bytes.
func (d *Decoder) Remaining() int {
	return len(d.data) - d.pos
}

func (d *Decoder) take(n int) ([]byte, error) {
	if n < 0 || d.Remaining() < n {
		return nil, fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrMalformedRecord, n, d.pos, d.Remaining())
	}
	b := d.data[d.pos : d.pos+n]
	d.pos += n
	return b, nil
}
