package wire

import (
	"encoding/binary"
	"math"

	"github.com/meshchain/node/crypto"
)

// writer accumulates an encoded frame. Encoding is total: writer methods
// never fail.
type writer struct {
	buf []byte
}

func (w *writer) byte(b byte)        { w.buf = append(w.buf, b) }
func (w *writer) bytes(b []byte)     { w.buf = append(w.buf, b...) }
func (w *writer) u16(v uint16)       { w.buf = binary.BigEndian.AppendUint16(w.buf, v) }
func (w *writer) u32(v uint32)       { w.buf = binary.BigEndian.AppendUint32(w.buf, v) }
func (w *writer) u64(v uint64)       { w.buf = binary.BigEndian.AppendUint64(w.buf, v) }
func (w *writer) f64(v float64)      { w.buf = binary.BigEndian.AppendUint64(w.buf, math.Float64bits(v)) }

func (w *writer) taggedHash(h crypto.TaggedHash) { w.bytes(h) }
func (w *writer) taggedKey(k crypto.TaggedKey)   { w.bytes(k) }

// lenPrefixedBytes writes a width-bit length prefix (8, 16, or 32) followed
// by the raw bytes.
func (w *writer) lenPrefixedBytes(width int, b []byte) {
	switch width {
	case 8:
		w.byte(byte(len(b)))
	case 16:
		w.u16(uint16(len(b)))
	case 32:
		w.u32(uint32(len(b)))
	}
	w.bytes(b)
}

// bitVector packs a bit slice (logical order, index 0 first) MSB-first
// into bytes, preceded by an 8-bit bit-length.
func (w *writer) bitVector(bits []bool) {
	w.byte(byte(len(bits)))
	w.bytes(packBits(bits))
}

func packBits(bits []bool) []byte {
	out := make([]byte, (len(bits)+7)/8)
	for i, b := range bits {
		if !b {
			continue
		}
		out[i/8] |= 1 << (7 - uint(i%8))
	}
	return out
}

func unpackBits(data []byte, n int) []bool {
	out := make([]bool, n)
	for i := 0; i < n; i++ {
		out[i] = data[i/8]&(1<<(7-uint(i%8))) != 0
	}
	return out
}

// reader consumes a frame's payload left-to-right, failing with
// IncompleteError when fewer bytes remain than requested.
type reader struct {
	data []byte
	pos  int
}

func newReader(data []byte) *reader { return &reader{data: data} }

func (r *reader) remaining() int { return len(r.data) - r.pos }

func (r *reader) byte() (byte, error) {
	if r.remaining() < 1 {
		return 0, incomplete(1)
	}
	b := r.data[r.pos]
	r.pos++
	return b, nil
}

func (r *reader) take(n int) ([]byte, error) {
	if r.remaining() < n {
		return nil, incomplete(n - r.remaining())
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

func (r *reader) u16() (uint16, error) {
	b, err := r.take(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

func (r *reader) u32() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

func (r *reader) u64() (uint64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b), nil
}

func (r *reader) f64() (float64, error) {
	v, err := r.u64()
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(v), nil
}

func (r *reader) lenPrefixedBytes(width int) ([]byte, error) {
	var n int
	switch width {
	case 8:
		b, err := r.byte()
		if err != nil {
			return nil, err
		}
		n = int(b)
	case 16:
		v, err := r.u16()
		if err != nil {
			return nil, err
		}
		n = int(v)
	case 32:
		v, err := r.u32()
		if err != nil {
			return nil, err
		}
		n = int(v)
	}
	return r.take(n)
}

// taggedHash reads a 1-byte algorithm tag followed by hash_size(tag)
// bytes. Unknown tags fail the whole frame with ErrUnknownAlgorithm.
func (r *reader) taggedHash() (crypto.TaggedHash, error) {
	tag, err := r.byte()
	if err != nil {
		return nil, err
	}
	size, err := crypto.HashSize(tag)
	if err != nil {
		return nil, crypto.ErrUnknownAlgorithm
	}
	payload, err := r.take(size)
	if err != nil {
		return nil, err
	}
	out := make(crypto.TaggedHash, 1+size)
	out[0] = tag
	copy(out[1:], payload)
	return out, nil
}

// taggedKey reads a 1-byte algorithm tag followed by key_size(tag) bytes.
func (r *reader) taggedKey() (crypto.TaggedKey, error) {
	tag, err := r.byte()
	if err != nil {
		return nil, err
	}
	size, err := crypto.KeySize(tag)
	if err != nil {
		return nil, crypto.ErrUnknownAlgorithm
	}
	payload, err := r.take(size)
	if err != nil {
		return nil, err
	}
	out := make(crypto.TaggedKey, 1+size)
	out[0] = tag
	copy(out[1:], payload)
	return out, nil
}

// bitVector reads an 8-bit bit-length followed by ceil(n/8) packed bytes,
// MSB-first, and returns exactly n bool values.
func (r *reader) bitVector() ([]bool, error) {
	n, err := r.byte()
	if err != nil {
		return nil, err
	}
	nbytes := (int(n) + 7) / 8
	data, err := r.take(nbytes)
	if err != nil {
		return nil, err
	}
	return unpackBits(data, int(n)), nil
}
