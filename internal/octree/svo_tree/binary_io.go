package svo_tree

import (
	"encoding/binary"
	"math"
)

// storer appends little-endian fixed width values to a growing byte slice
type storer struct {
	buf []byte
}

func (s *storer) storeU8(v uint8) {
	s.buf = append(s.buf, v)
}

func (s *storer) storeU32(v uint32) {
	s.buf = binary.LittleEndian.AppendUint32(s.buf, v)
}

func (s *storer) storeF32(v float32) {
	s.storeU32(math.Float32bits(v))
}

func (s *storer) storeArrayU16(values []uint16) {
	for _, v := range values {
		s.buf = binary.LittleEndian.AppendUint16(s.buf, v)
	}
}

// loader reads little-endian fixed width values from a byte slice. The first out of range read
// sets err, after which every read returns zero.
type loader struct {
	bytes []byte
	pos   int
	err   error
}

func (l *loader) remaining() int {
	return len(l.bytes) - l.pos
}

func (l *loader) take(n int) []byte {
	if l.err != nil {
		return nil
	}
	if n < 0 || n > l.remaining() {
		l.err = ErrTruncated
		return nil
	}
	b := l.bytes[l.pos : l.pos+n]
	l.pos += n
	return b
}

func (l *loader) loadU8() uint8 {
	b := l.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (l *loader) loadU32() uint32 {
	b := l.take(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (l *loader) loadF32() float32 {
	return math.Float32frombits(l.loadU32())
}

func (l *loader) loadArrayU16(n int) []uint16 {
	b := l.take(n * 2)
	if b == nil {
		return nil
	}
	values := make([]uint16, n)
	for i := range values {
		values[i] = binary.LittleEndian.Uint16(b[i*2:])
	}
	return values
}
