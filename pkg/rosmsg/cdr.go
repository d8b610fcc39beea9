package rosmsg

import (
	"encoding/binary"
	"fmt"
)

// Encapsulation identifiers from the CDR header.
const (
	encapsulationCDRBE  = 0x00
	encapsulationCDRLE  = 0x01
	encapsulationCDR2BE = 0x06
	encapsulationCDR2LE = 0x07
)

const cdrHeaderSize = 4

// cdrReader reads primitives from a CDR-encoded buffer.
// Alignment is relative to the end of the 4-byte encapsulation header.
type cdrReader struct {
	buf   []byte
	pos   int
	order binary.ByteOrder
}

func newCDRReader(data []byte) (*cdrReader, error) {
	if len(data) < cdrHeaderSize {
		return nil, fmt.Errorf("%w: %d bytes is shorter than the CDR header", ErrTruncated, len(data))
	}
	r := &cdrReader{buf: data, pos: cdrHeaderSize}
	switch data[1] {
	case encapsulationCDRLE, encapsulationCDR2LE:
		r.order = binary.LittleEndian
	case encapsulationCDRBE, encapsulationCDR2BE:
		r.order = binary.BigEndian
	default:
		return nil, fmt.Errorf("unsupported CDR encapsulation 0x%02x%02x", data[0], data[1])
	}
	return r, nil
}

func (r *cdrReader) align(n int) {
	if rem := (r.pos - cdrHeaderSize) % n; rem != 0 {
		r.pos += n - rem
	}
}

func (r *cdrReader) need(n int) error {
	if r.pos+n > len(r.buf) {
		return fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrTruncated, n, r.pos, len(r.buf))
	}
	return nil
}

func (r *cdrReader) uint8() (uint8, error) {
	if err := r.need(1); err != nil {
		return 0, err
	}
	v := r.buf[r.pos]
	r.pos++
	return v, nil
}

func (r *cdrReader) uint32() (uint32, error) {
	r.align(4)
	if err := r.need(4); err != nil {
		return 0, err
	}
	v := r.order.Uint32(r.buf[r.pos:])
	r.pos += 4
	return v, nil
}

func (r *cdrReader) int32() (int32, error) {
	v, err := r.uint32()
	return int32(v), err
}

// string reads a length-prefixed string. The length includes the
// terminating NUL.
func (r *cdrReader) string() (string, error) {
	n, err := r.uint32()
	if err != nil {
		return "", err
	}
	if n == 0 {
		return "", nil
	}
	if err := r.need(int(n)); err != nil {
		return "", err
	}
	s := r.buf[r.pos : r.pos+int(n)]
	r.pos += int(n)
	if s[len(s)-1] == 0 {
		s = s[:len(s)-1]
	}
	return string(s), nil
}

// bytes reads a uint8 sequence without copying.
func (r *cdrReader) bytes() ([]byte, error) {
	n, err := r.uint32()
	if err != nil {
		return nil, err
	}
	if err := r.need(int(n)); err != nil {
		return nil, err
	}
	b := r.buf[r.pos : r.pos+int(n)]
	r.pos += int(n)
	return b, nil
}

func (r *cdrReader) time() (Time, error) {
	sec, err := r.int32()
	if err != nil {
		return Time{}, err
	}
	nsec, err := r.uint32()
	if err != nil {
		return Time{}, err
	}
	return Time{Sec: sec, Nanosec: nsec}, nil
}

// cdrWriter builds little-endian CDR buffers.
type cdrWriter struct {
	buf []byte
}

func newCDRWriter() *cdrWriter {
	return &cdrWriter{buf: []byte{0x00, encapsulationCDRLE, 0x00, 0x00}}
}

func (w *cdrWriter) align(n int) {
	for (len(w.buf)-cdrHeaderSize)%n != 0 {
		w.buf = append(w.buf, 0)
	}
}

func (w *cdrWriter) uint8(v uint8) {
	w.buf = append(w.buf, v)
}

func (w *cdrWriter) uint32(v uint32) {
	w.align(4)
	w.buf = binary.LittleEndian.AppendUint32(w.buf, v)
}

func (w *cdrWriter) string(s string) {
	w.uint32(uint32(len(s) + 1))
	w.buf = append(w.buf, s...)
	w.buf = append(w.buf, 0)
}

func (w *cdrWriter) bytes(b []byte) {
	w.uint32(uint32(len(b)))
	w.buf = append(w.buf, b...)
}

func (w *cdrWriter) time(t Time) {
	w.uint32(uint32(t.Sec))
	w.uint32(t.Nanosec)
}
