package codec

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// writer accumulates a length-prefixed binary envelope. Every variable-
// length field (byte string, nested sub-message) is preceded by its
// length as a big-endian uint32.
type writer struct {
	buf bytes.Buffer
}

func (w *writer) putUint64(v uint64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	w.buf.Write(b[:])
}

func (w *writer) putInt64(v int64) { w.putUint64(uint64(v)) }

func (w *writer) putUint32(v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	w.buf.Write(b[:])
}

func (w *writer) putBytes(b []byte) {
	w.putUint32(uint32(len(b)))
	w.buf.Write(b)
}

func (w *writer) putByte(b byte) { w.buf.WriteByte(b) }

func (w *writer) bytes() []byte { return w.buf.Bytes() }

// reader consumes the envelope produced by writer, returning
// ErrTruncatedPayload if the buffer runs out before a field is complete.
type reader struct {
	buf []byte
}

func newReader(b []byte) *reader { return &reader{buf: b} }

func (r *reader) need(n int) error {
	if len(r.buf) < n {
		return fmt.Errorf("%w: need %d bytes, have %d", ErrTruncatedPayload, n, len(r.buf))
	}
	return nil
}

func (r *reader) getUint64() (uint64, error) {
	if err := r.need(8); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint64(r.buf[:8])
	r.buf = r.buf[8:]
	return v, nil
}

func (r *reader) getInt64() (int64, error) {
	v, err := r.getUint64()
	return int64(v), err
}

func (r *reader) getUint32() (uint32, error) {
	if err := r.need(4); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint32(r.buf[:4])
	r.buf = r.buf[4:]
	return v, nil
}

func (r *reader) getByte() (byte, error) {
	if err := r.need(1); err != nil {
		return 0, err
	}
	b := r.buf[0]
	r.buf = r.buf[1:]
	return b, nil
}

func (r *reader) getBytes() ([]byte, error) {
	n, err := r.getUint32()
	if err != nil {
		return nil, err
	}
	if err := r.need(int(n)); err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, r.buf[:n])
	r.buf = r.buf[n:]
	return out, nil
}

func (r *reader) done() bool { return len(r.buf) == 0 }
