package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"
)

// ErrShortBuffer is returned by Encode when dst is too small to hold the
// serialized message; the caller should grow dst and retry. This is the
// "need more space" signal distinct from a genuine serialization failure.
var ErrShortBuffer = errors.New("wire: destination buffer too small")

// ErrUnexpectedEnd is returned by Decode when buf does not (yet) contain a
// complete frame payload. Decode consumes zero bytes in this case.
var ErrUnexpectedEnd = errors.New("wire: incomplete message")

// ErrMalformed indicates a payload that cannot be decoded at all (an
// unknown variant index, or a frame length prefix above maxFrameLen seen by
// FrameReader). Unknown I/O error kinds are not malformed: they decode as
// Other. It is fatal: callers must poison the transport, matching §4.1's
// decoder contract.
var ErrMalformed = errors.New("wire: malformed payload")

// EncodeFromJvm serializes msg, a FromJvm value, into dst. It returns
// ErrShortBuffer (distinct from a real failure) if dst cannot hold the
// encoded bytes.
func EncodeFromJvm(dst []byte, msg FromJvm) (int, error) {
	var buf bytes.Buffer
	bw := &binWriter{w: &buf}
	writeFromJvm(bw, msg)
	if bw.err != nil {
		return 0, bw.err
	}
	if buf.Len() > len(dst) {
		return 0, ErrShortBuffer
	}
	return copy(dst, buf.Bytes()), nil
}

// DecodeFromJvm decodes one FromJvm value from the front of buf. It
// consumes zero bytes and returns ErrUnexpectedEnd if buf does not contain
// a complete message.
func DecodeFromJvm(buf []byte) (consumed int, msg FromJvm, err error) {
	br := &binReader{r: bytes.NewReader(buf)}
	msg = readFromJvm(br)
	if br.err != nil {
		if br.incomplete {
			return 0, nil, ErrUnexpectedEnd
		}
		return 0, nil, fmt.Errorf("%w: %v", ErrMalformed, br.err)
	}
	return len(buf) - br.r.Len(), msg, nil
}

// EncodeToJvm serializes msg, a ToJvm value, into dst.
func EncodeToJvm(dst []byte, msg ToJvm) (int, error) {
	var buf bytes.Buffer
	bw := &binWriter{w: &buf}
	writeToJvm(bw, msg)
	if bw.err != nil {
		return 0, bw.err
	}
	if buf.Len() > len(dst) {
		return 0, ErrShortBuffer
	}
	return copy(dst, buf.Bytes()), nil
}

// DecodeToJvm decodes one ToJvm value from the front of buf.
func DecodeToJvm(buf []byte) (consumed int, msg ToJvm, err error) {
	br := &binReader{r: bytes.NewReader(buf)}
	msg = readToJvm(br)
	if br.err != nil {
		if br.incomplete {
			return 0, nil, ErrUnexpectedEnd
		}
		return 0, nil, fmt.Errorf("%w: %v", ErrMalformed, br.err)
	}
	return len(buf) - br.r.Len(), msg, nil
}

// --- low level binary writer/reader -----------------------------------

type binWriter struct {
	w   *bytes.Buffer
	err error
}

func (b *binWriter) u32(v uint32) {
	if b.err != nil {
		return
	}
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	b.w.Write(tmp[:])
}

func (b *binWriter) u64(v uint64) {
	if b.err != nil {
		return
	}
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], v)
	b.w.Write(tmp[:])
}

func (b *binWriter) byte(v byte) {
	if b.err != nil {
		return
	}
	b.w.WriteByte(v)
}

func (b *binWriter) bytesRaw(v []byte) {
	if b.err != nil {
		return
	}
	b.u64(uint64(len(v)))
	b.w.Write(v)
}

func (b *binWriter) str(v string) {
	b.bytesRaw([]byte(v))
}

func (b *binWriter) boolTag(v bool) {
	if v {
		b.byte(1)
	} else {
		b.byte(0)
	}
}

func (b *binWriter) variant(v uint32) {
	b.u32(v)
}

func (b *binWriter) duration(d time.Duration) {
	secs := uint64(d / time.Second)
	nanos := uint32(d % time.Second)
	b.u64(secs)
	b.u32(nanos)
}

func (b *binWriter) ioError(e *IoError) {
	b.u32(uint32(e.Kind))
	b.str(e.Message)
}

type binReader struct {
	r          *bytes.Reader
	err        error
	incomplete bool
}

func (b *binReader) fail(err error) {
	if b.err == nil {
		b.err = err
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			b.incomplete = true
		}
	}
}

func (b *binReader) u32() uint32 {
	if b.err != nil {
		return 0
	}
	var tmp [4]byte
	if _, err := io.ReadFull(b.r, tmp[:]); err != nil {
		b.fail(err)
		return 0
	}
	return binary.LittleEndian.Uint32(tmp[:])
}

func (b *binReader) u64() uint64 {
	if b.err != nil {
		return 0
	}
	var tmp [8]byte
	if _, err := io.ReadFull(b.r, tmp[:]); err != nil {
		b.fail(err)
		return 0
	}
	return binary.LittleEndian.Uint64(tmp[:])
}

func (b *binReader) byte() byte {
	if b.err != nil {
		return 0
	}
	v, err := b.r.ReadByte()
	if err != nil {
		b.fail(err)
		return 0
	}
	return v
}

func (b *binReader) bytesRaw() []byte {
	if b.err != nil {
		return nil
	}
	n := b.u64()
	if b.err != nil {
		return nil
	}
	if n > uint64(b.r.Len()) {
		b.fail(io.ErrUnexpectedEOF)
		return nil
	}
	out := make([]byte, n)
	if _, err := io.ReadFull(b.r, out); err != nil {
		b.fail(err)
		return nil
	}
	return out
}

func (b *binReader) str() string {
	return string(b.bytesRaw())
}

func (b *binReader) boolTag() bool {
	return b.byte() != 0
}

func (b *binReader) variant() uint32 {
	return b.u32()
}

func (b *binReader) duration() time.Duration {
	secs := b.u64()
	nanos := b.u32()
	return time.Duration(secs)*time.Second + time.Duration(nanos)
}

func (b *binReader) ioError() *IoError {
	kind := ErrorKind(b.u32())
	if kind >= errKindCount {
		kind = ErrOther
	}
	msg := b.str()
	if b.err != nil {
		return nil
	}
	return &IoError{Kind: kind, Message: msg}
}
