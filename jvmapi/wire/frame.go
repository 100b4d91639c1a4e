package wire

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"sync"

	singbufio "github.com/sagernet/sing/common/bufio"
)

// maxFrameLen bounds a single frame's payload so a corrupt or hostile length
// prefix can't make FrameReader try to allocate gigabytes before the
// malformed-payload error even has a chance to surface.
const maxFrameLen = 64 << 20

// FrameWriter serializes FromJvm/ToJvm messages as length-prefixed frames:
// a 4-byte little-endian payload length, then the payload. Safe for
// concurrent use by multiple goroutines; writes are serialized under an
// internal lock so frames are never interleaved, mirroring the single
// sendLoop a Session funnels writes through.
type FrameWriter struct {
	mu sync.Mutex
	w  io.Writer

	// writeVectorised, when non-nil, writes the header and payload as two
	// buffers in one syscall, the way smux's sendLoop does via the same
	// sing/common/bufio helper, when the underlying writer exposes
	// vectorised I/O (e.g. it wraps a *net.TCPConn). It's nil when the
	// writer doesn't, and writeFrame falls back to two plain writes.
	writeVectorised func(vec [][]byte) (int, error)
	vec             [][]byte
}

// NewFrameWriter wraps w.
func NewFrameWriter(w io.Writer) *FrameWriter {
	fw := &FrameWriter{w: w}
	if vw, ok := singbufio.CreateVectorisedWriter(w); ok {
		fw.vec = make([][]byte, 2)
		fw.writeVectorised = func(vec [][]byte) (int, error) {
			return singbufio.WriteVectorised(vw, vec)
		}
	}
	return fw
}

// WriteFromJvm encodes and writes msg as one frame.
func (fw *FrameWriter) WriteFromJvm(msg FromJvm) error {
	return fw.writeFrame(func(dst []byte) (int, error) { return EncodeFromJvm(dst, msg) })
}

// WriteToJvm encodes and writes msg as one frame.
func (fw *FrameWriter) WriteToJvm(msg ToJvm) error {
	return fw.writeFrame(func(dst []byte) (int, error) { return EncodeToJvm(dst, msg) })
}

func (fw *FrameWriter) writeFrame(encode func(dst []byte) (int, error)) error {
	scratch := make([]byte, 4096)

	n, err := encode(scratch)
	for err == ErrShortBuffer {
		scratch = make([]byte, len(scratch)*2)
		n, err = encode(scratch)
	}
	if err != nil {
		return fmt.Errorf("wire: encode frame: %w", err)
	}

	var header [4]byte
	binary.LittleEndian.PutUint32(header[:], uint32(n))

	fw.mu.Lock()
	defer fw.mu.Unlock()

	if fw.writeVectorised != nil {
		fw.vec[0] = header[:]
		fw.vec[1] = scratch[:n]
		_, err = fw.writeVectorised(fw.vec)
		return err
	}

	if _, err := fw.w.Write(header[:]); err != nil {
		return err
	}
	_, err = fw.w.Write(scratch[:n])
	return err
}

// FrameReader reads length-prefixed frames off r and decodes them. Not safe
// for concurrent use; each dispatcher reads frames from exactly one
// goroutine, same as smux's recvLoop.
type FrameReader struct {
	r   *bufio.Reader
	buf []byte
}

// NewFrameReader wraps r.
func NewFrameReader(r io.Reader) *FrameReader {
	return &FrameReader{r: bufio.NewReader(r)}
}

// ReadToJvm reads and decodes the next frame as a ToJvm message.
func (fr *FrameReader) ReadToJvm() (ToJvm, error) {
	payload, err := fr.readFrame()
	if err != nil {
		return nil, err
	}
	_, msg, err := DecodeToJvm(payload)
	if err != nil {
		return nil, fmt.Errorf("wire: decode frame: %w", err)
	}
	return msg, nil
}

// ReadFromJvm reads and decodes the next frame as a FromJvm message.
func (fr *FrameReader) ReadFromJvm() (FromJvm, error) {
	payload, err := fr.readFrame()
	if err != nil {
		return nil, err
	}
	_, msg, err := DecodeFromJvm(payload)
	if err != nil {
		return nil, fmt.Errorf("wire: decode frame: %w", err)
	}
	return msg, nil
}

func (fr *FrameReader) readFrame() ([]byte, error) {
	var header [4]byte
	if _, err := io.ReadFull(fr.r, header[:]); err != nil {
		return nil, err
	}
	n := binary.LittleEndian.Uint32(header[:])
	if n > maxFrameLen {
		return nil, fmt.Errorf("%w: frame length %d exceeds %d", ErrMalformed, n, maxFrameLen)
	}
	if cap(fr.buf) < int(n) {
		fr.buf = make([]byte, n)
	}
	payload := fr.buf[:n]
	if _, err := io.ReadFull(fr.r, payload); err != nil {
		return nil, err
	}
	return payload, nil
}
