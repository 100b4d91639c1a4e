package wire

import (
	"errors"
	"time"
)

// errUnknownVariant is reported when a variant index outside the closed set
// below is encountered, or when writeFromJvm/writeToJvm is handed a concrete
// type that implements the marker interface but isn't one of the variants
// declared in types.go (which cannot happen for values constructed through
// this package, but a misbehaving caller could still try).
var errUnknownVariant = errors.New("wire: unknown message variant")

// Variant indices, in declaration order, matching §4.1's sum-type encoding
// (variant index as a little-endian u32, then the variant body in field
// order).
const (
	fromJvmExecResult uint32 = iota
	fromJvmWrite
	fromJvmRead
	fromJvmWaitResult
	fromJvmClose
)

const (
	toJvmExec uint32 = iota
	toJvmWriteResult
	toJvmReadResult
	toJvmWait
	toJvmCloseResult
)

func writeFromJvm(bw *binWriter, msg FromJvm) {
	switch m := msg.(type) {
	case ExecResult:
		bw.variant(fromJvmExecResult)
		bw.u32(m.Tag)
		writeExecOutcome(bw, m.Result)
	case Write:
		bw.variant(fromJvmWrite)
		bw.u32(m.Tag)
		bw.u32(m.Stream)
		bw.bytesRaw(m.Data)
	case Read:
		bw.variant(fromJvmRead)
		bw.u32(m.Tag)
		bw.u32(m.Stream)
		bw.u32(m.Size)
	case WaitResult:
		bw.variant(fromJvmWaitResult)
		bw.u32(m.Tag)
		bw.boolTag(m.Timeout)
	case Close:
		bw.variant(fromJvmClose)
		bw.u32(m.Tag)
		bw.u32(m.Stream)
	default:
		bw.err = errUnknownVariant
	}
}

func readFromJvm(br *binReader) FromJvm {
	switch br.variant() {
	case fromJvmExecResult:
		tag := br.u32()
		result := readExecOutcome(br)
		if br.err != nil {
			return nil
		}
		return ExecResult{Tag: tag, Result: result}
	case fromJvmWrite:
		tag := br.u32()
		stream := br.u32()
		data := br.bytesRaw()
		if br.err != nil {
			return nil
		}
		return Write{Tag: tag, Stream: stream, Data: data}
	case fromJvmRead:
		tag := br.u32()
		stream := br.u32()
		size := br.u32()
		if br.err != nil {
			return nil
		}
		return Read{Tag: tag, Stream: stream, Size: size}
	case fromJvmWaitResult:
		tag := br.u32()
		timeout := br.boolTag()
		if br.err != nil {
			return nil
		}
		return WaitResult{Tag: tag, Timeout: timeout}
	case fromJvmClose:
		tag := br.u32()
		stream := br.u32()
		if br.err != nil {
			return nil
		}
		return Close{Tag: tag, Stream: stream}
	default:
		br.fail(errUnknownVariant)
		return nil
	}
}

func writeToJvm(bw *binWriter, msg ToJvm) {
	switch m := msg.(type) {
	case Exec:
		bw.variant(toJvmExec)
		bw.u32(m.Tag)
		bw.str(m.MainClass)
		bw.u64(uint64(len(m.Params)))
		for _, p := range m.Params {
			bw.str(p)
		}
		writeOptionStreamID(bw, m.Stdout)
		writeOptionStreamID(bw, m.Stderr)
		writeOptionStreamID(bw, m.Stdin)
	case WriteResult:
		bw.variant(toJvmWriteResult)
		bw.u32(m.Tag)
		writeIoResultU32(bw, m.Result)
	case ReadResult:
		bw.variant(toJvmReadResult)
		bw.u32(m.Tag)
		writeIoResultBytes(bw, m.Result)
	case Wait:
		bw.variant(toJvmWait)
		bw.u32(m.Tag)
		bw.u32(m.Task)
		writeOptionDuration(bw, m.Timeout)
	case CloseResult:
		bw.variant(toJvmCloseResult)
		bw.u32(m.Tag)
		writeIoResultUnit(bw, m.Result)
	default:
		bw.err = errUnknownVariant
	}
}

func readToJvm(br *binReader) ToJvm {
	switch br.variant() {
	case toJvmExec:
		tag := br.u32()
		mainClass := br.str()
		n := br.u64()
		params := make([]string, 0, n)
		for i := uint64(0); i < n && br.err == nil; i++ {
			params = append(params, br.str())
		}
		stdout := readOptionStreamID(br)
		stderr := readOptionStreamID(br)
		stdin := readOptionStreamID(br)
		if br.err != nil {
			return nil
		}
		return Exec{Tag: tag, MainClass: mainClass, Params: params, Stdout: stdout, Stderr: stderr, Stdin: stdin}
	case toJvmWriteResult:
		tag := br.u32()
		result := readIoResultU32(br)
		if br.err != nil {
			return nil
		}
		return WriteResult{Tag: tag, Result: result}
	case toJvmReadResult:
		tag := br.u32()
		result := readIoResultBytes(br)
		if br.err != nil {
			return nil
		}
		return ReadResult{Tag: tag, Result: result}
	case toJvmWait:
		tag := br.u32()
		task := br.u32()
		timeout := readOptionDuration(br)
		if br.err != nil {
			return nil
		}
		return Wait{Tag: tag, Task: task, Timeout: timeout}
	case toJvmCloseResult:
		tag := br.u32()
		result := readIoResultUnit(br)
		if br.err != nil {
			return nil
		}
		return CloseResult{Tag: tag, Result: result}
	default:
		br.fail(errUnknownVariant)
		return nil
	}
}

func writeExecOutcome(bw *binWriter, o ExecOutcome) {
	if o.Err == nil {
		bw.byte(0)
		bw.u32(o.TaskInfo.TaskID)
		return
	}
	bw.byte(1)
	bw.u32(uint32(o.Err.Kind))
	bw.str(o.Err.Message)
}

func readExecOutcome(br *binReader) ExecOutcome {
	tag := br.byte()
	if br.err != nil {
		return ExecOutcome{}
	}
	if tag == 0 {
		return ExecOutcome{TaskInfo: &TaskInfo{TaskID: br.u32()}}
	}
	kind := ExecErrorKind(br.u32())
	msg := br.str()
	if br.err != nil {
		return ExecOutcome{}
	}
	return ExecOutcome{Err: &ExecError{Kind: kind, Message: msg}}
}

func writeOptionStreamID(bw *binWriter, v *StreamID) {
	if v == nil {
		bw.byte(0)
		return
	}
	bw.byte(1)
	bw.u32(*v)
}

func readOptionStreamID(br *binReader) *StreamID {
	present := br.boolTag()
	if br.err != nil || !present {
		return nil
	}
	v := br.u32()
	if br.err != nil {
		return nil
	}
	return &v
}

func writeOptionDuration(bw *binWriter, v *time.Duration) {
	if v == nil {
		bw.byte(0)
		return
	}
	bw.byte(1)
	bw.duration(*v)
}

func readOptionDuration(br *binReader) *time.Duration {
	present := br.boolTag()
	if br.err != nil || !present {
		return nil
	}
	v := br.duration()
	if br.err != nil {
		return nil
	}
	return &v
}

func writeIoResultU32(bw *binWriter, r IoResult[uint32]) {
	if r.Err == nil {
		bw.byte(0)
		bw.u32(r.Value)
		return
	}
	bw.byte(1)
	bw.ioError(r.Err)
}

func readIoResultU32(br *binReader) IoResult[uint32] {
	tag := br.byte()
	if br.err != nil {
		return IoResult[uint32]{}
	}
	if tag == 0 {
		return IoResult[uint32]{Value: br.u32()}
	}
	return IoResult[uint32]{Err: br.ioError()}
}

func writeIoResultBytes(bw *binWriter, r IoResult[[]byte]) {
	if r.Err == nil {
		bw.byte(0)
		bw.bytesRaw(r.Value)
		return
	}
	bw.byte(1)
	bw.ioError(r.Err)
}

func readIoResultBytes(br *binReader) IoResult[[]byte] {
	tag := br.byte()
	if br.err != nil {
		return IoResult[[]byte]{}
	}
	if tag == 0 {
		return IoResult[[]byte]{Value: br.bytesRaw()}
	}
	return IoResult[[]byte]{Err: br.ioError()}
}

func writeIoResultUnit(bw *binWriter, r IoResult[struct{}]) {
	if r.Err == nil {
		bw.byte(0)
		return
	}
	bw.byte(1)
	bw.ioError(r.Err)
}

func readIoResultUnit(br *binReader) IoResult[struct{}] {
	tag := br.byte()
	if br.err != nil {
		return IoResult[struct{}]{}
	}
	if tag == 0 {
		return IoResult[struct{}]{}
	}
	return IoResult[struct{}]{Err: br.ioError()}
}
