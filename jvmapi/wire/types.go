// Package wire implements the framed, tagged-union wire protocol that the
// host process (this module) and the JVM task dispatcher speak over a pair
// of byte streams: a 4-byte little-endian length prefix followed by the
// serialized payload of one FromJvm or ToJvm message.
package wire

import (
	"io"
	"time"
)

// Tag identifies a single request/response pair. Host->worker and
// worker->host tag spaces are independent monotonic counters; there is no
// shared clock between them.
type Tag = uint32

// StreamID identifies an AnonPipe, unique within one dispatcher session.
type StreamID = uint32

// TaskID identifies a task running inside the dispatcher, opaque to the
// host and assigned by the worker.
type TaskID = uint32

// FromJvm is the message family sent by the worker to the host.
type FromJvm interface {
	fromJvm()
}

// ToJvm is the message family sent by the host to the worker.
type ToJvm interface {
	toJvm()
}

// ExecResult answers an Exec request.
type ExecResult struct {
	Tag    Tag
	Result ExecOutcome
}

func (ExecResult) fromJvm() {}

// ExecOutcome carries either a successful TaskInfo or an ExecError, mirroring
// the wire's Result<TaskInfo, ExecError>.
type ExecOutcome struct {
	TaskInfo *TaskInfo // non-nil iff Err == nil
	Err      *ExecError
}

// TaskInfo is returned by the worker once a task has been launched.
type TaskInfo struct {
	TaskID TaskID
}

// ExecErrorKind enumerates the ExecError wire variants.
type ExecErrorKind uint32

const (
	ExecErrorFailure ExecErrorKind = iota
	ExecErrorInvalidClass
	ExecErrorNoMainFn
)

// ExecError reports why a worker could not execute a requested main class.
type ExecError struct {
	Kind    ExecErrorKind
	Message string
}

func (e *ExecError) Error() string {
	switch e.Kind {
	case ExecErrorInvalidClass:
		return "invalid class: " + e.Message
	case ExecErrorNoMainFn:
		return "no main function: " + e.Message
	default:
		return "exec failure: " + e.Message
	}
}

// Write instructs the host to write Data to Stream.
type Write struct {
	Tag    Tag
	Stream StreamID
	Data   []byte
}

func (Write) fromJvm() {}

// WriteResult answers a Write request.
type WriteResult struct {
	Tag    Tag
	Result IoResult[uint32]
}

func (WriteResult) toJvm() {}

// Read instructs the host to read up to Size bytes from Stream.
type Read struct {
	Tag    Tag
	Stream StreamID
	Size   uint32
}

func (Read) fromJvm() {}

// ReadResult answers a Read request. On success the payload is the prefix
// actually read; it must never exceed the requested Size.
type ReadResult struct {
	Tag    Tag
	Result IoResult[[]byte]
}

func (ReadResult) toJvm() {}

// Wait asks the worker to report when Task exits, or after Timeout elapses
// if set.
type Wait struct {
	Tag     Tag
	Task    TaskID
	Timeout *time.Duration
}

func (Wait) toJvm() {}

// WaitResult answers a Wait request. Timeout true means the timeout expired
// before an exit was observed; it does not imply the task is still running,
// and no exit status is carried (open question, see DESIGN.md).
type WaitResult struct {
	Tag     Tag
	Timeout bool
}

func (WaitResult) fromJvm() {}

// Close instructs the host to close Stream.
type Close struct {
	Tag    Tag
	Stream StreamID
}

func (Close) fromJvm() {}

// CloseResult answers a Close request.
type CloseResult struct {
	Tag    Tag
	Result IoResult[struct{}]
}

func (CloseResult) toJvm() {}

// Exec asks the worker to launch MainClass with Params, wiring the named
// optional stream ids as stdout/stderr/stdin.
type Exec struct {
	Tag       Tag
	MainClass string
	Params    []string
	Stdout    *StreamID
	Stderr    *StreamID
	Stdin     *StreamID
}

func (Exec) toJvm() {}

// IoResult is the wire's Result<Ok, IoError>, specialized per payload type.
type IoResult[T any] struct {
	Value T
	Err   *IoError
}

// Ok builds a successful IoResult.
func Ok[T any](v T) IoResult[T] { return IoResult[T]{Value: v} }

// Err builds a failed IoResult.
func ErrResult[T any](e *IoError) IoResult[T] { return IoResult[T]{Err: e} }

// IsErr reports whether the result carries an error.
func (r IoResult[T]) IsErr() bool { return r.Err != nil }

// ErrorKind is the closed 0..=17 enumeration of io error kinds carried on
// the wire. Unknown kinds decode as Other and Other encodes as 0.
type ErrorKind uint32

const (
	ErrOther ErrorKind = iota
	ErrNotFound
	ErrPermissionDenied
	ErrConnectionRefused
	ErrConnectionReset
	ErrConnectionAborted
	ErrNotConnected
	ErrAddrInUse
	ErrAddrNotAvailable
	ErrBrokenPipe
	ErrAlreadyExists
	ErrWouldBlock
	ErrInvalidInput
	ErrInvalidData
	ErrTimedOut
	ErrWriteZero
	ErrInterrupted
	ErrUnexpectedEof

	errKindCount
)

// IoError is an I/O error as carried on the wire: a closed-set kind plus a
// free-form description.
type IoError struct {
	Kind    ErrorKind
	Message string
}

// NewIoError wraps kind/message into an *IoError.
func NewIoError(kind ErrorKind, message string) *IoError {
	return &IoError{Kind: kind, Message: message}
}

// Other builds an IoError of kind Other, e.g. for "invalid stream id N".
func Other(message string) *IoError {
	return &IoError{Kind: ErrOther, Message: message}
}

func (e *IoError) Error() string {
	return e.Message
}

// FromGoError classifies a standard-library error into the closed wire
// enumeration. Unrecognised errors decode/encode as Other.
func FromGoError(err error) *IoError {
	if err == nil {
		return nil
	}
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return NewIoError(ErrUnexpectedEof, err.Error())
	}
	return NewIoError(ErrOther, err.Error())
}
