package dispatch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/origami-build/origami/jvmapi/command"
	"github.com/origami-build/origami/jvmapi/streams"
	"github.com/origami-build/origami/jvmapi/wire"
)

func osStdout() io.Writer { return os.Stdout }
func osStderr() io.Writer { return os.Stderr }
func osStdin() io.Reader  { return os.Stdin }

// Dispatcher is the host side of one dispatcher session: it owns the
// stream registry, the tag counter, and the two callback registries (exec,
// wait) that correlate outbound requests with their eventual response.
// Run must be driving frames off the wire concurrently with any Exec/Wait
// calls, the same way a smux Session's recvLoop runs alongside its public
// OpenStream API.
type Dispatcher struct {
	log *logrus.Entry

	w *wire.FrameWriter
	r *wire.FrameReader

	tag     uint32
	streams *streams.Streams

	exec *CallbackRegistry[wire.ExecResult]
	wait *CallbackRegistry[wire.WaitResult]
}

// New constructs a Dispatcher writing ToJvm frames via w and reading
// FromJvm frames via r. Call Run in its own goroutine before issuing any
// Exec/Wait calls.
func New(w *wire.FrameWriter, r *wire.FrameReader, log *logrus.Entry) *Dispatcher {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Dispatcher{
		log:     log.WithField("subsystem", "dispatch").WithField("session", uuid.NewString()),
		w:       w,
		r:       r,
		streams: streams.NewStreams(),
		exec:    NewCallbackRegistry[wire.ExecResult](),
		wait:    NewCallbackRegistry[wire.WaitResult](),
	}
}

func (d *Dispatcher) nextTag() uint32 {
	return atomic.AddUint32(&d.tag, 1) - 1
}

// Run reads FromJvm frames off the wire until it hits a transport error,
// spawning a goroutine per Write/Read/Close request and fulfilling
// ExecResult/WaitResult callbacks directly. It returns the error that
// ended the loop, after poisoning both callback registries so any
// goroutine blocked on a pending Exec or Wait wakes up instead of hanging
// on a dead transport. Callers run Run in its own goroutine.
func (d *Dispatcher) Run() error {
	for {
		msg, err := d.r.ReadFromJvm()
		if err != nil {
			d.log.WithError(err).Warn("dispatcher transport closed")
			d.exec.Poison(err)
			d.wait.Poison(err)
			return err
		}
		d.handle(msg)
	}
}

func (d *Dispatcher) handle(msg wire.FromJvm) {
	switch m := msg.(type) {
	case wire.ExecResult:
		d.exec.Finish(m.Tag, m)
	case wire.WaitResult:
		d.wait.Finish(m.Tag, m)
	case wire.Write:
		go d.handleWrite(m)
	case wire.Read:
		go d.handleRead(m)
	case wire.Close:
		go d.handleClose(m)
	default:
		d.log.WithField("msg", fmt.Sprintf("%T", m)).Warn("unknown FromJvm variant")
	}
}

func (d *Dispatcher) handleWrite(m wire.Write) {
	n, err := d.writeStream(m.Stream, m.Data)
	result := wire.Ok[uint32](uint32(n))
	if err != nil {
		result = wire.ErrResult[uint32](wire.FromGoError(err))
	}
	if sendErr := d.w.WriteToJvm(wire.WriteResult{Tag: m.Tag, Result: result}); sendErr != nil {
		d.log.WithError(sendErr).Warn("failed to send WriteResult")
	}
}

func (d *Dispatcher) handleRead(m wire.Read) {
	data, err := d.readStream(m.Stream, m.Size)
	result := wire.Ok[[]byte](data)
	if err != nil {
		result = wire.ErrResult[[]byte](wire.FromGoError(err))
	}
	if sendErr := d.w.WriteToJvm(wire.ReadResult{Tag: m.Tag, Result: result}); sendErr != nil {
		d.log.WithError(sendErr).Warn("failed to send ReadResult")
	}
}

func (d *Dispatcher) handleClose(m wire.Close) {
	err := d.closeStream(m.Stream)
	result := wire.Ok[struct{}](struct{}{})
	if err != nil {
		result = wire.ErrResult[struct{}](wire.FromGoError(err))
	}
	if sendErr := d.w.WriteToJvm(wire.CloseResult{Tag: m.Tag, Result: result}); sendErr != nil {
		d.log.WithError(sendErr).Warn("failed to send CloseResult")
	}
}

func (d *Dispatcher) writeStream(id uint32, data []byte) (int, error) {
	p, ok := d.streams.ByID(id)
	if !ok {
		return 0, fmt.Errorf("invalid stream id %d", id)
	}
	return p.Write(data)
}

func (d *Dispatcher) readStream(id uint32, size uint32) ([]byte, error) {
	p, ok := d.streams.ByID(id)
	if !ok {
		return nil, fmt.Errorf("invalid stream id %d", id)
	}
	buf := make([]byte, size)
	n, err := p.Read(buf)
	if err != nil {
		// EOF is a successful zero-length read, not a wire-level I/O
		// error: the pipe already reports end-of-stream the normal Go
		// way, and the wire protocol must not re-wrap that as a failure.
		if errors.Is(err, io.EOF) {
			return buf[:n], nil
		}
		return nil, err
	}
	return buf[:n], nil
}

func (d *Dispatcher) closeStream(id uint32) error {
	p, ok := d.streams.ByID(id)
	if !ok {
		return fmt.Errorf("invalid stream id %d", id)
	}
	return p.Close()
}

// maybeAllocPipe allocates a registry entry for Piped and Inherit stdio (so
// the worker has a valid stream id to address), but only a Piped
// (Normal-backed) pipe is handed back to the caller as something they can
// read/write locally.
func (d *Dispatcher) maybeAllocPipe(stdio command.Stdio, inherit streams.Inherit) *streams.AnonPipe {
	switch stdio {
	case command.StdioPiped:
		return d.streams.Alloc(streams.InheritNone, nil, nil, nil)
	case command.StdioInherit:
		return d.streams.Alloc(inherit, osStdout(), osStderr(), osStdin())
	default:
		return nil
	}
}

func ifNormal(p *streams.AnonPipe) *streams.AnonPipe {
	if p != nil && p.IsNormal() {
		return p
	}
	return nil
}

func pipeID(p *streams.AnonPipe) *uint32 {
	if p == nil {
		return nil
	}
	id := p.ID()
	return &id
}

// Exec launches mainClass on the worker and blocks until it answers with a
// TaskInfo or an ExecError.
func (d *Dispatcher) Exec(ctx context.Context, mainClass string, params []string, stdout, stderr, stdin command.Stdio) (*TaskHandle, error) {
	stdoutPipe := d.maybeAllocPipe(stdout, streams.InheritStdout)
	stderrPipe := d.maybeAllocPipe(stderr, streams.InheritStderr)
	stdinPipe := d.maybeAllocPipe(stdin, streams.InheritStdin)

	tag := d.nextTag()
	ch := d.exec.Start(tag)

	req := wire.Exec{
		Tag:       tag,
		MainClass: mainClass,
		Params:    params,
		Stdout:    pipeID(stdoutPipe),
		Stderr:    pipeID(stderrPipe),
		Stdin:     pipeID(stdinPipe),
	}
	if err := d.w.WriteToJvm(req); err != nil {
		return nil, err
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res, ok := <-ch:
		if !ok {
			return nil, fmt.Errorf("dispatcher: transport closed while waiting for exec result")
		}
		if res.Result.Err != nil {
			return nil, execErrorToCommandError(res.Result.Err)
		}
		return &TaskHandle{
			d:          d,
			taskID:     res.Result.TaskInfo.TaskID,
			stdoutPipe: ifNormal(stdoutPipe),
			stderrPipe: ifNormal(stderrPipe),
			stdinPipe:  ifNormal(stdinPipe),
		}, nil
	}
}

func execErrorToCommandError(e *wire.ExecError) *command.Error {
	switch e.Kind {
	case wire.ExecErrorInvalidClass:
		return command.InvalidClass(e.Message)
	case wire.ExecErrorNoMainFn:
		return command.NoMainFn(e.Message)
	default:
		return command.Failure(e.Message)
	}
}

// Wait blocks until the worker reports task has exited, or the given
// timeout (if non-zero) elapses first.
func (d *Dispatcher) Wait(ctx context.Context, task uint32, timeout time.Duration) (command.ExitStatus, error) {
	tag := d.nextTag()
	ch := d.wait.Start(tag)

	req := wire.Wait{Tag: tag, Task: task}
	if timeout > 0 {
		req.Timeout = &timeout
	}
	if err := d.w.WriteToJvm(req); err != nil {
		return command.ExitStatus{}, err
	}

	select {
	case <-ctx.Done():
		return command.ExitStatus{}, ctx.Err()
	case res, ok := <-ch:
		if !ok {
			return command.ExitStatus{}, fmt.Errorf("dispatcher: transport closed while waiting for wait result")
		}
		return command.ExitStatus{TimedOut: res.Timeout}, nil
	}
}

// TaskHandle is a running task addressed by its dispatcher-assigned TaskID.
type TaskHandle struct {
	d      *Dispatcher
	taskID uint32

	stdoutPipe *streams.AnonPipe
	stderrPipe *streams.AnonPipe
	stdinPipe  *streams.AnonPipe
}

// TaskID returns the worker-assigned id for this task.
func (t *TaskHandle) TaskID() uint32 { return t.taskID }

func (t *TaskHandle) Wait(ctx context.Context) (command.ExitStatus, error) {
	return t.d.Wait(ctx, t.taskID, 0)
}

// Stdout, Stderr and Stdin return nil when the corresponding stream wasn't
// allocated as a Piped, Normal-backed pipe (an Inherit or Null stdio, or a
// non-Normal backing the caller can't read/write directly). They satisfy
// command.Task's io.Reader/io.Writer-typed accessors.
func (t *TaskHandle) Stdout() io.Reader {
	if t.stdoutPipe == nil {
		return nil
	}
	return t.stdoutPipe
}

func (t *TaskHandle) Stderr() io.Reader {
	if t.stderrPipe == nil {
		return nil
	}
	return t.stderrPipe
}

func (t *TaskHandle) Stdin() io.Writer {
	if t.stdinPipe == nil {
		return nil
	}
	return t.stdinPipe
}

var _ command.Task = (*TaskHandle)(nil)
