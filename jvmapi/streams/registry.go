package streams

import (
	"io"
	"sync"
)

// Inherit selects which host stream a newly allocated pipe proxies to,
// instead of buffering in-process.
type Inherit int

const (
	// InheritNone allocates a Normal, bounded, buffered pipe.
	InheritNone Inherit = iota
	InheritStdout
	InheritStderr
	InheritStdin
)

// Streams is the registry of live AnonPipes for one dispatcher session.
// Ids are assigned from a monotonically increasing counter and never
// reused, even after Free — a stale id must reliably fail lookup rather
// than silently resolve to an unrelated, later pipe.
type Streams struct {
	mu     sync.Mutex
	pipes  map[uint32]*AnonPipe
	nextID uint32
}

// NewStreams constructs an empty registry.
func NewStreams() *Streams {
	return &Streams{pipes: make(map[uint32]*AnonPipe)}
}

// Alloc allocates a new pipe with the given backing and registers it.
// stdout/stderr/stdin are only consulted when inherit names the matching
// backing; callers typically pass os.Stdout/os.Stderr/os.Stdin.
func (s *Streams) Alloc(inherit Inherit, stdout, stderr io.Writer, stdin io.Reader) *AnonPipe {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++

	var p *AnonPipe
	switch inherit {
	case InheritStdout:
		p = &AnonPipe{id: id, backing: backingStdout, stdout: stdout}
	case InheritStderr:
		p = &AnonPipe{id: id, backing: backingStderr, stderr: stderr}
	case InheritStdin:
		p = &AnonPipe{id: id, backing: backingStdin, stdin: stdin}
	default:
		p = newNormalPipe(id)
	}

	s.pipes[id] = p
	return p
}

// ByID looks up a pipe by id. The second return is false if id was never
// allocated, or has since been freed.
func (s *Streams) ByID(id uint32) (*AnonPipe, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pipes[id]
	return p, ok
}

// Free closes and deregisters the pipe with the given id. A Free of an
// unknown id is a no-op.
func (s *Streams) Free(id uint32) {
	s.mu.Lock()
	p, ok := s.pipes[id]
	if ok {
		delete(s.pipes, id)
	}
	s.mu.Unlock()

	if ok {
		p.Close()
	}
}

// Len reports the number of currently registered pipes, for tests and
// diagnostics.
func (s *Streams) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pipes)
}
