// Package process implements command.Jvm by launching one java subprocess
// per task, the equivalent of invoking `java` directly and comparable to
// how a build tool shells out to a compiler for each compilation unit.
package process

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"sync"

	"github.com/origami-build/origami/jvmapi/command"
	"github.com/origami-build/origami/jvmapi/javacli"
)

func osStdout() *os.File { return os.Stdout }
func osStderr() *os.File { return os.Stderr }
func osStdin() *os.File  { return os.Stdin }

// ProcessJvm runs each task in a fresh JVM process.
type ProcessJvm struct {
	JavaPath  string
	JavaArgs  []string
	Classpath []string
}

// New returns a ProcessJvm that invokes the "java" binary found on PATH
// with no extra JVM arguments or classpath.
func New() *ProcessJvm {
	return &ProcessJvm{JavaPath: "java"}
}

// WithJavaExecutable sets the path to the java executable used to launch
// tasks.
func (p *ProcessJvm) WithJavaExecutable(path string) *ProcessJvm {
	p.JavaPath = path
	return p
}

// WithClasspath appends entries to the classpath passed to every task.
func (p *ProcessJvm) WithClasspath(paths ...string) *ProcessJvm {
	p.Classpath = append(p.Classpath, paths...)
	return p
}

// WithJavaArgs appends JVM-level arguments (not passed to the launched
// program) used for every task.
func (p *ProcessJvm) WithJavaArgs(args ...string) *ProcessJvm {
	p.JavaArgs = append(p.JavaArgs, args...)
	return p
}

// Exec launches mainClass and its args in a new java process.
func (p *ProcessJvm) Exec(ctx context.Context, cmd *command.JvmCommand, defaultStdio command.Stdio) (command.Task, error) {
	var argv []string
	argv = append(argv, p.JavaArgs...)
	argv = append(argv, javacli.JvmArgs(p.Classpath, cmd.MainClass())...)
	argv = append(argv, cmd.GetArgs()...)

	c := exec.CommandContext(ctx, p.JavaPath, argv...)

	stdoutStdio := cmd.StdoutStdio(defaultStdio)
	stderrStdio := cmd.StderrStdio(defaultStdio)
	stdinStdio := cmd.StdinStdio(defaultStdio)

	task := &Task{}

	if stdoutStdio == command.StdioPiped {
		stdout, err := c.StdoutPipe()
		if err != nil {
			return nil, command.WrapIO(err)
		}
		task.stdout = stdout
	} else if stdoutStdio == command.StdioInherit {
		c.Stdout = osStdout()
	}

	if stderrStdio == command.StdioPiped {
		stderr, err := c.StderrPipe()
		if err != nil {
			return nil, command.WrapIO(err)
		}
		task.stderr = stderr
	} else if stderrStdio == command.StdioInherit {
		c.Stderr = osStderr()
	}

	if stdinStdio == command.StdioPiped {
		stdin, err := c.StdinPipe()
		if err != nil {
			return nil, command.WrapIO(err)
		}
		task.stdin = stdin
	} else if stdinStdio == command.StdioInherit {
		c.Stdin = osStdin()
	}

	if err := c.Start(); err != nil {
		return nil, command.WrapIO(err)
	}
	task.cmd = c

	return task, nil
}

// Task is a single java subprocess launched by ProcessJvm.
type Task struct {
	cmd *exec.Cmd

	stdout io.ReadCloser
	stderr io.ReadCloser
	stdin  io.WriteCloser

	mu     sync.Mutex
	waited bool
	status command.ExitStatus
	err    error
}

func (t *Task) Wait(ctx context.Context) (command.ExitStatus, error) {
	done := make(chan error, 1)
	go func() {
		done <- t.cmd.Wait()
	}()

	select {
	case <-ctx.Done():
		return command.ExitStatus{TimedOut: true}, nil
	case err := <-done:
		t.mu.Lock()
		t.waited = true
		t.err = err
		t.mu.Unlock()

		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return command.ExitStatus{ExitCode: exitErr.ExitCode()}, nil
		}
		if err != nil {
			return command.ExitStatus{}, command.WrapIO(err)
		}
		return command.ExitStatus{ExitCode: 0}, nil
	}
}

func (t *Task) Stdout() io.Reader { return t.stdout }
func (t *Task) Stderr() io.Reader { return t.stderr }
func (t *Task) Stdin() io.Writer  { return t.stdin }

var _ command.Task = (*Task)(nil)
var _ command.Jvm = (*ProcessJvm)(nil)
