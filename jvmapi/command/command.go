package command

import (
	"context"
	"io"
)

// Jvm launches tasks against a running JVM-backed worker, whether that
// worker is a dedicated child process per task (ProcessJvm) or a single
// shared dispatcher process multiplexing many tasks (DirectJvm).
type Jvm interface {
	// Exec launches mainClass with args, applying defaultStdio to any of
	// stdout/stderr/stdin the command didn't configure explicitly.
	Exec(ctx context.Context, cmd *JvmCommand, defaultStdio Stdio) (Task, error)
}

// Task is a handle to a running task: its standard streams, if piped, and
// a way to wait for it to exit.
type Task interface {
	// Wait blocks until the task exits or ctx is done, whichever comes
	// first. A context deadline does not kill the task; it simply stops
	// waiting.
	Wait(ctx context.Context) (ExitStatus, error)

	Stdout() io.Reader
	Stderr() io.Reader
	Stdin() io.Writer
}

// ExitStatus reports how a task finished.
type ExitStatus struct {
	// TimedOut is true when waiting stopped before the task was observed
	// to exit: for ProcessJvm tasks, when Wait's context is done; for
	// dispatcher tasks, when the worker reports that the Wait timeout
	// expired (a done context there returns the context's error instead).
	// It does not imply the task is still running.
	TimedOut bool

	// ExitCode is the task's process exit code. It is only meaningful
	// when TimedOut is false; facades that can't recover a real exit
	// code (the dispatcher protocol surfaces no exit status at all,
	// only a timeout flag) leave it at zero.
	ExitCode int
}

// JvmCommand describes one task to launch: a main class, its arguments,
// and the stdio configuration for each of its three standard streams.
// The zero value is not usable; build one with NewCommand.
type JvmCommand struct {
	mainClass string
	args      []string
	stdout    *Stdio
	stderr    *Stdio
	stdin     *Stdio
}

// NewCommand starts building a command that will run mainClass.
func NewCommand(mainClass string) *JvmCommand {
	return &JvmCommand{mainClass: mainClass}
}

// Arg appends a single argument.
func (c *JvmCommand) Arg(arg string) *JvmCommand {
	c.args = append(c.args, arg)
	return c
}

// Args appends every element of args.
func (c *JvmCommand) Args(args ...string) *JvmCommand {
	c.args = append(c.args, args...)
	return c
}

// Stdout overrides the default stdio handling for this command's stdout.
func (c *JvmCommand) Stdout(s Stdio) *JvmCommand { c.stdout = &s; return c }

// Stderr overrides the default stdio handling for this command's stderr.
func (c *JvmCommand) Stderr(s Stdio) *JvmCommand { c.stderr = &s; return c }

// Stdin overrides the default stdio handling for this command's stdin.
func (c *JvmCommand) Stdin(s Stdio) *JvmCommand { c.stdin = &s; return c }

// MainClass returns the class this command will run.
func (c *JvmCommand) MainClass() string { return c.mainClass }

// GetArgs returns the arguments accumulated so far.
func (c *JvmCommand) GetArgs() []string { return c.args }

// resolveStdio returns the command's configured Stdio for a stream, or
// defaultStdio if the command didn't set one explicitly.
func resolveStdio(configured *Stdio, defaultStdio Stdio) Stdio {
	if configured != nil {
		return *configured
	}
	return defaultStdio
}

// StdoutStdio resolves this command's effective stdout stdio.
func (c *JvmCommand) StdoutStdio(defaultStdio Stdio) Stdio { return resolveStdio(c.stdout, defaultStdio) }

// StderrStdio resolves this command's effective stderr stdio.
func (c *JvmCommand) StderrStdio(defaultStdio Stdio) Stdio { return resolveStdio(c.stderr, defaultStdio) }

// StdinStdio resolves this command's effective stdin stdio.
func (c *JvmCommand) StdinStdio(defaultStdio Stdio) Stdio { return resolveStdio(c.stdin, defaultStdio) }

// Spawn is sugar for jvm.Exec(ctx, c, StdioInherit).
func (c *JvmCommand) Spawn(ctx context.Context, jvm Jvm) (Task, error) {
	return jvm.Exec(ctx, c, StdioInherit)
}
