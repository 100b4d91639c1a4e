// Package direct implements command.Jvm by launching a single dispatcher
// JVM process up front and multiplexing every subsequent task through it
// over the dispatch protocol, instead of paying process-startup cost per
// task the way process.ProcessJvm does.
package direct

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/origami-build/origami/jvmapi/command"
	"github.com/origami-build/origami/jvmapi/dispatch"
	"github.com/origami-build/origami/jvmapi/process"
	"github.com/origami-build/origami/jvmapi/wire"
)

// mainClass is the dispatcher entry point bundled in the task-dispatcher
// jar; it speaks the wire protocol over its own stdin/stdout once started.
const mainClass = "net.dblsaiko.origami.taskdispatcher.Main"

// DirectJvm runs one dispatcher JVM and submits every task to it over the
// wire protocol.
type DirectJvm struct {
	cmd  command.Task
	d    *dispatch.Dispatcher
	done chan struct{}
}

// Spawn launches the dispatcher jar via host (typically process.New())
// and starts the reactor loop that drives its responses.
func Spawn(ctx context.Context, host *process.ProcessJvm, log *logrus.Entry) (*DirectJvm, error) {
	jarPath, err := locateDispatcherJar()
	if err != nil {
		return nil, fmt.Errorf("direct: %w", err)
	}

	host.WithJavaArgs("--enable-preview")
	host.WithClasspath(jarPath)

	dc := command.NewCommand(mainClass).
		Stdin(command.StdioPiped).
		Stdout(command.StdioPiped).
		Stderr(command.StdioInherit)

	task, err := host.Exec(ctx, dc, command.StdioInherit)
	if err != nil {
		return nil, fmt.Errorf("direct: spawn dispatcher jvm: %w", err)
	}

	stdin := task.Stdin()
	stdout := task.Stdout()
	if stdin == nil || stdout == nil {
		return nil, fmt.Errorf("direct: dispatcher jvm did not expose piped stdio")
	}

	d := dispatch.New(wire.NewFrameWriter(stdin), wire.NewFrameReader(stdout), log)

	dj := &DirectJvm{cmd: task, d: d, done: make(chan struct{})}
	go func() {
		defer close(dj.done)
		_ = d.Run()
	}()

	return dj, nil
}

// Exec submits a task to the running dispatcher.
func (j *DirectJvm) Exec(ctx context.Context, cmd *command.JvmCommand, defaultStdio command.Stdio) (command.Task, error) {
	task, err := j.d.Exec(ctx, cmd.MainClass(), cmd.GetArgs(),
		cmd.StdoutStdio(defaultStdio), cmd.StderrStdio(defaultStdio), cmd.StdinStdio(defaultStdio))
	if err != nil {
		return nil, err
	}
	return task, nil
}

// Close waits for the dispatcher's reactor loop to observe the transport
// closing, after the caller has stopped the underlying process.
func (j *DirectJvm) Close(ctx context.Context) error {
	_, err := j.cmd.Wait(ctx)
	<-j.done
	return err
}

var _ command.Jvm = (*DirectJvm)(nil)

// locateDispatcherJar resolves the path to task-dispatcher.jar. It honors
// ORIGAMI_DISPATCHER_JAR when set (for development and tests), otherwise
// looks for it next to the running executable the way an installed build
// would lay it out. There is no embedded-jar fallback
// here: the dispatcher jar is a separately built/installed artifact, not
// Go source this module can embed (see DESIGN.md).
func locateDispatcherJar() (string, error) {
	if p := os.Getenv("ORIGAMI_DISPATCHER_JAR"); p != "" {
		return p, nil
	}

	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("locate dispatcher jar: %w", err)
	}
	candidate := filepath.Join(filepath.Dir(exe), "task-dispatcher.jar")
	if _, err := os.Stat(candidate); err != nil {
		return "", fmt.Errorf("dispatcher jar not found at %s (set ORIGAMI_DISPATCHER_JAR): %w", candidate, err)
	}
	return candidate, nil
}
