// Command ojavac wraps a javac-compatible compiler, translating a
// build-tool-shaped flag set into the compiler's own command line and
// forwarding its exit code.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/origami-build/origami/internal/logging"
	"github.com/origami-build/origami/jvmapi/command"
	"github.com/origami-build/origami/jvmapi/process"
)

// undeterminedExitCode is returned when the wrapped compiler's own exit
// code could not be recovered (it crashed, was killed, or never started).
const undeterminedExitCode = 10

// compilerMainClass is the entry point of the JDK's own javac, which this
// wrapper drives directly rather than reimplementing a compiler.
const compilerMainClass = "com.sun.tools.javac.Main"

type flags struct {
	include       []string
	link          []string
	outDir        string
	packageRoot   string
	debug         bool
	release       string
	writeDeps     string
	writeMakeDeps string
	annotationOpt []string
	suppressClass bool
	suppressProcs bool
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	var f flags
	var sources []string

	cmd := &cobra.Command{
		Use:           "ojavac [flags] source-file...",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.MinimumNArgs(1),
		RunE: func(c *cobra.Command, positional []string) error {
			sources = positional
			return nil
		},
	}
	cmd.Flags().StringSliceVarP(&f.include, "include", "I", nil, "source search roots")
	cmd.Flags().StringSliceVarP(&f.link, "link", "l", nil, "compiled artifact / archive search roots")
	cmd.Flags().StringVarP(&f.outDir, "out-dir", "o", "", "output directory")
	cmd.Flags().StringVar(&f.packageRoot, "package-root", "", "package root override")
	cmd.Flags().BoolVarP(&f.debug, "debug", "g", false, "emit debug information")
	cmd.Flags().StringVar(&f.release, "release", "", "target release")
	cmd.Flags().StringVar(&f.writeDeps, "write-deps", "", "write dependency manifest")
	cmd.Flags().StringVar(&f.writeMakeDeps, "write-makedeps", "", "write make-format dependency manifest")
	cmd.Flags().StringArrayVarP(&f.annotationOpt, "annotation-option", "A", nil, "pass option to annotation processor")
	cmd.Flags().BoolVarP(&f.suppressClass, "suppress-class-gen", "E", false, "suppress class generation")
	cmd.Flags().BoolVarP(&f.suppressProcs, "suppress-processors", "P", false, "suppress annotation processors")
	cmd.SetArgs(args)

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "ojavac:", err)
		return undeterminedExitCode
	}

	if f.suppressClass && f.suppressProcs {
		fmt.Fprintln(os.Stderr, "ojavac: -E and -P are mutually exclusive")
		return undeterminedExitCode
	}

	if f.writeDeps != "" || f.writeMakeDeps != "" {
		log := logging.New("ojavac", nil)
		log.Warn("dependency manifest output is not produced by the wrapped compiler; ignoring")
	}

	code, err := compile(f, sources)
	if err != nil {
		fmt.Fprintln(os.Stderr, "ojavac:", err)
		return undeterminedExitCode
	}
	return code
}

func compile(f flags, sources []string) (int, error) {
	javacArgs := buildJavacArgs(f, sources)

	jvm := process.New()
	cmd := command.NewCommand(compilerMainClass).
		Args(javacArgs...).
		Stdout(command.StdioInherit).
		Stderr(command.StdioInherit).
		Stdin(command.StdioInherit)

	task, err := jvm.Exec(context.Background(), cmd, command.StdioInherit)
	if err != nil {
		return undeterminedExitCode, fmt.Errorf("launch compiler: %w", err)
	}

	status, err := task.Wait(context.Background())
	if err != nil {
		return undeterminedExitCode, err
	}
	if status.TimedOut {
		return undeterminedExitCode, fmt.Errorf("compiler did not exit")
	}
	if status.ExitCode < 0 {
		return undeterminedExitCode, fmt.Errorf("compiler exit code could not be determined")
	}
	return status.ExitCode, nil
}

// buildJavacArgs translates the build-tool flag set into the wrapped
// compiler's own command-line argument conventions.
func buildJavacArgs(f flags, sources []string) []string {
	var args []string

	if len(f.include) > 0 {
		args = append(args, "-sourcepath", strings.Join(f.include, string(os.PathListSeparator)))
	}
	if len(f.link) > 0 {
		args = append(args, "-classpath", strings.Join(f.link, string(os.PathListSeparator)))
	}
	if f.outDir != "" {
		args = append(args, "-d", f.outDir)
	}
	if f.packageRoot != "" {
		args = append(args, "-s", f.packageRoot)
	}
	if f.debug {
		args = append(args, "-g")
	}
	if f.release != "" {
		args = append(args, "--release", f.release)
	}
	for _, opt := range f.annotationOpt {
		args = append(args, "-A"+opt)
	}
	if f.suppressClass {
		args = append(args, "-proc:only")
	}
	if f.suppressProcs {
		args = append(args, "-proc:none")
	}

	args = append(args, sources...)
	return args
}
