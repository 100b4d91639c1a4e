// Package command defines the host-facing command builder and execution
// facade: JvmCommand, the Jvm/Task interfaces a ProcessJvm or DirectJvm
// implements, and the Error taxonomy shared across both backends.
package command

// Stdio selects how a task's standard stream should be wired when exec'd.
type Stdio int

const (
	// StdioPiped allocates a pipe the host can read from or write to.
	StdioPiped Stdio = iota
	// StdioInherit proxies straight through to the host process's own
	// stdout/stderr/stdin.
	StdioInherit
	// StdioNull discards the stream entirely.
	StdioNull
)

func (s Stdio) String() string {
	switch s {
	case StdioPiped:
		return "piped"
	case StdioInherit:
		return "inherit"
	case StdioNull:
		return "null"
	default:
		return "unknown"
	}
}
