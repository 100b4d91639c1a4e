// Package javacli builds the argv a java-like launcher expects: an
// optional -classpath flag (omitted entirely when the classpath is empty)
// followed by the main class name.
package javacli

import (
	"os"
	"strings"
)

// JvmArgs returns the -classpath flag (if classpath is non-empty) and
// mainClass, in the order `java` expects them on its own argv. Classpath
// entries are joined with os.PathListSeparator, the same separator java
// itself uses (';' on Windows, ':' everywhere else).
func JvmArgs(classpath []string, mainClass string) []string {
	if len(classpath) == 0 {
		return []string{mainClass}
	}
	sep := string(os.PathListSeparator)
	return []string{"-classpath", strings.Join(classpath, sep), mainClass}
}
