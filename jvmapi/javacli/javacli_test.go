package javacli

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJvmArgsEmptyClasspathOmitsFlag(t *testing.T) {
	args := JvmArgs(nil, "com.example.Main")
	assert.Equal(t, []string{"com.example.Main"}, args)
}

func TestJvmArgsJoinsClasspathEntries(t *testing.T) {
	args := JvmArgs([]string{"a.jar", "b.jar"}, "com.example.Main")
	sep := string(os.PathListSeparator)
	assert.Equal(t, []string{"-classpath", "a.jar" + sep + "b.jar", "com.example.Main"}, args)
}

func TestJvmArgsSingleClasspathEntry(t *testing.T) {
	args := JvmArgs([]string{"only.jar"}, "Main")
	assert.Equal(t, []string{"-classpath", "only.jar", "Main"}, args)
}
