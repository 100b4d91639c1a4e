package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, contents string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadProjectDecodesDependencies(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "origami.toml", `
[project]
name = "example"
version = "1.0.0"
authors = ["dev"]

[dependencies.guava]
artifact = "com.google.guava:guava"
version = "32.1.0"
export = true

[dependencies.sibling]
path = "../sibling"
`)

	cfg, err := LoadProject(path)
	require.NoError(t, err)
	assert.Equal(t, "example", cfg.Project.Name)
	assert.Equal(t, "1.0.0", cfg.Project.Version)

	guava := cfg.Dependencies["guava"]
	assert.True(t, guava.IsMaven())
	assert.Equal(t, "com.google.guava:guava", guava.Artifact)
	assert.True(t, guava.Export)

	sibling := cfg.Dependencies["sibling"]
	assert.False(t, sibling.IsMaven())
	assert.Equal(t, "../sibling", sibling.Path)
}

func TestLoadWorkspaceMissingFileIsEmpty(t *testing.T) {
	cfg, err := LoadWorkspace(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)
	assert.Empty(t, cfg.Repositories)
}

func TestLoadWorkspaceDecodesRepositories(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "origami-workspace.toml", `
[repositories]
central = "https://repo1.maven.org/maven2"
internal = "https://repo.example.com/maven"
`)

	cfg, err := LoadWorkspace(path)
	require.NoError(t, err)
	require.Len(t, cfg.Repositories, 2)

	names := map[string]string{}
	for _, r := range cfg.Repositories {
		names[r.Name] = r.URL
	}
	assert.Equal(t, "https://repo1.maven.org/maven2", names["central"])
	assert.Equal(t, "https://repo.example.com/maven", names["internal"])
}
