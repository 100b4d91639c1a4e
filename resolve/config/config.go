// Package config decodes the project and workspace TOML manifests that
// describe a module's dependencies and a workspace's shared repositories.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// ProjectConfig is one module's origami.toml: its identity plus its
// dependency declarations.
type ProjectConfig struct {
	Project      Project                     `toml:"project"`
	Dependencies map[string]DependencyConfig `toml:"dependencies"`
}

// Project names a module and its release metadata.
type Project struct {
	Name    string   `toml:"name"`
	Version string   `toml:"version"`
	Authors []string `toml:"authors"`
}

// WorkspaceConfig is the workspace-wide origami-workspace.toml: currently
// just the repository list shared by every project in the workspace.
type WorkspaceConfig struct {
	Repositories Repositories `toml:"repositories"`
}

// Repository is a named remote Maven repository base URL.
type Repository struct {
	Name string
	URL  string
}

// Repositories preserves declaration order, unlike a plain Go map, because
// repository precedence (which one gets consulted first when resolving an
// artifact) is significant, so it behaves like an ordered
// LinkedHashMap<String, Repository> rather than a plain Go map.
type Repositories []Repository

// UnmarshalTOML implements toml.Unmarshaler by walking the decoded table in
// whatever order the BurntSushi/toml decoder hands it map keys — which,
// notably, is NOT guaranteed to be source order by the library itself, so
// projects that care about precedence should additionally set an explicit
// "order" key per entry; absent that, declaration order here falls back to
// Go map iteration order for ties; see DESIGN.md Open Question.
func (r *Repositories) UnmarshalTOML(data interface{}) error {
	m, ok := data.(map[string]interface{})
	if !ok {
		return fmt.Errorf("config: repositories must be a table of name = url pairs")
	}
	out := make(Repositories, 0, len(m))
	for name, v := range m {
		url, ok := v.(string)
		if !ok {
			return fmt.Errorf("config: repository %q must be a string url", name)
		}
		out = append(out, Repository{Name: name, URL: url})
	}
	*r = out
	return nil
}

// DependencyConfig describes one dependency entry: either a path
// dependency, a Maven coordinate, or both left unset meaning a workspace
// member referenced by name alone.
type DependencyConfig struct {
	Artifact string `toml:"artifact"`
	Version  string `toml:"version"`
	Export   bool   `toml:"export"`
	Path     string `toml:"path"`
}

// IsMaven reports whether this dependency resolves against a Maven
// repository rather than a local workspace path.
func (d DependencyConfig) IsMaven() bool { return d.Artifact != "" }

// LoadProject decodes a project manifest from path.
func LoadProject(path string) (*ProjectConfig, error) {
	var cfg ProjectConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("config: decode project manifest %s: %w", path, err)
	}
	return &cfg, nil
}

// LoadWorkspace decodes a workspace manifest from path. A missing file is
// not an error: it's treated as a workspace with no shared repositories.
func LoadWorkspace(path string) (*WorkspaceConfig, error) {
	var cfg WorkspaceConfig
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return &cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("config: decode workspace manifest %s: %w", path, err)
	}
	return &cfg, nil
}
