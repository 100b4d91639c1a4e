// Package maven models Maven coordinates, repository-relative URLs, and
// fetches maven-metadata.xml / *.pom descriptors used to resolve
// dependencies against a remote repository.
package maven

import (
	"fmt"
	"net/url"
	"strings"
)

// ArtifactPath identifies an artifact by its group and artifact id, with
// no version — the "group:artifact" coordinate.
type ArtifactPath struct {
	Group    string
	Artifact string
}

// NewArtifactPath builds an ArtifactPath directly.
func NewArtifactPath(group, artifact string) ArtifactPath {
	return ArtifactPath{Group: group, Artifact: artifact}
}

// ParseArtifactPath parses a "group:artifact" coordinate string.
func ParseArtifactPath(s string) (ArtifactPath, error) {
	group, artifact, ok := strings.Cut(s, ":")
	if !ok {
		return ArtifactPath{}, fmt.Errorf("maven: %q is not a group:artifact coordinate", s)
	}
	if strings.Contains(artifact, ":") {
		return ArtifactPath{}, fmt.Errorf("maven: %q has too many ':'-separated segments", s)
	}
	return ArtifactPath{Group: group, Artifact: artifact}, nil
}

// ToURLPart returns this coordinate's repository-relative path segment,
// e.g. "com/example/foo" for group "com.example", artifact "foo".
func (p ArtifactPath) ToURLPart() string {
	return strings.ReplaceAll(p.Group, ".", "/") + "/" + p.Artifact
}

// WithVersion pins this coordinate to a specific version.
func (p ArtifactPath) WithVersion(version string) ArtifactVersion {
	return ArtifactVersion{Path: p, Version: version}
}

func (p ArtifactPath) String() string {
	return p.Group + ":" + p.Artifact
}

// ArtifactVersion is an ArtifactPath pinned to a specific version — a
// "group:artifact:version" coordinate.
type ArtifactVersion struct {
	Path    ArtifactPath
	Version string
}

// ParseArtifactVersion parses a "group:artifact:version" coordinate
// string.
func ParseArtifactVersion(s string) (ArtifactVersion, error) {
	rest, version, ok := cutLast(s, ":")
	if !ok {
		return ArtifactVersion{}, fmt.Errorf("maven: %q is not a group:artifact:version coordinate", s)
	}
	path, err := ParseArtifactPath(rest)
	if err != nil {
		return ArtifactVersion{}, err
	}
	return ArtifactVersion{Path: path, Version: version}, nil
}

func cutLast(s, sep string) (before, after string, found bool) {
	i := strings.LastIndex(s, sep)
	if i < 0 {
		return "", "", false
	}
	return s[:i], s[i+len(sep):], true
}

// ToURLPart returns this coordinate's repository-relative path segment,
// including the version directory.
func (v ArtifactVersion) ToURLPart() string {
	return v.Path.ToURLPart() + "/" + v.Version
}

func (v ArtifactVersion) String() string {
	return v.Path.String() + ":" + v.Version
}

// Located pairs a coordinate with the specific repository base URL it was
// (or should be) resolved against.
type Located[T any] struct {
	Repository *url.URL
	Inner      T
}

// NewLocated pairs repository with inner.
func NewLocated[T any](repository *url.URL, inner T) Located[T] {
	return Located[T]{Repository: repository, Inner: inner}
}

func (l Located[T]) toURL(urlPart string) (*url.URL, error) {
	base, err := url.Parse(strings.TrimRight(l.Repository.String(), "/") + "/" + urlPart + "/")
	if err != nil {
		return nil, err
	}
	return base, nil
}

// ArtifactPathMetadataURL returns the maven-metadata.xml URL for a
// Located[ArtifactPath] — the per-artifact version listing.
func ArtifactPathMetadataURL(l Located[ArtifactPath]) (*url.URL, error) {
	base, err := l.toURL(l.Inner.ToURLPart())
	if err != nil {
		return nil, err
	}
	return base.Parse("maven-metadata.xml")
}

// ArtifactVersionPrefix returns the "artifact-version" filename prefix
// shared by a version's .pom and .jar files.
func ArtifactVersionPrefix(l Located[ArtifactVersion]) string {
	return l.Inner.Path.Artifact + "-" + l.Inner.Version
}

// ArtifactVersionMetadataURL returns the .pom URL for a Located[ArtifactVersion].
func ArtifactVersionMetadataURL(l Located[ArtifactVersion]) (*url.URL, error) {
	base, err := l.toURL(l.Inner.ToURLPart())
	if err != nil {
		return nil, err
	}
	return base.Parse(ArtifactVersionPrefix(l) + ".pom")
}

// JarURL returns the .jar URL for a Located[ArtifactVersion], optionally
// with a classifier suffix (e.g. "sources").
func JarURL(l Located[ArtifactVersion], classifier string) (*url.URL, error) {
	base, err := l.toURL(l.Inner.ToURLPart())
	if err != nil {
		return nil, err
	}
	name := ArtifactVersionPrefix(l)
	if classifier != "" {
		name += "-" + classifier
	}
	return base.Parse(name + ".jar")
}
