package maven

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseArtifactPath(t *testing.T) {
	p, err := ParseArtifactPath("com.google.guava:guava")
	require.NoError(t, err)
	assert.Equal(t, "com.google.guava", p.Group)
	assert.Equal(t, "guava", p.Artifact)
	assert.Equal(t, "com/google/guava/guava", p.ToURLPart())
}

func TestParseArtifactPathRejectsTooManySegments(t *testing.T) {
	_, err := ParseArtifactPath("a:b:c")
	assert.Error(t, err)
}

func TestParseArtifactPathRejectsMissingColon(t *testing.T) {
	_, err := ParseArtifactPath("no-colon-here")
	assert.Error(t, err)
}

func TestParseArtifactVersion(t *testing.T) {
	v, err := ParseArtifactVersion("com.google.guava:guava:32.1.0")
	require.NoError(t, err)
	assert.Equal(t, "com.google.guava", v.Path.Group)
	assert.Equal(t, "guava", v.Path.Artifact)
	assert.Equal(t, "32.1.0", v.Version)
	assert.Equal(t, "com/google/guava/guava/32.1.0", v.ToURLPart())
}

func TestArtifactVersionMetadataURL(t *testing.T) {
	repo, err := url.Parse("https://repo1.maven.org/maven2")
	require.NoError(t, err)

	loc := NewLocated(repo, NewArtifactPath("com.google.guava", "guava").WithVersion("32.1.0"))
	u, err := ArtifactVersionMetadataURL(loc)
	require.NoError(t, err)
	assert.Equal(t, "https://repo1.maven.org/maven2/com/google/guava/guava/32.1.0/guava-32.1.0.pom", u.String())
}

func TestJarURLWithClassifier(t *testing.T) {
	repo, err := url.Parse("https://repo1.maven.org/maven2")
	require.NoError(t, err)

	loc := NewLocated(repo, NewArtifactPath("com.google.guava", "guava").WithVersion("32.1.0"))
	u, err := JarURL(loc, "sources")
	require.NoError(t, err)
	assert.Equal(t, "https://repo1.maven.org/maven2/com/google/guava/guava/32.1.0/guava-32.1.0-sources.jar", u.String())
}

func TestJarURLNoClassifier(t *testing.T) {
	repo, err := url.Parse("https://repo1.maven.org/maven2")
	require.NoError(t, err)

	loc := NewLocated(repo, NewArtifactPath("com.google.guava", "guava").WithVersion("32.1.0"))
	u, err := JarURL(loc, "")
	require.NoError(t, err)
	assert.Equal(t, "https://repo1.maven.org/maven2/com/google/guava/guava/32.1.0/guava-32.1.0.jar", u.String())
}

func TestStyleMavenMatches(t *testing.T) {
	assert.True(t, StyleMaven.Matches("32.1.0", "32.1.0"))
	assert.False(t, StyleMaven.Matches("32.1.0", "32.1.1"))
}
