package maven

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// ErrNotFound is returned by GetArtifactInfo/GetVersionInfo when the
// remote repository answers 404 — a routine "this repository doesn't
// carry this artifact" outcome, not a transport failure.
var ErrNotFound = errors.New("maven: not found")

// ArtifactMetadata is the decoded form of a group:artifact's
// maven-metadata.xml: the set of published versions.
type ArtifactMetadata struct {
	Versioning Versioning `xml:"versioning"`
}

// Versioning lists an artifact's published versions and repository
// pointers to the latest/release ones.
type Versioning struct {
	Latest      string   `xml:"latest"`
	Release     string   `xml:"release"`
	Versions    []string `xml:"versions>version"`
	LastUpdated string   `xml:"lastUpdated"`
}

// DepScope is a Maven dependency scope.
type DepScope string

const (
	ScopeCompile  DepScope = "compile"
	ScopeRuntime  DepScope = "runtime"
	ScopeProvided DepScope = "provided"
	ScopeTest     DepScope = "test"
	ScopeSystem   DepScope = "system"
	ScopeImport   DepScope = "import"
)

// DepInfo is one <dependency> entry from a .pom file.
type DepInfo struct {
	Group    string   `xml:"groupId"`
	Artifact string   `xml:"artifactId"`
	Version  string   `xml:"version"`
	Scope    DepScope `xml:"scope"`
}

// VersionMetadata is the decoded form of one version's .pom descriptor:
// its own coordinate plus its declared dependencies.
type VersionMetadata struct {
	Group        string    `xml:"groupId"`
	Artifact     string    `xml:"artifactId"`
	Version      string    `xml:"version"`
	Dependencies []DepInfo `xml:"dependencies>dependency"`
}

// Fetcher retrieves and decodes Maven metadata over HTTP.
type Fetcher struct {
	Client *http.Client
}

// NewFetcher builds a Fetcher. A nil client uses http.DefaultClient.
func NewFetcher(client *http.Client) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &Fetcher{Client: client}
}

// GetArtifactInfo fetches and decodes loc's maven-metadata.xml.
func (f *Fetcher) GetArtifactInfo(ctx context.Context, loc Located[ArtifactPath]) (*ArtifactMetadata, error) {
	u, err := ArtifactPathMetadataURL(loc)
	if err != nil {
		return nil, err
	}
	var out ArtifactMetadata
	if err := f.getXML(ctx, u.String(), &out); err != nil {
		return nil, fmt.Errorf("maven: fetch metadata for %s: %w", loc.Inner, err)
	}
	return &out, nil
}

// GetVersionInfo fetches and decodes loc's .pom descriptor.
func (f *Fetcher) GetVersionInfo(ctx context.Context, loc Located[ArtifactVersion]) (*VersionMetadata, error) {
	u, err := ArtifactVersionMetadataURL(loc)
	if err != nil {
		return nil, err
	}
	var out VersionMetadata
	if err := f.getXML(ctx, u.String(), &out); err != nil {
		return nil, fmt.Errorf("maven: fetch pom for %s: %w", loc.Inner, err)
	}
	return &out, nil
}

func (f *Fetcher) getXML(ctx context.Context, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	return xml.Unmarshal(body, out)
}
