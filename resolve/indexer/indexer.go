// Package indexer recursively resolves a project's dependency graph into
// an IndexedProject tree: for each dependency it locates either a local
// workspace path or a Maven coordinate/version, downloads whatever files
// back that source, and memoizes the whole (project, version) resolution
// so a diamond-shaped dependency graph is only ever resolved once.
package indexer

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/origami-build/origami/resolve/cache"
	"github.com/origami-build/origami/resolve/config"
	"github.com/origami-build/origami/resolve/lockfile"
	"github.com/origami-build/origami/resolve/maven"
)

// RequestContext carries the resolution-wide settings that affect how a
// dependency is located: whether to resolve offline-only (never hit the
// network) and which workspace's repositories to search.
type RequestContext struct {
	OfflineOnly bool
	Workspace   *config.WorkspaceConfig
}

// sourceKind distinguishes the two ways a ProjectSource can point at a
// project: a path already present on disk, or a Maven coordinate that
// still needs to be fetched.
type sourceKind int

const (
	sourceLocal sourceKind = iota
	sourceMaven
)

// ProjectSource identifies where to find a project to index: either a
// local directory (a workspace member or path dependency) or a specific
// resolved Maven artifact version.
type ProjectSource struct {
	kind  sourceKind
	local string
	maven maven.Located[maven.ArtifactVersion]
}

// LocalSource builds a ProjectSource pointing at a workspace-local path.
func LocalSource(path string) ProjectSource {
	return ProjectSource{kind: sourceLocal, local: path}
}

// MavenSource builds a ProjectSource pointing at a resolved Maven
// coordinate.
func MavenSource(loc maven.Located[maven.ArtifactVersion]) ProjectSource {
	return ProjectSource{kind: sourceMaven, maven: loc}
}

func (s ProjectSource) cacheKey() string {
	switch s.kind {
	case sourceLocal:
		return "local:" + s.local
	case sourceMaven:
		return "maven:" + s.maven.Repository.String() + "!" + s.maven.Inner.String()
	default:
		return "unknown"
	}
}

// IndexedProject is one fully-resolved node in the dependency graph.
type IndexedProject struct {
	Name         string
	Version      string
	Sources      []lockfile.RemoteFile
	Dependencies []*IndexedProject
}

type computeKey struct {
	ctx *RequestContext
	src string
}

type indexResult struct {
	project *IndexedProject
	err     error
}

// repositoryInfo memoizes the set of published versions this process has
// already asked a given repository about, per artifact.
type repositoryInfo struct {
	artifacts *cache.ComputeCache[string, versionsResult]
}

type versionsResult struct {
	versions []maven.Located[maven.ArtifactVersion]
	err      error
}

// State owns the caches a resolution run is threaded through: the
// top-level project memoizer, one per-repository version-listing cache,
// and the download/metadata clients used to fill them in.
type State struct {
	projects *cache.ComputeCache[computeKey, indexResult]

	reposMu sync.Mutex
	repos   map[string]*repositoryInfo

	downloads *cache.DownloadCache
	fetcher   *maven.Fetcher
	log       *logrus.Entry
}

// NewState builds an indexing session backed by the given download cache
// and Maven metadata fetcher.
func NewState(downloads *cache.DownloadCache, fetcher *maven.Fetcher, log *logrus.Entry) *State {
	return &State{
		projects:  cache.NewComputeCache[computeKey, indexResult](),
		repos:     make(map[string]*repositoryInfo),
		downloads: downloads,
		fetcher:   fetcher,
		log:       log,
	}
}

// IndexProject resolves src (and everything it transitively depends on)
// into an IndexedProject tree, deduplicating work across overlapping
// subtrees via rc/src.
func (s *State) IndexProject(ctx context.Context, rc *RequestContext, src ProjectSource) (*IndexedProject, error) {
	key := computeKey{ctx: rc, src: src.cacheKey()}
	result := s.projects.Compute(key, func(computeKey) indexResult {
		project, err := s.recursiveIndex(ctx, rc, src)
		return indexResult{project: project, err: err}
	})
	return result.project, result.err
}

func (s *State) recursiveIndex(ctx context.Context, rc *RequestContext, src ProjectSource) (*IndexedProject, error) {
	switch src.kind {
	case sourceLocal:
		return s.indexLocal(ctx, rc, src.local)
	case sourceMaven:
		return s.indexMaven(ctx, rc, src.maven)
	default:
		return nil, fmt.Errorf("indexer: unknown project source")
	}
}

func (s *State) indexLocal(ctx context.Context, rc *RequestContext, dir string) (*IndexedProject, error) {
	manifestPath := filepath.Join(dir, "origami.toml")
	cfg, err := config.LoadProject(manifestPath)
	if err != nil {
		return nil, fmt.Errorf("indexer: load %s: %w", manifestPath, err)
	}

	deps, err := s.indexDependencies(ctx, rc, dir, cfg.Dependencies)
	if err != nil {
		return nil, err
	}

	return &IndexedProject{
		Name:         cfg.Project.Name,
		Version:      cfg.Project.Version,
		Sources:      nil,
		Dependencies: deps,
	}, nil
}

func (s *State) indexMaven(ctx context.Context, rc *RequestContext, loc maven.Located[maven.ArtifactVersion]) (*IndexedProject, error) {
	required, err := s.computeRequiredFiles(ctx, loc)
	if err != nil {
		return nil, err
	}

	info, err := s.fetcher.GetVersionInfo(ctx, loc)
	if err != nil {
		return nil, fmt.Errorf("indexer: fetch pom for %s: %w", loc.Inner, err)
	}

	deps := make([]config.DependencyConfig, 0, len(info.Dependencies))
	for _, d := range info.Dependencies {
		switch d.Scope {
		case maven.ScopeTest, maven.ScopeProvided:
			continue
		}
		deps = append(deps, config.DependencyConfig{
			Artifact: d.Group + ":" + d.Artifact,
			Version:  d.Version,
		})
	}
	resolved, err := s.indexDependencyConfigs(ctx, rc, "", deps)
	if err != nil {
		return nil, err
	}

	return &IndexedProject{
		Name:         loc.Inner.Path.Artifact,
		Version:      loc.Inner.Version,
		Sources:      required,
		Dependencies: resolved,
	}, nil
}

func (s *State) indexDependencies(ctx context.Context, rc *RequestContext, projectDir string, deps map[string]config.DependencyConfig) ([]*IndexedProject, error) {
	entries := make([]config.DependencyConfig, 0, len(deps))
	for name, d := range deps {
		if d.Artifact == "" && d.Path == "" {
			d.Path = filepath.Join(filepath.Dir(projectDir), name)
		}
		entries = append(entries, d)
	}
	return s.indexDependencyConfigs(ctx, rc, projectDir, entries)
}

// indexDependencyConfigs resolves each dependency declaration to a source
// and recursively indexes it, running the independent subtrees
// concurrently, one goroutine per dependency.
func (s *State) indexDependencyConfigs(ctx context.Context, rc *RequestContext, projectDir string, deps []config.DependencyConfig) ([]*IndexedProject, error) {
	results := make([]*IndexedProject, len(deps))
	errs := make([]error, len(deps))

	var wg sync.WaitGroup
	for i, dep := range deps {
		wg.Add(1)
		go func(i int, dep config.DependencyConfig) {
			defer wg.Done()
			src, err := s.findSource(ctx, rc, projectDir, dep)
			if err != nil {
				errs[i] = err
				return
			}
			results[i], errs[i] = s.IndexProject(ctx, rc, src)
		}(i, dep)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}

func (s *State) findSource(ctx context.Context, rc *RequestContext, projectDir string, dep config.DependencyConfig) (ProjectSource, error) {
	if !dep.IsMaven() {
		path := dep.Path
		if !filepath.IsAbs(path) {
			path = filepath.Join(projectDir, path)
		}
		return LocalSource(path), nil
	}

	artifactPath, err := maven.ParseArtifactPath(dep.Artifact)
	if err != nil {
		return ProjectSource{}, err
	}
	loc, err := s.findMatchingVersion(ctx, rc, artifactPath, dep.Version)
	if err != nil {
		return ProjectSource{}, err
	}
	return MavenSource(loc), nil
}

// findMatchingVersion searches every repository configured for rc, in
// order, for a published version of artifactPath matching versionSpec,
// returning the first hit.
func (s *State) findMatchingVersion(ctx context.Context, rc *RequestContext, artifactPath maven.ArtifactPath, versionSpec string) (maven.Located[maven.ArtifactVersion], error) {
	if rc.OfflineOnly {
		return maven.Located[maven.ArtifactVersion]{}, fmt.Errorf("indexer: cannot resolve %s offline", artifactPath)
	}

	var repos []config.Repository
	if rc.Workspace != nil {
		repos = rc.Workspace.Repositories
	}

	for _, repo := range repos {
		repoURL, err := url.Parse(repo.URL)
		if err != nil {
			return maven.Located[maven.ArtifactVersion]{}, fmt.Errorf("indexer: repository %q: %w", repo.Name, err)
		}
		versions, err := s.getVersions(ctx, repoURL, artifactPath)
		if err != nil {
			return maven.Located[maven.ArtifactVersion]{}, err
		}
		for _, v := range versions {
			if maven.StyleMaven.Matches(versionSpec, v.Inner.Version) {
				return v, nil
			}
		}
	}
	return maven.Located[maven.ArtifactVersion]{}, fmt.Errorf("indexer: no repository has %s matching %q", artifactPath, versionSpec)
}

func (s *State) getVersions(ctx context.Context, repo *url.URL, artifactPath maven.ArtifactPath) ([]maven.Located[maven.ArtifactVersion], error) {
	info := s.repoInfo(repo)
	result := info.artifacts.Compute(artifactPath.String(), func(string) versionsResult {
		loc := maven.NewLocated(repo, artifactPath)
		meta, err := s.fetcher.GetArtifactInfo(ctx, loc)
		if errors.Is(err, maven.ErrNotFound) {
			return versionsResult{}
		}
		if err != nil {
			return versionsResult{err: err}
		}
		out := make([]maven.Located[maven.ArtifactVersion], 0, len(meta.Versioning.Versions))
		for _, v := range meta.Versioning.Versions {
			out = append(out, maven.NewLocated(repo, artifactPath.WithVersion(v)))
		}
		return versionsResult{versions: out}
	})
	return result.versions, result.err
}

func (s *State) repoInfo(repo *url.URL) *repositoryInfo {
	key := repo.String()
	s.reposMu.Lock()
	defer s.reposMu.Unlock()
	if info, ok := s.repos[key]; ok {
		return info
	}
	info := &repositoryInfo{artifacts: cache.NewComputeCache[string, versionsResult]()}
	s.repos[key] = info
	return info
}

// computeRequiredFiles downloads and checksums the files a Maven-sourced
// project needs: its .pom and its .jar, fetched concurrently.
func (s *State) computeRequiredFiles(ctx context.Context, loc maven.Located[maven.ArtifactVersion]) ([]lockfile.RemoteFile, error) {
	pomURL, err := maven.ArtifactVersionMetadataURL(loc)
	if err != nil {
		return nil, err
	}
	jarURL, err := maven.JarURL(loc, "")
	if err != nil {
		return nil, err
	}

	var pom, jar lockfile.RemoteFile
	var pomErr, jarErr error
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		pom, pomErr = s.toRemoteFile(ctx, pomURL)
	}()
	go func() {
		defer wg.Done()
		jar, jarErr = s.toRemoteFile(ctx, jarURL)
	}()
	wg.Wait()

	if pomErr != nil {
		return nil, pomErr
	}
	if jarErr != nil {
		return nil, jarErr
	}
	return []lockfile.RemoteFile{pom, jar}, nil
}

func (s *State) toRemoteFile(ctx context.Context, u *url.URL) (lockfile.RemoteFile, error) {
	path, err := s.downloads.Get(ctx, u)
	if err != nil {
		return lockfile.RemoteFile{}, fmt.Errorf("indexer: download %s: %w", u, err)
	}
	fi, err := os.Stat(path)
	if err != nil {
		return lockfile.RemoteFile{}, err
	}
	digest, err := cache.Sha256File(path)
	if err != nil {
		return lockfile.RemoteFile{}, err
	}
	var checksum [32]byte
	n, err := hex.Decode(checksum[:], []byte(digest))
	if err != nil || n != 32 {
		return lockfile.RemoteFile{}, fmt.Errorf("indexer: decode checksum for %s: %w", u, err)
	}
	return lockfile.RemoteFile{
		Source:   u.String(),
		Checksum: checksum,
		Size:     uint64(fi.Size()),
	}, nil
}
