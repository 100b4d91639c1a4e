// Command oresolve walks a workspace's dependency declarations, resolves
// each one against its configured Maven repositories (or local workspace
// paths), downloads and checksums whatever files back them, and writes
// the result to an origami.lock file.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/origami-build/origami/internal/logging"
	"github.com/origami-build/origami/resolve/cache"
	"github.com/origami-build/origami/resolve/config"
	"github.com/origami-build/origami/resolve/indexer"
	"github.com/origami-build/origami/resolve/lockfile"
	"github.com/origami-build/origami/resolve/maven"
)

const defaultCacheDir = "origami/cache"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	var (
		cacheDir    string
		update      bool
		offlineOnly bool
		verbose     bool
	)

	cmd := &cobra.Command{
		Use:           "oresolve",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(*cobra.Command, []string) error {
			return resolve(cacheDir, update, offlineOnly, verbose)
		},
	}
	cmd.Flags().StringVar(&cacheDir, "cache-dir", defaultCacheDir, "directory to cache downloaded artifacts in")
	cmd.Flags().BoolVarP(&update, "update", "u", false, "re-resolve dependencies even if a lockfile already exists")
	cmd.Flags().BoolVarP(&offlineOnly, "offline-only", "O", false, "fail rather than contact any repository")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "emit debug-level logs")
	cmd.SetArgs(args)

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "oresolve:", err)
		return 1
	}
	return 0
}

func resolve(cacheDir string, update, offlineOnly, verbose bool) error {
	log := logging.New("oresolve", nil)
	if verbose {
		log.Logger.SetLevel(logrus.DebugLevel)
	}

	lockPath := "origami.lock"
	if !update {
		if _, err := os.Stat(lockPath); err == nil {
			log.Info("origami.lock already exists; pass -u to re-resolve")
			return nil
		}
	}

	wd, err := os.Getwd()
	if err != nil {
		return err
	}

	wsConfig, err := config.LoadWorkspace(filepath.Join(wd, "origami-workspace.toml"))
	if err != nil {
		return err
	}

	client := http.DefaultClient
	downloads := cache.NewDownloadCache(cacheDir, client, log)
	fetcher := maven.NewFetcher(client)
	state := indexer.NewState(downloads, fetcher, log)

	rc := &indexer.RequestContext{OfflineOnly: offlineOnly, Workspace: wsConfig}

	project, err := state.IndexProject(context.Background(), rc, indexer.LocalSource(wd))
	if err != nil {
		return fmt.Errorf("resolve workspace: %w", err)
	}

	lock := &lockfile.WorkspaceLock{}
	populateLock(lock, project)

	f, err := os.Create(lockPath)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := lock.Write(f); err != nil {
		return fmt.Errorf("write %s: %w", lockPath, err)
	}

	log.Infof("resolved %d packages to %s", len(lock.Packages), lockPath)
	return nil
}

// populateLock walks project's dependency tree and upserts every node
// (including project itself) into lock, sorted and deduplicated by
// (name, version).
func populateLock(lock *lockfile.WorkspaceLock, project *indexer.IndexedProject) {
	lock.Upsert(toPackage(project))
	for _, dep := range project.Dependencies {
		populateLock(lock, dep)
	}
}

func toPackage(project *indexer.IndexedProject) lockfile.Package {
	deps := make([]lockfile.Dependency, 0, len(project.Dependencies))
	for _, d := range project.Dependencies {
		deps = append(deps, lockfile.Dependency{Name: d.Name, Version: d.Version})
	}
	return lockfile.Package{
		Name:         project.Name,
		Version:      project.Version,
		Sources:      project.Sources,
		Dependencies: deps,
	}
}
