package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// DownloadCache fetches remote artifacts into a local directory, keyed by
// their URL's file name, reusing an already-downloaded file instead of
// re-fetching it.
type DownloadCache struct {
	Dir    string
	Client *http.Client
	log    *logrus.Entry
}

// NewDownloadCache constructs a DownloadCache rooted at dir. A nil client
// uses http.DefaultClient.
func NewDownloadCache(dir string, client *http.Client, log *logrus.Entry) *DownloadCache {
	if client == nil {
		client = http.DefaultClient
	}
	return &DownloadCache{Dir: dir, Client: client, log: log}
}

// lockSuffix names the in-progress marker file convention: `.name.__download__`.
// Its presence means some process — possibly another instance of this tool
// entirely, not just another goroutine — is currently writing `name`.
const lockSuffix = ".__download__"

// Get returns the local path to the file at u, downloading it first if it
// isn't already cached. Concurrent downloads of the same file, even across
// separate process instances sharing Dir, race safely: exactly one writer
// wins the create-new on the lock file, and everyone else polls until the
// final file appears.
func (d *DownloadCache) Get(ctx context.Context, u *url.URL) (string, error) {
	fileName := fileNameOf(u)
	if fileName == "" {
		return "", fmt.Errorf("cache: url %q has no file name", u)
	}

	if err := os.MkdirAll(d.Dir, 0o755); err != nil {
		return "", err
	}

	dest := filepath.Join(d.Dir, fileName)
	if _, err := os.Stat(dest); err == nil {
		d.log.WithField("file", fileName).Debug("using cached download")
		return dest, nil
	}

	lockPath := filepath.Join(d.Dir, fileName+lockSuffix)
	warned := false

	for {
		f, err := os.OpenFile(lockPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			return d.downloadInto(ctx, u, dest, lockPath, f)
		}
		if !os.IsExist(err) {
			return "", err
		}

		if !warned {
			d.log.WithFields(logrus.Fields{
				"file": fileName,
				"lock": lockPath,
			}).Warn("file is being downloaded by another process; delete the lock file if this hangs")
			warned = true
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(500 * time.Millisecond):
		}

		if _, err := os.Stat(dest); err == nil {
			return dest, nil
		}
	}
}

func (d *DownloadCache) downloadInto(ctx context.Context, u *url.URL, dest, lockPath string, f *os.File) (string, error) {
	defer f.Close()

	d.log.WithField("url", u.String()).Info("downloading")

	if err := d.streamTo(ctx, u, f); err != nil {
		os.Remove(lockPath)
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(lockPath)
		return "", err
	}
	if err := os.Rename(lockPath, dest); err != nil {
		os.Remove(lockPath)
		return "", err
	}
	return dest, nil
}

func (d *DownloadCache) streamTo(ctx context.Context, u *url.URL, dst io.Writer) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return err
	}
	resp, err := d.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("cache: GET %s: unexpected status %s", u, resp.Status)
	}

	_, err = io.Copy(dst, resp.Body)
	return err
}

func fileNameOf(u *url.URL) string {
	segments := strings.Split(strings.TrimSuffix(u.Path, "/"), "/")
	if len(segments) == 0 {
		return ""
	}
	return segments[len(segments)-1]
}

// Sha256File hashes path in streaming 4096-byte chunks, matching the
// fixed-size read loop convention used elsewhere in this module's I/O
// code rather than reading the whole file into memory.
func Sha256File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	buf := make([]byte, 4096)
	for {
		n, err := f.Read(buf)
		if n > 0 {
			h.Write(buf[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
