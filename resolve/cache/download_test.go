package cache

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/origami-build/origami/internal/logging"
)

func TestDownloadCacheFetchesAndReuses(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Write([]byte("artifact-bytes"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	dc := NewDownloadCache(dir, srv.Client(), logging.Discard())

	u, err := url.Parse(srv.URL + "/group/artifact-1.0.jar")
	require.NoError(t, err)

	path, err := dc.Get(context.Background(), u)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "artifact-1.0.jar"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "artifact-bytes", string(data))

	_, err = dc.Get(context.Background(), u)
	require.NoError(t, err)
	assert.EqualValues(t, 1, hits)
}

func TestDownloadCacheRejectsURLWithNoFileName(t *testing.T) {
	dc := NewDownloadCache(t.TempDir(), nil, logging.Discard())
	u, err := url.Parse("https://example.com/")
	require.NoError(t, err)

	_, err = dc.Get(context.Background(), u)
	assert.Error(t, err)
}

func TestSha256FileMatchesKnownDigest(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello world"), 0o644))

	sum, err := Sha256File(path)
	require.NoError(t, err)
	assert.Equal(t, "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9", sum)
}
