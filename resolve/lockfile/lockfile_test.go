package lockfile

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkspaceLockRoundtrip(t *testing.T) {
	lock := &WorkspaceLock{}
	lock.Upsert(Package{
		Name:    "guava",
		Version: "32.1.0",
		Sources: []RemoteFile{
			{Source: "https://repo1.maven.org/maven2/com/google/guava/guava/32.1.0/guava-32.1.0.jar", Checksum: [32]byte{1, 2, 3}, Size: 1234},
		},
		Dependencies: []Dependency{
			{Name: "failureaccess", Version: "1.0.1"},
		},
	})

	var buf bytes.Buffer
	require.NoError(t, lock.Write(&buf))

	decoded, err := Read(&buf)
	require.NoError(t, err)
	require.Len(t, decoded.Packages, 1)
	assert.Equal(t, "guava", decoded.Packages[0].Name)
	assert.Equal(t, "32.1.0", decoded.Packages[0].Version)
	require.Len(t, decoded.Packages[0].Sources, 1)
	assert.Equal(t, uint64(1234), decoded.Packages[0].Sources[0].Size)
	assert.Equal(t, [32]byte{1, 2, 3}, decoded.Packages[0].Sources[0].Checksum)
	require.Len(t, decoded.Packages[0].Dependencies, 1)
	assert.Equal(t, "failureaccess", decoded.Packages[0].Dependencies[0].Name)
}

func TestUpsertInsertsSortedByNameThenVersion(t *testing.T) {
	lock := &WorkspaceLock{}
	lock.Upsert(Package{Name: "zeta", Version: "1.0"})
	lock.Upsert(Package{Name: "alpha", Version: "2.0"})
	lock.Upsert(Package{Name: "alpha", Version: "1.0"})

	require.Len(t, lock.Packages, 3)
	assert.Equal(t, "alpha", lock.Packages[0].Name)
	assert.Equal(t, "1.0", lock.Packages[0].Version)
	assert.Equal(t, "alpha", lock.Packages[1].Name)
	assert.Equal(t, "2.0", lock.Packages[1].Version)
	assert.Equal(t, "zeta", lock.Packages[2].Name)
}

func TestUpsertOverwritesExactMatch(t *testing.T) {
	lock := &WorkspaceLock{}
	lock.Upsert(Package{Name: "guava", Version: "32.1.0", Dependencies: []Dependency{{Name: "old", Version: "1.0"}}})
	lock.Upsert(Package{Name: "guava", Version: "32.1.0", Dependencies: []Dependency{{Name: "new", Version: "2.0"}}})

	require.Len(t, lock.Packages, 1)
	require.Len(t, lock.Packages[0].Dependencies, 1)
	assert.Equal(t, "new", lock.Packages[0].Dependencies[0].Name)
}

func TestReadRejectsTruncatedInput(t *testing.T) {
	var buf bytes.Buffer
	lock := &WorkspaceLock{}
	lock.Upsert(Package{Name: "guava", Version: "32.1.0"})
	require.NoError(t, lock.Write(&buf))

	truncated := buf.Bytes()[:buf.Len()-2]
	_, err := Read(bytes.NewReader(truncated))
	assert.Error(t, err)
}
