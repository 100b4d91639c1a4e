// Package lockfile implements the workspace lockfile's binary format: the
// set of resolved packages, their remote sources and checksums, and their
// dependency edges, serialized with the same length-prefixed binary
// discipline as the jvmapi wire protocol.
package lockfile

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"sort"
)

// WorkspaceLock is the root of a resolved workspace's lockfile: every
// package that was resolved, keyed implicitly by (Name, Version) and kept
// sorted by that key so the serialized file diffs cleanly and binary
// search works on the in-memory slice.
type WorkspaceLock struct {
	Packages []Package
}

// Package is one resolved, locked dependency: its identity, the remote
// files that make it up, and the direct dependencies it was resolved
// against.
type Package struct {
	Name         string
	Version      string
	Sources      []RemoteFile
	Dependencies []Dependency
}

// Dependency references another locked Package by its (Name, Version).
type Dependency struct {
	Name    string
	Version string
}

// RemoteFile is a content-addressed source file backing a locked package.
// Http is currently the only variant; the tagged encoding leaves room for
// others (e.g. a future local/path-relative source) without breaking the
// wire format.
type RemoteFile struct {
	Source   string
	Checksum [32]byte
	Size     uint64
}

const remoteFileVariantHTTP = 0

// packageKey returns the (name, version) pair Packages is kept sorted and
// searched by.
func packageKey(name, version string) string {
	return name + "\x00" + version
}

// Upsert inserts pkg in sorted position, or overwrites the existing entry
// for the same (Name, Version) if one is already present, keeping
// re-resolving a workspace idempotent.
func (l *WorkspaceLock) Upsert(pkg Package) {
	key := packageKey(pkg.Name, pkg.Version)
	i := sort.Search(len(l.Packages), func(i int) bool {
		return packageKey(l.Packages[i].Name, l.Packages[i].Version) >= key
	})
	if i < len(l.Packages) && packageKey(l.Packages[i].Name, l.Packages[i].Version) == key {
		l.Packages[i] = pkg
		return
	}
	l.Packages = append(l.Packages, Package{})
	copy(l.Packages[i+1:], l.Packages[i:])
	l.Packages[i] = pkg
}

// Write serializes the lockfile to w.
func (l *WorkspaceLock) Write(w io.Writer) error {
	var buf bytes.Buffer
	bw := &writer{w: &buf}
	bw.u64(uint64(len(l.Packages)))
	for _, p := range l.Packages {
		writePackage(bw, p)
	}
	if bw.err != nil {
		return bw.err
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// Read deserializes a lockfile from r.
func Read(r io.Reader) (*WorkspaceLock, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	br := &reader{r: bytes.NewReader(data)}
	n := br.u64()
	packages := make([]Package, 0, n)
	for i := uint64(0); i < n && br.err == nil; i++ {
		packages = append(packages, readPackage(br))
	}
	if br.err != nil {
		return nil, fmt.Errorf("lockfile: malformed lockfile: %w", br.err)
	}
	return &WorkspaceLock{Packages: packages}, nil
}

func writePackage(w *writer, p Package) {
	w.str(p.Name)
	w.str(p.Version)
	w.u64(uint64(len(p.Sources)))
	for _, s := range p.Sources {
		writeRemoteFile(w, s)
	}
	w.u64(uint64(len(p.Dependencies)))
	for _, d := range p.Dependencies {
		w.str(d.Name)
		w.str(d.Version)
	}
}

func readPackage(r *reader) Package {
	name := r.str()
	version := r.str()
	nSources := r.u64()
	sources := make([]RemoteFile, 0, nSources)
	for i := uint64(0); i < nSources && r.err == nil; i++ {
		sources = append(sources, readRemoteFile(r))
	}
	nDeps := r.u64()
	deps := make([]Dependency, 0, nDeps)
	for i := uint64(0); i < nDeps && r.err == nil; i++ {
		deps = append(deps, Dependency{Name: r.str(), Version: r.str()})
	}
	return Package{Name: name, Version: version, Sources: sources, Dependencies: deps}
}

func writeRemoteFile(w *writer, f RemoteFile) {
	w.u32(remoteFileVariantHTTP)
	w.str(f.Source)
	w.w.Write(f.Checksum[:])
	w.u64(f.Size)
}

func readRemoteFile(r *reader) RemoteFile {
	variant := r.u32()
	if variant != remoteFileVariantHTTP {
		r.fail(fmt.Errorf("unknown RemoteFile variant %d", variant))
		return RemoteFile{}
	}
	source := r.str()
	var checksum [32]byte
	if _, err := io.ReadFull(r.r, checksum[:]); err != nil {
		r.fail(err)
		return RemoteFile{}
	}
	size := r.u64()
	return RemoteFile{Source: source, Checksum: checksum, Size: size}
}

type writer struct {
	w   *bytes.Buffer
	err error
}

func (w *writer) u32(v uint32) {
	if w.err != nil {
		return
	}
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	w.w.Write(tmp[:])
}

func (w *writer) u64(v uint64) {
	if w.err != nil {
		return
	}
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], v)
	w.w.Write(tmp[:])
}

func (w *writer) str(s string) {
	w.u64(uint64(len(s)))
	w.w.Write([]byte(s))
}

type reader struct {
	r   *bytes.Reader
	err error
}

func (r *reader) fail(err error) {
	if r.err == nil {
		r.err = err
	}
}

func (r *reader) u32() uint32 {
	if r.err != nil {
		return 0
	}
	var tmp [4]byte
	if _, err := io.ReadFull(r.r, tmp[:]); err != nil {
		r.fail(err)
		return 0
	}
	return binary.LittleEndian.Uint32(tmp[:])
}

func (r *reader) u64() uint64 {
	if r.err != nil {
		return 0
	}
	var tmp [8]byte
	if _, err := io.ReadFull(r.r, tmp[:]); err != nil {
		r.fail(err)
		return 0
	}
	return binary.LittleEndian.Uint64(tmp[:])
}

func (r *reader) str() string {
	if r.err != nil {
		return ""
	}
	n := r.u64()
	if r.err != nil {
		return ""
	}
	if n > uint64(r.r.Len()) {
		r.fail(fmt.Errorf("string length %d exceeds remaining buffer", n))
		return ""
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r.r, buf); err != nil {
		r.fail(err)
		return ""
	}
	return string(buf)
}
