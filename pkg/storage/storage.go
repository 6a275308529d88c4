// Package storage is the on-disk object store for Wasm function binaries.
// It is an external collaborator at the core's boundary: the core itself
// only ever sees a filesystem path, never this package.
package storage

import (
	"io"
	"os"
	"path/filepath"

	"github.com/fluorfn/runtime/pkg/function"
)

// Store lays out Wasm binaries under root as {root}/{name}.wasm.
type Store struct {
	root string
}

// New returns a Store rooted at root. The directory is created if absent.
func New(root string) (*Store, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, function.Wrap(function.KindInternal, "storage.New", "create storage root "+root, err)
	}
	return &Store{root: root}, nil
}

// Path returns the canonical on-disk path for name, without checking that
// it exists.
func (s *Store) Path(name string) string {
	return filepath.Join(s.root, name+".wasm")
}

// Put atomically copies src into place at Path(name): the binary is
// written to a temporary file in the same directory and renamed over the
// final path only once the write has fully succeeded, so a failed copy
// never leaves a partial artifact where a caller might persist a
// descriptor pointing at it.
func (s *Store) Put(name string, src io.Reader) (string, error) {
	dest := s.Path(name)
	tmp, err := os.CreateTemp(s.root, name+".wasm.tmp-*")
	if err != nil {
		return "", function.Wrap(function.KindInternal, "storage.Put", "create temp file", err)
	}
	tmpPath := tmp.Name()

	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", function.Wrap(function.KindInternal, "storage.Put", "copy wasm binary", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return "", function.Wrap(function.KindInternal, "storage.Put", "close temp file", err)
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		os.Remove(tmpPath)
		return "", function.Wrap(function.KindInternal, "storage.Put", "persist wasm binary", err)
	}
	return dest, nil
}

// Remove deletes the binary for name. Per the design's treatment of
// binary cleanup as advisory, callers should log rather than fail a
// function deletion if Remove errors (see DESIGN.md).
func (s *Store) Remove(name string) error {
	if err := os.Remove(s.Path(name)); err != nil && !os.IsNotExist(err) {
		return function.Wrap(function.KindInternal, "storage.Remove", "remove wasm binary", err)
	}
	return nil
}

// Exists reports whether a binary is present for name.
func (s *Store) Exists(name string) bool {
	_, err := os.Stat(s.Path(name))
	return err == nil
}
