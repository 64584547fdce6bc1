// Package storage owns the physical bytes of submitted material: path
// resolution inside the data root, unrecoverable deletion, renames during
// designation rotation and bulk archive construction.
package storage

import (
	"archive/zip"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ErrBadPath reports a collection id or filename that would escape the data root.
var ErrBadPath = errors.New("storage: invalid path component")

type Store struct {
	root string
	tmp  string
}

// New creates the data root (and an adjacent tmp dir for archives) if needed.
func New(root string) (*Store, error) {
	tmp := filepath.Join(root, "tmp")
	if err := os.MkdirAll(tmp, 0700); err != nil {
		return nil, fmt.Errorf("storage: create data root: %w", err)
	}
	return &Store{root: root, tmp: tmp}, nil
}

// Path resolves a (collection, filename) pair to an absolute path, rejecting
// anything that could traverse out of the collection directory.
func (s *Store) Path(fsID, filename string) (string, error) {
	if err := checkComponent(fsID); err != nil {
		return "", err
	}
	if err := checkComponent(filename); err != nil {
		return "", err
	}
	return filepath.Join(s.root, fsID, filename), nil
}

// CollectionDir resolves a collection's directory.
func (s *Store) CollectionDir(fsID string) (string, error) {
	if err := checkComponent(fsID); err != nil {
		return "", err
	}
	return filepath.Join(s.root, fsID), nil
}

func checkComponent(c string) error {
	if c == "" || strings.Contains(c, "..") ||
		strings.ContainsAny(c, `/\`) || strings.HasPrefix(c, ".") {
		return ErrBadPath
	}
	return nil
}

// WriteFile writes data at path, creating the collection directory on first use.
func (s *Store) WriteFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// Rename atomically renames a submission file within its collection.
func (s *Store) Rename(oldPath, newPath string) error {
	return os.Rename(oldPath, newPath)
}

// SecureUnlink overwrites the file content with random bytes, syncs, and
// unlinks it. Removal of a directory entry alone is not secure deletion.
func (s *Store) SecureUnlink(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	if err := overwrite(path, info.Size()); err != nil {
		return err
	}
	return os.Remove(path)
}

func overwrite(path string, size int64) error {
	f, err := os.OpenFile(path, os.O_WRONLY, 0600)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := io.CopyN(f, rand.Reader, size); err != nil {
		return err
	}
	return f.Sync()
}

// SecureDeleteAll securely unlinks every file under dir and removes the tree.
func (s *Store) SecureDeleteAll(dir string) error {
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		return s.SecureUnlink(path)
	})
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return os.RemoveAll(dir)
}

// Archive builds a zip of the given files under a single top-level directory
// and returns the absolute path of the archive. Entries keep their base names.
func (s *Store) Archive(paths []string, zipDirectory, archiveName string) (string, error) {
	out := filepath.Join(s.tmp, archiveName)

	f, err := os.OpenFile(out, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return "", err
	}

	zw := zip.NewWriter(f)
	for _, p := range paths {
		if err := addToZip(zw, p, zipDirectory); err != nil {
			_ = zw.Close()
			_ = f.Close()
			_ = os.Remove(out)
			return "", fmt.Errorf("storage: archive %s: %w", filepath.Base(p), err)
		}
	}

	if err := zw.Close(); err != nil {
		_ = f.Close()
		_ = os.Remove(out)
		return "", err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(out)
		return "", err
	}
	return out, nil
}

func addToZip(zw *zip.Writer, path, zipDirectory string) error {
	src, err := os.Open(path)
	if err != nil {
		return err
	}
	defer src.Close()

	w, err := zw.Create(filepath.ToSlash(filepath.Join(zipDirectory, filepath.Base(path))))
	if err != nil {
		return err
	}
	_, err = io.Copy(w, src)
	return err
}
