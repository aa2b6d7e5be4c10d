// Package storage persists catalog state as whole-file JSON blobs. Every write
// replaces the target atomically: data goes to a temporary file in the same
// directory, is synced, and is renamed over the old file.
package storage

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// File names inside a data directory.
const (
	BooksFile    = "books.json"
	TreeFile     = "Btree.json"
	ChecksumExt  = ".sum"
	LockFile     = "LOCK"
	tempFilePerm = 0o644
)

var (
	ErrChecksumMismatch = errors.New("storage: checksum mismatch")
	ErrLocked           = errors.New("storage: data directory is locked by another process")
)

// ReadJSON decodes the file at path into v. It reports false without error
// when the file does not exist.
func ReadJSON(path string, v any) (bool, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return true, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return true, nil
}

// WriteJSON encodes v with two-space indentation and atomically replaces
// path with it. When sync is false the data is not fsynced. It returns the
// bytes written so callers can checksum them.
func WriteJSON(path string, v any, sync bool) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	if err := WriteFile(path, data, sync); err != nil {
		return nil, err
	}
	return data, nil
}

// WriteFile atomically replaces path with data.
func WriteFile(path string, data []byte, sync bool) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		// No-op once the rename succeeded
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if sync {
		if err := fsync(tmp); err != nil {
			_ = tmp.Close()
			return err
		}
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, tempFilePerm); err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}
	if sync {
		return syncDir(dir)
	}
	return nil
}

// Checksum returns the hex xxhash64 of data
func Checksum(data []byte) string {
	var sum [8]byte
	h := xxhash.Sum64(data)
	for i := range sum {
		sum[i] = byte(h >> (56 - 8*i))
	}
	return hex.EncodeToString(sum[:])
}

// WriteChecksum stores the checksum of data next to path.
func WriteChecksum(path string, data []byte, sync bool) error {
	return WriteFile(path+ChecksumExt, []byte(Checksum(data)+"\n"), sync)
}

// VerifyChecksum compares the file at path with its stored checksum. A
// missing checksum file is accepted.
func VerifyChecksum(path string) error {
	want, err := os.ReadFile(path + ChecksumExt)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if got := Checksum(data); got != strings.TrimSpace(string(want)) {
		return fmt.Errorf("%w: %s has %s, expected %s",
			ErrChecksumMismatch, filepath.Base(path), got, bytes.TrimSpace(want))
	}
	return nil
}

// Remove deletes path and its checksum file, ignoring missing files.
func Remove(path string) error {
	for _, p := range []string{path, path + ChecksumExt} {
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}
