// lock_unsupported.go
//go:build !linux && !darwin && !freebsd && !netbsd && !openbsd

package storage

import "os"

// On platforms without flock the lock is a no-op; a second process is not
// kept out.
type Lock struct{}

func Acquire(dir string) (*Lock, error) {
	return &Lock{}, nil
}

func (l *Lock) Release() error {
	return nil
}

func fsync(f *os.File) error {
	return f.Sync()
}

func syncDir(string) error {
	return nil
}
