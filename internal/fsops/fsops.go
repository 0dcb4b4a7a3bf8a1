// Package fsops is the filesystem capability the file tools call into.
//
// Paths handed to an FS are the caller's paths. Relative paths resolve
// against the FS base directory when one is set, otherwise against the
// process working directory.
package fsops

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"syscall"
)

// FS is the subset of filesystem access the tools need.
type FS interface {
	Stat(name string) (fs.FileInfo, error)
	ReadDir(name string) ([]fs.DirEntry, error)
	ReadFile(name string) ([]byte, error)
}

// OS returns an FS backed by the host filesystem, rooted at baseDir for
// relative paths. An empty baseDir means the working directory.
func OS(baseDir string) FS {
	return osFS{base: baseDir}
}

type osFS struct {
	base string
}

func (o osFS) resolve(name string) string {
	if o.base == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(o.base, name)
}

func (o osFS) Stat(name string) (fs.FileInfo, error) {
	return os.Stat(o.resolve(name))
}

func (o osFS) ReadDir(name string) ([]fs.DirEntry, error) {
	return os.ReadDir(o.resolve(name))
}

func (o osFS) ReadFile(name string) ([]byte, error) {
	return os.ReadFile(o.resolve(name))
}

// IsNotExist reports whether err means the path is absent, including the case
// where a parent component is a regular file.
func IsNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist) || errors.Is(err, syscall.ENOTDIR)
}
