package xfs

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ExpandTilde replaces a leading tilde (~) with the user's home directory.
func ExpandTilde(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path[1:], "/"))
		}
	}

	return path
}

// Exists reports whether path exists. Errors other than "not exist" count as existing.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return !errors.Is(err, fs.ErrNotExist)
}

// CheckWritableDir verifies that dir is a directory the process can create files in.
func CheckWritableDir(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return &fs.PathError{Op: "stat", Path: dir, Err: errors.New("not a directory")}
	}

	f, err := os.CreateTemp(dir, ".yoloexport-probe-*")
	if err != nil {
		return err
	}
	name := f.Name()
	f.Close()

	return os.Remove(name)
}
