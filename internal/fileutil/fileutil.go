package fileutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// SamePath reports whether a and b name the same file. Paths that do not exist
// yet compare by their cleaned absolute form; existing files are compared by
// identity so hard links and symlinks are caught too.
func SamePath(a, b string) (bool, error) {
	absA, err := absClean(a)
	if err != nil {
		return false, err
	}
	absB, err := absClean(b)
	if err != nil {
		return false, err
	}
	if absA == absB {
		return true, nil
	}
	infoA, errA := os.Stat(absA)
	infoB, errB := os.Stat(absB)
	if errA != nil || errB != nil {
		return false, nil
	}
	return os.SameFile(infoA, infoB), nil
}

// RemoveIfExists deletes path and treats a missing file as success. It
// reports whether something was removed.
func RemoveIfExists(path string) (bool, error) {
	if path == "" {
		return false, nil
	}
	err := os.Remove(path)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, os.ErrNotExist):
		return false, nil
	default:
		return false, fmt.Errorf("remove %s: %w", path, err)
	}
}

// RegularFileSize returns the size of path, failing when it is not a regular file.
func RegularFileSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	if !info.Mode().IsRegular() {
		return 0, fmt.Errorf("%s is not a regular file", path)
	}
	return info.Size(), nil
}

func absClean(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.Clean(abs), nil
}
