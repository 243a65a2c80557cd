package fileutil

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// WriteAtomic writes data to path via a temp file in the same directory plus
// rename, so a crash never leaves a truncated artifact that a later run would
// treat as already done.
func WriteAtomic(path string, data []byte, mode fs.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".tmp_artifact_*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName)
	}()

	if err := tmp.Chmod(mode); err != nil {
		_ = tmp.Close()
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmpName, path)
}

// CopyAtomic copies src to dst atomically. With overwrite false an existing
// dst is left untouched and reported as skipped.
func CopyAtomic(src, dst string, overwrite bool) (bool, error) {
	if src == "" || dst == "" {
		return false, errors.New("CopyAtomic: empty path")
	}

	if !overwrite {
		if _, err := os.Stat(dst); err == nil {
			return false, nil
		} else if !errors.Is(err, fs.ErrNotExist) {
			return false, err
		}
	}

	b, err := os.ReadFile(src)
	if err != nil {
		return false, err
	}
	if err := WriteAtomic(dst, b, 0o644); err != nil {
		return false, err
	}
	return true, nil
}
