// Package atomicfile replaces files without exposing partially written content.
package atomicfile

import (
	"fmt"
	"os"
	"path/filepath"
)

// DefaultPerm is used for new files when no mode is given.
const DefaultPerm os.FileMode = 0o644

// WriteFile writes data to a temporary file next to path, syncs it and
// renames it over path. Readers observe either the old or the new content.
//
// A zero perm keeps the mode of an existing file, or DefaultPerm otherwise.
func WriteFile(path string, data []byte, perm os.FileMode) error {
	if perm == 0 {
		perm = DefaultPerm
		if st, err := os.Stat(path); err == nil {
			perm = st.Mode().Perm()
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	tmpPath := tmp.Name()
	committed := false
	defer func() {
		_ = tmp.Close()
		if !committed {
			_ = os.Remove(tmpPath)
		}
	}()

	if err := tmp.Chmod(perm); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}

	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}

	committed = true
	return nil
}
