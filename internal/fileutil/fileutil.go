package fileutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Pending is a file to be published by WriteAllAtomic.
type Pending struct {
	Path string
	Data []byte
	Mode os.FileMode
}

// WriteFileAtomic writes data to a temp file beside path and renames it into
// place, so readers never observe a partially written file.
func WriteFileAtomic(path string, data []byte, mode os.FileMode) error {
	return WriteAllAtomic([]Pending{{Path: path, Data: data, Mode: mode}})
}

// WriteAllAtomic publishes every file or none of them. All payloads are first
// written to temp files in their destination directories; only then are they
// renamed. Existing destinations are moved aside first, so if a rename fails
// the files this call already published are replaced by their previous
// contents (or removed when there were none).
func WriteAllAtomic(files []Pending) error {
	temps := make([]string, 0, len(files))
	cleanup := func() {
		for _, tmp := range temps {
			_ = os.Remove(tmp)
		}
	}

	for _, f := range files {
		tmp, err := writeTemp(f)
		if err != nil {
			cleanup()
			return err
		}
		temps = append(temps, tmp)
	}

	published := make([]publication, 0, len(files))
	rollback := func() {
		for i := len(published) - 1; i >= 0; i-- {
			published[i].undo()
		}
	}
	for i, f := range files {
		backup, err := moveAside(f.Path)
		if err != nil {
			rollback()
			for _, tmp := range temps[i:] {
				_ = os.Remove(tmp)
			}
			return err
		}
		pub := publication{path: f.Path, backup: backup}
		if err := os.Rename(temps[i], f.Path); err != nil {
			pub.restore()
			rollback()
			for _, tmp := range temps[i:] {
				_ = os.Remove(tmp)
			}
			return fmt.Errorf("rename %s: %w", f.Path, err)
		}
		published = append(published, pub)
	}
	for _, pub := range published {
		if pub.backup != "" {
			_ = os.Remove(pub.backup)
		}
	}
	return nil
}

// publication is one renamed destination and the previous file it displaced.
type publication struct {
	path   string
	backup string
}

// restore puts the displaced file back, if any.
func (p publication) restore() {
	if p.backup != "" {
		_ = os.Rename(p.backup, p.path)
	}
}

// undo reverts a completed rename.
func (p publication) undo() {
	if p.backup == "" {
		_ = os.Remove(p.path)
		return
	}
	p.restore()
}

// moveAside renames an existing regular file at path to a backup beside it
// and returns the backup path, or "" when there is nothing to keep.
func moveAside(path string) (string, error) {
	info, err := os.Lstat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("stat %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return "", nil
	}
	reserved, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.bak")
	if err != nil {
		return "", fmt.Errorf("reserve backup for %s: %w", path, err)
	}
	backup := reserved.Name()
	_ = reserved.Close()
	if err := os.Rename(path, backup); err != nil {
		_ = os.Remove(backup)
		return "", fmt.Errorf("back up %s: %w", path, err)
	}
	return backup, nil
}

func writeTemp(f Pending) (string, error) {
	if f.Path == "" {
		return "", errors.New("write file: empty path")
	}
	mode := f.Mode
	if mode == 0 {
		mode = 0o644
	}
	out, err := os.CreateTemp(filepath.Dir(f.Path), "."+filepath.Base(f.Path)+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("create temp for %s: %w", f.Path, err)
	}
	tmp := out.Name()
	if _, err := out.Write(f.Data); err != nil {
		_ = out.Close()
		_ = os.Remove(tmp)
		return "", fmt.Errorf("write temp for %s: %w", f.Path, err)
	}
	if err := out.Sync(); err != nil {
		_ = out.Close()
		_ = os.Remove(tmp)
		return "", fmt.Errorf("sync temp for %s: %w", f.Path, err)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("close temp for %s: %w", f.Path, err)
	}
	if err := os.Chmod(tmp, mode); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("chmod temp for %s: %w", f.Path, err)
	}
	return tmp, nil
}

// RemoveAllIfExists removes path and reports whether anything was there.
func RemoveAllIfExists(path string) (bool, error) {
	if _, err := os.Lstat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	if err := os.RemoveAll(path); err != nil {
		return false, err
	}
	return true, nil
}
