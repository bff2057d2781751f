package models

import (
	"dualsub/internal/fileutil"
	"dualsub/internal/services"
)

// Removal records one cache directory considered for cleanup.
type Removal struct {
	Path    string
	Removed bool
}

// CleanCaches removes each directory that exists. Missing directories are
// reported with Removed=false. The first failure stops the sweep.
func CleanCaches(dirs []string) ([]Removal, error) {
	results := make([]Removal, 0, len(dirs))
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		removed, err := fileutil.RemoveAllIfExists(dir)
		if err != nil {
			return results, &services.IOError{Op: "remove", Path: dir, Err: err}
		}
		results = append(results, Removal{Path: dir, Removed: removed})
	}
	return results, nil
}
