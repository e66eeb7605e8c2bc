package playlist

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"pixelframe/internal/decode"
)

// ErrNoAssets means no directory under the root holds a supported file.
var ErrNoAssets = errors.New("playlist: no supported assets found")

// Scan finds the playlist directory below root and returns the sorted asset
// paths inside it. The root is considered first; otherwise subdirectories
// are visited depth first and the first one with at least one supported
// file wins.
func Scan(root string) (string, []string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return "", nil, fmt.Errorf("stat assets root: %w", err)
	}
	if !info.IsDir() {
		return "", nil, fmt.Errorf("assets root is not a directory: %s", root)
	}

	dir, entries := findFirstPopulated(root)
	if dir == "" {
		return "", nil, fmt.Errorf("%w under %s", ErrNoAssets, root)
	}
	return dir, entries, nil
}

func findFirstPopulated(dir string) (string, []string) {
	listing, err := os.ReadDir(dir)
	if err != nil {
		return "", nil
	}

	var files []string
	var subdirs []string
	for _, entry := range listing {
		name := entry.Name()
		if entry.IsDir() {
			subdirs = append(subdirs, filepath.Join(dir, name))
			continue
		}
		if decode.Supported(name) {
			files = append(files, filepath.Join(dir, name))
		}
	}

	if len(files) > 0 {
		sortEntries(files)
		return dir, files
	}

	sort.Strings(subdirs)
	for _, sub := range subdirs {
		if found, entries := findFirstPopulated(sub); found != "" {
			return found, entries
		}
	}
	return "", nil
}

// sortEntries orders paths bytewise by base name so "B.png" sorts before
// "a.gif".
func sortEntries(paths []string) {
	sort.Slice(paths, func(i, j int) bool {
		return filepath.Base(paths[i]) < filepath.Base(paths[j])
	})
}
