package scanner

import (
	"os"
	"path/filepath"
	"sort"
)

// Entry is one immediate child of a scanned root.
type Entry struct {
	Path    string `json:"path"`
	Name    string `json:"name"`
	Size    int64  `json:"size"`
	IsDir   bool   `json:"is_dir"`
	Regular bool   `json:"regular"`
}

// ListTopLevel lists the immediate children of root, sorted by name.
// Directories are included so callers can show them; they are never
// sort candidates. Entries that vanish between listing and stat are
// skipped.
func ListTopLevel(root string) ([]Entry, error) {
	dirEntries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(dirEntries))
	for _, e := range dirEntries {
		info, err := e.Info()
		if err != nil {
			continue
		}

		entry := Entry{
			Path:    filepath.Join(root, e.Name()),
			Name:    e.Name(),
			IsDir:   e.IsDir(),
			Regular: info.Mode().IsRegular(),
		}
		if entry.Regular {
			entry.Size = info.Size()
		}
		entries = append(entries, entry)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

// Files keeps only regular files. Symlinks are dropped along with
// directories.
func Files(entries []Entry) []Entry {
	files := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if e.Regular {
			files = append(files, e)
		}
	}
	return files
}
