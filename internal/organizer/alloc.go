package organizer

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Allocate returns dir/name if nothing exists there yet, otherwise the
// first free "stem (n).ext" for n = 1, 2, ...
//
// The check and the later move are not atomic; a file created in between
// by someone else can still be overwritten on platforms where rename
// replaces.
func Allocate(dir, name string) string {
	return allocate(dir, name, exists)
}

func allocate(dir, name string, taken func(string) bool) string {
	candidate := filepath.Join(dir, name)
	if !taken(candidate) {
		return candidate
	}

	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	if stem == "" {
		// ".bashrc" has no extension, only a stem.
		stem, ext = name, ""
	}

	for i := 1; ; i++ {
		candidate = filepath.Join(dir, fmt.Sprintf("%s (%d)%s", stem, i, ext))
		if !taken(candidate) {
			return candidate
		}
	}
}

func exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}
