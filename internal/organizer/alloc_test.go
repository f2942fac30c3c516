package organizer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(filepath.Base(path)), 0644))
}

func TestAllocate_FreeSlot(t *testing.T) {
	dir := t.TempDir()
	assert.Equal(t, filepath.Join(dir, "a.txt"), Allocate(dir, "a.txt"))
}

func TestAllocate_CountsUp(t *testing.T) {
	dir := t.TempDir()

	touch(t, filepath.Join(dir, "a.txt"))
	first := Allocate(dir, "a.txt")
	assert.Equal(t, filepath.Join(dir, "a (1).txt"), first)

	touch(t, first)
	assert.Equal(t, filepath.Join(dir, "a (2).txt"), Allocate(dir, "a.txt"))
}

func TestAllocate_NoExtensionAndDotfiles(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "Makefile"))
	touch(t, filepath.Join(dir, ".bashrc"))

	assert.Equal(t, filepath.Join(dir, "Makefile (1)"), Allocate(dir, "Makefile"))
	assert.Equal(t, filepath.Join(dir, ".bashrc (1)"), Allocate(dir, ".bashrc"))
}

func TestAllocate_DirectoryOccupiesSlot(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "notes.md"), 0755))

	assert.Equal(t, filepath.Join(dir, "notes (1).md"), Allocate(dir, "notes.md"))
}
