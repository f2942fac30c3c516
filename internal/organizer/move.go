package organizer

import (
	"errors"
	"os"
	"syscall"

	"github.com/otiai10/copy"
)

// moveFile renames src to dst, falling back to copy and delete when they
// sit on different volumes.
func moveFile(src, dst string) error {
	err := os.Rename(src, dst)
	if err == nil || !errors.Is(err, syscall.EXDEV) {
		return err
	}

	if err := copy.Copy(src, dst, copy.Options{PreserveTimes: true, Sync: true}); err != nil {
		_ = os.Remove(dst)
		return err
	}
	return os.Remove(src)
}
