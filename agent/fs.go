package agent

import (
	"fmt"
	"golang.org/x/sys/unix"
)

// CheckWritableDir returns an error unless files can be created in dir.
func CheckWritableDir(dir string) error {
	if err := unix.Access(dir, unix.W_OK|unix.X_OK); err != nil {
		return fmt.Errorf("`%s` does not exist or is not writable: %w", dir, err)
	}
	return nil
}
