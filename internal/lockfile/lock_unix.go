//go:build unix

package lockfile

import (
	"os"

	"golang.org/x/sys/unix"
)

// flock locks are per open file description, so two handles in one process
// exclude each other just like two processes do.
func flockExclusiveNonBlock(f *os.File) error {
	err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB)
	if err == unix.EWOULDBLOCK {
		return ErrLockBusy
	}
	return err
}

func flockUnlock(f *os.File) error {
	return unix.Flock(int(f.Fd()), unix.LOCK_UN)
}
