//go:build unix

package paths

import (
	"os"

	"golang.org/x/sys/unix"
)

// IsLocked probes whether another process holds an advisory exclusive lock
// on path. The probe acquires and immediately releases a non-blocking flock;
// it never holds the lock across the caller's work. An unopenable file is
// reported as locked so callers skip it rather than corrupt it.
func IsLocked(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false
		}
		return true
	}
	defer func() { _ = f.Close() }()

	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		return true
	}
	_ = unix.Flock(int(f.Fd()), unix.LOCK_UN)
	return false
}
