//go:build !unix

package paths

// IsLocked degrades to "assume unlocked" on platforms without flock support.
func IsLocked(path string) bool {
	return false
}
