// Package flock provides cross-platform file locking utilities.
//
// The NAS store guards its share root with an exclusive, non-blocking
// lock so two daemons cannot sync the same folder against each other.
//
// Usage:
//
//	file, _ := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0600)
//	if err := flock.Exclusive(file.Fd()); err != nil {
//	    // Lock not acquired - file is in use
//	}
//	defer flock.Unlock(file.Fd())
package flock
