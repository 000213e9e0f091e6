// Package watch holds the run-mode snapshot and the command grammar that
// mutates it. Everything here is pure: no I/O, no clocks, no side effects.
package watch

// Config is an immutable snapshot of the run mode. Transitions return a
// fresh value; a Config is never mutated in place.
type Config struct {
	// Watching reports whether an external file watcher is active.
	// Display-only for this package.
	Watching bool

	// FileFilter restricts the next run to exactly these test files.
	// nil means no filter; an empty non-nil slice is a legal empty filter.
	FileFilter []string

	// StaleOnly restricts the next run to files changed since the last
	// successful run. Mutually exclusive with FileFilter.
	StaleOnly bool
}

// RunAll clears both the file filter and stale-only mode. Watching is
// untouched.
func (c Config) RunAll() Config {
	c.FileFilter = nil
	c.StaleOnly = false
	return c
}

// ClearFilter clears the file filter only.
func (c Config) ClearFilter() Config {
	c.FileFilter = nil
	return c
}

// WithFilter sets the file filter and cancels stale-only mode. The slice is
// copied so later mutation by the caller cannot leak into the snapshot.
func (c Config) WithFilter(files []string) Config {
	filter := make([]string, len(files))
	copy(filter, files)
	c.FileFilter = filter
	c.StaleOnly = false
	return c
}

// WithStaleOnly enables stale-only mode and cancels the file filter.
func (c Config) WithStaleOnly() Config {
	c.FileFilter = nil
	c.StaleOnly = true
	return c
}

// HasFilter reports whether an explicit file filter is set, empty or not.
func (c Config) HasFilter() bool {
	return c.FileFilter != nil
}
