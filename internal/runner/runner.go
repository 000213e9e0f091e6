// Package runner turns a run-mode snapshot into one `go test` pass.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"time"

	"github.com/markhallen/testwatch/internal/config"
	"github.com/markhallen/testwatch/internal/executor"
	"github.com/markhallen/testwatch/internal/watch"
)

// ErrNoMatch is returned when the current filter or stale-only mode leaves
// nothing to run. It is the only recoverable run outcome: the session
// reports it and keeps going.
var ErrNoMatch = errors.New("no matching tests found")

// RunFailedError reports a test process that failed for a reason other than
// failing tests, such as a compile error. The session does not recover from
// it.
type RunFailedError struct {
	ExitCode int
	Output   string
}

func (e *RunFailedError) Error() string {
	return fmt.Sprintf("test command failed (exit %d):\n%s", e.ExitCode, e.Output)
}

// Result describes one completed test pass.
type Result struct {
	Counts    Counts
	Targets   []string
	ExitCode  int
	Duration  time.Duration
	Truncated bool
}

// commandExecutor runs the external test process.
type commandExecutor interface {
	Run(ctx context.Context, command []string, dir string, env []string) (*executor.Result, error)
	RunWithTimeout(ctx context.Context, command []string, dir string, env []string, timeout time.Duration) (*executor.Result, error)
}

// fileSource lists the candidate test files.
type fileSource interface {
	TestFiles() ([]string, error)
}

// staleFilter narrows candidates to changed files and records state after
// successful runs.
type staleFilter interface {
	Stale(paths []string) []string
	Record(paths []string) error
}

// GoTestRunner executes test passes with the configured test command.
type GoTestRunner struct {
	exec    commandExecutor
	files   fileSource
	stale   staleFilter
	config  *config.Config
	project *config.Project
	root    string
	log     *slog.Logger
}

// NewGoTestRunner creates a GoTestRunner with injected dependencies.
func NewGoTestRunner(
	exec commandExecutor,
	files fileSource,
	stale staleFilter,
	cfg *config.Config,
	project *config.Project,
	workspaceRoot string,
	log *slog.Logger,
) *GoTestRunner {
	if exec == nil {
		panic("exec is required")
	}
	if files == nil {
		panic("files is required")
	}
	if stale == nil {
		panic("stale is required")
	}
	if cfg == nil {
		panic("cfg is required")
	}
	if project == nil {
		panic("project is required")
	}
	if log == nil {
		log = slog.Default()
	}
	return &GoTestRunner{
		exec:    exec,
		files:   files,
		stale:   stale,
		config:  cfg,
		project: project,
		root:    workspaceRoot,
		log:     log,
	}
}

// Run executes one synchronous test pass under the given snapshot.
//
// Failing tests are a normal completed run, reported through the counts.
// ErrNoMatch means the filter matched nothing. Any other error is a runner
// failure the caller should not recover from.
func (r *GoTestRunner) Run(ctx context.Context, cfg watch.Config) (*Result, error) {
	targets, ran, err := r.selectTargets(cfg)
	if err != nil {
		return nil, err
	}

	argv := make([]string, 0, len(r.config.Runner.TestCommand)+1+len(targets))
	argv = append(argv, r.config.Runner.TestCommand...)
	if r.config.Runner.JSONEvents {
		argv = append(argv, "-json")
	}
	argv = append(argv, targets...)

	r.log.Debug("starting test pass", "argv", argv, "stale_only", cfg.StaleOnly, "filtered", cfg.HasFilter())

	start := time.Now()
	var res *executor.Result
	var execErr error
	if timeout := r.config.Runner.RunTimeoutSeconds; timeout > 0 {
		res, execErr = r.exec.RunWithTimeout(ctx, argv, r.root, os.Environ(), time.Duration(timeout)*time.Second)
	} else {
		res, execErr = r.exec.Run(ctx, argv, r.root, os.Environ())
	}
	duration := time.Since(start)

	if execErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(execErr, &exitErr) {
			// Spawn failure, cancellation or timeout. Not a test result.
			return nil, fmt.Errorf("test run: %w", execErr)
		}
		// The process ran and exited nonzero; decide below whether that
		// was failing tests or a broken build.
	}

	var counts Counts
	if r.config.Runner.JSONEvents {
		events := ParseEvents(res.Stdout)
		counts = Tally(events)
		r.log.Debug("test pass finished", "exit_code", res.ExitCode, "events", len(events), "failed", counts.Failed)

		if res.ExitCode != 0 && counts.Failed == 0 {
			// Nonzero exit without a single failing test: the build or
			// the invocation itself broke.
			return nil, &RunFailedError{ExitCode: res.ExitCode, Output: res.Stderr + res.Stdout}
		}
	}

	if res.ExitCode == 0 {
		if err := r.stale.Record(ran); err != nil {
			r.log.Warn("could not record checksums", "error", err)
		}
	}

	return &Result{
		Counts:    counts,
		Targets:   targets,
		ExitCode:  res.ExitCode,
		Duration:  duration,
		Truncated: res.Truncated,
	}, nil
}

// selectTargets maps the snapshot to the argv tail and to the files whose
// checksums are recorded if the pass succeeds.
func (r *GoTestRunner) selectTargets(cfg watch.Config) (targets, ran []string, err error) {
	switch {
	case cfg.HasFilter():
		all, err := r.files.TestFiles()
		if err != nil {
			return nil, nil, fmt.Errorf("discover test files: %w", err)
		}
		matched := matchFilter(cfg.FileFilter, all)
		if len(matched) == 0 {
			return nil, nil, ErrNoMatch
		}
		return packageDirs(matched), matched, nil

	case cfg.StaleOnly:
		all, err := r.files.TestFiles()
		if err != nil {
			return nil, nil, fmt.Errorf("discover test files: %w", err)
		}
		stale := r.stale.Stale(all)
		if len(stale) == 0 {
			return nil, nil, ErrNoMatch
		}
		return packageDirs(stale), stale, nil

	default:
		all, err := r.files.TestFiles()
		if err != nil {
			return nil, nil, fmt.Errorf("discover test files: %w", err)
		}
		return r.project.Packages, all, nil
	}
}

// matchFilter resolves filter entries against discovered test files. An
// entry matches a file by exact relative path, by base name, or by base
// name without the .go suffix (so `p foo_test` finds foo_test.go).
func matchFilter(filter, files []string) []string {
	wanted := make(map[string]struct{}, len(filter))
	for _, entry := range filter {
		wanted[filepath.ToSlash(entry)] = struct{}{}
	}

	var matched []string
	for _, file := range files {
		slashed := filepath.ToSlash(file)
		base := filepath.Base(file)
		bare := trimGoSuffix(base)

		if _, ok := wanted[slashed]; ok {
			matched = append(matched, file)
			continue
		}
		if _, ok := wanted[base]; ok {
			matched = append(matched, file)
			continue
		}
		if _, ok := wanted[bare]; ok {
			matched = append(matched, file)
		}
	}
	return matched
}

func trimGoSuffix(name string) string {
	if len(name) > 3 && name[len(name)-3:] == ".go" {
		return name[:len(name)-3]
	}
	return name
}

// packageDirs maps test files to their unique package directories in the
// form `go test` accepts.
func packageDirs(files []string) []string {
	seen := make(map[string]struct{})
	for _, file := range files {
		dir := filepath.ToSlash(filepath.Dir(file))
		if dir == "." {
			dir = ""
		}
		seen["./"+dir] = struct{}{}
	}

	dirs := make([]string, 0, len(seen))
	for dir := range seen {
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)
	return dirs
}
