package runner

import (
	"context"
	"errors"
	"log/slog"
	osexec "os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markhallen/testwatch/internal/config"
	"github.com/markhallen/testwatch/internal/executor"
	"github.com/markhallen/testwatch/internal/watch"
)

// mockExecutor records the argv it was given and returns canned results.
type mockExecutor struct {
	argv       []string
	dir        string
	usedTimout bool
	result     *executor.Result
	err        error
}

func (m *mockExecutor) Run(_ context.Context, command []string, dir string, _ []string) (*executor.Result, error) {
	m.argv = command
	m.dir = dir
	return m.result, m.err
}

func (m *mockExecutor) RunWithTimeout(_ context.Context, command []string, dir string, _ []string, _ time.Duration) (*executor.Result, error) {
	m.argv = command
	m.dir = dir
	m.usedTimout = true
	return m.result, m.err
}

type stubFiles struct {
	files []string
	err   error
}

func (s *stubFiles) TestFiles() ([]string, error) { return s.files, s.err }

type stubStale struct {
	stale     []string
	recorded  [][]string
	recordErr error
}

func (s *stubStale) Stale(paths []string) []string { return s.stale }

func (s *stubStale) Record(paths []string) error {
	s.recorded = append(s.recorded, paths)
	return s.recordErr
}

func newTestRunner(exec *mockExecutor, files *stubFiles, stale *stubStale) *GoTestRunner {
	return NewGoTestRunner(
		exec,
		files,
		stale,
		config.DefaultConfig(),
		&config.Project{Packages: []string{"./..."}, WatchRoots: []string{"."}},
		"/work",
		slog.Default(),
	)
}

func passOutput() string {
	return `{"Action":"pass","Package":"p","Test":"TestA","Elapsed":0.01}` + "\n"
}

// --- TARGET SELECTION ---

func TestRun_NoFilter_RunsConfiguredPackages(t *testing.T) {
	exec := &mockExecutor{result: &executor.Result{Stdout: passOutput(), ExitCode: 0}}
	files := &stubFiles{files: []string{"a_test.go", "pkg/b_test.go"}}
	stale := &stubStale{}
	r := newTestRunner(exec, files, stale)

	res, err := r.Run(context.Background(), watch.Config{})

	require.NoError(t, err)
	assert.Equal(t, []string{"go", "test", "-json", "./..."}, exec.argv)
	assert.Equal(t, "/work", exec.dir)
	assert.False(t, exec.usedTimout)
	assert.Equal(t, Counts{Passed: 1}, res.Counts)
}

func TestRun_Filter_RunsMatchedPackages(t *testing.T) {
	exec := &mockExecutor{result: &executor.Result{Stdout: passOutput(), ExitCode: 0}}
	files := &stubFiles{files: []string{"pkg/foo_test.go", "bar_test.go"}}
	stale := &stubStale{}
	r := newTestRunner(exec, files, stale)

	cfg := watch.Config{}.WithFilter([]string{"foo_test"})
	_, err := r.Run(context.Background(), cfg)

	require.NoError(t, err)
	assert.Equal(t, []string{"go", "test", "-json", "./pkg"}, exec.argv)
	require.Len(t, stale.recorded, 1)
	assert.Equal(t, []string{"pkg/foo_test.go"}, stale.recorded[0])
}

func TestRun_Filter_NoMatch_ReturnsErrNoMatch(t *testing.T) {
	exec := &mockExecutor{}
	files := &stubFiles{files: []string{"bar_test.go"}}
	r := newTestRunner(exec, files, &stubStale{})

	cfg := watch.Config{}.WithFilter([]string{"nope_test"})
	_, err := r.Run(context.Background(), cfg)

	assert.ErrorIs(t, err, ErrNoMatch)
	assert.Nil(t, exec.argv, "executor must not run when nothing matched")
}

func TestRun_EmptyFilter_ReturnsErrNoMatch(t *testing.T) {
	exec := &mockExecutor{}
	files := &stubFiles{files: []string{"bar_test.go"}}
	r := newTestRunner(exec, files, &stubStale{})

	cfg := watch.Config{}.WithFilter(nil)
	_, err := r.Run(context.Background(), cfg)

	assert.ErrorIs(t, err, ErrNoMatch)
}

func TestRun_StaleOnly_RunsStaleFiles(t *testing.T) {
	exec := &mockExecutor{result: &executor.Result{Stdout: passOutput(), ExitCode: 0}}
	files := &stubFiles{files: []string{"a_test.go", "pkg/b_test.go"}}
	stale := &stubStale{stale: []string{"pkg/b_test.go"}}
	r := newTestRunner(exec, files, stale)

	_, err := r.Run(context.Background(), watch.Config{}.WithStaleOnly())

	require.NoError(t, err)
	assert.Equal(t, []string{"go", "test", "-json", "./pkg"}, exec.argv)
}

func TestRun_StaleOnly_NothingStale_ReturnsErrNoMatch(t *testing.T) {
	exec := &mockExecutor{}
	files := &stubFiles{files: []string{"a_test.go"}}
	r := newTestRunner(exec, files, &stubStale{stale: nil})

	_, err := r.Run(context.Background(), watch.Config{}.WithStaleOnly())

	assert.ErrorIs(t, err, ErrNoMatch)
}

// --- RUN OUTCOMES ---

func TestRun_FailingTests_IsCompletedRun(t *testing.T) {
	output := `{"Action":"fail","Package":"p","Test":"TestA","Elapsed":0.01}` + "\n"
	exec := &mockExecutor{
		result: &executor.Result{Stdout: output, ExitCode: 1},
		err:    &osexec.ExitError{},
	}
	files := &stubFiles{files: []string{"a_test.go"}}
	stale := &stubStale{}
	r := newTestRunner(exec, files, stale)

	res, err := r.Run(context.Background(), watch.Config{})

	require.NoError(t, err)
	assert.Equal(t, 1, res.Counts.Failed)
	assert.Equal(t, 1, res.ExitCode)
	assert.Empty(t, stale.recorded, "failed runs must not record checksums")
}

func TestRun_BuildFailure_Propagates(t *testing.T) {
	exec := &mockExecutor{
		result: &executor.Result{Stderr: "syntax error", ExitCode: 1},
		err:    &osexec.ExitError{},
	}
	files := &stubFiles{files: []string{"a_test.go"}}
	r := newTestRunner(exec, files, &stubStale{})

	_, err := r.Run(context.Background(), watch.Config{})

	var runErr *RunFailedError
	require.ErrorAs(t, err, &runErr)
	assert.Equal(t, 1, runErr.ExitCode)
	assert.Contains(t, runErr.Output, "syntax error")
}

func TestRun_SpawnFailure_Propagates(t *testing.T) {
	spawnErr := &executor.CommandError{Cmd: "go", Stage: "start", Cause: errors.New("not found")}
	exec := &mockExecutor{err: spawnErr}
	files := &stubFiles{files: []string{"a_test.go"}}
	r := newTestRunner(exec, files, &stubStale{})

	_, err := r.Run(context.Background(), watch.Config{})

	assert.ErrorIs(t, err, spawnErr)
}

func TestRun_DiscoveryFailure_Propagates(t *testing.T) {
	files := &stubFiles{err: errors.New("walk failed")}
	r := newTestRunner(&mockExecutor{}, files, &stubStale{})

	_, err := r.Run(context.Background(), watch.Config{}.WithStaleOnly())

	assert.ErrorContains(t, err, "walk failed")
}

func TestRun_Success_RecordsAllDiscoveredFiles(t *testing.T) {
	exec := &mockExecutor{result: &executor.Result{Stdout: passOutput(), ExitCode: 0}}
	files := &stubFiles{files: []string{"a_test.go", "pkg/b_test.go"}}
	stale := &stubStale{}
	r := newTestRunner(exec, files, stale)

	_, err := r.Run(context.Background(), watch.Config{})

	require.NoError(t, err)
	require.Len(t, stale.recorded, 1)
	assert.Equal(t, []string{"a_test.go", "pkg/b_test.go"}, stale.recorded[0])
}

func TestRun_TimeoutConfigured_UsesRunWithTimeout(t *testing.T) {
	exec := &mockExecutor{result: &executor.Result{Stdout: passOutput(), ExitCode: 0}}
	files := &stubFiles{files: []string{"a_test.go"}}
	r := NewGoTestRunner(exec, files, &stubStale{}, func() *config.Config {
		cfg := config.DefaultConfig()
		cfg.Runner.RunTimeoutSeconds = 30
		return cfg
	}(), &config.Project{Packages: []string{"./..."}, WatchRoots: []string{"."}}, "/work", nil)

	_, err := r.Run(context.Background(), watch.Config{})

	require.NoError(t, err)
	assert.True(t, exec.usedTimout)
}

// --- HELPERS ---

func TestMatchFilter(t *testing.T) {
	files := []string{"pkg/foo_test.go", "bar_test.go"}

	assert.Equal(t, []string{"pkg/foo_test.go"}, matchFilter([]string{"pkg/foo_test.go"}, files))
	assert.Equal(t, []string{"pkg/foo_test.go"}, matchFilter([]string{"foo_test.go"}, files))
	assert.Equal(t, []string{"pkg/foo_test.go"}, matchFilter([]string{"foo_test"}, files))
	assert.Empty(t, matchFilter([]string{"missing_test"}, files))
}

func TestPackageDirs(t *testing.T) {
	dirs := packageDirs([]string{"pkg/a_test.go", "pkg/b_test.go", "top_test.go"})

	assert.Equal(t, []string{"./", "./pkg"}, dirs)
}
