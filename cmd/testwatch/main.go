// Package main provides the testwatch command: an interactive test watcher
// that reads single-line commands on stdin and runs test passes under a
// small mutable-by-replacement run-mode snapshot.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"

	"github.com/markhallen/testwatch/internal/config"
	"github.com/markhallen/testwatch/internal/executor"
	"github.com/markhallen/testwatch/internal/runner"
	"github.com/markhallen/testwatch/internal/session"
	"github.com/markhallen/testwatch/internal/ui"
	"github.com/markhallen/testwatch/internal/watch"
)

// Dependencies holds the components required to run a session.
type Dependencies struct {
	Runner  session.Runner
	Console *ui.Console
	Input   io.Reader
	Logger  *slog.Logger
}

func newLogger(cfg *config.Config, output io.Writer) *slog.Logger {
	handler := tint.NewHandler(output, &tint.Options{
		Level:      parseLevel(cfg.Log.Level),
		TimeFormat: "15:04:05",
	})
	return slog.New(handler)
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

// initialConfig builds the first snapshot from startup arguments. An
// explicit file list wins over -stale, matching the grammar's mutual
// exclusion.
func initialConfig(watching, stale bool, files []string) watch.Config {
	cfg := watch.Config{Watching: watching}
	if stale {
		cfg = cfg.WithStaleOnly()
	}
	if len(files) > 0 {
		cfg = cfg.WithFilter(files)
	}
	return cfg
}

// createDependencies wires the production components for a workspace.
func createDependencies(cfg *config.Config, project *config.Project, workspaceRoot string, logger *slog.Logger) Dependencies {
	var ignore runner.IgnoreMatcher
	matcher, err := runner.NewGitignoreMatcher(workspaceRoot)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to load .gitignore: %v\n", err)
		ignore = runner.NoOpMatcher{}
	} else {
		ignore = matcher
	}

	discoverer := runner.NewDiscoverer(workspaceRoot, project, ignore)
	tracker := runner.NewStaleTracker()
	osExecutor := executor.NewOSExecutor(cfg)
	testRunner := runner.NewGoTestRunner(osExecutor, discoverer, tracker, cfg, project, workspaceRoot, logger)

	color := cfg.UI.Color && isatty.IsTerminal(os.Stdout.Fd())
	console := ui.NewConsole(os.Stdout, color, cfg.UI.HighlightColor)

	return Dependencies{
		Runner:  testRunner,
		Console: console,
		Input:   os.Stdin,
		Logger:  logger,
	}
}

func main() {
	watchFlag := flag.Bool("watch", true, "mark the session as watching for file changes")
	staleFlag := flag.Bool("stale", false, "start in stale-only mode")
	flag.Parse()

	// Load configuration (from defaults + ~/.config/testwatch/config.json)
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to load config: %v\n", err)
		fmt.Fprintf(os.Stderr, "Using default configuration.\n")
		cfg = config.DefaultConfig()
	}

	logger := newLogger(cfg, os.Stderr)

	workspaceRoot, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to get working directory: %v\n", err)
		os.Exit(1)
	}

	project, err := config.LoadProject(workspaceRoot)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		fmt.Fprintf(os.Stderr, "Using default project settings.\n")
		project = &config.Project{Packages: []string{"./..."}, WatchRoots: []string{"."}}
	}

	deps := createDependencies(cfg, project, workspaceRoot, logger)
	initial := initialConfig(*watchFlag, *staleFlag, flag.Args())

	sess := session.New(initial, deps.Runner, deps.Console, deps.Input, deps.Logger)
	if err := sess.Loop(context.Background()); err != nil {
		// Unrecovered runner failure: fail loudly with its diagnostic.
		fmt.Fprintf(os.Stderr, "testwatch: %v\n", err)
		os.Exit(1)
	}
}
