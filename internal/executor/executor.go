// Package executor runs external commands and captures their output.
package executor

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/markhallen/testwatch/internal/config"
)

// Result represents the outcome of a command execution.
type Result struct {
	Stdout    string
	Stderr    string
	ExitCode  int
	Truncated bool
}

// OSExecutor implements command execution using os/exec.
type OSExecutor struct {
	config *config.Config
}

// NewOSExecutor creates a new OSExecutor with injected config.
func NewOSExecutor(cfg *config.Config) *OSExecutor {
	if cfg == nil {
		panic("cfg is required")
	}
	return &OSExecutor{config: cfg}
}

// Run executes a command and blocks until it completes or ctx is cancelled.
// No timeout is imposed; a caller that wants one uses RunWithTimeout.
// Output is buffered internally up to the configured cap.
func (e *OSExecutor) Run(ctx context.Context, command []string, dir string, env []string) (*Result, error) {
	if len(command) == 0 {
		return nil, os.ErrInvalid
	}

	cmd := exec.CommandContext(ctx, command[0], command[1:]...)
	cmd.Dir = dir
	cmd.Env = env
	cmd.Stdin = nil

	stdoutPipe, stderrPipe, err := e.pipes(cmd, command[0])
	if err != nil {
		return nil, err
	}

	if err := cmd.Start(); err != nil {
		return nil, &CommandError{Cmd: command[0], Cause: err, Stage: "start"}
	}

	stdout, stderr, truncated := e.collectOutput(stdoutPipe, stderrPipe)

	err = cmd.Wait()
	return &Result{
		Stdout:    stdout,
		Stderr:    stderr,
		ExitCode:  exitCode(err),
		Truncated: truncated,
	}, err
}

// RunWithTimeout executes a command with a timeout. On expiry the child
// gets an interrupt first, then a kill after the configured grace period.
func (e *OSExecutor) RunWithTimeout(ctx context.Context, command []string, dir string, env []string, timeout time.Duration) (*Result, error) {
	if len(command) == 0 {
		return nil, os.ErrInvalid
	}

	// Not CommandContext: the shutdown sequence below owns the process.
	cmd := exec.Command(command[0], command[1:]...)
	cmd.Dir = dir
	cmd.Env = env
	cmd.Stdin = nil

	stdoutPipe, stderrPipe, err := e.pipes(cmd, command[0])
	if err != nil {
		return nil, err
	}

	if err := cmd.Start(); err != nil {
		return nil, &CommandError{Cmd: command[0], Cause: err, Stage: "start"}
	}

	var stdout, stderr string
	var truncated bool
	collectDone := make(chan struct{})
	go func() {
		stdout, stderr, truncated = e.collectOutput(stdoutPipe, stderrPipe)
		close(collectDone)
	}()

	waitDone := make(chan error, 1)
	go func() {
		waitDone <- cmd.Wait()
	}()

	grace := time.Duration(e.config.Runner.GracefulShutdownMs) * time.Millisecond

	var execErr error
	select {
	case err := <-waitDone:
		execErr = err
	case <-ctx.Done():
		_ = cmd.Process.Kill()
		<-waitDone
		execErr = ctx.Err()
	case <-time.After(timeout):
		_ = cmd.Process.Signal(os.Interrupt)
		select {
		case <-waitDone:
		case <-time.After(grace):
			_ = cmd.Process.Kill()
			<-waitDone
		}
		execErr = ErrTimeout
	}

	<-collectDone

	code := exitCode(execErr)
	if errors.Is(execErr, ErrTimeout) {
		code = -1
	}

	return &Result{
		Stdout:    stdout,
		Stderr:    stderr,
		ExitCode:  code,
		Truncated: truncated,
	}, execErr
}

func (e *OSExecutor) pipes(cmd *exec.Cmd, name string) (io.Reader, io.Reader, error) {
	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return nil, nil, &CommandError{Cmd: name, Cause: err, Stage: "start"}
	}
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return nil, nil, &CommandError{Cmd: name, Cause: err, Stage: "start"}
	}
	return stdoutPipe, stderrPipe, nil
}

func (e *OSExecutor) collectOutput(stdout, stderr io.Reader) (string, string, bool) {
	maxBytes := int(e.config.Runner.MaxOutputSize)

	stdoutCollector := newCollector(maxBytes)
	stderrCollector := newCollector(maxBytes)

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		_, _ = io.Copy(stdoutCollector, stdout)
	}()

	go func() {
		defer wg.Done()
		_, _ = io.Copy(stderrCollector, stderr)
	}()

	wg.Wait()

	truncated := stdoutCollector.Truncated() || stderrCollector.Truncated()
	return stdoutCollector.String(), stderrCollector.String(), truncated
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	type exitCoder interface {
		ExitCode() int
	}
	var ec exitCoder
	if errors.As(err, &ec) {
		return ec.ExitCode()
	}
	return -1
}
