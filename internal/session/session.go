// Package session owns the command→run cycle: it holds the current
// run-mode snapshot, serializes one command at a time and drives the
// runner and the console.
package session

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/markhallen/testwatch/internal/runner"
	"github.com/markhallen/testwatch/internal/watch"
)

// State is the session's logical state. It only ever changes between
// completed transitions: a caller never observes Running except from
// inside a run.
type State int

const (
	StateIdle State = iota
	StateRunning
	StateTerminated
)

// Runner executes one synchronous test pass. The call may block
// indefinitely; the session imposes no timeout of its own.
type Runner interface {
	Run(ctx context.Context, cfg watch.Config) (*runner.Result, error)
}

// Reporter renders the session's user-visible output.
type Reporter interface {
	Summary(cfg watch.Config, res *runner.Result)
	NoMatch(cfg watch.Config)
	Footer(cfg watch.Config)
	Help(cfg watch.Config)
}

// Session sequences read → classify → run → report. Exactly one command is
// classified and at most one run completes before the next line is read;
// commands never overlap a run.
type Session struct {
	cfg    watch.Config
	runner Runner
	out    Reporter
	in     io.Reader
	log    *slog.Logger
	state  State
}

// New creates a Session seeded with the initial snapshot built from
// startup arguments.
func New(initial watch.Config, r Runner, out Reporter, in io.Reader, log *slog.Logger) *Session {
	if r == nil {
		panic("r is required")
	}
	if out == nil {
		panic("out is required")
	}
	if in == nil {
		panic("in is required")
	}
	if log == nil {
		log = slog.Default()
	}
	return &Session{
		cfg:    initial,
		runner: r,
		out:    out,
		in:     in,
		log:    log,
		state:  StateIdle,
	}
}

// Config returns the current snapshot. Only meaningful between completed
// transitions.
func (s *Session) Config() watch.Config {
	return s.cfg
}

// State returns the session's logical state.
func (s *Session) State() State {
	return s.state
}

// Loop runs the session until the operator quits, input ends, or the
// runner fails unrecoverably. It performs one run under the seeded
// snapshot before reading any command. A nil return is a normal quit; a
// non-nil return is the unrecovered runner failure the caller turns into
// an abnormal exit.
func (s *Session) Loop(ctx context.Context) error {
	if err := s.runOnce(ctx); err != nil {
		s.state = StateTerminated
		return err
	}

	scanner := bufio.NewScanner(s.in)
	for {
		line := ""
		eof := false
		if scanner.Scan() {
			line = scanner.Text()
		} else {
			// Read errors and end-of-stream both end the command
			// protocol; Classify maps eof to quit.
			eof = true
		}

		done, err := s.handle(ctx, watch.Classify(line, eof, s.cfg))
		if err != nil {
			s.state = StateTerminated
			return err
		}
		if done {
			s.state = StateTerminated
			return nil
		}
	}
}

// handle applies one classified command. done reports a normal quit.
func (s *Session) handle(ctx context.Context, res watch.Result) (done bool, err error) {
	s.log.Debug("classified command", "outcome", res.Outcome.String())

	switch res.Outcome {
	case watch.OutcomeQuit:
		return true, nil
	case watch.OutcomeUnknown:
		// No observable effect.
		return false, nil
	case watch.OutcomeShowHelp:
		s.out.Help(s.cfg)
		return false, nil
	case watch.OutcomeSkip:
		s.cfg = res.Config
		s.out.Footer(s.cfg)
		return false, nil
	case watch.OutcomeRun:
		s.cfg = res.Config
		return false, s.runOnce(ctx)
	default:
		return false, nil
	}
}

// runOnce performs one synchronous test pass and reports it. The no-match
// outcome is informational; everything else the runner reports is returned
// to the caller untouched.
func (s *Session) runOnce(ctx context.Context) error {
	s.state = StateRunning
	res, err := s.runner.Run(ctx, s.cfg)
	switch {
	case errors.Is(err, runner.ErrNoMatch):
		s.out.NoMatch(s.cfg)
	case err != nil:
		return err
	default:
		s.out.Summary(s.cfg, res)
	}
	s.state = StateIdle
	return nil
}
