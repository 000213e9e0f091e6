package watch

import "strings"

// Outcome is the closed set of results of classifying one input line.
type Outcome int

const (
	// OutcomeRun applies the new config and triggers a test run.
	OutcomeRun Outcome = iota
	// OutcomeSkip applies the new config and prints the usage footer
	// without running. No current command produces it, but the contract
	// reserves it for commands that acknowledge without running.
	OutcomeSkip
	// OutcomeShowHelp prints the usage block. Config untouched, no run.
	OutcomeShowHelp
	// OutcomeUnknown is the catch-all for unrecognized input. Config
	// untouched, no output, no run.
	OutcomeUnknown
	// OutcomeQuit terminates the session.
	OutcomeQuit
)

// String returns the outcome name for logging.
func (o Outcome) String() string {
	switch o {
	case OutcomeRun:
		return "run"
	case OutcomeSkip:
		return "skip"
	case OutcomeShowHelp:
		return "help"
	case OutcomeUnknown:
		return "unknown"
	case OutcomeQuit:
		return "quit"
	default:
		return "invalid"
	}
}

// Result pairs an outcome with the config the session should adopt.
// For outcomes that do not mutate state, Config is the input config.
type Result struct {
	Outcome Outcome
	Config  Config
}

// Classify maps one line of operator input to an outcome. eof signals that
// the input stream ended, which is treated exactly like an explicit quit.
//
// Classification is total: every possible input maps to a defined outcome
// and unrecognized input degrades to OutcomeUnknown rather than failing.
// Commands are single characters, case-sensitive, matched by exact token
// equality:
//
//	q            quit
//	a            run everything (clear filter and stale-only)
//	c            clear the file filter
//	p <files...> filter to the given files (zero files is a legal empty set)
//	s            stale files only
//	?            show the usage block
//	<empty line> rerun with the current config unchanged
func Classify(line string, eof bool, cfg Config) Result {
	if eof {
		return Result{Outcome: OutcomeQuit, Config: cfg}
	}

	fields := strings.Fields(line)
	if len(fields) == 0 {
		// Bare enter reruns the current configuration.
		return Result{Outcome: OutcomeRun, Config: cfg}
	}

	command, args := fields[0], fields[1:]
	switch command {
	case "q":
		return Result{Outcome: OutcomeQuit, Config: cfg}
	case "a":
		return Result{Outcome: OutcomeRun, Config: cfg.RunAll()}
	case "c":
		return Result{Outcome: OutcomeRun, Config: cfg.ClearFilter()}
	case "p":
		return Result{Outcome: OutcomeRun, Config: cfg.WithFilter(args)}
	case "s":
		return Result{Outcome: OutcomeRun, Config: cfg.WithStaleOnly()}
	case "?":
		return Result{Outcome: OutcomeShowHelp, Config: cfg}
	default:
		return Result{Outcome: OutcomeUnknown, Config: cfg}
	}
}
