package runner

import (
	"encoding/json"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// TestEvent is one decoded line of `go test -json` output.
type TestEvent struct {
	Action  string  `mapstructure:"Action"`
	Package string  `mapstructure:"Package"`
	Test    string  `mapstructure:"Test"`
	Elapsed float64 `mapstructure:"Elapsed"`
	Output  string  `mapstructure:"Output"`
}

// Counts tallies terminal per-test results for the summary line.
type Counts struct {
	Passed  int
	Failed  int
	Skipped int
}

// Total is the number of tests that reached a terminal state.
func (c Counts) Total() int {
	return c.Passed + c.Failed + c.Skipped
}

// ParseEvents decodes the event stream. Each line is unmarshalled into a
// generic map and then decoded into the typed event; lines that are not
// JSON objects (stray prints from the child) are skipped.
func ParseEvents(output string) []TestEvent {
	var events []TestEvent
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || line[0] != '{' {
			continue
		}

		var raw map[string]any
		if err := json.Unmarshal([]byte(line), &raw); err != nil {
			continue
		}

		var event TestEvent
		if err := mapstructure.Decode(raw, &event); err != nil {
			continue
		}
		events = append(events, event)
	}
	return events
}

// Tally counts terminal actions of individual tests. Package-level events
// (empty Test field) are not counted.
func Tally(events []TestEvent) Counts {
	var counts Counts
	for _, event := range events {
		if event.Test == "" {
			continue
		}
		switch event.Action {
		case "pass":
			counts.Passed++
		case "fail":
			counts.Failed++
		case "skip":
			counts.Skipped++
		}
	}
	return counts
}
