package runner

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const sampleStream = `{"Action":"run","Package":"example.com/m/pkg","Test":"TestA"}
{"Action":"output","Package":"example.com/m/pkg","Test":"TestA","Output":"=== RUN   TestA\n"}
{"Action":"pass","Package":"example.com/m/pkg","Test":"TestA","Elapsed":0.01}
{"Action":"fail","Package":"example.com/m/pkg","Test":"TestB","Elapsed":0.02}
{"Action":"skip","Package":"example.com/m/pkg","Test":"TestC","Elapsed":0}
{"Action":"fail","Package":"example.com/m/pkg","Elapsed":0.05}
`

func TestParseEvents_DecodesStream(t *testing.T) {
	events := ParseEvents(sampleStream)

	assert.Len(t, events, 6)
	assert.Equal(t, "run", events[0].Action)
	assert.Equal(t, "TestA", events[0].Test)
	assert.Equal(t, "example.com/m/pkg", events[0].Package)
	assert.InDelta(t, 0.01, events[2].Elapsed, 1e-9)
}

func TestParseEvents_SkipsNonJSONLines(t *testing.T) {
	mixed := "warning: GOPATH set\n" + `{"Action":"pass","Test":"TestA"}` + "\nnot json\n"

	events := ParseEvents(mixed)

	assert.Len(t, events, 1)
	assert.Equal(t, "pass", events[0].Action)
}

func TestParseEvents_EmptyOutput(t *testing.T) {
	assert.Empty(t, ParseEvents(""))
}

func TestTally_CountsTerminalActionsOnly(t *testing.T) {
	counts := Tally(ParseEvents(sampleStream))

	// The package-level fail event has no Test and is not counted.
	assert.Equal(t, Counts{Passed: 1, Failed: 1, Skipped: 1}, counts)
	assert.Equal(t, 3, counts.Total())
}
