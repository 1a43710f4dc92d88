package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/blockdoc/internal/ir"
)

// Snapshot captures a scenario run for golden comparison. It is serialized
// as canonical JSON.
type Snapshot struct {
	ScenarioName string       `json:"scenario_name"`
	Trace        []TraceEvent `json:"trace"`
	Document     ir.IRObject  `json:"document"`
	Hash         string       `json:"hash"`
}

// toCanonicalMap converts a Snapshot to a map[string]any for canonical JSON
// serialization. ir.MarshalCanonical only handles IR types and primitives.
func (s *Snapshot) toCanonicalMap() map[string]any {
	traceList := make([]any, len(s.Trace))
	for i, event := range s.Trace {
		layout := make([]any, len(event.Layout))
		for j, id := range event.Layout {
			layout[j] = id
		}
		eventMap := map[string]any{
			"op":     event.Op,
			"layout": layout,
		}
		if event.Seq != 0 {
			eventMap["seq"] = event.Seq
		}
		if event.Args != nil {
			eventMap["args"] = event.Args
		}
		if event.NewID != "" {
			eventMap["new_id"] = event.NewID
		}
		if event.Error != "" {
			eventMap["error"] = event.Error
		}
		traceList[i] = eventMap
	}

	return map[string]any{
		"scenario_name": s.ScenarioName,
		"trace":         traceList,
		"document":      s.Document,
		"hash":          s.Hash,
	}
}

// MarshalSnapshot returns the canonical JSON of a scenario result.
func MarshalSnapshot(scenarioName string, result *Result) ([]byte, error) {
	snapshot := Snapshot{
		ScenarioName: scenarioName,
		Trace:        result.Trace,
		Document:     result.Document,
		Hash:         result.Hash,
	}
	return ir.MarshalCanonical(snapshot.toCanonicalMap())
}

// RunWithGolden executes a scenario and compares the snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails. A snapshot mismatch fails the
// test through goldie.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against its golden file.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := MarshalSnapshot(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)
	return nil
}
