package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/roach88/blockdoc/internal/blocks"
	"github.com/roach88/blockdoc/internal/config"
	"github.com/roach88/blockdoc/internal/engine"
	"github.com/roach88/blockdoc/internal/ir"
	"github.com/roach88/blockdoc/internal/testutil"
)

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory session with sequential ids.
// Execution flow:
//  1. Build settings and the block type registry from the scenario
//  2. Load the initial document
//  3. Apply every step, checking expected errors
//  4. Evaluate assertions against the final form
//
// A returned error means the scenario itself could not run; a failing step
// or assertion is reported through Result.Errors.
func Run(scenario *Scenario) (*Result, error) {
	settings := config.Default()
	if scenario.DefaultBlockType != "" {
		settings.DefaultBlockType = scenario.DefaultBlockType
	}

	registry := blocks.NewRegistry()
	for name, fields := range scenario.BlockTypes {
		registry.RegisterSpec(ir.BlockTypeSpec{Name: name, Title: name, ValueFields: fields})
	}

	doc, err := loadInitial(scenario)
	if err != nil {
		return nil, err
	}

	eng, err := engine.New(settings, doc,
		engine.WithRegistry(registry),
		engine.WithIDGenerator(testutil.NewSequenceGenerator(scenario.IDs)),
		engine.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start session: %w", err)
	}

	ctx := context.Background()
	result := NewResult()
	for i, step := range scenario.Steps {
		executeStep(ctx, eng, i, step, result)
	}

	for _, msg := range EvaluateAssertions(eng.Editor(), eng.Form(), scenario.Assertions) {
		result.AddError(msg)
	}

	result.Document = eng.Document()
	result.Hash = eng.Hash()
	return result, nil
}

func loadInitial(scenario *Scenario) (ir.IRObject, error) {
	path := scenario.initialPath()
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read initial document: %w", err)
	}
	doc, err := ir.ParseObject(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse initial document %s: %w", path, err)
	}
	return doc, nil
}

// executeStep applies one step and records it in the trace.
func executeStep(ctx context.Context, eng *engine.Engine, i int, step Step, result *Result) {
	event := TraceEvent{Op: step.Op}

	op, err := step.ToOp()
	if err == nil {
		event.Args = op.Args()
		var res engine.Result
		res, err = eng.Apply(ctx, op)
		if err == nil {
			event.Seq = res.Seq
			event.Args = res.Args
			event.NewID = string(res.NewID)
		}
	}
	if err != nil {
		event.Error = errorName(err)
	}
	event.Layout = layoutStrings(eng.Form().Layout)
	result.AddTrace(event)

	switch {
	case step.ExpectError == "" && err != nil:
		result.AddError(fmt.Sprintf("steps[%d] %s: unexpected error: %v", i, step.Op, err))
	case step.ExpectError != "" && err == nil:
		result.AddError(fmt.Sprintf("steps[%d] %s: expected error %s, op succeeded", i, step.Op, step.ExpectError))
	case step.ExpectError != "" && event.Error != step.ExpectError:
		result.AddError(fmt.Sprintf("steps[%d] %s: expected error %s, got %s: %v", i, step.Op, step.ExpectError, event.Error, err))
	}
}

// errorName classifies an op failure.
func errorName(err error) string {
	switch {
	case errors.Is(err, blocks.ErrUnknownBlock):
		return ErrorUnknownBlock
	case errors.Is(err, blocks.ErrIndexOutOfRange):
		return ErrorIndexOutOfRange
	default:
		return ErrorInvalidOperation
	}
}

func layoutStrings(layout []ir.BlockID) []string {
	out := make([]string, len(layout))
	for i, id := range layout {
		out[i] = string(id)
	}
	return out
}
