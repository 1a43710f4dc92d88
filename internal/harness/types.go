package harness

import "github.com/roach88/blockdoc/internal/ir"

// TraceEvent records one scenario step.
type TraceEvent struct {
	// Seq is the revision the step produced; 0 when it failed.
	Seq int64 `json:"seq,omitempty"`

	Op string `json:"op"`

	// Args are the journaled arguments, including generated ids.
	Args ir.IRObject `json:"args,omitempty"`

	// NewID is the block inserted by add or split.
	NewID string `json:"new_id,omitempty"`

	// Layout is the layout after the step.
	Layout []string `json:"layout"`

	// Error names the failure, one of the Error* constants.
	Error string `json:"error,omitempty"`
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when every step behaved as expected and every assertion
	// held.
	Pass bool `json:"pass"`

	Trace []TraceEvent `json:"trace"`

	// Errors contains failure messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Document is the final document content.
	Document ir.IRObject `json:"document"`

	// Hash is the content hash of Document.
	Hash string `json:"hash"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends a step to the trace.
func (r *Result) AddTrace(event TraceEvent) {
	r.Trace = append(r.Trace, event)
}
