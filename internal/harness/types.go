package harness

import "github.com/roach88/criteria/internal/ir"

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every case met its expectations.
	Pass bool `json:"pass"`

	// Cases holds one entry per scenario case, in order.
	Cases []CaseResult `json:"cases"`

	// Errors contains assertion failure messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// CaseResult records what a case actually produced.
type CaseResult struct {
	Name   string        `json:"name"`
	SQL    string        `json:"sql,omitempty"`
	Params []any         `json:"params,omitempty"`
	IDs    []ir.IRValue  `json:"ids,omitempty"`
	Rows   []ir.IRObject `json:"-"`
	Error  string        `json:"error,omitempty"`
	Pass   bool          `json:"pass"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Cases:  []CaseResult{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
