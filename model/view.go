package model

// DataView is the resolved, pre-parsed view of one uploaded table or document
// that the core receives per query. The core never parses raw files itself.
type DataView struct {
	Name       string              `json:"name"`
	Columns    []string            `json:"columns,omitempty"`
	SampleRows []map[string]string `json:"sample_rows,omitempty"`
	Summary    string              `json:"summary,omitempty"`
}

// IsTabular reports whether the view carries column structure
func (v *DataView) IsTabular() bool {
	return len(v.Columns) > 0
}

// QueryContext carries the session scope, the router's execution plan and the
// resolved per-session data views into a strategy executor.
type QueryContext struct {
	SessionID string
	Plan      []string
	Views     []DataView
}

// WithPlan returns a shallow copy of the context carrying the given plan
func (q *QueryContext) WithPlan(plan []string) *QueryContext {
	copied := *q
	copied.Plan = plan
	return &copied
}
