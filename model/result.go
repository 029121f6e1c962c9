package model

// Citation points at a source that contributed to an answer
type Citation struct {
	ID      string  `json:"id"`
	Excerpt string  `json:"excerpt"`
	Kind    string  `json:"kind"`
	Score   float64 `json:"score,omitempty"`
}

// RetrievalResult is the synthesized answer produced by a strategy executor
// for a single query. It is not persisted by the core.
type RetrievalResult struct {
	Answer    string     `json:"answer"`
	Citations []Citation `json:"citations"`
	Trace     string     `json:"trace"`
	Plan      []string   `json:"plan,omitempty"`
}

// RoutedResult is a RetrievalResult annotated with the routing decision
// that produced it.
type RoutedResult struct {
	RetrievalResult
	StrategyUsed Strategy `json:"strategy_used"`
	Rationale    string   `json:"rationale"`
}
