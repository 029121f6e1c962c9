package model

// Strategy is the closed set of query-answering strategies. Dispatch happens
// through a switch over these values with an explicit default arm.
type Strategy string

const (
	StrategyRelationalGraph     Strategy = "relational_graph"
	StrategySimilarityRetrieval Strategy = "similarity_retrieval"
	StrategyAgentic             Strategy = "agentic"
	StrategyMultiModal          Strategy = "multimodal"
	// StrategyDirectFallback tags results produced by the minimal
	// direct-answer path after a classification or synthesis failure.
	StrategyDirectFallback Strategy = "direct_fallback"
)

// ParseStrategy maps a strategy name to its enum value. Unrecognized or empty
// names map to StrategySimilarityRetrieval, the always-safe default.
func ParseStrategy(name string) Strategy {
	switch Strategy(name) {
	case StrategyRelationalGraph, StrategySimilarityRetrieval, StrategyAgentic, StrategyMultiModal:
		return Strategy(name)
	default:
		return StrategySimilarityRetrieval
	}
}

// RoutingDecision is the classifier's chosen strategy, rationale and
// execution plan for one query. It is transient and never stored.
type RoutingDecision struct {
	Strategy  Strategy `json:"strategy"`
	Rationale string   `json:"rationale"`
	Plan      []string `json:"plan"`
}
