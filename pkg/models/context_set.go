package models

// ContextMode tells the prompt builder whether concrete historic rows are
// available or whether it must fall back to generic guidance.
type ContextMode string

const (
	ContextModeHistoric ContextMode = "historic"
	ContextModeGeneric  ContextMode = "generic"
)

// ScoredCandidate pairs a deal record with its keyword-overlap score.
type ScoredCandidate struct {
	Record DealRecord `json:"record"`
	Score  int        `json:"score"`
}

// ContextSet is the top-ranked subset of the table used as reference
// material for generation.
type ContextSet struct {
	Terms      []string          `json:"terms"`
	Candidates []ScoredCandidate `json:"candidates"`
	Mode       ContextMode       `json:"mode"`
	MaxScore   int               `json:"max_score"`
}

// Label returns the heading used for the reference section of the prompt.
func (c *ContextSet) Label() string {
	if c == nil || c.Mode != ContextModeHistoric {
		return "General Logic"
	}
	return "Historic Matches"
}

// NoMatch reports whether no query term appeared in any selected row.
func (c *ContextSet) NoMatch() bool {
	return c == nil || c.Mode == ContextModeGeneric
}

// Len returns the number of selected candidates.
func (c *ContextSet) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Candidates)
}
