package models

import (
	"time"
)

// GenerationState is a step in the lifecycle of a single generate action.
type GenerationState string

const (
	StateIdle             GenerationState = "idle"
	StateScoring          GenerationState = "scoring"
	StatePromptBuilt      GenerationState = "prompt_built"
	StateRequesting       GenerationState = "requesting"
	StateRetryableFailure GenerationState = "retryable_failure"
	StateSucceeded        GenerationState = "succeeded"
	StateFatalFailure     GenerationState = "fatal_failure"
)

// IsTerminal returns true for Succeeded and FatalFailure.
func (s GenerationState) IsTerminal() bool {
	return s == StateSucceeded || s == StateFatalFailure
}

// Proposal is the drafted credit proposal returned by the provider.
// It is displayed once and never stored.
type Proposal struct {
	Text        string            `json:"text"`
	Provider    string            `json:"provider"`
	Model       string            `json:"model"`
	Attempts    int               `json:"attempts"`
	Context     *ContextSet       `json:"context"`
	Trace       []GenerationState `json:"trace"`
	GeneratedAt time.Time         `json:"generated_at"`
}
