package models

import (
	"time"

	"github.com/google/uuid"
)

// Session is the per-analyst working context: uploaded table, provider
// credential and model choice. Each operation receives it explicitly.
type Session struct {
	ID              uuid.UUID
	Provider        string
	APIKey          string
	Model           string
	AvailableModels []string
	Table           *DealTable
	Query           string
	CreatedAt       time.Time
	LastSeen        time.Time
}

// NewSession creates an empty session.
func NewSession(now time.Time) *Session {
	return &Session{
		ID:        uuid.New(),
		CreatedAt: now,
		LastSeen:  now,
	}
}

// HasTable returns true once a validated table has been uploaded.
func (s *Session) HasTable() bool {
	return s.Table != nil
}

// HasCredential returns true if a provider API key is set.
func (s *Session) HasCredential() bool {
	return s.APIKey != ""
}

// Touch records activity on the session.
func (s *Session) Touch(now time.Time) {
	s.LastSeen = now
}

// SetConnection records a provider credential and the models it can use.
// The previous model choice is discarded.
func (s *Session) SetConnection(provider, apiKey string, available []string, model string) {
	s.Provider = provider
	s.APIKey = apiKey
	s.AvailableModels = available
	s.Model = model
}

// ReplaceTable discards any previous table in favour of t.
func (s *Session) ReplaceTable(t *DealTable) {
	s.Table = t
}

// MaskedAPIKey returns masked version: "AIza...xyz9".
func MaskedAPIKey(key string) string {
	if key == "" {
		return ""
	}
	if len(key) <= 8 {
		return "***"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
