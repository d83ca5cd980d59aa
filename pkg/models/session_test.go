package models

import (
	"testing"
	"time"
)

func TestNewSession(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	s := NewSession(now)

	if s.ID.String() == "00000000-0000-0000-0000-000000000000" {
		t.Error("expected a generated session ID")
	}
	if !s.CreatedAt.Equal(now) || !s.LastSeen.Equal(now) {
		t.Errorf("timestamps = %v/%v, want %v", s.CreatedAt, s.LastSeen, now)
	}
	if s.HasTable() || s.HasCredential() {
		t.Error("new session should have no table and no credential")
	}
}

func TestSession_SetConnectionReplacesModel(t *testing.T) {
	s := NewSession(time.Now())
	s.SetConnection("gemini", "AIza-one", []string{"models/gemini-1.5-pro"}, "models/gemini-1.5-pro")
	s.SetConnection("openai", "sk-two", nil, "gpt-4o-mini")

	if s.Provider != "openai" || s.APIKey != "sk-two" || s.Model != "gpt-4o-mini" {
		t.Errorf("connection = %s/%s/%s, want openai/sk-two/gpt-4o-mini", s.Provider, s.APIKey, s.Model)
	}
	if s.AvailableModels != nil {
		t.Errorf("AvailableModels = %v, want nil", s.AvailableModels)
	}
	if !s.HasCredential() {
		t.Error("expected credential to be set")
	}
}

func TestSession_ReplaceTable(t *testing.T) {
	s := NewSession(time.Now())
	first := &DealTable{SourceName: "a.csv", Records: make([]DealRecord, 3)}
	second := &DealTable{SourceName: "b.csv", Records: make([]DealRecord, 1)}

	s.ReplaceTable(first)
	s.ReplaceTable(second)

	if s.Table != second {
		t.Error("ReplaceTable should discard the previous table")
	}
	if !s.HasTable() {
		t.Error("expected HasTable after upload")
	}
}

func TestSession_Touch(t *testing.T) {
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	s := NewSession(start)
	s.Touch(start.Add(5 * time.Minute))

	if !s.LastSeen.Equal(start.Add(5 * time.Minute)) {
		t.Errorf("LastSeen = %v, want %v", s.LastSeen, start.Add(5*time.Minute))
	}
	if !s.CreatedAt.Equal(start) {
		t.Error("Touch must not change CreatedAt")
	}
}

func TestMaskedAPIKey(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"", ""},
		{"short", "***"},
		{"12345678", "***"},
		{"AIzaSyD-abcdefgh-1234", "AIza...1234"},
	}
	for _, tt := range tests {
		if got := MaskedAPIKey(tt.key); got != tt.want {
			t.Errorf("MaskedAPIKey(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}
