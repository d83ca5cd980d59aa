package models

import (
	"time"
)

// Required deal table headers. Matching is exact and case-sensitive.
const (
	ColumnClientRequirements = "Client Requirements"
	ColumnClientObjectives   = "Client Objectives"
	ColumnProductFeatures    = "Product Features"
	ColumnSelectionRationale = "Why this Product was Selected"
)

// RequiredColumns lists the headers every uploaded deal table must carry,
// in the order they are reported and rendered.
var RequiredColumns = []string{
	ColumnClientRequirements,
	ColumnClientObjectives,
	ColumnProductFeatures,
	ColumnSelectionRationale,
}

// DealRecord is one row of an uploaded historic-deals table.
// Identity is the row position; no uniqueness is enforced.
type DealRecord struct {
	Index  int               `json:"index"`
	Values map[string]string `json:"values"`
}

// Value returns the cell for column, or "" when the row has no such cell.
func (r DealRecord) Value(column string) string {
	return r.Values[column]
}

// DealTable is the in-memory table held for a single session.
type DealTable struct {
	SourceName string       `json:"source_name"`
	Columns    []string     `json:"columns"`
	Records    []DealRecord `json:"-"`
	LoadedAt   time.Time    `json:"loaded_at"`
}

// Len returns the number of deal records.
func (t *DealTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Records)
}
