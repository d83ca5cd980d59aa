// Package scoring ranks deal records by keyword overlap with a free-text
// deal description and picks the reference rows used for generation.
package scoring

import (
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/fosterfinance/deal-assistant/pkg/models"
)

// DefaultContextSize is the number of reference rows handed to the prompt.
const DefaultContextSize = 3

// fieldSeparator joins cell values. Terms never contain whitespace, so a
// term cannot match across two cells.
const fieldSeparator = "\n"

func lower(s string) string {
	// cases.Caser keeps state and is not safe for concurrent use.
	return cases.Lower(language.Und).String(s)
}

// Terms normalises a query: lowercase, commas removed, split on whitespace,
// duplicates collapsed. Order of first occurrence is kept for stable output.
func Terms(query string) []string {
	normalized := strings.ReplaceAll(lower(query), ",", "")
	fields := strings.Fields(normalized)

	seen := make(map[string]struct{}, len(fields))
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		terms = append(terms, f)
	}
	return terms
}

// RowText stringifies every column of a record in table order, lowercased.
// Extra columns beyond the required four take part in scoring.
func RowText(rec models.DealRecord, columns []string) string {
	parts := make([]string, 0, len(columns))
	for _, col := range columns {
		parts = append(parts, rec.Value(col))
	}
	return lower(strings.Join(parts, fieldSeparator))
}

// Score counts how many distinct terms occur as substrings of text.
// A term counts once no matter how often it repeats.
func Score(terms []string, text string) int {
	score := 0
	for _, term := range terms {
		if strings.Contains(text, term) {
			score++
		}
	}
	return score
}

// Rank scores every record against query and orders them by score
// descending. Ties keep original row order.
func Rank(query string, table *models.DealTable) []models.ScoredCandidate {
	if table.Len() == 0 {
		return nil
	}

	terms := Terms(query)
	ranked := make([]models.ScoredCandidate, len(table.Records))
	for i, rec := range table.Records {
		ranked[i] = models.ScoredCandidate{
			Record: rec,
			Score:  Score(terms, RowText(rec, table.Columns)),
		}
	}

	slices.SortStableFunc(ranked, func(a, b models.ScoredCandidate) int {
		return b.Score - a.Score
	})
	return ranked
}

// SelectContext returns the top min(limit, rows) candidates. When the best
// score is zero the set is flagged generic so the caller substitutes
// generic guidance for concrete examples. limit <= 0 uses DefaultContextSize.
func SelectContext(query string, table *models.DealTable, limit int) *models.ContextSet {
	if limit <= 0 {
		limit = DefaultContextSize
	}

	set := &models.ContextSet{
		Terms: Terms(query),
		Mode:  models.ContextModeGeneric,
	}

	ranked := Rank(query, table)
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	set.Candidates = ranked

	for _, c := range ranked {
		if c.Score > set.MaxScore {
			set.MaxScore = c.Score
		}
	}
	if set.MaxScore > 0 {
		set.Mode = models.ContextModeHistoric
	}
	return set
}
