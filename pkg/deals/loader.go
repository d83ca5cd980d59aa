// Package deals loads and validates uploaded historic-deal tables.
package deals

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/fosterfinance/deal-assistant/pkg/models"
)

var (
	ErrEmptyFile   = errors.New("CSV file is empty")
	ErrTooManyRows = errors.New("CSV file exceeds the row limit")
)

// MissingColumnsError names the required headers absent from an upload.
type MissingColumnsError struct {
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return "CSV missing headers: " + strings.Join(e.Columns, ", ")
}

// ValidateColumns checks that every required header is present.
// Matching is exact: "product features" does not satisfy "Product Features".
func ValidateColumns(columns []string) error {
	present := make(map[string]bool, len(columns))
	for _, c := range columns {
		present[c] = true
	}

	var missing []string
	for _, required := range models.RequiredColumns {
		if !present[required] {
			missing = append(missing, required)
		}
	}
	if len(missing) > 0 {
		return &MissingColumnsError{Columns: missing}
	}
	return nil
}

// Load parses a CSV deal table. The header row is validated before any data
// row is read, so an invalid upload never yields a table.
// maxRows <= 0 means unlimited.
func Load(r io.Reader, name string, maxRows int) (*models.DealTable, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyFile
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	header = normalizeHeader(header)

	if err := ValidateColumns(header); err != nil {
		return nil, err
	}

	table := &models.DealTable{
		SourceName: name,
		Columns:    header,
		LoadedAt:   time.Now(),
	}

	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", len(table.Records)+1, err)
		}
		if isBlank(row) {
			continue
		}
		if maxRows > 0 && len(table.Records) >= maxRows {
			return nil, fmt.Errorf("%w (%d)", ErrTooManyRows, maxRows)
		}

		values := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(row) {
				values[col] = row[i]
			} else {
				values[col] = ""
			}
		}
		table.Records = append(table.Records, models.DealRecord{
			Index:  len(table.Records),
			Values: values,
		})
	}

	return table, nil
}

// normalizeHeader strips a UTF-8 BOM written by spreadsheet exports and
// surrounding whitespace. Case is preserved. Repeated names get a numeric
// suffix ("Notes", "Notes.1") so every cell keeps its own column.
func normalizeHeader(header []string) []string {
	out := make([]string, len(header))
	seen := make(map[string]bool, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		h = strings.TrimSpace(h)
		if seen[h] {
			base := h
			for n := 1; seen[h]; n++ {
				h = base + "." + strconv.Itoa(n)
			}
		}
		seen[h] = true
		out[i] = h
	}
	return out
}

func isBlank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
