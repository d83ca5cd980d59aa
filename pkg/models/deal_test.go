package models

import "testing"

func TestDealRecord_Value(t *testing.T) {
	rec := DealRecord{Index: 0, Values: map[string]string{
		ColumnClientRequirements: "Refinance",
		ColumnProductFeatures:    "",
	}}

	if got := rec.Value(ColumnClientRequirements); got != "Refinance" {
		t.Errorf("Value(requirements) = %q, want %q", got, "Refinance")
	}
	if got := rec.Value(ColumnProductFeatures); got != "" {
		t.Errorf("Value(features) = %q, want empty", got)
	}
	if got := rec.Value("Broker Notes"); got != "" {
		t.Errorf("Value(missing column) = %q, want empty", got)
	}
}

func TestDealTable_Len(t *testing.T) {
	var nilTable *DealTable
	if nilTable.Len() != 0 {
		t.Errorf("nil table Len() = %d, want 0", nilTable.Len())
	}

	table := &DealTable{Records: make([]DealRecord, 4)}
	if table.Len() != 4 {
		t.Errorf("Len() = %d, want 4", table.Len())
	}
}

func TestRequiredColumns_Order(t *testing.T) {
	want := []string{"Client Requirements", "Client Objectives", "Product Features", "Why this Product was Selected"}
	if len(RequiredColumns) != len(want) {
		t.Fatalf("len(RequiredColumns) = %d, want %d", len(RequiredColumns), len(want))
	}
	for i := range want {
		if RequiredColumns[i] != want[i] {
			t.Errorf("RequiredColumns[%d] = %q, want %q", i, RequiredColumns[i], want[i])
		}
	}
}
