package scoring

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fosterfinance/deal-assistant/pkg/deals"
	"github.com/fosterfinance/deal-assistant/pkg/models"
)

func newTable(rows ...[4]string) *models.DealTable {
	table := &models.DealTable{Columns: append([]string(nil), models.RequiredColumns...)}
	for i, row := range rows {
		values := make(map[string]string, 4)
		for j, col := range models.RequiredColumns {
			values[col] = row[j]
		}
		table.Records = append(table.Records, models.DealRecord{Index: i, Values: values})
	}
	return table
}

func TestTerms_NormalisesQuery(t *testing.T) {
	terms := Terms("Refinance, INVESTMENT property  refinance\tproperty")
	assert.Equal(t, []string{"refinance", "investment", "property"}, terms)
}

func TestTerms_Empty(t *testing.T) {
	assert.Empty(t, Terms("  , ,, "))
}

func TestScore_CountsDistinctTermsOnce(t *testing.T) {
	score := Score([]string{"loan", "rate"}, "loan loan loan at a low rate")
	assert.Equal(t, 2, score)
}

func TestScore_SubstringMatch(t *testing.T) {
	assert.Equal(t, 1, Score([]string{"invest"}, "investment property"))
}

func TestSelectContext_InvestmentRefinanceRanksFirst(t *testing.T) {
	table := newTable(
		[4]string{"First home buyer", "Buy a unit", "Low deposit", "LMI waiver"},
		[4]string{"Refinance an Investment loan", "Lower repayments", "Offset", "Sharp rate"},
		[4]string{"Construction loan", "Build a house", "Progress draws", "Flexible"},
		[4]string{"Bridging finance", "Buy before selling", "Interest capitalised", "Speed"},
	)

	set := SelectContext("refinance investment property", table, DefaultContextSize)

	require.Len(t, set.Candidates, 3)
	top := set.Candidates[0]
	assert.Equal(t, 1, top.Record.Index)
	assert.GreaterOrEqual(t, top.Score, 2)
	assert.Equal(t, models.ContextModeHistoric, set.Mode)
	assert.Equal(t, "Historic Matches", set.Label())
}

func TestSelectContext_SizeIsMinOfLimitAndRows(t *testing.T) {
	for rows := 0; rows <= 5; rows++ {
		t.Run(fmt.Sprintf("%d rows", rows), func(t *testing.T) {
			var data [][4]string
			for i := 0; i < rows; i++ {
				data = append(data, [4]string{"a", "b", "c", "d"})
			}
			set := SelectContext("anything", newTable(data...), DefaultContextSize)
			assert.Equal(t, min(3, rows), set.Len())
		})
	}
}

func TestSelectContext_NoMatchFlagsGeneric(t *testing.T) {
	table := newTable(
		[4]string{"alpha", "beta", "gamma", "delta"},
		[4]string{"epsilon", "zeta", "eta", "theta"},
	)

	set := SelectContext("refinance investment", table, DefaultContextSize)

	assert.True(t, set.NoMatch())
	assert.Equal(t, 0, set.MaxScore)
	assert.Equal(t, "General Logic", set.Label())
	for _, c := range set.Candidates {
		assert.Equal(t, 0, c.Score)
	}
	// Ties keep original row order.
	assert.Equal(t, 0, set.Candidates[0].Record.Index)
	assert.Equal(t, 1, set.Candidates[1].Record.Index)
}

func TestSelectContext_EmptyTable(t *testing.T) {
	set := SelectContext("refinance", newTable(), DefaultContextSize)
	assert.Equal(t, 0, set.Len())
	assert.True(t, set.NoMatch())

	set = SelectContext("refinance", nil, DefaultContextSize)
	assert.Equal(t, 0, set.Len())
}

func TestRank_TiesPreserveRowOrder(t *testing.T) {
	table := newTable(
		[4]string{"rate", "", "", ""},
		[4]string{"rate offset", "", "", ""},
		[4]string{"rate", "", "", ""},
		[4]string{"offset rate", "", "", ""},
	)

	ranked := Rank("rate offset", table)

	var order []int
	for _, c := range ranked {
		order = append(order, c.Record.Index)
	}
	assert.Equal(t, []int{1, 3, 0, 2}, order)
}

func TestRank_Deterministic(t *testing.T) {
	table := newTable(
		[4]string{"investment", "refinance", "", ""},
		[4]string{"investment", "", "", ""},
		[4]string{"", "refinance", "", ""},
	)

	first := Rank("refinance investment", table)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, Rank("refinance investment", table))
	}
}

func TestRank_ExtraColumnsParticipate(t *testing.T) {
	table := newTable(
		[4]string{"a", "b", "c", "d"},
		[4]string{"a", "b", "c", "d"},
	)
	table.Columns = append(table.Columns, "Suburb")
	table.Records[1].Values["Suburb"] = "Wollstonecraft"

	ranked := Rank("wollstonecraft", table)
	assert.Equal(t, 1, ranked[0].Record.Index)
	assert.Equal(t, 1, ranked[0].Score)
}

func TestRank_NoCrossCellMatch(t *testing.T) {
	table := newTable([4]string{"low", "rate", "", ""})
	ranked := Rank("lowrate", table)
	assert.Equal(t, 0, ranked[0].Score)
}

func TestRank_DuplicateColumnsBothParticipate(t *testing.T) {
	csvData := "Client Requirements,Client Objectives,Product Features,Why this Product was Selected,Notes,Notes\n" +
		"a,b,c,d,refinance,other\n"
	table, err := deals.Load(strings.NewReader(csvData), "deals.csv", 0)
	require.NoError(t, err)

	text := RowText(table.Records[0], table.Columns)
	assert.Equal(t, 1, strings.Count(text, "refinance"))
	assert.Equal(t, 1, strings.Count(text, "other"))

	ranked := Rank("refinance", table)
	assert.Equal(t, 1, ranked[0].Score)
}
