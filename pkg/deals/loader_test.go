package deals

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fosterfinance/deal-assistant/pkg/models"
)

const validCSV = `Client Requirements,Client Objectives,Product Features,Why this Product was Selected,Broker
"Refinance an investment property","Reduce repayments","Offset account, 30yr term","Lowest rate for investors",Ana
"First home purchase","Buy in Wollstonecraft","Low deposit","LMI waiver",Ben
`

func TestLoad_ValidTable(t *testing.T) {
	table, err := Load(strings.NewReader(validCSV), "deals.csv", 0)
	require.NoError(t, err)

	assert.Equal(t, "deals.csv", table.SourceName)
	assert.Equal(t, 2, table.Len())
	assert.Len(t, table.Columns, 5)
	assert.Equal(t, "Refinance an investment property", table.Records[0].Value(models.ColumnClientRequirements))
	assert.Equal(t, "Offset account, 30yr term", table.Records[0].Value(models.ColumnProductFeatures))
	assert.Equal(t, "Ben", table.Records[1].Value("Broker"))
	assert.Equal(t, 1, table.Records[1].Index)
}

func TestLoad_MissingProductFeatures(t *testing.T) {
	csvData := "Client Requirements,Client Objectives,Why this Product was Selected\na,b,c\n"

	table, err := Load(strings.NewReader(csvData), "deals.csv", 0)
	require.Error(t, err)
	assert.Nil(t, table)

	var missing *MissingColumnsError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, []string{models.ColumnProductFeatures}, missing.Columns)
	assert.Equal(t, "CSV missing headers: Product Features", err.Error())
}

func TestLoad_HeaderMatchIsCaseSensitive(t *testing.T) {
	csvData := "client requirements,Client Objectives,Product Features,Why this Product was Selected\n"

	_, err := Load(strings.NewReader(csvData), "deals.csv", 0)

	var missing *MissingColumnsError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, []string{models.ColumnClientRequirements}, missing.Columns)
}

func TestLoad_EmptyFile(t *testing.T) {
	_, err := Load(strings.NewReader(""), "deals.csv", 0)
	assert.ErrorIs(t, err, ErrEmptyFile)
}

func TestLoad_HeaderOnly(t *testing.T) {
	csvData := "Client Requirements,Client Objectives,Product Features,Why this Product was Selected\n"

	table, err := Load(strings.NewReader(csvData), "deals.csv", 0)
	require.NoError(t, err)
	assert.Equal(t, 0, table.Len())
}

func TestLoad_StripsBOMAndPadsShortRows(t *testing.T) {
	csvData := "\ufeffClient Requirements,Client Objectives,Product Features,Why this Product was Selected\nonly one\n"

	table, err := Load(strings.NewReader(csvData), "deals.csv", 0)
	require.NoError(t, err)
	require.Equal(t, 1, table.Len())
	assert.Equal(t, "only one", table.Records[0].Value(models.ColumnClientRequirements))
	assert.Equal(t, "", table.Records[0].Value(models.ColumnSelectionRationale))
}

func TestLoad_SkipsBlankRows(t *testing.T) {
	csvData := "Client Requirements,Client Objectives,Product Features,Why this Product was Selected\n,,,\na,b,c,d\n"

	table, err := Load(strings.NewReader(csvData), "deals.csv", 0)
	require.NoError(t, err)
	require.Equal(t, 1, table.Len())
	assert.Equal(t, 0, table.Records[0].Index)
}

func TestLoad_RowLimit(t *testing.T) {
	_, err := Load(strings.NewReader(validCSV), "deals.csv", 1)
	assert.ErrorIs(t, err, ErrTooManyRows)
}

func TestValidateColumns_ReportsAllMissingInOrder(t *testing.T) {
	err := ValidateColumns([]string{"Client Objectives", "Extra"})

	var missing *MissingColumnsError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, []string{
		models.ColumnClientRequirements,
		models.ColumnProductFeatures,
		models.ColumnSelectionRationale,
	}, missing.Columns)
}

func TestLoad_DuplicateHeadersKeepEveryCell(t *testing.T) {
	csvData := "Client Requirements,Client Objectives,Product Features,Why this Product was Selected,Notes,Notes,Notes.1\n" +
		"a,b,c,d,refinance,other,third\n"

	table, err := Load(strings.NewReader(csvData), "deals.csv", 0)
	require.NoError(t, err)

	assert.Equal(t, []string{
		models.ColumnClientRequirements,
		models.ColumnClientObjectives,
		models.ColumnProductFeatures,
		models.ColumnSelectionRationale,
		"Notes", "Notes.1", "Notes.1.1",
	}, table.Columns)
	rec := table.Records[0]
	assert.Equal(t, "refinance", rec.Value("Notes"))
	assert.Equal(t, "other", rec.Value("Notes.1"))
	assert.Equal(t, "third", rec.Value("Notes.1.1"))
}

func TestLoad_DuplicateRequiredHeaderStillValidates(t *testing.T) {
	csvData := "Client Requirements,Client Requirements,Client Objectives,Product Features,Why this Product was Selected\n" +
		"first,second,b,c,d\n"

	table, err := Load(strings.NewReader(csvData), "deals.csv", 0)
	require.NoError(t, err)
	assert.Equal(t, "first", table.Records[0].Value(models.ColumnClientRequirements))
	assert.Equal(t, "second", table.Records[0].Value("Client Requirements.1"))
}
