package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRequest(method, path string) *http.Request {
	return httptest.NewRequest(method, path, nil)
}

func TestDealsHandler_UploadMultipart(t *testing.T) {
	s := newTestServer(t)

	rec := s.uploadMultipart("Database.csv", validCSV)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp UploadResponse
	env := decodeData(t, rec, &resp)
	assert.Equal(t, 3, resp.Rows)
	assert.Equal(t, "Database.csv", resp.SourceName)
	assert.Equal(t, "Database Active: 3 deal scenarios loaded.", env.Message)

	rec = s.do(newRequest(http.MethodGet, "/api/session"))
	var summary SessionResponse
	decodeData(t, rec, &summary)
	assert.Equal(t, 3, summary.RowsLoaded)
}

func TestDealsHandler_UploadRawCSV(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/deals?name=deals-2026.csv", strings.NewReader(validCSV))
	req.Header.Set("Content-Type", "text/csv")
	rec := s.do(req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp UploadResponse
	decodeData(t, rec, &resp)
	assert.Equal(t, "deals-2026.csv", resp.SourceName)
}

func TestDealsHandler_UploadMissingColumn(t *testing.T) {
	s := newTestServer(t)

	csv := "Client Requirements,Client Objectives,Why this Product was Selected\nA,B,C\n"
	rec := s.uploadMultipart("Database.csv", csv)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	body := decodeError(t, rec)
	assert.Equal(t, "missing_columns", body["error"])
	assert.Equal(t, "Error: CSV missing headers: Product Features", body["message"])

	// The rejected file must not become the session table.
	rec = s.doJSON(http.MethodPost, "/api/deals/match", QueryRequest{Query: "refinance"})
	assert.Equal(t, "no_table", decodeError(t, rec)["error"])
}

func TestDealsHandler_UploadReplacesTable(t *testing.T) {
	s := newTestServer(t)

	require.Equal(t, http.StatusOK, s.uploadMultipart("first.csv", validCSV).Code)
	single := "Client Requirements,Client Objectives,Product Features,Why this Product was Selected\nYacht loan,Leisure,Marine finance,Specialist\n"
	require.Equal(t, http.StatusOK, s.uploadMultipart("second.csv", single).Code)

	rec := s.do(newRequest(http.MethodGet, "/api/session"))
	var summary SessionResponse
	decodeData(t, rec, &summary)
	assert.Equal(t, 1, summary.RowsLoaded)
	assert.Equal(t, "second.csv", summary.SourceName)
}

func TestDealsHandler_UploadErrors(t *testing.T) {
	s := newTestServer(t)

	rec := s.uploadMultipart("empty.csv", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "empty_file", decodeError(t, rec)["error"])

	big := validCSV + strings.Repeat("x", 1<<17) + ",y,z,w\n"
	req := httptest.NewRequest(http.MethodPost, "/api/deals", strings.NewReader(big))
	req.Header.Set("Content-Type", "text/csv")
	rec = s.do(req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, "file_too_large", decodeError(t, rec)["error"])

	var many strings.Builder
	many.WriteString("Client Requirements,Client Objectives,Product Features,Why this Product was Selected\n")
	for i := 0; i < 101; i++ {
		many.WriteString("a,b,c,d\n")
	}
	rec = s.uploadMultipart("many.csv", many.String())
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, "too_many_rows", decodeError(t, rec)["error"])
}

func TestDealsHandler_UploadMissingFileField(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/deals", strings.NewReader("--x--\r\n"))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=x")
	rec := s.do(req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDealsHandler_Match(t *testing.T) {
	s := newTestServer(t)
	require.Equal(t, http.StatusOK, s.uploadMultipart("Database.csv", validCSV).Code)

	rec := s.doJSON(http.MethodPost, "/api/deals/match", QueryRequest{Query: "refinance investment property"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp MatchResponse
	decodeData(t, rec, &resp)
	assert.Equal(t, "historic", resp.Mode)
	assert.Equal(t, "Historic Matches", resp.Label)
	require.Len(t, resp.Matches, 3)
	assert.Equal(t, 2, resp.Matches[0].Row)
	assert.GreaterOrEqual(t, resp.Matches[0].Score, 2)
	assert.Equal(t, 0, s.client.GenerateTextCalls, "match must not call the provider")
}

func TestDealsHandler_MatchNoOverlap(t *testing.T) {
	s := newTestServer(t)
	require.Equal(t, http.StatusOK, s.uploadMultipart("Database.csv", validCSV).Code)

	rec := s.doJSON(http.MethodPost, "/api/deals/match", QueryRequest{Query: "yacht"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp MatchResponse
	decodeData(t, rec, &resp)
	assert.Equal(t, "generic", resp.Mode)
	assert.Equal(t, "General Logic", resp.Label)
	for _, m := range resp.Matches {
		assert.Equal(t, 0, m.Score)
	}
}

func TestDealsHandler_MatchEmptyQuery(t *testing.T) {
	s := newTestServer(t)
	require.Equal(t, http.StatusOK, s.uploadMultipart("Database.csv", validCSV).Code)

	rec := s.doJSON(http.MethodPost, "/api/deals/match", QueryRequest{Query: "  "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "empty_query", decodeError(t, rec)["error"])
}
