package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fosterfinance/deal-assistant/pkg/config"
	"github.com/fosterfinance/deal-assistant/pkg/llm"
	"github.com/fosterfinance/deal-assistant/pkg/retry"
	"github.com/fosterfinance/deal-assistant/pkg/services"
	"github.com/fosterfinance/deal-assistant/pkg/session"
)

const validCSV = "Client Requirements,Client Objectives,Product Features,Why this Product was Selected\n" +
	"Owner-occupied home loan,Lower repayments,Offset account,Lowest rate for owner occupiers\n" +
	"Refinance an investment property,Release equity,Interest only period,Investment lender with cash-out\n" +
	"Car finance for a tradie,Keep cash flow,Balloon payment,Fast approval\n"

// testServer wires every API handler against a mock provider and keeps
// the session cookie between requests like a browser would.
type testServer struct {
	t       *testing.T
	mux     *http.ServeMux
	client  *llm.MockClient
	factory *llm.MockClientFactory
	cookies []*http.Cookie
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	client := llm.NewMockClient()
	client.Models = []string{"models/gemini-1.5-pro", "models/gemini-1.5-flash"}
	factory := &llm.MockClientFactory{Client: client}
	logger := zap.NewNop()

	manager := session.NewManager("test-secret", time.Hour, false, session.NewStore(time.Hour), logger)
	modelService := services.NewModelService(factory, services.ModelServiceConfig{
		FallbackModels: map[llm.Kind]string{llm.KindGemini: "models/gemini-1.5-flash"},
	}, logger)
	proposalService := services.NewProposalService(factory, services.ProposalServiceConfig{
		ContextSize: 3,
		Retry: &retry.Config{
			MaxAttempts: 3,
			MinDelay:    time.Millisecond,
			MaxDelay:    time.Millisecond,
			Multiplier:  1,
			Unit:        time.Millisecond,
		},
	}, nil, logger)

	mux := http.NewServeMux()
	NewSessionHandler(modelService, manager, logger).RegisterRoutes(mux)
	NewDealsHandler(proposalService, manager, config.UploadConfig{MaxBytes: 1 << 16, MaxRows: 100}, nil, logger).RegisterRoutes(mux)
	NewProposalsHandler(proposalService, manager, logger).RegisterRoutes(mux)

	return &testServer{t: t, mux: mux, client: client, factory: factory}
}

func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	s.t.Helper()
	for _, c := range s.cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	s.mux.ServeHTTP(rec, req)
	if cookies := rec.Result().Cookies(); len(cookies) > 0 {
		s.cookies = cookies
	}
	return rec
}

func (s *testServer) doJSON(method, path string, body any) *httptest.ResponseRecorder {
	s.t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(s.t, err)
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	return s.do(req)
}

func (s *testServer) uploadMultipart(filename, content string) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(s.t, err)
	_, err = io.WriteString(part, content)
	require.NoError(s.t, err)
	require.NoError(s.t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/deals", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return s.do(req)
}

func (s *testServer) connect() {
	s.t.Helper()
	rec := s.doJSON(http.MethodPost, "/api/session/credential", CredentialRequest{Provider: "gemini", APIKey: "AIza-test-key-123456"})
	require.Equal(s.t, http.StatusOK, rec.Code, rec.Body.String())
}

// decodeData decodes an ApiResponse and re-decodes its data into dst.
func decodeData(t *testing.T, rec *httptest.ResponseRecorder, dst any) ApiResponse {
	t.Helper()
	var envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Message string          `json:"message"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&envelope))
	if dst != nil {
		require.NoError(t, json.Unmarshal(envelope.Data, dst))
	}
	return ApiResponse{Success: envelope.Success, Message: envelope.Message}
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}
