package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sbalaji92/investlens/internal/agent"
	"github.com/sbalaji92/investlens/internal/config"
	"github.com/sbalaji92/investlens/internal/datasource"
	"github.com/sbalaji92/investlens/internal/llm"
	"github.com/sbalaji92/investlens/internal/search"
	"github.com/sbalaji92/investlens/internal/tools"
	"github.com/sbalaji92/investlens/pkg/models"
)

// ════════════════════════════════════════════════════════════
// Test fixtures
// ════════════════════════════════════════════════════════════

type fakeMarket struct {
	profiles     map[string]*models.CompanyProfile
	fundamentals map[string]*models.RawFundamentals
}

func (f *fakeMarket) GetProfile(ctx context.Context, symbol string) (*models.CompanyProfile, error) {
	p, ok := f.profiles[strings.ToUpper(symbol)]
	if !ok {
		return nil, datasource.ErrTickerNotFound
	}
	return p, nil
}

func (f *fakeMarket) GetFundamentals(ctx context.Context, ticker string) (*models.RawFundamentals, error) {
	r, ok := f.fundamentals[strings.ToUpper(ticker)]
	if !ok {
		return nil, datasource.ErrTickerNotFound
	}
	return r, nil
}

type fakeLLM struct {
	chatContent string
	searchText  string
}

func (f *fakeLLM) Name() string                   { return "fake" }
func (f *fakeLLM) Models() []string               { return nil }
func (f *fakeLLM) Ping(ctx context.Context) error { return nil }
func (f *fakeLLM) Chat(ctx context.Context, messages []llm.Message, tls []llm.Tool, opts *llm.ChatOptions) (*llm.Response, error) {
	return &llm.Response{Content: f.chatContent, FinishReason: llm.FinishStop}, nil
}
func (f *fakeLLM) GenerateWithSearch(ctx context.Context, prompt string, opts *llm.ChatOptions) (*llm.Response, error) {
	return &llm.Response{Content: f.searchText}, nil
}

func sampleFundamentals() *models.RawFundamentals {
	return &models.RawFundamentals{
		Statements: []models.StatementColumn{{
			EndDate: "2025-06-30",
			Items: map[string]*float64{
				"Total Revenue": models.Float(245000000000),
				"Net Income":    models.Float(88000000000),
			},
		}},
		Attributes: models.CompanyAttributes{
			LongName:  "Microsoft Corporation",
			Currency:  "USD",
			MarketCap: models.Float(3.1e12),
		},
	}
}

func newTestServer(t *testing.T, provider llm.LLMProvider) *Server {
	t.Helper()

	market := &fakeMarket{
		profiles: map[string]*models.CompanyProfile{
			"MSFT": {Symbol: "MSFT", LongName: "Microsoft Corporation", Exchange: "NasdaqGS"},
			"ACN":  {Symbol: "ACN", LongName: "Accenture plc", Exchange: "NYSE"},
		},
		fundamentals: map[string]*models.RawFundamentals{
			"MSFT": sampleFundamentals(),
		},
	}

	cfg := &config.Config{
		LLM:        config.LLMConfig{Model: "test-model"},
		DataSource: config.DataSourceConfig{NewsLimit: 10},
		Agent:      config.AgentConfig{MemorySize: 10, MaxToolIterations: 5},
		API:        config.APIConfig{CORSOrigins: []string{"*"}},
	}

	toolkit := tools.NewToolkit(market, provider, cfg.LLM.Model)

	srv := &Server{
		cfg:     cfg,
		toolkit: toolkit,
		analyzer: agent.NewAnalyzer(agent.Config{
			Provider:    provider,
			Toolkit:     toolkit,
			MemorySize:  cfg.Agent.MemorySize,
			MaxToolIter: cfg.Agent.MaxToolIterations,
		}),
		news:  datasource.NewNews(),
		wsHub: NewWSHub(),
	}
	srv.search = search.NewService(toolkit, nil)
	srv.router = srv.buildRouter()
	return srv
}

func doRequest(t *testing.T, srv *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var resp APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v\nbody: %s", err, rec.Body.String())
	}
	return resp
}

// ════════════════════════════════════════════════════════════
// Health
// ════════════════════════════════════════════════════════════

func TestHandleHealth(t *testing.T) {
	srv := newTestServer(t, &fakeLLM{})

	for _, path := range []string{"/health", "/api/health"} {
		rec := doRequest(t, srv, http.MethodGet, path, nil)
		if rec.Code != http.StatusOK {
			t.Errorf("%s: status %d", path, rec.Code)
		}
		var body map[string]string
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("%s: decode: %v", path, err)
		}
		if body["status"] != "healthy" {
			t.Errorf("%s: status field = %q", path, body["status"])
		}
		if body["message"] != "Financial Investment Analyzer API is running" {
			t.Errorf("%s: message field = %q", path, body["message"])
		}
	}
}

// ════════════════════════════════════════════════════════════
// Financial metrics
// ════════════════════════════════════════════════════════════

func TestHandleFinancialMetrics(t *testing.T) {
	srv := newTestServer(t, &fakeLLM{})

	rec := doRequest(t, srv, http.MethodPost, "/api/financial-metrics", MetricsRequest{Ticker: "msft"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	resp := decodeResponse(t, rec)
	if !resp.Success {
		t.Fatalf("expected success, got error %q", resp.Error)
	}

	data, ok := resp.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("unexpected data type %T", resp.Data)
	}
	if data["fiscal_year"] != "2025-06-30" {
		t.Errorf("fiscal_year = %v", data["fiscal_year"])
	}
}

func TestHandleFinancialMetricsUnknownTicker(t *testing.T) {
	srv := newTestServer(t, &fakeLLM{})

	rec := doRequest(t, srv, http.MethodPost, "/api/financial-metrics", MetricsRequest{Ticker: "ZZZZ"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", rec.Code)
	}
	resp := decodeResponse(t, rec)
	if resp.Success {
		t.Error("expected failure envelope")
	}
	if !strings.Contains(resp.Error, "ZZZZ") {
		t.Errorf("error should name the ticker: %q", resp.Error)
	}
}

func TestHandleFinancialMetricsMissingTicker(t *testing.T) {
	srv := newTestServer(t, &fakeLLM{})

	rec := doRequest(t, srv, http.MethodPost, "/api/financial-metrics", MetricsRequest{})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", rec.Code)
	}
}

func TestHandleFinancialMetricsBadBody(t *testing.T) {
	srv := newTestServer(t, &fakeLLM{})

	req := httptest.NewRequest(http.MethodPost, "/api/financial-metrics", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", rec.Code)
	}
}

// ════════════════════════════════════════════════════════════
// Trading status
// ════════════════════════════════════════════════════════════

func TestHandleTradingStatus(t *testing.T) {
	srv := newTestServer(t, &fakeLLM{})

	rec := doRequest(t, srv, http.MethodPost, "/api/trading-status",
		TradingStatusRequest{CompanyNames: "Microsoft, PWC"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	resp := decodeResponse(t, rec)
	if !resp.Success {
		t.Fatalf("expected success, got %q", resp.Error)
	}

	data, ok := resp.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("unexpected data type %T", resp.Data)
	}
	if data["public_count"] != float64(1) {
		t.Errorf("public_count = %v", data["public_count"])
	}
	if data["private_count"] != float64(1) {
		t.Errorf("private_count = %v", data["private_count"])
	}
}

func TestHandleTradingStatusMissingNames(t *testing.T) {
	srv := newTestServer(t, &fakeLLM{})

	rec := doRequest(t, srv, http.MethodPost, "/api/trading-status", TradingStatusRequest{})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", rec.Code)
	}
}

// ════════════════════════════════════════════════════════════
// Partner search
// ════════════════════════════════════════════════════════════

func TestHandleFindContracted(t *testing.T) {
	srv := newTestServer(t, &fakeLLM{searchText: "Oracle partners with Accenture and IBM."})

	rec := doRequest(t, srv, http.MethodPost, "/api/find-contracted",
		SearchRequest{CompanyName: "Oracle"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	resp := decodeResponse(t, rec)
	if !resp.Success {
		t.Fatalf("expected success, got %q", resp.Error)
	}

	data := resp.Data.(map[string]interface{})
	report, _ := data["report"].(string)
	if !strings.HasPrefix(report, "Contracted companies for Oracle:") {
		t.Errorf("unexpected report prefix: %q", report)
	}
}

func TestHandleFindContractedNoProvider(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := doRequest(t, srv, http.MethodPost, "/api/find-contracted",
		SearchRequest{CompanyName: "Oracle"})
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status %d, want 500", rec.Code)
	}
	resp := decodeResponse(t, rec)
	if resp.Success {
		t.Error("expected failure envelope")
	}
}

// ════════════════════════════════════════════════════════════
// Aggregated search
// ════════════════════════════════════════════════════════════

func TestHandleSearch(t *testing.T) {
	srv := newTestServer(t, &fakeLLM{searchText: "Oracle works with Accenture and Microsoft."})

	rec := doRequest(t, srv, http.MethodPost, "/api/search", SearchRequest{CompanyName: "Oracle"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	resp := decodeResponse(t, rec)
	if !resp.Success {
		t.Fatalf("expected success, got %q", resp.Error)
	}

	data := resp.Data.(map[string]interface{})
	if data["company_searched"] != "Oracle" {
		t.Errorf("company_searched = %v", data["company_searched"])
	}
	if data["public_companies_count"] != float64(2) {
		t.Errorf("public_companies_count = %v", data["public_companies_count"])
	}
}

func TestHandleSearchMissingName(t *testing.T) {
	srv := newTestServer(t, &fakeLLM{})

	rec := doRequest(t, srv, http.MethodPost, "/api/search", SearchRequest{})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", rec.Code)
	}
}

// ════════════════════════════════════════════════════════════
// Chat
// ════════════════════════════════════════════════════════════

func TestHandleChat(t *testing.T) {
	srv := newTestServer(t, &fakeLLM{chatContent: "Microsoft looks healthy."})

	rec := doRequest(t, srv, http.MethodPost, "/api/chat", ChatRequest{Message: "How is Microsoft doing?"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	resp := decodeResponse(t, rec)
	if !resp.Success {
		t.Fatalf("expected success, got %q", resp.Error)
	}

	data := resp.Data.(map[string]interface{})
	if data["content"] != "Microsoft looks healthy." {
		t.Errorf("content = %v", data["content"])
	}
	if data["agent"] != agent.AnalyzerName {
		t.Errorf("agent = %v", data["agent"])
	}
}

func TestHandleChatMissingMessage(t *testing.T) {
	srv := newTestServer(t, &fakeLLM{})

	rec := doRequest(t, srv, http.MethodPost, "/api/chat", ChatRequest{})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", rec.Code)
	}
}

// ════════════════════════════════════════════════════════════
// Config keys
// ════════════════════════════════════════════════════════════

func TestHandleGetConfigKeys(t *testing.T) {
	srv := newTestServer(t, &fakeLLM{})

	rec := doRequest(t, srv, http.MethodGet, "/api/config/keys", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	resp := decodeResponse(t, rec)
	if !resp.Success {
		t.Fatalf("expected success, got %q", resp.Error)
	}

	data := resp.Data.(map[string]interface{})
	keys, ok := data["keys"].([]interface{})
	if !ok || len(keys) != 1 {
		t.Fatalf("keys = %v", data["keys"])
	}
	first := keys[0].(map[string]interface{})
	if first["name"] != "Gemini API Key" {
		t.Errorf("key name = %v", first["name"])
	}
	if first["is_set"] != false {
		t.Errorf("is_set = %v", first["is_set"])
	}
}

// ════════════════════════════════════════════════════════════
// Error mapping
// ════════════════════════════════════════════════════════════

func TestStatusForError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", &tools.ValidationError{Field: "ticker", Message: "required"}, http.StatusBadRequest},
		{"not found", &tools.NotFoundError{Resource: "ticker", Message: "no data"}, http.StatusBadRequest},
		{"ticker sentinel", datasource.ErrTickerNotFound, http.StatusBadRequest},
		{"external", &tools.ExternalServiceError{Service: "partner search", Err: llm.ErrNoAPIKey}, http.StatusInternalServerError},
		{"generic", context.DeadlineExceeded, http.StatusInternalServerError},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := statusForError(tc.err); got != tc.want {
				t.Errorf("statusForError(%v) = %d, want %d", tc.err, got, tc.want)
			}
		})
	}
}

// ════════════════════════════════════════════════════════════
// WebSocket
// ════════════════════════════════════════════════════════════

func TestWebSocketPingPong(t *testing.T) {
	srv := newTestServer(t, &fakeLLM{})
	go srv.wsHub.Run()

	ts := httptest.NewServer(srv.router)
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(WSMessage{Type: "ping"}); err != nil {
		t.Fatalf("write: %v", err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var msg WSMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	if msg.Type != "pong" {
		t.Errorf("message type = %q, want pong", msg.Type)
	}
}

func TestWSHubEvictsSlowClientWithoutPanic(t *testing.T) {
	hub := NewWSHub()
	go hub.Run()

	client := &WSClient{hub: hub, send: make(chan WSMessage, 1)}
	hub.Register(client)

	// First message fills the client's buffer; the second finds it full
	// and evicts the client.
	hub.Broadcast(WSMessage{Type: "search_progress"})
	hub.Broadcast(WSMessage{Type: "search_progress"})

	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() != 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if hub.ClientCount() != 0 {
		t.Fatal("slow client was not evicted")
	}

	// The connection's read pump can still be answering a ping after
	// eviction; queuing on the evicted client must be a no-op.
	if client.trySend(WSMessage{Type: "pong"}) {
		t.Error("trySend should report failure after eviction")
	}
}

func TestWebSocketBroadcast(t *testing.T) {
	srv := newTestServer(t, &fakeLLM{})
	go srv.wsHub.Run()

	ts := httptest.NewServer(srv.router)
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// Wait for the client to register before broadcasting.
	deadline := time.Now().Add(2 * time.Second)
	for srv.wsHub.ClientCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if srv.wsHub.ClientCount() != 1 {
		t.Fatalf("ClientCount = %d, want 1", srv.wsHub.ClientCount())
	}

	srv.wsHub.Broadcast(WSMessage{
		Type: "search_progress",
		Data: map[string]interface{}{"stage": "partners", "detail": "Oracle"},
	})

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var msg WSMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	if msg.Type != "search_progress" {
		t.Errorf("message type = %q", msg.Type)
	}
}
