// Package api provides the HTTP REST API server for InvestLens.
//
// It exposes endpoints for partner search, trading-status checks,
// financial metrics, company news, agent chat, and WebSocket streaming
// of search progress.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/sbalaji92/investlens/internal/agent"
	"github.com/sbalaji92/investlens/internal/config"
	"github.com/sbalaji92/investlens/internal/datasource"
	"github.com/sbalaji92/investlens/internal/llm"
	"github.com/sbalaji92/investlens/internal/search"
	"github.com/sbalaji92/investlens/internal/tools"
	"github.com/sbalaji92/investlens/pkg/utils"
)

// Server is the HTTP API server.
type Server struct {
	router   chi.Router
	cfg      *config.Config
	toolkit  *tools.Toolkit
	analyzer *agent.Analyzer
	search   *search.Service
	news     *datasource.News
	wsHub    *WSHub
}

// NewServer creates a configured API server with all routes and middleware.
func NewServer(cfg *config.Config) (*Server, error) {
	yf := datasource.NewYFinance()

	var provider llm.LLMProvider
	if cfg.LLM.GeminiKey != "" {
		p, err := llm.NewGeminiProvider(cfg.LLM.GeminiKey, llm.WithGeminiModel(cfg.LLM.Model))
		if err != nil {
			return nil, err
		}
		provider = p
	}

	toolkit := tools.NewToolkit(yf, provider, cfg.LLM.Model)

	analyzer := agent.NewAnalyzer(agent.Config{
		Provider: provider,
		Toolkit:  toolkit,
		ChatOptions: &llm.ChatOptions{
			Model:       cfg.LLM.Model,
			Temperature: cfg.LLM.Temperature,
			MaxTokens:   cfg.LLM.MaxTokens,
		},
		MemorySize:  cfg.Agent.MemorySize,
		MaxToolIter: cfg.Agent.MaxToolIterations,
	})

	srv := &Server{
		cfg:      cfg,
		toolkit:  toolkit,
		analyzer: analyzer,
		news:     datasource.NewNews(),
		wsHub:    NewWSHub(),
	}

	// Search progress is streamed to WebSocket clients as it happens.
	srv.search = search.NewService(toolkit, func(stage, detail string) {
		srv.wsHub.Broadcast(WSMessage{
			Type: "search_progress",
			Data: map[string]interface{}{"stage": stage, "detail": detail},
		})
	})

	srv.router = srv.buildRouter()
	return srv, nil
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// ListenAndServe starts the HTTP server with graceful shutdown.
func (s *Server) ListenAndServe(addr string) error {
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go s.wsHub.Run()

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	<-done
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	return httpSrv.Shutdown(ctx)
}

// buildRouter configures all routes and middleware.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))

	origins := []string{"*"}
	if len(s.cfg.API.CORSOrigins) > 0 {
		origins = s.cfg.API.CORSOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Post("/search", s.handleSearch)
		r.Post("/financial-metrics", s.handleFinancialMetrics)
		r.Post("/trading-status", s.handleTradingStatus)
		r.Post("/find-contracted", s.handleFindContracted)
		r.Post("/chat", s.handleChat)

		r.Get("/news/{ticker}", s.handleNews)
		r.Get("/config/keys", s.handleGetConfigKeys)

		r.Get("/ws", s.handleWebSocket)
	})

	return r
}

// ============================================================
// Request / Response types
// ============================================================

// APIResponse is the standard JSON envelope.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// SearchRequest is the body for POST /api/search.
type SearchRequest struct {
	CompanyName string `json:"company_name"`
}

// MetricsRequest is the body for POST /api/financial-metrics.
type MetricsRequest struct {
	Ticker string `json:"ticker"`
}

// TradingStatusRequest is the body for POST /api/trading-status.
type TradingStatusRequest struct {
	CompanyNames string `json:"company_names"`
}

// ChatRequest is the body for POST /api/chat.
type ChatRequest struct {
	Message string `json:"message"`
}

// ============================================================
// Handlers
// ============================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"message": "Financial Investment Analyzer API is running",
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.CompanyName == "" {
		writeError(w, http.StatusBadRequest, "company_name is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Minute)
	defer cancel()

	analysis, err := s.search.Analyze(ctx, req.CompanyName)
	if err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}

	s.wsHub.Broadcast(WSMessage{
		Type: "search_complete",
		Data: map[string]interface{}{
			"company_searched": analysis.CompanySearched,
			"public_count":     analysis.PublicCount,
		},
	})

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    analysis,
	})
}

func (s *Server) handleFinancialMetrics(w http.ResponseWriter, r *http.Request) {
	var req MetricsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Ticker == "" {
		writeError(w, http.StatusBadRequest, "ticker is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	result, err := s.toolkit.GetFinancialMetrics(ctx, utils.NormalizeTicker(req.Ticker))
	if err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    result,
	})
}

func (s *Server) handleTradingStatus(w http.ResponseWriter, r *http.Request) {
	var req TradingStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.CompanyNames == "" {
		writeError(w, http.StatusBadRequest, "company_names is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 1*time.Minute)
	defer cancel()

	report, err := s.toolkit.CheckPublicTradingStatus(ctx, req.CompanyNames)
	if err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    report,
	})
}

func (s *Server) handleFindContracted(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.CompanyName == "" {
		writeError(w, http.StatusBadRequest, "company_name is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Minute)
	defer cancel()

	report, err := s.toolkit.FindContractedCompanies(ctx, req.CompanyName)
	if err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    report,
	})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Minute)
	defer cancel()

	result, err := s.analyzer.Chat(ctx, req.Message)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"agent":      result.AgentName,
			"content":    result.Content,
			"tool_calls": result.ToolCalls,
			"tokens":     result.Tokens,
		},
	})
}

func (s *Server) handleNews(w http.ResponseWriter, r *http.Request) {
	ticker := chi.URLParam(r, "ticker")
	if ticker == "" {
		writeError(w, http.StatusBadRequest, "ticker is required")
		return
	}

	limit := s.cfg.DataSource.NewsLimit
	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	items, err := s.news.GetCompanyNews(ctx, utils.NormalizeTicker(ticker), limit)
	if err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    items,
	})
}

// statusForError maps the tool error taxonomy to HTTP status codes.
// Validation and lookup failures are client errors (400); only external
// and unexpected failures surface as 500.
func statusForError(err error) int {
	var ve *tools.ValidationError
	if errors.As(err, &ve) {
		return http.StatusBadRequest
	}
	var nfe *tools.NotFoundError
	if errors.As(err, &nfe) {
		return http.StatusBadRequest
	}
	if errors.Is(err, datasource.ErrTickerNotFound) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("failed to write JSON response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, APIResponse{
		Success: false,
		Error:   msg,
	})
}
