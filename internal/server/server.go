package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	adkmodel "google.golang.org/adk/model"
	"google.golang.org/adk/model/gemini"
	"google.golang.org/genai"

	"github.com/vitormoschetta/sentiment-chat/internal/config"
	"github.com/vitormoschetta/sentiment-chat/internal/metrics"
	"github.com/vitormoschetta/sentiment-chat/internal/service"
)

// LoggingTransport logs every outbound request made by the Gemini client.
type LoggingTransport struct {
	Base http.RoundTripper
}

func (t *LoggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}

	start := time.Now()
	resp, err := base.RoundTrip(req)
	if err != nil {
		slog.Warn("[Gemini] Request failed",
			slog.String("method", req.Method),
			slog.String("path", req.URL.Path),
			slog.Duration("elapsed", time.Since(start)),
			slog.String("error", err.Error()))
		return nil, err
	}

	slog.Debug("[Gemini] Request completed",
		slog.String("method", req.Method),
		slog.String("path", req.URL.Path),
		slog.Int("status", resp.StatusCode),
		slog.Duration("elapsed", time.Since(start)))
	return resp, nil
}

// Server holds the HTTP router and every dependency the handlers need.
type Server struct {
	Config  *config.Config
	Service *service.ChatService
	Metrics *metrics.Metrics
	Router  chi.Router
}

// NewServer builds the server. A Gemini client that cannot be created is not
// fatal: the chat service runs without a model and answers with the fallback.
func NewServer(ctx context.Context, cfg *config.Config, m *metrics.Metrics) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}

	llm, err := NewModel(ctx, cfg)
	if err != nil {
		slog.Error("[Server] Gemini client not initialized, chat requests will return the fallback",
			slog.String("error", err.Error()))
	} else {
		slog.Info("[Server] Gemini client initialized", slog.String("model", cfg.GeminiModel))
	}

	svc := service.NewChatService(llm, cfg.GeminiModel,
		service.WithTimeout(cfg.ModelTimeout),
		service.WithMetrics(m),
	)

	return &Server{
		Config:  cfg,
		Service: svc,
		Metrics: m,
	}, nil
}

// NewModel creates the Gemini model handle. It returns a nil LLM together with
// the error when no credential is configured or the client fails to build.
func NewModel(ctx context.Context, cfg *config.Config) (adkmodel.LLM, error) {
	if cfg.GeminiAPIKey == "" {
		return nil, errors.New("GEMINI_API_KEY is not set")
	}

	llm, err := gemini.NewModel(ctx, cfg.GeminiModel, &genai.ClientConfig{
		APIKey:     cfg.GeminiAPIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Transport: &LoggingTransport{Base: http.DefaultTransport}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create model: %w", err)
	}
	return llm, nil
}

// SetupRouter configures routes and middlewares. mcpHandler may be nil.
func (s *Server) SetupRouter(
	handleRoot http.HandlerFunc,
	handleHealth http.HandlerFunc,
	handleChat http.HandlerFunc,
	handlePreflight http.HandlerFunc,
	mcpHandler http.Handler,
) {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(CORS(s.Config.FrontendOrigin, DefaultMethods))
	r.Use(middleware.Recoverer)

	r.Get("/", handleRoot)
	r.Get("/health", handleHealth)
	if s.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.Metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(CORS(s.Config.FrontendOrigin, APIMethods))
		r.Post("/chat", handleChat)
		r.Options("/chat", handlePreflight)
	})

	if s.Config.EnableMCP && mcpHandler != nil {
		r.With(CORS(s.Config.FrontendOrigin, MCPMethods)).Handle("/mcp", mcpHandler)
	}

	s.Router = r
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	// No WriteTimeout: the outbound model call is unbounded unless MODEL_TIMEOUT is set.
	httpServer := &http.Server{
		Addr:              s.Config.Addr(),
		Handler:           s.Router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("🚀 [Server] HTTP server listening",
			slog.String("addr", httpServer.Addr),
			slog.String("origin", s.Config.FrontendOrigin),
			slog.Bool("model_available", s.Service.Available()),
			slog.Bool("mcp", s.Config.EnableMCP))

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("🛑 [Server] Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	slog.Info("✅ [Server] Server stopped gracefully")
	return nil
}
