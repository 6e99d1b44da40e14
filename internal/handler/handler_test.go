package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	. "github.com/onsi/gomega"
	adkmodel "google.golang.org/adk/model"

	"github.com/vitormoschetta/sentiment-chat/internal/config"
	"github.com/vitormoschetta/sentiment-chat/internal/llmtest"
	"github.com/vitormoschetta/sentiment-chat/internal/metrics"
	"github.com/vitormoschetta/sentiment-chat/internal/server"
	"github.com/vitormoschetta/sentiment-chat/internal/service"
)

const (
	testOrigin  = "https://frontend.example.run.app"
	validOutput = `{"sentiment":"POSITIVE","emoji":"😊","response":"Glad to hear it!"}`
)

func newTestRouter(llm adkmodel.LLM) http.Handler {
	cfg := &config.Config{
		Port:           config.DefaultPort,
		FrontendOrigin: testOrigin,
		Region:         config.DefaultRegion,
		GeminiModel:    "gemini-test",
		EnableMCP:      true,
	}
	m := metrics.New()
	srv := &server.Server{
		Config:  cfg,
		Service: service.NewChatService(llm, cfg.GeminiModel, service.WithMetrics(m)),
		Metrics: m,
	}

	h := NewHandler(srv)
	srv.SetupRouter(h.HandleRoot, h.HandleHealth, h.HandleChat, h.HandlePreflight, NewMCPHandler(srv.Service))
	return srv.Router
}

func do(router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Origin", testOrigin)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHandleRoot(t *testing.T) {
	g := NewWithT(t)

	// The liveness route must not depend on the model client.
	rec := do(newTestRouter(nil), http.MethodGet, "/", "")

	g.Expect(rec).To(HaveHTTPStatus(http.StatusOK))
	g.Expect(rec.Body.String()).To(MatchJSON(`{"status":"Backend running","region":"asia-south1"}`))
}

func TestHandleHealth(t *testing.T) {
	g := NewWithT(t)

	rec := do(newTestRouter(nil), http.MethodGet, "/health", "")

	g.Expect(rec).To(HaveHTTPStatus(http.StatusOK))
	g.Expect(rec).To(HaveHTTPBody("OK"))
}

func TestHandleChatSuccess(t *testing.T) {
	g := NewWithT(t)
	router := newTestRouter(&llmtest.FakeLLM{Text: validOutput})

	rec := do(router, http.MethodPost, "/api/chat", `{"message":"I love sunny days"}`)

	g.Expect(rec).To(HaveHTTPStatus(http.StatusOK))
	g.Expect(rec).To(HaveHTTPHeaderWithValue("Content-Type", "application/json"))
	g.Expect(rec.Body.String()).To(MatchJSON(`{
		"user_message": "I love sunny days",
		"sentiment": "POSITIVE",
		"sentiment_emoji": "😊",
		"chatbot_response": "Glad to hear it!"
	}`))
}

func TestHandleChatRejectsMissingMessage(t *testing.T) {
	bodies := map[string]string{
		"empty object":  `{}`,
		"empty message": `{"message":""}`,
		"no body":       ``,
		"invalid json":  `{"message":`,
		"wrong type":    `{"message":42}`,
		"invalid utf-8": "{\"message\":\"caf\xe9\"}",
	}

	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			g := NewWithT(t)
			fake := &llmtest.FakeLLM{Text: validOutput}

			rec := do(newTestRouter(fake), http.MethodPost, "/api/chat", body)

			g.Expect(rec).To(HaveHTTPStatus(http.StatusBadRequest))
			g.Expect(rec.Body.String()).To(MatchJSON(`{"error":"Missing 'message' field"}`))
			g.Expect(rec).To(HaveHTTPHeaderWithValue("Access-Control-Allow-Origin", testOrigin))
			g.Expect(fake.Requests()).To(BeEmpty())
		})
	}
}

func TestHandleChatEchoesUnicodeVerbatim(t *testing.T) {
	g := NewWithT(t)
	router := newTestRouter(&llmtest.FakeLLM{Text: validOutput})

	rec := do(router, http.MethodPost, "/api/chat", `{"message":"café ☕ 日本語"}`)

	g.Expect(rec).To(HaveHTTPStatus(http.StatusOK))
	g.Expect(rec.Body.String()).To(ContainSubstring(`"user_message":"café ☕ 日本語"`))
}

func TestHandleChatFallbackIsStillOK(t *testing.T) {
	tests := map[string]adkmodel.LLM{
		"uninitialized client": nil,
		"malformed output":     &llmtest.FakeLLM{Text: "not json at all"},
		"missing key":          &llmtest.FakeLLM{Text: `{"sentiment":"NEUTRAL","response":"ok"}`},
	}

	for name, llm := range tests {
		t.Run(name, func(t *testing.T) {
			g := NewWithT(t)

			rec := do(newTestRouter(llm), http.MethodPost, "/api/chat", `{"message":"hello there"}`)

			g.Expect(rec).To(HaveHTTPStatus(http.StatusOK))
			g.Expect(rec).To(HaveHTTPHeaderWithValue("Access-Control-Allow-Origin", testOrigin))
			g.Expect(rec.Body.String()).To(And(
				ContainSubstring(`"user_message":"hello there"`),
				ContainSubstring(`"sentiment":"ERROR"`),
				ContainSubstring(`"sentiment_emoji":"❌"`),
				ContainSubstring(`"chatbot_response":"Sorry`),
			))
		})
	}
}

func TestHandlePreflight(t *testing.T) {
	g := NewWithT(t)

	rec := do(newTestRouter(nil), http.MethodOptions, "/api/chat", "")

	g.Expect(rec).To(HaveHTTPStatus(http.StatusOK))
	g.Expect(rec.Body.String()).To(MatchJSON(`{"message":"CORS preflight OK"}`))
	g.Expect(rec).To(HaveHTTPHeaderWithValue("Access-Control-Allow-Origin", testOrigin))
	g.Expect(rec).To(HaveHTTPHeaderWithValue("Access-Control-Allow-Headers", "Content-Type,Authorization"))
	g.Expect(rec).To(HaveHTTPHeaderWithValue("Access-Control-Allow-Methods", "POST,OPTIONS"))
	g.Expect(rec).To(HaveHTTPHeaderWithValue("Access-Control-Allow-Credentials", "true"))
}

func TestCORSHeadersOnEveryResponse(t *testing.T) {
	router := newTestRouter(&llmtest.FakeLLM{Text: validOutput})

	tests := []struct {
		method  string
		path    string
		body    string
		status  int
		methods string
	}{
		{http.MethodGet, "/", "", http.StatusOK, "GET,OPTIONS"},
		{http.MethodGet, "/health", "", http.StatusOK, "GET,OPTIONS"},
		{http.MethodPost, "/api/chat", `{"message":"hi"}`, http.StatusOK, "POST,OPTIONS"},
		{http.MethodPost, "/api/chat", `{}`, http.StatusBadRequest, "POST,OPTIONS"},
		{http.MethodGet, "/api/chat", "", http.StatusMethodNotAllowed, "POST,OPTIONS"},
		{http.MethodGet, "/missing", "", http.StatusNotFound, "GET,OPTIONS"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			g := NewWithT(t)

			rec := do(router, tt.method, tt.path, tt.body)

			g.Expect(rec).To(HaveHTTPStatus(tt.status))
			g.Expect(rec).To(HaveHTTPHeaderWithValue("Access-Control-Allow-Origin", testOrigin))
			g.Expect(rec).To(HaveHTTPHeaderWithValue("Access-Control-Allow-Methods", tt.methods))
		})
	}
}

func TestMCPRouteAdvertisesTransportMethods(t *testing.T) {
	g := NewWithT(t)

	rec := do(newTestRouter(nil), http.MethodOptions, "/mcp", "")

	g.Expect(rec).To(HaveHTTPHeaderWithValue("Access-Control-Allow-Origin", testOrigin))
	g.Expect(rec).To(HaveHTTPHeaderWithValue("Access-Control-Allow-Methods", server.MCPMethods))
	g.Expect(server.MCPMethods).To(And(ContainSubstring("POST"), ContainSubstring("DELETE")))
}

func TestHandleChatIsIdempotent(t *testing.T) {
	g := NewWithT(t)
	router := newTestRouter(&llmtest.FakeLLM{Text: validOutput})

	first := do(router, http.MethodPost, "/api/chat", `{"message":"same"}`)
	second := do(router, http.MethodPost, "/api/chat", `{"message":"same"}`)

	g.Expect(second.Code).To(Equal(first.Code))
	g.Expect(second.Body.String()).To(MatchJSON(first.Body.String()))
}

func TestMetricsRoute(t *testing.T) {
	g := NewWithT(t)
	router := newTestRouter(nil)

	do(router, http.MethodPost, "/api/chat", `{"message":"hi"}`)
	do(router, http.MethodPost, "/api/chat", `{}`)
	rec := do(router, http.MethodGet, "/metrics", "")

	g.Expect(rec).To(HaveHTTPStatus(http.StatusOK))
	g.Expect(rec.Body.String()).To(And(
		ContainSubstring(`chat_requests_total{sentiment="ERROR"} 1`),
		ContainSubstring(`chat_model_failures_total{reason="unavailable"} 1`),
		ContainSubstring(`chat_validation_errors_total 1`),
	))
}
