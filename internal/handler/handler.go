package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"unicode/utf8"

	"github.com/vitormoschetta/sentiment-chat/internal/model"
	"github.com/vitormoschetta/sentiment-chat/internal/server"
)

const maxBodyBytes = 1 << 20

var errInvalidUTF8 = errors.New("request body is not valid UTF-8")

// Handler contains the dependencies the HTTP handlers need.
type Handler struct {
	server *server.Server
}

// NewHandler creates the handlers on top of srv's dependencies.
func NewHandler(srv *server.Server) *Handler {
	return &Handler{
		server: srv,
	}
}

// HandleRoot is the liveness route. It does not depend on the model client.
func (h *Handler) HandleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, model.StatusResponse{
		Status: model.BackendRunning,
		Region: h.server.Config.Region,
	})
}

func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("OK")); err != nil {
		slog.Warn("[Handler] Failed to write response", slog.String("error", err.Error()))
	}
}

// HandlePreflight acknowledges the browser's CORS probe for /api/chat.
func (h *Handler) HandlePreflight(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, model.MessageResponse{Message: model.PreflightOK})
}

// HandleChat answers 400 when the message is missing and 200 otherwise, even
// when the model call fails.
func (h *Handler) HandleChat(w http.ResponseWriter, r *http.Request) {
	req, err := decodeChatRequest(w, r)
	if err != nil || req.Message == "" {
		if err != nil {
			slog.Debug("[Handler] Rejecting chat request", slog.String("error", err.Error()))
		}
		h.server.Metrics.RecordValidationError()
		writeJSON(w, http.StatusBadRequest, model.ErrorResponse{Error: model.MissingMessageError})
		return
	}

	slog.Info("[Handler] Processing chat message", slog.Int("length", len(req.Message)))

	resp := h.server.Service.Handle(r.Context(), req.Message)
	writeJSON(w, http.StatusOK, resp)
}

// decodeChatRequest rejects bodies that are not valid UTF-8; json.Unmarshal
// would otherwise turn those bytes into U+FFFD.
func decodeChatRequest(w http.ResponseWriter, r *http.Request) (model.ChatRequest, error) {
	var req model.ChatRequest

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return req, err
	}
	if !utf8.Valid(body) {
		return req, errInvalidUTF8
	}
	if err := json.Unmarshal(body, &req); err != nil {
		return req, err
	}
	return req, nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Warn("[Handler] Failed to write response", slog.String("error", err.Error()))
	}
}
