package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	adkmodel "google.golang.org/adk/model"
	"google.golang.org/genai"

	"github.com/vitormoschetta/sentiment-chat/internal/metrics"
	"github.com/vitormoschetta/sentiment-chat/internal/model"
)

// Failure causes that end in the fallback result.
var (
	ErrModelUnavailable = errors.New("gemini client is not initialized")
	ErrEmptyResponse    = errors.New("model returned an empty response")
	ErrMalformedOutput  = errors.New("model returned malformed output")

	errModelPanic = errors.New("model client panicked")
)

// SystemInstruction tells the model to answer with the sentiment/emoji/response object.
const SystemInstruction = `You are a friendly chat assistant that also analyzes the sentiment of every message the user sends.
Always reply with a JSON object that has exactly three keys:
"sentiment": a single uppercase word describing the tone of the user's message, such as POSITIVE, NEGATIVE or NEUTRAL.
"emoji": one emoji that matches that sentiment.
"response": a short, kind reply to the user's message.`

// ResponseSchema constrains the model output to the SentimentResult shape.
var ResponseSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"sentiment": {Type: genai.TypeString},
		"emoji":     {Type: genai.TypeString},
		"response":  {Type: genai.TypeString},
	},
	Required:         []string{"sentiment", "emoji", "response"},
	PropertyOrdering: []string{"sentiment", "emoji", "response"},
}

// ChatService turns a chat message into a sentiment-tagged reply. The model
// handle is set once at construction and may be nil when the client could not
// be initialized; every call then degrades to the fallback result.
type ChatService struct {
	llm       adkmodel.LLM
	modelName string
	timeout   time.Duration
	metrics   *metrics.Metrics
}

// Option configures a ChatService.
type Option func(*ChatService)

// WithTimeout bounds each outbound model call. Zero means no bound.
func WithTimeout(d time.Duration) Option {
	return func(s *ChatService) {
		s.timeout = d
	}
}

// WithMetrics records outcomes and model latency on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *ChatService) {
		s.metrics = m
	}
}

// NewChatService builds the service. llm may be nil.
func NewChatService(llm adkmodel.LLM, modelName string, opts ...Option) *ChatService {
	s := &ChatService{
		llm:       llm,
		modelName: modelName,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Available reports whether the model client was initialized.
func (s *ChatService) Available() bool {
	return s.llm != nil
}

// Handle analyzes message and returns the full response for the frontend.
// It never fails: model faults are reported inside the response.
func (s *ChatService) Handle(ctx context.Context, message string) model.ChatResponse {
	result := s.Analyze(ctx, message)
	s.metrics.RecordChat(result.Sentiment)
	return model.NewChatResponse(message, result)
}

// Analyze asks the model for a SentimentResult, converting every failure into
// the fallback result.
func (s *ChatService) Analyze(ctx context.Context, message string) model.SentimentResult {
	if s.llm == nil {
		slog.Error("[ChatService] Gemini client is not initialized, returning fallback")
		s.metrics.RecordModelFailure(metrics.ReasonUnavailable)
		return model.FallbackResult(fallbackMessage(ErrModelUnavailable))
	}

	start := time.Now()
	result, err := s.classify(ctx, message)
	s.metrics.ObserveModelLatency(time.Since(start))
	if err != nil {
		slog.Error("[ChatService] Model call failed",
			slog.String("model", s.modelName),
			slog.String("error", err.Error()))
		s.metrics.RecordModelFailure(failureReason(err))
		return model.FallbackResult(fallbackMessage(err))
	}

	slog.Debug("[ChatService] Message classified",
		slog.String("sentiment", result.Sentiment),
		slog.String("emoji", result.Emoji))
	return result
}

func (s *ChatService) classify(ctx context.Context, message string) (result model.SentimentResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", errModelPanic, r)
		}
	}()

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	text, err := s.generate(ctx, s.BuildRequest(message))
	if err != nil {
		return model.SentimentResult{}, err
	}

	return DecodeResult(text)
}

// BuildRequest assembles the structured-output request for one message. The
// message is passed through as the user turn without any rewriting.
func (s *ChatService) BuildRequest(message string) *adkmodel.LLMRequest {
	return &adkmodel.LLMRequest{
		Model: s.modelName,
		Contents: []*genai.Content{
			genai.NewContentFromText(message, genai.RoleUser),
		},
		Config: &genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(SystemInstruction, genai.RoleUser),
			ResponseMIMEType:  "application/json",
			ResponseSchema:    ResponseSchema,
		},
	}
}

func (s *ChatService) generate(ctx context.Context, req *adkmodel.LLMRequest) (string, error) {
	var text strings.Builder

	for resp, err := range s.llm.GenerateContent(ctx, req, false) {
		if err != nil {
			return "", fmt.Errorf("generate content: %w", err)
		}
		if resp == nil || resp.Content == nil {
			continue
		}
		for _, part := range resp.Content.Parts {
			if part != nil && part.Text != "" {
				text.WriteString(part.Text)
			}
		}
	}

	if strings.TrimSpace(text.String()) == "" {
		return "", ErrEmptyResponse
	}
	return text.String(), nil
}

type rawResult struct {
	Sentiment *string `json:"sentiment"`
	Emoji     *string `json:"emoji"`
	Response  *string `json:"response"`
}

// DecodeResult parses the model's JSON text. All three keys must be present
// and hold strings.
func DecodeResult(text string) (model.SentimentResult, error) {
	var raw rawResult
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &raw); err != nil {
		return model.SentimentResult{}, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}

	switch {
	case raw.Sentiment == nil:
		return model.SentimentResult{}, fmt.Errorf("%w: missing key %q", ErrMalformedOutput, "sentiment")
	case raw.Emoji == nil:
		return model.SentimentResult{}, fmt.Errorf("%w: missing key %q", ErrMalformedOutput, "emoji")
	case raw.Response == nil:
		return model.SentimentResult{}, fmt.Errorf("%w: missing key %q", ErrMalformedOutput, "response")
	}

	return model.SentimentResult{
		Sentiment: *raw.Sentiment,
		Emoji:     *raw.Emoji,
		Response:  *raw.Response,
	}, nil
}

func fallbackMessage(err error) string {
	return fmt.Sprintf("Sorry, I couldn't analyze your message right now: %v", err)
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, ErrModelUnavailable):
		return metrics.ReasonUnavailable
	case errors.Is(err, ErrEmptyResponse):
		return metrics.ReasonEmpty
	case errors.Is(err, ErrMalformedOutput):
		return metrics.ReasonMalformed
	case errors.Is(err, errModelPanic):
		return metrics.ReasonPanic
	default:
		return metrics.ReasonCall
	}
}
