package model

// Fixed values of the HTTP contract.
const (
	SentimentError = "ERROR"
	EmojiError     = "❌"

	MissingMessageError = "Missing 'message' field"
	BackendRunning      = "Backend running"
	PreflightOK         = "CORS preflight OK"
)

// ChatRequest is the body accepted by POST /api/chat.
type ChatRequest struct {
	Message string `json:"message"`
}

// SentimentResult is the structured output requested from the model.
type SentimentResult struct {
	Sentiment string `json:"sentiment"`
	Emoji     string `json:"emoji"`
	Response  string `json:"response"`
}

// ChatResponse is returned to the frontend for every accepted chat message,
// whether the model call succeeded or not.
type ChatResponse struct {
	UserMessage     string `json:"user_message"`
	Sentiment       string `json:"sentiment"`
	SentimentEmoji  string `json:"sentiment_emoji"`
	ChatbotResponse string `json:"chatbot_response"`
}

// ErrorResponse is the 400 body for a rejected chat request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// StatusResponse is the liveness body served at /.
type StatusResponse struct {
	Status string `json:"status"`
	Region string `json:"region"`
}

// MessageResponse carries a single informational message.
type MessageResponse struct {
	Message string `json:"message"`
}

// NewChatResponse combines the original message with the model result.
func NewChatResponse(message string, result SentimentResult) ChatResponse {
	return ChatResponse{
		UserMessage:     message,
		Sentiment:       result.Sentiment,
		SentimentEmoji:  result.Emoji,
		ChatbotResponse: result.Response,
	}
}

// FallbackResult is the fixed triple returned whenever the model cannot
// produce a usable answer.
func FallbackResult(cause string) SentimentResult {
	return SentimentResult{
		Sentiment: SentimentError,
		Emoji:     EmojiError,
		Response:  cause,
	}
}
