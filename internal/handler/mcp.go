package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/vitormoschetta/sentiment-chat/internal/model"
	"github.com/vitormoschetta/sentiment-chat/internal/service"
)

// AnalyzeToolName is the MCP tool name for the chat classifier.
const AnalyzeToolName = "analyze_sentiment"

// AnalyzeInput is the tool's argument object.
type AnalyzeInput struct {
	Message string `json:"message"`
}

// NewMCPServer exposes the chat service as a single MCP tool.
func NewMCPServer(svc *service.ChatService) *mcp.Server {
	srv := mcp.NewServer(&mcp.Implementation{
		Name:    "sentiment-chat",
		Version: "1.0.0",
	}, nil)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        AnalyzeToolName,
		Description: "Classify the sentiment of a chat message and reply to it with an emoji and a short answer.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, in AnalyzeInput) (*mcp.CallToolResult, model.ChatResponse, error) {
		if in.Message == "" {
			return nil, model.ChatResponse{}, errors.New(model.MissingMessageError)
		}
		return nil, svc.Handle(ctx, in.Message), nil
	})

	return srv
}

// NewMCPHandler serves NewMCPServer over the streamable HTTP transport.
func NewMCPHandler(svc *service.ChatService) http.Handler {
	srv := NewMCPServer(svc)
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return srv
	}, nil)
}
