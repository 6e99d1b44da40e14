// Package llmtest provides a scripted LLM for tests.
package llmtest

import (
	"context"
	"iter"
	"sync"
	"time"

	adkmodel "google.golang.org/adk/model"
	"google.golang.org/genai"
)

// FakeLLM answers every request with Text, or fails with Err. When Panic is
// set GenerateContent panics with that value. Delay holds the answer back
// until it elapses or the request context is done.
type FakeLLM struct {
	Text  string
	Err   error
	Panic any
	Delay time.Duration

	mu       sync.Mutex
	requests []*adkmodel.LLMRequest
}

func (f *FakeLLM) Name() string {
	return "fake"
}

func (f *FakeLLM) GenerateContent(ctx context.Context, req *adkmodel.LLMRequest, stream bool) iter.Seq2[*adkmodel.LLMResponse, error] {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	if f.Panic != nil {
		panic(f.Panic)
	}

	return func(yield func(*adkmodel.LLMResponse, error) bool) {
		if f.Delay > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(f.Delay):
			}
		}
		if err := ctx.Err(); err != nil {
			yield(nil, err)
			return
		}
		if f.Err != nil {
			yield(nil, f.Err)
			return
		}
		yield(&adkmodel.LLMResponse{
			Content: genai.NewContentFromText(f.Text, genai.RoleModel),
		}, nil)
	}
}

// Requests returns every request received so far.
func (f *FakeLLM) Requests() []*adkmodel.LLMRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*adkmodel.LLMRequest(nil), f.requests...)
}
