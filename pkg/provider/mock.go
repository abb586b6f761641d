package provider

import (
	"context"
	"sync"
)

/*
MockProvider answers with a caller supplied function and records every
request, so tests can assert on the prompts a pipeline produced.
*/
type MockProvider struct {
	mu       sync.Mutex
	handler  func(ctx context.Context, req Request) (string, error)
	requests []Request
}

func NewMockProvider(handler func(ctx context.Context, req Request) (string, error)) *MockProvider {
	return &MockProvider{handler: handler}
}

/*
NewScriptedProvider answers each stage with a fixed response keyed by stage
name. Unknown stages get an empty response.
*/
func NewScriptedProvider(responses map[string]string) *MockProvider {
	return NewMockProvider(func(ctx context.Context, req Request) (string, error) {
		return responses[req.Stage], nil
	})
}

func (mock *MockProvider) Complete(ctx context.Context, req Request) (string, error) {
	mock.mu.Lock()
	mock.requests = append(mock.requests, req)
	mock.mu.Unlock()

	return mock.handler(ctx, req)
}

func (mock *MockProvider) Requests() []Request {
	mock.mu.Lock()
	defer mock.mu.Unlock()

	out := make([]Request, len(mock.requests))
	copy(out, mock.requests)
	return out
}
