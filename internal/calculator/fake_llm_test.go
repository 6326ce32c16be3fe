package calculator

import (
	"context"
	"sync"

	"calc-backend/internal/llm"
)

type fakeLLM struct {
	mu    sync.Mutex
	reply string
	err   error
	calls []llm.Request
}

func (f *fakeLLM) Generate(ctx context.Context, req llm.Request) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, req)
	return f.reply, f.err
}

func (f *fakeLLM) lastRequest() (llm.Request, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		return llm.Request{}, false
	}
	return f.calls[len(f.calls)-1], true
}
