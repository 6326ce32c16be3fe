package llm

import (
	"context"
	"errors"
)

// Client abstracts vision-capable LLM providers.
type Client interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// Request is a single prompt plus one inline image.
type Request struct {
	Prompt   string
	Image    []byte
	MIMEType string
}

// ErrNotConfigured is returned by the placeholder client.
var ErrNotConfigured = errors.New("LLM provider not configured")

// PlaceholderClient is wired when no provider is configured.
type PlaceholderClient struct{}

// Generate returns ErrNotConfigured.
func (PlaceholderClient) Generate(ctx context.Context, req Request) (string, error) {
	_ = ctx
	_ = req
	return "", ErrNotConfigured
}

// Close releases provider resources when the client holds any.
func Close(c Client) error {
	if closer, ok := c.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}
