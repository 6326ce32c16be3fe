package gemini

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"calc-backend/internal/llm"
)

const defaultModel = "gemini-1.5-flash"

// Client implements llm.Client on the Gemini generateContent API.
type Client struct {
	cl       *genai.Client
	model    string
	generate generateFunc
}

type generateFunc func(ctx context.Context, model string, parts ...genai.Part) (*genai.GenerateContentResponse, error)

// NewClient dials the Gemini API once; the returned client is safe for concurrent use.
func NewClient(ctx context.Context, apiKey, model string, opts ...option.ClientOption) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("GEMINI_API_KEY is required")
	}
	model = strings.TrimSpace(model)
	if model == "" {
		model = defaultModel
	}
	cl, err := genai.NewClient(ctx, append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	c := &Client{cl: cl, model: model}
	c.generate = c.generateContent
	return c, nil
}

// Model returns the configured model name.
func (c *Client) Model() string { return c.model }

// Generate sends the prompt followed by the image and returns the reply text.
// A candidate with no text yields an empty string and a nil error.
func (c *Client) Generate(ctx context.Context, req llm.Request) (string, error) {
	parts := []genai.Part{genai.Text(req.Prompt)}
	if len(req.Image) > 0 {
		parts = append(parts, &genai.Blob{MIMEType: req.MIMEType, Data: req.Image})
	}

	resp, err := c.generate(ctx, c.model, parts...)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	logUsage(c.model, resp)

	txt, ok := candidateText(resp)
	if !ok {
		return "", fmt.Errorf("gemini: response has no candidates")
	}
	return txt, nil
}

func (c *Client) generateContent(ctx context.Context, model string, parts ...genai.Part) (*genai.GenerateContentResponse, error) {
	m := c.cl.GenerativeModel(model)
	if m == nil {
		return nil, fmt.Errorf("gemini: model is nil")
	}
	return m.GenerateContent(ctx, parts...)
}

// Close releases the underlying gRPC connection.
func (c *Client) Close() error {
	if c == nil || c.cl == nil {
		return nil
	}
	return c.cl.Close()
}

// candidateText joins the text parts of the first candidate that has content.
// ok is false when no candidate carries content.
func candidateText(resp *genai.GenerateContentResponse) (string, bool) {
	if resp == nil {
		return "", false
	}
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		var sb strings.Builder
		for _, p := range cand.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				sb.WriteString(string(t))
			}
		}
		return sb.String(), true
	}
	return "", false
}

func logUsage(model string, resp *genai.GenerateContentResponse) {
	if resp == nil || resp.UsageMetadata == nil {
		log.Printf("llm response provider=gemini model=%s", model)
		return
	}
	u := resp.UsageMetadata
	log.Printf("llm response provider=gemini model=%s prompt_tokens=%d completion_tokens=%d total_tokens=%d",
		model, u.PromptTokenCount, u.CandidatesTokenCount, u.TotalTokenCount)
}

var _ llm.Client = (*Client)(nil)
