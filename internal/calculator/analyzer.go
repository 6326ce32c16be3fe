package calculator

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"calc-backend/internal/images"
	"calc-backend/internal/llm"
	"calc-backend/internal/shared/metrics"
	"calc-backend/internal/shared/telemetry"
)

// Every stored image is sent as JPEG regardless of its real format.
const imageMIMEType = "image/jpeg"

const responsePreviewChars = 100

// Analyzer turns a stored image into a Result through a vision model.
type Analyzer struct {
	LLM llm.Client
}

// NewAnalyzer constructs an Analyzer around client.
func NewAnalyzer(client llm.Client) *Analyzer {
	return &Analyzer{LLM: client}
}

// Analyze sends the image and the rendered prompt to the model in one call.
// A reply that is not a JSON array is returned as a ParseError entry, not an error.
// The error return is reserved for a failed model call.
func (a *Analyzer) Analyze(ctx context.Context, image string, vars images.Vars) (Result, error) {
	if a == nil || a.LLM == nil {
		return nil, ErrAnalyzerUnavailable
	}
	requestID := requestIDFromContext(ctx)

	data, err := base64.StdEncoding.DecodeString(image)
	if err != nil {
		telemetry.Warn("calculate.image_decode_failed", map[string]any{
			"request_id": requestID,
			"error":      err,
		})
		return Result{ProcessingError{Message: err.Error()}}, nil
	}

	metrics.IncCalculations()
	startedAt := time.Now()
	raw, err := a.LLM.Generate(ctx, llm.Request{
		Prompt:   BuildPrompt(vars),
		Image:    data,
		MIMEType: imageMIMEType,
	})
	metrics.ObserveAICallMs(float64(time.Since(startedAt).Milliseconds()))
	if err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}

	cleaned := CleanResponse(raw)
	telemetry.Info("calculate.ai_response", map[string]any{
		"request_id": requestID,
		"preview":    preview(cleaned, responsePreviewChars),
	})

	result, ok := decodeResult(cleaned)
	if !ok {
		metrics.IncAIInvalidResponses()
		telemetry.Warn("calculate.invalid_json", map[string]any{
			"request_id":   requestID,
			"raw_response": raw,
		})
		return Result{ParseError{Raw: raw}}, nil
	}
	if n := result.UnrecognizedCount(); n > 0 {
		metrics.AddAIUnrecognizedEntries(n)
		telemetry.Warn("calculate.unrecognized_entries", map[string]any{
			"request_id": requestID,
			"count":      n,
		})
	}
	return result, nil
}
