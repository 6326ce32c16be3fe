package main

// Run the analysis prompt against a local image without the HTTP server:
//   go run ./cmd/prompttest -image eq.jpg -vars '{"x": 5}'

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"calc-backend/internal/calculator"
	"calc-backend/internal/images"
	"calc-backend/internal/llm"
	"calc-backend/internal/llm/gemini"
	"calc-backend/internal/llm/openai"
	"calc-backend/internal/shared/config"
)

func main() {
	cfg := config.Load()

	imagePath := flag.String("image", "", "Path to image file")
	varsJSON := flag.String("vars", "", "Variables as a JSON object (optional)")
	outPath := flag.String("out", "", "Path to write JSON output (optional)")
	printPrompt := flag.Bool("print-prompt", false, "Print the rendered prompt and exit")
	provider := flag.String("provider", cfg.LLMProvider, "LLM provider (gemini|openai)")
	model := flag.String("model", "", "Model override")
	flag.Parse()

	vars, err := parseVars(*varsJSON)
	if err != nil {
		exitErr(err.Error())
	}
	if *printPrompt {
		fmt.Println(calculator.BuildPrompt(vars))
		return
	}

	if strings.TrimSpace(*imagePath) == "" {
		exitErr("image path is required")
	}
	imageBytes, err := os.ReadFile(*imagePath)
	if err != nil {
		exitErr(fmt.Sprintf("read image: %v", err))
	}
	if len(imageBytes) == 0 {
		exitErr("image file is empty")
	}

	ctx := context.Background()
	client, err := buildClient(ctx, cfg, *provider, *model)
	if err != nil {
		exitErr(err.Error())
	}
	defer llm.Close(client)

	result, err := calculator.NewAnalyzer(client).Analyze(ctx, base64.StdEncoding.EncodeToString(imageBytes), vars)
	if err != nil {
		exitErr(fmt.Sprintf("analyze: %v", err))
	}

	raw, err := json.Marshal(calculator.CalculateResponse{Result: result})
	if err != nil {
		exitErr(fmt.Sprintf("encode result: %v", err))
	}
	pretty, err := prettyJSON(raw)
	if err != nil {
		exitErr(fmt.Sprintf("format json: %v", err))
	}

	if *outPath != "" {
		if err := os.WriteFile(*outPath, pretty, 0o644); err != nil {
			exitErr(fmt.Sprintf("write output: %v", err))
		}
	}

	if _, err := os.Stdout.Write(pretty); err != nil {
		exitErr(fmt.Sprintf("write stdout: %v", err))
	}
	if len(pretty) == 0 || pretty[len(pretty)-1] != '\n' {
		_, _ = os.Stdout.Write([]byte("\n"))
	}
}

func buildClient(ctx context.Context, cfg config.Config, provider, model string) (llm.Client, error) {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "", "gemini":
		if model == "" {
			model = cfg.GeminiModel
		}
		return gemini.NewClient(ctx, cfg.GeminiAPIKey, model)
	case "openai":
		if model == "" {
			model = cfg.OpenAIModel
		}
		return openai.NewClient(cfg.OpenAIAPIKey, model, time.Duration(cfg.LLMTimeoutSeconds)*time.Second)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}
}

func parseVars(raw string) (images.Vars, error) {
	if strings.TrimSpace(raw) == "" {
		return images.Vars{}, nil
	}
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	var vars images.Vars
	if err := dec.Decode(&vars); err != nil {
		return nil, fmt.Errorf("invalid -vars: %w", err)
	}
	if vars == nil {
		vars = images.Vars{}
	}
	return vars, nil
}

func prettyJSON(raw []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func exitErr(msg string) {
	_, _ = fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}
