package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"PORT", "ENV", "DATABASE_URL", "CORS_ALLOW_ORIGINS", "MAX_BODY_BYTES", "MAX_UPLOAD_BYTES",
		"LLM_PROVIDER", "GEMINI_API_KEY", "GEMINI_MODEL", "OPENAI_API_KEY", "LLM_MODEL", "LLM_TIMEOUT_SECONDS",
	} {
		t.Setenv(key, "")
	}
	t.Chdir(t.TempDir())

	cfg := Load()

	if cfg.Port != "5000" {
		t.Fatalf("expected port 5000, got %q", cfg.Port)
	}
	if cfg.Env != "dev" {
		t.Fatalf("expected env dev, got %q", cfg.Env)
	}
	wantOrigins := []string{"https://backend-cal.vercel.app", "http://localhost:5173"}
	if !reflect.DeepEqual(cfg.CORSAllowOrigin, wantOrigins) {
		t.Fatalf("expected origins %v, got %v", wantOrigins, cfg.CORSAllowOrigin)
	}
	if cfg.MaxBodyBytes != 50<<20 {
		t.Fatalf("expected 50MiB body limit, got %d", cfg.MaxBodyBytes)
	}
	if cfg.MaxUploadBytes != 10<<20 {
		t.Fatalf("expected 10MiB upload limit, got %d", cfg.MaxUploadBytes)
	}
	if cfg.LLMProvider != "gemini" || cfg.GeminiModel != "gemini-1.5-flash" {
		t.Fatalf("unexpected llm defaults: provider=%q model=%q", cfg.LLMProvider, cfg.GeminiModel)
	}
	if !cfg.IsDevLike() {
		t.Fatalf("expected dev config to be dev-like")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PORT", "9090")
	t.Setenv("ENV", "prod")
	t.Setenv("CORS_ALLOW_ORIGINS", " https://a.example , ,https://b.example")
	t.Setenv("MAX_UPLOAD_BYTES", "1024")
	t.Setenv("MAX_BODY_BYTES", "not-a-number")
	t.Setenv("LLM_PROVIDER", "OpenAI")

	cfg := Load()

	if cfg.Port != "9090" {
		t.Fatalf("expected port 9090, got %q", cfg.Port)
	}
	if cfg.Env != "production" {
		t.Fatalf("expected production env, got %q", cfg.Env)
	}
	if cfg.IsDevLike() {
		t.Fatalf("production must not be dev-like")
	}
	if !reflect.DeepEqual(cfg.CORSAllowOrigin, []string{"https://a.example", "https://b.example"}) {
		t.Fatalf("unexpected origins %v", cfg.CORSAllowOrigin)
	}
	if cfg.MaxUploadBytes != 1024 {
		t.Fatalf("expected upload limit 1024, got %d", cfg.MaxUploadBytes)
	}
	if cfg.MaxBodyBytes != 50<<20 {
		t.Fatalf("invalid MAX_BODY_BYTES should fall back to default, got %d", cfg.MaxBodyBytes)
	}
	if cfg.LLMProvider != "openai" {
		t.Fatalf("expected openai provider, got %q", cfg.LLMProvider)
	}
}

func TestLoadEnvFilesDoesNotOverrideProcessEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := "# comment\nexport CALC_TEST_A=\"from-file\"\nCALC_TEST_B='kept'\nmalformed\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("CALC_TEST_A", "from-process")
	t.Setenv("CALC_TEST_B", "")
	os.Unsetenv("CALC_TEST_B")

	loadEnvFiles(path)

	if got := os.Getenv("CALC_TEST_A"); got != "from-process" {
		t.Fatalf("expected process value to win, got %q", got)
	}
	if got := os.Getenv("CALC_TEST_B"); got != "kept" {
		t.Fatalf("expected file value, got %q", got)
	}
}
