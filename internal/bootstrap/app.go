package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"calc-backend/internal/calculator"
	"calc-backend/internal/images"
	"calc-backend/internal/llm"
	"calc-backend/internal/llm/gemini"
	"calc-backend/internal/llm/openai"
	"calc-backend/internal/services/health"
	"calc-backend/internal/shared/config"
	"calc-backend/internal/shared/server"
	"calc-backend/internal/shared/storage/db"
)

// App holds shared dependencies and the wired router.
type App struct {
	Config            config.Config
	Router            *gin.Engine
	DB                *sql.DB
	LLM               llm.Client
	ImagesRepo        images.Repo
	ImagesService     *images.Service
	CalculatorService *calculator.Service
	ImageHandler      *images.Handler
	CalculatorHandler *calculator.Handler
	Health            *health.Service
}

type buildOptions struct {
	llmClient llm.Client
}

// Option customizes Build.
type Option func(*buildOptions)

// WithLLMClient replaces the provider selected by LLM_PROVIDER.
func WithLLMClient(client llm.Client) Option {
	return func(o *buildOptions) { o.llmClient = client }
}

// Build connects storage, selects the model provider and wires the router.
// A configured database that cannot be reached or migrated is fatal.
func Build(cfg config.Config, opts ...Option) (*App, error) {
	var o buildOptions
	for _, opt := range opts {
		opt(&o)
	}
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	llmClient := o.llmClient
	if llmClient == nil {
		llmClient, err = buildLLM(ctx, cfg)
		if err != nil {
			closeDB(sqlDB)
			return nil, err
		}
	}

	app := &App{
		Config: cfg,
		DB:     sqlDB,
		LLM:    llmClient,
		Health: health.NewService(),
	}
	buildServices(app)

	app.Router = server.NewRouter(server.RouterDeps{
		Config:            app.Config,
		Health:            app.Health,
		ImageHandler:      app.ImageHandler,
		CalculatorHandler: app.CalculatorHandler,
	})

	return app, nil
}

// Close releases the model client and, outside Lambda, the database pool.
func (a *App) Close() error {
	if a == nil {
		return nil
	}
	var errs []error
	if err := llm.Close(a.LLM); err != nil {
		errs = append(errs, fmt.Errorf("close llm client: %w", err))
	}
	if a.DB != nil && !db.IsLambdaRuntime() {
		if err := a.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close database: %w", err))
		}
	}
	return errors.Join(errs...)
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if cfg.IsDevLike() {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory repositories")
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	var (
		sqlDB *sql.DB
		err   error
	)
	if db.IsLambdaRuntime() {
		opts := db.OptionsFromEnv(db.DefaultLambdaOptions())
		sqlDB, err = db.GetSingleton(ctx, cfg.DatabaseURL, opts)
	} else {
		opts := db.OptionsFromEnv(db.DefaultServerOptions())
		sqlDB, err = db.Connect(ctx, cfg.DatabaseURL, opts)
	}
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		closeDB(sqlDB)
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return sqlDB, nil
}

func closeDB(sqlDB *sql.DB) {
	if sqlDB != nil && !db.IsLambdaRuntime() {
		_ = sqlDB.Close()
	}
}

func buildLLM(ctx context.Context, cfg config.Config) (llm.Client, error) {
	switch cfg.LLMProvider {
	case "none":
		log.Printf("bootstrap: LLM_PROVIDER=none; analysis requests will fail")
		return llm.PlaceholderClient{}, nil
	case "openai":
		if strings.TrimSpace(cfg.OpenAIAPIKey) == "" && cfg.IsDevLike() {
			log.Printf("bootstrap: OPENAI_API_KEY empty; analysis requests will fail")
			return llm.PlaceholderClient{}, nil
		}
		timeout := time.Duration(cfg.LLMTimeoutSeconds) * time.Second
		return openai.NewClient(cfg.OpenAIAPIKey, cfg.OpenAIModel, timeout)
	default:
		if strings.TrimSpace(cfg.GeminiAPIKey) == "" && cfg.IsDevLike() {
			log.Printf("bootstrap: GEMINI_API_KEY empty; analysis requests will fail")
			return llm.PlaceholderClient{}, nil
		}
		return gemini.NewClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	}
}

func buildServices(app *App) {
	var imageRepo images.Repo
	if app.DB != nil {
		imageRepo = &images.PGRepo{DB: app.DB}
	} else {
		imageRepo = images.NewMemoryRepo()
	}

	imageSvc := &images.Service{Repo: imageRepo}
	calcSvc := &calculator.Service{
		Images:   imageRepo,
		Analyzer: calculator.NewAnalyzer(app.LLM),
	}

	app.ImagesRepo = imageRepo
	app.ImagesService = imageSvc
	app.CalculatorService = calcSvc
	app.ImageHandler = images.NewHandler(imageSvc, app.Config.MaxUploadBytes)
	app.CalculatorHandler = calculator.NewHandler(calcSvc)
}
