package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"

	"github.com/gin-gonic/gin"

	"estate-gap-backend/internal/analyses"
	"estate-gap-backend/internal/llm"
	openai "estate-gap-backend/internal/llm/openai"
	"estate-gap-backend/internal/llm/sandbox"
	"estate-gap-backend/internal/queue"
	"estate-gap-backend/internal/services/health"
	"estate-gap-backend/internal/shared/config"
	"estate-gap-backend/internal/shared/server"
	"estate-gap-backend/internal/shared/storage/db"
	"estate-gap-backend/internal/shared/storage/object"
	localstore "estate-gap-backend/internal/shared/storage/object/local"
	s3store "estate-gap-backend/internal/shared/storage/object/s3"
	"estate-gap-backend/internal/shared/telemetry"
)

// App holds shared dependencies.
type App struct {
	Config            config.Config
	Router            *gin.Engine
	DB                *sql.DB
	Store             object.ObjectStore
	Queue             queue.Client
	LLM               llm.Client
	AnalysesRepo      analyses.Repo
	AnalysesService   *analyses.Service
	AnalysisProcessor AnalysisProcessor
	AnalysisHandler   *analyses.Handler
}

// AnalysisProcessor allows callers to override analysis processing for tests.
type AnalysisProcessor interface {
	ProcessAnalysis(ctx context.Context, analysisID string) error
}

// Build prepares shared dependencies and the router.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	queueClient, err := buildQueue(ctx, cfg)
	if err != nil {
		return nil, err
	}

	llmClient, err := buildLLM(cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
		DB:     sqlDB,
		Store:  store,
		Queue:  queueClient,
		LLM:    llmClient,
	}
	buildServices(app)

	checks := map[string]health.Pinger{}
	if sqlDB != nil {
		checks["database"] = sqlDB
	}
	app.Router = server.NewRouter(server.RouterDeps{
		Config:          app.Config,
		AnalysisHandler: app.AnalysisHandler,
		Health:          health.NewService(checks),
	})

	telemetry.Info("bootstrap.ready", map[string]any{
		"env":          cfg.Env,
		"database":     sqlDB != nil,
		"object_store": cfg.ObjectStoreType,
		"queue":        queueClient != nil,
		"provider":     cfg.GeneratorProvider,
	})
	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if cfg.DevLike() {
			telemetry.Warn("bootstrap.memory_repo", map[string]any{"reason": "DATABASE_URL empty"})
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	var (
		sqlDB   *sql.DB
		err     error
		profile = db.RuntimeProfile()
	)
	opts := db.OptionsFor(profile).WithEnv(os.LookupEnv)
	if profile == db.ProfileLambda {
		sqlDB, err = db.Shared(ctx, cfg.DatabaseURL, opts)
	} else {
		sqlDB, err = db.Connect(ctx, cfg.DatabaseURL, opts)
	}
	if err != nil {
		if cfg.DevLike() {
			telemetry.Warn("bootstrap.memory_repo", map[string]any{"reason": "database connect failed", "error": err.Error()})
			return nil, nil
		}
		return nil, err
	}

	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		store, err := s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildQueue(ctx context.Context, cfg config.Config) (queue.Client, error) {
	if cfg.QueueURL == "" {
		return nil, nil
	}
	return queue.NewSQSClient(ctx, cfg.QueueURL, cfg.AWSRegion)
}

func buildLLM(cfg config.Config) (llm.Client, error) {
	switch cfg.GeneratorProvider {
	case "openai":
		return openai.NewClient(cfg.OpenAIAPIKey, cfg.GeneratorModel, cfg.OpenAITimeout)
	case "sandbox":
		return sandbox.NewClient(cfg.SandboxCommand, "", cfg.SandboxTimeout)
	default:
		return llm.PlaceholderClient{}, nil
	}
}

func buildServices(app *App) {
	var analysisRepo analyses.Repo
	if app.DB != nil {
		analysisRepo = &analyses.PGRepo{DB: app.DB}
	} else {
		analysisRepo = analyses.NewMemoryRepo()
	}

	svc := &analyses.Service{
		Repo:            analysisRepo,
		Store:           app.Store,
		LLM:             app.LLM,
		JobQueue:        app.Queue,
		Provider:        app.Config.GeneratorProvider,
		Model:           app.Config.GeneratorModel,
		AnalysisVersion: app.Config.AnalysisVersion,
	}

	app.AnalysesRepo = analysisRepo
	app.AnalysesService = svc
	app.AnalysisProcessor = svc
	app.AnalysisHandler = analyses.NewHandler(svc)
}
