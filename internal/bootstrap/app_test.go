package bootstrap

import (
	"testing"

	"estate-gap-backend/internal/analyses"
	"estate-gap-backend/internal/llm"
	"estate-gap-backend/internal/llm/sandbox"
	"estate-gap-backend/internal/shared/config"
)

func TestBuildDevUsesMemoryRepo(t *testing.T) {
	app, err := Build(config.Config{Env: "dev", LocalStoreDir: t.TempDir(), GeneratorProvider: "none"})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if app.DB != nil {
		t.Fatalf("expected no database")
	}
	if _, ok := app.AnalysesRepo.(*analyses.MemoryRepo); !ok {
		t.Fatalf("expected memory repo, got %T", app.AnalysesRepo)
	}
	if _, ok := app.LLM.(llm.PlaceholderClient); !ok {
		t.Fatalf("expected placeholder generator, got %T", app.LLM)
	}
	if app.Queue != nil {
		t.Fatalf("expected no queue without GAP_SQS_QUEUE_URL")
	}
	if app.Router == nil || app.AnalysisProcessor == nil {
		t.Fatalf("router and processor must be wired")
	}
}

func TestBuildProductionRequiresDatabase(t *testing.T) {
	if _, err := Build(config.Config{Env: "production", LocalStoreDir: t.TempDir()}); err == nil {
		t.Fatalf("expected error without DATABASE_URL in production")
	}
}

func TestBuildRejectsInvalidConfig(t *testing.T) {
	if _, err := Build(config.Config{Env: "dev", GeneratorProvider: "openai"}); err == nil {
		t.Fatalf("expected validation error for openai without key")
	}
}

func TestBuildSandboxProvider(t *testing.T) {
	app, err := Build(config.Config{Env: "dev", LocalStoreDir: t.TempDir(), GeneratorProvider: "sandbox", SandboxCommand: "claude -p"})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if _, ok := app.LLM.(*sandbox.Client); !ok {
		t.Fatalf("expected sandbox client, got %T", app.LLM)
	}
	if app.AnalysesService.Provider != "sandbox" {
		t.Fatalf("unexpected provider %q", app.AnalysesService.Provider)
	}
}
