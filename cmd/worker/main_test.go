package main

import (
	"context"
	"strings"
	"testing"
	"time"

	"estate-gap-backend/internal/shared/config"
)

type nopProcessor struct{}

func (nopProcessor) ProcessAnalysis(ctx context.Context, analysisID string) error {
	_ = ctx
	_ = analysisID
	return nil
}

func TestNewConsumerUsesConfig(t *testing.T) {
	cfg := config.Config{
		QueueURL:               "https://sqs.example/gap",
		WorkerConcurrency:      8,
		QueueVisibilitySeconds: 600,
		ShutdownTimeout:        10 * time.Second,
	}
	c := newConsumer(cfg, nil, nopProcessor{})
	if c.QueueURL != cfg.QueueURL || c.Concurrency != 8 || c.VisibilitySeconds != 600 || c.ShutdownTimeout != 10*time.Second {
		t.Fatalf("unexpected consumer %+v", c)
	}
}

func TestRunRequiresQueueURL(t *testing.T) {
	err := run(config.Config{Env: "dev"})
	if err == nil || !strings.Contains(err.Error(), "GAP_SQS_QUEUE_URL") {
		t.Fatalf("expected queue url error, got %v", err)
	}
}
