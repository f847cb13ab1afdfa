package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"estate-gap-backend/internal/bootstrap"
	"estate-gap-backend/internal/shared/config"
	"estate-gap-backend/internal/shared/telemetry"
	"estate-gap-backend/internal/workerproc"
)

func main() {
	cfg := config.Load()
	telemetry.Setup(cfg.LogLevel)
	defer telemetry.Sync()

	if err := run(cfg); err != nil {
		telemetry.Error("worker.exit", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
}

func run(cfg config.Config) error {
	if cfg.QueueURL == "" {
		return errors.New("GAP_SQS_QUEUE_URL is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		return err
	}

	app, err := bootstrap.Build(cfg)
	if err != nil {
		return err
	}
	if app.DB != nil {
		defer app.DB.Close()
	}

	newConsumer(cfg, sqs.NewFromConfig(awsCfg), app.AnalysisProcessor).Run(ctx)
	return nil
}

func newConsumer(cfg config.Config, client workerproc.SQSAPI, processor workerproc.Processor) *workerproc.Consumer {
	return &workerproc.Consumer{
		Client:            client,
		QueueURL:          cfg.QueueURL,
		Processor:         processor,
		Concurrency:       cfg.WorkerConcurrency,
		VisibilitySeconds: cfg.QueueVisibilitySeconds,
		ShutdownTimeout:   cfg.ShutdownTimeout,
	}
}
