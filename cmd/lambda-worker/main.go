// Command lambda-worker runs queued gap analyses from an SQS event source
// mapping. Enable ReportBatchItemFailures on the mapping so only failed
// records are redelivered.
//
//	GOOS=linux GOARCH=arm64 CGO_ENABLED=0 go build -o bootstrap ./cmd/lambda-worker
package main

import (
	"context"
	"errors"
	"sync"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/sourcegraph/conc/pool"

	"estate-gap-backend/internal/bootstrap"
	"estate-gap-backend/internal/shared/config"
	"estate-gap-backend/internal/shared/metrics"
	"estate-gap-backend/internal/shared/telemetry"
	"estate-gap-backend/internal/workerproc"
)

type worker struct {
	processor   workerproc.Processor
	concurrency int
}

var (
	initOnce sync.Once
	initErr  error
	active   worker
)

func initApp() {
	cfg := config.Load()
	telemetry.Setup(cfg.LogLevel)
	app, err := bootstrap.Build(cfg)
	if err != nil {
		initErr = err
		return
	}
	active = worker{processor: app.AnalysisProcessor, concurrency: cfg.WorkerConcurrency}
}

func handler(ctx context.Context, event events.SQSEvent) (events.SQSEventResponse, error) {
	initOnce.Do(initApp)
	if initErr != nil {
		telemetry.Error("lambda.bootstrap_failed", map[string]any{
			"error":   initErr.Error(),
			"records": len(event.Records),
		})
		return events.SQSEventResponse{}, initErr
	}
	return active.processBatch(ctx, event), nil
}

// processBatch runs the records concurrently and reports the ones worth
// redelivering. Records that can never succeed are acknowledged.
func (w worker) processBatch(ctx context.Context, event events.SQSEvent) events.SQSEventResponse {
	retry := make([]bool, len(event.Records))
	jobs := pool.New().WithMaxGoroutines(max(w.concurrency, 1))
	for i, record := range event.Records {
		jobs.Go(func() { retry[i] = w.processRecord(ctx, record) })
	}
	jobs.Wait()

	resp := events.SQSEventResponse{BatchItemFailures: []events.SQSBatchItemFailure{}}
	for i, again := range retry {
		if again {
			resp.BatchItemFailures = append(resp.BatchItemFailures, events.SQSBatchItemFailure{ItemIdentifier: event.Records[i].MessageId})
		}
	}
	return resp
}

// processRecord reports whether the record should be redelivered.
func (w worker) processRecord(ctx context.Context, record events.SQSMessage) bool {
	metrics.IncAnalysisJobsReceived()
	err := workerproc.HandleMessage(ctx, w.processor, record.Body)
	if err == nil {
		metrics.IncAnalysisJobsProcessed()
		return false
	}
	metrics.IncAnalysisJobsFailed()

	redeliver := !workerproc.Unrecoverable(err)
	fields := map[string]any{
		"sqs_message_id": record.MessageId,
		"receive_count":  record.Attributes["ApproximateReceiveCount"],
		"redeliver":      redeliver,
		"error":          err.Error(),
	}
	var me *workerproc.MessageError
	if errors.As(err, &me) {
		for k, v := range me.Fields() {
			fields[k] = v
		}
	}
	telemetry.Error("lambda.analysis.failed", fields)
	return redeliver
}

func main() {
	lambda.Start(handler)
}
