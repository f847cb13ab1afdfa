package workerproc

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/sethvargo/go-retry"
	"github.com/sourcegraph/conc/pool"

	"estate-gap-backend/internal/shared/metrics"
	"estate-gap-backend/internal/shared/telemetry"
)

const (
	defaultConcurrency       = 4
	defaultVisibilitySeconds = 1200
	defaultShutdownTimeout   = 30 * time.Second
	receiveBatchSize         = 10
	receiveWaitSeconds       = 20
)

// SQSAPI is the subset of the SQS client the consumer needs.
type SQSAPI interface {
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

// Consumer long-polls an SQS queue and processes analysis jobs.
type Consumer struct {
	Client            SQSAPI
	QueueURL          string
	Processor         Processor
	Concurrency       int
	VisibilitySeconds int
	ShutdownTimeout   time.Duration
}

// Run polls until ctx is cancelled, then waits up to ShutdownTimeout for
// in-flight jobs. Receive failures back off exponentially up to the long-poll
// wait so an unreachable queue is not hammered.
func (c *Consumer) Run(ctx context.Context) {
	concurrency := cmp.Or(max(c.Concurrency, 0), defaultConcurrency)
	visibility := cmp.Or(max(c.VisibilitySeconds, 0), defaultVisibilitySeconds)
	shutdownTimeout := cmp.Or(max(c.ShutdownTimeout, 0), defaultShutdownTimeout)

	jobs := pool.New().WithMaxGoroutines(concurrency)
	backoff := newReceiveBackoff()

	telemetry.Info("worker.started", map[string]any{
		"concurrency":        concurrency,
		"visibility_seconds": visibility,
	})

	for ctx.Err() == nil {
		resp, err := c.Client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
			QueueUrl:                    aws.String(c.QueueURL),
			MaxNumberOfMessages:         receiveBatchSize,
			WaitTimeSeconds:             receiveWaitSeconds,
			VisibilityTimeout:           int32(visibility),
			MessageSystemAttributeNames: []sqstypes.MessageSystemAttributeName{sqstypes.MessageSystemAttributeNameApproximateReceiveCount},
		})
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			wait, _ := backoff.Next()
			telemetry.Warn("worker.receive_failed", map[string]any{"error": err.Error(), "backoff_ms": wait.Milliseconds()})
			sleepCtx(ctx, wait)
			continue
		}
		backoff = newReceiveBackoff()

		for _, msg := range resp.Messages {
			// Jobs finish even after shutdown starts; the deadline below bounds them.
			jobCtx := context.WithoutCancel(ctx)
			jobs.Go(func() { c.handleSafely(jobCtx, msg) })
		}
	}

	telemetry.Info("worker.shutdown", map[string]any{"timeout_ms": shutdownTimeout.Milliseconds()})
	drained := make(chan struct{})
	go func() {
		jobs.Wait()
		close(drained)
	}()
	select {
	case <-drained:
	case <-time.After(shutdownTimeout):
		telemetry.Warn("worker.shutdown_timeout", nil)
	}
}

// handleSafely keeps one bad job from taking the worker down. A panicking
// job's message is left on the queue.
func (c *Consumer) handleSafely(ctx context.Context, msg sqstypes.Message) {
	defer func() {
		if r := recover(); r != nil {
			metrics.IncAnalysisJobsFailed()
			fields := baseFields(msg, "", "")
			fields["panic"] = fmt.Sprint(r)
			telemetry.Error("worker.analysis.panic", fields)
		}
	}()
	c.Handle(ctx, msg)
}

func newReceiveBackoff() retry.Backoff {
	return retry.WithCappedDuration(receiveWaitSeconds*time.Second, retry.NewExponential(time.Second))
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// Handle processes one received message. The message is deleted on success
// and when it can never succeed; otherwise it is left for redelivery.
func (c *Consumer) Handle(ctx context.Context, msg sqstypes.Message) {
	metrics.IncAnalysisJobsReceived()
	body := aws.ToString(msg.Body)

	decoded, err := ParseMessage(body)
	if err != nil {
		fields := baseFields(msg, decoded.AnalysisID, decoded.RequestID)
		mergeErrorFields(fields, err)
		telemetry.Error("worker.analysis.rejected", fields)
		metrics.IncAnalysisJobsFailed()
		c.delete(ctx, msg, decoded.AnalysisID, decoded.RequestID)
		return
	}

	fields := baseFields(msg, decoded.AnalysisID, decoded.RequestID)
	fields["queue_delay_ms"] = decoded.QueueDelay(time.Now()).Milliseconds()
	telemetry.Info("worker.analysis.received", fields)

	if err := Process(ctx, c.Processor, decoded); err != nil {
		fields := baseFields(msg, decoded.AnalysisID, decoded.RequestID)
		mergeErrorFields(fields, err)
		metrics.IncAnalysisJobsFailed()
		if Unrecoverable(err) {
			fields["unrecoverable"] = true
			telemetry.Error("worker.analysis.failed", fields)
			c.delete(ctx, msg, decoded.AnalysisID, decoded.RequestID)
			return
		}
		telemetry.Error("worker.analysis.failed", fields)
		return
	}

	if c.delete(ctx, msg, decoded.AnalysisID, decoded.RequestID) {
		telemetry.Info("worker.analysis.completed", baseFields(msg, decoded.AnalysisID, decoded.RequestID))
		metrics.IncAnalysisJobsProcessed()
	}
}

func (c *Consumer) delete(ctx context.Context, msg sqstypes.Message, analysisID, requestID string) bool {
	receipt := aws.ToString(msg.ReceiptHandle)
	if receipt == "" {
		fields := baseFields(msg, analysisID, requestID)
		fields["error"] = "missing receipt handle"
		telemetry.Error("worker.analysis.delete_failed", fields)
		return false
	}
	if _, err := c.Client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(c.QueueURL),
		ReceiptHandle: aws.String(receipt),
	}); err != nil {
		fields := baseFields(msg, analysisID, requestID)
		fields["error"] = err.Error()
		telemetry.Error("worker.analysis.delete_failed", fields)
		return false
	}
	return true
}

func baseFields(msg sqstypes.Message, analysisID, requestID string) map[string]any {
	fields := map[string]any{
		"analysis_id":    analysisID,
		"sqs_message_id": aws.ToString(msg.MessageId),
		"receive_count":  receiveCount(msg),
	}
	if strings.TrimSpace(requestID) != "" {
		fields["request_id"] = requestID
	}
	return fields
}

func mergeErrorFields(fields map[string]any, err error) {
	fields["error"] = err.Error()
	var me *MessageError
	if errors.As(err, &me) {
		for k, v := range me.Fields() {
			if _, ok := fields[k]; !ok || fields[k] == "" {
				fields[k] = v
			}
		}
	}
}

func receiveCount(msg sqstypes.Message) int {
	n, _ := strconv.Atoi(msg.Attributes[string(sqstypes.MessageSystemAttributeNameApproximateReceiveCount)])
	return n
}
