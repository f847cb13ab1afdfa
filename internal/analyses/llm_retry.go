package analyses

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"

	"estate-gap-backend/internal/llm"
	"estate-gap-backend/internal/shared/metrics"
	"estate-gap-backend/internal/shared/telemetry"
)

// generatorRetryDelay is the pause between generator attempts.
var generatorRetryDelay = 300 * time.Millisecond

// generatorRetries is how many extra attempts a transient failure earns.
const generatorRetries = 1

type retryingGenerator struct {
	base       llm.Client
	analysisID string
	requestID  string
}

func withGeneratorRetry(base llm.Client, analysisID, requestID string) llm.Client {
	return retryingGenerator{base: base, analysisID: analysisID, requestID: requestID}
}

// GenerateGapAnalysis returns the output of the last attempt. Partial output
// from a failed attempt is kept so recovery can still use it.
func (g retryingGenerator) GenerateGapAnalysis(ctx context.Context, input llm.GapInput) (llm.Output, error) {
	var (
		out     llm.Output
		attempt int
	)
	backoff := retry.WithMaxRetries(generatorRetries, retry.NewConstant(generatorRetryDelay))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		var err error
		out, err = g.base.GenerateGapAnalysis(ctx, input)
		if err == nil || !transientGeneratorError(err) {
			return err
		}
		if attempt <= generatorRetries {
			metrics.IncGeneratorRetry()
			telemetry.Warn("generator.retry", map[string]any{
				"attempt":     attempt,
				"request_id":  g.requestID,
				"analysis_id": g.analysisID,
				"error":       sanitizeError(err),
			})
		}
		return retry.RetryableError(err)
	})
	return out, unwrapRetryable(err)
}

// unwrapRetryable strips the retry marker so callers see the generator error.
func unwrapRetryable(err error) error {
	if err == nil {
		return nil
	}
	if inner := errors.Unwrap(err); inner != nil && strings.HasPrefix(err.Error(), "retryable: ") {
		return inner
	}
	return err
}

// transientGeneratorError reports failures worth another attempt: timeouts,
// upstream 5xx and dropped connections. Configuration errors are final.
func transientGeneratorError(err error) bool {
	if err == nil || errors.Is(err, llm.ErrNotImplemented) || errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range transientMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

var transientMarkers = []string{
	"http status 5",
	"server_error",
	"openai request timeout",
	"sandbox generator timeout",
	"client.timeout",
	"connection reset",
	"connection refused",
	"broken pipe",
	"unexpected eof",
}
