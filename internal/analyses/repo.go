package analyses

import (
	"context"
	"time"
)

// Repo persists analyses. Status changes go through MarkProcessing, Complete
// and Fail so every store applies the same lifecycle rules.
type Repo interface {
	Create(ctx context.Context, analysis Analysis) error
	GetByID(ctx context.Context, analysisID string) (Analysis, error)
	ListByClient(ctx context.Context, clientID string, limit, offset int) ([]Analysis, error)

	// MarkProcessing claims an analysis for a run and clears any previous
	// failure. It returns ErrAlreadyFinished when the analysis completed or
	// failed permanently.
	MarkProcessing(ctx context.Context, analysisID string, startedAt time.Time) error
	SetPromptMetadata(ctx context.Context, analysisID, analysisVersion, promptHash string) error
	Complete(ctx context.Context, analysisID string, result AnalysisRecord, completedAt time.Time) error
	Fail(ctx context.Context, analysisID string, failure Failure, completedAt time.Time) error
}

// Failure is the error state stored on a failed analysis.
type Failure struct {
	Code      string
	Message   string
	Retryable bool
}

// runnable reports whether an analysis in this state may be (re)processed.
// A crashed worker leaves "processing" behind, so that state is runnable.
func runnable(status string, retryable bool) bool {
	switch status {
	case StatusQueued, StatusProcessing:
		return true
	case StatusFailed:
		return retryable
	default:
		return false
	}
}

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	return min(limit, maxListLimit), max(offset, 0)
}
