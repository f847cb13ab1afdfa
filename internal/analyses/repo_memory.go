package analyses

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"
)

// MemoryRepo keeps analyses in process. It backs tests and local runs
// without a database.
type MemoryRepo struct {
	mu    sync.RWMutex
	items map[string]Analysis
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{items: make(map[string]Analysis)}
}

func (r *MemoryRepo) Create(ctx context.Context, analysis Analysis) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if analysis.UpdatedAt.IsZero() {
		analysis.UpdatedAt = analysis.CreatedAt
	}
	r.mu.Lock()
	r.items[analysis.ID] = analysis
	r.mu.Unlock()
	return nil
}

func (r *MemoryRepo) GetByID(ctx context.Context, analysisID string) (Analysis, error) {
	if err := ctx.Err(); err != nil {
		return Analysis{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if a, ok := r.items[analysisID]; ok {
		return a, nil
	}
	return Analysis{}, ErrNotFound
}

// ListByClient orders by creation time, newest first.
func (r *MemoryRepo) ListByClient(ctx context.Context, clientID string, limit, offset int) ([]Analysis, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	limit, offset = clampPage(limit, offset)

	r.mu.RLock()
	var matched []Analysis
	for _, a := range r.items {
		if a.ClientID == clientID {
			matched = append(matched, a)
		}
	}
	r.mu.RUnlock()

	slices.SortFunc(matched, func(a, b Analysis) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	if offset >= len(matched) {
		return []Analysis{}, nil
	}
	return matched[offset:min(offset+limit, len(matched))], nil
}

func (r *MemoryRepo) MarkProcessing(ctx context.Context, analysisID string, startedAt time.Time) error {
	return r.update(ctx, analysisID, func(a *Analysis) error {
		if !runnable(a.Status, a.ErrorRetryable) {
			return ErrAlreadyFinished
		}
		a.Status = StatusProcessing
		a.StartedAt = &startedAt
		a.CompletedAt = nil
		a.ErrorCode, a.ErrorMessage, a.ErrorRetryable = "", nil, false
		return nil
	})
}

// SetPromptMetadata ignores empty values.
func (r *MemoryRepo) SetPromptMetadata(ctx context.Context, analysisID, analysisVersion, promptHash string) error {
	return r.update(ctx, analysisID, func(a *Analysis) error {
		if analysisVersion != "" {
			a.AnalysisVersion = analysisVersion
		}
		if promptHash != "" {
			a.PromptHash = promptHash
		}
		return nil
	})
}

func (r *MemoryRepo) Complete(ctx context.Context, analysisID string, result AnalysisRecord, completedAt time.Time) error {
	return r.update(ctx, analysisID, func(a *Analysis) error {
		a.Status = StatusCompleted
		a.Result = &result
		a.CompletedAt = &completedAt
		a.ErrorCode, a.ErrorMessage, a.ErrorRetryable = "", nil, false
		return nil
	})
}

func (r *MemoryRepo) Fail(ctx context.Context, analysisID string, failure Failure, completedAt time.Time) error {
	return r.update(ctx, analysisID, func(a *Analysis) error {
		msg := failure.Message
		a.Status = StatusFailed
		a.ErrorCode = failure.Code
		a.ErrorMessage = &msg
		a.ErrorRetryable = failure.Retryable
		a.CompletedAt = &completedAt
		return nil
	})
}

// update applies fn to a copy and stores it only when fn succeeds.
func (r *MemoryRepo) update(ctx context.Context, analysisID string, fn func(*Analysis) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.items[analysisID]
	if !ok {
		return ErrNotFound
	}
	if err := fn(&a); err != nil {
		return err
	}
	a.UpdatedAt = time.Now().UTC()
	r.items[analysisID] = a
	return nil
}

var _ Repo = (*MemoryRepo)(nil)
