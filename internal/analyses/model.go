package analyses

import (
	"time"

	"estate-gap-backend/internal/intake"
)

const (
	StatusQueued     = "queued"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// Analysis represents one gap analysis job for a client.
type Analysis struct {
	ID              string          `json:"id"`
	ClientID        string          `json:"clientId"`
	Status          string          `json:"status"`
	Intake          intake.Input    `json:"intake"`
	Result          *AnalysisRecord `json:"result,omitempty"`
	ErrorCode       string          `json:"errorCode,omitempty"`
	ErrorMessage    *string         `json:"errorMessage,omitempty"`
	ErrorRetryable  bool            `json:"errorRetryable,omitempty"`
	Provider        string          `json:"provider"`
	Model           string          `json:"model"`
	AnalysisVersion string          `json:"analysisVersion"`
	PromptHash      string          `json:"promptHash,omitempty"`
	StartedAt       *time.Time      `json:"startedAt,omitempty"`
	CompletedAt     *time.Time      `json:"completedAt,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// Score returns the final score once the analysis has a result.
func (a Analysis) Score() *int {
	if a.Result == nil {
		return nil
	}
	score := a.Result.Score
	return &score
}
