package llm

import (
	"context"
	"errors"

	"estate-gap-backend/internal/intake"
)

// Client abstracts text generators that draft a gap analysis.
type Client interface {
	GenerateGapAnalysis(ctx context.Context, input GapInput) (Output, error)
}

// GapInput is what a generator needs to draft an analysis.
type GapInput struct {
	AnalysisID string
	Facts      intake.ClientFacts
	Prompt     string
}

// Output holds the generator's two channels. File is what the generator wrote
// to its side file; Console is everything it printed.
type Output struct {
	File    string
	Console string
}

var (
	// ErrNotImplemented is returned by the placeholder client.
	ErrNotImplemented = errors.New("generator not configured")
	// ErrTruncated accompanies output that stopped at the generator's length
	// limit. The partial output is still returned.
	ErrTruncated = errors.New("generator output truncated")
)

// PlaceholderClient is used when no provider is configured.
type PlaceholderClient struct{}

// GenerateGapAnalysis returns ErrNotImplemented.
func (PlaceholderClient) GenerateGapAnalysis(ctx context.Context, input GapInput) (Output, error) {
	_ = ctx
	_ = input
	return Output{}, ErrNotImplemented
}
