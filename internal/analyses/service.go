package analyses

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"estate-gap-backend/internal/analyses/recovery"
	"estate-gap-backend/internal/analyses/scoring"
	"estate-gap-backend/internal/intake"
	"estate-gap-backend/internal/llm"
	"estate-gap-backend/internal/queue"
	"estate-gap-backend/internal/shared/metrics"
	"estate-gap-backend/internal/shared/storage/object"
	"estate-gap-backend/internal/shared/telemetry"
	"estate-gap-backend/internal/shared/util"
)

// Service contains business logic for gap analyses.
type Service struct {
	Repo            Repo
	Store           object.ObjectStore
	LLM             llm.Client
	JobQueue        queue.Client
	Provider        string
	Model           string
	AnalysisVersion string
}

// Preview is a synchronous score computed without calling the generator.
type Preview struct {
	Facts     intake.ClientFacts `json:"facts"`
	Anomalies []intake.Anomaly   `json:"anomalies"`
	Report    scoring.Report     `json:"scoreReport"`
}

// Create stores a queued analysis and hands it to the job queue, or
// processes it in the background when no queue is configured.
func (s *Service) Create(ctx context.Context, clientID string, in intake.Input) (Analysis, error) {
	clientID = strings.TrimSpace(clientID)
	if clientID == "" {
		return Analysis{}, ErrInvalidInput
	}

	now := time.Now().UTC()
	analysis := Analysis{
		ID:              uuid.NewString(),
		ClientID:        clientID,
		Status:          StatusQueued,
		Intake:          in,
		Provider:        normalizeProvider(s.Provider),
		Model:           s.Model,
		AnalysisVersion: normalizeAnalysisVersion(s.AnalysisVersion),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.Repo.Create(ctx, analysis); err != nil {
		return Analysis{}, err
	}

	if s.JobQueue != nil {
		msg := queue.NewAnalysisJob(analysis.ID, RequestIDFromContext(ctx), now)
		if err := s.JobQueue.Send(ctx, msg); err != nil {
			s.failAnalysis(ctx, analysis.ID, clientID, fmt.Errorf("enqueue analysis: %w", err), nil)
			return Analysis{}, fmt.Errorf("enqueue analysis: %w", err)
		}
		return analysis, nil
	}

	go s.completeAsync(detached(ctx), analysis.ID)
	return analysis, nil
}

// Preview normalizes the intake and scores it. Nothing is stored.
func (s *Service) Preview(in intake.Input) Preview {
	facts, anomalies := intake.Normalize(in)
	if anomalies == nil {
		anomalies = []intake.Anomaly{}
	}
	return Preview{
		Facts:     facts,
		Anomalies: anomalies,
		Report:    scoring.Score(facts, scoring.IssueCounts{}),
	}
}

// Get returns an analysis by ID.
func (s *Service) Get(ctx context.Context, analysisID string) (Analysis, error) {
	if analysisID == "" {
		return Analysis{}, errors.New("analysisID is required")
	}
	return s.Repo.GetByID(ctx, analysisID)
}

// List returns analyses for a client ordered newest-first.
func (s *Service) List(ctx context.Context, clientID string, limit, offset int) ([]Analysis, error) {
	if strings.TrimSpace(clientID) == "" {
		return nil, ErrInvalidInput
	}
	return s.Repo.ListByClient(ctx, clientID, limit, offset)
}

func (s *Service) completeAsync(ctx context.Context, analysisID string) {
	defer func() {
		if r := recover(); r != nil {
			s.failAnalysis(ctx, analysisID, "", fmt.Errorf("panic: %v", r), nil)
		}
	}()
	_ = s.ProcessAnalysis(ctx, analysisID)
}

// ProcessAnalysis runs one queued analysis to completion. A generator
// failure still completes the analysis with the deterministic score; only
// storage and internal errors mark it failed.
func (s *Service) ProcessAnalysis(ctx context.Context, analysisID string) error {
	startedAt := time.Now().UTC()
	if err := s.Repo.MarkProcessing(ctx, analysisID, startedAt); err != nil {
		switch {
		case errors.Is(err, ErrAlreadyFinished):
			telemetry.Info("analysis.skip", map[string]any{
				"request_id":  RequestIDFromContext(ctx),
				"analysis_id": analysisID,
				"reason":      "already finished",
			})
			return nil
		case errors.Is(err, ErrNotFound):
			return err
		}
		err = fmt.Errorf("set processing failed: %w", err)
		s.failAnalysis(ctx, analysisID, "", err, &startedAt)
		return err
	}

	analysis, err := s.Repo.GetByID(ctx, analysisID)
	if err != nil {
		err = fmt.Errorf("analysis lookup: %w", err)
		s.failAnalysis(ctx, analysisID, "", err, &startedAt)
		return err
	}
	metrics.IncAnalysisStarted()
	telemetry.Info("analysis.status", map[string]any{
		"request_id":        RequestIDFromContext(ctx),
		"client_key":        util.HashKey(analysis.ClientID),
		"analysis_id":       analysis.ID,
		"status":            StatusProcessing,
		"status_transition": "queued->processing",
	})

	facts, anomalies := intake.Normalize(analysis.Intake)
	for _, a := range anomalies {
		telemetry.Warn("intake.anomaly", map[string]any{
			"analysis_id": analysis.ID,
			"section":     a.Section,
			"reason":      a.Reason,
		})
	}
	metrics.AddIntakeAnomalies(len(anomalies))

	prompt := llm.BuildGapPrompt(facts, analysis.Intake.Sections.Goals, analysis.Intake.Designations)
	if err := s.Repo.SetPromptMetadata(ctx, analysisID, analysis.AnalysisVersion, llm.HashPrompt(prompt)); err != nil {
		err = fmt.Errorf("set prompt metadata failed: %w", err)
		s.failAnalysis(ctx, analysisID, analysis.ClientID, err, &startedAt)
		return err
	}

	raw := s.generate(ctx, analysis.ID, facts, prompt)
	s.archiveRaw(ctx, analysis.ID, raw)

	outcome := recovery.Recover(raw)
	recoveryFields := outcome.LogFields()
	recoveryFields["analysis_id"] = analysis.ID
	if outcome.Recovered() {
		metrics.IncRecovery(string(outcome.Provenance.Strategy))
		telemetry.Info("analysis.recovery", recoveryFields)
	} else {
		metrics.IncRecovery(RecoveryFailed)
		telemetry.Warn("analysis.recovery", recoveryFields)
	}

	report := scoring.Score(facts, scoring.IssueCounts{Outdated: OutdatedCount(outcome)})
	record := Assemble(outcome, report)

	completedAt := time.Now().UTC()
	if err := s.Repo.Complete(ctx, analysisID, record, completedAt); err != nil {
		err = fmt.Errorf("set analysis result failed: %w", err)
		s.failAnalysis(ctx, analysisID, analysis.ClientID, err, &startedAt)
		return err
	}
	metrics.IncAnalysisCompleted()
	metrics.ObserveScore(record.Score)
	metrics.ObserveAnalysisDurationMs(durationMs(&startedAt, &completedAt))
	telemetry.Info("analysis.status", map[string]any{
		"request_id":        RequestIDFromContext(ctx),
		"client_key":        util.HashKey(analysis.ClientID),
		"analysis_id":       analysis.ID,
		"status":            StatusCompleted,
		"status_transition": "processing->completed",
		"score":             record.Score,
		"recovery_status":   record.Recovery.Status,
		"duration_ms":       durationMs(&startedAt, &completedAt),
	})
	return nil
}

// generate calls the generator and returns whatever output it produced. Errors
// are logged, not returned: recovery decides what is usable.
func (s *Service) generate(ctx context.Context, analysisID string, facts intake.ClientFacts, prompt string) recovery.RawOutput {
	client := s.LLM
	if client == nil {
		client = llm.PlaceholderClient{}
	}
	client = withGeneratorRetry(client, analysisID, RequestIDFromContext(ctx))

	out, err := client.GenerateGapAnalysis(ctx, llm.GapInput{
		AnalysisID: analysisID,
		Facts:      facts,
		Prompt:     prompt,
	})
	if err != nil {
		telemetry.Warn("generator.failed", map[string]any{
			"analysis_id": analysisID,
			"provider":    normalizeProvider(s.Provider),
			"error":       sanitizeError(err),
			"file_len":    len(out.File),
			"console_len": len(out.Console),
		})
	}
	return recovery.RawOutput{File: out.File, Console: out.Console}
}

// archiveRaw keeps the untouched generator channels next to the analysis.
// Failures are logged and do not affect the result.
func (s *Service) archiveRaw(ctx context.Context, analysisID string, raw recovery.RawOutput) {
	if s.Store == nil {
		return
	}
	segment, err := util.SanitizeKeySegment(analysisID)
	if err != nil {
		return
	}
	channels := []struct {
		name, contentType, body string
	}{
		{"file.json", "application/json", raw.File},
		{"console.txt", "text/plain; charset=utf-8", raw.Console},
	}
	for _, ch := range channels {
		if ch.body == "" {
			continue
		}
		key := rawArchiveKey(segment, ch.name)
		if _, err := s.Store.Put(ctx, key, ch.contentType, strings.NewReader(ch.body)); err != nil {
			telemetry.Warn("analysis.archive_failed", map[string]any{
				"analysis_id": analysisID,
				"key":         key,
				"error":       sanitizeError(err),
			})
		}
	}
}

func rawArchiveKey(analysisID, name string) string {
	return "analyses/" + analysisID + "/" + name
}

func (s *Service) failAnalysis(ctx context.Context, analysisID, clientID string, err error, startedAt *time.Time) {
	code, retryable := classifyFailure(err)
	msg := sanitizeError(err)
	completedAt := time.Now().UTC()
	failure := Failure{Code: code, Message: msg, Retryable: retryable}
	if updateErr := s.Repo.Fail(detached(ctx), analysisID, failure, completedAt); updateErr != nil {
		telemetry.Error("analysis.fail_update", map[string]any{
			"analysis_id": analysisID,
			"error":       sanitizeError(updateErr),
			"cause":       msg,
		})
	}
	metrics.IncAnalysisFailed()
	if startedAt != nil {
		metrics.ObserveAnalysisDurationMs(durationMs(startedAt, &completedAt))
	}
	fields := map[string]any{
		"request_id":        RequestIDFromContext(ctx),
		"analysis_id":       analysisID,
		"status":            StatusFailed,
		"status_transition": "processing->failed",
		"error_code":        code,
		"duration_ms":       durationMs(startedAt, &completedAt),
	}
	if clientID != "" {
		fields["client_key"] = util.HashKey(clientID)
	}
	telemetry.Error("analysis.status", fields)
}

func normalizeProvider(provider string) string {
	if strings.TrimSpace(provider) == "" {
		return "none"
	}
	return strings.TrimSpace(provider)
}

func normalizeAnalysisVersion(version string) string {
	if strings.TrimSpace(version) == "" {
		return "unknown"
	}
	return strings.TrimSpace(version)
}

func durationMs(startedAt, completedAt *time.Time) float64 {
	if startedAt == nil || completedAt == nil {
		return 0
	}
	return float64(completedAt.Sub(*startedAt).Microseconds()) / 1000.0
}

func classifyFailure(err error) (string, bool) {
	if err == nil {
		return ErrorCodeInternal, false
	}
	if errors.Is(err, ErrInvalidInput) {
		return ErrorCodeValidation, false
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "validation") {
		return ErrorCodeValidation, false
	}
	if strings.Contains(msg, "storage") ||
		strings.Contains(msg, "enqueue") ||
		strings.Contains(msg, "analysis result") ||
		strings.Contains(msg, "analysis lookup") ||
		strings.Contains(msg, "prompt metadata") ||
		strings.Contains(msg, "set processing") {
		return ErrorCodeStorage, true
	}
	return ErrorCodeInternal, false
}

func sanitizeError(err error) string {
	if err == nil {
		return ""
	}
	msg := strings.ReplaceAll(err.Error(), "\n", " ")
	msg = strings.ReplaceAll(msg, "\r", " ")
	msg = strings.TrimSpace(msg)
	const maxLen = 500
	if len(msg) > maxLen {
		msg = msg[:maxLen]
	}
	return msg
}
