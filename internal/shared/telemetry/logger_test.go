package telemetry

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLevelsAndFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	SetLogger(zap.New(core))
	t.Cleanup(func() { SetLogger(nil) })

	Info("analysis.status", map[string]any{"analysis_id": "a1", "status": "completed"})
	Warn("intake.anomaly", map[string]any{"section": "assets"})
	Error("analysis.failed", nil)

	entries := logs.All()
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	if entries[0].Level != zapcore.InfoLevel || entries[1].Level != zapcore.WarnLevel || entries[2].Level != zapcore.ErrorLevel {
		t.Fatalf("unexpected levels: %v %v %v", entries[0].Level, entries[1].Level, entries[2].Level)
	}
	ctx := entries[0].ContextMap()
	if ctx["analysis_id"] != "a1" || ctx["status"] != "completed" {
		t.Fatalf("unexpected fields: %v", ctx)
	}
	if entries[0].Context[0].Key != "analysis_id" {
		t.Fatalf("fields should be key-ordered, got %q first", entries[0].Context[0].Key)
	}
}

func TestSetupIgnoresUnknownLevel(t *testing.T) {
	Setup("verbose")
	t.Cleanup(func() { SetLogger(nil) })
	if !current().Core().Enabled(zapcore.InfoLevel) || current().Core().Enabled(zapcore.DebugLevel) {
		t.Fatalf("unknown level should fall back to info")
	}
}
