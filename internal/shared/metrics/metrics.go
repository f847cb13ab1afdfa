// Package metrics keeps process-local counters and renders them in the
// Prometheus text exposition format.
package metrics

import (
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/gin-gonic/gin"
)

type collector interface {
	write(b *strings.Builder)
}

var (
	analysisStarted   = newCounter("gap_analysis_started_total", "Gap analyses picked up for processing")
	analysisCompleted = newCounter("gap_analysis_completed_total", "Gap analyses completed, with or without recovered output")
	analysisFailed    = newCounter("gap_analysis_failed_total", "Gap analyses that ended in the failed status")
	intakeAnomalies   = newCounter("gap_intake_anomalies_total", "Intake sections or values that could not be used")
	generatorRetries  = newCounter("gap_generator_retries_total", "Generator calls retried after a transient error")
	recoveries        = newLabeledCounter("gap_recovery_total", "Structured output recoveries by strategy", "strategy")
	analysisScore     = newHistogram("gap_analysis_score", "Deterministic completeness scores", []float64{20, 40, 60, 80, 100})
	analysisDuration  = newHistogram("gap_analysis_duration_ms", "Gap analysis duration in milliseconds", []float64{100, 250, 500, 1000, 2000, 5000, 10000, 30000, 60000})

	jobsReceived  = newCounter("gap_worker_jobs_received_total", "Queue messages received by a worker")
	jobsProcessed = newCounter("gap_worker_jobs_processed_total", "Queue messages processed without error")
	jobsFailed    = newCounter("gap_worker_jobs_failed_total", "Queue messages that errored")

	registry = []collector{
		analysisStarted, analysisCompleted, analysisFailed, intakeAnomalies,
		generatorRetries, recoveries, analysisScore, analysisDuration,
		jobsReceived, jobsProcessed, jobsFailed,
	}
)

func IncAnalysisStarted()   { analysisStarted.add(1) }
func IncAnalysisCompleted() { analysisCompleted.add(1) }
func IncAnalysisFailed()    { analysisFailed.add(1) }
func IncGeneratorRetry()    { generatorRetries.add(1) }

// AddIntakeAnomalies counts anomalies reported by the normalizer.
func AddIntakeAnomalies(n int) {
	if n > 0 {
		intakeAnomalies.add(uint64(n))
	}
}

// IncRecovery counts one recovery outcome; "failed" marks runs where nothing
// could be recovered.
func IncRecovery(strategy string) { recoveries.inc(strategy) }

// ObserveScore records a final score.
func ObserveScore(score int) { analysisScore.observe(float64(score)) }

// ObserveAnalysisDurationMs records an analysis duration. Negative values count as 0.
func ObserveAnalysisDurationMs(ms float64) { analysisDuration.observe(max(ms, 0)) }

func IncAnalysisJobsReceived()  { jobsReceived.add(1) }
func IncAnalysisJobsProcessed() { jobsProcessed.add(1) }
func IncAnalysisJobsFailed()    { jobsFailed.add(1) }

// Handler serves Render at GET /metrics.
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/plain; version=0.0.4")
		c.String(http.StatusOK, Render())
	}
}

// Render writes every metric in registration order.
func Render() string {
	var b strings.Builder
	for _, m := range registry {
		m.write(&b)
	}
	return b.String()
}

func header(b *strings.Builder, name, help, kind string) {
	fmt.Fprintf(b, "# HELP %s %s\n# TYPE %s %s\n", name, help, name, kind)
}

type counter struct {
	name, help string
	v          atomic.Uint64
}

func newCounter(name, help string) *counter { return &counter{name: name, help: help} }

func (c *counter) add(n uint64) { c.v.Add(n) }

func (c *counter) write(b *strings.Builder) {
	header(b, c.name, c.help, "counter")
	fmt.Fprintf(b, "%s %d\n", c.name, c.v.Load())
}

type labeledCounter struct {
	name, help, label string

	mu     sync.Mutex
	values map[string]uint64
}

func newLabeledCounter(name, help, label string) *labeledCounter {
	return &labeledCounter{name: name, help: help, label: label, values: map[string]uint64{}}
}

func (l *labeledCounter) inc(value string) {
	l.mu.Lock()
	l.values[value]++
	l.mu.Unlock()
}

func (l *labeledCounter) write(b *strings.Builder) {
	l.mu.Lock()
	keys := make([]string, 0, len(l.values))
	for k := range l.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	header(b, l.name, l.help, "counter")
	for _, k := range keys {
		fmt.Fprintf(b, "%s{%s=%q} %d\n", l.name, l.label, k, l.values[k])
	}
	l.mu.Unlock()
}

// histogram keeps per-bucket counts; they are made cumulative on write.
type histogram struct {
	name, help string
	bounds     []float64

	mu     sync.Mutex
	counts []uint64
	sum    float64
	total  uint64
}

func newHistogram(name, help string, bounds []float64) *histogram {
	return &histogram{name: name, help: help, bounds: bounds, counts: make([]uint64, len(bounds))}
}

func (h *histogram) observe(v float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.total++
	h.sum += v
	if i := sort.SearchFloat64s(h.bounds, v); i < len(h.bounds) {
		h.counts[i]++
	}
}

func (h *histogram) write(b *strings.Builder) {
	h.mu.Lock()
	defer h.mu.Unlock()
	header(b, h.name, h.help, "histogram")
	var cumulative uint64
	for i, bound := range h.bounds {
		cumulative += h.counts[i]
		fmt.Fprintf(b, "%s_bucket{le=%q} %d\n", h.name, formatFloat(bound), cumulative)
	}
	fmt.Fprintf(b, "%s_bucket{le=\"+Inf\"} %d\n", h.name, h.total)
	fmt.Fprintf(b, "%s_sum %s\n%s_count %d\n", h.name, formatFloat(h.sum), h.name, h.total)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
