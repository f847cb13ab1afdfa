package queue

import (
	"encoding/json"
	"fmt"
	"time"
)

// KindGapAnalysis is the only job kind the worker understands.
const KindGapAnalysis = "gap-analysis"

// CurrentVersion is the newest message layout this build can read.
const CurrentVersion = 1

// Message asks a worker to run one queued gap analysis. The client id is
// not carried; the worker loads it with the analysis.
type Message struct {
	Kind       string    `json:"kind,omitempty"`
	AnalysisID string    `json:"analysisId"`
	RequestID  string    `json:"requestId,omitempty"`
	EnqueuedAt time.Time `json:"enqueuedAt,omitzero"`
	Version    int       `json:"version"`
}

// NewAnalysisJob builds a current-version message for analysisID.
func NewAnalysisJob(analysisID, requestID string, now time.Time) Message {
	return Message{
		Kind:       KindGapAnalysis,
		AnalysisID: analysisID,
		RequestID:  requestID,
		EnqueuedAt: now.UTC(),
		Version:    CurrentVersion,
	}
}

// QueueDelay is how long the message waited, or 0 when the enqueue time is unknown.
func (m Message) QueueDelay(now time.Time) time.Duration {
	if m.EnqueuedAt.IsZero() || now.Before(m.EnqueuedAt) {
		return 0
	}
	return now.Sub(m.EnqueuedAt)
}

// EncodeMessage returns the JSON body sent to the queue.
func EncodeMessage(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}

// DecodeMessage parses a queue body. Messages from a newer producer or of an
// unknown kind are rejected; a missing kind or version means the first layout.
func DecodeMessage(payload []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		return Message{}, err
	}
	if msg.Version > CurrentVersion {
		return Message{}, fmt.Errorf("unsupported message version %d", msg.Version)
	}
	if msg.Kind != "" && msg.Kind != KindGapAnalysis {
		return Message{}, fmt.Errorf("unsupported message kind %q", msg.Kind)
	}
	return msg, nil
}
