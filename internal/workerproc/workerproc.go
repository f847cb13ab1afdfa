// Package workerproc turns queue bodies into ProcessAnalysis calls. It is
// shared by the long-poll worker and the SQS-triggered Lambda.
package workerproc

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"estate-gap-backend/internal/analyses"
	"estate-gap-backend/internal/queue"
	"estate-gap-backend/internal/shared/util"
)

// Processor runs one analysis.
type Processor interface {
	ProcessAnalysis(ctx context.Context, analysisID string) error
}

// Reason classifies a MessageError.
type Reason string

const (
	ReasonEmptyBody        Reason = "empty_body"
	ReasonDecode           Reason = "decode"
	ReasonMissingAnalysis  Reason = "missing_analysis_id"
	ReasonProcess          Reason = "process"
	ReasonNoProcessorBound Reason = "no_processor"
)

// MessageError describes why a message was not processed. BodyKey is a
// hash of the body so rejected payloads can be matched across logs without
// logging client intake.
type MessageError struct {
	Reason     Reason
	AnalysisID string
	RequestID  string
	BodyLen    int
	BodyKey    string
	Err        error
}

func (e *MessageError) Error() string {
	msg := strings.ReplaceAll(string(e.Reason), "_", " ")
	if e.AnalysisID != "" {
		msg += " (analysis " + e.AnalysisID + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *MessageError) Unwrap() error { return e.Err }

// Fields returns log fields for the failure.
func (e *MessageError) Fields() map[string]any {
	fields := map[string]any{
		"reason":   string(e.Reason),
		"body_len": e.BodyLen,
	}
	if e.BodyKey != "" {
		fields["body_key"] = e.BodyKey
	}
	if e.AnalysisID != "" {
		fields["analysis_id"] = e.AnalysisID
	}
	if e.RequestID != "" {
		fields["request_id"] = e.RequestID
	}
	return fields
}

// Unrecoverable reports whether redelivering the message can never succeed.
func Unrecoverable(err error) bool {
	var me *MessageError
	if !errors.As(err, &me) {
		return false
	}
	switch me.Reason {
	case ReasonEmptyBody, ReasonDecode, ReasonMissingAnalysis:
		return true
	case ReasonProcess:
		return errors.Is(me.Err, analyses.ErrNotFound)
	}
	return false
}

// ParseMessage decodes a queue body into an analysis job.
func ParseMessage(body string) (queue.Message, error) {
	fail := func(reason Reason, msg queue.Message, err error) (queue.Message, error) {
		me := &MessageError{Reason: reason, RequestID: msg.RequestID, BodyLen: len(body), Err: err}
		if body != "" {
			me.BodyKey = util.HashKey(body)
		}
		return msg, me
	}
	if strings.TrimSpace(body) == "" {
		return fail(ReasonEmptyBody, queue.Message{}, nil)
	}
	msg, err := queue.DecodeMessage([]byte(body))
	if err != nil {
		return fail(ReasonDecode, queue.Message{}, err)
	}
	if strings.TrimSpace(msg.AnalysisID) == "" {
		return fail(ReasonMissingAnalysis, msg, nil)
	}
	return msg, nil
}

// Process runs an already-parsed job with the request id it was enqueued under.
func Process(ctx context.Context, processor Processor, msg queue.Message) error {
	if processor == nil {
		return &MessageError{Reason: ReasonNoProcessorBound, AnalysisID: msg.AnalysisID, Err: errors.New("analysis service not configured")}
	}
	ctx = analyses.WithRequestID(ctx, msg.RequestID)
	if err := processor.ProcessAnalysis(ctx, msg.AnalysisID); err != nil {
		return &MessageError{
			Reason:     ReasonProcess,
			AnalysisID: msg.AnalysisID,
			RequestID:  msg.RequestID,
			Err:        fmt.Errorf("process analysis: %w", err),
		}
	}
	return nil
}

// HandleMessage parses body and processes it.
func HandleMessage(ctx context.Context, processor Processor, body string) error {
	msg, err := ParseMessage(body)
	if err != nil {
		return err
	}
	return Process(ctx, processor, msg)
}
