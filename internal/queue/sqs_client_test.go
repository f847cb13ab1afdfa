package queue

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

type fakeSender struct {
	input *sqs.SendMessageInput
	err   error
}

func (f *fakeSender) SendMessage(_ context.Context, params *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &sqs.SendMessageOutput{MessageId: aws.String("m-1")}, nil
}

func TestSQSClientSend(t *testing.T) {
	api := &fakeSender{}
	client := NewSQSClientWithAPI(api, " https://sqs.example/gap ")
	job := NewAnalysisJob("a-1", "req-1", time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC))

	if err := client.Send(context.Background(), job); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if aws.ToString(api.input.QueueUrl) != "https://sqs.example/gap" {
		t.Fatalf("unexpected queue url %q", aws.ToString(api.input.QueueUrl))
	}
	msg, err := DecodeMessage([]byte(aws.ToString(api.input.MessageBody)))
	if err != nil || msg.AnalysisID != "a-1" {
		t.Fatalf("unexpected body %+v %v", msg, err)
	}
	if got := aws.ToString(api.input.MessageAttributes["request_id"].StringValue); got != "req-1" {
		t.Fatalf("expected request_id attribute, got %q", got)
	}
	if got := aws.ToString(api.input.MessageAttributes["kind"].StringValue); got != KindGapAnalysis {
		t.Fatalf("expected kind attribute, got %q", got)
	}
	if api.input.MessageGroupId != nil {
		t.Fatalf("standard queues take no message group")
	}
}

func TestSQSClientFIFOGroupsByAnalysis(t *testing.T) {
	api := &fakeSender{}
	client := NewSQSClientWithAPI(api, "https://sqs.example/gap.fifo")

	if err := client.Send(context.Background(), Message{AnalysisID: "a-2"}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if aws.ToString(api.input.MessageGroupId) != "a-2" || aws.ToString(api.input.MessageDeduplicationId) != "a-2" {
		t.Fatalf("unexpected fifo fields %+v", api.input)
	}
	if len(api.input.MessageAttributes) != 0 {
		t.Fatalf("empty fields should not become attributes")
	}
}

func TestSQSClientSendError(t *testing.T) {
	client := NewSQSClientWithAPI(&fakeSender{err: errors.New("throttled")}, "q")
	err := client.Send(context.Background(), Message{AnalysisID: "a-1"})
	if err == nil || !strings.Contains(err.Error(), "sqs send analysis a-1: throttled") {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}

func TestNewSQSClientRequiresURL(t *testing.T) {
	if _, err := NewSQSClient(context.Background(), " ", "us-east-1"); err == nil {
		t.Fatalf("expected error for empty queue url")
	}
}
