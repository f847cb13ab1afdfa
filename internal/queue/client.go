package queue

import "context"

// Client enqueues analysis jobs. SQSClient is the production implementation.
type Client interface {
	Send(ctx context.Context, msg Message) error
}
