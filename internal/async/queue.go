// Package async runs document imports on a bounded pool of workers.
package async

import (
	"context"
	"errors"
	"time"

	"github.com/joseph-ayodele/fiscal-extract/constants"
)

var ErrQueueClosed = errors.New("queue is shutting down")

// Job is one file to import.
type Job struct {
	Path        string
	Family      constants.DocumentFamily
	SubmittedAt time.Time
	TraceID     string
}

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context) error
}
