// Package jobs is a durable at-least-once job queue: rows in a jobs table are
// claimed by workers, dispatched to a handler per kind and retried with a typed policy.
package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"time"

	"github.com/google/uuid"
)

type Kind string

const (
	KindChannelPush   Kind = "channel.push"
	KindChannelCancel Kind = "channel.cancel"
	KindNotification  Kind = "notification.dispatch"
)

func (k Kind) String() string {
	return string(k)
}

type Status string

const (
	StatusQueued  Status = "queued"
	StatusRunning Status = "running"
	StatusDone    Status = "done"
	StatusFailed  Status = "failed"
)

// NewJob is what producers enqueue. Payload is JSON encoded by the store.
type NewJob struct {
	Kind    Kind
	Payload any
	// Only one unfinished job may hold a given key.
	DedupeKey string
	// Zero means as soon as possible.
	RunAt time.Time
}

type Job struct {
	ID          uuid.UUID
	Kind        Kind
	Payload     json.RawMessage
	Attempts    int
	MaxAttempts int
	DedupeKey   string
	CreatedAt   time.Time
}

func (j *Job) Decode(dst any) error {
	if err := json.Unmarshal(j.Payload, dst); err != nil {
		return Permanent(err)
	}
	return nil
}

type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	// Factor multiplies the delay after every failed attempt; values below 1 mean 2.
	Factor float64
}

// Backoff is the wait after the given failed attempt (1-based): base * factor^(attempt-1).
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	factor := p.Factor
	if factor < 1 {
		factor = 2
	}
	d := float64(p.BaseDelay) * math.Pow(factor, float64(attempt-1))
	if d > float64(math.MaxInt64) {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(d)
}

// Policies maps each kind to its retry policy.
type Policies map[Kind]RetryPolicy

var defaultPolicy = RetryPolicy{MaxAttempts: 3, BaseDelay: time.Minute, Factor: 2}

func (p Policies) For(kind Kind) RetryPolicy {
	if policy, ok := p[kind]; ok {
		return policy
	}
	return defaultPolicy
}

type Handler interface {
	Handle(ctx context.Context, job *Job) error
	// Exhausted runs once when the job will not be attempted again.
	Exhausted(ctx context.Context, job *Job, lastErr error) error
}

type permanentError struct {
	err error
}

func (e permanentError) Error() string { return e.err.Error() }
func (e permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return permanentError{err: err}
}

func IsPermanent(err error) bool {
	var p permanentError
	return errors.As(err, &p)
}
