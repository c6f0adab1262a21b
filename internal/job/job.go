// Package job wraps claim mutations as shard executor jobs.
package job

import (
	"context"
	"errors"
	"fmt"
)

// ErrNilFunc is returned when a job has no body.
var ErrNilFunc = errors.New("job: nil func")

// Op names the mutation a job performs.
type Op string

const (
	OpSubmit Op = "submit"
	OpSave   Op = "save"
	OpDelete Op = "delete"
)

// Job is a claim mutation bound to its target.
type Job struct {
	Op      Op
	ClaimID string // empty for submissions
	fn      func(context.Context) error
}

// New creates a job for op on claimID.
func New(op Op, claimID string, fn func(context.Context) error) *Job {
	return &Job{Op: op, ClaimID: claimID, fn: fn}
}

// Run implements shardqueue.Job.
func (j *Job) Run(ctx context.Context) error {
	if j == nil || j.fn == nil {
		return fmt.Errorf("%s: %w", j, ErrNilFunc)
	}
	return j.fn(ctx)
}

func (j *Job) String() string {
	if j == nil {
		return "job(nil)"
	}
	if j.ClaimID == "" {
		return string(j.Op)
	}
	return fmt.Sprintf("%s %s", j.Op, j.ClaimID)
}
