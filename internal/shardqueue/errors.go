package shardqueue

import (
	"errors"
	"fmt"
)

// ErrExecutorClosed is returned by Submit once Stop has been called.
var ErrExecutorClosed = errors.New("shardqueue: executor closed")

// ErrQueueFull is matched by every *QueueFullError.
var ErrQueueFull = errors.New("shardqueue: queue full")

// QueueFullError reports a shard that stayed full for the whole enqueue timeout.
type QueueFullError struct {
	Shard    int
	Length   int
	Capacity int
}

func (e *QueueFullError) Error() string {
	return fmt.Sprintf("shardqueue: shard %d full (%d/%d)", e.Shard, e.Length, e.Capacity)
}

// Is lets errors.Is(err, ErrQueueFull) match.
func (e *QueueFullError) Is(target error) bool { return target == ErrQueueFull }

// PanicError carries a panic recovered from a job.
type PanicError struct{ Value any }

func (e *PanicError) Error() string { return fmt.Sprintf("shardqueue: job panic: %v", e.Value) }
