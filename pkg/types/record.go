package types

import (
	"errors"
	"time"
)

var (
	// ErrHostMapping is reported when a staging buffer cannot be mapped for
	// reading.
	ErrHostMapping = errors.New("staging buffer host mapping failed")
	// ErrResolve is reported when the resolve or copy commands for a pass
	// could not be recorded.
	ErrResolve = errors.New("timestamp resolve could not be recorded")
	// ErrQueueDrain is reported when the queue never signals drained work
	// for a deferred resolve.
	ErrQueueDrain = errors.New("queue work done signalled failure")
)

// TimingRecord is one measured compute pass.
type TimingRecord struct {
	EntryPoint  string    `json:"entryPoint"`
	TimeMs      float64   `json:"timeMs"`
	StartTicks  uint64    `json:"startTicks"`
	EndTicks    uint64    `json:"endTicks"`
	Session     string    `json:"session,omitempty"`
	CompletedAt time.Time `json:"completedAt"`
}

// TimingFailure is a pass whose timing could not be read back.
type TimingFailure struct {
	EntryPoint string    `json:"entryPoint"`
	Err        error     `json:"-"`
	Reason     string    `json:"reason"`
	Session    string    `json:"session,omitempty"`
	FailedAt   time.Time `json:"failedAt"`
}

// ElapsedMs converts a tick interval to milliseconds, assuming nanosecond
// ticks. An interval running backwards yields 0.
func ElapsedMs(start, end uint64) float64 {
	if end < start {
		return 0
	}
	return float64(end-start) / NS_PER_MS
}
