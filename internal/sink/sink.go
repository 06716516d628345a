// Package sink holds the destinations the readback reporter emits to.
package sink

import (
	"sync/atomic"

	"github.com/ALEYI17/InfraSight_webgpu/pkg/logutil"
	"github.com/ALEYI17/InfraSight_webgpu/pkg/types"
	"go.uber.org/zap"
)

// LogSink writes one structured log line per record.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink logs through l, or through the process logger when l is nil.
func NewLogSink(l *zap.Logger) *LogSink {
	if l == nil {
		l = logutil.GetLogger()
	}
	return &LogSink{logger: l}
}

func (s *LogSink) Emit(rec types.TimingRecord) {
	s.logger.Info("compute pass timing",
		zap.String("entryPoint", rec.EntryPoint),
		zap.Float64("timeMs", rec.TimeMs),
		zap.Uint64("startTicks", rec.StartTicks),
		zap.Uint64("endTicks", rec.EndTicks),
		zap.String("session", rec.Session))
}

func (s *LogSink) Fail(f types.TimingFailure) {
	s.logger.Warn("compute pass timing lost",
		zap.String("entryPoint", f.EntryPoint),
		zap.String("session", f.Session),
		zap.Error(f.Err))
}

// ChannelSink hands records to another goroutine. Values on Events are
// either types.TimingRecord or types.TimingFailure. When the buffer is
// full the value is dropped rather than blocking the GPU goroutine.
type ChannelSink struct {
	ch      chan any
	dropped atomic.Uint64
}

func NewChannelSink(size int) *ChannelSink {
	return &ChannelSink{ch: make(chan any, size)}
}

func (s *ChannelSink) Emit(rec types.TimingRecord) { s.send(rec) }
func (s *ChannelSink) Fail(f types.TimingFailure)  { s.send(f) }

func (s *ChannelSink) send(v any) {
	select {
	case s.ch <- v:
	default:
		if s.dropped.Add(1) == 1 {
			logutil.GetLogger().Warn("timing channel full, dropping records")
		}
	}
}

func (s *ChannelSink) Events() <-chan any {
	return s.ch
}

// Dropped is the number of values lost to a full buffer.
func (s *ChannelSink) Dropped() uint64 {
	return s.dropped.Load()
}

// Close ends Events. No Emit or Fail may follow.
func (s *ChannelSink) Close() {
	close(s.ch)
}

// Multi fans every value out to each sink in order.
type Multi []types.Timing_sinks

func (m Multi) Emit(rec types.TimingRecord) {
	for _, s := range m {
		s.Emit(rec)
	}
}

func (m Multi) Fail(f types.TimingFailure) {
	for _, s := range m {
		s.Fail(f)
	}
}
