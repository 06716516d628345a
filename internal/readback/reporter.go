// Package readback maps the staging buffers of submitted passes, turns their
// ticks into timing records and hands the resources back.
package readback

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/ALEYI17/InfraSight_webgpu/internal/query"
	"github.com/ALEYI17/InfraSight_webgpu/pkg/gpuapi"
	"github.com/ALEYI17/InfraSight_webgpu/pkg/logutil"
	"github.com/ALEYI17/InfraSight_webgpu/pkg/types"
	"go.uber.org/zap"
)

// Reporter owns a query from the moment Start is called until its record
// (or failure) has been emitted and its resources released. Every readback
// is independent: completions arrive in whatever order the backend fires
// map callbacks.
type Reporter struct {
	manager *query.Manager
	sink    types.Timing_sinks
	session string

	pending int
	emitted uint64
	failed  uint64
	timeNow func() time.Time
}

func NewReporter(manager *query.Manager, sink types.Timing_sinks, session string) *Reporter {
	if sink == nil {
		sink = nopSink{}
	}
	return &Reporter{
		manager: manager,
		sink:    sink,
		session: session,
		timeNow: time.Now,
	}
}

// Start requests host read access to q's staging buffer. Queries that
// already failed upstream are reported and released right away.
func (r *Reporter) Start(q *query.TimingQuery) {
	if q == nil || q.Released() {
		return
	}
	r.pending++
	if q.Err != nil {
		r.fail(q, q.Err)
		return
	}
	err := q.StagingBuffer.MapAsync(gpuapi.MapModeRead, 0, types.STAGING_BYTES, func(status gpuapi.MapStatus) {
		if status != gpuapi.MapStatusSuccess {
			r.fail(q, fmt.Errorf("%w: %s", types.ErrHostMapping, status))
			return
		}
		r.complete(q)
	})
	if err != nil {
		r.fail(q, fmt.Errorf("%w: %v", types.ErrHostMapping, err))
	}
}

// Pending is the number of readbacks started but not yet completed.
func (r *Reporter) Pending() int {
	return r.pending
}

// Stats returns how many records and failures were emitted so far.
func (r *Reporter) Stats() (emitted, failed uint64) {
	return r.emitted, r.failed
}

func (r *Reporter) complete(q *query.TimingQuery) {
	logger := logutil.GetLogger()

	data := q.StagingBuffer.GetMappedRange(0, types.STAGING_BYTES)
	if len(data) < types.STAGING_BYTES {
		if err := q.StagingBuffer.Unmap(); err != nil {
			logger.Debug("unmap failed", zap.Error(err))
		}
		r.fail(q, fmt.Errorf("%w: mapped range holds %d bytes", types.ErrHostMapping, len(data)))
		return
	}
	start, end := DecodeTicks(data)

	if end < start {
		logger.Warn("timestamp ticks run backwards, reporting zero",
			zap.String("entryPoint", q.EntryPoint),
			zap.Uint64("start", start),
			zap.Uint64("end", end))
	}
	rec := types.TimingRecord{
		EntryPoint:  q.EntryPoint,
		TimeMs:      types.ElapsedMs(start, end),
		StartTicks:  start,
		EndTicks:    end,
		Session:     r.session,
		CompletedAt: r.timeNow(),
	}
	r.sink.Emit(rec)
	r.emitted++

	if err := q.StagingBuffer.Unmap(); err != nil {
		logger.Debug("unmap failed", zap.String("entryPoint", q.EntryPoint), zap.Error(err))
	}
	r.finish(q)
}

func (r *Reporter) fail(q *query.TimingQuery, err error) {
	logutil.GetLogger().Warn("timing readback failed",
		zap.String("entryPoint", q.EntryPoint),
		zap.String("ownership", q.Ownership.String()),
		zap.Error(err))
	r.sink.Fail(types.TimingFailure{
		EntryPoint: q.EntryPoint,
		Err:        err,
		Reason:     err.Error(),
		Session:    r.session,
		FailedAt:   r.timeNow(),
	})
	r.failed++
	r.finish(q)
}

func (r *Reporter) finish(q *query.TimingQuery) {
	r.manager.Release(q)
	r.pending--
}

// DecodeTicks reads the begin and end ticks from a 16-byte staging copy.
func DecodeTicks(b []byte) (start, end uint64) {
	start = binary.LittleEndian.Uint64(b[0:types.TIMESTAMP_BYTES])
	end = binary.LittleEndian.Uint64(b[types.TIMESTAMP_BYTES:types.STAGING_BYTES])
	return start, end
}

type nopSink struct{}

func (nopSink) Emit(types.TimingRecord)  {}
func (nopSink) Fail(types.TimingFailure) {}
