package readback

import (
	"encoding/binary"
	"testing"

	"github.com/ALEYI17/InfraSight_webgpu/internal/gputest"
	"github.com/ALEYI17/InfraSight_webgpu/internal/query"
	"github.com/ALEYI17/InfraSight_webgpu/pkg/gpuapi"
	"github.com/ALEYI17/InfraSight_webgpu/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	records  []types.TimingRecord
	failures []types.TimingFailure
}

func (s *recordingSink) Emit(rec types.TimingRecord) { s.records = append(s.records, rec) }
func (s *recordingSink) Fail(f types.TimingFailure)  { s.failures = append(s.failures, f) }

// submitted measures one pass of the given dispatch count and submits it
// with its resolve, the way the inline strategy does.
func submitted(t *testing.T, dev *gputest.Device, m *query.Manager, entryPoint string, dispatches int) *query.TimingQuery {
	t.Helper()
	q, desc, err := m.Begin(dev, nil)
	require.NoError(t, err)
	q.EntryPoint = entryPoint

	enc, err := dev.CreateCommandEncoder(nil)
	require.NoError(t, err)
	pass := enc.BeginComputePass(desc)
	for i := 0; i < dispatches; i++ {
		pass.DispatchWorkgroups(1, 1, 1)
	}
	require.NoError(t, pass.End())
	require.NoError(t, m.Resolve(enc, q))
	cb, err := enc.Finish(nil)
	require.NoError(t, err)
	dev.GetQueue().Submit(cb)
	require.Empty(t, dev.FakeQueue().Errs)
	return q
}

func TestReporterEmitsRecord(t *testing.T) {
	dev := gputest.NewDevice()
	m := query.NewManager(query.LayoutAuto)
	sink := &recordingSink{}
	r := NewReporter(m, sink, "session-1")

	q := submitted(t, dev, m, "matmul", 4)
	r.Start(q)
	assert.Equal(t, 1, r.Pending())
	assert.Empty(t, sink.records, "nothing reported before the map callback")

	dev.Poll(true)
	require.Len(t, sink.records, 1)
	rec := sink.records[0]
	assert.Equal(t, "matmul", rec.EntryPoint)
	assert.InDelta(t, 1.0, rec.TimeMs, 1e-9)
	assert.Equal(t, uint64(1_000_000), rec.StartTicks)
	assert.Equal(t, uint64(2_000_000), rec.EndTicks)
	assert.Equal(t, "session-1", rec.Session)
	assert.False(t, rec.CompletedAt.IsZero())

	assert.Zero(t, r.Pending())
	assert.True(t, q.Released())
	assert.Zero(t, m.Outstanding())
	assert.Equal(t, 1, q.StagingBuffer.(*gputest.Buffer).UnmapCount)
	emitted, failed := r.Stats()
	assert.Equal(t, uint64(1), emitted)
	assert.Zero(t, failed)
}

func TestReporterMapStatusFailure(t *testing.T) {
	dev := gputest.NewDevice()
	dev.MapStatus = gpuapi.MapStatusError
	m := query.NewManager(query.LayoutAuto)
	sink := &recordingSink{}
	r := NewReporter(m, sink, "")

	q := submitted(t, dev, m, "matmul", 1)
	r.Start(q)
	dev.Poll(true)

	assert.Empty(t, sink.records)
	require.Len(t, sink.failures, 1)
	assert.ErrorIs(t, sink.failures[0].Err, types.ErrHostMapping)
	assert.Equal(t, "matmul", sink.failures[0].EntryPoint)
	assert.True(t, q.Released())
	assert.Zero(t, r.Pending())
}

func TestReporterMapRequestRejected(t *testing.T) {
	dev := gputest.NewDevice()
	m := query.NewManager(query.LayoutAuto)
	sink := &recordingSink{}
	r := NewReporter(m, sink, "")

	q := submitted(t, dev, m, "matmul", 1)
	dev.MapErr = gputest.ErrRejected
	r.Start(q)

	require.Len(t, sink.failures, 1)
	assert.ErrorIs(t, sink.failures[0].Err, types.ErrHostMapping)
	assert.Zero(t, dev.PendingCallbacks())
	assert.True(t, q.Released())
}

func TestReporterReportsUpstreamFailure(t *testing.T) {
	dev := gputest.NewDevice()
	m := query.NewManager(query.LayoutAuto)
	sink := &recordingSink{}
	r := NewReporter(m, sink, "")

	q, _, err := m.Begin(dev, nil)
	require.NoError(t, err)
	q.Err = types.ErrQueueDrain
	r.Start(q)

	require.Len(t, sink.failures, 1)
	assert.ErrorIs(t, sink.failures[0].Err, types.ErrQueueDrain)
	assert.Zero(t, q.StagingBuffer.(*gputest.Buffer).MapCount)
	assert.True(t, q.Released())

	r.Start(q)
	assert.Len(t, sink.failures, 1, "released queries are ignored")
}

func TestReporterBackwardsTicksReportZero(t *testing.T) {
	dev := gputest.NewDevice()
	m := query.NewManager(query.LayoutAuto)
	sink := &recordingSink{}
	r := NewReporter(m, sink, "")

	q := submitted(t, dev, m, "matmul", 1)
	staging := q.StagingBuffer.(*gputest.Buffer).Bytes()
	binary.LittleEndian.PutUint64(staging[0:], 9_000)
	binary.LittleEndian.PutUint64(staging[8:], 1_000)

	r.Start(q)
	dev.Poll(true)
	require.Len(t, sink.records, 1)
	assert.Zero(t, sink.records[0].TimeMs)
}

func TestReporterCompletionsAreUnordered(t *testing.T) {
	dev := gputest.NewDevice()
	dev.ReverseCallbacks = true
	m := query.NewManager(query.LayoutAuto)
	sink := &recordingSink{}
	r := NewReporter(m, sink, "")

	first := submitted(t, dev, m, "first", 1)
	second := submitted(t, dev, m, "second", 2)
	r.Start(first)
	r.Start(second)
	dev.Poll(true)

	require.Len(t, sink.records, 2)
	assert.Equal(t, "second", sink.records[0].EntryPoint)
	assert.Equal(t, "first", sink.records[1].EntryPoint)
	assert.InDelta(t, 0.5, sink.records[0].TimeMs, 1e-9)
	assert.InDelta(t, 0.25, sink.records[1].TimeMs, 1e-9)
	assert.Zero(t, m.Outstanding())
}

func TestDecodeTicks(t *testing.T) {
	b := make([]byte, 16)
	binary.LittleEndian.PutUint64(b[0:], 42)
	binary.LittleEndian.PutUint64(b[8:], 1042)
	start, end := DecodeTicks(b)
	assert.Equal(t, uint64(42), start)
	assert.Equal(t, uint64(1042), end)
}
