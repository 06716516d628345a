package scheduler

import (
	"testing"

	"github.com/ALEYI17/InfraSight_webgpu/internal/gputest"
	"github.com/ALEYI17/InfraSight_webgpu/internal/query"
	"github.com/ALEYI17/InfraSight_webgpu/pkg/gpuapi"
	"github.com/ALEYI17/InfraSight_webgpu/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// measuredPass records one timed pass with the given dispatch count on enc.
func measuredPass(t *testing.T, dev *gputest.Device, m *query.Manager, enc gpuapi.CommandEncoder, dispatches int) *query.TimingQuery {
	t.Helper()
	q, desc, err := m.Begin(dev, nil)
	require.NoError(t, err)
	pass := enc.BeginComputePass(desc)
	for i := 0; i < dispatches; i++ {
		pass.DispatchWorkgroups(1, 1, 1)
	}
	require.NoError(t, pass.End())
	return q
}

func TestNewStrategy(t *testing.T) {
	m := query.NewManager(query.LayoutAuto)
	for in, want := range map[string]string{"": types.StrategyInline, "Inline": types.StrategyInline, " deferred ": types.StrategyDeferred} {
		s, err := New(in, m)
		require.NoError(t, err, in)
		assert.Equal(t, want, s.Name())
	}
	_, err := New("eager", m)
	assert.Error(t, err)
}

func TestInlineResolvesOnApplicationEncoder(t *testing.T) {
	dev := gputest.NewDevice()
	m := query.NewManager(query.LayoutPacked)
	enc, err := dev.CreateCommandEncoder(nil)
	require.NoError(t, err)

	a := measuredPass(t, dev, m, enc, 1)
	b := measuredPass(t, dev, m, enc, 3)

	s := NewInline(m)
	require.NoError(t, s.BeforeFinish(enc, []*query.TimingQuery{a, b}))
	fenc := enc.(*gputest.CommandEncoder)
	assert.Len(t, fenc.Resolves, 2)
	assert.Len(t, fenc.Copies, 2)

	cb, err := enc.Finish(nil)
	require.NoError(t, err)
	dev.GetQueue().Submit(cb)
	require.Empty(t, dev.FakeQueue().Errs)

	var started []*query.TimingQuery
	s.AfterSubmit(dev, dev.GetQueue(), []*query.TimingQuery{a, b}, func(q *query.TimingQuery) {
		started = append(started, q)
	})
	assert.Equal(t, []*query.TimingQuery{a, b}, started)
	assert.Zero(t, dev.PendingCallbacks())

	staging := b.StagingBuffer.(*gputest.Buffer)
	assert.Equal(t, uint64(750_000), staging.Uint64At(8)-staging.Uint64At(0))
}

func TestInlineCollectsResolveErrors(t *testing.T) {
	dev := gputest.NewDevice()
	m := query.NewManager(query.LayoutPacked)
	enc, err := dev.CreateCommandEncoder(nil)
	require.NoError(t, err)

	good := measuredPass(t, dev, m, enc, 1)
	bad := measuredPass(t, dev, m, enc, 1)
	bad.ResolveBuffer = &gputest.Buffer{}

	err = NewInline(m).BeforeFinish(enc, []*query.TimingQuery{good, bad})
	assert.ErrorIs(t, err, types.ErrResolve)
	assert.NoError(t, good.Err)
	assert.ErrorIs(t, bad.Err, types.ErrResolve)
}

func TestDeferredResolvesAfterQueueDrains(t *testing.T) {
	dev := gputest.NewDevice()
	m := query.NewManager(query.LayoutPacked)
	enc, err := dev.CreateCommandEncoder(nil)
	require.NoError(t, err)
	q := measuredPass(t, dev, m, enc, 2)

	s := NewDeferred(m)
	require.NoError(t, s.BeforeFinish(enc, []*query.TimingQuery{q}))
	assert.Empty(t, enc.(*gputest.CommandEncoder).Resolves)

	cb, err := enc.Finish(nil)
	require.NoError(t, err)
	dev.GetQueue().Submit(cb)

	var started []*query.TimingQuery
	s.AfterSubmit(dev, dev.GetQueue(), []*query.TimingQuery{q}, func(q *query.TimingQuery) {
		started = append(started, q)
	})
	assert.Empty(t, started)
	assert.Equal(t, 1, dev.FakeQueue().WorkDoneRegs)

	dev.Poll(true)
	require.Equal(t, []*query.TimingQuery{q}, started)
	require.NoError(t, q.Err)

	require.Len(t, dev.Encoders, 2)
	resolveEnc := dev.Encoders[1]
	assert.Len(t, resolveEnc.Resolves, 1)
	assert.True(t, resolveEnc.Released)
	assert.Equal(t, 2, dev.Submissions)

	staging := q.StagingBuffer.(*gputest.Buffer)
	assert.Equal(t, uint64(500_000), staging.Uint64At(8)-staging.Uint64At(0))
}

func TestDeferredQueueFailure(t *testing.T) {
	dev := gputest.NewDevice()
	dev.WorkDoneStatus = gpuapi.WorkDoneStatusDeviceLost
	m := query.NewManager(query.LayoutPacked)
	q, _, err := m.Begin(dev, nil)
	require.NoError(t, err)

	started := 0
	NewDeferred(m).AfterSubmit(dev, dev.GetQueue(), []*query.TimingQuery{q}, func(*query.TimingQuery) { started++ })
	dev.Poll(true)

	assert.Equal(t, 1, started)
	assert.ErrorIs(t, q.Err, types.ErrQueueDrain)
	assert.Len(t, dev.Encoders, 0)
}

func TestDeferredEncoderFailure(t *testing.T) {
	dev := gputest.NewDevice()
	m := query.NewManager(query.LayoutPacked)
	q, _, err := m.Begin(dev, nil)
	require.NoError(t, err)
	dev.EncoderErr = gputest.ErrRejected

	started := 0
	NewDeferred(m).AfterSubmit(dev, dev.GetQueue(), []*query.TimingQuery{q}, func(*query.TimingQuery) { started++ })
	dev.Poll(true)

	assert.Equal(t, 1, started)
	assert.ErrorIs(t, q.Err, types.ErrResolve)
}

func TestDeferredNothingSubmitted(t *testing.T) {
	dev := gputest.NewDevice()
	NewDeferred(query.NewManager(query.LayoutAuto)).AfterSubmit(dev, dev.GetQueue(), nil, func(*query.TimingQuery) {
		t.Fatal("no query to start")
	})
	assert.Zero(t, dev.FakeQueue().WorkDoneRegs)
}
