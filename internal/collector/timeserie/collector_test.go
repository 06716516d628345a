package timeserie

import (
	"context"
	"testing"
	"time"

	"github.com/ALEYI17/InfraSight_webgpu/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlushGroupsByEntryPoint(t *testing.T) {
	tc := NewTimeSeriesCollector(time.Second)
	at := time.Unix(0, 42)
	tc.Update(types.TimingRecord{EntryPoint: "reduce", TimeMs: 2, CompletedAt: at})
	tc.Update(types.TimingRecord{EntryPoint: "matmul", TimeMs: 1, StartTicks: 10, EndTicks: 1_000_010, CompletedAt: at})
	tc.Update(types.TimingFailure{EntryPoint: "matmul", Reason: "map failed", FailedAt: at})
	tc.Update("not a timing value")

	batch := tc.Flush()
	require.NotNil(t, batch)
	assert.Equal(t, types.BATCH_TIME_SERIES, batch.Type)
	require.Len(t, batch.Batch, 3)

	assert.Equal(t, "matmul", batch.Batch[0].EntryPoint)
	assert.Equal(t, types.EVENT_KERNEL_SAMPLE, batch.Batch[0].EventType)
	assert.Equal(t, 1.0, batch.Batch[0].Sample.TimeMs)
	assert.Equal(t, int64(42), batch.Batch[0].Sample.TimestampNs)
	assert.True(t, batch.Batch[1].Sample.Failed)
	assert.Equal(t, "map failed", batch.Batch[1].Sample.Reason)
	assert.Equal(t, "reduce", batch.Batch[2].EntryPoint)

	assert.Nil(t, tc.Flush(), "series restarts after flush")
}

func TestRunFlushesOnTick(t *testing.T) {
	tc := NewTimeSeriesCollector(10 * time.Millisecond)
	tc.Update(types.TimingRecord{EntryPoint: "matmul", TimeMs: 1})

	ctx, cancel := context.WithCancel(context.Background())
	out := tc.Run(ctx)

	select {
	case batch := <-out:
		require.Len(t, batch.Batch, 1)
	case <-time.After(time.Second):
		t.Fatal("no batch flushed")
	}
	cancel()
	for range out {
	}
}

func TestRunFlushesPendingSamplesOnCancel(t *testing.T) {
	tc := NewTimeSeriesCollector(time.Hour)
	tc.Update(types.TimingRecord{EntryPoint: "matmul", TimeMs: 1})
	tc.Update(types.TimingRecord{EntryPoint: "matmul", TimeMs: 2})

	ctx, cancel := context.WithCancel(context.Background())
	out := tc.Run(ctx)
	cancel()

	var samples int
	for batch := range out {
		samples += len(batch.Batch)
	}
	assert.Equal(t, 2, samples)
	assert.Nil(t, tc.Flush())
}
