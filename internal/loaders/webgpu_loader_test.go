package loaders

import (
	"context"
	"testing"
	"time"

	"github.com/ALEYI17/InfraSight_webgpu/internal/collector/timeserie"
	"github.com/ALEYI17/InfraSight_webgpu/internal/gputest"
	"github.com/ALEYI17/InfraSight_webgpu/pkg/gpuapi"
	"github.com/ALEYI17/InfraSight_webgpu/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeAdapter(a *gputest.Adapter) func() (gpuapi.Adapter, error) {
	return func() (gpuapi.Adapter, error) { return a, nil }
}

func TestFactoryRejectsUnknownLoader(t *testing.T) {
	_, err := NewTimingLoaders("cuda", Options{})
	assert.Error(t, err)
}

func TestFactoryBuildsWebGPULoader(t *testing.T) {
	l, err := NewTimingLoaders(types.LoaderWebGPU, Options{
		OpenAdapter: fakeAdapter(gputest.NewAdapter(gpuapi.FeatureTimestampQuery)),
		Window:      time.Second, SeriesInterval: time.Second,
	})
	require.NoError(t, err)
	defer l.Close()
	assert.IsType(t, &WebGPULoader{}, l)
}

func TestLoaderRejectsBadOptions(t *testing.T) {
	_, err := NewWebGPULoader(Options{})
	assert.Error(t, err)
	_, err = NewWebGPULoader(Options{OpenAdapter: fakeAdapter(gputest.NewAdapter()), Layout: "sparse"})
	assert.Error(t, err)
	_, err = NewWebGPULoader(Options{OpenAdapter: fakeAdapter(gputest.NewAdapter()), Strategy: "eager"})
	assert.Error(t, err)
}

func TestLoaderShipsTimedPasses(t *testing.T) {
	raw := gputest.NewAdapter(gpuapi.FeatureTimestampQuery)
	series := timeserie.NewTimeSeriesCollector(10 * time.Millisecond)
	wl, err := NewWebGPULoader(Options{
		OpenAdapter: fakeAdapter(raw),
		Collectors:  []types.Timing_collectors{series},
	})
	require.NoError(t, err)
	defer wl.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	batches := wl.Run(ctx, "node-1")

	timeOnePass(t, wl)

	select {
	case batch := <-batches:
		assert.Equal(t, "node-1", batch.NodeName)
		assert.Equal(t, wl.Session(), batch.Session)
		assert.Equal(t, types.BATCH_TIME_SERIES, batch.Type)
		require.Len(t, batch.Batch, 1)
		assert.Equal(t, "matmul", batch.Batch[0].EntryPoint)
		assert.InDelta(t, 0.25, batch.Batch[0].Sample.TimeMs, 1e-9)
	case <-ctx.Done():
		t.Fatal("no batch shipped")
	}

	cancel()
	for range batches {
	}
}

func TestLoaderFlushesCollectorsOnCancel(t *testing.T) {
	raw := gputest.NewAdapter(gpuapi.FeatureTimestampQuery)
	wl, err := NewWebGPULoader(Options{
		OpenAdapter:    fakeAdapter(raw),
		Window:         time.Hour,
		SeriesInterval: time.Hour,
	})
	require.NoError(t, err)
	defer wl.Close()

	ctx, cancel := context.WithCancel(context.Background())
	batches := wl.Run(ctx, "node-1")
	timeOnePass(t, wl)
	cancel()

	got := map[string]int{}
	for batch := range batches {
		assert.Equal(t, "node-1", batch.NodeName)
		got[batch.Type] += len(batch.Batch)
	}
	assert.Equal(t, map[string]int{types.BATCH_TIME_WINDOW: 1, types.BATCH_TIME_SERIES: 1}, got)
}

func timeOnePass(t *testing.T, wl *WebGPULoader) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	dev, err := wl.Adapter().RequestDevice(nil)
	require.NoError(t, err)
	mod, err := dev.CreateShaderModule(&gpuapi.ShaderModuleDescriptor{WGSL: "fn matmul() {}"})
	require.NoError(t, err)
	pl, err := dev.CreateComputePipeline(&gpuapi.ComputePipelineDescriptor{Compute: gpuapi.ProgrammableStage{Module: mod, EntryPoint: "matmul"}})
	require.NoError(t, err)
	enc, err := dev.CreateCommandEncoder(nil)
	require.NoError(t, err)
	pass := enc.BeginComputePass(nil)
	pass.SetPipeline(pl)
	pass.DispatchWorkgroups(4, 4, 1)
	require.NoError(t, pass.End())
	cb, err := enc.Finish(nil)
	require.NoError(t, err)
	dev.GetQueue().Submit(cb)
	require.NoError(t, wl.Profiler().Flush(ctx))
}
