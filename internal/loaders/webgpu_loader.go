package loaders

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ALEYI17/InfraSight_webgpu/internal/collector/aggregator"
	"github.com/ALEYI17/InfraSight_webgpu/internal/collector/timeserie"
	"github.com/ALEYI17/InfraSight_webgpu/internal/grpc/pb"
	"github.com/ALEYI17/InfraSight_webgpu/internal/intercept"
	"github.com/ALEYI17/InfraSight_webgpu/internal/query"
	"github.com/ALEYI17/InfraSight_webgpu/internal/sink"
	"github.com/ALEYI17/InfraSight_webgpu/pkg/gpuapi"
	"github.com/ALEYI17/InfraSight_webgpu/pkg/logutil"
	"github.com/ALEYI17/InfraSight_webgpu/pkg/types"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Options struct {
	OpenAdapter func() (gpuapi.Adapter, error)

	Strategy string
	Layout   string
	// SinkBuffer bounds the records waiting for the collectors.
	SinkBuffer int
	// LogRecords also logs every record as it completes.
	LogRecords bool

	Window         time.Duration
	SeriesInterval time.Duration
	// Collectors replaces the default window and series collectors.
	Collectors []types.Timing_collectors
}

// WebGPULoader profiles the compute passes of devices requested through
// its adapter and feeds the records to its collectors.
type WebGPULoader struct {
	raw      gpuapi.Adapter
	adapter  *intercept.Adapter
	profiler *intercept.Profiler
	events   *sink.ChannelSink
	session  string

	collectors []types.Timing_collectors
	closeOnce  sync.Once
}

func NewWebGPULoader(opts Options) (*WebGPULoader, error) {
	logger := logutil.GetLogger()

	if opts.OpenAdapter == nil {
		return nil, fmt.Errorf("no adapter source")
	}
	layout, err := query.ParseLayout(opts.Layout)
	if err != nil {
		return nil, err
	}
	if opts.SinkBuffer <= 0 {
		opts.SinkBuffer = 1024
	}
	if opts.Window <= 0 {
		opts.Window = 10 * time.Second
	}
	if opts.SeriesInterval <= 0 {
		opts.SeriesInterval = 5 * time.Second
	}

	session := uuid.NewString()
	events := sink.NewChannelSink(opts.SinkBuffer)
	var out types.Timing_sinks = events
	if opts.LogRecords {
		out = sink.Multi{events, sink.NewLogSink(nil)}
	}

	profiler, err := intercept.NewProfiler(intercept.Options{
		Strategy: opts.Strategy,
		Layout:   layout,
		Session:  session,
		Sink:     out,
	})
	if err != nil {
		return nil, err
	}

	raw, err := opts.OpenAdapter()
	if err != nil {
		logger.Error("error", zap.Error(err))
		return nil, fmt.Errorf("open adapter: %w", err)
	}
	if !raw.HasFeature(gpuapi.FeatureTimestampQuery) {
		logger.Warn("adapter lacks timestamp-query, no pass will be timed")
	}

	collectors := opts.Collectors
	if collectors == nil {
		collectors = []types.Timing_collectors{
			aggregator.NewKernelAggregator(opts.Window),
			timeserie.NewTimeSeriesCollector(opts.SeriesInterval),
		}
	}

	logger.Info("webgpu loader ready", zap.String("session", session), zap.String("strategy", opts.Strategy), zap.String("layout", layout.String()))
	return &WebGPULoader{
		raw:        raw,
		adapter:    profiler.WrapAdapter(raw),
		profiler:   profiler,
		events:     events,
		session:    session,
		collectors: collectors,
	}, nil
}

// Adapter hands out devices whose compute passes are timed.
func (wl *WebGPULoader) Adapter() gpuapi.Adapter {
	return wl.adapter
}

func (wl *WebGPULoader) Profiler() *intercept.Profiler {
	return wl.profiler
}

func (wl *WebGPULoader) Session() string {
	return wl.session
}

// Close releases the adapter and ends the record stream. It must be called
// once the device goroutine stopped.
func (wl *WebGPULoader) Close() {
	wl.closeOnce.Do(func() {
		if dropped := wl.events.Dropped(); dropped > 0 {
			logutil.GetLogger().Warn("timing records dropped", zap.Uint64("dropped", dropped))
		}
		wl.raw.Release()
		wl.events.Close()
	})
}

// Run feeds recorded passes to the collectors and forwards their batches.
// When ctx ends the records still queued are handed to the collectors
// before they are stopped, and the channel closes after their final
// batches.
func (wl *WebGPULoader) Run(ctx context.Context, nodeName string) <-chan *pb.TimingBatch {
	out := make(chan *pb.TimingBatch)

	logger := logutil.GetLogger()

	colCtx, stopCollectors := context.WithCancel(context.Background())

	var wg sync.WaitGroup
	for _, c := range wl.collectors {
		wg.Add(1)
		go func(col types.Timing_collectors) {
			defer wg.Done()
			for batch := range col.Run(colCtx) {
				batch.NodeName = nodeName
				batch.Session = wl.session
				out <- batch
			}
		}(c)
	}
	go func() {
		wg.Wait()
		close(out)
	}()

	go func() {
		defer stopCollectors()
		for {
			select {
			case <-ctx.Done():
				wl.drainEvents()
				logger.Info("Context cancelled, stopping loader...")
				return
			case ev, ok := <-wl.events.Events():
				if !ok {
					logger.Info("Record stream closed, exiting...")
					return
				}
				wl.sendToCollectors(ev)
			}
		}
	}()

	return out
}

func (wl *WebGPULoader) drainEvents() {
	for {
		select {
		case ev, ok := <-wl.events.Events():
			if !ok {
				return
			}
			wl.sendToCollectors(ev)
		default:
			return
		}
	}
}

func (wl *WebGPULoader) sendToCollectors(e any) {
	for _, c := range wl.collectors {
		c.Update(e)
	}
}
