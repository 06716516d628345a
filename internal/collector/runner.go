// Package collector fans loader output into the transports.
package collector

import (
	"context"
	"sync"
	"time"

	"github.com/ALEYI17/InfraSight_webgpu/internal/grpc/pb"
	"github.com/ALEYI17/InfraSight_webgpu/pkg/logutil"
	"github.com/ALEYI17/InfraSight_webgpu/pkg/types"
	"go.uber.org/zap"
)

// Merge runs every loader and forwards their batches on one channel. Loaders
// flush what they hold when ctx ends, so Merge keeps forwarding until every
// loader channel is closed, then closes its own.
func Merge(ctx context.Context, loaders []types.Timing_loaders, nodeName string, buffer int) <-chan *pb.TimingBatch {
	out := make(chan *pb.TimingBatch, buffer)
	var wg sync.WaitGroup

	for _, loader := range loaders {
		wg.Add(1)
		go func(l types.Timing_loaders) {
			defer wg.Done()
			for batch := range l.Run(ctx, nodeName) {
				out <- batch
			}
		}(loader)
	}

	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}

// SendContext is ctx while it is live. Once ctx ended it is a fresh context
// bounded by timeout, so batches flushed on shutdown can still be sent.
func SendContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if ctx.Err() == nil {
		return ctx, func() {}
	}
	return context.WithTimeout(context.WithoutCancel(ctx), timeout)
}

// RunWithAggregation logs every batch the loaders produce, including the
// ones flushed after ctx ends, until they stop. It is the transport used when no collector service is
// configured.
func RunWithAggregation(ctx context.Context, loaders []types.Timing_loaders, nodeName string) {
	logger := logutil.GetLogger()

	for batch := range Merge(ctx, loaders, nodeName, 0) {
		for _, ev := range batch.Batch {
			switch {
			case ev.Window != nil:
				w := ev.Window
				logger.Info("Aggregated kernel timing",
					zap.String("entryPoint", ev.EntryPoint),
					zap.Uint64("passes", w.PassCount),
					zap.Uint64("failures", w.FailureCount),
					zap.Float64("avg_ms", w.AvgTimeMs),
					zap.Float64("min_ms", w.MinTimeMs),
					zap.Float64("max_ms", w.MaxTimeMs),
					zap.Float64("pass_rate", w.PassRate),
					zap.Float64("failure_ratio", w.FailureRatio))
			case ev.Sample != nil:
				logger.Debug("Kernel timing sample",
					zap.String("entryPoint", ev.EntryPoint),
					zap.Float64("time_ms", ev.Sample.TimeMs),
					zap.Bool("failed", ev.Sample.Failed))
			}
		}
	}
	logger.Info("Loaders stopped, shutting down aggregation")
}
