package aggregator

import (
	"context"
	"time"

	"github.com/ALEYI17/InfraSight_webgpu/internal/grpc/pb"
)

// Run flushes on every tick. When ctx ends it flushes every open window once more
// and closes the channel, so the reader must drain it until closed.
func (ka *KernelAggregator) Run(ctx context.Context) <-chan *pb.TimingBatch {
	out := make(chan *pb.TimingBatch)

	go func() {
		defer close(out)
		ticker := time.NewTicker(ka.windowDuration)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				if batch := ka.FlushAll(); batch != nil {
					out <- batch
				}
				return
			case <-ticker.C:
				if batch := ka.Flush(); batch != nil {
					out <- batch
				}
			}
		}
	}()

	return out
}
