package timeserie

import (
	"context"
	"time"

	"github.com/ALEYI17/InfraSight_webgpu/internal/grpc/pb"
)

// Run flushes on every tick. When ctx ends it flushes the pending samples once more
// and closes the channel, so the reader must drain it until closed.
func (tc *TimeSeriesCollector) Run(ctx context.Context) <-chan *pb.TimingBatch {
	out := make(chan *pb.TimingBatch)

	go func() {
		defer close(out)
		ticker := time.NewTicker(tc.flushInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				if batch := tc.Flush(); batch != nil {
					out <- batch
				}
				return
			case <-ticker.C:
				if batch := tc.Flush(); batch != nil {
					out <- batch
				}
			}
		}
	}()

	return out
}
