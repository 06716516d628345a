package types

import (
	"context"

	"github.com/ALEYI17/InfraSight_webgpu/internal/grpc/pb"
)

type Timing_loaders interface {
	Close()
	Run(context.Context, string) <-chan *pb.TimingBatch
}

// Timing_sinks receives the output of the readback reporter. Both methods
// are called on the goroutine driving the GPU device and must not block.
type Timing_sinks interface {
	Emit(rec TimingRecord)
	Fail(f TimingFailure)
}
