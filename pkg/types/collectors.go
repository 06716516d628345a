package types

import (
	"context"

	"github.com/ALEYI17/InfraSight_webgpu/internal/grpc/pb"
)

type Timing_collectors interface {
	Update(ev any)
	Flush() *pb.TimingBatch
	Run(context.Context) <-chan *pb.TimingBatch
}
