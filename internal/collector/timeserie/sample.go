package timeserie

import (
	"github.com/ALEYI17/InfraSight_webgpu/internal/grpc/pb"
	"github.com/ALEYI17/InfraSight_webgpu/pkg/types"
)

// EventToSample converts a reporter value into a sample keyed by entry
// point. Unknown values yield a nil sample.
func EventToSample(ev any) (string, *pb.KernelSample) {
	switch e := ev.(type) {
	case types.TimingRecord:
		return e.EntryPoint, &pb.KernelSample{
			TimestampNs: e.CompletedAt.UnixNano(),
			TimeMs:      e.TimeMs,
			StartTicks:  e.StartTicks,
			EndTicks:    e.EndTicks,
		}
	case types.TimingFailure:
		return e.EntryPoint, &pb.KernelSample{
			TimestampNs: e.FailedAt.UnixNano(),
			Failed:      true,
			Reason:      e.Reason,
		}
	default:
		return "", nil
	}
}
