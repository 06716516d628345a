package timeserie

import (
	"sort"
	"sync"
	"time"

	"github.com/ALEYI17/InfraSight_webgpu/internal/grpc/pb"
	"github.com/ALEYI17/InfraSight_webgpu/pkg/types"
)

// TimeSeriesCollector keeps every sample since the last flush, grouped by
// entry point.
type TimeSeriesCollector struct {
	mu            sync.Mutex
	buffers       map[string][]*pb.KernelSample
	flushInterval time.Duration
}

func NewTimeSeriesCollector(flushInterval time.Duration) *TimeSeriesCollector {
	return &TimeSeriesCollector{
		buffers:       make(map[string][]*pb.KernelSample),
		flushInterval: flushInterval,
	}
}

func (tc *TimeSeriesCollector) Update(ev any) {
	entryPoint, sample := EventToSample(ev)
	if sample == nil {
		return
	}
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.buffers[entryPoint] = append(tc.buffers[entryPoint], sample)
}

// Flush returns the buffered samples and starts a new series. It returns
// nil when nothing was collected.
func (tc *TimeSeriesCollector) Flush() *pb.TimingBatch {
	tc.mu.Lock()
	defer tc.mu.Unlock()

	if len(tc.buffers) == 0 {
		return nil
	}
	entryPoints := make([]string, 0, len(tc.buffers))
	for ep := range tc.buffers {
		entryPoints = append(entryPoints, ep)
	}
	sort.Strings(entryPoints)

	var events []*pb.TimingEvent
	for _, ep := range entryPoints {
		for _, s := range tc.buffers[ep] {
			events = append(events, &pb.TimingEvent{
				EntryPoint: ep,
				EventType:  types.EVENT_KERNEL_SAMPLE,
				Sample:     s,
			})
		}
	}
	tc.buffers = make(map[string][]*pb.KernelSample)

	return &pb.TimingBatch{Type: types.BATCH_TIME_SERIES, Batch: events}
}
