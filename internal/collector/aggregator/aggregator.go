package aggregator

import (
	"sort"
	"sync"
	"time"

	"github.com/ALEYI17/InfraSight_webgpu/internal/grpc/pb"
	"github.com/ALEYI17/InfraSight_webgpu/pkg/types"
)

type KernelAggregator struct {
	windows        map[string]*KernelFingerprint
	mu             sync.Mutex
	windowDuration time.Duration
	now            func() time.Time
}

func NewKernelAggregator(window time.Duration) *KernelAggregator {
	return &KernelAggregator{
		windows:        make(map[string]*KernelFingerprint),
		windowDuration: window,
		now:            time.Now,
	}
}

func (ka *KernelAggregator) ensureWindow(entryPoint string) *KernelFingerprint {
	win, ok := ka.windows[entryPoint]
	if !ok {
		now := ka.now()
		win = &KernelFingerprint{
			EntryPoint:  entryPoint,
			WindowStart: now,
			WindowEnd:   now.Add(ka.windowDuration),
		}
		ka.windows[entryPoint] = win
	}
	return win
}

func (ka *KernelAggregator) Update(ev any) {
	ka.mu.Lock()
	defer ka.mu.Unlock()

	switch e := ev.(type) {
	case types.TimingRecord:
		ka.ensureWindow(e.EntryPoint).addPass(e.TimeMs)
	case types.TimingFailure:
		ka.ensureWindow(e.EntryPoint).FailureCount++
	}
}

// Flush emits and forgets every window that has ended. It returns nil when
// no window is due.
func (ka *KernelAggregator) Flush() *pb.TimingBatch {
	return ka.flush(false)
}

// FlushAll emits every open window, ended or not. Used on shutdown.
func (ka *KernelAggregator) FlushAll() *pb.TimingBatch {
	return ka.flush(true)
}

func (ka *KernelAggregator) flush(all bool) *pb.TimingBatch {
	ka.mu.Lock()
	defer ka.mu.Unlock()

	now := ka.now()
	var due []*KernelFingerprint
	for ep, w := range ka.windows {
		if all || now.After(w.WindowEnd) {
			due = append(due, w)
			delete(ka.windows, ep)
		}
	}
	if len(due) == 0 {
		return nil
	}
	sort.Slice(due, func(i, j int) bool { return due[i].EntryPoint < due[j].EntryPoint })

	events := make([]*pb.TimingEvent, 0, len(due))
	for _, w := range due {
		w.finalize()
		events = append(events, &pb.TimingEvent{
			EntryPoint: w.EntryPoint,
			EventType:  types.EVENT_KERNEL_WINDOW,
			Window: &pb.KernelWindow{
				WindowStartNs: w.WindowStart.UnixNano(),
				WindowEndNs:   w.WindowEnd.UnixNano(),
				PassCount:     w.PassCount,
				FailureCount:  w.FailureCount,
				TotalTimeMs:   w.TotalTimeMs,
				AvgTimeMs:     w.AvgTimeMs,
				MinTimeMs:     w.MinTimeMs,
				MaxTimeMs:     w.MaxTimeMs,
				FailureRatio:  w.FailureRatio,
				PassRate:      w.PassRate,
			},
		})
	}
	return &pb.TimingBatch{Type: types.BATCH_TIME_WINDOW, Batch: events}
}
