package scheduler

import (
	"fmt"

	"github.com/ALEYI17/InfraSight_webgpu/internal/query"
	"github.com/ALEYI17/InfraSight_webgpu/pkg/gpuapi"
	"github.com/ALEYI17/InfraSight_webgpu/pkg/logutil"
	"github.com/ALEYI17/InfraSight_webgpu/pkg/types"
	"go.uber.org/zap"
)

// Deferred leaves the application's encoder alone. Once the queue reports
// the submission drained it records the resolves on a private encoder and
// submits that on its own.
//
// Passes sharing a submission are only ordered against "queue drained", not
// against each other, and every submission costs one extra round trip.
type Deferred struct {
	manager *query.Manager
}

func NewDeferred(manager *query.Manager) *Deferred {
	return &Deferred{manager: manager}
}

func (s *Deferred) Name() string { return types.StrategyDeferred }

func (s *Deferred) BeforeFinish(enc gpuapi.CommandEncoder, pending []*query.TimingQuery) error {
	return nil
}

func (s *Deferred) AfterSubmit(dev gpuapi.Device, queue gpuapi.Queue, submitted []*query.TimingQuery, start func(*query.TimingQuery)) {
	if len(submitted) == 0 {
		return
	}
	queue.OnSubmittedWorkDone(func(status gpuapi.WorkDoneStatus) {
		defer startAll(submitted, start)
		if status != gpuapi.WorkDoneStatusSuccess {
			failAll(submitted, fmt.Errorf("%w: status %d", types.ErrQueueDrain, status))
			return
		}
		if err := s.resolve(dev, queue, submitted); err != nil {
			logutil.GetLogger().Warn("deferred resolve failed", zap.Int("queries", len(submitted)), zap.Error(err))
			failAll(submitted, fmt.Errorf("%w: %v", types.ErrResolve, err))
		}
	})
}

func (s *Deferred) resolve(dev gpuapi.Device, queue gpuapi.Queue, qs []*query.TimingQuery) error {
	enc, err := dev.CreateCommandEncoder(&gpuapi.CommandEncoderDescriptor{Label: "infrasight deferred resolve"})
	if err != nil {
		return fmt.Errorf("create encoder: %w", err)
	}
	defer enc.Release()

	for _, q := range qs {
		if q.Err != nil {
			continue
		}
		// failures stay on q.Err and surface at readback
		_ = s.manager.Resolve(enc, q)
	}

	cb, err := enc.Finish(&gpuapi.CommandBufferDescriptor{Label: "infrasight deferred resolve"})
	if err != nil {
		return fmt.Errorf("finish: %w", err)
	}
	defer cb.Release()
	queue.Submit(cb)
	return nil
}
