package scheduler

import (
	"github.com/ALEYI17/InfraSight_webgpu/internal/query"
	"github.com/ALEYI17/InfraSight_webgpu/pkg/gpuapi"
	"github.com/ALEYI17/InfraSight_webgpu/pkg/logutil"
	"github.com/ALEYI17/InfraSight_webgpu/pkg/types"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Inline resolves every pass on the application's encoder at Finish, so each
// pass's ticks land in the same command buffer that measured them. It is the
// default.
type Inline struct {
	manager *query.Manager
}

func NewInline(manager *query.Manager) *Inline {
	return &Inline{manager: manager}
}

func (s *Inline) Name() string { return types.StrategyInline }

func (s *Inline) BeforeFinish(enc gpuapi.CommandEncoder, pending []*query.TimingQuery) error {
	logger := logutil.GetLogger()
	var errs error
	for _, q := range pending {
		if err := s.manager.Resolve(enc, q); err != nil {
			logger.Warn("failed to record timestamp resolve", zap.String("entryPoint", q.EntryPoint), zap.Error(err))
			errs = multierr.Append(errs, err)
		}
	}
	return errs
}

func (s *Inline) AfterSubmit(dev gpuapi.Device, queue gpuapi.Queue, submitted []*query.TimingQuery, start func(*query.TimingQuery)) {
	startAll(submitted, start)
}
