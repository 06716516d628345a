package intercept

import (
	"errors"
	"slices"

	"github.com/ALEYI17/InfraSight_webgpu/internal/query"
	"github.com/ALEYI17/InfraSight_webgpu/pkg/gpuapi"
	"github.com/ALEYI17/InfraSight_webgpu/pkg/logutil"
	"go.uber.org/zap"
)

type CommandEncoder struct {
	gpuapi.CommandEncoder
	p *Profiler
	// dev is the backend device that created the encoder, nil for encoders
	// wrapped after the fact.
	dev gpuapi.Device

	pending []*query.TimingQuery
	// live holds timed passes begun but not yet ended.
	live []*ComputePassEncoder
}

func (e *CommandEncoder) Unwrap() gpuapi.CommandEncoder {
	return e.CommandEncoder
}

// BeginComputePass begins the pass with timestamp writes at its beginning
// and end. Caller supplied writes are kept as they are and measured in
// place.
func (e *CommandEncoder) BeginComputePass(desc *gpuapi.ComputePassDescriptor) gpuapi.ComputePassEncoder {
	logger := logutil.GetLogger()

	dev := e.dev
	if dev == nil {
		dev = e.p.rawDevice()
	}
	if dev == nil {
		logger.Debug("no captured device, compute pass not timed")
		return e.pass(e.CommandEncoder.BeginComputePass(desc), nil)
	}

	q, call, err := e.p.manager.Begin(dev, desc)
	if err != nil {
		if errors.Is(err, query.ErrPartialWrites) {
			logger.Debug("compute pass not timed", zap.Error(err))
		} else {
			logger.Warn("failed to allocate timing query, compute pass not timed", zap.Error(err))
		}
		return e.pass(e.CommandEncoder.BeginComputePass(desc), nil)
	}
	return e.pass(e.CommandEncoder.BeginComputePass(call), q)
}

func (e *CommandEncoder) pass(raw gpuapi.ComputePassEncoder, q *query.TimingQuery) gpuapi.ComputePassEncoder {
	if raw == nil {
		if q != nil {
			e.p.manager.Release(q)
		}
		return raw
	}
	pass := &ComputePassEncoder{ComputePassEncoder: raw, enc: e, q: q}
	if q != nil {
		e.live = append(e.live, pass)
	}
	return pass
}

func (e *CommandEncoder) passEnded(pass *ComputePassEncoder) {
	e.live = slices.DeleteFunc(e.live, func(p *ComputePassEncoder) bool { return p == pass })
}

// dropUnended releases the queries of passes that never reached End.
func (e *CommandEncoder) dropUnended(why string) {
	for _, pass := range e.live {
		if pass.q == nil {
			continue
		}
		logutil.GetLogger().Debug("compute pass never ended, timing dropped",
			zap.String("reason", why))
		e.p.manager.Release(pass.q)
		pass.q = nil
	}
	e.live = nil
}

// Finish records the resolves of the ended passes, when the strategy does
// so at finish time, and hands the passes to the command buffer.
func (e *CommandEncoder) Finish(desc *gpuapi.CommandBufferDescriptor) (gpuapi.CommandBuffer, error) {
	e.dropUnended("encoder finished")
	pending := e.pending
	e.pending = nil
	if len(pending) > 0 {
		// failures are logged by the strategy and kept on each query
		_ = e.p.strategy.BeforeFinish(e.CommandEncoder, pending)
	}

	cb, err := e.CommandEncoder.Finish(desc)
	if err != nil || cb == nil {
		e.p.discard(pending, "finish failed")
		return cb, err
	}
	return &CommandBuffer{CommandBuffer: cb, p: e.p, queries: pending}, nil
}

// Release drops the timing of passes left on an encoder never finished.
func (e *CommandEncoder) Release() {
	e.dropUnended("encoder released")
	e.p.discard(e.pending, "encoder released before finish")
	e.pending = nil
	e.CommandEncoder.Release()
}
