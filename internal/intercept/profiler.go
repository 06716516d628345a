// Package intercept wraps the gpuapi surface so that every compute pass an
// application records is timed on the GPU without the application changing
// any of its calls.
//
// All wrappers embed the interface they wrap, so any method not redefined
// here is forwarded unchanged. Wrapped operations always return the
// original result and error. The wrappers, like the handles they wrap, must
// be driven from a single goroutine; map and queue callbacks run inside
// Device.Poll on that same goroutine.
package intercept

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ALEYI17/InfraSight_webgpu/internal/query"
	"github.com/ALEYI17/InfraSight_webgpu/internal/readback"
	"github.com/ALEYI17/InfraSight_webgpu/internal/registry"
	"github.com/ALEYI17/InfraSight_webgpu/internal/scheduler"
	"github.com/ALEYI17/InfraSight_webgpu/pkg/gpuapi"
	"github.com/ALEYI17/InfraSight_webgpu/pkg/logutil"
	"github.com/ALEYI17/InfraSight_webgpu/pkg/types"
	"go.uber.org/zap"
)

// ErrNoDevice is returned by Flush when readbacks are pending but no device
// is captured to poll.
var ErrNoDevice = errors.New("no captured device to poll")

const flushBackoff = time.Millisecond

type Options struct {
	// Strategy names the resolution scheduler, inline when empty.
	Strategy string
	Layout   query.Layout
	// Session tags every record produced by this profiler.
	Session string
	Sink    types.Timing_sinks
}

// Profiler is the state shared by all wrappers of one application: the
// captured device, the entry point side tables and the query pipeline.
type Profiler struct {
	registry *registry.Registry
	manager  *query.Manager
	strategy scheduler.Strategy
	reporter *readback.Reporter

	active *Device
	// submitted but not yet handed to the reporter (deferred resolves)
	awaiting int
}

func NewProfiler(opts Options) (*Profiler, error) {
	manager := query.NewManager(opts.Layout)
	strategy, err := scheduler.New(opts.Strategy, manager)
	if err != nil {
		return nil, err
	}
	return &Profiler{
		registry: registry.New(),
		manager:  manager,
		strategy: strategy,
		reporter: readback.NewReporter(manager, opts.Sink, opts.Session),
	}, nil
}

// WrapAdapter returns an adapter whose RequestDevice captures the device it
// creates.
func (p *Profiler) WrapAdapter(a gpuapi.Adapter) *Adapter {
	if w, ok := a.(*Adapter); ok && w.p == p {
		return w
	}
	return &Adapter{Adapter: a, p: p}
}

// WrapDevice captures a device created without going through a wrapped
// adapter. Timing only works if the device was created with the
// timestamp-query feature.
func (p *Profiler) WrapDevice(d gpuapi.Device) *Device {
	if w, ok := d.(*Device); ok && w.p == p {
		p.active = w
		return w
	}
	if !d.HasFeature(gpuapi.FeatureTimestampQuery) {
		logutil.GetLogger().Warn("captured device lacks timestamp-query, passes will fail to record")
	}
	w := &Device{Device: d, p: p}
	p.active = w
	return w
}

// WrapEncoder instruments an encoder obtained outside a wrapped device. Its
// passes are timed on the active device.
func (p *Profiler) WrapEncoder(enc gpuapi.CommandEncoder) *CommandEncoder {
	if w, ok := enc.(*CommandEncoder); ok && w.p == p {
		return w
	}
	return &CommandEncoder{CommandEncoder: enc, p: p}
}

// WrapQueue instruments a queue obtained outside a wrapped device.
func (p *Profiler) WrapQueue(q gpuapi.Queue) *Queue {
	if w, ok := q.(*Queue); ok && w.p == p {
		return w
	}
	return &Queue{Queue: q, p: p}
}

// ActiveDevice is the most recently captured device still alive, or nil.
func (p *Profiler) ActiveDevice() *Device {
	return p.active
}

// Pending counts submitted passes whose record or failure has not been
// emitted yet.
func (p *Profiler) Pending() int {
	return p.awaiting + p.reporter.Pending()
}

// Outstanding counts queries holding GPU resources, submitted or not.
func (p *Profiler) Outstanding() int {
	return p.manager.Outstanding()
}

// Stats returns the number of records and failures emitted so far.
func (p *Profiler) Stats() (emitted, failed uint64) {
	return p.reporter.Stats()
}

// Flush polls the active device until every submitted pass was reported or
// ctx ends.
func (p *Profiler) Flush(ctx context.Context) error {
	for p.Pending() > 0 {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("flush with %d readbacks pending: %w", p.Pending(), err)
		}
		dev := p.rawDevice()
		if dev == nil {
			return ErrNoDevice
		}
		before := p.Pending()
		if dev.Poll(true) && p.Pending() == before {
			select {
			case <-ctx.Done():
			case <-time.After(flushBackoff):
			}
		}
	}
	return nil
}

func (p *Profiler) rawDevice() gpuapi.Device {
	if p.active == nil {
		return nil
	}
	return p.active.Device
}

func (p *Profiler) startReadback(q *query.TimingQuery) {
	p.awaiting--
	p.reporter.Start(q)
}

// submitted hands the queries of a finished submission to the scheduler.
func (p *Profiler) submitted(dev gpuapi.Device, queue gpuapi.Queue, qs []*query.TimingQuery) {
	if len(qs) == 0 {
		return
	}
	p.awaiting += len(qs)
	if dev == nil && p.strategy.Name() == types.StrategyDeferred {
		for _, q := range qs {
			if q.Err == nil {
				q.Err = fmt.Errorf("%w: no device to resolve on", types.ErrResolve)
			}
		}
		for _, q := range qs {
			p.startReadback(q)
		}
		return
	}
	p.strategy.AfterSubmit(dev, queue, qs, p.startReadback)
}

// discard releases queries whose command buffer will never be submitted.
func (p *Profiler) discard(qs []*query.TimingQuery, why string) {
	if len(qs) == 0 {
		return
	}
	logutil.GetLogger().Debug("releasing unsubmitted timing queries", zap.Int("queries", len(qs)), zap.String("reason", why))
	for _, q := range qs {
		p.manager.Release(q)
	}
}
