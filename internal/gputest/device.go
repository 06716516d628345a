// Package gputest is an in-memory gpuapi backend for tests.
//
// Commands recorded on a fake encoder run when their command buffer is
// submitted. Compute passes carrying timestamp writes stamp the device clock
// into their query set, which advances by DispatchTicks per dispatch.
// Callbacks (buffer maps, queue drains) run from Poll, the same way a real
// backend only fires them while the device is being polled.
package gputest

import (
	"errors"
	"fmt"

	"github.com/ALEYI17/InfraSight_webgpu/pkg/gpuapi"
)

var ErrRejected = errors.New("gputest: rejected")

type Adapter struct {
	Features   map[gpuapi.FeatureName]bool
	RequestErr error

	// Requests keeps every descriptor passed to RequestDevice.
	Requests []*gpuapi.DeviceDescriptor
	Devices  []*Device
	Released bool
}

func NewAdapter(features ...gpuapi.FeatureName) *Adapter {
	a := &Adapter{Features: make(map[gpuapi.FeatureName]bool)}
	for _, f := range features {
		a.Features[f] = true
	}
	return a
}

func (a *Adapter) RequestDevice(desc *gpuapi.DeviceDescriptor) (gpuapi.Device, error) {
	a.Requests = append(a.Requests, desc)
	if a.RequestErr != nil {
		return nil, a.RequestErr
	}
	d := NewDevice()
	if desc != nil {
		for _, f := range desc.RequiredFeatures {
			if !a.Features[f] {
				return nil, fmt.Errorf("gputest: feature %q not supported", f)
			}
			d.Features[f] = true
		}
	}
	a.Devices = append(a.Devices, d)
	return d, nil
}

func (a *Adapter) HasFeature(f gpuapi.FeatureName) bool { return a.Features[f] }
func (a *Adapter) Release()                             { a.Released = true }

type Device struct {
	Features map[gpuapi.FeatureName]bool

	// Clock is the current device tick in nanoseconds.
	Clock         uint64
	DispatchTicks uint64
	// Alignment, when non zero, is the required resolve destination
	// alignment reported through QueryResolveAlignment and enforced by
	// ResolveQuerySet.
	Alignment uint64

	MapStatus      gpuapi.MapStatus
	MapErr         error
	WorkDoneStatus gpuapi.WorkDoneStatus
	QuerySetErr    error
	BufferErr      error
	// BufferErrAfter fails buffer creation once this many buffers exist.
	BufferErrAfter int
	EncoderErr     error
	// ReverseCallbacks fires pending callbacks newest first.
	ReverseCallbacks bool

	QuerySets   []*QuerySet
	Buffers     []*Buffer
	Encoders    []*CommandEncoder
	Pipelines   []*ComputePipeline
	Submissions int
	Released    bool

	queue   *Queue
	pending []func()
}

func NewDevice() *Device {
	d := &Device{
		Features:      make(map[gpuapi.FeatureName]bool),
		Clock:         1_000_000,
		DispatchTicks: 250_000,
	}
	d.queue = &Queue{device: d}
	return d
}

func (d *Device) CreateShaderModule(desc *gpuapi.ShaderModuleDescriptor) (gpuapi.ShaderModule, error) {
	return &ShaderModule{Desc: *desc}, nil
}

func (d *Device) CreateComputePipeline(desc *gpuapi.ComputePipelineDescriptor) (gpuapi.ComputePipeline, error) {
	p := &ComputePipeline{EntryPoint: desc.Compute.EntryPoint}
	d.Pipelines = append(d.Pipelines, p)
	return p, nil
}

func (d *Device) CreateBindGroup(desc *gpuapi.BindGroupDescriptor) (gpuapi.BindGroup, error) {
	for _, e := range desc.Entries {
		if _, ok := e.Buffer.(*Buffer); !ok {
			return nil, fmt.Errorf("gputest: bind group entry %d is not a fake buffer", e.Binding)
		}
	}
	return &BindGroup{Desc: *desc}, nil
}

func (d *Device) CreateBuffer(desc *gpuapi.BufferDescriptor) (gpuapi.Buffer, error) {
	if d.BufferErr != nil && len(d.Buffers) >= d.BufferErrAfter {
		return nil, d.BufferErr
	}
	b := &Buffer{device: d, Label: desc.Label, Usage: desc.Usage, data: make([]byte, desc.Size)}
	d.Buffers = append(d.Buffers, b)
	return b, nil
}

func (d *Device) CreateQuerySet(desc *gpuapi.QuerySetDescriptor) (gpuapi.QuerySet, error) {
	if d.QuerySetErr != nil {
		return nil, d.QuerySetErr
	}
	qs := NewQuerySet(desc.Count)
	d.QuerySets = append(d.QuerySets, qs)
	return qs, nil
}

func (d *Device) CreateCommandEncoder(desc *gpuapi.CommandEncoderDescriptor) (gpuapi.CommandEncoder, error) {
	if d.EncoderErr != nil {
		return nil, d.EncoderErr
	}
	e := &CommandEncoder{device: d}
	d.Encoders = append(d.Encoders, e)
	return e, nil
}

func (d *Device) GetQueue() gpuapi.Queue               { return d.queue }
func (d *Device) HasFeature(f gpuapi.FeatureName) bool { return d.Features[f] }
func (d *Device) QueryResolveAlignment() uint64        { return d.Alignment }
func (d *Device) Release()                             { d.Released = true }
func (d *Device) FakeQueue() *Queue                    { return d.queue }
func (d *Device) PendingCallbacks() int                { return len(d.pending) }
func (d *Device) enqueue(cb func())                    { d.pending = append(d.pending, cb) }
func (d *Device) advance(dispatches int) (begin, end uint64) {
	begin = d.Clock
	d.Clock += uint64(dispatches) * d.DispatchTicks
	return begin, d.Clock
}

func (d *Device) Poll(wait bool) bool {
	for len(d.pending) > 0 {
		batch := d.pending
		d.pending = nil
		if d.ReverseCallbacks {
			for i := len(batch) - 1; i >= 0; i-- {
				batch[i]()
			}
		} else {
			for _, cb := range batch {
				cb()
			}
		}
		if !wait {
			break
		}
	}
	return len(d.pending) == 0
}

// DestroyedBuffers counts buffers destroyed at least once.
func (d *Device) DestroyedBuffers() int {
	n := 0
	for _, b := range d.Buffers {
		if b.DestroyCount > 0 {
			n++
		}
	}
	return n
}

type ShaderModule struct {
	Desc     gpuapi.ShaderModuleDescriptor
	Released bool
}

func (s *ShaderModule) Release() { s.Released = true }

type BindGroupLayout struct{ Released bool }

func (l *BindGroupLayout) Release() { l.Released = true }

type BindGroup struct {
	Desc     gpuapi.BindGroupDescriptor
	Released bool
}

func (b *BindGroup) Release() { b.Released = true }

type ComputePipeline struct {
	EntryPoint   string
	ReleaseCount int
}

func (p *ComputePipeline) GetBindGroupLayout(group uint32) (gpuapi.BindGroupLayout, error) {
	return &BindGroupLayout{}, nil
}

func (p *ComputePipeline) Release() { p.ReleaseCount++ }
