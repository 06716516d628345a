package intercept

import (
	"github.com/ALEYI17/InfraSight_webgpu/pkg/gpuapi"
)

type Device struct {
	gpuapi.Device
	p     *Profiler
	queue *Queue
}

// Unwrap returns the device handed out by the backend.
func (d *Device) Unwrap() gpuapi.Device {
	return d.Device
}

func (d *Device) CreateComputePipeline(desc *gpuapi.ComputePipelineDescriptor) (gpuapi.ComputePipeline, error) {
	pl, err := d.Device.CreateComputePipeline(desc)
	if err != nil || pl == nil {
		return pl, err
	}
	entryPoint := ""
	if desc != nil {
		entryPoint = desc.Compute.EntryPoint
	}
	d.p.registry.SetPipeline(pl, entryPoint)
	return &ComputePipeline{ComputePipeline: pl, p: d.p}, nil
}

func (d *Device) CreateCommandEncoder(desc *gpuapi.CommandEncoderDescriptor) (gpuapi.CommandEncoder, error) {
	enc, err := d.Device.CreateCommandEncoder(desc)
	if err != nil || enc == nil {
		return enc, err
	}
	return &CommandEncoder{CommandEncoder: enc, p: d.p, dev: d.Device}, nil
}

func (d *Device) GetQueue() gpuapi.Queue {
	if d.queue == nil {
		d.queue = &Queue{Queue: d.Device.GetQueue(), p: d.p, dev: d.Device}
	}
	return d.queue
}

// Release stops timing passes recorded for this device.
func (d *Device) Release() {
	if d.p.active == d {
		d.p.active = nil
	}
	d.Device.Release()
}
