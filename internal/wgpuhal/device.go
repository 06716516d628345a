package wgpuhal

import (
	"fmt"

	"github.com/ALEYI17/InfraSight_webgpu/pkg/gpuapi"
	"github.com/cogentcore/webgpu/wgpu"
)

type Device struct {
	device *wgpu.Device
	queue  *Queue
}

func (d *Device) CreateShaderModule(desc *gpuapi.ShaderModuleDescriptor) (gpuapi.ShaderModule, error) {
	m, err := d.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          desc.Label,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: desc.WGSL},
	})
	if err != nil {
		return nil, err
	}
	return &ShaderModule{m}, nil
}

func (d *Device) CreateComputePipeline(desc *gpuapi.ComputePipelineDescriptor) (gpuapi.ComputePipeline, error) {
	mod, ok := desc.Compute.Module.(*ShaderModule)
	if !ok {
		return nil, fmt.Errorf("compute stage module is %T", desc.Compute.Module)
	}
	wd := &wgpu.ComputePipelineDescriptor{
		Label: desc.Label,
		Compute: wgpu.ProgrammableStageDescriptor{
			Module:     mod.m,
			EntryPoint: desc.Compute.EntryPoint,
		},
	}
	if l, ok := desc.Layout.(*PipelineLayout); ok {
		wd.Layout = l.l
	}
	p, err := d.device.CreateComputePipeline(wd)
	if err != nil {
		return nil, err
	}
	return &ComputePipeline{p}, nil
}

func (d *Device) CreateBindGroup(desc *gpuapi.BindGroupDescriptor) (gpuapi.BindGroup, error) {
	layout, ok := desc.Layout.(*BindGroupLayout)
	if !ok {
		return nil, fmt.Errorf("bind group layout is %T", desc.Layout)
	}
	entries := make([]wgpu.BindGroupEntry, 0, len(desc.Entries))
	for _, e := range desc.Entries {
		b, err := rawBuffer(e.Buffer)
		if err != nil {
			return nil, fmt.Errorf("binding %d: %w", e.Binding, err)
		}
		size := e.Size
		if size == 0 {
			size = wgpu.WholeSize
		}
		entries = append(entries, wgpu.BindGroupEntry{Binding: e.Binding, Buffer: b, Offset: e.Offset, Size: size})
	}
	bg, err := d.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   desc.Label,
		Layout:  layout.l,
		Entries: entries,
	})
	if err != nil {
		return nil, err
	}
	return &BindGroup{bg}, nil
}

func (d *Device) CreateBuffer(desc *gpuapi.BufferDescriptor) (gpuapi.Buffer, error) {
	b, err := d.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label:            desc.Label,
		Usage:            wgpu.BufferUsage(desc.Usage),
		Size:             desc.Size,
		MappedAtCreation: desc.MappedAtCreation,
	})
	if err != nil {
		return nil, err
	}
	return &Buffer{b: b, size: desc.Size}, nil
}

func (d *Device) CreateQuerySet(desc *gpuapi.QuerySetDescriptor) (gpuapi.QuerySet, error) {
	typ := wgpu.QueryTypeTimestamp
	if desc.Type == gpuapi.QueryTypeOcclusion {
		typ = wgpu.QueryTypeOcclusion
	}
	qs, err := d.device.CreateQuerySet(&wgpu.QuerySetDescriptor{
		Label: desc.Label,
		Type:  typ,
		Count: desc.Count,
	})
	if err != nil {
		return nil, err
	}
	return &QuerySet{qs: qs, count: desc.Count}, nil
}

func (d *Device) CreateCommandEncoder(desc *gpuapi.CommandEncoderDescriptor) (gpuapi.CommandEncoder, error) {
	var wd *wgpu.CommandEncoderDescriptor
	if desc != nil {
		wd = &wgpu.CommandEncoderDescriptor{Label: desc.Label}
	}
	enc, err := d.device.CreateCommandEncoder(wd)
	if err != nil {
		return nil, err
	}
	return &CommandEncoder{enc}, nil
}

func (d *Device) GetQueue() gpuapi.Queue { return d.queue }
func (d *Device) HasFeature(f gpuapi.FeatureName) bool {
	wf, ok := featureName(f)
	return ok && d.device.HasFeature(wf)
}

// Poll runs pending map and work-done callbacks. With wait it blocks until
// the queue is empty.
func (d *Device) Poll(wait bool) bool {
	return d.device.Poll(wait, nil)
}

func (d *Device) Release() {
	d.device.Release()
}
