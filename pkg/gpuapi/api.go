// Package gpuapi is the WebGPU capability surface the profiler decorates.
//
// It covers the compute subset of WebGPU: adapters, devices, pipelines,
// encoders, compute passes, queues, buffers and query sets. Backends
// (internal/wgpuhal) and test fakes (internal/gputest) implement it, and the
// host application is composed against it so that the intercepting
// decorators can be slotted in front of any backend.
package gpuapi

type Adapter interface {
	RequestDevice(desc *DeviceDescriptor) (Device, error)
	HasFeature(f FeatureName) bool
	Release()
}

type Device interface {
	CreateShaderModule(desc *ShaderModuleDescriptor) (ShaderModule, error)
	CreateComputePipeline(desc *ComputePipelineDescriptor) (ComputePipeline, error)
	CreateBindGroup(desc *BindGroupDescriptor) (BindGroup, error)
	CreateBuffer(desc *BufferDescriptor) (Buffer, error)
	CreateQuerySet(desc *QuerySetDescriptor) (QuerySet, error)
	CreateCommandEncoder(desc *CommandEncoderDescriptor) (CommandEncoder, error)
	GetQueue() Queue
	HasFeature(f FeatureName) bool
	// Poll processes completed work and fires pending callbacks. With wait
	// set it blocks until the queue is empty. It reports whether the queue
	// is empty.
	Poll(wait bool) bool
	Release()
}

// ResolveAligner is implemented by devices that require every query resolve
// destination offset to be a multiple of the returned alignment. Devices that
// do not implement it permit contiguous resolves at any 8-byte offset.
type ResolveAligner interface {
	QueryResolveAlignment() uint64
}

type ShaderModule interface {
	Release()
}

type PipelineLayout interface {
	Release()
}

type BindGroupLayout interface {
	Release()
}

type BindGroup interface {
	Release()
}

type ComputePipeline interface {
	GetBindGroupLayout(group uint32) (BindGroupLayout, error)
	Release()
}

type CommandEncoder interface {
	BeginComputePass(desc *ComputePassDescriptor) ComputePassEncoder
	ResolveQuerySet(qs QuerySet, firstQuery, queryCount uint32, dst Buffer, dstOffset uint64) error
	CopyBufferToBuffer(src Buffer, srcOffset uint64, dst Buffer, dstOffset uint64, size uint64) error
	Finish(desc *CommandBufferDescriptor) (CommandBuffer, error)
	Release()
}

type ComputePassEncoder interface {
	SetPipeline(p ComputePipeline)
	SetBindGroup(group uint32, bg BindGroup, dynamicOffsets []uint32)
	DispatchWorkgroups(x, y, z uint32)
	End() error
	Release()
}

type CommandBuffer interface {
	Release()
}

type Queue interface {
	Submit(cbs ...CommandBuffer) uint64
	WriteBuffer(b Buffer, offset uint64, data []byte) error
	OnSubmittedWorkDone(cb func(WorkDoneStatus))
	Release()
}

type Buffer interface {
	Size() uint64
	MapAsync(mode MapMode, offset, size uint64, cb func(MapStatus)) error
	// GetMappedRange returns the mapped bytes; valid until Unmap.
	GetMappedRange(offset, size uint64) []byte
	Unmap() error
	Destroy()
	Release()
}

type QuerySet interface {
	Count() uint32
	Destroy()
	Release()
}
