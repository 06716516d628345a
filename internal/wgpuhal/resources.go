package wgpuhal

import (
	"fmt"

	"github.com/ALEYI17/InfraSight_webgpu/pkg/gpuapi"
	"github.com/cogentcore/webgpu/wgpu"
)

type ShaderModule struct{ m *wgpu.ShaderModule }

func (s *ShaderModule) Release() { s.m.Release() }

type PipelineLayout struct{ l *wgpu.PipelineLayout }

func (p *PipelineLayout) Release() { p.l.Release() }

type BindGroupLayout struct{ l *wgpu.BindGroupLayout }

func (b *BindGroupLayout) Release() { b.l.Release() }

type BindGroup struct{ bg *wgpu.BindGroup }

func (b *BindGroup) Release() { b.bg.Release() }

type ComputePipeline struct{ p *wgpu.ComputePipeline }

func (c *ComputePipeline) GetBindGroupLayout(group uint32) (gpuapi.BindGroupLayout, error) {
	l := c.p.GetBindGroupLayout(group)
	if l == nil {
		return nil, fmt.Errorf("pipeline has no bind group %d", group)
	}
	return &BindGroupLayout{l}, nil
}

func (c *ComputePipeline) Release() { c.p.Release() }

type Buffer struct {
	b    *wgpu.Buffer
	size uint64
}

func (b *Buffer) Size() uint64 { return b.size }

func (b *Buffer) MapAsync(mode gpuapi.MapMode, offset, size uint64, cb func(gpuapi.MapStatus)) error {
	wm := wgpu.MapModeRead
	if mode == gpuapi.MapModeWrite {
		wm = wgpu.MapModeWrite
	}
	return b.b.MapAsync(wm, offset, size, func(s wgpu.BufferMapAsyncStatus) {
		if s == wgpu.BufferMapAsyncStatusSuccess {
			cb(gpuapi.MapStatusSuccess)
			return
		}
		cb(gpuapi.MapStatusError)
	})
}

func (b *Buffer) GetMappedRange(offset, size uint64) []byte {
	return b.b.GetMappedRange(uint(offset), uint(size))
}

func (b *Buffer) Unmap() error { return b.b.Unmap() }
func (b *Buffer) Destroy()     { b.b.Destroy() }
func (b *Buffer) Release()     { b.b.Release() }

type QuerySet struct {
	qs    *wgpu.QuerySet
	count uint32
}

func (q *QuerySet) Count() uint32 { return q.count }

// Destroy is a no-op: the binding frees the query set on Release.
func (q *QuerySet) Destroy() {}
func (q *QuerySet) Release() { q.qs.Release() }

type Queue struct{ queue *wgpu.Queue }

func (q *Queue) Submit(cbs ...gpuapi.CommandBuffer) uint64 {
	raw := make([]*wgpu.CommandBuffer, 0, len(cbs))
	for _, c := range cbs {
		if cb, ok := c.(*CommandBuffer); ok {
			raw = append(raw, cb.cb)
		}
	}
	return uint64(q.queue.Submit(raw...))
}

func (q *Queue) WriteBuffer(b gpuapi.Buffer, offset uint64, data []byte) error {
	wb, err := rawBuffer(b)
	if err != nil {
		return err
	}
	return q.queue.WriteBuffer(wb, offset, data)
}

func (q *Queue) OnSubmittedWorkDone(cb func(gpuapi.WorkDoneStatus)) {
	q.queue.OnSubmittedWorkDone(func(s wgpu.QueueWorkDoneStatus) {
		if s == wgpu.QueueWorkDoneStatusSuccess {
			cb(gpuapi.WorkDoneStatusSuccess)
			return
		}
		cb(gpuapi.WorkDoneStatusError)
	})
}

func (q *Queue) Release() { q.queue.Release() }

func rawBuffer(b gpuapi.Buffer) (*wgpu.Buffer, error) {
	wb, ok := b.(*Buffer)
	if !ok {
		return nil, fmt.Errorf("buffer is %T", b)
	}
	return wb.b, nil
}

func rawQuerySet(qs gpuapi.QuerySet) (*wgpu.QuerySet, error) {
	wq, ok := qs.(*QuerySet)
	if !ok {
		return nil, fmt.Errorf("query set is %T", qs)
	}
	return wq.qs, nil
}
