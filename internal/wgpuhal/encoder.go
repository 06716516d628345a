package wgpuhal

import (
	"github.com/ALEYI17/InfraSight_webgpu/pkg/gpuapi"
	"github.com/ALEYI17/InfraSight_webgpu/pkg/logutil"
	"github.com/cogentcore/webgpu/wgpu"
	"go.uber.org/zap"
)

type CommandEncoder struct{ enc *wgpu.CommandEncoder }

// BeginComputePass records the pass's timestamp writes as encoder level
// timestamps around the pass: the begin slot right before it, the end slot
// right after its End. The binding has no pass descriptor timestamp writes.
func (e *CommandEncoder) BeginComputePass(desc *gpuapi.ComputePassDescriptor) gpuapi.ComputePassEncoder {
	pass := &ComputePassEncoder{enc: e.enc, end: gpuapi.QueryIndexUndefined}
	var wd *wgpu.ComputePassDescriptor
	if desc != nil {
		wd = &wgpu.ComputePassDescriptor{Label: desc.Label}
		if tw := desc.TimestampWrites; tw != nil {
			if qs, err := rawQuerySet(tw.QuerySet); err == nil {
				if tw.BeginningOfPassWriteIndex != gpuapi.QueryIndexUndefined {
					if err := e.enc.WriteTimestamp(qs, tw.BeginningOfPassWriteIndex); err != nil {
						logutil.GetLogger().Debug("begin timestamp not written", zap.Error(err))
					}
				}
				pass.qs = qs
				pass.end = tw.EndOfPassWriteIndex
			}
		}
	}
	pass.p = e.enc.BeginComputePass(wd)
	return pass
}

func (e *CommandEncoder) ResolveQuerySet(qs gpuapi.QuerySet, first, count uint32, dst gpuapi.Buffer, dstOffset uint64) error {
	wq, err := rawQuerySet(qs)
	if err != nil {
		return err
	}
	wb, err := rawBuffer(dst)
	if err != nil {
		return err
	}
	return e.enc.ResolveQuerySet(wq, first, count, wb, dstOffset)
}

func (e *CommandEncoder) CopyBufferToBuffer(src gpuapi.Buffer, srcOffset uint64, dst gpuapi.Buffer, dstOffset uint64, size uint64) error {
	ws, err := rawBuffer(src)
	if err != nil {
		return err
	}
	wd, err := rawBuffer(dst)
	if err != nil {
		return err
	}
	return e.enc.CopyBufferToBuffer(ws, srcOffset, wd, dstOffset, size)
}

func (e *CommandEncoder) Finish(desc *gpuapi.CommandBufferDescriptor) (gpuapi.CommandBuffer, error) {
	var wd *wgpu.CommandBufferDescriptor
	if desc != nil {
		wd = &wgpu.CommandBufferDescriptor{Label: desc.Label}
	}
	cb, err := e.enc.Finish(wd)
	if err != nil {
		return nil, err
	}
	return &CommandBuffer{cb}, nil
}

func (e *CommandEncoder) Release() { e.enc.Release() }

type ComputePassEncoder struct {
	p   *wgpu.ComputePassEncoder
	enc *wgpu.CommandEncoder

	// qs and end are the end-of-pass timestamp slot, written after End.
	qs  *wgpu.QuerySet
	end uint32
}

func (c *ComputePassEncoder) SetPipeline(pl gpuapi.ComputePipeline) {
	if wp, ok := pl.(*ComputePipeline); ok {
		c.p.SetPipeline(wp.p)
	}
}

func (c *ComputePassEncoder) SetBindGroup(group uint32, bg gpuapi.BindGroup, dynamicOffsets []uint32) {
	if wb, ok := bg.(*BindGroup); ok {
		c.p.SetBindGroup(group, wb.bg, dynamicOffsets)
	}
}

func (c *ComputePassEncoder) DispatchWorkgroups(x, y, z uint32) {
	c.p.DispatchWorkgroups(x, y, z)
}

func (c *ComputePassEncoder) End() error {
	if err := c.p.End(); err != nil {
		return err
	}
	if c.qs == nil || c.end == gpuapi.QueryIndexUndefined {
		return nil
	}
	return c.enc.WriteTimestamp(c.qs, c.end)
}

func (c *ComputePassEncoder) Release() { c.p.Release() }

type CommandBuffer struct{ cb *wgpu.CommandBuffer }

func (c *CommandBuffer) Release() { c.cb.Release() }
