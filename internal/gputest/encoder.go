package gputest

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/ALEYI17/InfraSight_webgpu/pkg/gpuapi"
)

type ResolveCall struct {
	QuerySet  *QuerySet
	First     uint32
	Count     uint32
	Dst       *Buffer
	DstOffset uint64
}

type CopyCall struct {
	Src       *Buffer
	SrcOffset uint64
	Dst       *Buffer
	DstOffset uint64
	Size      uint64
}

type CommandEncoder struct {
	Passes   []*ComputePass
	Resolves []ResolveCall
	Copies   []CopyCall
	Finished bool
	Released bool

	device *Device
	ops    []func() error
}

func (e *CommandEncoder) BeginComputePass(desc *gpuapi.ComputePassDescriptor) gpuapi.ComputePassEncoder {
	p := &ComputePass{encoder: e}
	if desc != nil {
		p.Desc = *desc
		if desc.TimestampWrites != nil {
			tw := *desc.TimestampWrites
			p.Desc.TimestampWrites = &tw
		}
	}
	e.Passes = append(e.Passes, p)
	return p
}

func (e *CommandEncoder) ResolveQuerySet(qs gpuapi.QuerySet, first, count uint32, dst gpuapi.Buffer, dstOffset uint64) error {
	fq, ok := qs.(*QuerySet)
	if !ok {
		return fmt.Errorf("gputest: resolve of %T", qs)
	}
	fb, ok := dst.(*Buffer)
	if !ok {
		return fmt.Errorf("gputest: resolve into %T", dst)
	}
	if fb.Usage&gpuapi.BufferUsageQueryResolve == 0 {
		return errors.New("gputest: resolve destination lacks QueryResolve usage")
	}
	if e.device.Alignment > 0 && dstOffset%e.device.Alignment != 0 {
		return fmt.Errorf("gputest: resolve offset %d not aligned to %d", dstOffset, e.device.Alignment)
	}
	if first+count > fq.Count() {
		return fmt.Errorf("gputest: resolve of slots %d+%d out of %d", first, count, fq.Count())
	}
	if dstOffset+uint64(count)*8 > fb.Size() {
		return fmt.Errorf("gputest: resolve of %d slots at %d overflows %d bytes", count, dstOffset, fb.Size())
	}
	e.Resolves = append(e.Resolves, ResolveCall{fq, first, count, fb, dstOffset})
	e.ops = append(e.ops, func() error {
		for i := uint32(0); i < count; i++ {
			binary.LittleEndian.PutUint64(fb.data[dstOffset+uint64(i)*8:], fq.Slots[first+i])
		}
		return nil
	})
	return nil
}

func (e *CommandEncoder) CopyBufferToBuffer(src gpuapi.Buffer, srcOffset uint64, dst gpuapi.Buffer, dstOffset uint64, size uint64) error {
	fs, ok := src.(*Buffer)
	if !ok {
		return fmt.Errorf("gputest: copy from %T", src)
	}
	fd, ok := dst.(*Buffer)
	if !ok {
		return fmt.Errorf("gputest: copy to %T", dst)
	}
	if srcOffset%4 != 0 || dstOffset%4 != 0 || size%4 != 0 {
		return errors.New("gputest: copy offsets and size must be multiples of 4")
	}
	if srcOffset+size > fs.Size() || dstOffset+size > fd.Size() {
		return errors.New("gputest: copy out of range")
	}
	e.Copies = append(e.Copies, CopyCall{fs, srcOffset, fd, dstOffset, size})
	e.ops = append(e.ops, func() error {
		copy(fd.data[dstOffset:dstOffset+size], fs.data[srcOffset:srcOffset+size])
		return nil
	})
	return nil
}

func (e *CommandEncoder) Finish(desc *gpuapi.CommandBufferDescriptor) (gpuapi.CommandBuffer, error) {
	if e.Finished {
		return nil, errors.New("gputest: encoder already finished")
	}
	for _, p := range e.Passes {
		if !p.Ended {
			return nil, errors.New("gputest: finish with an open compute pass")
		}
	}
	e.Finished = true
	return &CommandBuffer{ops: e.ops}, nil
}

func (e *CommandEncoder) Release() { e.Released = true }

type ComputePass struct {
	Desc       gpuapi.ComputePassDescriptor
	Pipeline   gpuapi.ComputePipeline
	BindGroups map[uint32]gpuapi.BindGroup
	Dispatches int
	Ended      bool
	Released   bool

	encoder *CommandEncoder
}

func (p *ComputePass) SetPipeline(pl gpuapi.ComputePipeline) {
	p.Pipeline = pl
}

func (p *ComputePass) SetBindGroup(group uint32, bg gpuapi.BindGroup, dynamicOffsets []uint32) {
	if p.BindGroups == nil {
		p.BindGroups = make(map[uint32]gpuapi.BindGroup)
	}
	p.BindGroups[group] = bg
}

func (p *ComputePass) DispatchWorkgroups(x, y, z uint32) {
	p.Dispatches++
}

func (p *ComputePass) End() error {
	if p.Ended {
		return errors.New("gputest: pass already ended")
	}
	if _, ok := p.Pipeline.(*ComputePipeline); p.Pipeline != nil && !ok {
		return fmt.Errorf("gputest: pass bound to %T", p.Pipeline)
	}
	p.Ended = true
	tw := p.Desc.TimestampWrites
	dispatches := p.Dispatches
	dev := p.encoder.device
	p.encoder.ops = append(p.encoder.ops, func() error {
		begin, end := dev.advance(dispatches)
		if tw == nil {
			return nil
		}
		qs, ok := tw.QuerySet.(*QuerySet)
		if !ok {
			return fmt.Errorf("gputest: timestamp writes into %T", tw.QuerySet)
		}
		if qs.DestroyCount > 0 {
			return errors.New("gputest: timestamp writes into destroyed query set")
		}
		if i := tw.BeginningOfPassWriteIndex; i != gpuapi.QueryIndexUndefined {
			qs.Slots[i] = begin
		}
		if i := tw.EndOfPassWriteIndex; i != gpuapi.QueryIndexUndefined {
			qs.Slots[i] = end
		}
		return nil
	})
	return nil
}

func (p *ComputePass) Release() { p.Released = true }

type CommandBuffer struct {
	Submitted bool
	Released  bool

	ops []func() error
}

func (c *CommandBuffer) Release() { c.Released = true }
