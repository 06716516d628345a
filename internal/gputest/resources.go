package gputest

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/ALEYI17/InfraSight_webgpu/pkg/gpuapi"
)

type Buffer struct {
	Label string
	Usage gpuapi.BufferUsage

	MapCount     int
	UnmapCount   int
	DestroyCount int
	ReleaseCount int

	device *Device
	data   []byte
	mapped bool
}

func (b *Buffer) Size() uint64 { return uint64(len(b.data)) }

func (b *Buffer) MapAsync(mode gpuapi.MapMode, offset, size uint64, cb func(gpuapi.MapStatus)) error {
	b.MapCount++
	if b.device.MapErr != nil {
		return b.device.MapErr
	}
	if b.DestroyCount > 0 {
		return errors.New("gputest: map of destroyed buffer")
	}
	if mode == gpuapi.MapModeRead && b.Usage&gpuapi.BufferUsageMapRead == 0 {
		return errors.New("gputest: buffer not mappable for reading")
	}
	if offset+size > b.Size() {
		return fmt.Errorf("gputest: map range %d+%d exceeds %d", offset, size, b.Size())
	}
	status := b.device.MapStatus
	b.device.enqueue(func() {
		if b.DestroyCount > 0 {
			cb(gpuapi.MapStatusDestroyedBeforeCallback)
			return
		}
		if status == gpuapi.MapStatusSuccess {
			b.mapped = true
		}
		cb(status)
	})
	return nil
}

func (b *Buffer) GetMappedRange(offset, size uint64) []byte {
	if !b.mapped {
		return nil
	}
	return b.data[offset : offset+size]
}

func (b *Buffer) Unmap() error {
	b.UnmapCount++
	b.mapped = false
	return nil
}

func (b *Buffer) Destroy() { b.DestroyCount++ }
func (b *Buffer) Release() { b.ReleaseCount++ }

// Bytes exposes the buffer contents for assertions.
func (b *Buffer) Bytes() []byte { return b.data }

// Uint64At reads a little-endian tick at off.
func (b *Buffer) Uint64At(off uint64) uint64 {
	return binary.LittleEndian.Uint64(b.data[off : off+8])
}

type QuerySet struct {
	Slots        []uint64
	DestroyCount int
	ReleaseCount int
}

func NewQuerySet(count uint32) *QuerySet {
	return &QuerySet{Slots: make([]uint64, count)}
}

func (q *QuerySet) Count() uint32 { return uint32(len(q.Slots)) }
func (q *QuerySet) Destroy()      { q.DestroyCount++ }
func (q *QuerySet) Release()      { q.ReleaseCount++ }

type Queue struct {
	device *Device
	// Order lists submitted command buffers by submission.
	Order        []*CommandBuffer
	WorkDoneRegs int
	Errs         []error
}

func (q *Queue) Submit(cbs ...gpuapi.CommandBuffer) uint64 {
	for _, c := range cbs {
		cb, ok := c.(*CommandBuffer)
		if !ok {
			q.Errs = append(q.Errs, fmt.Errorf("gputest: submitted %T", c))
			continue
		}
		q.Order = append(q.Order, cb)
		for _, op := range cb.ops {
			if err := op(); err != nil {
				q.Errs = append(q.Errs, err)
			}
		}
		cb.Submitted = true
	}
	q.device.Submissions++
	return uint64(q.device.Submissions)
}

func (q *Queue) WriteBuffer(b gpuapi.Buffer, offset uint64, data []byte) error {
	fb, ok := b.(*Buffer)
	if !ok {
		return fmt.Errorf("gputest: write to %T", b)
	}
	if offset+uint64(len(data)) > fb.Size() {
		return errors.New("gputest: write out of range")
	}
	copy(fb.data[offset:], data)
	return nil
}

func (q *Queue) OnSubmittedWorkDone(cb func(gpuapi.WorkDoneStatus)) {
	q.WorkDoneRegs++
	status := q.device.WorkDoneStatus
	q.device.enqueue(func() { cb(status) })
}

func (q *Queue) Release() {}
