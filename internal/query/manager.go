package query

import (
	"errors"
	"fmt"

	"github.com/ALEYI17/InfraSight_webgpu/pkg/gpuapi"
	"github.com/ALEYI17/InfraSight_webgpu/pkg/types"
	"go.uber.org/multierr"
)

// ErrPartialWrites is returned by Begin when the caller supplied a timestamp
// configuration with only one of its slots set. Such passes are forwarded
// untouched.
var ErrPartialWrites = errors.New("caller timestamp writes leave a slot undefined")

// Manager allocates, resolves and releases the per-pass timestamp queries.
type Manager struct {
	layout Layout

	allocated   int
	outstanding int
}

func NewManager(layout Layout) *Manager {
	return &Manager{layout: layout}
}

// Begin prepares the query for a pass about to begin on dev. It returns the
// descriptor to hand to the original BeginComputePass: desc itself when the
// caller already configured timestamp writes, otherwise a copy carrying
// writes into a fresh two-slot query set. desc is never modified.
func (m *Manager) Begin(dev gpuapi.Device, desc *gpuapi.ComputePassDescriptor) (*TimingQuery, *gpuapi.ComputePassDescriptor, error) {
	layout := LayoutFor(dev, m.layout)
	q := &TimingQuery{EntryPoint: types.UNKNOWN_ENTRY_POINT}

	if desc != nil && desc.TimestampWrites != nil && desc.TimestampWrites.QuerySet != nil {
		tw := desc.TimestampWrites
		if tw.BeginningOfPassWriteIndex == gpuapi.QueryIndexUndefined || tw.EndOfPassWriteIndex == gpuapi.QueryIndexUndefined {
			return nil, desc, ErrPartialWrites
		}
		q.QuerySet = tw.QuerySet
		q.Ownership = External
		q.BeginSlot = tw.BeginningOfPassWriteIndex
		q.EndSlot = tw.EndOfPassWriteIndex
		if layout == LayoutPacked && !q.contiguous() {
			layout = LayoutAligned
		}
	} else {
		qs, err := dev.CreateQuerySet(&gpuapi.QuerySetDescriptor{
			Label: "infrasight timestamp queries",
			Type:  gpuapi.QueryTypeTimestamp,
			Count: types.QUERY_SLOTS,
		})
		if err != nil {
			return nil, desc, fmt.Errorf("create query set: %w", err)
		}
		q.QuerySet = qs
		q.Ownership = Internal
		q.BeginSlot = 0
		q.EndSlot = 1
	}
	q.Layout = layout

	resolve, err := dev.CreateBuffer(&gpuapi.BufferDescriptor{
		Label: "infrasight query resolve",
		Usage: gpuapi.BufferUsageQueryResolve | gpuapi.BufferUsageCopySrc,
		Size:  layout.ResolveSize(),
	})
	if err != nil {
		m.discard(q)
		return nil, desc, fmt.Errorf("create resolve buffer: %w", err)
	}
	q.ResolveBuffer = resolve

	staging, err := dev.CreateBuffer(&gpuapi.BufferDescriptor{
		Label: "infrasight timestamp staging",
		Usage: gpuapi.BufferUsageCopyDst | gpuapi.BufferUsageMapRead,
		Size:  types.STAGING_BYTES,
	})
	if err != nil {
		m.discard(q)
		return nil, desc, fmt.Errorf("create staging buffer: %w", err)
	}
	q.StagingBuffer = staging

	m.allocated++
	m.outstanding++

	if q.Ownership == External {
		return q, desc, nil
	}
	call := desc.Clone()
	call.TimestampWrites = &gpuapi.ComputePassTimestampWrites{
		QuerySet:                  q.QuerySet,
		BeginningOfPassWriteIndex: q.BeginSlot,
		EndOfPassWriteIndex:       q.EndSlot,
	}
	return q, call, nil
}

// Resolve records the commands moving q's ticks from the query set into its
// staging buffer. Failures are also kept on q.Err.
func (m *Manager) Resolve(enc gpuapi.CommandEncoder, q *TimingQuery) error {
	var err error
	if q.Layout == LayoutPacked && q.contiguous() {
		err = multierr.Append(err, enc.ResolveQuerySet(q.QuerySet, q.BeginSlot, types.QUERY_SLOTS, q.ResolveBuffer, 0))
		err = multierr.Append(err, enc.CopyBufferToBuffer(q.ResolveBuffer, 0, q.StagingBuffer, 0, types.STAGING_BYTES))
	} else {
		for i, slot := range []uint32{q.BeginSlot, q.EndSlot} {
			off := q.Layout.SlotOffset(i)
			err = multierr.Append(err, enc.ResolveQuerySet(q.QuerySet, slot, 1, q.ResolveBuffer, off))
			err = multierr.Append(err, enc.CopyBufferToBuffer(q.ResolveBuffer, off, q.StagingBuffer, uint64(i)*types.TIMESTAMP_BYTES, types.TIMESTAMP_BYTES))
		}
	}
	if err != nil {
		q.Err = fmt.Errorf("%w: %v", types.ErrResolve, err)
		return q.Err
	}
	return nil
}

// Release destroys q's profiler-owned resources. It is safe to call more
// than once; only the first call has an effect. A caller-supplied query set
// is never destroyed.
func (m *Manager) Release(q *TimingQuery) {
	if q == nil || q.released {
		return
	}
	q.released = true
	m.discard(q)
	m.outstanding--
}

// Outstanding is the number of queries allocated but not yet released.
func (m *Manager) Outstanding() int {
	return m.outstanding
}

// Allocated is the number of queries allocated over the manager's lifetime.
func (m *Manager) Allocated() int {
	return m.allocated
}

func (m *Manager) discard(q *TimingQuery) {
	if q.Ownership == Internal && q.QuerySet != nil {
		q.QuerySet.Destroy()
		q.QuerySet.Release()
	}
	if q.ResolveBuffer != nil {
		q.ResolveBuffer.Destroy()
		q.ResolveBuffer.Release()
	}
	if q.StagingBuffer != nil {
		q.StagingBuffer.Destroy()
		q.StagingBuffer.Release()
	}
}
