package intercept

import (
	"github.com/ALEYI17/InfraSight_webgpu/internal/query"
	"github.com/ALEYI17/InfraSight_webgpu/pkg/gpuapi"
)

type Queue struct {
	gpuapi.Queue
	p *Profiler
	// nil for queues wrapped after the fact
	dev gpuapi.Device
}

func (q *Queue) Unwrap() gpuapi.Queue {
	return q.Queue
}

// Submit submits the backend command buffers unchanged, then starts the
// readback of every timed pass they carry.
func (q *Queue) Submit(cbs ...gpuapi.CommandBuffer) uint64 {
	raw := make([]gpuapi.CommandBuffer, len(cbs))
	var timed []*query.TimingQuery
	for i, cb := range cbs {
		if w, ok := cb.(*CommandBuffer); ok {
			raw[i] = w.CommandBuffer
			timed = append(timed, w.take()...)
			continue
		}
		raw[i] = cb
	}

	idx := q.Queue.Submit(raw...)

	dev := q.dev
	if dev == nil {
		dev = q.p.rawDevice()
	}
	q.p.submitted(dev, q.Queue, timed)
	return idx
}

type CommandBuffer struct {
	gpuapi.CommandBuffer
	p       *Profiler
	queries []*query.TimingQuery
}

func (c *CommandBuffer) Unwrap() gpuapi.CommandBuffer {
	return c.CommandBuffer
}

func (c *CommandBuffer) take() []*query.TimingQuery {
	qs := c.queries
	c.queries = nil
	return qs
}

// Release drops the timing of passes in a buffer never submitted.
func (c *CommandBuffer) Release() {
	c.p.discard(c.take(), "command buffer released before submit")
	c.CommandBuffer.Release()
}
