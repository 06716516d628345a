package intercept

import (
	"github.com/ALEYI17/InfraSight_webgpu/internal/query"
	"github.com/ALEYI17/InfraSight_webgpu/pkg/gpuapi"
)

type ComputePassEncoder struct {
	gpuapi.ComputePassEncoder
	enc *CommandEncoder
	// nil when the pass is not timed
	q     *query.TimingQuery
	ended bool
}

func (c *ComputePassEncoder) Unwrap() gpuapi.ComputePassEncoder {
	return c.ComputePassEncoder
}

// SetPipeline binds the backend pipeline and names the pass after its
// entry point.
func (c *ComputePassEncoder) SetPipeline(pl gpuapi.ComputePipeline) {
	raw := unwrapPipeline(pl)
	c.ComputePassEncoder.SetPipeline(raw)
	c.enc.p.registry.BindPass(c.ComputePassEncoder, raw)
}

// End queues the pass's timing on its encoder before ending it.
func (c *ComputePassEncoder) End() error {
	reg := c.enc.p.registry
	if !c.ended && c.q != nil {
		c.q.EntryPoint = reg.Pass(c.ComputePassEncoder)
		c.enc.pending = append(c.enc.pending, c.q)
	}
	c.ended = true
	c.enc.passEnded(c)
	reg.ForgetPass(c.ComputePassEncoder)
	return c.ComputePassEncoder.End()
}

func (c *ComputePassEncoder) Release() {
	c.enc.p.registry.ForgetPass(c.ComputePassEncoder)
	if !c.ended && c.q != nil {
		c.enc.p.manager.Release(c.q)
		c.q = nil
		c.enc.passEnded(c)
	}
	c.ComputePassEncoder.Release()
}
