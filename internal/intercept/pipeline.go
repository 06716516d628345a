package intercept

import "github.com/ALEYI17/InfraSight_webgpu/pkg/gpuapi"

type ComputePipeline struct {
	gpuapi.ComputePipeline
	p *Profiler
}

func (c *ComputePipeline) Unwrap() gpuapi.ComputePipeline {
	return c.ComputePipeline
}

func (c *ComputePipeline) Release() {
	c.p.registry.ForgetPipeline(c.ComputePipeline)
	c.ComputePipeline.Release()
}

func unwrapPipeline(pl gpuapi.ComputePipeline) gpuapi.ComputePipeline {
	if w, ok := pl.(*ComputePipeline); ok {
		return w.ComputePipeline
	}
	return pl
}
