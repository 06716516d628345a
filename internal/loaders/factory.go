package loaders

import (
	"fmt"

	"github.com/ALEYI17/InfraSight_webgpu/internal/wgpuhal"
	"github.com/ALEYI17/InfraSight_webgpu/pkg/gpuapi"
	"github.com/ALEYI17/InfraSight_webgpu/pkg/types"
)

// NewTimingLoaders builds the loader named by program. opts.OpenAdapter
// defaults to the native wgpu adapter.
func NewTimingLoaders(program string, opts Options) (types.Timing_loaders, error) {
	switch program {
	case types.LoaderWebGPU:
		if opts.OpenAdapter == nil {
			opts.OpenAdapter = func() (gpuapi.Adapter, error) { return wgpuhal.NewAdapter() }
		}
		return NewWebGPULoader(opts)
	default:
		return nil, fmt.Errorf("unsupported or unknown loader %q", program)
	}
}
