// Package registry associates opaque GPU handles with the entry point name
// of the kernel they run.
//
// Entries are keyed by handle identity and never keep the GPU resource
// alive: the interception layer drops an entry when the resource it names is
// released (a pipeline) or finished (a pass). Lookups never fail.
package registry

import "github.com/ALEYI17/InfraSight_webgpu/pkg/types"

type Registry struct {
	pipelines map[any]string
	passes    map[any]string
}

func New() *Registry {
	return &Registry{
		pipelines: make(map[any]string),
		passes:    make(map[any]string),
	}
}

// SetPipeline records the entry point of a pipeline. An empty name is
// stored as unknown.
func (r *Registry) SetPipeline(pipeline any, entryPoint string) {
	if pipeline == nil {
		return
	}
	if entryPoint == "" {
		entryPoint = types.UNKNOWN_ENTRY_POINT
	}
	r.pipelines[pipeline] = entryPoint
}

func (r *Registry) Pipeline(pipeline any) string {
	return lookup(r.pipelines, pipeline)
}

// BindPass propagates the entry point of pipeline to pass. Binding a
// pipeline with no entry makes the pass unknown.
func (r *Registry) BindPass(pass, pipeline any) {
	if pass == nil {
		return
	}
	r.passes[pass] = r.Pipeline(pipeline)
}

func (r *Registry) Pass(pass any) string {
	return lookup(r.passes, pass)
}

func (r *Registry) ForgetPipeline(pipeline any) {
	delete(r.pipelines, pipeline)
}

func (r *Registry) ForgetPass(pass any) {
	delete(r.passes, pass)
}

// Len returns the number of live pipeline and pass entries.
func (r *Registry) Len() (pipelines, passes int) {
	return len(r.pipelines), len(r.passes)
}

func lookup(m map[any]string, key any) string {
	if key == nil {
		return types.UNKNOWN_ENTRY_POINT
	}
	if name, ok := m[key]; ok {
		return name
	}
	return types.UNKNOWN_ENTRY_POINT
}
