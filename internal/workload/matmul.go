// Package workload is a small compute workload for exercising the profiler
// on a real device.
package workload

import (
	"context"
	_ "embed"
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/ALEYI17/InfraSight_webgpu/pkg/gpuapi"
	"github.com/ALEYI17/InfraSight_webgpu/pkg/logutil"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

//go:embed matmul.wgsl
var matmulWGSL string

const (
	EntryPoint    = "matmul"
	workgroupSize = 8
	dimsBytes     = 16
)

// Matmul multiplies two n x n matrices on the device, once per Dispatch.
type Matmul struct {
	dev   gpuapi.Device
	queue gpuapi.Queue
	n     uint32

	module    gpuapi.ShaderModule
	pipeline  gpuapi.ComputePipeline
	layout    gpuapi.BindGroupLayout
	bindGroup gpuapi.BindGroup
	buffers   []gpuapi.Buffer
}

func NewMatmul(dev gpuapi.Device, n uint32) (_ *Matmul, err error) {
	m := &Matmul{dev: dev, queue: dev.GetQueue(), n: n}
	defer func() {
		if err != nil {
			m.Release()
		}
	}()

	m.module, err = dev.CreateShaderModule(&gpuapi.ShaderModuleDescriptor{Label: "matmul", WGSL: matmulWGSL})
	if err != nil {
		return nil, fmt.Errorf("shader module: %w", err)
	}
	m.pipeline, err = dev.CreateComputePipeline(&gpuapi.ComputePipelineDescriptor{
		Label:   "matmul",
		Compute: gpuapi.ProgrammableStage{Module: m.module, EntryPoint: EntryPoint},
	})
	if err != nil {
		return nil, fmt.Errorf("compute pipeline: %w", err)
	}
	m.layout, err = m.pipeline.GetBindGroupLayout(0)
	if err != nil {
		return nil, fmt.Errorf("bind group layout: %w", err)
	}

	matBytes := uint64(n) * uint64(n) * 4
	specs := []struct {
		label string
		usage gpuapi.BufferUsage
		size  uint64
	}{
		{"matmul a", gpuapi.BufferUsageStorage | gpuapi.BufferUsageCopyDst, matBytes},
		{"matmul b", gpuapi.BufferUsageStorage | gpuapi.BufferUsageCopyDst, matBytes},
		{"matmul c", gpuapi.BufferUsageStorage | gpuapi.BufferUsageCopySrc, matBytes},
		{"matmul dims", gpuapi.BufferUsageUniform | gpuapi.BufferUsageCopyDst, dimsBytes},
	}
	entries := make([]gpuapi.BindGroupEntry, 0, len(specs))
	for i, s := range specs {
		b, err := dev.CreateBuffer(&gpuapi.BufferDescriptor{Label: s.label, Usage: s.usage, Size: s.size})
		if err != nil {
			return nil, fmt.Errorf("buffer %s: %w", s.label, err)
		}
		m.buffers = append(m.buffers, b)
		entries = append(entries, gpuapi.BindGroupEntry{Binding: uint32(i), Buffer: b, Size: s.size})
	}

	m.bindGroup, err = dev.CreateBindGroup(&gpuapi.BindGroupDescriptor{Label: "matmul", Layout: m.layout, Entries: entries})
	if err != nil {
		return nil, fmt.Errorf("bind group: %w", err)
	}

	dims := make([]byte, dimsBytes)
	binary.LittleEndian.PutUint32(dims, n)
	err = multierr.Combine(
		m.queue.WriteBuffer(m.buffers[0], 0, matrix(n, 1)),
		m.queue.WriteBuffer(m.buffers[1], 0, matrix(n, 2)),
		m.queue.WriteBuffer(m.buffers[3], 0, dims),
	)
	if err != nil {
		return nil, fmt.Errorf("upload inputs: %w", err)
	}
	return m, nil
}

// Dispatch records and submits one multiplication.
func (m *Matmul) Dispatch() error {
	enc, err := m.dev.CreateCommandEncoder(&gpuapi.CommandEncoderDescriptor{Label: "matmul"})
	if err != nil {
		return err
	}
	defer enc.Release()

	pass := enc.BeginComputePass(&gpuapi.ComputePassDescriptor{Label: "matmul"})
	defer pass.Release()
	pass.SetPipeline(m.pipeline)
	pass.SetBindGroup(0, m.bindGroup, nil)
	groups := (m.n + workgroupSize - 1) / workgroupSize
	pass.DispatchWorkgroups(groups, groups, 1)
	if err := pass.End(); err != nil {
		return err
	}

	cb, err := enc.Finish(nil)
	if err != nil {
		return err
	}
	defer cb.Release()
	m.queue.Submit(cb)
	return nil
}

func (m *Matmul) Release() {
	if m.bindGroup != nil {
		m.bindGroup.Release()
	}
	for _, b := range m.buffers {
		b.Destroy()
		b.Release()
	}
	if m.layout != nil {
		m.layout.Release()
	}
	if m.pipeline != nil {
		m.pipeline.Release()
	}
	if m.module != nil {
		m.module.Release()
	}
}

// Run dispatches the workload iterations times, polling dev between
// dispatches so completed readbacks are reported as they land. It stops
// early when ctx ends.
func (m *Matmul) Run(ctx context.Context, iterations int, interval time.Duration) error {
	logger := logutil.GetLogger()

	var ticker *time.Ticker
	if interval > 0 {
		ticker = time.NewTicker(interval)
		defer ticker.Stop()
	}
	for i := 0; i < iterations; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := m.Dispatch(); err != nil {
			return fmt.Errorf("dispatch %d: %w", i, err)
		}
		m.dev.Poll(false)
		if ticker != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
			}
		}
	}
	logger.Info("workload finished", zap.Int("iterations", iterations), zap.Uint32("n", m.n))
	return nil
}

func matrix(n uint32, v float32) []byte {
	out := make([]byte, int(n)*int(n)*4)
	bits := math.Float32bits(v)
	for i := 0; i < len(out); i += 4 {
		binary.LittleEndian.PutUint32(out[i:], bits)
	}
	return out
}
