// Package wgpuhal implements the gpuapi surface on top of the native wgpu
// binding.
package wgpuhal

import (
	"fmt"

	"github.com/ALEYI17/InfraSight_webgpu/pkg/gpuapi"
	"github.com/cogentcore/webgpu/wgpu"
)

type Adapter struct {
	instance *wgpu.Instance
	adapter  *wgpu.Adapter
}

// NewAdapter picks the high performance adapter of a fresh instance.
func NewAdapter() (*Adapter, error) {
	instance := wgpu.CreateInstance(nil)
	adapter, err := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		PowerPreference: wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		instance.Release()
		return nil, fmt.Errorf("request adapter: %w", err)
	}
	return &Adapter{instance: instance, adapter: adapter}, nil
}

func (a *Adapter) RequestDevice(desc *gpuapi.DeviceDescriptor) (gpuapi.Device, error) {
	wd := &wgpu.DeviceDescriptor{}
	if desc != nil {
		wd.Label = desc.Label
		for _, f := range desc.RequiredFeatures {
			wf, ok := featureName(f)
			if !ok {
				return nil, fmt.Errorf("feature %q not supported by the wgpu binding", f)
			}
			wd.RequiredFeatures = append(wd.RequiredFeatures, wf)
		}
	}
	dev, err := a.adapter.RequestDevice(wd)
	if err != nil {
		return nil, err
	}
	return &Device{device: dev, queue: &Queue{queue: dev.GetQueue()}}, nil
}

func (a *Adapter) HasFeature(f gpuapi.FeatureName) bool {
	wf, ok := featureName(f)
	return ok && a.adapter.HasFeature(wf)
}

func (a *Adapter) Release() {
	a.adapter.Release()
	a.instance.Release()
}

func featureName(f gpuapi.FeatureName) (wgpu.FeatureName, bool) {
	switch f {
	case gpuapi.FeatureTimestampQuery:
		return wgpu.FeatureNameTimestampQuery, true
	}
	return 0, false
}
