package intercept

import (
	"slices"

	"github.com/ALEYI17/InfraSight_webgpu/pkg/gpuapi"
	"github.com/ALEYI17/InfraSight_webgpu/pkg/logutil"
)

type Adapter struct {
	gpuapi.Adapter
	p *Profiler
}

// RequestDevice asks for the timestamp-query feature on top of whatever the
// caller requested and captures the resulting device. Adapters without the
// feature hand out an uncaptured device.
func (a *Adapter) RequestDevice(desc *gpuapi.DeviceDescriptor) (gpuapi.Device, error) {
	if !a.Adapter.HasFeature(gpuapi.FeatureTimestampQuery) {
		logutil.GetLogger().Warn("adapter lacks timestamp-query, compute passes will not be timed")
		return a.Adapter.RequestDevice(desc)
	}

	call := desc.Clone()
	if !slices.Contains(call.RequiredFeatures, gpuapi.FeatureTimestampQuery) {
		call.RequiredFeatures = append(call.RequiredFeatures, gpuapi.FeatureTimestampQuery)
	}
	dev, err := a.Adapter.RequestDevice(call)
	if err != nil {
		return dev, err
	}
	return a.p.WrapDevice(dev), nil
}
