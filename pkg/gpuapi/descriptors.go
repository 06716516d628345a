package gpuapi

// FeatureName is a device capability negotiated at device creation.
type FeatureName string

const (
	FeatureTimestampQuery FeatureName = "timestamp-query"
)

type BufferUsage uint32

const (
	BufferUsageMapRead      BufferUsage = 0x0001
	BufferUsageMapWrite     BufferUsage = 0x0002
	BufferUsageCopySrc      BufferUsage = 0x0004
	BufferUsageCopyDst      BufferUsage = 0x0008
	BufferUsageUniform      BufferUsage = 0x0040
	BufferUsageStorage      BufferUsage = 0x0080
	BufferUsageQueryResolve BufferUsage = 0x0200
)

type MapMode uint32

const (
	MapModeRead  MapMode = 0x0001
	MapModeWrite MapMode = 0x0002
)

// MapStatus is delivered to a MapAsync callback.
type MapStatus int

const (
	MapStatusSuccess MapStatus = iota
	MapStatusError
	MapStatusAborted
	MapStatusDestroyedBeforeCallback
	MapStatusUnmappedBeforeCallback
)

func (s MapStatus) String() string {
	switch s {
	case MapStatusSuccess:
		return "success"
	case MapStatusError:
		return "error"
	case MapStatusAborted:
		return "aborted"
	case MapStatusDestroyedBeforeCallback:
		return "destroyed-before-callback"
	case MapStatusUnmappedBeforeCallback:
		return "unmapped-before-callback"
	}
	return "unknown"
}

// WorkDoneStatus is delivered to an OnSubmittedWorkDone callback.
type WorkDoneStatus int

const (
	WorkDoneStatusSuccess WorkDoneStatus = iota
	WorkDoneStatusError
	WorkDoneStatusDeviceLost
)

type QueryType int

const (
	QueryTypeOcclusion QueryType = iota
	QueryTypeTimestamp
)

// QueryIndexUndefined marks an unset timestamp write slot.
const QueryIndexUndefined uint32 = 0xffffffff

type DeviceDescriptor struct {
	Label            string
	RequiredFeatures []FeatureName
}

type ShaderModuleDescriptor struct {
	Label string
	WGSL  string
}

// ProgrammableStage names the shader module and entry point of a compute stage.
type ProgrammableStage struct {
	Module     ShaderModule
	EntryPoint string
}

type ComputePipelineDescriptor struct {
	Label string
	// Layout may be nil for an automatically derived layout.
	Layout  PipelineLayout
	Compute ProgrammableStage
}

type BindGroupEntry struct {
	Binding uint32
	Buffer  Buffer
	Offset  uint64
	Size    uint64
}

type BindGroupDescriptor struct {
	Label   string
	Layout  BindGroupLayout
	Entries []BindGroupEntry
}

type BufferDescriptor struct {
	Label            string
	Usage            BufferUsage
	Size             uint64
	MappedAtCreation bool
}

type QuerySetDescriptor struct {
	Label string
	Type  QueryType
	Count uint32
}

type CommandEncoderDescriptor struct {
	Label string
}

type CommandBufferDescriptor struct {
	Label string
}

// ComputePassTimestampWrites routes the hardware begin and end timestamps of a
// pass into slots of a query set.
type ComputePassTimestampWrites struct {
	QuerySet                  QuerySet
	BeginningOfPassWriteIndex uint32
	EndOfPassWriteIndex       uint32
}

type ComputePassDescriptor struct {
	Label           string
	TimestampWrites *ComputePassTimestampWrites
}

// Clone returns a shallow copy whose TimestampWrites may be replaced without
// touching d. A nil receiver yields an empty descriptor.
func (d *ComputePassDescriptor) Clone() *ComputePassDescriptor {
	if d == nil {
		return &ComputePassDescriptor{}
	}
	out := *d
	if d.TimestampWrites != nil {
		tw := *d.TimestampWrites
		out.TimestampWrites = &tw
	}
	return &out
}

// Clone returns a copy with its own feature slice.
func (d *DeviceDescriptor) Clone() *DeviceDescriptor {
	if d == nil {
		return &DeviceDescriptor{}
	}
	out := *d
	out.RequiredFeatures = append([]FeatureName(nil), d.RequiredFeatures...)
	return &out
}
