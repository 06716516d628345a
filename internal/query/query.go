package query

import "github.com/ALEYI17/InfraSight_webgpu/pkg/gpuapi"

// Ownership tells whether the query set of a TimingQuery was allocated by the
// profiler or supplied by the application.
type Ownership int

const (
	Internal Ownership = iota
	External
)

func (o Ownership) String() string {
	if o == External {
		return "external"
	}
	return "internal"
}

// TimingQuery is one compute pass measurement: where the GPU writes the two
// timestamps, where they get resolved to, and where the host reads them.
type TimingQuery struct {
	QuerySet      gpuapi.QuerySet
	ResolveBuffer gpuapi.Buffer
	StagingBuffer gpuapi.Buffer

	EntryPoint string
	Ownership  Ownership
	Layout     Layout

	// slots of QuerySet holding the begin and end timestamps
	BeginSlot uint32
	EndSlot   uint32

	// Err is set when the resolve commands could not be recorded; the
	// staging buffer then never receives the ticks.
	Err error

	released bool
}

// Released reports whether the query's resources were already handed back.
func (q *TimingQuery) Released() bool {
	return q.released
}

func (q *TimingQuery) contiguous() bool {
	return q.EndSlot == q.BeginSlot+1
}
