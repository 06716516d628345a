// Package pb holds the wire frames exchanged with the timing collector
// service. Frames travel through the JSON codec registered by the grpc
// client, so they are plain structs rather than generated protobuf messages.
package pb

type TimingBatch struct {
	NodeName string         `json:"node_name"`
	Session  string         `json:"session"`
	Type     string         `json:"type"`
	Batch    []*TimingEvent `json:"batch"`
}

type TimingEvent struct {
	EntryPoint string `json:"entry_point"`
	EventType  string `json:"event_type"`

	// exactly one of Sample or Window is set
	Sample *KernelSample `json:"sample,omitempty"`
	Window *KernelWindow `json:"window,omitempty"`
}

type KernelSample struct {
	TimestampNs int64   `json:"timestamp_ns"`
	TimeMs      float64 `json:"time_ms"`
	StartTicks  uint64  `json:"start_ticks"`
	EndTicks    uint64  `json:"end_ticks"`
	Failed      bool    `json:"failed,omitempty"`
	Reason      string  `json:"reason,omitempty"`
}

type KernelWindow struct {
	WindowStartNs int64   `json:"window_start_ns"`
	WindowEndNs   int64   `json:"window_end_ns"`
	PassCount     uint64  `json:"pass_count"`
	FailureCount  uint64  `json:"failure_count"`
	TotalTimeMs   float64 `json:"total_time_ms"`
	AvgTimeMs     float64 `json:"avg_time_ms"`
	MinTimeMs     float64 `json:"min_time_ms"`
	MaxTimeMs     float64 `json:"max_time_ms"`
	FailureRatio  float64 `json:"failure_ratio"`
	PassRate      float64 `json:"pass_rate"`
}

type CollectorAck struct {
	Accepted uint32 `json:"accepted"`
}
