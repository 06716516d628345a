package types

const (
	UNKNOWN_ENTRY_POINT = "unknown"

	// QUERY_SLOTS is the number of timestamp slots per instrumented pass:
	// beginning of pass and end of pass.
	QUERY_SLOTS     = 2
	TIMESTAMP_BYTES = 8
	STAGING_BYTES   = QUERY_SLOTS * TIMESTAMP_BYTES

	// RESOLVE_ALIGNMENT is the resolve destination alignment on platforms
	// that do not allow resolving at arbitrary 8-byte offsets.
	RESOLVE_ALIGNMENT = 256

	// NS_PER_MS converts nanosecond ticks to milliseconds.
	NS_PER_MS = 1e6

	EVENT_KERNEL_SAMPLE = "KERNEL_TIME_SAMPLE"
	EVENT_KERNEL_WINDOW = "KERNEL_TIME_WINDOW"

	BATCH_TIME_WINDOW = "kernel_time_window"
	BATCH_TIME_SERIES = "kernel_time_series"

	LoaderWebGPU = "webgpu"

	StrategyInline   = "inline"
	StrategyDeferred = "deferred"

	LayoutAuto    = "auto"
	LayoutPacked  = "packed"
	LayoutAligned = "aligned"

	TransportGRPC      = "grpc"
	TransportWebsocket = "websocket"
	TransportLog       = "log"
)
