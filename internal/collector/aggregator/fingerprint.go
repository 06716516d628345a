package aggregator

import "time"

// KernelFingerprint summarises the passes of one entry point over a window.
type KernelFingerprint struct {
	EntryPoint  string
	WindowStart time.Time
	WindowEnd   time.Time

	// Counts
	PassCount    uint64
	FailureCount uint64

	// Pass durations
	TotalTimeMs float64
	AvgTimeMs   float64
	MinTimeMs   float64
	MaxTimeMs   float64

	// Derived ratios
	FailureRatio float64
	PassRate     float64
}

func (w *KernelFingerprint) addPass(ms float64) {
	w.PassCount++
	w.TotalTimeMs += ms
	w.AvgTimeMs = ((w.AvgTimeMs * float64(w.PassCount-1)) + ms) / float64(w.PassCount)
	if w.PassCount == 1 || ms < w.MinTimeMs {
		w.MinTimeMs = ms
	}
	w.MaxTimeMs = max(w.MaxTimeMs, ms)
}

func (w *KernelFingerprint) finalize() {
	if total := w.PassCount + w.FailureCount; total > 0 {
		w.FailureRatio = float64(w.FailureCount) / float64(total)
	}
	if d := w.WindowEnd.Sub(w.WindowStart).Seconds(); d > 0 {
		w.PassRate = float64(w.PassCount) / d
	}
}
