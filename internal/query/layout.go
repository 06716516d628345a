package query

import (
	"fmt"
	"strings"

	"github.com/ALEYI17/InfraSight_webgpu/pkg/gpuapi"
	"github.com/ALEYI17/InfraSight_webgpu/pkg/types"
)

// Layout is the byte layout of a pass's resolve buffer. Which one is legal
// is a property of the platform, not a tuning knob.
type Layout int

const (
	// LayoutAuto picks LayoutAligned when the device demands aligned
	// resolve destinations, LayoutPacked otherwise.
	LayoutAuto Layout = iota
	// LayoutPacked resolves both slots in one call into a flat 16-byte
	// buffer and copies them to staging in one go.
	LayoutPacked
	// LayoutAligned resolves each slot on its own 256-byte boundary
	// (slot 0 at 0, slot 1 at 256) and copies each 8-byte tick into the
	// compact staging buffer individually.
	LayoutAligned
)

func ParseLayout(s string) (Layout, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", types.LayoutAuto:
		return LayoutAuto, nil
	case types.LayoutPacked:
		return LayoutPacked, nil
	case types.LayoutAligned:
		return LayoutAligned, nil
	}
	return LayoutAuto, fmt.Errorf("unknown resolve layout %q", s)
}

func (l Layout) String() string {
	switch l {
	case LayoutPacked:
		return types.LayoutPacked
	case LayoutAligned:
		return types.LayoutAligned
	}
	return types.LayoutAuto
}

// ResolveSize is the resolve buffer size in bytes: 16 packed, 264 aligned.
func (l Layout) ResolveSize() uint64 {
	if l == LayoutAligned {
		return (types.QUERY_SLOTS-1)*types.RESOLVE_ALIGNMENT + types.TIMESTAMP_BYTES
	}
	return types.STAGING_BYTES
}

// SlotOffset is the resolve buffer offset of the i-th timestamp.
func (l Layout) SlotOffset(i int) uint64 {
	if l == LayoutAligned {
		return uint64(i) * types.RESOLVE_ALIGNMENT
	}
	return uint64(i) * types.TIMESTAMP_BYTES
}

// LayoutFor resolves LayoutAuto against what dev mandates.
func LayoutFor(dev gpuapi.Device, want Layout) Layout {
	if want != LayoutAuto {
		return want
	}
	if ra, ok := dev.(gpuapi.ResolveAligner); ok && ra.QueryResolveAlignment() > types.TIMESTAMP_BYTES {
		return LayoutAligned
	}
	return LayoutPacked
}
