// Package scheduler decides when the timestamps of finished passes are
// resolved into their staging buffers.
package scheduler

import (
	"fmt"
	"strings"

	"github.com/ALEYI17/InfraSight_webgpu/internal/query"
	"github.com/ALEYI17/InfraSight_webgpu/pkg/gpuapi"
	"github.com/ALEYI17/InfraSight_webgpu/pkg/types"
)

// Strategy is one way of turning pending queries into resolve and copy
// commands.
type Strategy interface {
	Name() string
	// BeforeFinish runs inside the intercepted Finish, on the application's
	// own encoder, before the original Finish.
	BeforeFinish(enc gpuapi.CommandEncoder, pending []*query.TimingQuery) error
	// AfterSubmit runs once the original Submit returned. start hands a query
	// to the readback reporter; queries carrying Err are reported as failed.
	AfterSubmit(dev gpuapi.Device, queue gpuapi.Queue, submitted []*query.TimingQuery, start func(*query.TimingQuery))
}

func New(name string, manager *query.Manager) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", types.StrategyInline:
		return NewInline(manager), nil
	case types.StrategyDeferred:
		return NewDeferred(manager), nil
	}
	return nil, fmt.Errorf("unknown resolve strategy %q", name)
}

func startAll(qs []*query.TimingQuery, start func(*query.TimingQuery)) {
	for _, q := range qs {
		start(q)
	}
}

func failAll(qs []*query.TimingQuery, err error) {
	for _, q := range qs {
		if q.Err == nil {
			q.Err = err
		}
	}
}
