package grpc

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/ALEYI17/InfraSight_webgpu/internal/grpc/pb"
	"github.com/ALEYI17/InfraSight_webgpu/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

type collectorServer struct {
	mu      sync.Mutex
	methods []string
	batches []*pb.TimingBatch
}

func (s *collectorServer) handle(_ any, stream grpc.ServerStream) error {
	method, _ := grpc.MethodFromServerStream(stream)
	var in pb.TimingBatch
	if err := stream.RecvMsg(&in); err != nil {
		return err
	}
	s.mu.Lock()
	s.methods = append(s.methods, method)
	s.batches = append(s.batches, &in)
	s.mu.Unlock()
	return stream.SendMsg(&pb.CollectorAck{Accepted: uint32(len(in.Batch))})
}

func startServer(t *testing.T) (*collectorServer, *bufconn.Listener, *grpc.Server) {
	t.Helper()
	s := &collectorServer{}
	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer(grpc.UnknownServiceHandler(s.handle))
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)
	return s, lis, srv
}

func dialBuf(lis *bufconn.Listener) grpc.DialOption {
	return grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
		return lis.DialContext(ctx)
	})
}

type staticLoader struct {
	batches []*pb.TimingBatch
}

func (l *staticLoader) Close() {}

func (l *staticLoader) Run(ctx context.Context, nodeName string) <-chan *pb.TimingBatch {
	out := make(chan *pb.TimingBatch, len(l.batches))
	for _, b := range l.batches {
		b.NodeName = nodeName
		out <- b
	}
	close(out)
	return out
}

func TestSendTimingBatch(t *testing.T) {
	s, lis, _ := startServer(t)
	c, err := NewGrpcClient("passthrough:///bufnet", "0", nil, dialBuf(lis))
	require.NoError(t, err)
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	ack, err := c.SendTimingBatch(ctx, &pb.TimingBatch{
		Type:  types.BATCH_TIME_SERIES,
		Batch: []*pb.TimingEvent{{EntryPoint: "matmul", Sample: &pb.KernelSample{TimeMs: 1.25}}},
	})
	require.NoError(t, err)
	assert.Equal(t, uint32(1), ack.Accepted)

	s.mu.Lock()
	defer s.mu.Unlock()
	assert.Equal(t, []string{SendTimingBatchMethod}, s.methods)
	require.Len(t, s.batches, 1)
	assert.Equal(t, "matmul", s.batches[0].Batch[0].EntryPoint)
	assert.Equal(t, 1.25, s.batches[0].Batch[0].Sample.TimeMs)
}

func TestRunShipsLoaderBatches(t *testing.T) {
	s, lis, _ := startServer(t)
	loader := &staticLoader{batches: []*pb.TimingBatch{{Type: types.BATCH_TIME_WINDOW}, {Type: types.BATCH_TIME_SERIES}}}
	c, err := NewGrpcClient("passthrough:///bufnet", "0", []types.Timing_loaders{loader}, dialBuf(lis))
	require.NoError(t, err)
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, c.Run(ctx, "node-7"))

	s.mu.Lock()
	defer s.mu.Unlock()
	require.Len(t, s.batches, 2)
	for _, b := range s.batches {
		assert.Equal(t, "node-7", b.NodeName)
	}
}

func TestRunStopsWhenServerUnavailable(t *testing.T) {
	_, lis, srv := startServer(t)
	srv.Stop()
	loader := &staticLoader{batches: []*pb.TimingBatch{{Type: types.BATCH_TIME_WINDOW}}}
	c, err := NewGrpcClient("passthrough:///bufnet", "0", []types.Timing_loaders{loader}, dialBuf(lis))
	require.NoError(t, err)
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err = c.Run(ctx, "node")
	require.Error(t, err)
	assert.Equal(t, codes.Unavailable, status.Code(err))
}

type shutdownLoader struct{}

func (shutdownLoader) Close() {}

func (shutdownLoader) Run(ctx context.Context, nodeName string) <-chan *pb.TimingBatch {
	out := make(chan *pb.TimingBatch)
	go func() {
		defer close(out)
		<-ctx.Done()
		out <- &pb.TimingBatch{Type: types.BATCH_TIME_WINDOW, NodeName: nodeName}
	}()
	return out
}

func TestRunShipsBatchesFlushedAfterCancel(t *testing.T) {
	s, lis, _ := startServer(t)
	c, err := NewGrpcClient("passthrough:///bufnet", "0", []types.Timing_loaders{shutdownLoader{}}, dialBuf(lis))
	require.NoError(t, err)
	defer c.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, c.Run(ctx, "node-9"))

	s.mu.Lock()
	defer s.mu.Unlock()
	require.Len(t, s.batches, 1)
	assert.Equal(t, types.BATCH_TIME_WINDOW, s.batches[0].Type)
	assert.Equal(t, "node-9", s.batches[0].NodeName)
}
