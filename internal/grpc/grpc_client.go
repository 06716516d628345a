package grpc

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ALEYI17/InfraSight_webgpu/internal/collector"
	"github.com/ALEYI17/InfraSight_webgpu/internal/grpc/pb"
	"github.com/ALEYI17/InfraSight_webgpu/pkg/logutil"
	"github.com/ALEYI17/InfraSight_webgpu/pkg/types"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/encoding"
	"google.golang.org/grpc/status"
)

// SendTimingBatchMethod is the unary method batches are delivered to.
const SendTimingBatchMethod = "/infrasight.webgpu.TimingCollector/SendTimingBatch"

const (
	maxMsgSize = 64 * 1024 * 1024
	// shutdownSendTimeout bounds each send of a batch flushed after ctx ended.
	shutdownSendTimeout = 5 * time.Second
)

// JSONCodec carries the pb frames, which are plain structs.
type JSONCodec struct{}

func (JSONCodec) Name() string                       { return "json" }
func (JSONCodec) Marshal(v any) ([]byte, error)      { return json.Marshal(v) }
func (JSONCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

func init() {
	encoding.RegisterCodec(JSONCodec{})
}

type Client struct {
	conn    *grpc.ClientConn
	loaders []types.Timing_loaders
}

func NewGrpcClient(address string, port string, loaders []types.Timing_loaders, opts ...grpc.DialOption) (*Client, error) {
	serverAdress := fmt.Sprintf("%s:%s", address, port)
	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.ForceCodec(JSONCodec{}), grpc.MaxCallRecvMsgSize(maxMsgSize), grpc.MaxCallSendMsgSize(maxMsgSize)),
	}, opts...)
	conn, err := grpc.NewClient(serverAdress, opts...)
	if err != nil {
		return nil, err
	}

	return &Client{conn: conn, loaders: loaders}, nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) SendTimingBatch(ctx context.Context, in *pb.TimingBatch) (*pb.CollectorAck, error) {
	logger := logutil.GetLogger()

	logger.Debug("Batch size", zap.String("type", in.Type), zap.Int("size", len(in.Batch)))

	ack := new(pb.CollectorAck)
	if err := c.conn.Invoke(ctx, SendTimingBatchMethod, in, ack); err != nil {
		return nil, err
	}
	return ack, nil
}

// Run ships every batch the loaders produce, including the ones they flush
// once ctx ends. It returns nil when the loaders stop, and the send error
// when the server goes away.
func (c *Client) Run(ctx context.Context, nodeName string) error {
	logger := logutil.GetLogger()

	for batch := range collector.Merge(ctx, c.loaders, nodeName, 500) {
		sendCtx, cancel := collector.SendContext(ctx, shutdownSendTimeout)
		_, err := c.SendTimingBatch(sendCtx, batch)
		cancel()
		if err != nil {
			logger.Error("Error from sending", zap.Error(err))
			status, ok := status.FromError(err)
			if ok && (status.Code() == codes.Unavailable || status.Code() == codes.Canceled) {
				logger.Warn("Server unavailable. Shutting down client.")
				return err
			}
		}
	}
	logger.Info("Loaders stopped, client exiting")
	return nil
}
