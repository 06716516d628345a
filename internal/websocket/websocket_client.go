// Package websocket ships timing batches as JSON text frames.
package websocket

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/ALEYI17/InfraSight_webgpu/internal/collector"
	"github.com/ALEYI17/InfraSight_webgpu/internal/grpc/pb"
	"github.com/ALEYI17/InfraSight_webgpu/pkg/logutil"
	"github.com/ALEYI17/InfraSight_webgpu/pkg/types"
	"github.com/gorilla/websocket"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

type Client struct {
	url          string
	header       http.Header
	writeTimeout time.Duration
	dialer       *websocket.Dialer
	conn         *websocket.Conn
	loaders      []types.Timing_loaders
}

func NewWebsocketClient(url, token string, writeTimeout time.Duration, loaders []types.Timing_loaders) *Client {
	if writeTimeout <= 0 {
		writeTimeout = 5 * time.Second
	}
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return &Client{
		url:          url,
		header:       h,
		writeTimeout: writeTimeout,
		dialer:       websocket.DefaultDialer,
		loaders:      loaders,
	}
}

// SendTimingBatch writes one batch, reconnecting once if the write fails.
func (c *Client) SendTimingBatch(ctx context.Context, batch *pb.TimingBatch) error {
	if err := c.ensureConn(ctx); err != nil {
		return err
	}
	if err := c.write(batch); err != nil {
		logutil.GetLogger().Warn("websocket write failed, reconnecting", zap.Error(err))
		_ = c.conn.Close()
		c.conn = nil
		if err := c.ensureConn(ctx); err != nil {
			return err
		}
		if err := c.write(batch); err != nil {
			return fmt.Errorf("write batch retry: %w", err)
		}
	}
	return nil
}

func (c *Client) write(batch *pb.TimingBatch) error {
	if err := c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
		return err
	}
	return c.conn.WriteJSON(batch)
}

func (c *Client) ensureConn(ctx context.Context) error {
	if c.conn != nil {
		return nil
	}
	conn, _, err := c.dialer.DialContext(ctx, c.url, c.header)
	if err != nil {
		return fmt.Errorf("dial %s: %w", c.url, err)
	}
	c.conn = conn
	return nil
}

// Run ships every batch the loaders produce, including the ones they flush
// once ctx ends, until the loaders stop. A batch that cannot be delivered
// after a reconnect ends the run.
func (c *Client) Run(ctx context.Context, nodeName string) error {
	logger := logutil.GetLogger()

	for batch := range collector.Merge(ctx, c.loaders, nodeName, 500) {
		sendCtx, cancel := collector.SendContext(ctx, c.writeTimeout)
		err := c.SendTimingBatch(sendCtx, batch)
		cancel()
		if err != nil {
			logger.Error("Error from sending", zap.Error(err))
			return err
		}
	}
	logger.Info("Websocket client finished")
	return nil
}

func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "shutdown")
	err := c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	err = multierr.Append(err, c.conn.Close())
	c.conn = nil
	return err
}
