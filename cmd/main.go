package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/ALEYI17/InfraSight_webgpu/internal/collector"
	"github.com/ALEYI17/InfraSight_webgpu/internal/config"
	"github.com/ALEYI17/InfraSight_webgpu/internal/grpc"
	"github.com/ALEYI17/InfraSight_webgpu/internal/loaders"
	"github.com/ALEYI17/InfraSight_webgpu/internal/websocket"
	"github.com/ALEYI17/InfraSight_webgpu/internal/workload"
	"github.com/ALEYI17/InfraSight_webgpu/pkg/gpuapi"
	"github.com/ALEYI17/InfraSight_webgpu/pkg/logutil"
	"github.com/ALEYI17/InfraSight_webgpu/pkg/types"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	logutil.InitLogger()

	logger := logutil.GetLogger()
	defer logger.Sync()

	go func() {
		sigch := make(chan os.Signal, 1)
		signal.Notify(sigch, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigch
		logger.Info("Received signal, shutting down", zap.String("signal", sig.String()))
		cancel()
	}()

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal("Error loading config", zap.Error(err))
	}
	if err := logutil.SetLevel(cfg.LogLevel); err != nil {
		logger.Warn("Unknown log level, keeping info", zap.String("level", cfg.LogLevel), zap.Error(err))
	}

	opts := loaders.Options{
		Strategy:       cfg.Strategy,
		Layout:         cfg.Layout,
		SinkBuffer:     cfg.SinkBuffer,
		LogRecords:     cfg.LogLevel == "debug",
		Window:         cfg.Window,
		SeriesInterval: cfg.SeriesInterval,
	}

	var lds []types.Timing_loaders
	var gpu *loaders.WebGPULoader
	for _, program := range cfg.EnableLoaders {
		loaderInstance, err := loaders.NewTimingLoaders(program, opts)
		if err != nil {
			logger.Error("error to load loader", zap.String("program", program), zap.Error(err))
			continue
		}
		defer loaderInstance.Close()
		lds = append(lds, loaderInstance)
		if wl, ok := loaderInstance.(*loaders.WebGPULoader); ok && gpu == nil {
			gpu = wl
		}
		logger.Info("Load successfully loader:", zap.String("Loader", program))
	}
	if gpu == nil {
		logger.Fatal("No webgpu loader available")
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return runTransport(gctx, cfg, lds)
	})

	g.Go(func() error {
		// The transport keeps running until the workload is done.
		defer cancel()
		return runWorkload(gctx, cfg, gpu)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Error running client", zap.Error(err))
		return
	}
	logger.Info("Client finished running")
}

func runTransport(ctx context.Context, cfg config.Config, lds []types.Timing_loaders) error {
	logger := logutil.GetLogger()

	switch cfg.Transport {
	case types.TransportGRPC:
		client, err := grpc.NewGrpcClient(cfg.ServerAdress, cfg.Serverport, lds)
		if err != nil {
			return err
		}
		defer client.Close()
		logger.Info("gRPC Client created successfully")
		return ignoreCanceled(client.Run(ctx, cfg.Nodename))
	case types.TransportWebsocket:
		client := websocket.NewWebsocketClient(cfg.WebsocketURL, cfg.Token, cfg.WriteTimeout, lds)
		defer client.Close()
		logger.Info("Websocket client created successfully")
		return ignoreCanceled(client.Run(ctx, cfg.Nodename))
	default:
		collector.RunWithAggregation(ctx, lds, cfg.Nodename)
		return nil
	}
}

func runWorkload(ctx context.Context, cfg config.Config, gpu *loaders.WebGPULoader) error {
	logger := logutil.GetLogger()

	dev, err := gpu.Adapter().RequestDevice(&gpuapi.DeviceDescriptor{Label: "infrasight"})
	if err != nil {
		return err
	}
	defer dev.Release()

	m, err := workload.NewMatmul(dev, cfg.MatrixSize)
	if err != nil {
		return err
	}
	defer m.Release()

	runErr := m.Run(ctx, cfg.Iterations, cfg.RunInterval)

	// Drain outstanding readbacks even when the run was interrupted.
	flushCtx, cancel := context.WithTimeout(context.Background(), cfg.FlushTimeout)
	defer cancel()
	if err := gpu.Profiler().Flush(flushCtx); err != nil {
		logger.Warn("readbacks still pending after flush", zap.Int("pending", gpu.Profiler().Pending()), zap.Error(err))
	}

	emitted, failed := gpu.Profiler().Stats()
	logger.Info("profiling done",
		zap.String("session", gpu.Session()),
		zap.Uint64("emitted", emitted),
		zap.Uint64("failed", failed))
	return ignoreCanceled(runErr)
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
