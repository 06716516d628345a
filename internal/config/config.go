package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ALEYI17/InfraSight_webgpu/internal/query"
	"github.com/ALEYI17/InfraSight_webgpu/internal/scheduler"
	"github.com/ALEYI17/InfraSight_webgpu/pkg/types"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Nodename string `yaml:"nodename"`
	// Transport is one of grpc, websocket or log.
	Transport     string        `yaml:"transport"`
	ServerAdress  string        `yaml:"server_address"`
	Serverport    string        `yaml:"server_port"`
	WebsocketURL  string        `yaml:"websocket_url"`
	Token         string        `yaml:"token"`
	WriteTimeout  time.Duration `yaml:"write_timeout"`
	EnableLoaders []string      `yaml:"loaders"`

	Strategy string `yaml:"strategy"`
	Layout   string `yaml:"layout"`

	Window         time.Duration `yaml:"window"`
	SeriesInterval time.Duration `yaml:"series_interval"`
	SinkBuffer     int           `yaml:"sink_buffer"`
	FlushTimeout   time.Duration `yaml:"flush_timeout"`

	Iterations  int           `yaml:"iterations"`
	MatrixSize  uint32        `yaml:"matrix_size"`
	RunInterval time.Duration `yaml:"run_interval"`

	LogLevel string `yaml:"log_level"`
}

func Default() Config {
	return Config{
		Nodename:       nodeName(),
		Transport:      types.TransportLog,
		ServerAdress:   "localhost",
		Serverport:     "8080",
		WebsocketURL:   "ws://localhost:8080/ws/timings",
		WriteTimeout:   5 * time.Second,
		EnableLoaders:  []string{types.LoaderWebGPU},
		Strategy:       types.StrategyInline,
		Layout:         types.LayoutAuto,
		Window:         10 * time.Second,
		SeriesInterval: 5 * time.Second,
		SinkBuffer:     4096,
		FlushTimeout:   5 * time.Second,
		Iterations:     100,
		MatrixSize:     256,
		RunInterval:    100 * time.Millisecond,
		LogLevel:       "info",
	}
}

// LoadConfig starts from the defaults, applies the YAML file named by
// INFRASIGHT_CONFIG if any, then the INFRASIGHT_* variables.
func LoadConfig() (Config, error) {
	cfg := Default()

	if path := os.Getenv("INFRASIGHT_CONFIG"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return Config{}, err
		}
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Nodename = env("INFRASIGHT_NODENAME", c.Nodename)
	c.Transport = strings.ToLower(env("INFRASIGHT_TRANSPORT", c.Transport))
	c.ServerAdress = env("INFRASIGHT_SERVER_ADDRESS", c.ServerAdress)
	c.Serverport = env("INFRASIGHT_SERVER_PORT", c.Serverport)
	c.WebsocketURL = env("INFRASIGHT_WEBSOCKET_URL", c.WebsocketURL)
	c.Token = env("INFRASIGHT_TOKEN", c.Token)
	c.WriteTimeout = envDuration("INFRASIGHT_WRITE_TIMEOUT", c.WriteTimeout)
	if v := os.Getenv("INFRASIGHT_LOADERS"); v != "" {
		c.EnableLoaders = splitList(v)
	}
	c.Strategy = strings.ToLower(env("INFRASIGHT_STRATEGY", c.Strategy))
	c.Layout = strings.ToLower(env("INFRASIGHT_LAYOUT", c.Layout))
	c.Window = envDuration("INFRASIGHT_WINDOW", c.Window)
	c.SeriesInterval = envDuration("INFRASIGHT_SERIES_INTERVAL", c.SeriesInterval)
	c.SinkBuffer = envInt("INFRASIGHT_SINK_BUFFER", c.SinkBuffer)
	c.FlushTimeout = envDuration("INFRASIGHT_FLUSH_TIMEOUT", c.FlushTimeout)
	c.Iterations = envInt("INFRASIGHT_ITERATIONS", c.Iterations)
	c.MatrixSize = uint32(envInt("INFRASIGHT_MATRIX_SIZE", int(c.MatrixSize)))
	c.RunInterval = envDuration("INFRASIGHT_RUN_INTERVAL", c.RunInterval)
	c.LogLevel = strings.ToLower(env("INFRASIGHT_LOG_LEVEL", c.LogLevel))
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Nodename) == "" {
		return errors.New("INFRASIGHT_NODENAME is required")
	}
	switch c.Transport {
	case types.TransportGRPC:
		if c.ServerAdress == "" || c.Serverport == "" {
			return errors.New("INFRASIGHT_SERVER_ADDRESS and INFRASIGHT_SERVER_PORT are required for grpc transport")
		}
	case types.TransportWebsocket:
		if c.WebsocketURL == "" {
			return errors.New("INFRASIGHT_WEBSOCKET_URL is required for websocket transport")
		}
	case types.TransportLog:
	default:
		return fmt.Errorf("unsupported transport %q", c.Transport)
	}
	if len(c.EnableLoaders) == 0 {
		return errors.New("at least one loader must be enabled")
	}
	if _, err := scheduler.New(c.Strategy, nil); err != nil {
		return err
	}
	if _, err := query.ParseLayout(c.Layout); err != nil {
		return err
	}
	if c.Window <= 0 || c.SeriesInterval <= 0 {
		return errors.New("INFRASIGHT_WINDOW and INFRASIGHT_SERIES_INTERVAL must be > 0")
	}
	if c.SinkBuffer <= 0 {
		return errors.New("INFRASIGHT_SINK_BUFFER must be > 0")
	}
	if c.FlushTimeout <= 0 {
		return errors.New("INFRASIGHT_FLUSH_TIMEOUT must be > 0")
	}
	if c.Iterations < 0 {
		return errors.New("INFRASIGHT_ITERATIONS must be >= 0")
	}
	if c.MatrixSize == 0 {
		return errors.New("INFRASIGHT_MATRIX_SIZE must be > 0")
	}
	return nil
}

func env(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func envInt(key string, def int) int {
	v := env(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envDuration(key string, def time.Duration) time.Duration {
	v := env(key, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, strings.ToLower(s))
		}
	}
	return out
}
