package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"go-optical-flow/internal/gradient"
	"go-optical-flow/internal/strategy"
)

// Storage backends accepted in FRAME_STORAGE.
const (
	StorageHTTP  = "http"
	StorageAzure = "azure"
)

type Config struct {
	Host               string
	Port               string
	RequestTimeout     time.Duration
	FrameFetchTimeout  time.Duration
	AnalysisTimeout    time.Duration
	MaxRequestBodySize int64

	Flow    FlowConfig
	Limits  LimitsConfig
	Storage StorageConfig
}

// FlowConfig holds the server-wide flow defaults. Requests may override
// all of them.
type FlowConfig struct {
	PyramidLevels      int
	WindowSize         int
	ScaleFactor        float64
	Operator           string
	ConditionThreshold float64
	Strategy           string
	// Workers sizes the solver pool; 0 means GOMAXPROCS.
	Workers int
}

type LimitsConfig struct {
	MaxFrameWidth     int
	MaxFrameHeight    int
	MaxSequenceFrames int
}

type StorageConfig struct {
	Backend      string
	AzureAccount string
	AzureKey     string
}

func (c *Config) ServerAddress() string {
	// Trim any whitespace from host and port
	host := strings.TrimSpace(c.Host)
	port := strings.TrimSpace(c.Port)
	return net.JoinHostPort(host, port)
}

func LoadFromEnv() (*Config, error) {
	// Set defaults
	cfg := &Config{
		Host:               getEnvOrDefault("HOST", "0.0.0.0"),
		Port:               getEnvOrDefault("PORT", "8080"),
		RequestTimeout:     parseDurationOrDefault("REQUEST_TIMEOUT", 30*time.Second),
		FrameFetchTimeout:  parseDurationOrDefault("FRAME_FETCH_TIMEOUT", 15*time.Second),
		AnalysisTimeout:    parseDurationOrDefault("ANALYSIS_TIMEOUT", 60*time.Second),
		MaxRequestBodySize: parseIntOrDefault("MAX_REQUEST_BODY_SIZE", 32*1024*1024), // 32MB, raw frames are inline
		Flow: FlowConfig{
			PyramidLevels:      int(parseIntOrDefault("FLOW_PYRAMID_LEVELS", 3)),
			WindowSize:         int(parseIntOrDefault("FLOW_WINDOW_SIZE", 7)),
			ScaleFactor:        parseFloatOrDefault("FLOW_SCALE_FACTOR", 0.5),
			Operator:           getEnvOrDefault("FLOW_DERIVATIVE_OPERATOR", string(gradient.Sobel)),
			ConditionThreshold: parseFloatOrDefault("FLOW_CONDITION_THRESHOLD", 1000),
			Strategy:           getEnvOrDefault("FLOW_STRATEGY", strategy.ReferenceName),
			Workers:            int(parseIntOrDefault("FLOW_WORKERS", 0)),
		},
		Limits: LimitsConfig{
			MaxFrameWidth:     int(parseIntOrDefault("MAX_FRAME_WIDTH", 4096)),
			MaxFrameHeight:    int(parseIntOrDefault("MAX_FRAME_HEIGHT", 4096)),
			MaxSequenceFrames: int(parseIntOrDefault("MAX_SEQUENCE_FRAMES", 64)),
		},
		Storage: StorageConfig{
			Backend:      strings.ToLower(getEnvOrDefault("FRAME_STORAGE", StorageHTTP)),
			AzureAccount: os.Getenv("AZURE_STORAGE_ACCOUNT"),
			AzureKey:     os.Getenv("AZURE_STORAGE_KEY"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks ranges and names after defaults are applied.
func (c *Config) Validate() error {
	// Validate port is numeric and in range
	p, err := strconv.Atoi(strings.TrimSpace(c.Port))
	if err != nil || p < 1 || p > 65535 {
		return fmt.Errorf("invalid PORT: %q", c.Port)
	}
	if c.MaxRequestBodySize <= 0 {
		return fmt.Errorf("MAX_REQUEST_BODY_SIZE must be > 0 (got %d)", c.MaxRequestBodySize)
	}
	if c.RequestTimeout <= 0 || c.FrameFetchTimeout <= 0 || c.AnalysisTimeout <= 0 {
		return fmt.Errorf("timeouts must be > 0 (got request=%s, fetch=%s, analysis=%s)",
			c.RequestTimeout, c.FrameFetchTimeout, c.AnalysisTimeout)
	}

	f := c.Flow
	if f.PyramidLevels < 1 {
		return fmt.Errorf("FLOW_PYRAMID_LEVELS must be >= 1 (got %d)", f.PyramidLevels)
	}
	if f.WindowSize < 1 || f.WindowSize%2 == 0 {
		return fmt.Errorf("FLOW_WINDOW_SIZE must be an odd integer >= 1 (got %d)", f.WindowSize)
	}
	if !(f.ScaleFactor > 0 && f.ScaleFactor < 1) {
		return fmt.Errorf("FLOW_SCALE_FACTOR must be in (0, 1) (got %v)", f.ScaleFactor)
	}
	if !(f.ConditionThreshold > 1) {
		return fmt.Errorf("FLOW_CONDITION_THRESHOLD must be > 1 (got %v)", f.ConditionThreshold)
	}
	if _, err := gradient.ParseOperator(f.Operator); err != nil {
		return fmt.Errorf("FLOW_DERIVATIVE_OPERATOR: %w", err)
	}
	if _, err := strategy.ParseStrategy(f.Strategy); err != nil {
		return fmt.Errorf("FLOW_STRATEGY: %w", err)
	}
	if f.Workers < 0 {
		return fmt.Errorf("FLOW_WORKERS must be >= 0 (got %d)", f.Workers)
	}

	l := c.Limits
	if l.MaxFrameWidth <= 0 || l.MaxFrameHeight <= 0 {
		return fmt.Errorf("frame limits must be > 0 (got %dx%d)", l.MaxFrameWidth, l.MaxFrameHeight)
	}
	if l.MaxSequenceFrames < 2 {
		return fmt.Errorf("MAX_SEQUENCE_FRAMES must be >= 2 (got %d)", l.MaxSequenceFrames)
	}

	switch c.Storage.Backend {
	case StorageHTTP:
	case StorageAzure:
		if c.Storage.AzureAccount == "" || c.Storage.AzureKey == "" {
			return fmt.Errorf("AZURE_STORAGE_ACCOUNT and AZURE_STORAGE_KEY are required for azure storage")
		}
	default:
		return fmt.Errorf("unsupported FRAME_STORAGE: %q", c.Storage.Backend)
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(strings.TrimSpace(value)); err == nil && duration > 0 {
			return duration
		}
	}
	return defaultValue
}

func parseIntOrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func parseFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
