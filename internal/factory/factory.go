package factory

import (
	"fmt"
	"strings"
	"time"

	"go-optical-flow/internal/analyzer"
	"go-optical-flow/internal/config"
	"go-optical-flow/internal/storage"
	"go-optical-flow/pkg/validation"
)

// StorageType represents different types of frame storage backends
type StorageType string

const (
	// HTTPStorage for HTTP-based frame fetching
	HTTPStorage StorageType = config.StorageHTTP
	// AzureStorage for Azure blob storage
	AzureStorage StorageType = config.StorageAzure
)

// AnalyzerFactory creates flow analyzers
type AnalyzerFactory interface {
	CreateAnalyzer(workers int) (analyzer.FlowAnalyzer, error)
}

// StorageFactory creates storage implementations
type StorageFactory interface {
	CreateStorage(storageType StorageType) (storage.FrameFetcher, error)
}

// analyzerFactory implements AnalyzerFactory
type analyzerFactory struct{}

// NewAnalyzerFactory creates a new analyzer factory
func NewAnalyzerFactory() AnalyzerFactory {
	return &analyzerFactory{}
}

// CreateAnalyzer creates an analyzer with a pool of the given size; 0 uses
// GOMAXPROCS
func (f *analyzerFactory) CreateAnalyzer(workers int) (analyzer.FlowAnalyzer, error) {
	if workers < 0 {
		return nil, fmt.Errorf("worker count must be >= 0, got %d", workers)
	}
	return analyzer.NewFlowAnalyzer(workers), nil
}

// storageFactory implements StorageFactory
type storageFactory struct {
	cfg          config.StorageConfig
	fetchTimeout time.Duration
	limits       validation.FrameLimits
}

// NewStorageFactory creates a storage factory bound to the loaded configuration
func NewStorageFactory(cfg *config.Config) StorageFactory {
	return &storageFactory{
		cfg:          cfg.Storage,
		fetchTimeout: cfg.FrameFetchTimeout,
		limits: validation.FrameLimits{
			MaxWidth:          cfg.Limits.MaxFrameWidth,
			MaxHeight:         cfg.Limits.MaxFrameHeight,
			MaxSequenceFrames: cfg.Limits.MaxSequenceFrames,
		},
	}
}

// CreateStorage creates a storage implementation based on the specified type
func (f *storageFactory) CreateStorage(storageType StorageType) (storage.FrameFetcher, error) {
	switch StorageType(strings.ToLower(string(storageType))) {
	case HTTPStorage:
		return storage.NewHTTPFrameFetcher(f.fetchTimeout).WithLimits(f.limits), nil
	case AzureStorage:
		if f.cfg.AzureAccount == "" || f.cfg.AzureKey == "" {
			return nil, fmt.Errorf("azure storage requires an account name and key")
		}
		fetcher, err := storage.NewAzureBlobFetcher(f.cfg.AzureAccount, f.cfg.AzureKey)
		if err != nil {
			return nil, err
		}
		return fetcher.WithLimits(f.limits), nil
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", storageType)
	}
}

// ComponentFactory combines all factories
type ComponentFactory struct {
	AnalyzerFactory AnalyzerFactory
	StorageFactory  StorageFactory
}

// NewComponentFactory creates a new component factory
func NewComponentFactory(cfg *config.Config) *ComponentFactory {
	return &ComponentFactory{
		AnalyzerFactory: NewAnalyzerFactory(),
		StorageFactory:  NewStorageFactory(cfg),
	}
}
