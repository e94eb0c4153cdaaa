package container

import (
	"context"
	"fmt"
	"image"
	"net/http"

	"go-optical-flow/internal/analyzer"
	"go-optical-flow/internal/config"
	"go-optical-flow/internal/factory"
	"go-optical-flow/internal/gradient"
	"go-optical-flow/internal/logger"
	"go-optical-flow/internal/observer"
	"go-optical-flow/internal/repository"
	"go-optical-flow/internal/service"
	"go-optical-flow/internal/storage"
	"go-optical-flow/internal/transport"
	"go-optical-flow/pkg/validation"
)

// Container holds all application dependencies
type Container struct {
	config          *config.Config
	frameFetcher    storage.FrameFetcher
	flowAnalyzer    analyzer.FlowAnalyzer
	frameRepository repository.FrameRepository
	publisher       *observer.EventPublisher
	metrics         *observer.MetricsObserver
	flowService     service.FlowService
	handler         http.Handler
}

// NewContainer creates a new dependency injection container
func NewContainer(cfg *config.Config) (*Container, error) {
	components := factory.NewComponentFactory(cfg)

	// Build dependency graph
	frameFetcher, err := components.StorageFactory.CreateStorage(factory.StorageType(cfg.Storage.Backend))
	if err != nil {
		return nil, fmt.Errorf("failed to create frame storage: %w", err)
	}
	flowAnalyzer, err := components.AnalyzerFactory.CreateAnalyzer(cfg.Flow.Workers)
	if err != nil {
		return nil, fmt.Errorf("failed to create flow analyzer: %w", err)
	}

	publisher := observer.NewEventPublisher()
	metrics := observer.NewMetricsObserver()
	publisher.Subscribe(observer.NewLoggingObserver(logger.Logger))
	publisher.Subscribe(metrics)

	frameRepository := repository.NewFrameRepository(frameFetcher, urlValidator(cfg), fetchListener(publisher))

	defaults, err := defaultOptions(cfg.Flow)
	if err != nil {
		flowAnalyzer.Close()
		return nil, err
	}

	frameValidator := validation.NewFrameValidatorWithLimits(validation.FrameLimits{
		MaxWidth:          cfg.Limits.MaxFrameWidth,
		MaxHeight:         cfg.Limits.MaxFrameHeight,
		MaxSequenceFrames: cfg.Limits.MaxSequenceFrames,
	})
	flowService := service.NewFlowService(frameRepository, flowAnalyzer, frameValidator, publisher, defaults, cfg.AnalysisTimeout)
	handler := transport.NewHandler(flowService, metrics, cfg)

	return &Container{
		config:          cfg,
		frameFetcher:    frameFetcher,
		flowAnalyzer:    flowAnalyzer,
		frameRepository: frameRepository,
		publisher:       publisher,
		metrics:         metrics,
		flowService:     flowService,
		handler:         handler,
	}, nil
}

// defaultOptions turns the flow configuration into analyzer defaults
func defaultOptions(cfg config.FlowConfig) (analyzer.AnalysisOptions, error) {
	op, err := gradient.ParseOperator(cfg.Operator)
	if err != nil {
		return analyzer.AnalysisOptions{}, err
	}
	opts := analyzer.DefaultOptions().
		WithPyramid(cfg.PyramidLevels, cfg.ScaleFactor).
		WithWindowSize(cfg.WindowSize).
		WithConditionThreshold(cfg.ConditionThreshold).
		WithOperator(op).
		WithStrategy(cfg.Strategy)
	if err := opts.Validate(); err != nil {
		return analyzer.AnalysisOptions{}, fmt.Errorf("invalid flow configuration: %w", err)
	}
	return opts, nil
}

// urlValidator restricts Azure deployments to the configured account
func urlValidator(cfg *config.Config) *validation.URLValidator {
	if cfg.Storage.Backend == config.StorageAzure {
		return validation.NewURLValidatorWithOptions(
			[]string{"https"},
			[]string{cfg.Storage.AzureAccount + ".blob.core.windows.net"},
		)
	}
	return validation.NewURLValidator()
}

// fetchListener publishes a frame event for every fetch
func fetchListener(publisher observer.Subject) repository.FetchListener {
	return func(frameURL string, img image.Image, err error) {
		event := observer.FlowEvent{
			EventType: observer.FrameFetched,
			FrameURL:  frameURL,
			Success:   err == nil,
		}
		if err != nil {
			event.EventType = observer.FrameFetchFailed
			event.ErrorMessage = err.Error()
		} else {
			b := img.Bounds()
			event.Metadata = map[string]interface{}{"width": b.Dx(), "height": b.Dy()}
		}
		publisher.NotifyObservers(context.Background(), event)
	}
}

// Handler returns the HTTP handler
func (c *Container) Handler() http.Handler {
	return c.handler
}

// Config returns the configuration
func (c *Container) Config() *config.Config {
	return c.config
}

// Metrics returns the metrics observer
func (c *Container) Metrics() *observer.MetricsObserver {
	return c.metrics
}

// Close releases the analyzer pool and waits for pending events
func (c *Container) Close() error {
	err := c.flowAnalyzer.Close()
	c.publisher.Flush()
	return err
}
