package observer

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// FlowEvent represents a flow pipeline event
type FlowEvent struct {
	EventType      EventType              `json:"event_type"`
	Timestamp      time.Time              `json:"timestamp"`
	RequestID      string                 `json:"request_id,omitempty"`
	FrameURL       string                 `json:"frame_url,omitempty"`
	Pairs          int                    `json:"pairs,omitempty"`
	ResolvedPixels int                    `json:"resolved_pixels,omitempty"`
	ProcessingTime time.Duration          `json:"processing_time"`
	Success        bool                   `json:"success"`
	ErrorMessage   string                 `json:"error_message,omitempty"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
}

// EventType represents the type of flow event
type EventType string

const (
	// FlowStarted when a flow request begins
	FlowStarted EventType = "flow_started"
	// FlowCompleted when a flow request finishes successfully
	FlowCompleted EventType = "flow_completed"
	// FlowFailed when a flow request fails
	FlowFailed EventType = "flow_failed"
	// FrameFetched when a frame is successfully fetched
	FrameFetched EventType = "frame_fetched"
	// FrameFetchFailed when a frame fetch fails
	FrameFetchFailed EventType = "frame_fetch_failed"
)

// Observer defines the interface for event observers
type Observer interface {
	OnEvent(ctx context.Context, event FlowEvent)
	GetObserverName() string
}

// Subject defines the interface for event publishers
type Subject interface {
	Subscribe(observer Observer)
	Unsubscribe(observer Observer)
	NotifyObservers(ctx context.Context, event FlowEvent)
}

// LoggingObserver logs flow events
type LoggingObserver struct {
	logger *logrus.Logger
}

// NewLoggingObserver creates a new logging observer
func NewLoggingObserver(logger *logrus.Logger) Observer {
	return &LoggingObserver{
		logger: logger,
	}
}

// OnEvent handles flow events by logging them
func (o *LoggingObserver) OnEvent(ctx context.Context, event FlowEvent) {
	fields := logrus.Fields{
		"event_type":         event.EventType,
		"processing_time_ms": event.ProcessingTime.Milliseconds(),
		"success":            event.Success,
	}
	if event.RequestID != "" {
		fields["request_id"] = event.RequestID
	}
	if event.FrameURL != "" {
		fields["frame_url"] = event.FrameURL
	}
	if event.Pairs > 0 {
		fields["pairs"] = event.Pairs
	}
	if event.ErrorMessage != "" {
		fields["error"] = event.ErrorMessage
	}
	for k, v := range event.Metadata {
		fields[k] = v
	}

	entry := o.logger.WithFields(fields)
	switch event.EventType {
	case FlowStarted:
		entry.Info("Flow estimation started")
	case FlowCompleted:
		entry.WithField("resolved_pixels", event.ResolvedPixels).Info("Flow estimation completed")
	case FlowFailed:
		entry.Error("Flow estimation failed")
	case FrameFetched:
		entry.Debug("Frame fetched successfully")
	case FrameFetchFailed:
		entry.Error("Frame fetch failed")
	default:
		entry.Info("Flow event occurred")
	}
}

// GetObserverName returns the observer name
func (o *LoggingObserver) GetObserverName() string {
	return "logging_observer"
}

// MetricsSnapshot is the JSON view of MetricsObserver counters
type MetricsSnapshot struct {
	TotalRequests       int64   `json:"total_requests"`
	SuccessfulRequests  int64   `json:"successful_requests"`
	FailedRequests      int64   `json:"failed_requests"`
	PairsAnalyzed       int64   `json:"pairs_analyzed"`
	ResolvedPixels      int64   `json:"resolved_pixels"`
	FramesFetched       int64   `json:"frames_fetched"`
	FrameFetchFailures  int64   `json:"frame_fetch_failures"`
	TotalProcessingMs   int64   `json:"total_processing_ms"`
	AvgProcessingTimeMs float64 `json:"avg_processing_time_ms"`
}

// MetricsObserver collects metrics from flow events
type MetricsObserver struct {
	mu                  sync.RWMutex
	totalRequests       int64
	successfulRequests  int64
	failedRequests      int64
	pairsAnalyzed       int64
	resolvedPixels      int64
	framesFetched       int64
	frameFetchFailures  int64
	totalProcessingTime time.Duration
}

// NewMetricsObserver creates a new metrics observer
func NewMetricsObserver() *MetricsObserver {
	return &MetricsObserver{}
}

// OnEvent handles flow events by collecting metrics
func (o *MetricsObserver) OnEvent(ctx context.Context, event FlowEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch event.EventType {
	case FlowStarted:
		o.totalRequests++
	case FlowCompleted:
		o.successfulRequests++
		o.pairsAnalyzed += int64(event.Pairs)
		o.resolvedPixels += int64(event.ResolvedPixels)
		o.totalProcessingTime += event.ProcessingTime
	case FlowFailed:
		o.failedRequests++
	case FrameFetched:
		o.framesFetched++
	case FrameFetchFailed:
		o.frameFetchFailures++
	}
}

// GetObserverName returns the observer name
func (o *MetricsObserver) GetObserverName() string {
	return "metrics_observer"
}

// GetMetrics returns current metrics
func (o *MetricsObserver) GetMetrics() MetricsSnapshot {
	o.mu.RLock()
	defer o.mu.RUnlock()

	var avg float64
	if o.successfulRequests > 0 {
		avg = float64(o.totalProcessingTime.Milliseconds()) / float64(o.successfulRequests)
	}

	return MetricsSnapshot{
		TotalRequests:       o.totalRequests,
		SuccessfulRequests:  o.successfulRequests,
		FailedRequests:      o.failedRequests,
		PairsAnalyzed:       o.pairsAnalyzed,
		ResolvedPixels:      o.resolvedPixels,
		FramesFetched:       o.framesFetched,
		FrameFetchFailures:  o.frameFetchFailures,
		TotalProcessingMs:   o.totalProcessingTime.Milliseconds(),
		AvgProcessingTimeMs: avg,
	}
}

// EventPublisher implements the Subject interface
type EventPublisher struct {
	mu        sync.RWMutex
	observers []Observer
	pending   sync.WaitGroup
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher() *EventPublisher {
	return &EventPublisher{
		observers: make([]Observer, 0),
	}
}

// Subscribe adds an observer
func (p *EventPublisher) Subscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.observers = append(p.observers, observer)
}

// Unsubscribe removes an observer
func (p *EventPublisher) Unsubscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, obs := range p.observers {
		if obs.GetObserverName() == observer.GetObserverName() {
			p.observers = append(p.observers[:i], p.observers[i+1:]...)
			break
		}
	}
}

// NotifyObservers notifies all observers of an event asynchronously. The
// observers outlive the request, so cancellation of ctx is dropped.
func (p *EventPublisher) NotifyObservers(ctx context.Context, event FlowEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	ctx = context.WithoutCancel(ctx)

	p.mu.RLock()
	observers := make([]Observer, len(p.observers))
	copy(observers, p.observers)
	p.mu.RUnlock()

	for _, observer := range observers {
		p.pending.Add(1)
		go func(obs Observer) {
			defer p.pending.Done()
			defer func() {
				if r := recover(); r != nil {
					logrus.WithField("observer", obs.GetObserverName()).
						WithField("panic", r).
						Error("Observer panicked while handling event")
				}
			}()
			obs.OnEvent(ctx, event)
		}(observer)
	}
}

// Flush blocks until every notification sent so far has been handled
func (p *EventPublisher) Flush() {
	p.pending.Wait()
}
