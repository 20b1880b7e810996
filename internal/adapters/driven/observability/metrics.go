package observability

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/custodia-labs/storefront-source/internal/core/domain"
	"github.com/custodia-labs/storefront-source/internal/core/ports/driven"
)

// Ensure Metrics implements the interfaces.
var (
	_ driven.Tracer   = (*Metrics)(nil)
	_ driven.Reporter = (*Metrics)(nil)
)

const namespace = "storefront_source"

// Metrics records sourcing activity as Prometheus metrics.
type Metrics struct {
	registry *prometheus.Registry

	spanDuration   *prometheus.HistogramVec
	spanFailures   *prometheus.CounterVec
	nodesCreated   *prometheus.CounterVec
	nodesTouched   prometheus.Counter
	requestsFailed *prometheus.CounterVec
	lastSuccess    prometheus.Gauge

	now func() time.Time
}

// NewMetrics creates metrics registered on reg. A nil reg creates a
// private registry.
func NewMetrics(reg *prometheus.Registry) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	m := &Metrics{
		registry: reg,
		spanDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "span_duration_seconds",
				Help:      "Duration of sourcing spans",
				Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
			},
			[]string{"span"},
		),
		spanFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "span_failures_total",
				Help:      "Total number of sourcing spans that ended with an error",
			},
			[]string{"span"},
		),
		nodesCreated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "nodes_created_total",
				Help:      "Total number of nodes created, by node type",
			},
			[]string{"type"},
		),
		nodesTouched: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "nodes_touched_total",
				Help:      "Total number of existing nodes marked present",
			},
		),
		requestsFailed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "requests_failed_total",
				Help:      "Total number of failed storefront API requests, by HTTP status",
			},
			[]string{"status"},
		),
		lastSuccess: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_success_timestamp_seconds",
				Help:      "Unix time of the last span that ended without error",
			},
		),
		now: time.Now,
	}

	for _, c := range []prometheus.Collector{
		m.spanDuration, m.spanFailures, m.nodesCreated,
		m.nodesTouched, m.requestsFailed, m.lastSuccess,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Registry returns the registry the metrics are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Start begins a span whose duration is observed when it ends.
func (m *Metrics) Start(ctx context.Context, name string) (context.Context, driven.Span) {
	return ctx, &metricsSpan{metrics: m, name: name, started: m.now()}
}

// Info is a no-op.
func (m *Metrics) Info(string) {}

// RequestFailed counts a failed request by status code.
func (m *Metrics) RequestFailed(err *domain.RequestError) {
	if err == nil {
		return
	}
	m.requestsFailed.WithLabelValues(strconv.Itoa(err.StatusCode)).Inc()
}

// CountActions wraps next so created and touched nodes are counted.
func (m *Metrics) CountActions(next driven.NodeActions) driven.NodeActions {
	return &countedActions{NodeActions: next, metrics: m}
}

type metricsSpan struct {
	metrics *Metrics
	name    string
	started time.Time
	once    sync.Once
}

func (s *metricsSpan) End(err error) {
	s.once.Do(func() {
		now := s.metrics.now()
		s.metrics.spanDuration.WithLabelValues(s.name).Observe(now.Sub(s.started).Seconds())
		if err != nil {
			s.metrics.spanFailures.WithLabelValues(s.name).Inc()
			return
		}
		s.metrics.lastSuccess.Set(float64(now.Unix()))
	})
}

type countedActions struct {
	driven.NodeActions
	metrics *Metrics
}

func (c *countedActions) CreateNode(ctx context.Context, node *domain.Node) error {
	if err := c.NodeActions.CreateNode(ctx, node); err != nil {
		return err
	}
	c.metrics.nodesCreated.WithLabelValues(node.Internal.Type).Inc()
	return nil
}

func (c *countedActions) TouchNode(ctx context.Context, id string) error {
	if err := c.NodeActions.TouchNode(ctx, id); err != nil {
		return err
	}
	c.metrics.nodesTouched.Inc()
	return nil
}
