package topology

import (
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/ryandielhenn/zephyrcast/pkg/layer"
	"github.com/ryandielhenn/zephyrcast/pkg/nodes"
	"github.com/ryandielhenn/zephyrcast/pkg/policy"
)

// DefaultCapacity bounds the registry when WithCapacity is not given.
const DefaultCapacity = 1024

// Metrics receives topology events. internal/telemetry provides the
// prometheus implementation.
type Metrics interface {
	Populations(c nodes.Count)
	Transition(r policy.Report)
	Evicted(n uint64)
	Round(d time.Duration)
}

type nopMetrics struct{}

func (nopMetrics) Populations(nodes.Count) {}

func (nopMetrics) Transition(policy.Report) {}

func (nopMetrics) Evicted(uint64) {}

func (nopMetrics) Round(time.Duration) {}

type options struct {
	capacity int
	policy   policy.Policy
	layers   []layer.Layer
	clock    clock.Clock
	logger   *zap.Logger
	metrics  Metrics
}

type Option func(*options)

func WithCapacity(n int) Option {
	return func(o *options) { o.capacity = n }
}

// WithPolicy replaces the default time-driven policy.
func WithPolicy(p policy.Policy) Option {
	return func(o *options) { o.policy = p }
}

// WithLayers replaces the default layer stack (a single Vicinity). Layers
// run in the given order.
func WithLayers(ls ...layer.Layer) Option {
	return func(o *options) { o.layers = ls }
}

func WithClock(c clock.Clock) Option {
	return func(o *options) { o.clock = c }
}

func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

func WithMetrics(m Metrics) Option {
	return func(o *options) { o.metrics = m }
}
