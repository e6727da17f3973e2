package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/hupe1980/parley/engine"
	"github.com/hupe1980/parley/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector records conversation metrics.
type Collector struct {
	registry *prometheus.Registry

	turnsTotal        *prometheus.CounterVec
	inferenceDuration *prometheus.HistogramVec
	deliveriesTotal   *prometheus.CounterVec
	roundsTotal       prometheus.Counter
	stateTransitions  *prometheus.CounterVec
	state             prometheus.Gauge
	noticesTotal      *prometheus.CounterVec

	logger logging.Logger
}

// NewCollector creates a collector registering into its own registry.
func NewCollector(namespace string, logger logging.Logger) *Collector {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}

	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	c := &Collector{registry: reg, logger: logger}

	c.turnsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_total",
			Help:      "Total number of agent turns",
		},
		[]string{"agent", "outcome"},
	)

	c.inferenceDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "inference_duration_seconds",
			Help:      "Inference call duration in seconds",
			Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 15, 30},
		},
		[]string{"agent"},
	)

	c.deliveriesTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "broadcast_deliveries_total",
			Help:      "Total number of replies enqueued into other agents' mailboxes",
		},
		[]string{"agent"},
	)

	c.roundsTotal = factory.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rounds_total",
			Help:      "Total number of completed rounds",
		},
	)

	c.stateTransitions = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "state_transitions_total",
			Help:      "Total number of engine state transitions",
		},
		[]string{"from", "to"},
	)

	c.state = factory.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "engine_state",
			Help:      "Current engine state (0=INIT 1=RUNNING 2=PAUSED 3=IDLE_WAIT 4=STOPPED)",
		},
	)

	c.noticesTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notices_total",
			Help:      "Total number of notices shown to the user",
		},
		[]string{"kind"},
	)

	return c
}

// RecordTurn records the outcome of one agent turn.
func (c *Collector) RecordTurn(agentID string, failed bool, duration time.Duration, deliveries int) {
	outcome := "ok"
	if failed {
		outcome = "failed"
	}

	c.turnsTotal.WithLabelValues(agentID, outcome).Inc()
	c.inferenceDuration.WithLabelValues(agentID).Observe(duration.Seconds())
	c.deliveriesTotal.WithLabelValues(agentID).Add(float64(deliveries))
}

// RecordRound counts a completed round.
func (c *Collector) RecordRound() { c.roundsTotal.Inc() }

// RecordStateTransition records an engine lifecycle transition.
func (c *Collector) RecordStateTransition(from, to engine.State) {
	c.stateTransitions.WithLabelValues(from.String(), to.String()).Inc()
	c.state.Set(float64(to))
}

// RecordNotice counts a notice.
func (c *Collector) RecordNotice(kind engine.NoticeKind) {
	c.noticesTotal.WithLabelValues(kind.String()).Inc()
}

// Register attaches the collector to the engine lifecycle.
func (c *Collector) Register(cm *engine.CallbackManager) {
	cm.RegisterCallback(engine.NewFunctionCallback(engine.CallbackAfterTurn, func(_ context.Context, cbCtx *engine.CallbackContext) error {
		if cbCtx.Turn != nil {
			c.RecordTurn(cbCtx.AgentID, cbCtx.Turn.Failed(), cbCtx.Turn.Duration, cbCtx.Turn.Deliveries)
		}
		return nil
	}))
	cm.RegisterCallback(engine.NewFunctionCallback(engine.CallbackAfterRound, func(context.Context, *engine.CallbackContext) error {
		c.RecordRound()
		return nil
	}))
	cm.RegisterCallback(engine.NewFunctionCallback(engine.CallbackOnStateChange, func(_ context.Context, cbCtx *engine.CallbackContext) error {
		c.RecordStateTransition(cbCtx.PreviousState, cbCtx.State)
		return nil
	}))
	cm.RegisterCallback(engine.NewFunctionCallback(engine.CallbackOnNotice, func(_ context.Context, cbCtx *engine.CallbackContext) error {
		if cbCtx.Notice != nil {
			c.RecordNotice(cbCtx.Notice.Kind)
		}
		return nil
	}))
}

// Gatherer exposes the collector's registry.
func (c *Collector) Gatherer() prometheus.Gatherer { return c.registry }

// WriteTextfile writes every metric to path in the Prometheus text format.
func (c *Collector) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return fmt.Errorf("write metrics file: %w", err)
	}

	c.logger.Info("Metrics written", "path", path)

	return nil
}
