package recording

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors for a session. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	recorded       *prometheus.CounterVec
	dispatched     *prometheus.CounterVec
	dispatchErrors prometheus.Counter
	lag            prometheus.Histogram
	playbacks      *prometheus.CounterVec
	playing        prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		recorded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "autoreplay",
			Name:      "entries_recorded_total",
			Help:      "Events appended to the recording buffer.",
		}, []string{"kind"}),
		dispatched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "autoreplay",
			Name:      "entries_dispatched_total",
			Help:      "Recorded events injected during playback.",
		}, []string{"kind"}),
		dispatchErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "autoreplay",
			Name:      "dispatch_errors_total",
			Help:      "Injections that returned an error.",
		}),
		lag: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "autoreplay",
			Name:      "dispatch_lag_seconds",
			Help:      "Delay between an entry's due time and its injection.",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.002, 0.005, 0.01, 0.05},
		}),
		playbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "autoreplay",
			Name:      "playbacks_total",
			Help:      "Playback sessions by outcome.",
		}, []string{"outcome"}),
		playing: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "autoreplay",
			Name:      "playing",
			Help:      "1 while a playback is running.",
		}),
	}

	for _, c := range []prometheus.Collector{m.recorded, m.dispatched, m.dispatchErrors, m.lag, m.playbacks, m.playing} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func kindLabel(mouse bool) string {
	if mouse {
		return "mouse"
	}
	return "key"
}

func (m *Metrics) observeRecorded(mouse bool) {
	if m == nil {
		return
	}
	m.recorded.WithLabelValues(kindLabel(mouse)).Inc()
}

func (m *Metrics) observeDispatch(mouse bool, lag time.Duration, err error) {
	if m == nil {
		return
	}
	m.dispatched.WithLabelValues(kindLabel(mouse)).Inc()
	m.lag.Observe(lag.Seconds())
	if err != nil {
		m.dispatchErrors.Inc()
	}
}

func (m *Metrics) playbackStarted() {
	if m == nil {
		return
	}
	m.playing.Set(1)
}

func (m *Metrics) playbackEnded(outcome string) {
	if m == nil {
		return
	}
	m.playing.Set(0)
	m.playbacks.WithLabelValues(outcome).Inc()
}
