package train

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Episodes     prometheus.Counter
	Steps        prometheus.Counter
	Solved       prometheus.Counter
	TableEntries prometheus.Gauge
}

// NewMetrics registers the training metrics with reg. Pass
// prometheus.DefaultRegisterer to expose them on the default handler.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Episodes: f.NewCounter(prometheus.CounterOpts{
			Name: "wren_train_episodes_total",
			Help: "Training episodes run",
		}),
		Steps: f.NewCounter(prometheus.CounterOpts{
			Name: "wren_train_steps_total",
			Help: "Learning steps taken",
		}),
		Solved: f.NewCounter(prometheus.CounterOpts{
			Name: "wren_train_solved_episodes_total",
			Help: "Episodes that ended on the max reward",
		}),
		TableEntries: f.NewGauge(prometheus.GaugeOpts{
			Name: "wren_value_table_entries",
			Help: "Entries materialized in the value table",
		}),
	}
}
