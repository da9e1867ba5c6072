package supervisor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	catalogReady    prometheus.Gauge
	processCaptured prometheus.Gauge
	captureAttempts *prometheus.CounterVec
	catalogFetches  *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	f := promauto.With(reg)
	return &metrics{
		catalogReady: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "ausettings",
			Name:      "catalog_ready",
			Help:      "1 when an offset catalog is installed.",
		}),
		processCaptured: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "ausettings",
			Name:      "process_captured",
			Help:      "1 while a live capture session is installed.",
		}),
		captureAttempts: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ausettings",
			Name:      "capture_attempts_total",
			Help:      "Capture attempts by outcome.",
		}, []string{"result"}),
		catalogFetches: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ausettings",
			Name:      "catalog_fetches_total",
			Help:      "Offset catalog fetches by outcome.",
		}, []string{"result"}),
	}
}

func (m *metrics) observe(st Status) {
	m.catalogReady.Set(boolToFloat(st.OffsetCatalogReady))
	m.processCaptured.Set(boolToFloat(st.ProcessCaptured))
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
