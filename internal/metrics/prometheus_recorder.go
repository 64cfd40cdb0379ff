package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "pyboot"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	manifestChanges prom.Counter
	installs        *prom.CounterVec
	installDuration *prom.HistogramVec
	lastSuccess     prom.Gauge
}

// NewPrometheusRecorder constructs the metrics and registers them with reg.
func NewPrometheusRecorder(reg prom.Registerer) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		manifestChanges: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "manifest_changes_total",
			Help:      "Manifest write or create events seen by the watcher",
		}),
		installs: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "installs_total",
			Help:      "Dependency reinstalls by result",
		}, []string{"result"}),
		installDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "install_duration_seconds",
			Help:      "Duration of dependency reinstalls",
			Buckets:   []float64{1, 2.5, 5, 10, 30, 60, 120, 300, 600},
		}, []string{"result"}),
		lastSuccess: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "last_install_success_timestamp_seconds",
			Help:      "Unix time of the last successful reinstall",
		}),
	}
	reg.MustRegister(pr.manifestChanges, pr.installs, pr.installDuration, pr.lastSuccess)
	return pr
}

func (p *PrometheusRecorder) IncManifestChange() {
	p.manifestChanges.Inc()
}

func (p *PrometheusRecorder) ObserveInstall(d time.Duration, result ResultLabel) {
	p.installs.WithLabelValues(string(result)).Inc()
	p.installDuration.WithLabelValues(string(result)).Observe(d.Seconds())
	if result == ResultSuccess {
		p.lastSuccess.SetToCurrentTime()
	}
}
