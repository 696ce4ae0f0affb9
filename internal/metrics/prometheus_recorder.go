package metrics

import (
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	promhttp "github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	handlerFaults  *prom.CounterVec
	announcements  *prom.CounterVec
	mutations      *prom.CounterVec
	importJobs     *prom.CounterVec
	importRows     *prom.CounterVec
	importDuration *prom.HistogramVec
	alerts         *prom.CounterVec
}

// NewPrometheusRecorder constructs and registers the metrics on reg (a fresh registry when nil).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		handlerFaults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "dashpoultry",
			Name:      "statebus_handler_faults_total",
			Help:      "Subscriber handler failures by topic",
		}, []string{"topic"}),
		announcements: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "dashpoultry",
			Name:      "statebus_announcements_total",
			Help:      "Announcements by topic",
		}, []string{"topic"}),
		mutations: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "dashpoultry",
			Name:      "mutations_total",
			Help:      "Committed writes by topic",
		}, []string{"topic"}),
		importJobs: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "dashpoultry",
			Name:      "import_jobs_total",
			Help:      "Finished import jobs by table and outcome",
		}, []string{"table", "outcome"}),
		importRows: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "dashpoultry",
			Name:      "import_rows_total",
			Help:      "Imported and failed rows by table",
		}, []string{"table", "result"}),
		importDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "dashpoultry",
			Name:      "import_duration_seconds",
			Help:      "Import job duration",
			Buckets:   prom.DefBuckets,
		}, []string{"table"}),
		alerts: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "dashpoultry",
			Name:      "alerts_raised_total",
			Help:      "Alerts raised by level",
		}, []string{"level"}),
	}
	reg.MustRegister(pr.handlerFaults, pr.announcements, pr.mutations, pr.importJobs, pr.importRows, pr.importDuration, pr.alerts)
	return pr
}

func (p *PrometheusRecorder) IncHandlerFault(topic string) {
	if p == nil {
		return
	}
	p.handlerFaults.WithLabelValues(topic).Inc()
}

func (p *PrometheusRecorder) IncAnnounce(topic string) {
	if p == nil {
		return
	}
	p.announcements.WithLabelValues(topic).Inc()
}

func (p *PrometheusRecorder) IncMutation(topic string) {
	if p == nil {
		return
	}
	p.mutations.WithLabelValues(topic).Inc()
}

func (p *PrometheusRecorder) ObserveImport(table string, outcome ImportOutcome, imported, failed int, d time.Duration) {
	if p == nil {
		return
	}
	p.importJobs.WithLabelValues(table, string(outcome)).Inc()
	p.importRows.WithLabelValues(table, "imported").Add(float64(imported))
	p.importRows.WithLabelValues(table, "failed").Add(float64(failed))
	p.importDuration.WithLabelValues(table).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncAlert(level string) {
	if p == nil {
		return
	}
	p.alerts.WithLabelValues(level).Inc()
}

// HTTPHandler serves the metrics gathered by reg.
func HTTPHandler(reg *prom.Registry) http.Handler {
	if reg == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
