// Package metrics exposes the counters the hub, the mutation paths, the importer and the alert
// checker report to. Components take a Recorder and default to NoopRecorder.
package metrics

import "time"

// ImportOutcome labels a finished import job.
type ImportOutcome string

const (
	ImportSucceeded ImportOutcome = "success"
	ImportFailed    ImportOutcome = "failed"
)

// Recorder is safe to call with a nil *PrometheusRecorder.
type Recorder interface {
	IncHandlerFault(topic string)
	IncAnnounce(topic string)
	IncMutation(topic string)
	ObserveImport(table string, outcome ImportOutcome, imported, failed int, d time.Duration)
	IncAlert(level string)
}

// NoopRecorder is the default when metrics are not configured.
type NoopRecorder struct{}

func (NoopRecorder) IncHandlerFault(string)                                       {}
func (NoopRecorder) IncAnnounce(string)                                           {}
func (NoopRecorder) IncMutation(string)                                           {}
func (NoopRecorder) ObserveImport(string, ImportOutcome, int, int, time.Duration) {}
func (NoopRecorder) IncAlert(string)                                              {}
