package metrics

import "time"

// ResultLabel enumerates install result categories for counters.
type ResultLabel string

const (
	ResultSuccess  ResultLabel = "success"
	ResultFailed   ResultLabel = "failed"
	ResultCanceled ResultLabel = "canceled"
)

// Recorder defines the hooks the watcher reports through.
type Recorder interface {
	IncManifestChange()
	ObserveInstall(d time.Duration, result ResultLabel)
}

// NoopRecorder is a Recorder that does nothing (default when metrics are not enabled).
type NoopRecorder struct{}

func (NoopRecorder) IncManifestChange()                       {}
func (NoopRecorder) ObserveInstall(time.Duration, ResultLabel) {}
