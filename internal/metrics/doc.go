// Package metrics records dependency reinstall activity of the manifest
// watcher. The launcher talks to the Recorder interface; PrometheusRecorder
// backs it when metrics are enabled and Server exposes the registry.
package metrics
