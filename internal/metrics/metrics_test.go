package metrics

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

func gather(t *testing.T, reg *prom.Registry) map[string]*dto.MetricFamily {
	t.Helper()
	mfs, err := reg.Gather()
	require.NoError(t, err)
	out := make(map[string]*dto.MetricFamily, len(mfs))
	for _, mf := range mfs {
		out[mf.GetName()] = mf
	}
	return out
}

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)

	pr.IncManifestChange()
	pr.IncManifestChange()
	pr.ObserveInstall(2*time.Second, ResultSuccess)
	pr.ObserveInstall(time.Second, ResultFailed)
	pr.ObserveInstall(time.Second, ResultFailed)

	mfs := gather(t, reg)
	require.InDelta(t, 2, mfs["pyboot_manifest_changes_total"].GetMetric()[0].GetCounter().GetValue(), 0)

	byResult := map[string]float64{}
	for _, m := range mfs["pyboot_installs_total"].GetMetric() {
		byResult[m.GetLabel()[0].GetValue()] = m.GetCounter().GetValue()
	}
	require.Equal(t, map[string]float64{"success": 1, "failed": 2}, byResult)
	require.Positive(t, mfs["pyboot_last_install_success_timestamp_seconds"].GetMetric()[0].GetGauge().GetValue())
}

func TestNoopRecorder(t *testing.T) {
	var r Recorder = NoopRecorder{}
	r.IncManifestChange()
	r.ObserveInstall(time.Second, ResultCanceled)
}

func TestServer_ServesAndShutsDown(t *testing.T) {
	reg := prom.NewRegistry()
	NewPrometheusRecorder(reg).IncManifestChange()

	srv, err := Listen("127.0.0.1:0", reg)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()

	resp, err := http.Get("http://" + srv.Addr() + "/metrics")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, resp.Body.Close())
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, string(body), "pyboot_manifest_changes_total 1")

	cancel()
	require.NoError(t, <-done)
}

func TestListen_AddressInUse(t *testing.T) {
	reg := prom.NewRegistry()
	first, err := Listen("127.0.0.1:0", reg)
	require.NoError(t, err)
	defer func() { _ = first.ln.Close() }()

	_, err = Listen(first.Addr(), reg)
	require.Error(t, err)
}
