package commands

import (
	"context"
	"log/slog"
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	foundationerrors "git.home.luguber.info/inful/pyboot/internal/foundation/errors"
	"git.home.luguber.info/inful/pyboot/internal/launcher"
	"git.home.luguber.info/inful/pyboot/internal/logfields"
	"git.home.luguber.info/inful/pyboot/internal/metrics"
	"git.home.luguber.info/inful/pyboot/internal/observability"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	Debounce    time.Duration `help:"Quiet period before reinstalling after a change" default:"${watch_debounce}"`
	MetricsAddr string        `name:"metrics-addr" help:"Serve Prometheus metrics at http://ADDR/metrics while watching"`
}

func (w *WatchCmd) Run(g *Global, root *CLI) error {
	ctx, stop := signalContext()
	defer stop()

	var recorder metrics.Recorder = metrics.NoopRecorder{}
	var reg *prom.Registry
	if w.MetricsAddr != "" {
		reg = prom.NewRegistry()
		recorder = metrics.NewPrometheusRecorder(reg)
	}

	l, err := root.newLauncher(g, func(o *launcher.Options) { o.Metrics = recorder })
	if err != nil {
		return err
	}
	if w.MetricsAddr == "" {
		return l.Watch(ctx, w.Debounce)
	}

	srv, err := metrics.Listen(w.MetricsAddr, reg)
	if err != nil {
		return foundationerrors.WrapError(err, foundationerrors.CategoryRuntime, "listen for metrics").
			WithContext("addr", w.MetricsAddr).
			Build()
	}

	serveCtx, stopServing := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := srv.Serve(serveCtx); err != nil {
			observability.WarnContext(ctx, "Metrics server stopped", logfields.Error(err))
		}
	}()
	observability.InfoContext(ctx, "Serving metrics", slog.String("addr", srv.Addr()))

	err = l.Watch(ctx, w.Debounce)
	stopServing()
	wg.Wait()
	return err
}
