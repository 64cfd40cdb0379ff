package launcher

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	foundationerrors "git.home.luguber.info/inful/pyboot/internal/foundation/errors"
	"git.home.luguber.info/inful/pyboot/internal/logfields"
	"git.home.luguber.info/inful/pyboot/internal/metrics"
	"git.home.luguber.info/inful/pyboot/internal/observability"
)

// DefaultWatchDebounce coalesces the burst of events an editor save produces.
const DefaultWatchDebounce = 300 * time.Millisecond

// Watch runs Setup, then reinstalls dependencies whenever the manifest is
// written or replaced, until ctx is cancelled. Installs never overlap and at
// most one is queued behind a running one. Install failures are logged and
// watching continues.
func (l *Launcher) Watch(ctx context.Context, debounce time.Duration) error {
	if err := l.Setup(ctx); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return foundationerrors.WrapError(err, foundationerrors.CategoryRuntime, "create file watcher").Build()
	}
	defer func() { _ = watcher.Close() }()

	// The directory is watched rather than the file so that atomic
	// replace-on-save and a manifest created later are both seen.
	if err := watcher.Add(l.layout.WorkDir); err != nil {
		return foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "watch work dir").
			WithContext("path", l.layout.WorkDir).
			Build()
	}
	observability.InfoContext(ctx, "Watching "+ManifestName+" for changes", logfields.Path(l.layout.Manifest))

	return l.watchLoop(ctx, watcher.Events, watcher.Errors, debounce)
}

func (l *Launcher) watchLoop(ctx context.Context, events <-chan fsnotify.Event, errs <-chan error, debounce time.Duration) error {
	if debounce <= 0 {
		debounce = DefaultWatchDebounce
	}

	reinstall := make(chan struct{}, 1)
	request := func() {
		select {
		case reinstall <- struct{}{}:
		default:
		}
	}

	workerCtx, stopWorker := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-reinstall:
				l.reinstall(ctx, workerCtx)
			}
		}
	}()

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
		stopWorker()
		wg.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			observability.InfoContext(ctx, "Stopped watching")
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if !l.isManifestChange(ev) {
				continue
			}
			observability.DebugContext(ctx, "Manifest changed", slog.String("op", ev.Op.String()))
			l.metrics.IncManifestChange()
			if timer == nil {
				timer = time.AfterFunc(debounce, request)
			} else {
				timer.Reset(debounce)
			}
		case err, ok := <-errs:
			if !ok {
				return nil
			}
			observability.WarnContext(ctx, "File watcher error", logfields.Error(err))
		}
	}
}

func (l *Launcher) reinstall(ctx, workerCtx context.Context) {
	start := time.Now()
	err := l.InstallDependencies(workerCtx)
	switch {
	case err == nil:
		l.metrics.ObserveInstall(time.Since(start), metrics.ResultSuccess)
	case workerCtx.Err() != nil:
		l.metrics.ObserveInstall(time.Since(start), metrics.ResultCanceled)
	default:
		l.metrics.ObserveInstall(time.Since(start), metrics.ResultFailed)
		observability.WarnContext(ctx, "Reinstall failed, still watching", logfields.Error(err))
	}
}

func (l *Launcher) isManifestChange(ev fsnotify.Event) bool {
	if filepath.Clean(ev.Name) != l.layout.Manifest {
		return false
	}
	return ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create)
}
