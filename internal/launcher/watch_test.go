package launcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"git.home.luguber.info/inful/pyboot/internal/metrics"
	"git.home.luguber.info/inful/pyboot/internal/process"
)

const testDebounce = 20 * time.Millisecond

func countPipRuns(f *fixture) int {
	n := 0
	for _, r := range f.rec.Runs() {
		if r.Name == f.launcher.Layout().Pip {
			n++
		}
	}
	return n
}

func TestWatchLoop_DebouncesBursts(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := newFixture(t, nil)
	f.files.WriteFile(ManifestName, "fastapi\n")
	manifest := f.launcher.Layout().Manifest

	events := make(chan fsnotify.Event)
	errs := make(chan error)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.launcher.watchLoop(ctx, events, errs, testDebounce) }()

	for range 5 {
		events <- fsnotify.Event{Name: manifest, Op: fsnotify.Write}
	}
	require.Eventually(t, func() bool { return countPipRuns(f) == 1 }, time.Second, 5*time.Millisecond)

	events <- fsnotify.Event{Name: manifest, Op: fsnotify.Create}
	require.Eventually(t, func() bool { return countPipRuns(f) == 2 }, time.Second, 5*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}

func TestWatchLoop_IgnoresOtherFiles(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := newFixture(t, nil)
	f.files.WriteFile(ManifestName, "fastapi\n")
	layout := f.launcher.Layout()

	events := make(chan fsnotify.Event)
	errs := make(chan error)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.launcher.watchLoop(ctx, events, errs, testDebounce) }()

	events <- fsnotify.Event{Name: filepath.Join(layout.WorkDir, "main.py"), Op: fsnotify.Write}
	events <- fsnotify.Event{Name: layout.Manifest, Op: fsnotify.Chmod}
	events <- fsnotify.Event{Name: layout.Manifest, Op: fsnotify.Remove}
	errs <- os.ErrPermission

	time.Sleep(5 * testDebounce)
	require.Zero(t, countPipRuns(f))

	cancel()
	require.NoError(t, <-done)
}

func TestWatchLoop_InstallFailureKeepsWatching(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := newFixture(t, nil)
	f.files.WriteFile(ManifestName, "fastapi\n")
	manifest := f.launcher.Layout().Manifest

	var attempts atomic.Int32
	f.rec.On(f.launcher.Layout().Pip, func(cmd process.Command) error {
		attempts.Add(1)
		return &process.ExitError{Command: cmd.Name, Code: 1}
	})

	events := make(chan fsnotify.Event)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.launcher.watchLoop(ctx, events, nil, testDebounce) }()

	events <- fsnotify.Event{Name: manifest, Op: fsnotify.Write}
	require.Eventually(t, func() bool { return attempts.Load() == 1 }, time.Second, 5*time.Millisecond)
	events <- fsnotify.Event{Name: manifest, Op: fsnotify.Write}
	require.Eventually(t, func() bool { return attempts.Load() == 2 }, time.Second, 5*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}

type fakeRecorder struct {
	mu      sync.Mutex
	changes int
	results []metrics.ResultLabel
}

func (r *fakeRecorder) IncManifestChange() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changes++
}

func (r *fakeRecorder) ObserveInstall(_ time.Duration, result metrics.ResultLabel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, result)
}

func (r *fakeRecorder) snapshot() (int, []metrics.ResultLabel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.changes, append([]metrics.ResultLabel(nil), r.results...)
}

func TestWatchLoop_RecordsReinstalls(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := newFixture(t, nil)
	f.files.WriteFile(ManifestName, "fastapi\n")
	manifest := f.launcher.Layout().Manifest
	rec := &fakeRecorder{}
	f.launcher.metrics = rec

	var attempts atomic.Int32
	f.rec.On(f.launcher.Layout().Pip, func(cmd process.Command) error {
		if attempts.Add(1) == 1 {
			return nil
		}
		return &process.ExitError{Command: cmd.Name, Code: 1}
	})

	events := make(chan fsnotify.Event)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.launcher.watchLoop(ctx, events, nil, testDebounce) }()

	events <- fsnotify.Event{Name: manifest, Op: fsnotify.Write}
	require.Eventually(t, func() bool { _, r := rec.snapshot(); return len(r) == 1 }, time.Second, 5*time.Millisecond)
	events <- fsnotify.Event{Name: manifest, Op: fsnotify.Write}
	require.Eventually(t, func() bool { _, r := rec.snapshot(); return len(r) == 2 }, time.Second, 5*time.Millisecond)

	cancel()
	require.NoError(t, <-done)

	changes, results := rec.snapshot()
	require.Equal(t, 2, changes)
	require.Equal(t, []metrics.ResultLabel{metrics.ResultSuccess, metrics.ResultFailed}, results)
}

func TestWatchLoop_ClosedEventsStops(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := newFixture(t, nil)
	events := make(chan fsnotify.Event)
	close(events)

	require.NoError(t, f.launcher.watchLoop(context.Background(), events, nil, testDebounce))
}

func TestWatch_ReinstallsOnManifestWrite(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := newFixture(t, nil)
	f.files.WriteFile(ManifestName, "fastapi\n")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.launcher.Watch(ctx, testDebounce) }()

	// Setup installs once before watching starts.
	require.Eventually(t, func() bool { return countPipRuns(f) == 1 }, 2*time.Second, 5*time.Millisecond)

	require.Eventually(t, func() bool {
		f.files.WriteFile(ManifestName, "fastapi\nredis\n")
		return countPipRuns(f) >= 2
	}, 5*time.Second, 100*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
	f.files.AssertDirExists(EnvDirName)
}

func TestWatch_SetupFailureReturns(t *testing.T) {
	f := newFixture(t, nil)
	f.launcher.lookPath = lookPathFrom()

	require.Error(t, f.launcher.Watch(context.Background(), testDebounce))
}
