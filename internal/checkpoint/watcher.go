package checkpoint

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Sink receives every completed checkpoint.
type Sink func(ctx context.Context, c Checkpoint)

// Watcher reports checkpoints as the training program writes them.
//
// A file is only complete once the trainer moves on, so model_<n>.tar is
// handed to the sink when a later epoch appears or when the watcher stops.
type Watcher struct {
	dir     string
	sink    Sink
	log     *zap.Logger
	watcher *fsnotify.Watcher
	wg      sync.WaitGroup
	cancel  context.CancelFunc

	mu      sync.Mutex
	pending map[string]int
	seen    map[string]time.Time
}

// NewWatcher creates a watcher for dir. sink may be nil.
func NewWatcher(dir string, sink Sink, log *zap.Logger) *Watcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Watcher{
		dir:     dir,
		sink:    sink,
		log:     log.With(zap.String("checkpoint_dir", dir)),
		pending: make(map[string]int),
		seen:    make(map[string]time.Time),
	}
}

// Start begins watching. The directory is created if it does not exist yet,
// since the trainer may only create it on its first save. Checkpoints already
// present are left alone.
func (w *Watcher) Start(ctx context.Context) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create checkpoint dir: %w", err)
	}

	existing, err := Scan(w.dir)
	if err != nil {
		return err
	}
	for _, c := range existing {
		w.seen[c.Path] = c.ModTime
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(w.dir); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", w.dir, err)
	}
	w.watcher = watcher

	ctx, w.cancel = context.WithCancel(ctx)
	w.wg.Add(1)
	go w.loop(ctx)

	return nil
}

// Stop ends watching and hands over every checkpoint written since Start.
// Call it after the training program has exited.
func (w *Watcher) Stop(ctx context.Context) {
	if w.watcher == nil {
		return
	}
	w.cancel()
	w.watcher.Close()
	w.wg.Wait()

	all, err := Scan(w.dir)
	if err != nil {
		w.log.Warn("final checkpoint scan failed", zap.Error(err))
		return
	}
	for _, c := range all {
		w.emit(ctx, c)
	}
}

func (w *Watcher) loop(ctx context.Context) {
	defer w.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			w.handle(ctx, event.Name)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn("watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) handle(ctx context.Context, path string) {
	epoch, ok := Parse(path)
	if !ok {
		return
	}

	w.mu.Lock()
	w.pending[path] = epoch
	var ready []string
	for p, e := range w.pending {
		if e < epoch {
			ready = append(ready, p)
		}
	}
	w.mu.Unlock()

	sort.Slice(ready, func(i, j int) bool {
		return epochOf(ready[i]) < epochOf(ready[j])
	})
	for _, p := range ready {
		info, err := os.Stat(p)
		if err != nil || info.IsDir() {
			continue
		}
		e, _ := Parse(p)
		w.emit(ctx, Checkpoint{Epoch: e, Path: p, Size: info.Size(), ModTime: info.ModTime()})
	}
}

func epochOf(path string) int {
	e, _ := Parse(path)
	return e
}

// emit hands c to the sink unless this version of the file was already seen.
func (w *Watcher) emit(ctx context.Context, c Checkpoint) {
	w.mu.Lock()
	delete(w.pending, c.Path)
	if last, ok := w.seen[c.Path]; ok && !c.ModTime.After(last) {
		w.mu.Unlock()
		return
	}
	w.seen[c.Path] = c.ModTime
	w.mu.Unlock()

	w.log.Info("checkpoint saved",
		zap.Int("epoch", c.Epoch),
		zap.String("path", c.Path),
		zap.Int64("size", c.Size),
	)
	if w.sink != nil {
		w.sink(ctx, c)
	}
}
