package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"snowwatch/internal/logger"
)

// Watcher runs the two ingestion triggers. Filesystem events and periodic
// sweep listings both push candidate paths into one channel; a single
// coordinator goroutine consumes it and alone calls Processor.Relocate, so
// the de-duplication contract lives in one place.
type Watcher struct {
	processor     *Processor
	logger        *logger.Logger
	sweepInterval time.Duration

	fsw   *fsnotify.Watcher
	paths chan string
	stop  chan struct{}
	wg    sync.WaitGroup
}

func NewWatcher(processor *Processor, sweepInterval time.Duration, logger *logger.Logger) *Watcher {
	return &Watcher{
		processor:     processor,
		logger:        logger,
		sweepInterval: sweepInterval,
		paths:         make(chan string, 64),
		stop:          make(chan struct{}),
	}
}

// Start begins watching the incoming directory and launches the sweep and
// coordinator goroutines.
func (w *Watcher) Start() error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create filesystem watcher: %w", err)
	}
	if err := fsw.Add(w.processor.IncomingRoot()); err != nil {
		fsw.Close()
		return fmt.Errorf("failed to watch %s: %w", w.processor.IncomingRoot(), err)
	}
	w.fsw = fsw

	w.wg.Add(3)
	go w.eventLoop()
	go w.sweepLoop()
	go w.coordinatorLoop()

	w.logger.Info("📂 Watching %s (sweep every %s)", w.processor.IncomingRoot(), w.sweepInterval)
	return nil
}

// eventLoop forwards create/rename notifications into the path channel.
func (w *Watcher) eventLoop() {
	defer w.wg.Done()
	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.enqueue(event.Name)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warning("Filesystem watcher error: %v", err)
		case <-w.stop:
			return
		}
	}
}

// sweepLoop lists the drop directory on a fixed interval and enqueues every
// regular file. Checks the stop signal once per cycle.
func (w *Watcher) sweepLoop() {
	defer w.wg.Done()
	ticker := time.NewTicker(w.sweepInterval)
	defer ticker.Stop()

	w.sweep() // catch the backlog left from before the watcher started
	for {
		select {
		case <-ticker.C:
			w.sweep()
		case <-w.stop:
			return
		}
	}
}

func (w *Watcher) sweep() {
	entries, err := os.ReadDir(w.processor.IncomingRoot())
	if err != nil {
		return
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		w.enqueue(filepath.Join(w.processor.IncomingRoot(), entry.Name()))
	}
}

// coordinatorLoop is the only caller of Relocate while the watcher runs.
func (w *Watcher) coordinatorLoop() {
	defer w.wg.Done()
	for {
		select {
		case path := <-w.paths:
			w.processor.Relocate(path)
		case <-w.stop:
			return
		}
	}
}

func (w *Watcher) enqueue(path string) {
	select {
	case w.paths <- path:
	case <-w.stop:
	default:
		// Queue full: the next sweep picks the file up again.
	}
}

// Stop signals all loops and waits for the current sweep cycle to finish. An
// in-progress Relocate always runs to completion.
func (w *Watcher) Stop() {
	close(w.stop)
	if w.fsw != nil {
		w.fsw.Close()
	}
	w.wg.Wait()
	w.logger.Info("🛑 Ingestion watcher stopped")
}
