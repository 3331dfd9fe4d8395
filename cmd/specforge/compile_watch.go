package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/jingkaihe/specforge/pkg/logger"
	"github.com/jingkaihe/specforge/pkg/presenter"
	"github.com/pkg/errors"
)

// FileEvent is a change to the watched spec
type FileEvent struct {
	Path string
	Op   fsnotify.Op
	Time time.Time
}

// watchCompile compiles once and then again after every change to the spec
// file until interrupted. Compiles run one at a time.
func watchCompile(ctx context.Context, config *CompileConfig) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			presenter.Warning("Cancellation requested, shutting down...")
			cancel()
		case <-ctx.Done():
		}
	}()

	specPath, err := filepath.Abs(config.Spec)
	if err != nil {
		return errors.Wrap(err, "failed to resolve spec path")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "failed to create file watcher")
	}
	defer watcher.Close()

	// editors often replace the file, so watch its directory
	if err := watcher.Add(filepath.Dir(specPath)); err != nil {
		return errors.Wrapf(err, "failed to watch %s", filepath.Dir(specPath))
	}

	events := make(chan FileEvent)
	debounced := make(chan FileEvent)
	go debounceFileEvents(ctx, events, debounced, time.Duration(config.Debounce)*time.Millisecond)
	go forwardSpecEvents(ctx, watcher, specPath, events)

	runCompile(ctx, config)
	presenter.Info(fmt.Sprintf("Watching %s for changes... Press Ctrl+C to stop", config.Spec))

	for {
		select {
		case event := <-debounced:
			logger.G(ctx).WithField("file", event.Path).WithField("operation", event.Op.String()).Debug("spec changed")
			presenter.Separator()
			presenter.Info(fmt.Sprintf("Change detected: %s (%s)", event.Path, event.Op))
			runCompile(ctx, config)
		case <-ctx.Done():
			return nil
		}
	}
}

// forwardSpecEvents passes on write, create and rename events for specPath
func forwardSpecEvents(ctx context.Context, watcher *fsnotify.Watcher, specPath string, out chan<- FileEvent) {
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !isSpecEvent(event, specPath) {
				continue
			}
			select {
			case out <- FileEvent{Path: event.Name, Op: event.Op, Time: time.Now()}:
			case <-ctx.Done():
				return
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			presenter.Error(err, "File watcher error")
			logger.G(ctx).WithError(err).Error("error watching spec")
		case <-ctx.Done():
			return
		}
	}
}

func isSpecEvent(event fsnotify.Event, specPath string) bool {
	if filepath.Clean(event.Name) != specPath {
		return false
	}
	return event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0
}

// debounceFileEvents delivers an event only after delay has passed without
// another event for the same path.
func debounceFileEvents(ctx context.Context, input <-chan FileEvent, output chan<- FileEvent, delay time.Duration) {
	pending := make(map[string]*time.Timer)
	stopAll := func() {
		for _, timer := range pending {
			timer.Stop()
		}
	}

	for {
		select {
		case event, ok := <-input:
			if !ok {
				stopAll()
				return
			}
			if timer, exists := pending[event.Path]; exists {
				timer.Stop()
			}

			eventCopy := event
			pending[event.Path] = time.AfterFunc(delay, func() {
				select {
				case output <- eventCopy:
				case <-ctx.Done():
				}
			})
		case <-ctx.Done():
			stopAll()
			return
		}
	}
}
