package filewatcher

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ajkula/GoSubmit/domain/port/outbound"
)

// debounceDelay coalesces the burst of fsnotify events an atomic
// replace produces (create temp, write, rename) into one change event.
const debounceDelay = 100 * time.Millisecond

// FsWatcher watches individual files for changes. Because the store
// publishes documents by renaming over them, the watched path itself is
// replaced on every update; we therefore watch the parent directory and
// filter events down to the registered files.
type FsWatcher struct {
	watcher      *fsnotify.Watcher
	events       chan outbound.FileChangeEvent
	errors       chan error
	debouncer    map[string]*time.Timer
	watchedFiles map[string]bool
	watchedDirs  map[string]bool
	mu           sync.RWMutex
	ctx          context.Context
	cancel       context.CancelFunc
	running      bool
	closed       chan struct{}
}

func NewFSWatcher() (outbound.FileWatcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	fw := &FsWatcher{
		watcher:      fsWatcher,
		events:       make(chan outbound.FileChangeEvent, 100),
		errors:       make(chan error, 10),
		debouncer:    make(map[string]*time.Timer),
		watchedFiles: make(map[string]bool),
		watchedDirs:  make(map[string]bool),
		ctx:          ctx,
		cancel:       cancel,
		closed:       make(chan struct{}),
	}

	go fw.processEvents()

	return fw, nil
}

func (fw *FsWatcher) Watch(ctx context.Context, path string) error {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to get absolute path for %s: %w", path, err)
	}

	fw.watchedFiles[absPath] = true

	// watch the directory and filter: renames over the file would
	// otherwise drop the watch
	dir := filepath.Dir(absPath)
	if fw.watchedDirs[dir] {
		return nil
	}

	if err := fw.watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch directory %s: %w", dir, err)
	}

	fw.watchedDirs[dir] = true
	fw.running = true

	return nil
}

func (fw *FsWatcher) Stop() error {
	fw.mu.Lock()

	if !fw.running {
		fw.mu.Unlock()
		return nil
	}

	fw.cancel()

	for path, timer := range fw.debouncer {
		timer.Stop()
		delete(fw.debouncer, path)
	}

	if err := fw.watcher.Close(); err != nil {
		fw.mu.Unlock()
		return fmt.Errorf("failed to close fsnotify watcher: %w", err)
	}

	fw.running = false
	fw.mu.Unlock()

	<-fw.closed

	close(fw.events)
	close(fw.errors)

	return nil
}

func (fw *FsWatcher) Events() <-chan outbound.FileChangeEvent {
	return fw.events
}

func (fw *FsWatcher) Errors() <-chan error {
	return fw.errors
}

func (fw *FsWatcher) IsWatching() bool {
	fw.mu.RLock()
	defer fw.mu.RUnlock()
	return fw.running
}

func (fw *FsWatcher) processEvents() {
	defer close(fw.closed)

	for {
		select {
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			fw.handleEvent(event)
		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			select {
			case fw.errors <- err:
			default:
			}
		case <-fw.ctx.Done():
			return
		}
	}
}

func (fw *FsWatcher) handleEvent(event fsnotify.Event) {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return
	}

	fw.mu.Lock()
	defer fw.mu.Unlock()

	absPath, err := filepath.Abs(event.Name)
	if err != nil || !fw.watchedFiles[absPath] {
		return
	}

	// debounce: an atomic replace fires several events back to back
	if timer, exists := fw.debouncer[absPath]; exists {
		timer.Stop()
	}
	fw.debouncer[absPath] = time.AfterFunc(debounceDelay, func() {
		select {
		case fw.events <- outbound.FileChangeEvent{FilePath: absPath, EventType: "modify"}:
		case <-fw.ctx.Done():
		}
	})
}
