package service

import (
	"context"
	"sync"

	"github.com/ajkula/GoSubmit/domain/model"
	"github.com/ajkula/GoSubmit/domain/port/inbound"
	"github.com/ajkula/GoSubmit/domain/port/outbound"
)

// windowWatcherService turns on-disk replaces of the contest window
// document into typed change notifications, so a long-running worker
// can log open/close transitions without polling. Reads still always
// hit the disk; this is a wake-up, not a cache.
type windowWatcherService struct {
	watcher outbound.FileWatcher
	windows outbound.WindowRepository
	logger  outbound.Logger
	changes chan model.ContestWindow
	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	running bool
}

func NewWindowWatcherService(
	watcher outbound.FileWatcher,
	windows outbound.WindowRepository,
	logger outbound.Logger,
) inbound.WindowWatcherService {
	ctx, cancel := context.WithCancel(context.Background())

	return &windowWatcherService{
		watcher: watcher,
		windows: windows,
		logger:  logger,
		changes: make(chan model.ContestWindow, 8),
		ctx:     ctx,
		cancel:  cancel,
	}
}

func (s *windowWatcherService) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		s.logger.Warn("Window watcher already running")
		return nil
	}

	if err := s.watcher.Watch(ctx, s.windows.Path()); err != nil {
		s.logger.Error("Failed to watch window document", "path", s.windows.Path(), "error", err)
		return err
	}

	go s.processEvents()

	s.running = true
	s.logger.Info("Window watcher started", "path", s.windows.Path())
	return nil
}

func (s *windowWatcherService) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	s.cancel()

	if err := s.watcher.Stop(); err != nil {
		s.logger.Error("Error stopping window watcher", "error", err)
		return err
	}

	s.running = false
	s.logger.Info("Window watcher stopped")
	return nil
}

func (s *windowWatcherService) Changes() <-chan model.ContestWindow {
	return s.changes
}

func (s *windowWatcherService) processEvents() {
	for {
		select {
		case event, ok := <-s.watcher.Events():
			if !ok {
				return
			}
			s.publishChange(event)
		case err, ok := <-s.watcher.Errors():
			if !ok {
				return
			}
			s.logger.Error("Window watcher error", "error", err)
		case <-s.ctx.Done():
			return
		}
	}
}

func (s *windowWatcherService) publishChange(event outbound.FileChangeEvent) {
	window, err := s.windows.Load()
	if err != nil {
		s.logger.Error("Window document changed but cannot be loaded",
			"path", event.FilePath, "error", err)
		return
	}

	s.logger.Debug("Window document changed", "open", window.OpenAt, "close", window.CloseAt)

	select {
	case s.changes <- *window:
	default:
		// slow consumer, drop: the next read sees current state anyway
	}
}
