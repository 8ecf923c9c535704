package service

import (
	"context"
	"time"

	"github.com/ajkula/GoSubmit/domain/model"
	"github.com/ajkula/GoSubmit/domain/port/inbound"
	"github.com/ajkula/GoSubmit/domain/port/outbound"
)

type windowService struct {
	windows outbound.WindowRepository
	logger  outbound.Logger
}

func NewWindowService(windows outbound.WindowRepository, logger outbound.Logger) inbound.WindowService {
	return &windowService{
		windows: windows,
		logger:  logger,
	}
}

func (s *windowService) GetWindow() (*model.ContestWindow, error) {
	return s.windows.Load()
}

// SetWindow updates only the bounds provided. The resulting window must
// keep open before close once both are known; an invalid combination
// aborts with no write.
func (s *windowService) SetWindow(ctx context.Context, openAt, closeAt *time.Time) (*model.ContestWindow, error) {
	window, err := s.windows.Update(ctx, func(w *model.ContestWindow) error {
		if openAt != nil {
			w.OpenAt = openAt
		}
		if closeAt != nil {
			w.CloseAt = closeAt
		}
		return w.Validate()
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Contest window updated", "open", window.OpenAt, "close", window.CloseAt)
	return window, nil
}

func (s *windowService) IsOpen(now time.Time) (bool, error) {
	window, err := s.windows.Load()
	if err != nil {
		return false, err
	}
	return window.IsOpen(now), nil
}
