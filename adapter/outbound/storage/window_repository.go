package storage

import (
	"context"
	"time"

	"github.com/ajkula/GoSubmit/domain/model"
	"github.com/ajkula/GoSubmit/domain/port/outbound"
)

// fsWindowRepository persists the contest window document. A window
// that was never configured loads as empty, which reads as closed.
type fsWindowRepository struct {
	store  *DocumentStore[model.ContestWindow]
	logger outbound.Logger
}

func NewWindowRepository(
	path, lockPath string,
	broker outbound.LockBroker,
	logger outbound.Logger,
	lockTimeout time.Duration,
) (outbound.WindowRepository, error) {
	store, err := NewDocumentStore(
		path, lockPath, broker, logger, lockTimeout,
		func() *model.ContestWindow { return &model.ContestWindow{} },
		func(w *model.ContestWindow) error { return w.Validate() },
	)
	if err != nil {
		return nil, err
	}

	return &fsWindowRepository{store: store, logger: logger}, nil
}

func (r *fsWindowRepository) Load() (*model.ContestWindow, error) {
	return r.store.Load()
}

func (r *fsWindowRepository) Update(ctx context.Context, fn func(*model.ContestWindow) error) (*model.ContestWindow, error) {
	return r.store.Update(ctx, fn)
}

func (r *fsWindowRepository) Path() string {
	return r.store.Path()
}
