package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/ajkula/GoSubmit/domain/model"
	"github.com/ajkula/GoSubmit/domain/port/outbound"
)

// fsUserRepository persists the credentials document: one JSON file for
// every user record, guarded by one lock file.
type fsUserRepository struct {
	store  *DocumentStore[model.UserDatabase]
	logger outbound.Logger
}

func NewUserRepository(
	path, lockPath string,
	broker outbound.LockBroker,
	logger outbound.Logger,
	lockTimeout time.Duration,
) (outbound.UserRepository, error) {
	store, err := NewDocumentStore(
		path, lockPath, broker, logger, lockTimeout,
		model.NewUserDatabase,
		validateUserDatabase,
	)
	if err != nil {
		return nil, err
	}

	return &fsUserRepository{store: store, logger: logger}, nil
}

// validateUserDatabase rejects unexpected document shapes instead of
// coercing them.
func validateUserDatabase(db *model.UserDatabase) error {
	if db.Version != model.UserDatabaseVersion {
		return fmt.Errorf("unsupported credentials format version %d", db.Version)
	}
	if db.Users == nil {
		return fmt.Errorf("credentials document has no users map")
	}
	for username, user := range db.Users {
		if user == nil {
			return fmt.Errorf("null record for user %q", username)
		}
		if user.Username != username {
			return fmt.Errorf("record key %q does not match username %q", username, user.Username)
		}
	}
	return nil
}

func (r *fsUserRepository) Load() (*model.UserDatabase, error) {
	return r.store.Load()
}

func (r *fsUserRepository) Update(ctx context.Context, fn func(*model.UserDatabase) error) (*model.UserDatabase, error) {
	return r.store.Update(ctx, fn)
}

func (r *fsUserRepository) Exists() bool {
	return r.store.Exists()
}
