package inbound

import (
	"context"
	"io"
	"time"

	"github.com/ajkula/GoSubmit/domain/model"
)

// CredentialService manages the registered users. The web layer calls
// Authenticate and ChangePassword; the admin CLI calls everything else.
type CredentialService interface {
	// AddUser creates a user. When password is empty a random one is
	// generated and returned in plaintext exactly once; it is never
	// retrievable again. Fails with model.ErrDuplicateUser.
	AddUser(ctx context.Context, username, password string, opts model.UserOptions) (generated string, err error)

	// GenerateUUIDUser creates a user with a synthesized UUID username,
	// retrying on the vanishingly unlikely collision.
	GenerateUUIDUser(ctx context.Context, password string, opts model.UserOptions) (username, generated string, err error)

	// UpdateUser partially updates a user's mutable fields.
	// Fails with model.ErrUnknownUser.
	UpdateUser(ctx context.Context, username string, upd model.UserUpdate) error

	// DeleteUser removes the user record and the user's slot tree.
	// Fails with model.ErrUnknownUser.
	DeleteUser(ctx context.Context, username string) error

	// Authenticate checks a login attempt at the given instant.
	// The outcome is a value; err is reserved for store failures.
	Authenticate(ctx context.Context, username, password string, now time.Time) (model.AuthOutcome, *model.User, error)

	// ChangePassword sets a new password and clears any pending forced
	// password change. Fails with model.ErrUnknownUser.
	ChangePassword(ctx context.Context, username, newPassword string) error

	GetUser(username string) (*model.User, error)
	ListUsers() ([]*model.User, error)
}

// WindowService manages the contest open/close window.
type WindowService interface {
	GetWindow() (*model.ContestWindow, error)

	// SetWindow updates only the bounds provided; nil leaves a bound
	// unchanged. Fails with model.ErrInvalidWindow.
	SetWindow(ctx context.Context, openAt, closeAt *time.Time) (*model.ContestWindow, error)

	// IsOpen reports whether uploads are accepted at the given instant.
	IsOpen(now time.Time) (bool, error)
}

// SlotService manages the per-user submission slots.
type SlotService interface {
	ProvisionUser(username string) error

	// AcceptSubmission stores an uploaded archive as the slot's latest
	// submission. Older files in the slot are retained for audit.
	AcceptSubmission(ctx context.Context, username string, slotNum int, r io.Reader) (*model.Slot, error)

	// SetStatus overwrites the slot's status annotation, independent of
	// upload activity.
	SetStatus(ctx context.Context, username string, slotNum int, comment string) error

	GetSlot(username string, slotNum int) (*model.Slot, error)
	ListSlots(username string) ([]*model.Slot, error)

	// ListLoadedSlots calls fn for every (username, slot) pair that has
	// an accepted submission, for operational auditing.
	ListLoadedSlots(fn func(username string, slotNum int) error) error
}

// WindowWatcherService notifies long-running consumers whenever the
// contest window document is replaced on disk.
type WindowWatcherService interface {
	Start(ctx context.Context) error
	Stop() error

	// Changes emits the freshly loaded window after each replace.
	Changes() <-chan model.ContestWindow
}
