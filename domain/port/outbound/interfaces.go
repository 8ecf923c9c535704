package outbound

import (
	"context"
	"io"
	"time"

	"github.com/ajkula/GoSubmit/domain/model"
)

// LockHandle is a held advisory lock. The lock is tied to an open file
// descriptor, so a crashed holder releases it automatically on exit.
type LockHandle interface {
	// Release gives up the lock
	Release() error

	// Path returns the lock file path the handle guards
	Path() string
}

// LockBroker acquires exclusive advisory locks on lock files. Lock files
// are created once and never removed; only the held/free state is
// transient.
type LockBroker interface {
	// Acquire blocks up to timeout for the exclusive lock on lockPath,
	// returning model.ErrLockTimeout when it cannot be obtained in time
	Acquire(ctx context.Context, lockPath string, timeout time.Duration) (LockHandle, error)
}

// PasswordHasher defines the credential hashing operations.
type PasswordHasher interface {
	// GenerateSalt returns a fresh random per-user salt
	GenerateSalt() [16]byte

	// HashPassword derives a slow one-way hash of the password
	HashPassword(password string, salt [16]byte) string

	// VerifyPassword checks a password against a stored hash in
	// constant time with respect to the hash
	VerifyPassword(password, hash string, salt [16]byte) bool

	// GeneratePassword returns a cryptographically random password
	GeneratePassword(length int) (string, error)
}

// MachineIDService identifies the host for lock-owner diagnostics.
type MachineIDService interface {
	GetMachineID() (string, error)
}

// UserRepository persists the credentials document.
type UserRepository interface {
	// Load reads the current document without taking the write lock
	Load() (*model.UserDatabase, error)

	// Update applies fn to the on-disk document under the document lock
	// and atomically replaces it; fn's error aborts with no write
	Update(ctx context.Context, fn func(*model.UserDatabase) error) (*model.UserDatabase, error)

	// Exists reports whether the document has ever been written
	Exists() bool
}

// WindowRepository persists the contest window document.
type WindowRepository interface {
	Load() (*model.ContestWindow, error)
	Update(ctx context.Context, fn func(*model.ContestWindow) error) (*model.ContestWindow, error)

	// Path returns the document path, for change watchers
	Path() string
}

// SlotRepository manages the per-user slot directory trees and the slot
// metadata documents inside them.
type SlotRepository interface {
	// ProvisionUser creates the user's slot directories, lock files and
	// initial metadata documents; it is idempotent
	ProvisionUser(username string) error

	// RemoveUser deletes the user's whole slot tree
	RemoveUser(username string) error

	// LoadSlot reads one slot's metadata document
	LoadSlot(username string, slotNum int) (*model.Slot, error)

	// LoadSlots reads every slot metadata document for the user
	LoadSlots(username string) ([]*model.Slot, error)

	// StoreSubmission streams an archive into a uniquely named file in
	// the slot directory and records it as the slot's latest submission
	StoreSubmission(ctx context.Context, username string, slotNum int, r io.Reader) (*model.Slot, error)

	// UpdateSlot applies fn to the slot metadata document under the
	// slot's lock
	UpdateSlot(ctx context.Context, username string, slotNum int, fn func(*model.Slot) error) (*model.Slot, error)

	// WalkLoadedSlots calls fn for every slot with an accepted
	// submission, recomputed from filesystem state on each call
	WalkLoadedSlots(fn func(username string, slotNum int) error) error
}
