package lockfs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"github.com/ajkula/GoSubmit/domain/model"
	"github.com/ajkula/GoSubmit/domain/port/outbound"
)

// retryDelay is the poll interval while waiting for a contended lock.
const retryDelay = 50 * time.Millisecond

type flockHandle struct {
	fl   *flock.Flock
	path string
}

func (h *flockHandle) Release() error {
	return h.fl.Unlock()
}

func (h *flockHandle) Path() string {
	return h.path
}

// FlockBroker acquires exclusive advisory locks through flock(2). The
// lock lives on the open file descriptor, so a crashed holder releases
// it automatically when its process exits; nothing ever needs to break
// a stale lock. The lock file's content is a purely diagnostic owner
// stamp and carries no locking semantics.
type FlockBroker struct {
	machineID outbound.MachineIDService
	logger    outbound.Logger
	hostID    string
}

func NewFlockBroker(machineID outbound.MachineIDService, logger outbound.Logger) outbound.LockBroker {
	b := &FlockBroker{
		machineID: machineID,
		logger:    logger,
	}

	// best effort: lock stamps fall back to "unknown" on exotic hosts
	if id, err := machineID.GetMachineID(); err == nil {
		b.hostID = id
	} else {
		b.hostID = "unknown"
		logger.Warn("Could not determine machine ID for lock stamps", "error", err)
	}

	return b
}

func (b *FlockBroker) Acquire(ctx context.Context, lockPath string, timeout time.Duration) (outbound.LockHandle, error) {
	if err := os.MkdirAll(filepath.Dir(lockPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}

	fl := flock.New(lockPath)

	lockCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	locked, err := fl.TryLockContext(lockCtx, retryDelay)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			b.logger.Warn("Lock acquisition timed out", "path", lockPath, "timeout", timeout)
			return nil, fmt.Errorf("%w: %s", model.ErrLockTimeout, lockPath)
		}
		return nil, fmt.Errorf("failed to lock %s: %w", lockPath, err)
	}
	if !locked {
		return nil, fmt.Errorf("%w: %s", model.ErrLockTimeout, lockPath)
	}

	b.stampOwner(lockPath)
	b.logger.Debug("Lock acquired", "path", lockPath)

	return &flockHandle{fl: fl, path: lockPath}, nil
}

// stampOwner records who holds the lock, for operators inspecting a
// contended lock file. Failures are logged and ignored: the flock state
// is the truth, not the stamp.
func (b *FlockBroker) stampOwner(lockPath string) {
	stamp := fmt.Sprintf("host=%s pid=%d acquired=%s\n",
		b.hostID, os.Getpid(), time.Now().UTC().Format(time.RFC3339))

	if err := os.WriteFile(lockPath, []byte(stamp), 0644); err != nil {
		b.logger.Warn("Failed to stamp lock owner", "path", lockPath, "error", err)
	}
}
