package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/ajkula/GoSubmit/domain/model"
	"github.com/ajkula/GoSubmit/domain/port/outbound"
)

const (
	slotMetaFile = "slot.json"
	slotLockFile = "lock"
)

// usernameRx accepts POSIX-portable names plus UUIDs. Anything else is
// rejected before it can become a path component.
var usernameRx = regexp.MustCompile(`^[0-9A-Za-z][0-9A-Za-z._+-]*$`)

// FsSlotRepository manages the users/<username>/<slot>/ trees. Each
// accepted upload is a new uniquely named file, never an in-place
// mutation, so uploads to different slots never contend and same-slot
// races only contend on the small metadata document.
type FsSlotRepository struct {
	root     string
	broker   outbound.LockBroker
	logger   outbound.Logger
	timeout  time.Duration
	count    int
	maxBytes int64
}

func NewSlotRepository(
	root string,
	broker outbound.LockBroker,
	logger outbound.Logger,
	lockTimeout time.Duration,
	slotCount int,
	maxSubmissionBytes int64,
) (*FsSlotRepository, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create slots root: %w", err)
	}

	return &FsSlotRepository{
		root:     root,
		broker:   broker,
		logger:   logger,
		timeout:  lockTimeout,
		count:    slotCount,
		maxBytes: maxSubmissionBytes,
	}, nil
}

func (r *FsSlotRepository) userDir(username string) (string, error) {
	if !usernameRx.MatchString(username) {
		return "", fmt.Errorf("%w: %q", model.ErrInvalidUsername, username)
	}
	return filepath.Join(r.root, username), nil
}

func (r *FsSlotRepository) slotDir(username string, slotNum int) (string, error) {
	if slotNum < 0 || slotNum >= r.count {
		return "", fmt.Errorf("%w: %d", model.ErrSlotOutOfRange, slotNum)
	}
	userDir, err := r.userDir(username)
	if err != nil {
		return "", err
	}
	return filepath.Join(userDir, fmt.Sprintf("%d", slotNum)), nil
}

// slotStore returns the metadata document store for one slot. The slot
// lock file doubles as the document lock, so metadata updates and
// submission records for the same slot serialize.
func (r *FsSlotRepository) slotStore(username string, slotNum int) (*DocumentStore[model.Slot], error) {
	dir, err := r.slotDir(username, slotNum)
	if err != nil {
		return nil, err
	}

	return NewDocumentStore(
		filepath.Join(dir, slotMetaFile),
		filepath.Join(dir, slotLockFile),
		r.broker, r.logger, r.timeout,
		func() *model.Slot { return model.NewSlot(slotNum) },
		func(s *model.Slot) error {
			if s.Version != model.SlotFormatVersion {
				return fmt.Errorf("unsupported slot format version %d", s.Version)
			}
			if s.SlotNum != slotNum {
				return fmt.Errorf("slot document claims slot %d", s.SlotNum)
			}
			return nil
		},
	)
}

// ProvisionUser creates the user's slot directories, lock files and
// initial metadata documents. It is idempotent: existing slots are left
// untouched.
func (r *FsSlotRepository) ProvisionUser(username string) error {
	userDir, err := r.userDir(username)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(userDir, 0770); err != nil {
		return fmt.Errorf("failed to create user directory: %w", err)
	}

	for slotNum := 0; slotNum < r.count; slotNum++ {
		dir, err := r.slotDir(username, slotNum)
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0770); err != nil {
			return fmt.Errorf("failed to create slot directory: %w", err)
		}

		store, err := r.slotStore(username, slotNum)
		if err != nil {
			return err
		}
		if store.Exists() {
			continue
		}
		// no-op transform writes the initial document
		if _, err := store.Update(context.Background(), func(*model.Slot) error { return nil }); err != nil {
			return fmt.Errorf("failed to initialize slot %d for %s: %w", slotNum, username, err)
		}
	}

	r.logger.Debug("User slot tree provisioned", "username", username, "slots", r.count)
	return nil
}

// RemoveUser deletes the user's whole slot tree, history included.
func (r *FsSlotRepository) RemoveUser(username string) error {
	userDir, err := r.userDir(username)
	if err != nil {
		return err
	}
	if err := os.RemoveAll(userDir); err != nil {
		return fmt.Errorf("failed to remove slot tree for %s: %w", username, err)
	}
	return nil
}

func (r *FsSlotRepository) LoadSlot(username string, slotNum int) (*model.Slot, error) {
	store, err := r.slotStore(username, slotNum)
	if err != nil {
		return nil, err
	}
	return store.Load()
}

func (r *FsSlotRepository) LoadSlots(username string) ([]*model.Slot, error) {
	slots := make([]*model.Slot, 0, r.count)
	for slotNum := 0; slotNum < r.count; slotNum++ {
		slot, err := r.LoadSlot(username, slotNum)
		if err != nil {
			return nil, err
		}
		slots = append(slots, slot)
	}
	return slots, nil
}

// StoreSubmission streams the archive into the slot under a hidden
// temporary name, then renames it to its final encoded name and records
// it in the slot metadata. Older submission files stay on disk for
// audit. When two uploads race on the same slot, the one with the later
// embedded timestamp ends up authoritative regardless of which metadata
// update ran last.
func (r *FsSlotRepository) StoreSubmission(ctx context.Context, username string, slotNum int, src io.Reader) (*model.Slot, error) {
	// the slot tree may predate this binary or be missing entirely
	if err := r.ProvisionUser(username); err != nil {
		return nil, err
	}

	dir, err := r.slotDir(username, slotNum)
	if err != nil {
		return nil, err
	}

	nonce, err := NewSubmissionNonce()
	if err != nil {
		return nil, err
	}
	collected := time.Now().UTC()

	tmpPath := filepath.Join(dir, fmt.Sprintf(".upload.%d.%s", collected.UnixNano(), nonce))
	f, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0640)
	if err != nil {
		return nil, fmt.Errorf("failed to create upload file: %w", err)
	}

	hasher := sha256.New()
	written, err := io.Copy(io.MultiWriter(f, hasher), io.LimitReader(src, r.maxBytes+1))
	if err != nil {
		f.Close()
		os.Remove(tmpPath)
		return nil, fmt.Errorf("failed to write upload: %w", err)
	}
	if written > r.maxBytes {
		f.Close()
		os.Remove(tmpPath)
		return nil, fmt.Errorf("%w: limit is %d bytes", model.ErrTooLarge, r.maxBytes)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return nil, fmt.Errorf("failed to flush upload: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("failed to close upload: %w", err)
	}

	sum := hex.EncodeToString(hasher.Sum(nil))
	name := BuildSubmissionName(collected, nonce, written, sum)
	if err := os.Rename(tmpPath, filepath.Join(dir, name)); err != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("failed to publish upload: %w", err)
	}

	store, err := r.slotStore(username, slotNum)
	if err != nil {
		return nil, err
	}

	slot, err := store.Update(ctx, func(slot *model.Slot) error {
		// a racing upload with a later timestamp may already be latest
		if slot.Filename != "" && SubmissionNewer(slot.Filename, name) {
			r.logger.Warn("Submission superseded by a newer racing upload",
				"username", username, "slot", slotNum, "file", name, "latest", slot.Filename)
			return nil
		}
		slot.Status = model.UploadedSlotStatus
		slot.Filename = name
		slot.Length = written
		slot.SHA256 = sum
		slot.CollectedAt = &collected
		return nil
	})
	if err != nil {
		// the file is not authoritative until the metadata names it
		os.Remove(filepath.Join(dir, name))
		return nil, err
	}

	r.logger.Info("Submission stored",
		"username", username, "slot", slotNum, "file", name, "bytes", written)
	return slot, nil
}

// UpdateSlot applies fn to the slot metadata document under the slot's
// lock.
func (r *FsSlotRepository) UpdateSlot(ctx context.Context, username string, slotNum int, fn func(*model.Slot) error) (*model.Slot, error) {
	store, err := r.slotStore(username, slotNum)
	if err != nil {
		return nil, err
	}
	return store.Update(ctx, fn)
}

// WalkLoadedSlots calls fn for every slot that records an accepted
// submission. The walk is recomputed from filesystem state on every
// call; there is no cached index. Corrupted slot documents are reported
// loudly and skipped so one bad slot cannot hide the rest of the audit.
func (r *FsSlotRepository) WalkLoadedSlots(fn func(username string, slotNum int) error) error {
	entries, err := os.ReadDir(r.root)
	if err != nil {
		return fmt.Errorf("failed to read slots root: %w", err)
	}

	for _, entry := range entries {
		if !entry.IsDir() || !usernameRx.MatchString(entry.Name()) {
			continue
		}
		username := entry.Name()

		for slotNum := 0; slotNum < r.count; slotNum++ {
			slot, err := r.LoadSlot(username, slotNum)
			if err != nil {
				r.logger.Error("Skipping unreadable slot during audit walk",
					"username", username, "slot", slotNum, "error", err)
				continue
			}
			if !slot.Loaded() {
				continue
			}
			if err := fn(username, slotNum); err != nil {
				return err
			}
		}
	}

	return nil
}
