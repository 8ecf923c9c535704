package service

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/ajkula/GoSubmit/domain/model"
	"github.com/ajkula/GoSubmit/domain/port/outbound"
)

// Shared in-memory test doubles. The repositories mirror the real
// adapters' transform-under-lock contract without touching the disk.

type mockLogger struct {
	mu   sync.Mutex
	logs []string
}

func (m *mockLogger) log(msg string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs = append(m.logs, msg)
}

func (m *mockLogger) Debug(msg string, args ...any) { m.log(msg) }
func (m *mockLogger) Info(msg string, args ...any)  { m.log(msg) }
func (m *mockLogger) Warn(msg string, args ...any)  { m.log(msg) }
func (m *mockLogger) Error(msg string, args ...any) { m.log(msg) }
func (m *mockLogger) UpdateLevel(level string)      {}
func (m *mockLogger) Shutdown()                     {}

type fakeUserRepo struct {
	mu sync.Mutex
	db *model.UserDatabase

	loadErr   error
	updateErr error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{db: model.NewUserDatabase()}
}

func (r *fakeUserRepo) Load() (*model.UserDatabase, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.loadErr != nil {
		return nil, r.loadErr
	}
	return r.db, nil
}

func (r *fakeUserRepo) Update(ctx context.Context, fn func(*model.UserDatabase) error) (*model.UserDatabase, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return nil, r.updateErr
	}
	if err := fn(r.db); err != nil {
		return nil, err
	}
	return r.db, nil
}

func (r *fakeUserRepo) Exists() bool { return true }

type slotRef struct {
	username string
	num      int
}

type fakeSlotRepo struct {
	mu          sync.Mutex
	provisioned []string
	removed     []string
	slots       map[slotRef]*model.Slot

	provisionErr error
}

func newFakeSlotRepo() *fakeSlotRepo {
	return &fakeSlotRepo{slots: make(map[slotRef]*model.Slot)}
}

func (r *fakeSlotRepo) ProvisionUser(username string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.provisionErr != nil {
		return r.provisionErr
	}
	r.provisioned = append(r.provisioned, username)
	return nil
}

func (r *fakeSlotRepo) RemoveUser(username string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removed = append(r.removed, username)
	return nil
}

func (r *fakeSlotRepo) LoadSlot(username string, slotNum int) (*model.Slot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if slot, ok := r.slots[slotRef{username, slotNum}]; ok {
		return slot, nil
	}
	return model.NewSlot(slotNum), nil
}

func (r *fakeSlotRepo) LoadSlots(username string) ([]*model.Slot, error) {
	slots := make([]*model.Slot, 10)
	for i := range slots {
		slots[i], _ = r.LoadSlot(username, i)
	}
	return slots, nil
}

func (r *fakeSlotRepo) StoreSubmission(ctx context.Context, username string, slotNum int, src io.Reader) (*model.Slot, error) {
	data, err := io.ReadAll(src)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	slot := model.NewSlot(slotNum)
	slot.Status = model.UploadedSlotStatus
	slot.Filename = fmt.Sprintf("submit.%d.0000.%d.fakehash.tgz", now.UnixNano(), len(data))
	slot.Length = int64(len(data))
	slot.SHA256 = "fakehash"
	slot.CollectedAt = &now

	r.mu.Lock()
	defer r.mu.Unlock()
	r.slots[slotRef{username, slotNum}] = slot
	return slot, nil
}

func (r *fakeSlotRepo) UpdateSlot(ctx context.Context, username string, slotNum int, fn func(*model.Slot) error) (*model.Slot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := slotRef{username, slotNum}
	slot, ok := r.slots[key]
	if !ok {
		slot = model.NewSlot(slotNum)
		r.slots[key] = slot
	}
	if err := fn(slot); err != nil {
		return nil, err
	}
	return slot, nil
}

func (r *fakeSlotRepo) WalkLoadedSlots(fn func(username string, slotNum int) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for ref, slot := range r.slots {
		if !slot.Loaded() {
			continue
		}
		if err := fn(ref.username, ref.num); err != nil {
			return err
		}
	}
	return nil
}

// fakeHasher is a transparent stand-in: the "hash" is reversible so
// tests stay readable, and generation is deterministic.
type fakeHasher struct{}

func (fakeHasher) GenerateSalt() [16]byte {
	return [16]byte{1, 2, 3}
}

func (fakeHasher) HashPassword(password string, salt [16]byte) string {
	return fmt.Sprintf("hashed(%s)", password)
}

func (fakeHasher) VerifyPassword(password, hash string, salt [16]byte) bool {
	return hash == fmt.Sprintf("hashed(%s)", password)
}

func (fakeHasher) GeneratePassword(length int) (string, error) {
	return "generated-password-0", nil
}

type fakeWindowRepo struct {
	mu     sync.Mutex
	window *model.ContestWindow
	path   string

	loadErr error
}

func newFakeWindowRepo() *fakeWindowRepo {
	return &fakeWindowRepo{window: &model.ContestWindow{}, path: "/data/etc/state.json"}
}

func (r *fakeWindowRepo) Load() (*model.ContestWindow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.loadErr != nil {
		return nil, r.loadErr
	}
	snapshot := *r.window
	return &snapshot, nil
}

func (r *fakeWindowRepo) Update(ctx context.Context, fn func(*model.ContestWindow) error) (*model.ContestWindow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	candidate := *r.window
	if err := fn(&candidate); err != nil {
		return nil, err
	}
	r.window = &candidate
	snapshot := candidate
	return &snapshot, nil
}

func (r *fakeWindowRepo) Path() string { return r.path }

type fakeFileWatcher struct {
	mu       sync.Mutex
	events   chan outbound.FileChangeEvent
	errors   chan error
	watched  []string
	stopped  bool
	watching bool
}

func newFakeFileWatcher() *fakeFileWatcher {
	return &fakeFileWatcher{
		events: make(chan outbound.FileChangeEvent, 10),
		errors: make(chan error, 10),
	}
}

func (w *fakeFileWatcher) Watch(ctx context.Context, path string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.watched = append(w.watched, path)
	w.watching = true
	return nil
}

func (w *fakeFileWatcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stopped = true
	w.watching = false
	return nil
}

func (w *fakeFileWatcher) Events() <-chan outbound.FileChangeEvent { return w.events }
func (w *fakeFileWatcher) Errors() <-chan error                    { return w.errors }

func (w *fakeFileWatcher) IsWatching() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.watching
}
