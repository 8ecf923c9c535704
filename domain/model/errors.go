package model

import "errors"

var (
	// ErrLockTimeout is transient contention: callers should retry,
	// never treat it as data loss.
	ErrLockTimeout = errors.New("timed out waiting for document lock")

	// ErrStoreCorrupted means the on-disk document cannot be decoded or
	// fails shape validation. It is fatal for that document and is never
	// silently repaired.
	ErrStoreCorrupted = errors.New("document store corrupted")

	ErrDuplicateUser   = errors.New("user already exists")
	ErrUnknownUser     = errors.New("unknown user")
	ErrInvalidUsername = errors.New("invalid username")
	ErrInvalidWindow   = errors.New("contest open date must precede close date")
	ErrSlotOutOfRange  = errors.New("slot number out of range")
	ErrTooLarge        = errors.New("submission exceeds the size limit")
)
