package model

import "time"

// ContestWindow is the single open/close record for the contest.
// Either bound may be nil, meaning "not configured yet"; an incomplete
// window is treated as closed.
type ContestWindow struct {
	OpenAt  *time.Time `json:"openDate,omitempty"`
	CloseAt *time.Time `json:"closeDate,omitempty"`
}

// IsOpen reports whether submissions are accepted at the given instant:
// openDate <= now < closeDate, and only when both bounds are set.
func (w *ContestWindow) IsOpen(now time.Time) bool {
	if w.OpenAt == nil || w.CloseAt == nil {
		return false
	}
	return !now.Before(*w.OpenAt) && now.Before(*w.CloseAt)
}

// Validate rejects a window whose open date does not precede its close
// date. Partially configured windows are valid.
func (w *ContestWindow) Validate() error {
	if w.OpenAt != nil && w.CloseAt != nil && !w.OpenAt.Before(*w.CloseAt) {
		return ErrInvalidWindow
	}
	return nil
}
