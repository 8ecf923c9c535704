package model

import (
	"time"
)

// SlotFormatVersion is the supported on-disk format version of a slot
// metadata document.
const SlotFormatVersion = 1

// DefaultSlotStatus is the status a freshly provisioned slot carries
// before anything has been uploaded into it.
const DefaultSlotStatus = "slot is empty"

// UploadedSlotStatus is the status recorded when a submission is accepted.
const UploadedSlotStatus = "uploaded file into slot"

// Slot is the metadata document for one numbered submission slot.
// The slot's submission files live next to it in the slot directory;
// Filename names the one authoritative "latest" file, older files are
// retained for audit only.
type Slot struct {
	Version     int        `json:"version"`
	SlotNum     int        `json:"slotNum"`
	Status      string     `json:"status"`
	Filename    string     `json:"filename,omitempty"`
	Length      int64      `json:"length,omitempty"`
	SHA256      string     `json:"sha256,omitempty"`
	CollectedAt *time.Time `json:"collectedAt,omitempty"`
}

func NewSlot(slotNum int) *Slot {
	return &Slot{
		Version: SlotFormatVersion,
		SlotNum: slotNum,
		Status:  DefaultSlotStatus,
	}
}

// Loaded reports whether the slot has an accepted submission.
func (s *Slot) Loaded() bool {
	return s.Filename != ""
}
