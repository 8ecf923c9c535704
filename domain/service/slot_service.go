package service

import (
	"context"
	"fmt"
	"io"

	"github.com/ajkula/GoSubmit/domain/model"
	"github.com/ajkula/GoSubmit/domain/port/inbound"
	"github.com/ajkula/GoSubmit/domain/port/outbound"
)

type slotService struct {
	slots     outbound.SlotRepository
	logger    outbound.Logger
	slotCount int
}

func NewSlotService(slots outbound.SlotRepository, logger outbound.Logger, slotCount int) inbound.SlotService {
	return &slotService{
		slots:     slots,
		logger:    logger,
		slotCount: slotCount,
	}
}

func (s *slotService) checkSlotNum(slotNum int) error {
	if slotNum < 0 || slotNum >= s.slotCount {
		return fmt.Errorf("%w: %d not in [0, %d]", model.ErrSlotOutOfRange, slotNum, s.slotCount-1)
	}
	return nil
}

func (s *slotService) ProvisionUser(username string) error {
	return s.slots.ProvisionUser(username)
}

func (s *slotService) AcceptSubmission(ctx context.Context, username string, slotNum int, r io.Reader) (*model.Slot, error) {
	if err := s.checkSlotNum(slotNum); err != nil {
		return nil, err
	}
	return s.slots.StoreSubmission(ctx, username, slotNum, r)
}

// SetStatus overwrites the slot's status annotation. It is independent
// of upload activity: a reviewer tool may set it on an empty slot.
func (s *slotService) SetStatus(ctx context.Context, username string, slotNum int, comment string) error {
	if err := s.checkSlotNum(slotNum); err != nil {
		return err
	}

	_, err := s.slots.UpdateSlot(ctx, username, slotNum, func(slot *model.Slot) error {
		slot.Status = comment
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("Slot status updated", "username", username, "slot", slotNum)
	return nil
}

func (s *slotService) GetSlot(username string, slotNum int) (*model.Slot, error) {
	if err := s.checkSlotNum(slotNum); err != nil {
		return nil, err
	}
	return s.slots.LoadSlot(username, slotNum)
}

func (s *slotService) ListSlots(username string) ([]*model.Slot, error) {
	return s.slots.LoadSlots(username)
}

func (s *slotService) ListLoadedSlots(fn func(username string, slotNum int) error) error {
	return s.slots.WalkLoadedSlots(fn)
}
