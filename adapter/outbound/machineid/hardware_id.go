package machineid

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/ajkula/GoSubmit/domain/port/outbound"
	"github.com/denisbrodbeck/machineid"
)

type hardwareMachineID struct{}

func NewHardwareMachineID() outbound.MachineIDService {
	return &hardwareMachineID{}
}

// GetMachineID returns a stable, hashed host identifier. The raw machine
// ID never leaves this package.
func (h *hardwareMachineID) GetMachineID() (string, error) {
	rawID, err := machineid.ID()
	if err != nil {
		return "", err
	}

	hash := sha256.Sum256([]byte(rawID))
	return hex.EncodeToString(hash[:]), nil
}
