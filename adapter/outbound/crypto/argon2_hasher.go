package crypto

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	"github.com/ajkula/GoSubmit/domain/port/outbound"
	"golang.org/x/crypto/argon2"
)

// Argon2id parameters - OWASP 2024
const (
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
	argonKeyLen  = 32
)

// passwordAlphabet is the charset for generated passwords. No characters
// that shells or copy/paste mangle.
const passwordAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789_+.-"

type Argon2Hasher struct{}

func NewArgon2Hasher() outbound.PasswordHasher {
	return &Argon2Hasher{}
}

func (h *Argon2Hasher) GenerateSalt() [16]byte {
	var salt [16]byte
	rand.Read(salt[:])
	return salt
}

func (h *Argon2Hasher) HashPassword(password string, salt [16]byte) string {
	hash := argon2.IDKey([]byte(password), salt[:], argonTime, argonMemory, argonThreads, argonKeyLen)
	return hex.EncodeToString(hash)
}

func (h *Argon2Hasher) VerifyPassword(password, hash string, salt [16]byte) bool {
	expected := argon2.IDKey([]byte(password), salt[:], argonTime, argonMemory, argonThreads, argonKeyLen)
	stored, err := hex.DecodeString(hash)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare(expected, stored) == 1
}

func (h *Argon2Hasher) GeneratePassword(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("password length must be positive, got %d", length)
	}

	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}

	// rejection sampling per byte avoids modulo bias
	out := make([]byte, 0, length)
	max := byte(256 - 256%len(passwordAlphabet))
	for len(out) < length {
		for _, b := range buf {
			if len(out) == length {
				break
			}
			if b >= max {
				continue
			}
			out = append(out, passwordAlphabet[int(b)%len(passwordAlphabet)])
		}
		if len(out) < length {
			if _, err := rand.Read(buf); err != nil {
				return "", fmt.Errorf("failed to read random bytes: %w", err)
			}
		}
	}
	return string(out), nil
}
