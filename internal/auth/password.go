package auth

import (
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// maxPasswordBytes is the bcrypt input limit. Longer passwords are
// truncated, so two passwords sharing their first 72 bytes are equivalent.
const maxPasswordBytes = 72

// PasswordHasher hashes and verifies passwords with bcrypt.
type PasswordHasher struct {
	cost int

	decoyOnce sync.Once
	decoy     []byte
}

// NewPasswordHasher returns a hasher using cost, or bcrypt.DefaultCost when
// cost is outside bcrypt's range.
func NewPasswordHasher(cost int) *PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &PasswordHasher{cost: cost}
}

func truncate(password string) []byte {
	b := []byte(password)
	if len(b) > maxPasswordBytes {
		b = b[:maxPasswordBytes]
	}
	return b
}

// Hash returns a salted bcrypt hash of password.
func (h *PasswordHasher) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword(truncate(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// Verify reports whether password matches hash. Malformed hashes never match.
func (h *PasswordHasher) Verify(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), truncate(password)) == nil
}

// VerifyAbsent spends the same bcrypt work as Verify against a throwaway
// hash of the configured cost and always reports false. Callers use it when
// the account does not exist so the response time does not reveal that.
func (h *PasswordHasher) VerifyAbsent(password string) bool {
	h.decoyOnce.Do(func() {
		// Only fails for an out-of-range cost, which the constructor rules out.
		h.decoy, _ = bcrypt.GenerateFromPassword([]byte("toolcatalog-absent-account"), h.cost)
	})
	_ = bcrypt.CompareHashAndPassword(h.decoy, truncate(password))
	return false
}
