package auth

import (
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// fallbackDummyHash is a well-formed cost-10 hash used when the dummy hash
// cannot be generated.
const fallbackDummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p49LlNMPhWQD8cd9E05UHe"

// generateHash is a seam for tests.
var generateHash = bcrypt.GenerateFromPassword

// Hasher wraps bcrypt with a fixed cost.
type Hasher struct {
	cost int

	dummyOnce sync.Once
	dummy     []byte
}

func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Hasher{cost: cost}
}

func (h *Hasher) Hash(password string) (string, error) {
	b, err := generateHash([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(b), nil
}

// Compare reports whether password matches hash. A malformed hash is
// treated as a mismatch.
func (h *Hasher) Compare(hash, password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// CompareDummy burns the same amount of time as a real comparison. Callers
// run it when the account does not exist so response timing stays uniform.
func (h *Hasher) CompareDummy(password string) {
	h.dummyOnce.Do(func() {
		dummy, err := generateHash([]byte("teamkeeper-dummy-password"), h.cost)
		if err != nil {
			dummy = []byte(fallbackDummyHash)
		}
		h.dummy = dummy
	})
	_ = bcrypt.CompareHashAndPassword(h.dummy, []byte(password))
}
