package auth

import (
	"errors"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// DefaultPasswordCost is the bcrypt work factor used when none is configured.
const DefaultPasswordCost = 12

// PasswordHasher hashes and compares passwords with bcrypt
type PasswordHasher struct {
	cost int

	mu        sync.Mutex
	dummyCost int
	dummyHash []byte
}

var _ PasswordAuthenticator = (*PasswordHasher)(nil)

// NewPasswordHasher clamps cost to the range bcrypt accepts.
func NewPasswordHasher(cost int) *PasswordHasher {
	if cost == 0 {
		cost = DefaultPasswordCost
	}
	if cost < bcrypt.MinCost {
		cost = bcrypt.MinCost
	}
	if cost > bcrypt.MaxCost {
		cost = bcrypt.MaxCost
	}
	return &PasswordHasher{cost: passwordHashCost(cost)}
}

// Cost returns the effective work factor.
func (h *PasswordHasher) Cost() int {
	return h.cost
}

// HashPassword will generate a password hash
func (h *PasswordHasher) HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", internalError(err, "failed to hash password")
	}
	return string(hash), nil
}

// ComparePasswordAndHash will validate the given cleartext
// password matches the hashed password
func (h *PasswordHasher) ComparePasswordAndHash(password, hash string) error {
	h.CalibrateDummy(hash)
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrInvalidCredentials
		}
		return internalError(err, "failed to compare password hash")
	}
	return nil
}

// CalibrateDummy aligns the dummy comparison with the cost of a stored
// hash. Stored hashes keep the cost they were created with, which may differ
// from the configured one after BCRYPT_COST changes. Invalid hashes are ignored.
func (h *PasswordHasher) CalibrateDummy(hash string) {
	cost, err := bcrypt.Cost([]byte(hash))
	if err != nil {
		return
	}
	h.mu.Lock()
	h.dummyCost = cost
	h.mu.Unlock()
}

// DummyCost is the work factor CompareDummy spends: the cost of the last
// stored hash seen, or the configured cost before any.
func (h *PasswordHasher) DummyCost() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.dummyCostLocked()
}

func (h *PasswordHasher) dummyCostLocked() int {
	if h.dummyCost > 0 {
		return h.dummyCost
	}
	return h.cost
}

// CompareDummy burns the same bcrypt work as a real comparison. It is used
// when no account matched so that timing does not reveal whether an email
// is registered.
func (h *PasswordHasher) CompareDummy(password string) {
	dummy := h.dummy()
	if dummy == nil {
		return
	}
	_ = bcrypt.CompareHashAndPassword(dummy, []byte(password))
}

func (h *PasswordHasher) dummy() []byte {
	h.mu.Lock()
	defer h.mu.Unlock()

	cost := h.dummyCostLocked()
	if h.dummyHash != nil {
		if current, err := bcrypt.Cost(h.dummyHash); err == nil && current == cost {
			return h.dummyHash
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("ticket-hub-dummy-password"), cost)
	if err != nil {
		return h.dummyHash
	}
	h.dummyHash = hash
	return hash
}
