package security

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"golang.org/x/crypto/bcrypt"
)

// GenerateAccessCode returns a random 6-digit login code.
func GenerateAccessCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("generate access code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

// AccessCodeHasher wraps bcrypt hashing and verification for login codes
// stored at rest.
type AccessCodeHasher struct {
	cost int
}

func NewAccessCodeHasher(cost int) *AccessCodeHasher {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &AccessCodeHasher{cost: cost}
}

func (h *AccessCodeHasher) Hash(code string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(code), h.cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (h *AccessCodeHasher) Verify(code, hashed string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(code))
}
