package services

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

const inviteTokenLength = 24 // bytes of entropy, 48 hex characters on the wire

// TokenIssuer mints opaque invite tokens. Generation is pure: uniqueness is
// enforced by the unique constraint on duels.invite_token, not here.
type TokenIssuer interface {
	Issue() (string, error)
}

type hexTokenIssuer struct{}

func NewTokenIssuer() TokenIssuer {
	return hexTokenIssuer{}
}

func (hexTokenIssuer) Issue() (string, error) {
	bytes := make([]byte, inviteTokenLength)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to read random bytes for invite token: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}
