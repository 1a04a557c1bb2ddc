package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"

	"github.com/google/uuid"
)

const (
	// CodeVerifierLength is the default length of the PKCE code verifier.
	// Spotify requires 43-128 characters; we use 64 for good entropy.
	CodeVerifierLength = 64

	// MinVerifierLength and MaxVerifierLength bound the verifier per RFC 7636.
	MinVerifierLength = 43
	MaxVerifierLength = 128
)

// randReader is the entropy source. Tests swap it to simulate failure.
var randReader io.Reader = rand.Reader

// PKCE holds the code verifier and challenge for one authorization attempt.
// State identifies the attempt and travels through the redirect.
type PKCE struct {
	Verifier  string
	Challenge string
	State     string
}

// NewPKCE generates a fresh verifier of the given length, its challenge and
// an attempt identifier. A length of zero uses CodeVerifierLength.
func NewPKCE(length int) (*PKCE, error) {
	if length == 0 {
		length = CodeVerifierLength
	}

	verifier, err := GenerateVerifier(length)
	if err != nil {
		return nil, err
	}

	state, err := uuid.NewRandomFromReader(randReader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate state: %w", err)
	}

	return &PKCE{
		Verifier:  verifier,
		Challenge: DeriveChallenge(verifier),
		State:     state.String(),
	}, nil
}

// GenerateVerifier returns a cryptographically random string of exactly
// length characters from the URL-safe alphabet (A-Z, a-z, 0-9, -, _).
func GenerateVerifier(length int) (string, error) {
	if length < MinVerifierLength || length > MaxVerifierLength {
		return "", fmt.Errorf("%w: %d (must be %d-%d)", ErrInvalidVerifierLength,
			length, MinVerifierLength, MaxVerifierLength)
	}
	return generateRandomString(length)
}

// generateRandomString creates a cryptographically secure random string
// using URL-safe base64 characters. Every output character carries six
// uniformly random bits.
func generateRandomString(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := io.ReadFull(randReader, bytes); err != nil {
		return "", fmt.Errorf("entropy source unavailable: %w", err)
	}

	encoded := base64.RawURLEncoding.EncodeToString(bytes)
	return encoded[:length], nil
}

// DeriveChallenge creates the S256 code challenge from a verifier.
// challenge = base64url(sha256(verifier)), unpadded.
func DeriveChallenge(verifier string) string {
	hash := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(hash[:])
}
