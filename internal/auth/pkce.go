package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"math/big"
	"strings"
)

const (
	CodeChallengeMethodS256 = "S256"

	// Alphabet is the character set for verifiers and state tokens.
	Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

	VerifierLength = 128
	StateLength    = 16
)

var alphabetSize = big.NewInt(int64(len(Alphabet)))

// GenerateVerifier returns a random string of exactly length characters from Alphabet.
func GenerateVerifier(length int) string {
	if length <= 0 {
		return ""
	}
	buf := make([]byte, length)
	for i := range buf {
		n, err := rand.Int(rand.Reader, alphabetSize)
		if err != nil {
			// crypto/rand does not fail on supported platforms
			panic(err)
		}
		buf[i] = Alphabet[n.Int64()]
	}
	return string(buf)
}

// GenerateState returns an anti-CSRF state token.
func GenerateState() string {
	return GenerateVerifier(StateLength)
}

// DeriveChallenge returns the S256 code_challenge for a code_verifier (base64url(sha256(verifier)), unpadded).
func DeriveChallenge(codeVerifier string) string {
	hash := sha256.Sum256([]byte(codeVerifier))
	return base64.RawURLEncoding.EncodeToString(hash[:])
}

// VerifyCodeVerifier checks that code_verifier produces the given code_challenge (S256 only).
func VerifyCodeVerifier(codeVerifier, codeChallenge, method string) bool {
	method = strings.TrimSpace(method)
	if method == "" {
		method = CodeChallengeMethodS256
	}
	if method != CodeChallengeMethodS256 {
		return false
	}
	return DeriveChallenge(codeVerifier) == codeChallenge
}
