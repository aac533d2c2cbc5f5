// Package session issues the short throttling tokens bound to interactive
// sessions. A token is displayed to the user and is not a credential.
package session

import (
	"crypto/rand"
	"fmt"
)

const (
	TokenAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	TokenLength   = 6
)

// NewToken returns TokenLength characters drawn uniformly from TokenAlphabet.
func NewToken() (string, error) {
	// 252 is the largest multiple of 36 below 256; bytes above it are redrawn
	const limit = 256 - 256%len(TokenAlphabet)
	out := make([]byte, 0, TokenLength)
	buf := make([]byte, TokenLength*2)
	for len(out) < TokenLength {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("session token: %w", err)
		}
		for _, b := range buf {
			if int(b) >= limit {
				continue
			}
			out = append(out, TokenAlphabet[int(b)%len(TokenAlphabet)])
			if len(out) == TokenLength {
				break
			}
		}
	}
	return string(out), nil
}

// ValidToken reports whether s has the shape NewToken produces.
func ValidToken(s string) bool {
	if len(s) != TokenLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !(c >= 'A' && c <= 'Z' || c >= '0' && c <= '9') {
			return false
		}
	}
	return true
}
