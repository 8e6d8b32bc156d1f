package groups

import (
	"crypto/rand"
	"fmt"
	"io"
)

const (
	inviteCodeLength   = 6
	inviteCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	// Largest multiple of the alphabet size that fits in a byte. Values at or
	// above it would make the modulo favor the low symbols, so they are redrawn.
	inviteCodeByteLimit = byte(252)
)

// CodeGenerator produces invite codes for new groups.
type CodeGenerator interface {
	Generate() (string, error)
}

type randomCodeGenerator struct {
	src io.Reader
}

// NewCodeGenerator returns the default crypto/rand backed generator.
func NewCodeGenerator() CodeGenerator {
	return randomCodeGenerator{src: rand.Reader}
}

// Generate draws a uniform 6-character code from the 36-symbol alphabet,
// rejecting bytes past the limit so every symbol is equally likely.
// Uniqueness against open groups is the caller's job: collisions surface as
// unique violations and the registry retries with a fresh code.
func (g randomCodeGenerator) Generate() (string, error) {
	code := make([]byte, 0, inviteCodeLength)
	buf := make([]byte, inviteCodeLength)
	for len(code) < inviteCodeLength {
		if _, err := io.ReadFull(g.src, buf); err != nil {
			return "", fmt.Errorf("reading random bytes: %w", err)
		}
		for _, b := range buf {
			if b >= inviteCodeByteLimit {
				continue
			}
			code = append(code, inviteCodeAlphabet[int(b)%len(inviteCodeAlphabet)])
			if len(code) == inviteCodeLength {
				break
			}
		}
	}
	return string(code), nil
}
