package verification

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const codeSpace = 1_000_000

// CodeGenerator produces 6-digit numeric codes.
type CodeGenerator interface {
	Generate() (string, error)
}

// RandomCodeGenerator draws codes uniformly from 000000-999999 using crypto/rand.
type RandomCodeGenerator struct{}

// Generate returns a zero-padded 6-digit code.
func (RandomCodeGenerator) Generate() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(codeSpace))
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
