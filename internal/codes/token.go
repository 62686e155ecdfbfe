package codes

import (
	"crypto/rand"
	"math/big"

	"github.com/pkg/errors"
)

const tokenAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func randomToken(prefix string, length int) (string, error) {
	// rand.Int keeps the draw uniform; reducing a raw byte modulo the
	// alphabet size would skew toward its low characters.
	alphabetSize := big.NewInt(int64(len(tokenAlphabet)))
	out := make([]byte, length)
	for i := range out {
		n, err := rand.Int(rand.Reader, alphabetSize)
		if err != nil {
			return "", errors.Wrap(err, "generate code token")
		}
		out[i] = tokenAlphabet[n.Int64()]
	}
	return prefix + string(out), nil
}

// GenerateMemberToken produces a shareable member code token, e.g. USER-7F3K9Q.
func GenerateMemberToken() (string, error) {
	return randomToken("USER-", 6)
}

// GenerateUniversalToken produces a token for an administrator-seeded
// universal code. Longer body since these codes carry a large quota.
func GenerateUniversalToken() (string, error) {
	return randomToken("ADMIN-", 8)
}
