package admin

import (
	"crypto/rand"
	"math/big"

	"github.com/pkg/errors"
)

// Alphabet excludes look-alikes (0/O, 1/I/l) so the credential survives
// being read over the phone or copied by hand.
const tempPasswordAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZabcdefghjkmnpqrstuvwxyz23456789"

const tempPasswordLength = 12

// generateTempPassword produces the one-time credential handed to an
// approved requester. The trailing symbol satisfies password policies that
// require one.
func generateTempPassword() (string, error) {
	// rand.Int keeps the draw uniform over the alphabet; a raw byte
	// reduced modulo 55 would favor the characters below 256 mod 55.
	alphabetSize := big.NewInt(int64(len(tempPasswordAlphabet)))
	out := make([]byte, tempPasswordLength)
	for i := range out {
		n, err := rand.Int(rand.Reader, alphabetSize)
		if err != nil {
			return "", errors.Wrap(err, "generate temporary password")
		}
		out[i] = tempPasswordAlphabet[n.Int64()]
	}
	return string(out) + "!", nil
}
