package cryptox

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base32"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/hotp"
	"golang.org/x/crypto/blake2b"
)

// CodeDigits is the length of every issued code.
const CodeDigits = 6

// secretSize matches the RFC 4226 recommendation of a 160-bit HOTP key.
const secretSize = 20

var ErrPepperTooLong = errors.New("cryptox: pepper longer than 64 bytes")

var secretEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// GenerateCode returns a fresh numeric one-time code. Each call derives the
// code from its own random HOTP key, so codes are independent of each other
// and of anything stored alongside them.
func GenerateCode() (string, error) {
	key := make([]byte, secretSize)
	if _, err := rand.Read(key); err != nil {
		return "", fmt.Errorf("generate code secret: %w", err)
	}

	code, err := hotp.GenerateCodeCustom(secretEncoding.EncodeToString(key), 0, hotp.ValidateOpts{
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return code, nil
}

// IsCode reports whether s is exactly CodeDigits ASCII digits.
func IsCode(s string) bool {
	if len(s) != CodeDigits {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// Fingerprinter derives keyed BLAKE2b fingerprints of codes so that the
// store never holds a code in the clear.
type Fingerprinter struct {
	key []byte
}

func NewFingerprinter(pepper []byte) (*Fingerprinter, error) {
	if len(pepper) == 0 {
		return nil, ErrEmptyPepper
	}
	if len(pepper) > blake2b.Size {
		return nil, ErrPepperTooLong
	}
	return &Fingerprinter{key: append([]byte(nil), pepper...)}, nil
}

// Fingerprint binds code to the challenge it was issued for; the same code
// under two challenges yields different fingerprints.
func (f *Fingerprinter) Fingerprint(challengeID, code string) string {
	h, err := blake2b.New256(f.key)
	if err != nil {
		// Key length is checked in NewFingerprinter.
		panic(err)
	}
	h.Write([]byte(challengeID))
	h.Write([]byte{0})
	h.Write([]byte(code))
	return base64.RawURLEncoding.EncodeToString(h.Sum(nil))
}

// Matches compares a submitted code against a stored fingerprint in constant
// time.
func (f *Fingerprinter) Matches(challengeID, submitted, fingerprint string) bool {
	got := f.Fingerprint(challengeID, submitted)
	return subtle.ConstantTimeCompare([]byte(got), []byte(fingerprint)) == 1
}
