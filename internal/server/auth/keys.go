// Package auth holds the server's credential primitives: key derivation,
// purpose-scoped JWTs, password hashing and the anti-timing delay.
package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"

	"golang.org/x/crypto/hkdf"
)

const subkeySize = 32

// Keys are independent subkeys derived from the single configured secret,
// so a leak of one use cannot be replayed against another.
type Keys struct {
	JWT         []byte
	ResetCode   []byte
	PasswordTag []byte
}

// DeriveKeys expands secret with HKDF-SHA256 into one subkey per use.
func DeriveKeys(secret []byte) (Keys, error) {
	var k Keys
	for _, d := range []struct {
		info string
		dst  *[]byte
	}{
		{"housing/jwt", &k.JWT},
		{"housing/reset-code", &k.ResetCode},
		{"housing/password-tag", &k.PasswordTag},
	} {
		buf := make([]byte, subkeySize)
		if _, err := io.ReadFull(hkdf.New(sha256.New, secret, nil, []byte(d.info)), buf); err != nil {
			return Keys{}, err
		}
		*d.dst = buf
	}
	return k, nil
}

// PasswordTag fingerprints a stored password hash. Embedding it in a reset
// token ties the token to the password it is allowed to replace.
func PasswordTag(key []byte, passwordHash string) string {
	m := hmac.New(sha256.New, key)
	m.Write([]byte(passwordHash))
	return hex.EncodeToString(m.Sum(nil)[:16])
}
