// Package crypt protects the structural meta parameters a rendered form
// carries in its hidden _meta input. The payload is encrypted and
// authenticated so a visitor cannot redirect a form at other content.
package crypt

import (
	"crypto/sha256"
	"errors"
	"fmt"

	"github.com/gorilla/securecookie"
)

// ErrMalformedMeta is returned when a meta payload fails to decrypt or parse.
var ErrMalformedMeta = errors.New("malformed meta payload")

const payloadName = "workshop_meta"

// Crypt encrypts and decrypts meta payloads symmetrically.
type Crypt struct {
	sc *securecookie.SecureCookie
}

// New derives fixed-length keys from the configured secrets. Empty secrets
// fall back to random per-process keys, which invalidates in-flight forms on
// restart.
func New(hashSecret, blockSecret string) *Crypt {
	var hashKey, blockKey []byte
	if hashSecret == "" {
		hashKey = securecookie.GenerateRandomKey(32)
	} else {
		k := sha256.Sum256([]byte(hashSecret))
		hashKey = k[:]
	}
	if blockSecret == "" {
		blockKey = securecookie.GenerateRandomKey(32)
	} else {
		k := sha256.Sum256([]byte(blockSecret))
		blockKey = k[:]
	}

	sc := securecookie.New(hashKey, blockKey)
	sc.SetSerializer(securecookie.JSONEncoder{})
	sc.MaxAge(0)
	return &Crypt{sc: sc}
}

// Encrypt seals a meta mapping into an opaque string for embedding in a form.
func (c *Crypt) Encrypt(meta map[string]string) (string, error) {
	encoded, err := c.sc.Encode(payloadName, meta)
	if err != nil {
		return "", fmt.Errorf("encrypt meta: %w", err)
	}
	return encoded, nil
}

// Decrypt opens a sealed meta payload. Any failure, tampering included, maps
// to ErrMalformedMeta.
func (c *Crypt) Decrypt(payload string) (map[string]string, error) {
	var meta map[string]string
	if err := c.sc.Decode(payloadName, payload, &meta); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMeta, err)
	}
	return meta, nil
}
