// Package cipher implements the field-level encryption used for sensitive
// identity numbers.
//
// Ciphertext is the text form hex(iv):hex(tag):hex(ciphertext) produced by
// AES-256-GCM with a 16-byte IV. Keys are derived from a configured secret with
// scrypt so records written by earlier deployments stay readable.
package cipher

import (
	"crypto/aes"
	stdcipher "crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/scrypt"

	dErrors "custodian/pkg/domain-errors"
)

const (
	ivSize  = 16
	tagSize = 16
	keySize = 32

	// scrypt parameters and salt are fixed by the stored data format.
	scryptN = 16384
	scryptR = 8
	scryptP = 1
)

var kdfSalt = []byte("salt")

// Cipher encrypts and decrypts individual string fields.
type Cipher interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

// AESGCM is a keyring: it encrypts with the primary key and decrypts with the
// primary key first, then each legacy key in order.
type AESGCM struct {
	primary stdcipher.AEAD
	legacy  []stdcipher.AEAD
	random  io.Reader
}

type Option func(*options)

type options struct {
	legacySecrets []string
	random        io.Reader
}

// WithLegacySecrets adds retired secrets that are still accepted for decryption.
func WithLegacySecrets(secrets ...string) Option {
	return func(o *options) {
		o.legacySecrets = append(o.legacySecrets, secrets...)
	}
}

// WithRandom replaces the IV source. Tests only.
func WithRandom(r io.Reader) Option {
	return func(o *options) {
		o.random = r
	}
}

// NewAESGCM derives the keyring from secrets.
func NewAESGCM(secret string, opts ...Option) (*AESGCM, error) {
	if secret == "" {
		return nil, errors.New("encryption secret is required")
	}
	o := options{random: rand.Reader}
	for _, opt := range opts {
		opt(&o)
	}

	primary, err := newAEAD(secret)
	if err != nil {
		return nil, err
	}
	c := &AESGCM{primary: primary, random: o.random}
	for _, s := range o.legacySecrets {
		if s == "" {
			continue
		}
		aead, err := newAEAD(s)
		if err != nil {
			return nil, err
		}
		c.legacy = append(c.legacy, aead)
	}
	return c, nil
}

// DeriveKey returns the 32-byte AES key for a secret.
func DeriveKey(secret string) ([]byte, error) {
	return scrypt.Key([]byte(secret), kdfSalt, scryptN, scryptR, scryptP, keySize)
}

func newAEAD(secret string) (stdcipher.AEAD, error) {
	key, err := DeriveKey(secret)
	if err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("aes cipher: %w", err)
	}
	aead, err := stdcipher.NewGCMWithNonceSize(block, ivSize)
	if err != nil {
		return nil, fmt.Errorf("gcm: %w", err)
	}
	return aead, nil
}

func (c *AESGCM) Encrypt(plaintext string) (string, error) {
	iv := make([]byte, ivSize)
	if _, err := io.ReadFull(c.random, iv); err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeCrypto, "generate iv")
	}
	sealed := c.primary.Seal(nil, iv, []byte(plaintext), nil)
	ct, tag := sealed[:len(sealed)-tagSize], sealed[len(sealed)-tagSize:]
	return hex.EncodeToString(iv) + ":" + hex.EncodeToString(tag) + ":" + hex.EncodeToString(ct), nil
}

func (c *AESGCM) Decrypt(ciphertext string) (string, error) {
	iv, tag, ct, err := split(ciphertext)
	if err != nil {
		return "", err
	}
	sealed := make([]byte, 0, len(ct)+len(tag))
	sealed = append(sealed, ct...)
	sealed = append(sealed, tag...)

	if pt, err := c.primary.Open(nil, iv, sealed, nil); err == nil {
		return string(pt), nil
	}
	for _, aead := range c.legacy {
		if pt, err := aead.Open(nil, iv, sealed, nil); err == nil {
			return string(pt), nil
		}
	}
	return "", dErrors.New(dErrors.CodeCrypto, "ciphertext failed authentication")
}

func split(ciphertext string) (iv, tag, ct []byte, err error) {
	parts := strings.Split(ciphertext, ":")
	if len(parts) != 3 {
		return nil, nil, nil, dErrors.New(dErrors.CodeCrypto, "malformed ciphertext")
	}
	if iv, err = hex.DecodeString(parts[0]); err != nil || len(iv) != ivSize {
		return nil, nil, nil, dErrors.New(dErrors.CodeCrypto, "malformed ciphertext iv")
	}
	if tag, err = hex.DecodeString(parts[1]); err != nil || len(tag) != tagSize {
		return nil, nil, nil, dErrors.New(dErrors.CodeCrypto, "malformed ciphertext tag")
	}
	if ct, err = hex.DecodeString(parts[2]); err != nil {
		return nil, nil, nil, dErrors.New(dErrors.CodeCrypto, "malformed ciphertext body")
	}
	return iv, tag, ct, nil
}

// LooksEncrypted reports whether v has the stored ciphertext shape. The legacy
// migration uses it to avoid double-encrypting values whose flag was never set.
func LooksEncrypted(v string) bool {
	_, _, _, err := split(v)
	return err == nil
}

// Anonymize returns a short irreversible token for v: the first 16 hex
// characters of its SHA-256.
func Anonymize(v string) string {
	sum := sha256.Sum256([]byte(v))
	return hex.EncodeToString(sum[:])[:16]
}
