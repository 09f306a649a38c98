package cipher

import (
	"bytes"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "custodian/pkg/domain-errors"
)

//go:generate mockgen -source=cipher.go -destination=mocks/cipher-mocks.go -package=mocks Cipher

// legacyVector was produced by the previous deployment's encrypt routine with
// secret "test-secret" and IV 000102...0f.
const legacyVector = "000102030405060708090a0b0c0d0e0f:151e5726783c59910eace1a56eb965d0:ff7fa4f1d169a47e111b55cc5218"

func mustCipher(t *testing.T, secret string, opts ...Option) *AESGCM {
	t.Helper()
	c, err := NewAESGCM(secret, opts...)
	require.NoError(t, err)
	return c
}

func TestDeriveKey(t *testing.T) {
	key, err := DeriveKey("test-secret")
	require.NoError(t, err)
	assert.Len(t, key, 32)
	assert.Equal(t, "97b216f5bd666b4aede842f096ff9d82b70f907fb6b3c2e17d720bd996ec74f9", hex.EncodeToString(key))
}

func TestAESGCM(t *testing.T) {
	c := mustCipher(t, "test-secret")

	t.Run("round trip", func(t *testing.T) {
		for _, pt := range []string{"123.456.789-09", "MG-12.345.678", "á", strings.Repeat("x", 4096)} {
			ct, err := c.Encrypt(pt)
			require.NoError(t, err)
			assert.True(t, LooksEncrypted(ct))
			got, err := c.Decrypt(ct)
			require.NoError(t, err)
			assert.Equal(t, pt, got)
		}
	})

	t.Run("fresh iv per call", func(t *testing.T) {
		a, err := c.Encrypt("same")
		require.NoError(t, err)
		b, err := c.Encrypt("same")
		require.NoError(t, err)
		assert.NotEqual(t, a, b)
	})

	t.Run("matches stored format", func(t *testing.T) {
		iv := []byte{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15}
		fixed := mustCipher(t, "test-secret", WithRandom(bytes.NewReader(iv)))
		ct, err := fixed.Encrypt("123.456.789-09")
		require.NoError(t, err)
		assert.Equal(t, legacyVector, ct)
	})

	t.Run("decrypts legacy records", func(t *testing.T) {
		got, err := c.Decrypt(legacyVector)
		require.NoError(t, err)
		assert.Equal(t, "123.456.789-09", got)
	})

	t.Run("tampered ciphertext fails", func(t *testing.T) {
		ct, err := c.Encrypt("123.456.789-09")
		require.NoError(t, err)
		parts := strings.Split(ct, ":")
		body := []byte(parts[2])
		if body[0] == 'a' {
			body[0] = 'b'
		} else {
			body[0] = 'a'
		}
		_, err = c.Decrypt(parts[0] + ":" + parts[1] + ":" + string(body))
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeCrypto))
	})

	t.Run("malformed ciphertext fails", func(t *testing.T) {
		for _, bad := range []string{"", "plain", "a:b", "zz:zz:zz", "00:00:00", legacyVector + ":extra"} {
			_, err := c.Decrypt(bad)
			require.Error(t, err, bad)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeCrypto), bad)
		}
	})

	t.Run("wrong key fails", func(t *testing.T) {
		other := mustCipher(t, "another-secret")
		_, err := other.Decrypt(legacyVector)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeCrypto))
	})
}

func TestKeyRotation(t *testing.T) {
	rotated := mustCipher(t, "new-secret", WithLegacySecrets("test-secret"))

	got, err := rotated.Decrypt(legacyVector)
	require.NoError(t, err)
	assert.Equal(t, "123.456.789-09", got)

	ct, err := rotated.Encrypt("fresh")
	require.NoError(t, err)
	old := mustCipher(t, "test-secret")
	_, err = old.Decrypt(ct)
	assert.Error(t, err, "new writes use the primary key")
}

func TestNewAESGCM_RequiresSecret(t *testing.T) {
	_, err := NewAESGCM("")
	assert.Error(t, err)
}

func TestAnonymize(t *testing.T) {
	assert.Equal(t, "9f86d081884c7d65", Anonymize("test"))
	assert.Len(t, Anonymize("maria@example.org"), 16)
	assert.Equal(t, Anonymize("x"), Anonymize("x"))
}

func TestSensitiveField(t *testing.T) {
	c := mustCipher(t, "test-secret")

	t.Run("seal skips empty values", func(t *testing.T) {
		f, err := Seal(c, nil)
		require.NoError(t, err)
		assert.True(t, f.IsZero())
		assert.False(t, f.Encrypted)

		empty := ""
		f, err = Seal(c, &empty)
		require.NoError(t, err)
		assert.True(t, f.IsZero())
	})

	t.Run("seal then reveal", func(t *testing.T) {
		pt := "123.456.789-09"
		f, err := Seal(c, &pt)
		require.NoError(t, err)
		assert.True(t, f.Encrypted)
		assert.NotEqual(t, pt, *f.Value)

		got, err := f.Reveal(c)
		require.NoError(t, err)
		assert.Equal(t, pt, *got)
	})

	t.Run("legacy plaintext is returned as stored", func(t *testing.T) {
		v := "123.456.789-09"
		got, err := SensitiveField{Value: &v}.Reveal(c)
		require.NoError(t, err)
		assert.Equal(t, v, *got)
	})

	t.Run("corrupt flagged value surfaces crypto error", func(t *testing.T) {
		v := "not-ciphertext"
		_, err := SensitiveField{Value: &v, Encrypted: true}.Reveal(c)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeCrypto))
	})
}
