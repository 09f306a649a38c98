package cipher

// SensitiveField pairs a stored value with the flag saying whether it is
// ciphertext. Value and Encrypted are always written together.
type SensitiveField struct {
	Value     *string
	Encrypted bool
}

// Seal encrypts plaintext for storage. Nil or empty input yields an empty
// field without touching the cipher.
func Seal(c Cipher, plaintext *string) (SensitiveField, error) {
	if plaintext == nil || *plaintext == "" {
		return SensitiveField{}, nil
	}
	ct, err := c.Encrypt(*plaintext)
	if err != nil {
		return SensitiveField{}, err
	}
	return SensitiveField{Value: &ct, Encrypted: true}, nil
}

// Reveal returns the plaintext. Values not flagged as encrypted are returned
// as stored.
func (f SensitiveField) Reveal(c Cipher) (*string, error) {
	if f.Value == nil || *f.Value == "" || !f.Encrypted {
		return f.Value, nil
	}
	pt, err := c.Decrypt(*f.Value)
	if err != nil {
		return nil, err
	}
	return &pt, nil
}

// IsZero reports whether no value is stored.
func (f SensitiveField) IsZero() bool {
	return f.Value == nil || *f.Value == ""
}
