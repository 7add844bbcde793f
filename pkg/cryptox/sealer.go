package cryptox

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

// ErrSealed is returned when sealed data is truncated or fails authentication.
var ErrSealed = errors.New("cryptox: sealed value is corrupt or was sealed with another key")

// KeySource says where the master key material comes from.
type KeySource struct {
	// Path to a file holding the key material. Takes precedence over Env.
	Path string
	// Env names an environment variable holding the key material.
	Env string
}

// LoadMasterKey reads key material from the source. When neither the file
// nor the environment variable is set, it generates an ephemeral key and
// reports ephemeral=true; values sealed with it do not survive a restart.
func LoadMasterKey(src KeySource) (material []byte, ephemeral bool, err error) {
	if src.Path != "" {
		data, err := os.ReadFile(src.Path)
		if err != nil {
			return nil, false, fmt.Errorf("failed to read master key file: %w", err)
		}
		data = []byte(strings.TrimSpace(string(data)))
		if len(data) == 0 {
			return nil, false, fmt.Errorf("master key file %s is empty", src.Path)
		}
		return data, false, nil
	}

	if src.Env != "" {
		if v := os.Getenv(src.Env); v != "" {
			return []byte(v), false, nil
		}
	}

	material = make([]byte, 32)
	if _, err := rand.Read(material); err != nil {
		return nil, false, fmt.Errorf("failed to generate ephemeral master key: %w", err)
	}
	return material, true, nil
}

// Sealer encrypts small values at rest with XChaCha20-Poly1305. The cipher
// key is derived from the master key material with HKDF-SHA256 so one master
// key can serve several purposes.
//
// Output format: [24-byte nonce][ciphertext][16-byte tag]
type Sealer struct {
	aead cipher.AEAD
}

// NewSealer derives a cipher key for purpose from material.
func NewSealer(material []byte, purpose string) (*Sealer, error) {
	if len(material) == 0 {
		return nil, errors.New("cryptox: empty master key material")
	}

	key := make([]byte, chacha20poly1305.KeySize)
	kdf := hkdf.New(sha256.New, material, nil, []byte("portal/"+purpose))
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	return &Sealer{aead: aead}, nil
}

// Seal encrypts plaintext bound to label. The same label must be given to
// Open, so a value cannot be swapped onto another key.
func (s *Sealer) Seal(plaintext []byte, label string) ([]byte, error) {
	nonce := make([]byte, s.aead.NonceSize(), s.aead.NonceSize()+len(plaintext)+s.aead.Overhead())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}
	return s.aead.Seal(nonce, nonce, plaintext, []byte(label)), nil
}

// Open decrypts a value produced by Seal with the same label.
func (s *Sealer) Open(sealed []byte, label string) ([]byte, error) {
	n := s.aead.NonceSize()
	if len(sealed) < n+s.aead.Overhead() {
		return nil, ErrSealed
	}

	plaintext, err := s.aead.Open(nil, sealed[:n], sealed[n:], []byte(label))
	if err != nil {
		return nil, ErrSealed
	}
	return plaintext, nil
}
