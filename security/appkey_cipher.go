package security

import (
	"bytes"
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/goliatone/go-crm/core"
	"golang.org/x/crypto/hkdf"
)

const envelopePrefix = "crm.secret.v1:"

type Option func(*AppKeyCipher)

// AppKeyCipher encrypts endpoint signing secrets with AES-256-GCM derived
// from an application key. Envelopes are self-describing so key rotation can
// keep decrypting older ciphertexts.
type AppKeyCipher struct {
	key     []byte
	keyID   string
	version int

	// previous keys keyed by id; used for decryption only during rotation.
	previous map[string][]byte
}

type envelope struct {
	KeyID      string `json:"kid"`
	Version    int    `json:"ver"`
	Algorithm  string `json:"alg"`
	Nonce      string `json:"nonce"`
	Ciphertext string `json:"ciphertext"`
}

func WithKeyID(id string) Option {
	return func(c *AppKeyCipher) {
		trimmed := strings.TrimSpace(id)
		if trimmed != "" {
			c.keyID = trimmed
		}
	}
}

func WithVersion(version int) Option {
	return func(c *AppKeyCipher) {
		if version > 0 {
			c.version = version
		}
	}
}

// WithPreviousKey registers a retired key that may still back stored
// ciphertexts. New encryptions never use it.
func WithPreviousKey(id string, keyMaterial []byte) Option {
	return func(c *AppKeyCipher) {
		trimmed := strings.TrimSpace(id)
		material := bytes.TrimSpace(keyMaterial)
		if trimmed == "" || len(material) == 0 {
			return
		}
		if c.previous == nil {
			c.previous = map[string][]byte{}
		}
		c.previous[trimmed] = normalizeKey(material)
	}
}

func NewAppKeyCipher(keyMaterial []byte, opts ...Option) (*AppKeyCipher, error) {
	key := bytes.TrimSpace(keyMaterial)
	if len(key) == 0 {
		return nil, fmt.Errorf("security: key material is required")
	}
	c := &AppKeyCipher{
		key:     normalizeKey(key),
		keyID:   "app-key",
		version: 1,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(c)
	}
	return c, nil
}

func NewAppKeyCipherFromString(key string, opts ...Option) (*AppKeyCipher, error) {
	return NewAppKeyCipher([]byte(key), opts...)
}

func (c *AppKeyCipher) Encrypt(_ context.Context, plaintext []byte) ([]byte, error) {
	if c == nil {
		return nil, fmt.Errorf("security: cipher is nil")
	}
	if len(plaintext) == 0 {
		return nil, fmt.Errorf("security: plaintext is required")
	}
	gcm, err := newGCM(c.key)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("security: nonce generation failed: %w", err)
	}

	sealed := gcm.Seal(nil, nonce, plaintext, nil)
	data, err := json.Marshal(envelope{
		KeyID:      c.keyID,
		Version:    c.version,
		Algorithm:  "aes-256-gcm",
		Nonce:      base64.StdEncoding.EncodeToString(nonce),
		Ciphertext: base64.StdEncoding.EncodeToString(sealed),
	})
	if err != nil {
		return nil, fmt.Errorf("security: encode envelope: %w", err)
	}

	return append([]byte(envelopePrefix), data...), nil
}

func (c *AppKeyCipher) Decrypt(_ context.Context, ciphertext []byte) ([]byte, error) {
	if c == nil {
		return nil, fmt.Errorf("security: cipher is nil")
	}
	if len(ciphertext) == 0 {
		return nil, fmt.Errorf("security: ciphertext is required")
	}

	payload := string(ciphertext)
	if strings.HasPrefix(payload, envelopePrefix) {
		payload = strings.TrimPrefix(payload, envelopePrefix)
	}

	var parsed envelope
	if err := json.Unmarshal([]byte(payload), &parsed); err != nil {
		return nil, fmt.Errorf("security: decode envelope: %w", err)
	}

	key, err := c.keyFor(parsed.KeyID)
	if err != nil {
		return nil, err
	}

	nonce, err := base64.StdEncoding.DecodeString(parsed.Nonce)
	if err != nil {
		return nil, fmt.Errorf("security: decode nonce: %w", err)
	}
	sealed, err := base64.StdEncoding.DecodeString(parsed.Ciphertext)
	if err != nil {
		return nil, fmt.Errorf("security: decode ciphertext payload: %w", err)
	}

	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	plaintext, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, fmt.Errorf("security: decrypt payload: %w", err)
	}
	return plaintext, nil
}

func (c *AppKeyCipher) KeyID() string {
	if c == nil {
		return ""
	}
	return c.keyID
}

func (c *AppKeyCipher) Version() int {
	if c == nil {
		return 0
	}
	return c.version
}

func (c *AppKeyCipher) keyFor(keyID string) ([]byte, error) {
	keyID = strings.TrimSpace(keyID)
	if keyID == "" || keyID == c.keyID {
		return c.key, nil
	}
	if previous, ok := c.previous[keyID]; ok {
		return previous, nil
	}
	return nil, fmt.Errorf("security: no key material for key id %q", keyID)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("security: create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("security: create gcm: %w", err)
	}
	return gcm, nil
}

// normalizeKey derives a 32-byte AES-256 key from app key material of any
// length. HKDF with a fixed info label keeps the derivation deterministic so
// the same app key always yields the same cipher key.
func normalizeKey(value []byte) []byte {
	reader := hkdf.New(sha256.New, value, nil, []byte("crm.endpoint-secret.v1"))
	key := make([]byte, 32)
	if _, err := io.ReadFull(reader, key); err != nil {
		// Only reachable if the HKDF stream is exhausted, which a single
		// 32-byte read cannot do.
		panic(fmt.Sprintf("security: hkdf derivation failed: %v", err))
	}
	return key
}

var _ core.SecretCipher = (*AppKeyCipher)(nil)
