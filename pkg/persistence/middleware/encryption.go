package middleware

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/skillgate/skillgate/pkg/domain"
	"github.com/skillgate/skillgate/pkg/ports"
)

// EncryptionConfig holds the keys for encryption and decryption.
type EncryptionConfig struct {
	// ActiveKey is the key used for encrypting new entries.
	// Must be 32 bytes for AES-256.
	ActiveKey []byte

	// FallbackKeys is a list of old keys to try when decryption fails.
	// This enables zero-downtime key rotation.
	FallbackKeys [][]byte
}

type encryptionMiddleware struct {
	next   ports.AuditStore
	config EncryptionConfig
}

// NewEncryptionMiddleware creates a middleware that encrypts audit entries
// at rest using AES-GCM envelope encryption. The stored envelope keeps the
// execution id, skill id, status and timestamps in the clear so the trail
// stays filterable; parameters, result and error are opaque.
func NewEncryptionMiddleware(config EncryptionConfig) Middleware {
	if len(config.ActiveKey) != 32 {
		panic("active key must be 32 bytes (AES-256)")
	}
	return func(next ports.AuditStore) ports.AuditStore {
		return &encryptionMiddleware{
			next:   next,
			config: config,
		}
	}
}

func (m *encryptionMiddleware) Append(ctx context.Context, entry domain.AuditEntry) error {
	plainText, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal audit entry: %w", err)
	}

	ciphertext, err := encrypt(plainText, m.config.ActiveKey)
	if err != nil {
		return fmt.Errorf("failed to encrypt audit entry: %w", err)
	}

	envelope := domain.AuditEntry{
		ExecutionID: entry.ExecutionID,
		SkillID:     entry.SkillID,
		Status:      entry.Status,
		StartedAt:   entry.StartedAt,
		EndedAt:     entry.EndedAt,
		Parameters: map[string]any{
			"__encrypted__": base64.StdEncoding.EncodeToString(ciphertext),
		},
	}

	return m.next.Append(ctx, envelope)
}

func (m *encryptionMiddleware) List(ctx context.Context, skillID string) ([]domain.AuditEntry, error) {
	envelopes, err := m.next.List(ctx, skillID)
	if err != nil {
		return nil, err
	}

	entries := make([]domain.AuditEntry, 0, len(envelopes))
	for _, envelope := range envelopes {
		encryptedStr, ok := envelope.Parameters["__encrypted__"].(string)
		if !ok {
			// Fail secure: once encryption is configured, a plain entry in
			// the store is either tampering or a misconfiguration.
			return nil, errors.New("audit entry is missing encrypted data envelope")
		}

		ciphertext, err := base64.StdEncoding.DecodeString(encryptedStr)
		if err != nil {
			return nil, fmt.Errorf("failed to decode ciphertext base64: %w", err)
		}

		plainText, err := decryptWithRotation(ciphertext, m.config.ActiveKey, m.config.FallbackKeys)
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt audit entry: %w", err)
		}

		var entry domain.AuditEntry
		if err := json.Unmarshal(plainText, &entry); err != nil {
			return nil, fmt.Errorf("failed to unmarshal decrypted audit entry: %w", err)
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

// Helpers

func encrypt(plaintext []byte, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

func decryptWithRotation(ciphertext []byte, activeKey []byte, fallbackKeys [][]byte) ([]byte, error) {
	// Try active key first
	if plain, err := decrypt(ciphertext, activeKey); err == nil {
		return plain, nil
	}

	// Try fallbacks in order
	for _, key := range fallbackKeys {
		if plain, err := decrypt(ciphertext, key); err == nil {
			return plain, nil
		}
	}

	return nil, errors.New("decryption failed with all available keys")
}

func decrypt(ciphertext []byte, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	if len(ciphertext) < gcm.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}

	nonce := ciphertext[:gcm.NonceSize()]
	ciphertextBytes := ciphertext[gcm.NonceSize():]

	return gcm.Open(nil, nonce, ciphertextBytes, nil)
}
