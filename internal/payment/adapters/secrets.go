package adapters

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"io"
	"strings"

	"golang.org/x/crypto/argon2"

	paymentdomain "github.com/smallbiznis/paygate/internal/payment/domain"
)

// EncryptedPrefix marks a setting value sealed with SecretBox.
const EncryptedPrefix = "enc:"

// Envelope versions. Version 1 keys AES with sha256(secret) and is only
// read; new envelopes are version 2, keyed with argon2id over a random salt.
const (
	envelopeSHA256   = 1
	envelopeArgon2id = 2
)

const (
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 2
	argonKeyLen  = 32
	argonSaltLen = 16
)

type encryptedPayload struct {
	Version    int    `json:"version"`
	Salt       string `json:"salt,omitempty"`
	Nonce      string `json:"nonce"`
	Ciphertext string `json:"ciphertext"`
}

// SecretBox seals provider secrets with AES-GCM under a key derived from the
// configured secret.
type SecretBox struct {
	secret []byte
}

func NewSecretBox(secret string) *SecretBox {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return &SecretBox{}
	}
	return &SecretBox{secret: []byte(secret)}
}

func (b *SecretBox) empty() bool {
	return b == nil || len(b.secret) == 0
}

func (b *SecretBox) deriveKey(version int, salt []byte) ([]byte, error) {
	switch version {
	case envelopeSHA256:
		sum := sha256.Sum256(b.secret)
		return sum[:], nil
	case envelopeArgon2id:
		if len(salt) == 0 {
			return nil, paymentdomain.ErrInvalidConfig
		}
		return argon2.IDKey(b.secret, salt, argonTime, argonMemory, argonThreads, argonKeyLen), nil
	}
	return nil, paymentdomain.ErrInvalidConfig
}

// Encrypt returns an "enc:" envelope for plain.
func (b *SecretBox) Encrypt(plain string) (string, error) {
	if b.empty() {
		return "", paymentdomain.ErrEncryptionKeyMissing
	}
	salt := make([]byte, argonSaltLen)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", err
	}
	key, err := b.deriveKey(envelopeArgon2id, salt)
	if err != nil {
		return "", err
	}
	gcm, err := newGCM(key)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}
	sealed := gcm.Seal(nil, nonce, []byte(plain), nil)

	envelope, err := json.Marshal(encryptedPayload{
		Version:    envelopeArgon2id,
		Salt:       base64.RawStdEncoding.EncodeToString(salt),
		Nonce:      base64.RawStdEncoding.EncodeToString(nonce),
		Ciphertext: base64.RawStdEncoding.EncodeToString(sealed),
	})
	if err != nil {
		return "", err
	}
	return EncryptedPrefix + base64.RawURLEncoding.EncodeToString(envelope), nil
}

// Decrypt opens an "enc:" envelope. Values without the prefix are returned as-is.
func (b *SecretBox) Decrypt(value string) (string, error) {
	if !strings.HasPrefix(value, EncryptedPrefix) {
		return value, nil
	}
	if b.empty() {
		return "", paymentdomain.ErrEncryptionKeyMissing
	}
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimPrefix(value, EncryptedPrefix))
	if err != nil {
		return "", paymentdomain.ErrInvalidConfig
	}
	var payload encryptedPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return "", paymentdomain.ErrInvalidConfig
	}
	salt, err := base64.RawStdEncoding.DecodeString(payload.Salt)
	if err != nil {
		return "", paymentdomain.ErrInvalidConfig
	}
	key, err := b.deriveKey(payload.Version, salt)
	if err != nil {
		return "", err
	}
	nonce, err := base64.RawStdEncoding.DecodeString(payload.Nonce)
	if err != nil {
		return "", paymentdomain.ErrInvalidConfig
	}
	ciphertext, err := base64.RawStdEncoding.DecodeString(payload.Ciphertext)
	if err != nil {
		return "", paymentdomain.ErrInvalidConfig
	}
	gcm, err := newGCM(key)
	if err != nil {
		return "", err
	}
	plain, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", paymentdomain.ErrInvalidConfig
	}
	return string(plain), nil
}

// DecryptSettings returns a copy of settings with every envelope opened.
func (b *SecretBox) DecryptSettings(settings map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(settings))
	for key, value := range settings {
		str, ok := value.(string)
		if !ok {
			out[key] = value
			continue
		}
		plain, err := b.Decrypt(str)
		if err != nil {
			return nil, err
		}
		out[key] = plain
	}
	return out, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
