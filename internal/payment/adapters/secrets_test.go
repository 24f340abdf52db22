package adapters

import (
	"encoding/base64"
	"encoding/json"
	"testing"

	paymentdomain "github.com/smallbiznis/paygate/internal/payment/domain"
	"github.com/stretchr/testify/require"
)

func TestSecretBoxRoundTrip(t *testing.T) {
	box := NewSecretBox("provider-secret")
	sealed, err := box.Encrypt("sk_live_abc")
	require.NoError(t, err)
	require.Contains(t, sealed, EncryptedPrefix)
	require.NotContains(t, sealed, "sk_live_abc")

	settings, err := box.DecryptSettings(map[string]any{
		"secret_key": sealed,
		"base_url":   "https://api.stripe.com",
		"timeout":    5,
	})
	require.NoError(t, err)
	require.Equal(t, "sk_live_abc", settings["secret_key"])
	require.Equal(t, "https://api.stripe.com", settings["base_url"])
	require.Equal(t, 5, settings["timeout"])
}

func TestSecretBoxWrongKey(t *testing.T) {
	sealed, err := NewSecretBox("one").Encrypt("value")
	require.NoError(t, err)

	_, err = NewSecretBox("two").Decrypt(sealed)
	require.ErrorIs(t, err, paymentdomain.ErrInvalidConfig)
}

func TestSecretBoxMissingKey(t *testing.T) {
	sealed, err := NewSecretBox("one").Encrypt("value")
	require.NoError(t, err)

	_, err = NewSecretBox("").Decrypt(sealed)
	require.ErrorIs(t, err, paymentdomain.ErrEncryptionKeyMissing)

	plain, err := NewSecretBox("").Decrypt("not-sealed")
	require.NoError(t, err)
	require.Equal(t, "not-sealed", plain)
}

func TestSettingsAccessors(t *testing.T) {
	s := Settings{"a": "  x ", "n": "42", "f": 7.0, "d": "3s"}
	require.Equal(t, "x", s.String("a"))
	n, err := s.Int64("n")
	require.NoError(t, err)
	require.EqualValues(t, 42, n)
	f, err := s.Int64("f")
	require.NoError(t, err)
	require.EqualValues(t, 7, f)
	require.Error(t, s.Require("a", "missing"))
}

func TestSecretBoxReadsSHA256Envelope(t *testing.T) {
	box := NewSecretBox("legacy")
	key, err := box.deriveKey(envelopeSHA256, nil)
	require.NoError(t, err)
	gcm, err := newGCM(key)
	require.NoError(t, err)

	nonce := make([]byte, gcm.NonceSize())
	envelope, err := json.Marshal(encryptedPayload{
		Version:    envelopeSHA256,
		Nonce:      base64.RawStdEncoding.EncodeToString(nonce),
		Ciphertext: base64.RawStdEncoding.EncodeToString(gcm.Seal(nil, nonce, []byte("whsec_old"), nil)),
	})
	require.NoError(t, err)

	plain, err := box.Decrypt(EncryptedPrefix + base64.RawURLEncoding.EncodeToString(envelope))
	require.NoError(t, err)
	require.Equal(t, "whsec_old", plain)
}

func TestSecretBoxSaltsEachEnvelope(t *testing.T) {
	box := NewSecretBox("provider-secret")
	first, err := box.Encrypt("same")
	require.NoError(t, err)
	second, err := box.Encrypt("same")
	require.NoError(t, err)
	require.NotEqual(t, first, second)
}
