package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateKey(t *testing.T) {
	key, err := GenerateKey()
	require.NoError(t, err)
	assert.Len(t, key, KeySize)

	other, err := GenerateKey()
	require.NoError(t, err)
	assert.NotEqual(t, key, other)
}

func TestNewBatchEncryptor_UnknownMode(t *testing.T) {
	_, err := NewBatchEncryptor(Mode("des"))
	assert.Error(t, err)
}

func TestBatchEncryptor_RoundTrip(t *testing.T) {
	plaintexts := [][]byte{
		[]byte(`{"device_name":"D1","date":"2023-08-08","data":[]}`),
		[]byte(""),
		[]byte("exactly 16 bytes"),
		make([]byte, 4096),
	}

	for _, mode := range []Mode{ModeECB, ModeGCM} {
		t.Run(string(mode), func(t *testing.T) {
			enc, err := NewBatchEncryptor(mode)
			require.NoError(t, err)

			key, err := GenerateKey()
			require.NoError(t, err)

			for _, plaintext := range plaintexts {
				ciphertext, err := enc.Encrypt(plaintext, key)
				require.NoError(t, err)

				decrypted, err := enc.Decrypt(ciphertext, key)
				require.NoError(t, err)
				assert.Equal(t, plaintext, decrypted)
			}
		})
	}
}

func TestBatchEncryptor_ECBIsDeterministic(t *testing.T) {
	enc, err := NewBatchEncryptor(ModeECB)
	require.NoError(t, err)

	key, err := GenerateKey()
	require.NoError(t, err)

	plaintext := []byte("the same batch twice")

	first, err := enc.Encrypt(plaintext, key)
	require.NoError(t, err)
	second, err := enc.Encrypt(plaintext, key)
	require.NoError(t, err)

	// The documented weakness of the IV-less mode.
	assert.Equal(t, first, second)
}

func TestBatchEncryptor_GCMIsRandomized(t *testing.T) {
	enc, err := NewBatchEncryptor(ModeGCM)
	require.NoError(t, err)

	key, err := GenerateKey()
	require.NoError(t, err)

	plaintext := []byte("the same batch twice")

	first, err := enc.Encrypt(plaintext, key)
	require.NoError(t, err)
	second, err := enc.Encrypt(plaintext, key)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestBatchEncryptor_WrongKey(t *testing.T) {
	for _, mode := range []Mode{ModeECB, ModeGCM} {
		t.Run(string(mode), func(t *testing.T) {
			enc, err := NewBatchEncryptor(mode)
			require.NoError(t, err)

			key, err := GenerateKey()
			require.NoError(t, err)
			wrong, err := GenerateKey()
			require.NoError(t, err)

			ciphertext, err := enc.Encrypt([]byte(`{"data":[1,2,3]}`), key)
			require.NoError(t, err)

			_, err = enc.Decrypt(ciphertext, wrong)
			if mode == ModeGCM {
				// GCM authenticates, so a wrong key always fails.
				assert.ErrorIs(t, err, ErrDecryption)
			} else if err == nil {
				// ECB has no authentication; a wrong key that happens to
				// produce valid padding yields garbage, never the plaintext.
				garbage, _ := enc.Decrypt(ciphertext, wrong)
				assert.NotEqual(t, []byte(`{"data":[1,2,3]}`), garbage)
			}
		})
	}
}

func TestBatchEncryptor_DecryptBadInput(t *testing.T) {
	enc, err := NewBatchEncryptor(ModeECB)
	require.NoError(t, err)

	key, err := GenerateKey()
	require.NoError(t, err)

	_, err = enc.Decrypt("!!!not base64!!!", key)
	assert.ErrorIs(t, err, ErrDecryption)

	_, err = enc.Decrypt("YWJj", key) // 3 bytes, not block aligned
	assert.ErrorIs(t, err, ErrDecryption)
}
