package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
)

// KeySize is the symmetric key length: 256 bits, one fresh key per batch.
const KeySize = 32

// Mode selects the block cipher mode for batch encryption.
//
// ModeECB matches the deployed network: deterministic, no IV, so identical
// plaintext batches under the same key produce identical ciphertexts. That
// is a known weakness of the modeled system, kept for compatibility and
// surfaced here as a configuration point rather than hard-wired.
// ModeGCM is the randomized alternative for new deployments.
type Mode string

const (
	ModeECB Mode = "ecb"
	ModeGCM Mode = "gcm"
)

// BatchEncryptor encrypts serialized device-day batches under per-batch keys.
// Ciphertexts are base64 strings, the form pushed to the object store.
type BatchEncryptor struct {
	mode Mode
}

func NewBatchEncryptor(mode Mode) (*BatchEncryptor, error) {
	switch mode {
	case ModeECB, ModeGCM:
		return &BatchEncryptor{mode: mode}, nil
	default:
		return nil, fmt.Errorf("unknown cipher mode %q", mode)
	}
}

func (e *BatchEncryptor) Mode() Mode {
	return e.mode
}

// GenerateKey returns a fresh random symmetric key. It fails only when the
// entropy source does.
func GenerateKey() ([]byte, error) {
	key := make([]byte, KeySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyGeneration, err)
	}
	return key, nil
}

// Encrypt encrypts plaintext under key and returns base64 ciphertext.
func (e *BatchEncryptor) Encrypt(plaintext, key []byte) (string, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", fmt.Errorf("create cipher: %w", err)
	}

	var raw []byte
	switch e.mode {
	case ModeGCM:
		raw, err = sealGCM(block, plaintext)
	default:
		raw, err = sealECB(block, plaintext)
	}
	if err != nil {
		return "", err
	}

	return base64.StdEncoding.EncodeToString(raw), nil
}

// Decrypt reverses Encrypt. A key/ciphertext mismatch surfaces as
// ErrDecryption, typically meaning the key was never transferred to the
// calling organization.
func (e *BatchEncryptor) Decrypt(ciphertextB64 string, key []byte) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(ciphertextB64)
	if err != nil {
		return nil, fmt.Errorf("%w: decode base64: %v", ErrDecryption, err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}

	switch e.mode {
	case ModeGCM:
		return openGCM(block, raw)
	default:
		return openECB(block, raw)
	}
}

func sealECB(block cipher.Block, plaintext []byte) ([]byte, error) {
	padded := pkcs7Pad(plaintext, block.BlockSize())
	out := make([]byte, len(padded))
	for i := 0; i < len(padded); i += block.BlockSize() {
		block.Encrypt(out[i:i+block.BlockSize()], padded[i:i+block.BlockSize()])
	}
	return out, nil
}

func openECB(block cipher.Block, raw []byte) ([]byte, error) {
	if len(raw) == 0 || len(raw)%block.BlockSize() != 0 {
		return nil, fmt.Errorf("%w: ciphertext is not a whole number of blocks", ErrDecryption)
	}

	out := make([]byte, len(raw))
	for i := 0; i < len(raw); i += block.BlockSize() {
		block.Decrypt(out[i:i+block.BlockSize()], raw[i:i+block.BlockSize()])
	}

	unpadded, err := pkcs7Unpad(out, block.BlockSize())
	if err != nil {
		return nil, err
	}
	return unpadded, nil
}

func sealGCM(block cipher.Block, plaintext []byte) ([]byte, error) {
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create GCM: %w", err)
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyGeneration, err)
	}

	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

func openGCM(block cipher.Block, raw []byte) ([]byte, error) {
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create GCM: %w", err)
	}

	if len(raw) < gcm.NonceSize() {
		return nil, fmt.Errorf("%w: ciphertext too short", ErrDecryption)
	}

	nonce, ciphertext := raw[:gcm.NonceSize()], raw[gcm.NonceSize():]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecryption, err)
	}
	return plaintext, nil
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	padding := blockSize - len(data)%blockSize
	padded := make([]byte, len(data)+padding)
	copy(padded, data)
	for i := len(data); i < len(padded); i++ {
		padded[i] = byte(padding)
	}
	return padded
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, fmt.Errorf("%w: invalid padded length", ErrDecryption)
	}

	padding := int(data[len(data)-1])
	if padding == 0 || padding > blockSize {
		return nil, fmt.Errorf("%w: invalid padding", ErrDecryption)
	}
	for _, b := range data[len(data)-padding:] {
		if int(b) != padding {
			return nil, fmt.Errorf("%w: invalid padding", ErrDecryption)
		}
	}

	return data[:len(data)-padding], nil
}
