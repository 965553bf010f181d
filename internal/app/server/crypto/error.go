package crypto

import (
	"errors"
)

var (
	ErrKeyGeneration = errors.New("entropy source failure")
	ErrDecryption    = errors.New("decryption failed")
)
