package reading

import (
	"errors"
)

var (
	ErrInvalid = errors.New("invalid reading data")
)
