package export

import (
	"errors"
)

var (
	ErrMalformedBatch = errors.New("batch is not a device/date/data triple")
)
