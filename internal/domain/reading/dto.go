package reading

import (
	"encoding/json"
	"fmt"
)

// ParseIngest decodes the gateway's data-input payload: one reading plus a
// deviceName field. The deviceName is stripped before the reading is stored,
// it would only duplicate the buffer key.
func ParseIngest(data []byte) (string, Reading, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return "", Reading{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	for name, value := range raw {
		if string(value) == "null" {
			return "", Reading{}, fmt.Errorf("%w: missing value for field %q", ErrInvalid, name)
		}
	}

	nameRaw, ok := raw["deviceName"]
	if !ok {
		return "", Reading{}, fmt.Errorf("%w: missing value for field \"deviceName\"", ErrInvalid)
	}
	var deviceName string
	if err := json.Unmarshal(nameRaw, &deviceName); err != nil {
		return "", Reading{}, fmt.Errorf("%w: field \"deviceName\": %v", ErrInvalid, err)
	}
	if deviceName == "" {
		return "", Reading{}, fmt.Errorf("%w: missing value for field \"deviceName\"", ErrInvalid)
	}
	delete(raw, "deviceName")

	stripped, err := json.Marshal(raw)
	if err != nil {
		return "", Reading{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	var r Reading
	if err := json.Unmarshal(stripped, &r); err != nil {
		return "", Reading{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if err := r.Validate(); err != nil {
		return "", Reading{}, err
	}

	return deviceName, r, nil
}
