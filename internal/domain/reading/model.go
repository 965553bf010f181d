package reading

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// DateLayout is the calendar-day form used for batch dates and asset ids,
// always derived from UTC timestamps.
const DateLayout = "2006-01-02"

// Measurement is a single named sample value with its unit.
type Measurement struct {
	Unit   string  `json:"unit"`
	Amount float64 `json:"amount"`
}

// Reading is one timestamped sensor sample. On the wire it is a flat JSON
// object: a "time" field plus one entry per measurement, e.g.
//
//	{"time": "2023-08-08T10:00:00Z", "temperature": {"unit": "celsius", "amount": 21.4}}
//
// Readings are immutable once appended to a batch.
type Reading struct {
	Time         time.Time
	Measurements map[string]Measurement
}

func (r Reading) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(r.Measurements)+1)
	out["time"] = r.Time.UTC().Format(time.RFC3339)
	for name, m := range r.Measurements {
		out[name] = m
	}
	return json.Marshal(out)
}

func (r *Reading) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	r.Measurements = make(map[string]Measurement, len(raw))
	for name, value := range raw {
		if name == "time" {
			var ts string
			if err := json.Unmarshal(value, &ts); err != nil {
				return fmt.Errorf("field %q: %w", name, err)
			}
			parsed, err := time.Parse(time.RFC3339, ts)
			if err != nil {
				return fmt.Errorf("field %q: %w", name, err)
			}
			r.Time = parsed.UTC()
			continue
		}

		var m Measurement
		if err := json.Unmarshal(value, &m); err != nil {
			return fmt.Errorf("field %q: %w", name, err)
		}
		r.Measurements[name] = m
	}

	return nil
}

// Validate reports the first structurally invalid field of the reading.
// Field order is sorted so the reported field is deterministic.
func (r Reading) Validate() error {
	if r.Time.IsZero() {
		return fmt.Errorf("%w: missing value for field \"time\"", ErrInvalid)
	}
	if len(r.Measurements) == 0 {
		return fmt.Errorf("%w: reading has no measurements", ErrInvalid)
	}

	names := make([]string, 0, len(r.Measurements))
	for name := range r.Measurements {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if name == "" {
			return fmt.Errorf("%w: measurement with empty name", ErrInvalid)
		}
		if r.Measurements[name].Unit == "" {
			return fmt.Errorf("%w: missing unit for field %q", ErrInvalid, name)
		}
	}

	return nil
}

// Day returns the UTC calendar day the reading was captured on.
func (r Reading) Day() string {
	return r.Time.UTC().Format(DateLayout)
}

// DeviceDayBatch is one device's ordered readings for one calendar day.
// The batch day is derived from the first reading only; a batch whose
// readings span a day boundary keeps the first reading's day.
type DeviceDayBatch struct {
	DeviceName string    `json:"device_name"`
	Date       string    `json:"date"`
	Data       []Reading `json:"data"`
}

// NewBatch builds a batch for a device, dating it from the first reading.
func NewBatch(deviceName string, readings []Reading) DeviceDayBatch {
	b := DeviceDayBatch{DeviceName: deviceName, Data: readings}
	if len(readings) > 0 {
		b.Date = readings[0].Day()
	}
	return b
}

// Validate checks the batch is exactly the device/date/data triple expected
// by the export pipeline.
func (b DeviceDayBatch) Validate() error {
	if b.DeviceName == "" {
		return fmt.Errorf("%w: missing device_name", ErrInvalid)
	}
	if b.Date == "" {
		return fmt.Errorf("%w: missing date", ErrInvalid)
	}
	if len(b.Data) == 0 {
		return fmt.Errorf("%w: empty data", ErrInvalid)
	}
	return nil
}
