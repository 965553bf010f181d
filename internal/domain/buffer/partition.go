package buffer

import (
	"sensorgate/internal/domain/reading"
)

// Partition splits a device->readings mapping into the batches to keep in
// memory (dated today) and the batches ready for export (dated yesterday or
// older). The batch day is taken from the first reading only; this trusts
// that a device never spans a day boundary inside one batch, which holds as
// long as every previous day was drained on schedule.
func Partition(state map[string][]reading.Reading, today string) (keep, upload map[string][]reading.Reading) {
	keep = make(map[string][]reading.Reading)
	upload = make(map[string][]reading.Reading)

	for device, readings := range state {
		if len(readings) == 0 {
			continue
		}
		if readings[0].Day() == today {
			keep[device] = readings
		} else {
			upload[device] = readings
		}
	}

	return keep, upload
}
