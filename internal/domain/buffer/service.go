package buffer

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"

	"golang.org/x/exp/slog"

	"sensorgate/internal/domain/reading"
)

// Service is the durable buffer: the only owner of the in-memory mapping
// from device identity to its current-day readings. Request handlers append
// through Ingest while the upload coordinator reads and prunes through
// Stale/Prune; the mutex keeps an append racing a drain cycle from being
// lost or exported twice.
type Service struct {
	mu      sync.RWMutex
	devices map[string][]reading.Reading
	log     *slog.Logger
}

func NewService(log *slog.Logger) *Service {
	return &Service{
		devices: make(map[string][]reading.Reading),
		log:     log.With(slog.String("component", "buffer")),
	}
}

// Ingest validates and appends one reading to the device's current batch,
// creating the batch if absent. The buffer is left unmodified on validation
// failure.
func (s *Service) Ingest(deviceName string, r reading.Reading) error {
	if deviceName == "" {
		return fmt.Errorf("%w: missing value for field \"deviceName\"", reading.ErrInvalid)
	}
	if err := r.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.devices[deviceName] = append(s.devices[deviceName], r)

	return nil
}

// Snapshot serializes the full mapping for the shutdown snapshot file.
func (s *Service) Snapshot() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return json.Marshal(s.devices)
}

// SaveSnapshot writes the snapshot to path. Called once from the controlled
// shutdown path; a failure is returned for logging but never retried.
func (s *Service) SaveSnapshot(path string) error {
	data, err := s.Snapshot()
	if err != nil {
		return fmt.Errorf("serialize snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

// Restore replaces the buffer contents from snapshot bytes. A corrupt
// snapshot is logged and the buffer starts empty, never fatal.
func (s *Service) Restore(data []byte) {
	restored := make(map[string][]reading.Reading)
	if err := json.Unmarshal(data, &restored); err != nil {
		s.log.Error("corrupt snapshot, starting with an empty buffer", "error", err)
		restored = make(map[string][]reading.Reading)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.devices = restored
}

// RestoreFile loads the snapshot file and deletes it immediately so a later
// crash cannot replay the same data twice. An absent file just means a
// clean start.
func (s *Service) RestoreFile(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.log.Error("could not read snapshot file, starting with an empty buffer", "path", path, "error", err)
		}
		return
	}

	if err := os.Remove(path); err != nil {
		s.log.Warn("could not delete snapshot file after load", "path", path, "error", err)
	}

	s.Restore(data)
	s.log.Info("restored buffer from snapshot", "path", path, "devices", len(s.devices))
}

// Stale returns copies of every batch dated before today, ready for export.
// The live buffer is untouched; the caller prunes per device only after the
// export fully succeeds.
func (s *Service) Stale(today string) []reading.DeviceDayBatch {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, upload := Partition(s.devices, today)

	names := make([]string, 0, len(upload))
	for device := range upload {
		names = append(names, device)
	}
	sort.Strings(names)

	batches := make([]reading.DeviceDayBatch, 0, len(upload))
	for _, device := range names {
		readings := make([]reading.Reading, len(upload[device]))
		copy(readings, upload[device])
		batches = append(batches, reading.NewBatch(device, readings))
	}

	return batches
}

// Prune drops exactly the first exported readings of a device. Readings
// appended while the export was in flight survive.
func (s *Service) Prune(deviceName string, exported int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	readings, ok := s.devices[deviceName]
	if !ok {
		return
	}
	if exported >= len(readings) {
		delete(s.devices, deviceName)
		return
	}
	s.devices[deviceName] = readings[exported:]
}

// Devices lists the device identities currently buffered.
func (s *Service) Devices() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.devices))
	for device := range s.devices {
		names = append(names, device)
	}
	sort.Strings(names)
	return names
}

// Len reports how many readings are buffered for a device.
func (s *Service) Len(deviceName string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.devices[deviceName])
}
