package buffer

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"

	"sensorgate/internal/domain/reading"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestService_Ingest(t *testing.T) {
	s := NewService(discard())

	require.NoError(t, s.Ingest("D1", readingAt(t, "2023-08-09T08:00:00Z")))
	require.NoError(t, s.Ingest("D1", readingAt(t, "2023-08-09T08:05:00Z")))
	require.NoError(t, s.Ingest("D2", readingAt(t, "2023-08-09T08:00:00Z")))

	assert.Equal(t, 2, s.Len("D1"))
	assert.Equal(t, 1, s.Len("D2"))
	assert.Equal(t, []string{"D1", "D2"}, s.Devices())
}

func TestService_IngestInvalidLeavesBufferUnmodified(t *testing.T) {
	s := NewService(discard())
	require.NoError(t, s.Ingest("D1", readingAt(t, "2023-08-09T08:00:00Z")))

	err := s.Ingest("D1", reading.Reading{})
	require.Error(t, err)
	assert.ErrorIs(t, err, reading.ErrInvalid)

	assert.ErrorIs(t, s.Ingest("", readingAt(t, "2023-08-09T08:00:00Z")), reading.ErrInvalid)
	assert.Equal(t, 1, s.Len("D1"))
}

func TestService_SnapshotRestoreRoundTrip(t *testing.T) {
	s := NewService(discard())
	require.NoError(t, s.Ingest("D1", readingAt(t, "2023-08-08T08:00:00Z")))
	require.NoError(t, s.Ingest("D1", readingAt(t, "2023-08-08T09:00:00Z")))
	require.NoError(t, s.Ingest("D2", readingAt(t, "2023-08-09T01:00:00Z")))

	data, err := s.Snapshot()
	require.NoError(t, err)

	restored := NewService(discard())
	restored.Restore(data)

	assert.Equal(t, s.Devices(), restored.Devices())
	assert.Equal(t, s.Len("D1"), restored.Len("D1"))

	// Reading order and field values survive the round trip.
	orig := s.Stale("2023-08-10")
	back := restored.Stale("2023-08-10")
	assert.Equal(t, orig, back)
}

func TestService_RestoreCorruptSnapshotStartsEmpty(t *testing.T) {
	s := NewService(discard())
	s.Restore([]byte("{not json"))
	assert.Empty(t, s.Devices())
}

func TestService_RestoreFileDeletesSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "localStorage.json")

	s := NewService(discard())
	require.NoError(t, s.Ingest("D1", readingAt(t, "2023-08-08T08:00:00Z")))
	require.NoError(t, s.SaveSnapshot(path))

	restored := NewService(discard())
	restored.RestoreFile(path)

	assert.Equal(t, 1, restored.Len("D1"))
	_, err := os.Stat(path)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestService_RestoreFileMissingIsCleanStart(t *testing.T) {
	s := NewService(discard())
	s.RestoreFile(filepath.Join(t.TempDir(), "nope.json"))
	assert.Empty(t, s.Devices())
}

func TestService_StaleReturnsCopies(t *testing.T) {
	s := NewService(discard())
	require.NoError(t, s.Ingest("D1", readingAt(t, "2023-08-08T08:00:00Z")))

	batches := s.Stale(today)
	require.Len(t, batches, 1)
	assert.Equal(t, "D1", batches[0].DeviceName)
	assert.Equal(t, "2023-08-08", batches[0].Date)

	// Mutating the returned batch does not touch the live buffer.
	batches[0].Data[0] = readingAt(t, "2023-01-01T00:00:00Z")
	assert.Equal(t, "2023-08-08", s.Stale(today)[0].Date)
}

func TestService_PruneExactCount(t *testing.T) {
	s := NewService(discard())
	require.NoError(t, s.Ingest("D1", readingAt(t, "2023-08-08T08:00:00Z")))

	stale := s.Stale(today)
	require.Len(t, stale, 1)

	// A reading arrives while the export is in flight.
	require.NoError(t, s.Ingest("D1", readingAt(t, "2023-08-09T00:05:00Z")))

	s.Prune("D1", len(stale[0].Data))

	// The in-flight append survived the prune.
	assert.Equal(t, 1, s.Len("D1"))
	assert.Empty(t, s.Stale(today))
}

func TestService_PruneWholeDevice(t *testing.T) {
	s := NewService(discard())
	require.NoError(t, s.Ingest("D1", readingAt(t, "2023-08-08T08:00:00Z")))

	s.Prune("D1", 1)
	assert.Empty(t, s.Devices())

	// Pruning an absent device is a no-op.
	s.Prune("ghost", 3)
}
