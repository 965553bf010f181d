package export

import (
	"context"
	"encoding/base64"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	appcrypto "sensorgate/internal/app/server/crypto"
	"sensorgate/internal/domain/buffer"
	"sensorgate/internal/domain/reading"
)

type MockPointerLedger struct {
	mock.Mock
}

func (m *MockPointerLedger) CreateAssetPointer(ctx context.Context, deviceName, contentID, date string) error {
	args := m.Called(ctx, deviceName, contentID, date)
	return args.Error(0)
}

func (m *MockPointerLedger) StorePrivateKey(ctx context.Context, deviceName, contentID, date, symmetricKeyB64 string) error {
	args := m.Called(ctx, deviceName, contentID, date, symmetricKeyB64)
	return args.Error(0)
}

type MockJournal struct {
	mock.Mock
}

func (m *MockJournal) Record(ctx context.Context, contentID, deviceName, date string) error {
	args := m.Called(ctx, contentID, deviceName, date)
	return args.Error(0)
}

func (m *MockJournal) MarkCommitted(ctx context.Context, contentID string) error {
	args := m.Called(ctx, contentID)
	return args.Error(0)
}

// fixed clock: "today" is 2023-08-09 for every coordinator test.
func fixedNow() time.Time {
	ts, _ := time.Parse(time.RFC3339, "2023-08-09T12:00:00Z")
	return ts
}

func newCoordinator(buf *buffer.Service, store *MockObjectStore, ledger *MockPointerLedger, journal Journal) *Coordinator {
	enc, _ := appcrypto.NewBatchEncryptor(appcrypto.ModeECB)
	uploader := NewUploader(store, enc, discard())
	c := NewCoordinator(buf, uploader, ledger, journal, time.Second, discard())
	c.now = fixedNow
	return c
}

func ingest(t *testing.T, buf *buffer.Service, device, ts string) {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, ts)
	require.NoError(t, err)
	require.NoError(t, buf.Ingest(device, reading.Reading{
		Time: parsed,
		Measurements: map[string]reading.Measurement{
			"temperature": {Unit: "celsius", Amount: 21.0},
		},
	}))
}

func TestCoordinator_DrainExportsYesterdaysBatch(t *testing.T) {
	buf := buffer.NewService(discard())
	ingest(t, buf, "D1", "2023-08-08T08:00:00Z")
	ingest(t, buf, "D1", "2023-08-08T09:00:00Z")

	store := new(MockObjectStore)
	ledger := new(MockPointerLedger)
	journal := new(MockJournal)

	store.On("Put", mock.Anything, mock.Anything).Return("QmCID1", nil).Once()
	ledger.On("CreateAssetPointer", mock.Anything, "D1", "QmCID1", "2023-08-08").Return(nil).Once()
	ledger.On("StorePrivateKey", mock.Anything, "D1", "QmCID1", "2023-08-08", mock.MatchedBy(func(k string) bool {
		raw, err := base64.StdEncoding.DecodeString(k)
		return err == nil && len(raw) == appcrypto.KeySize
	})).Return(nil).Once()
	journal.On("Record", mock.Anything, "QmCID1", "D1", "2023-08-08").Return(nil).Once()
	journal.On("MarkCommitted", mock.Anything, "QmCID1").Return(nil).Once()

	c := newCoordinator(buf, store, ledger, journal)
	c.Drain(context.Background())

	store.AssertExpectations(t)
	ledger.AssertExpectations(t)
	journal.AssertExpectations(t)
	assert.NotContains(t, buf.Devices(), "D1")
}

func TestCoordinator_TodaysBatchStaysBuffered(t *testing.T) {
	buf := buffer.NewService(discard())
	ingest(t, buf, "D2", "2023-08-09T08:00:00Z")

	store := new(MockObjectStore)
	ledger := new(MockPointerLedger)

	c := newCoordinator(buf, store, ledger, nil)
	c.Drain(context.Background())

	store.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
	ledger.AssertNotCalled(t, "CreateAssetPointer", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	assert.Equal(t, 1, buf.Len("D2"))
}

func TestCoordinator_UploadFailureLeavesBufferUntouched(t *testing.T) {
	buf := buffer.NewService(discard())
	ingest(t, buf, "D1", "2023-08-08T08:00:00Z")

	before := buf.Stale("2023-08-09")

	store := new(MockObjectStore)
	store.On("Put", mock.Anything, mock.Anything).Return("", errors.New("503 from cluster"))
	ledger := new(MockPointerLedger)

	c := newCoordinator(buf, store, ledger, nil)
	c.Drain(context.Background())

	ledger.AssertNotCalled(t, "CreateAssetPointer", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	assert.Equal(t, before, buf.Stale("2023-08-09"))
}

func TestCoordinator_LedgerFailureKeepsBatchForRetry(t *testing.T) {
	buf := buffer.NewService(discard())
	ingest(t, buf, "D1", "2023-08-08T08:00:00Z")

	store := new(MockObjectStore)
	store.On("Put", mock.Anything, mock.Anything).Return("QmCID1", nil)
	ledger := new(MockPointerLedger)
	ledger.On("CreateAssetPointer", mock.Anything, "D1", "QmCID1", "2023-08-08").Return(errors.New("endorsement refused"))
	ledger.On("StorePrivateKey", mock.Anything, "D1", "QmCID1", "2023-08-08", mock.Anything).Return(nil).Maybe()
	journal := new(MockJournal)
	journal.On("Record", mock.Anything, "QmCID1", "D1", "2023-08-08").Return(nil)

	c := newCoordinator(buf, store, ledger, journal)
	c.Drain(context.Background())

	// Batch stays for the next cycle; the journal entry is not cleared, it
	// now names an orphan candidate in the object store.
	assert.Equal(t, 1, buf.Len("D1"))
	journal.AssertNotCalled(t, "MarkCommitted", mock.Anything, "QmCID1")
}

func TestCoordinator_NoDoubleExport(t *testing.T) {
	buf := buffer.NewService(discard())
	ingest(t, buf, "D1", "2023-08-08T08:00:00Z")

	store := new(MockObjectStore)
	store.On("Put", mock.Anything, mock.Anything).Return("QmCID1", nil).Once()
	ledger := new(MockPointerLedger)
	ledger.On("CreateAssetPointer", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()
	ledger.On("StorePrivateKey", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()

	c := newCoordinator(buf, store, ledger, nil)
	c.Drain(context.Background())
	c.Drain(context.Background())

	// Second cycle found nothing: the Once() expectations would fail on a
	// repeated call.
	store.AssertExpectations(t)
	ledger.AssertExpectations(t)
}

func TestCoordinator_ContinuesPastFailingDevice(t *testing.T) {
	buf := buffer.NewService(discard())
	ingest(t, buf, "A-broken", "2023-08-08T08:00:00Z")
	ingest(t, buf, "B-healthy", "2023-08-08T08:00:00Z")

	store := new(MockObjectStore)
	store.On("Put", mock.Anything, mock.Anything).Return("", errors.New("boom")).Once()
	store.On("Put", mock.Anything, mock.Anything).Return("QmHealthy", nil).Once()
	ledger := new(MockPointerLedger)
	ledger.On("CreateAssetPointer", mock.Anything, "B-healthy", "QmHealthy", "2023-08-08").Return(nil)
	ledger.On("StorePrivateKey", mock.Anything, "B-healthy", "QmHealthy", "2023-08-08", mock.Anything).Return(nil)

	c := newCoordinator(buf, store, ledger, nil)
	c.Drain(context.Background())

	assert.Equal(t, 1, buf.Len("A-broken"))
	assert.NotContains(t, buf.Devices(), "B-healthy")
}

func TestCoordinator_ReentrancyGuard(t *testing.T) {
	buf := buffer.NewService(discard())
	ingest(t, buf, "D1", "2023-08-08T08:00:00Z")

	release := make(chan struct{})
	started := make(chan struct{})

	store := new(MockObjectStore)
	store.On("Put", mock.Anything, mock.Anything).Run(func(mock.Arguments) {
		close(started)
		<-release
	}).Return("QmCID1", nil).Once()
	ledger := new(MockPointerLedger)
	ledger.On("CreateAssetPointer", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	ledger.On("StorePrivateKey", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	c := newCoordinator(buf, store, ledger, nil)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.Drain(context.Background())
	}()

	<-started
	// This tick fires mid-drain and must be skipped, not queued.
	c.Drain(context.Background())
	close(release)
	wg.Wait()

	store.AssertExpectations(t)

	// The guard was reset: a later cycle runs again.
	c.Drain(context.Background())
}

func TestCoordinator_RecoversFromPanic(t *testing.T) {
	buf := buffer.NewService(discard())
	ingest(t, buf, "D1", "2023-08-08T08:00:00Z")

	store := new(MockObjectStore)
	store.On("Put", mock.Anything, mock.Anything).Run(func(mock.Arguments) {
		panic("uploader blew up")
	}).Return("", nil).Once()
	ledger := new(MockPointerLedger)

	c := newCoordinator(buf, store, ledger, nil)

	assert.NotPanics(t, func() { c.Drain(context.Background()) })

	// Guard was released despite the panic.
	store.On("Put", mock.Anything, mock.Anything).Return("", errors.New("still down"))
	c.Drain(context.Background())
	assert.Equal(t, 1, buf.Len("D1"))
}
