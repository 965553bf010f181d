package export

import (
	"context"
	"encoding/base64"
	"sync"
	"time"

	"golang.org/x/exp/slog"
	"golang.org/x/sync/errgroup"

	"sensorgate/internal/domain/buffer"
	"sensorgate/internal/domain/reading"
)

// BatchUploader is the uploader contract the coordinator drives.
type BatchUploader interface {
	Upload(ctx context.Context, batch reading.DeviceDayBatch) (*UploadResult, error)
}

// PointerLedger is the slice of the ledger the coordinator needs: the two
// logically coupled commits of one export.
type PointerLedger interface {
	CreateAssetPointer(ctx context.Context, deviceName, contentID, date string) error
	StorePrivateKey(ctx context.Context, deviceName, contentID, date, symmetricKeyB64 string) error
}

// Journal records content ids that reached the object store but whose
// ledger commit is still pending, so an operator can reconcile orphans
// after a crash or a persistent ledger failure.
type Journal interface {
	Record(ctx context.Context, contentID, deviceName, date string) error
	MarkCommitted(ctx context.Context, contentID string) error
}

// Coordinator drains stale device-day batches on a fixed interval:
// Idle -> Draining -> Idle, with a guard so ticks that fire mid-drain are
// skipped rather than queued. A batch is pruned from the buffer only after
// the object store write and both ledger commits succeed; any failure
// leaves it in place for the next cycle.
type Coordinator struct {
	buffer   *buffer.Service
	uploader BatchUploader
	ledger   PointerLedger
	journal  Journal
	log      *slog.Logger

	interval time.Duration
	now      func() time.Time

	mu       sync.Mutex
	draining bool
}

func NewCoordinator(
	buf *buffer.Service,
	uploader BatchUploader,
	ledger PointerLedger,
	journal Journal,
	interval time.Duration,
	log *slog.Logger,
) *Coordinator {
	return &Coordinator{
		buffer:   buf,
		uploader: uploader,
		ledger:   ledger,
		journal:  journal,
		log:      log.With(slog.String("component", "upload_coordinator")),
		interval: interval,
		now:      time.Now,
	}
}

// Run performs one eager drain pass (picking up whatever a restored
// snapshot left stale) and then polls until the context is canceled.
func (c *Coordinator) Run(ctx context.Context) {
	c.Drain(ctx)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.log.Info("upload coordinator stopped")
			return
		case <-ticker.C:
			c.Drain(ctx)
		}
	}
}

// Drain runs one cycle. Re-entrant calls while a cycle is in flight return
// immediately.
func (c *Coordinator) Drain(ctx context.Context) {
	c.mu.Lock()
	if c.draining {
		c.mu.Unlock()
		c.log.Debug("previous drain cycle still in progress, skipping this tick")
		return
	}
	c.draining = true
	c.mu.Unlock()

	defer func() {
		// The guard must reset even when a step panics, otherwise every
		// later tick would be skipped forever.
		if r := recover(); r != nil {
			c.log.Error("drain cycle panicked", "panic", r)
		}
		c.mu.Lock()
		c.draining = false
		c.mu.Unlock()
	}()

	today := c.now().UTC().Format(reading.DateLayout)
	stale := c.buffer.Stale(today)
	if len(stale) == 0 {
		return
	}

	c.log.Info("draining stale batches", slog.Int("batches", len(stale)))

	for _, batch := range stale {
		c.exportBatch(ctx, batch)
	}
}

func (c *Coordinator) exportBatch(ctx context.Context, batch reading.DeviceDayBatch) {
	res, err := c.uploader.Upload(ctx, batch)
	if err != nil {
		c.log.Error("upload failed, batch stays buffered for the next cycle",
			"device", batch.DeviceName, "date", batch.Date, "error", err)
		return
	}

	if c.journal != nil {
		if err := c.journal.Record(ctx, res.ContentID, batch.DeviceName, batch.Date); err != nil {
			c.log.Warn("could not journal pending upload", "cid", res.ContentID, "error", err)
		}
	}

	keyB64 := base64.StdEncoding.EncodeToString(res.SymmetricKey)

	// The pointer and the key target independent ledger state, so the two
	// submissions are issued concurrently.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return c.ledger.CreateAssetPointer(gctx, batch.DeviceName, res.ContentID, batch.Date)
	})
	g.Go(func() error {
		return c.ledger.StorePrivateKey(gctx, batch.DeviceName, res.ContentID, batch.Date, keyB64)
	})
	if err := g.Wait(); err != nil {
		// The ciphertext is already in the store; the journal entry marks
		// it for reconciliation while the batch stays buffered and the
		// whole triple is re-attempted next cycle. Re-upload of identical
		// content is idempotent in a content-addressed store.
		c.log.Error("ledger commit failed, batch stays buffered for the next cycle",
			"device", batch.DeviceName, "date", batch.Date, "cid", res.ContentID, "error", err)
		return
	}

	if c.journal != nil {
		if err := c.journal.MarkCommitted(ctx, res.ContentID); err != nil {
			c.log.Warn("could not clear journal entry", "cid", res.ContentID, "error", err)
		}
	}

	c.buffer.Prune(batch.DeviceName, len(batch.Data))

	c.log.Info("batch committed to ledger",
		slog.String("device", batch.DeviceName),
		slog.String("date", batch.Date),
		slog.String("cid", res.ContentID),
	)
}
