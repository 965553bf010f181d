package export

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/exp/slog"

	appcrypto "sensorgate/internal/app/server/crypto"
	"sensorgate/internal/domain/asset"
	"sensorgate/internal/domain/reading"
)

// UploadResult is produced once per export attempt and never persisted; the
// key lives only long enough to be committed to the ledger's private
// collection.
type UploadResult struct {
	ContentID    string
	SymmetricKey []byte
}

// Encryptor produces base64 ciphertext for a serialized batch.
type Encryptor interface {
	Encrypt(plaintext, key []byte) (string, error)
}

// Uploader serializes a stale batch, encrypts it under a fresh per-batch
// key and pushes the ciphertext to the object store. It has no side effect
// on the buffer; pruning is the coordinator's job, only after the ledger
// commit also succeeds.
type Uploader struct {
	store  asset.ObjectStore
	enc    Encryptor
	genKey func() ([]byte, error)
	log    *slog.Logger
}

func NewUploader(store asset.ObjectStore, enc Encryptor, log *slog.Logger) *Uploader {
	return &Uploader{
		store:  store,
		enc:    enc,
		genKey: appcrypto.GenerateKey,
		log:    log.With(slog.String("component", "uploader")),
	}
}

// Upload runs the validate -> key -> serialize -> encrypt -> put pipeline.
// On an object store failure the generated key is discarded with the error;
// a key is never kept without a successfully stored ciphertext.
func (u *Uploader) Upload(ctx context.Context, batch reading.DeviceDayBatch) (*UploadResult, error) {
	if err := batch.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedBatch, err)
	}

	key, err := u.genKey()
	if err != nil {
		if errors.Is(err, appcrypto.ErrKeyGeneration) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", appcrypto.ErrKeyGeneration, err)
	}

	plaintext, err := json.Marshal(batch)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedBatch, err)
	}

	ciphertext, err := u.enc.Encrypt(plaintext, key)
	if err != nil {
		return nil, fmt.Errorf("encrypt batch: %w", err)
	}

	contentID, err := u.store.Put(ctx, []byte(ciphertext))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", asset.ErrObjectStore, err)
	}

	u.log.Info("batch uploaded to object store",
		slog.String("device", batch.DeviceName),
		slog.String("date", batch.Date),
		slog.String("cid", contentID),
	)

	return &UploadResult{ContentID: contentID, SymmetricKey: key}, nil
}
