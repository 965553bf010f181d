package asset

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/exp/slog"
	"golang.org/x/sync/errgroup"

	appcrypto "sensorgate/internal/app/server/crypto"
	"sensorgate/internal/domain/reading"
)

// Servicer exposes asset queries and the decrypt-on-demand path.
type Servicer interface {
	List(ctx context.Context, scope ListScope) ([]DataAsset, error)
	Get(ctx context.Context, assetID string) (*DataAsset, error)
	View(ctx context.Context, assetID string) (*reading.DeviceDayBatch, error)
	MSPID() string
}

type Service struct {
	ledger Ledger
	store  ObjectStore
	dec    Decryptor
	log    *slog.Logger
}

func NewService(ledger Ledger, store ObjectStore, dec Decryptor, log *slog.Logger) *Service {
	return &Service{
		ledger: ledger,
		store:  store,
		dec:    dec,
		log:    log.With(slog.String("component", "asset_service")),
	}
}

// List returns ledger pointers in the given scope, without touching the
// object store.
func (s *Service) List(ctx context.Context, scope ListScope) ([]DataAsset, error) {
	assets, err := s.ledger.ListAssets(ctx, scope)
	if err != nil {
		s.log.Error("failed to list assets", "scope", scope, "error", err)
		return nil, fmt.Errorf("list assets: %w", err)
	}
	return assets, nil
}

// Get returns the raw ledger record for one asset.
func (s *Service) Get(ctx context.Context, assetID string) (*DataAsset, error) {
	a, err := s.ledger.AssetByID(ctx, assetID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		s.log.Error("failed to get asset", "asset_id", assetID, "error", err)
		return nil, fmt.Errorf("get asset: %w", err)
	}
	return a, nil
}

// View resolves the asset pointer and its private key record, fetches the
// ciphertext from the object store, decrypts and returns the reconstructed
// batch. The pointer and the key are fetched concurrently; they live in
// independent ledger state.
func (s *Service) View(ctx context.Context, assetID string) (*reading.DeviceDayBatch, error) {
	var (
		a   *DataAsset
		key *KeyRecord
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		a, err = s.ledger.AssetByID(gctx, assetID)
		return err
	})
	g.Go(func() error {
		var err error
		key, err = s.ledger.PrivateKey(gctx, assetID)
		return err
	})
	if err := g.Wait(); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		s.log.Error("failed to resolve asset and key", "asset_id", assetID, "error", err)
		return nil, fmt.Errorf("resolve asset %s: %w", assetID, err)
	}

	ciphertext, err := s.store.Get(ctx, a.ContentID)
	if err != nil {
		s.log.Error("failed to fetch ciphertext", "asset_id", assetID, "cid", a.ContentID, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrObjectStore, err)
	}

	rawKey, err := base64.StdEncoding.DecodeString(key.SymmetricKey)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed key record: %v", ErrDecryption, err)
	}

	plaintext, err := s.dec.Decrypt(string(ciphertext), rawKey)
	if err != nil {
		if errors.Is(err, appcrypto.ErrDecryption) {
			return nil, fmt.Errorf("%w: %v", ErrDecryption, err)
		}
		return nil, fmt.Errorf("decrypt asset %s: %w", assetID, err)
	}

	var batch reading.DeviceDayBatch
	if err := json.Unmarshal(plaintext, &batch); err != nil {
		// Wrong key under an unauthenticated cipher mode lands here too.
		return nil, fmt.Errorf("%w: plaintext is not a batch: %v", ErrDecryption, err)
	}

	return &batch, nil
}

// MSPID identifies the organization this gateway acts for.
func (s *Service) MSPID() string {
	return s.ledger.MSPID()
}
