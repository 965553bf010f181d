package market

import (
	"context"
	"fmt"

	"golang.org/x/exp/slog"

	"sensorgate/internal/domain/asset"
)

// Servicer drives the bid -> accept -> key-transfer protocol. Bid state
// itself lives on the ledger; this layer sequences the transactions and
// surfaces partial failures.
type Servicer interface {
	Submit(ctx context.Context, deviceName, date, price, additionalCommitments string) error
	Accept(ctx context.Context, biddingOrg, deviceName, date, price string) error
	BidsForMyOrg(ctx context.Context) ([]asset.Bid, error)
}

type Service struct {
	ledger asset.Ledger
	log    *slog.Logger
}

func NewService(ledger asset.Ledger, log *slog.Logger) *Service {
	return &Service{
		ledger: ledger,
		log:    log.With(slog.String("component", "market_service")),
	}
}

// Submit places a bid for another organization's device-day asset.
// Uniqueness and duplicate handling are the ledger's concern.
func (s *Service) Submit(ctx context.Context, deviceName, date, price, additionalCommitments string) error {
	if err := s.ledger.SubmitBid(ctx, deviceName, date, price, additionalCommitments); err != nil {
		s.log.Error("failed to submit bid", "device", deviceName, "date", date, "error", err)
		return fmt.Errorf("submit bid: %w", err)
	}

	s.log.Info("bid submitted", "device", deviceName, "date", date, "price", price)
	return nil
}

// Accept records the acceptance, fetches the key material under our own
// identity and transfers it into the bidder's private collection with both
// organizations endorsing. If a step after the acceptance fails, ownership
// has already changed at the pointer level without the key following; the
// error is surfaced to the caller and no compensating transaction is
// issued, the operator resolves it by re-running the transfer.
func (s *Service) Accept(ctx context.Context, biddingOrg, deviceName, date, price string) error {
	if err := s.ledger.AcceptBid(ctx, biddingOrg, deviceName, date, price); err != nil {
		s.log.Error("failed to accept bid", "bidder", biddingOrg, "device", deviceName, "date", date, "error", err)
		return fmt.Errorf("accept bid: %w", err)
	}

	assetID := deviceName + "_" + date

	key, err := s.ledger.PrivateKey(ctx, assetID)
	if err != nil {
		s.log.Error("bid accepted but key lookup failed, key transfer outstanding",
			"bidder", biddingOrg, "asset_id", assetID, "error", err)
		return fmt.Errorf("bid accepted but key lookup failed: %w", err)
	}

	if err := s.ledger.TransferKey(ctx, biddingOrg, deviceName, date, key.SymmetricKey); err != nil {
		s.log.Error("bid accepted but key transfer failed, key transfer outstanding",
			"bidder", biddingOrg, "asset_id", assetID, "error", err)
		return fmt.Errorf("bid accepted but key transfer failed: %w", err)
	}

	s.log.Info("bid accepted and key transferred", "bidder", biddingOrg, "device", deviceName, "date", date)
	return nil
}

// BidsForMyOrg lists open bids against this organization's assets.
// asset.ErrNoBids passes through so callers can answer with the explicit
// no-bids sentinel instead of an empty collection.
func (s *Service) BidsForMyOrg(ctx context.Context) ([]asset.Bid, error) {
	bids, err := s.ledger.BidsForMyOrg(ctx)
	if err != nil {
		return nil, err
	}
	return bids, nil
}
