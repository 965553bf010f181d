package market

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"

	"sensorgate/internal/domain/asset"
	"sensorgate/internal/domain/market"
)

type Handler struct {
	service    market.Servicer
	log        *slog.Logger
	middleware huma.Middlewares
}

func NewHandler(service market.Servicer, log *slog.Logger, middleware huma.Middlewares) *Handler {
	return &Handler{
		service:    service,
		log:        log,
		middleware: middleware,
	}
}

func (h *Handler) SetupRoutes(api huma.API) {
	huma.Register(api, h.bidsForMyOrgOp(), h.bidsForMyOrg)
	huma.Register(api, h.bidForDataOp(), h.bidForData)
	huma.Register(api, h.acceptBidOp(), h.acceptBid)
}

func (h *Handler) bidsForMyOrg(ctx context.Context, _ *BidsInput) (*BidsOutput, error) {
	bids, err := h.service.BidsForMyOrg(ctx)
	if err != nil {
		if errors.Is(err, asset.ErrNoBids) {
			return &BidsOutput{Body: BidsResponse{Message: noBidsMessage}}, nil
		}
		h.log.Error("bid listing failed", "error", err)
		return nil, huma.Error500InternalServerError("Error fetching bids from the ledger", err)
	}

	return &BidsOutput{Body: BidsResponse{Bids: bids}}, nil
}

func (h *Handler) bidForData(ctx context.Context, input *SubmitBidInput) (*SubmitBidOutput, error) {
	req := input.Body
	if err := h.service.Submit(ctx, req.DeviceName, req.Date, req.Price, req.AdditionalCommitments); err != nil {
		h.log.Error("bid submission failed", "device", req.DeviceName, "date", req.Date, "error", err)
		return nil, huma.Error500InternalServerError("Error submitting bid", err)
	}

	return &SubmitBidOutput{
		Body: StatusResponse{Message: "Bid submitted successfully"},
	}, nil
}

func (h *Handler) acceptBid(ctx context.Context, input *AcceptBidInput) (*AcceptBidOutput, error) {
	req := input.Body
	if err := h.service.Accept(ctx, req.BiddingOrg, req.DeviceName, req.Date, req.Price); err != nil {
		h.log.Error("bid acceptance failed",
			"bidding_org", req.BiddingOrg, "device", req.DeviceName, "date", req.Date, "error", err)
		return nil, huma.Error500InternalServerError("Error accepting bid", err)
	}

	return &AcceptBidOutput{
		Body: StatusResponse{Message: "Bid accepted and key transferred successfully"},
	}, nil
}
