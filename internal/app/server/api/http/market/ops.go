package market

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (h *Handler) bidsForMyOrgOp() huma.Operation {
	return huma.Operation{
		OperationID: "get-bids-for-my-org",
		Method:      http.MethodGet,
		Path:        "/fabric/getBidsForMyOrg",
		Summary:     "List bids on my organization's assets",
		Tags:        []string{"market"},
		Middlewares: h.middleware,
	}
}

func (h *Handler) bidForDataOp() huma.Operation {
	return huma.Operation{
		OperationID: "bid-for-data",
		Method:      http.MethodPost,
		Path:        "/fabric/bidForData",
		Summary:     "Bid on another organization's device-day data",
		Tags:        []string{"market"},
		Middlewares: h.middleware,
	}
}

func (h *Handler) acceptBidOp() huma.Operation {
	return huma.Operation{
		OperationID: "accept-bid",
		Method:      http.MethodPost,
		Path:        "/fabric/acceptBid",
		Summary:     "Accept a bid and transfer the batch key to the bidder",
		Tags:        []string{"market"},
		Middlewares: h.middleware,
	}
}
