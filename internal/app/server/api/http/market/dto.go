package market

import (
	"encoding/json"

	"sensorgate/internal/domain/asset"
)

// noBidsMessage mirrors the sentinel consumers already match on.
const noBidsMessage = "No bids found on the ledger for this org."

type BidsInput struct{}

type BidsOutput struct {
	Body BidsResponse
}

// BidsResponse is either the bid array or the no-bids sentinel object.
type BidsResponse struct {
	Bids    []asset.Bid `json:"-"`
	Message string      `json:"-"`
}

func (r BidsResponse) MarshalJSON() ([]byte, error) {
	if r.Message != "" {
		return json.Marshal(map[string]string{"message": r.Message})
	}
	return json.Marshal(r.Bids)
}

type SubmitBidInput struct {
	Body SubmitBidRequest
}

type SubmitBidRequest struct {
	DeviceName            string `json:"deviceName" example:"D1" doc:"Device whose data is bid on"`
	Date                  string `json:"date" example:"2023-08-08" doc:"Calendar day of the batch"`
	Price                 string `json:"price" example:"100" doc:"Offered price"`
	AdditionalCommitments string `json:"additionalCommitments,omitempty" doc:"Free-form contractual commitments"`
}

type SubmitBidOutput struct {
	Body StatusResponse
}

type AcceptBidInput struct {
	Body AcceptBidRequest
}

type AcceptBidRequest struct {
	BiddingOrg string `json:"biddingOrg" example:"Org2MSP" doc:"MSP id of the accepted bidder"`
	DeviceName string `json:"deviceName" example:"D1"`
	Date       string `json:"date" example:"2023-08-08"`
	Price      string `json:"price" example:"100"`
}

type AcceptBidOutput struct {
	Body StatusResponse
}

type StatusResponse struct {
	Message string `json:"message"`
}
