package assets

import (
	"encoding/json"

	"sensorgate/internal/domain/asset"
	"sensorgate/internal/domain/reading"
)

// noAssetsMessage mirrors the sentinel consumers already match on.
const noAssetsMessage = "No assets found on the ledger"

type ListInput struct{}

type ListOutput struct {
	Body ListResponse
}

// ListResponse is either the asset array or the no-assets sentinel object.
// Consumers distinguish the two by shape.
type ListResponse struct {
	Assets  []asset.DataAsset `json:"-"`
	Message string            `json:"-"`
}

func (r ListResponse) MarshalJSON() ([]byte, error) {
	if r.Message != "" {
		return json.Marshal(map[string]string{"message": r.Message})
	}
	return json.Marshal(r.Assets)
}

type GetInput struct {
	AssetID string `path:"assetId" example:"D1_2023-08-08" doc:"Asset identifier: deviceName_date"`
}

type GetOutput struct {
	Body asset.DataAsset
}

type DataInput struct {
	AssetID string `path:"assetId" example:"D1_2023-08-08" doc:"Asset identifier: deviceName_date"`
}

type DataOutput struct {
	Body reading.DeviceDayBatch
}

type OrgInput struct{}

type OrgOutput struct {
	Body OrgResponse
}

type OrgResponse struct {
	MSPID string `json:"mspid" example:"Org1MSP" doc:"MSP identifier of this gateway's organization"`
}
