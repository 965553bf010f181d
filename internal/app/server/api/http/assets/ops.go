package assets

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (h *Handler) listOp(operationID, path string) huma.Operation {
	return huma.Operation{
		OperationID: operationID,
		Method:      http.MethodGet,
		Path:        path,
		Summary:     "List data assets",
		Description: "Returns ledger asset pointers, or a sentinel message when none exist",
		Tags:        []string{"assets"},
		Middlewares: h.middleware,
	}
}

func (h *Handler) getAssetOp() huma.Operation {
	return huma.Operation{
		OperationID: "get-asset",
		Method:      http.MethodGet,
		Path:        "/fabric/getAsset/{assetId}",
		Summary:     "Get one asset pointer",
		Tags:        []string{"assets"},
		Middlewares: h.middleware,
	}
}

func (h *Handler) getAssetDataOp() huma.Operation {
	return huma.Operation{
		OperationID: "get-asset-data",
		Method:      http.MethodGet,
		Path:        "/fabric/getAssetData/{assetId}",
		Summary:     "Get decrypted asset data",
		Description: "Resolves the pointer and key, fetches ciphertext from the object store and returns the decrypted batch",
		Tags:        []string{"assets"},
		Middlewares: h.middleware,
	}
}

func (h *Handler) getMyOrgOp() huma.Operation {
	return huma.Operation{
		OperationID: "get-my-org",
		Method:      http.MethodGet,
		Path:        "/fabric/getMyOrg",
		Summary:     "Identify the calling organization",
		Tags:        []string{"assets"},
		Middlewares: h.middleware,
	}
}
