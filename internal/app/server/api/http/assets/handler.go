package assets

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"

	"sensorgate/internal/domain/asset"
)

type Handler struct {
	service    asset.Servicer
	log        *slog.Logger
	middleware huma.Middlewares
}

func NewHandler(service asset.Servicer, log *slog.Logger, middleware huma.Middlewares) *Handler {
	return &Handler{
		service:    service,
		log:        log,
		middleware: middleware,
	}
}

func (h *Handler) SetupRoutes(api huma.API) {
	huma.Register(api, h.listOp("get-all-data-assets", "/fabric/getAllDataAssets"), h.listAll)
	huma.Register(api, h.listOp("get-my-orgs-data-assets", "/fabric/getMyOrgsDataAssets"), h.listMine)
	huma.Register(api, h.listOp("get-other-orgs-data-assets", "/fabric/getOtherOrgsDataAssets"), h.listOthers)
	huma.Register(api, h.getAssetOp(), h.getAsset)
	huma.Register(api, h.getAssetDataOp(), h.getAssetData)
	huma.Register(api, h.getMyOrgOp(), h.getMyOrg)
}

func (h *Handler) listAll(ctx context.Context, _ *ListInput) (*ListOutput, error) {
	return h.list(ctx, asset.ScopeAll)
}

func (h *Handler) listMine(ctx context.Context, _ *ListInput) (*ListOutput, error) {
	return h.list(ctx, asset.ScopeMine)
}

func (h *Handler) listOthers(ctx context.Context, _ *ListInput) (*ListOutput, error) {
	return h.list(ctx, asset.ScopeOthers)
}

func (h *Handler) list(ctx context.Context, scope asset.ListScope) (*ListOutput, error) {
	found, err := h.service.List(ctx, scope)
	if err != nil {
		h.log.Error("asset listing failed", "scope", scope, "error", err)
		return nil, huma.Error500InternalServerError("Error fetching assets from the ledger", err)
	}

	if len(found) == 0 {
		return &ListOutput{Body: ListResponse{Message: noAssetsMessage}}, nil
	}
	return &ListOutput{Body: ListResponse{Assets: found}}, nil
}

func (h *Handler) getAsset(ctx context.Context, input *GetInput) (*GetOutput, error) {
	a, err := h.service.Get(ctx, input.AssetID)
	if err != nil {
		if errors.Is(err, asset.ErrNotFound) {
			return nil, huma.Error404NotFound("Asset not found: " + input.AssetID)
		}
		h.log.Error("asset lookup failed", "asset_id", input.AssetID, "error", err)
		return nil, huma.Error500InternalServerError("Error fetching asset from the ledger", err)
	}

	return &GetOutput{Body: *a}, nil
}

func (h *Handler) getAssetData(ctx context.Context, input *DataInput) (*DataOutput, error) {
	batch, err := h.service.View(ctx, input.AssetID)
	if err != nil {
		if errors.Is(err, asset.ErrNotFound) {
			return nil, huma.Error404NotFound("Asset not found: " + input.AssetID)
		}
		h.log.Error("asset data retrieval failed", "asset_id", input.AssetID, "error", err)
		return nil, huma.Error500InternalServerError("Error retrieving asset data", err)
	}

	return &DataOutput{Body: *batch}, nil
}

func (h *Handler) getMyOrg(_ context.Context, _ *OrgInput) (*OrgOutput, error) {
	return &OrgOutput{
		Body: OrgResponse{
			MSPID: h.service.MSPID(),
		},
	}, nil
}
