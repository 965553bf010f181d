// Ingestion of sensor readings into the day buffer;
// listing and decrypt-on-demand retrieval of ledger data assets;
// marketplace bid submission, acceptance and key transfer.

//POST /api/dataInput              # Submit one reading (public)
//GET  /fabric/getAllDataAssets    # All asset pointers
//GET  /fabric/getMyOrgsDataAssets # My org's asset pointers
//GET  /fabric/getOtherOrgsDataAssets
//GET  /fabric/getAsset/{assetId}  # One asset pointer
//GET  /fabric/getAssetData/{assetId} # Decrypted batch
//GET  /fabric/getMyOrg            # This gateway's MSP id
//GET  /fabric/getBidsForMyOrg     # Bids on my org's assets
//POST /fabric/bidForData          # Submit a bid
//POST /fabric/acceptBid           # Accept a bid, transfer the key

package api

import (
	assetAPI "sensorgate/internal/app/server/api/http/assets"
	healthAPI "sensorgate/internal/app/server/api/http/health"
	ingestAPI "sensorgate/internal/app/server/api/http/ingest"
	marketAPI "sensorgate/internal/app/server/api/http/market"
	"sensorgate/internal/app/server/api/http/middleware"
	"sensorgate/internal/app/server/api/http/middleware/logger"
	"sensorgate/internal/domain/asset"
	"sensorgate/internal/domain/buffer"
	"sensorgate/internal/domain/market"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"golang.org/x/exp/slog"
)

type Handlers struct {
	Health *healthAPI.Handler
	Ingest *ingestAPI.Handler
	Assets *assetAPI.Handler
	Market *marketAPI.Handler
}

// New builds a *chi.Mux with every operation registered through huma.Register.
func New(buf *buffer.Service, assets asset.Servicer, bids market.Servicer, log *slog.Logger) *chi.Mux {
	mux := chi.NewMux()

	config := huma.DefaultConfig("Sensorgate API", "1.0.0")
	API := humachi.New(mux, config)

	h := handlers(buf, assets, bids, log)
	h.Health.SetupRoutes(API)
	h.Ingest.SetupRoutes(API)
	h.Assets.SetupRoutes(API)
	h.Market.SetupRoutes(API)

	return mux
}

func handlers(buf *buffer.Service, assets asset.Servicer, bids market.Servicer, log *slog.Logger) *Handlers {
	loggerMW := logger.New(log)
	middlewares := middleware.NewContainer()

	middlewares.Add(loggerMW.Middleware())
	healthHandler := healthAPI.NewHandler(log, middlewares.GetAllAndClear())

	middlewares.Add(loggerMW.Middleware())
	ingestHandler := ingestAPI.NewHandler(buf, log, middlewares.GetAllAndClear())

	middlewares.Add(loggerMW.Middleware())
	assetHandler := assetAPI.NewHandler(assets, log, middlewares.GetAllAndClear())

	middlewares.Add(loggerMW.Middleware())
	marketHandler := marketAPI.NewHandler(bids, log, middlewares.GetAllAndClear())

	return &Handlers{
		Health: healthHandler,
		Ingest: ingestHandler,
		Assets: assetHandler,
		Market: marketHandler,
	}
}
