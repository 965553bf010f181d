package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/exp/slog"

	"sensorgate/internal/app/server/api"
	appcrypto "sensorgate/internal/app/server/crypto"
	"sensorgate/internal/config"
	"sensorgate/internal/domain/asset"
	"sensorgate/internal/domain/buffer"
	"sensorgate/internal/domain/export"
	"sensorgate/internal/domain/market"
	"sensorgate/internal/infrastructure/ipfs"
	"sensorgate/internal/infrastructure/journal"
	"sensorgate/internal/infrastructure/ledger"
)

const shutdownTimeout = 10 * time.Second

// App owns the gateway's long-lived pieces: the day buffer, the upload
// coordinator, the fabric session and the HTTP server.
type App struct {
	cfg    *config.Config
	log    *slog.Logger
	buffer *buffer.Service
	coord  *export.Coordinator
	gw     *ledger.Gateway
	jrnl   *journal.Journal
	server *http.Server
}

// New wires every component from configuration. It connects to the peer
// eagerly so a misconfigured identity fails at startup, not on the first
// drain cycle.
func New(cfg *config.Config, log *slog.Logger) (*App, error) {
	gw, err := ledger.Connect(ledger.Config{
		PeerEndpoint:  cfg.Fabric.PeerEndpoint,
		PeerHostAlias: cfg.Fabric.PeerHostAlias,
		MSPID:         cfg.Fabric.MSPID,
		ChannelName:   cfg.Fabric.ChannelName,
		ChaincodeName: cfg.Fabric.ChaincodeName,
		TLSCertPath:   cfg.Fabric.TLSCertPath,
		CertPath:      cfg.Fabric.CertPath,
		KeyDirPath:    cfg.Fabric.KeyDirPath,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("connect fabric gateway: %w", err)
	}

	encryptor, err := appcrypto.NewBatchEncryptor(appcrypto.Mode(cfg.Crypto.CipherMode))
	if err != nil {
		_ = gw.Close()
		return nil, err
	}

	jrnl, err := journal.Open(cfg.Journal.Path, log)
	if err != nil {
		_ = gw.Close()
		return nil, fmt.Errorf("open upload journal: %w", err)
	}

	store := ipfs.NewClient(cfg.IPFS.ClusterAPIURL, cfg.IPFS.GatewayURL, log)

	buf := buffer.NewService(log)
	uploader := export.NewUploader(store, encryptor, log)
	coord := export.NewCoordinator(buf, uploader, gw, jrnl, cfg.Buffer.PollInterval, log)

	assetService := asset.NewService(gw, store, encryptor, log)
	marketService := market.NewService(gw, log)

	mux := api.New(buf, assetService, marketService, log)

	return &App{
		cfg:    cfg,
		log:    log,
		buffer: buf,
		coord:  coord,
		gw:     gw,
		jrnl:   jrnl,
		server: &http.Server{
			Addr:    cfg.Server.RunAddress,
			Handler: mux,
		},
	}, nil
}

// Run restores the snapshot, starts the upload coordinator and serves HTTP
// until the context is canceled, then performs the shutdown sequence:
// stop accepting requests, snapshot the buffer, release the fabric session
// and the journal.
func (a *App) Run(ctx context.Context) error {
	a.buffer.RestoreFile(a.cfg.Buffer.SnapshotPath)

	if pending, err := a.jrnl.Pending(ctx); err != nil {
		a.log.Warn("could not read upload journal", "error", err)
	} else if len(pending) > 0 {
		// Leftovers mean a previous run crashed between the object store
		// write and the ledger commit; the content ids need reconciliation.
		a.log.Warn("uploads pending ledger confirmation from a previous run",
			slog.Int("count", len(pending)))
		for _, e := range pending {
			a.log.Warn("pending upload", "cid", e.CID, "device", e.Device, "date", e.Date)
		}
	}

	coordCtx, stopCoord := context.WithCancel(context.Background())
	go a.coord.Run(coordCtx)

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("http server listening", slog.String("address", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		stopCoord()
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	a.log.Info("shutting down")
	stopCoord()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.log.Error("http shutdown failed", "error", err)
	}

	// Best effort: a snapshot that cannot be written is logged and the
	// process still exits.
	if err := a.buffer.SaveSnapshot(a.cfg.Buffer.SnapshotPath); err != nil {
		a.log.Error("could not persist buffer snapshot", "error", err)
	} else {
		a.log.Info("buffer snapshot persisted", slog.String("path", a.cfg.Buffer.SnapshotPath))
	}

	if err := a.gw.Close(); err != nil {
		a.log.Error("could not close fabric gateway", "error", err)
	}
	if err := a.jrnl.Close(); err != nil {
		a.log.Error("could not close upload journal", "error", err)
	}

	return nil
}
