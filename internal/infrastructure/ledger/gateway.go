package ledger

import (
	"context"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hyperledger/fabric-gateway/pkg/client"
	"github.com/hyperledger/fabric-gateway/pkg/identity"
	"golang.org/x/exp/slog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/status"

	"sensorgate/internal/domain/asset"
)

// Config carries everything needed to reach one org's peer: the gRPC
// endpoint, the TLS root, and the enrolled identity's MSP material.
type Config struct {
	PeerEndpoint  string
	PeerHostAlias string
	MSPID         string
	ChannelName   string
	ChaincodeName string
	TLSCertPath   string
	CertPath      string
	KeyDirPath    string
}

// Per-phase deadlines for gateway calls. Queries are cheap, endorsement
// crosses orgs, and waiting for a commit event can span block cutting.
const (
	evaluateTimeout     = 5 * time.Second
	endorseTimeout      = 15 * time.Second
	submitTimeout       = 5 * time.Second
	commitStatusTimeout = 60 * time.Second
)

// transientKeyField is the transient map key the chaincode reads the
// symmetric key from. Transient data never enters the public ledger.
const transientKeyField = "symmetricKey"

// Gateway implements asset.Ledger on top of the Fabric Gateway API. One
// Gateway holds one gRPC connection to the org's peer and acts under one
// client identity.
type Gateway struct {
	conn     *grpc.ClientConn
	gw       *client.Gateway
	contract *client.Contract
	mspID    string
	log      *slog.Logger
}

// Connect dials the peer over TLS, assembles the client identity from the
// MSP crypto material and opens a gateway session on the configured
// channel and chaincode.
func Connect(cfg Config, log *slog.Logger) (*Gateway, error) {
	conn, err := newGrpcConnection(cfg)
	if err != nil {
		return nil, err
	}

	id, err := newIdentity(cfg.MSPID, cfg.CertPath)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	sign, err := newSign(cfg.KeyDirPath)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	gw, err := client.Connect(
		id,
		client.WithSign(sign),
		client.WithClientConnection(conn),
		client.WithEvaluateTimeout(evaluateTimeout),
		client.WithEndorseTimeout(endorseTimeout),
		client.WithSubmitTimeout(submitTimeout),
		client.WithCommitStatusTimeout(commitStatusTimeout),
	)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("connect gateway: %w", err)
	}

	contract := gw.GetNetwork(cfg.ChannelName).GetContract(cfg.ChaincodeName)

	log.Info("fabric gateway connected",
		"endpoint", cfg.PeerEndpoint,
		"mspid", cfg.MSPID,
		"channel", cfg.ChannelName,
		"chaincode", cfg.ChaincodeName,
	)

	return &Gateway{
		conn:     conn,
		gw:       gw,
		contract: contract,
		mspID:    cfg.MSPID,
		log:      log.With(slog.String("component", "fabric_gateway")),
	}, nil
}

func newGrpcConnection(cfg Config) (*grpc.ClientConn, error) {
	pem, err := os.ReadFile(cfg.TLSCertPath)
	if err != nil {
		return nil, fmt.Errorf("read peer tls cert: %w", err)
	}

	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, fmt.Errorf("peer tls cert %s: no certificates in PEM", cfg.TLSCertPath)
	}

	creds := credentials.NewClientTLSFromCert(pool, cfg.PeerHostAlias)
	conn, err := grpc.NewClient(cfg.PeerEndpoint, grpc.WithTransportCredentials(creds))
	if err != nil {
		return nil, fmt.Errorf("dial peer %s: %w", cfg.PeerEndpoint, err)
	}
	return conn, nil
}

func newIdentity(mspID, certPath string) (*identity.X509Identity, error) {
	pem, err := os.ReadFile(certPath)
	if err != nil {
		return nil, fmt.Errorf("read client cert: %w", err)
	}

	cert, err := identity.CertificateFromPEM(pem)
	if err != nil {
		return nil, fmt.Errorf("parse client cert: %w", err)
	}

	id, err := identity.NewX509Identity(mspID, cert)
	if err != nil {
		return nil, fmt.Errorf("build identity: %w", err)
	}
	return id, nil
}

// newSign loads the first key from the MSP keystore directory. The keystore
// holds exactly one key for a freshly enrolled identity.
func newSign(keyDirPath string) (identity.Sign, error) {
	entries, err := os.ReadDir(keyDirPath)
	if err != nil {
		return nil, fmt.Errorf("read keystore dir: %w", err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("keystore dir %s is empty", keyDirPath)
	}

	pem, err := os.ReadFile(filepath.Join(keyDirPath, entries[0].Name()))
	if err != nil {
		return nil, fmt.Errorf("read private key: %w", err)
	}

	key, err := identity.PrivateKeyFromPEM(pem)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}

	sign, err := identity.NewPrivateKeySign(key)
	if err != nil {
		return nil, fmt.Errorf("build signer: %w", err)
	}
	return sign, nil
}

// Close releases the gateway session and the underlying gRPC connection.
func (g *Gateway) Close() error {
	if err := g.gw.Close(); err != nil {
		_ = g.conn.Close()
		return fmt.Errorf("close gateway: %w", err)
	}
	if err := g.conn.Close(); err != nil {
		return fmt.Errorf("close grpc connection: %w", err)
	}
	return nil
}

// MSPID identifies the organization this gateway acts for.
func (g *Gateway) MSPID() string {
	return g.mspID
}

// CreateAssetPointer records the public pointer asset for an uploaded batch.
func (g *Gateway) CreateAssetPointer(ctx context.Context, deviceName, contentID, date string) error {
	_, err := g.contract.SubmitWithContext(ctx, "UploadDataAsAsset",
		client.WithArguments(deviceName, contentID, date))
	if err != nil {
		g.log.Error("UploadDataAsAsset failed", "device", deviceName, "date", date, "error", err)
		return mapError("UploadDataAsAsset", err)
	}
	return nil
}

// StorePrivateKey writes the batch key to the org's implicit private
// collection. The key travels in the transient map only.
func (g *Gateway) StorePrivateKey(ctx context.Context, deviceName, contentID, date, symmetricKeyB64 string) error {
	_, err := g.contract.SubmitWithContext(ctx, "UploadKeyPrivateData",
		client.WithArguments(deviceName, contentID, date),
		client.WithTransient(map[string][]byte{
			transientKeyField: []byte(symmetricKeyB64),
		}),
	)
	if err != nil {
		g.log.Error("UploadKeyPrivateData failed", "device", deviceName, "date", date, "error", err)
		return mapError("UploadKeyPrivateData", err)
	}
	return nil
}

func (g *Gateway) AssetByID(ctx context.Context, assetID string) (*asset.DataAsset, error) {
	raw, err := g.contract.EvaluateWithContext(ctx, "GetAssetByID", client.WithArguments(assetID))
	if err != nil {
		return nil, mapError("GetAssetByID", err)
	}
	if len(raw) == 0 {
		return nil, asset.ErrNotFound
	}

	var a asset.DataAsset
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, fmt.Errorf("decode asset %s: %w", assetID, err)
	}
	return &a, nil
}

func (g *Gateway) PrivateKey(ctx context.Context, assetID string) (*asset.KeyRecord, error) {
	raw, err := g.contract.EvaluateWithContext(ctx, "GetKeyPrivateData", client.WithArguments(assetID))
	if err != nil {
		return nil, mapError("GetKeyPrivateData", err)
	}
	if len(raw) == 0 {
		return nil, asset.ErrNotFound
	}

	var k asset.KeyRecord
	if err := json.Unmarshal(raw, &k); err != nil {
		return nil, fmt.Errorf("decode key record %s: %w", assetID, err)
	}
	return &k, nil
}

// listTransaction maps a listing scope to its chaincode query.
func listTransaction(scope asset.ListScope) (string, error) {
	switch scope {
	case asset.ScopeAll:
		return "GetAllDataAssets", nil
	case asset.ScopeMine:
		return "GetMyOrgsDataAssets", nil
	case asset.ScopeOthers:
		return "GetOtherOrgsDataAssets", nil
	default:
		return "", fmt.Errorf("unknown list scope %q", scope)
	}
}

func (g *Gateway) ListAssets(ctx context.Context, scope asset.ListScope) ([]asset.DataAsset, error) {
	tx, err := listTransaction(scope)
	if err != nil {
		return nil, err
	}

	raw, err := g.contract.EvaluateWithContext(ctx, tx)
	if err != nil {
		return nil, mapError(tx, err)
	}
	if len(raw) == 0 {
		return []asset.DataAsset{}, nil
	}

	var assets []asset.DataAsset
	if err := json.Unmarshal(raw, &assets); err != nil {
		return nil, fmt.Errorf("decode %s result: %w", tx, err)
	}
	return assets, nil
}

func (g *Gateway) BidsForMyOrg(ctx context.Context) ([]asset.Bid, error) {
	raw, err := g.contract.EvaluateWithContext(ctx, "GetBidsForMyOrg")
	if err != nil {
		return nil, mapError("GetBidsForMyOrg", err)
	}
	if len(raw) == 0 {
		return nil, asset.ErrNoBids
	}

	var bids []asset.Bid
	if err := json.Unmarshal(raw, &bids); err != nil {
		return nil, fmt.Errorf("decode bids: %w", err)
	}
	if len(bids) == 0 {
		return nil, asset.ErrNoBids
	}
	return bids, nil
}

func (g *Gateway) SubmitBid(ctx context.Context, deviceName, date, price, additionalCommitments string) error {
	_, err := g.contract.SubmitWithContext(ctx, "BidForData",
		client.WithArguments(deviceName, date, price, additionalCommitments))
	if err != nil {
		g.log.Error("BidForData failed", "device", deviceName, "date", date, "error", err)
		return mapError("BidForData", err)
	}
	return nil
}

func (g *Gateway) AcceptBid(ctx context.Context, biddingOrg, deviceName, date, price string) error {
	_, err := g.contract.SubmitWithContext(ctx, "AcceptBid",
		client.WithArguments(biddingOrg, deviceName, date, price))
	if err != nil {
		g.log.Error("AcceptBid failed", "bidding_org", biddingOrg, "device", deviceName, "error", err)
		return mapError("AcceptBid", err)
	}
	return nil
}

// TransferKey moves the batch key into the buyer org's implicit collection.
// Both the buyer and this org must endorse, so the buyer's peer sees the
// transient key material while the public ledger never does.
func (g *Gateway) TransferKey(ctx context.Context, newOwnerOrg, deviceName, date, symmetricKeyB64 string) error {
	_, err := g.contract.SubmitWithContext(ctx, "TransferEncKey",
		client.WithArguments(newOwnerOrg, deviceName, date),
		client.WithTransient(map[string][]byte{
			transientKeyField: []byte(symmetricKeyB64),
		}),
		client.WithEndorsingOrganizations(newOwnerOrg, g.mspID),
	)
	if err != nil {
		g.log.Error("TransferEncKey failed", "new_owner", newOwnerOrg, "device", deviceName, "error", err)
		return mapError("TransferEncKey", err)
	}
	return nil
}

// mapError folds gateway failures into the domain error set. Endorsement
// rejections carry chaincode-level reasons and must be distinguishable from
// plain transport trouble.
func mapError(tx string, err error) error {
	var endorseErr *client.EndorseError
	if errors.As(err, &endorseErr) {
		return fmt.Errorf("%w: %s: %v", asset.ErrEndorsementRejected, tx, err)
	}

	if s, ok := status.FromError(err); ok && s.Code() == codes.DeadlineExceeded {
		return fmt.Errorf("%w: %s: %v", asset.ErrTimeout, tx, err)
	}

	return fmt.Errorf("%w: %s: %v", asset.ErrTransport, tx, err)
}
