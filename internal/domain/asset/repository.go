package asset

import (
	"context"
)

// Ledger is the typed view of the chaincode operations, implemented by the
// Fabric gateway adapter. Every call carries a bounded deadline; failures
// map onto ErrTimeout, ErrEndorsementRejected or ErrTransport.
type Ledger interface {
	// CreateAssetPointer commits the device-day -> content id pointer.
	CreateAssetPointer(ctx context.Context, deviceName, contentID, date string) error
	// StorePrivateKey writes the symmetric key into the submitting org's
	// implicit private collection, passed as transient data so it never
	// enters the public transaction record.
	StorePrivateKey(ctx context.Context, deviceName, contentID, date, symmetricKeyB64 string) error

	AssetByID(ctx context.Context, assetID string) (*DataAsset, error)
	PrivateKey(ctx context.Context, assetID string) (*KeyRecord, error)
	ListAssets(ctx context.Context, scope ListScope) ([]DataAsset, error)

	BidsForMyOrg(ctx context.Context) ([]Bid, error)
	SubmitBid(ctx context.Context, deviceName, date, price, additionalCommitments string) error
	AcceptBid(ctx context.Context, biddingOrg, deviceName, date, price string) error
	// TransferKey materializes the key in the new owner's private collection;
	// both organizations must endorse.
	TransferKey(ctx context.Context, newOwnerOrg, deviceName, date, symmetricKeyB64 string) error

	MSPID() string
}

// ObjectStore is the content-addressed store: the identifier is derived
// from the stored content, so re-uploading the same blob is idempotent.
type ObjectStore interface {
	Put(ctx context.Context, blob []byte) (string, error)
	Get(ctx context.Context, contentID string) ([]byte, error)
}

// Decryptor reverses the batch encryption given the per-batch key.
type Decryptor interface {
	Decrypt(ciphertextB64 string, key []byte) ([]byte, error)
}
