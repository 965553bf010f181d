package asset

// DataAsset is the ledger-resident pointer linking a device-day to its
// ciphertext in the object store. Created exactly once per device-day;
// this service never mutates it directly, ownership changes only through
// bid acceptance on the ledger side.
type DataAsset struct {
	AssetName    string `json:"assetName"`
	Date         string `json:"date"`
	ContentID    string `json:"IPFS_CID"`
	UploadingOrg string `json:"uploadingOrg"`
}

// ID returns the ledger key of the asset: deviceName_date.
func (a DataAsset) ID() string {
	return a.AssetName + "_" + a.Date
}

// KeyRecord holds a batch's symmetric key inside an organization's implicit
// private collection. Additional copies appear in other collections only
// through the key-transfer step of bid acceptance.
type KeyRecord struct {
	DeviceName   string `json:"deviceName"`
	Date         string `json:"date"`
	ContentID    string `json:"IPFS_CID"`
	SymmetricKey string `json:"symmetricKey"` // base64
}

// Bid is a marketplace offer by one organization for another organization's
// device-day asset. Competing bids for the same pair are deactivated by the
// ledger when one is accepted.
type Bid struct {
	BiddingOrg            string `json:"biddingOrg"`
	CurrentOwnerOrg       string `json:"currentOwnerOrg"`
	DeviceName            string `json:"deviceName"`
	Date                  string `json:"date"`
	Price                 string `json:"price"`
	AdditionalCommitments string `json:"additionalCommitments"`
	Active                bool   `json:"active"`
}

// ListScope selects which organizations' assets a listing covers.
type ListScope string

const (
	ScopeAll    ListScope = "all"
	ScopeMine   ListScope = "mine"
	ScopeOthers ListScope = "others"
)
