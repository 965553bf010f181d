package asset

import (
	"errors"
)

var (
	// ErrNotFound: the ledger answered but holds no such record.
	ErrNotFound = errors.New("asset not found on the ledger")
	// ErrNoBids distinguishes "queried successfully, nothing found" from a
	// transport failure.
	ErrNoBids = errors.New("no bids found on the ledger for this org")
	// ErrObjectStore wraps transport or store-side failures of the
	// content-addressed store.
	ErrObjectStore = errors.New("object store request failed")
	// ErrDecryption: the key/ciphertext pair does not match, usually an
	// access-control signal (key never transferred to this org).
	ErrDecryption = errors.New("could not decrypt asset data")

	// Ledger failure taxonomy. None of these are retried by the adapter;
	// background callers retry on the next poll cycle, interactive callers
	// surface them to the requester.
	ErrTimeout             = errors.New("ledger call deadline exceeded")
	ErrEndorsementRejected = errors.New("transaction rejected by endorsement policy")
	ErrTransport           = errors.New("ledger transport failure")
)
