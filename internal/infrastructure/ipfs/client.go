package ipfs

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/ipfs/go-cid"
	"golang.org/x/exp/slog"

	"sensorgate/internal/domain/asset"
)

// addResponse is the relevant slice of the cluster /add reply.
type addResponse struct {
	Name string `json:"name"`
	CID  string `json:"cid"`
	Size int64  `json:"size"`
}

// Client stores encrypted batch blobs on an IPFS cluster and reads them back
// through a gateway. Writes go to the cluster REST API so the blob is pinned
// across the cluster; reads use the plain HTTP gateway.
type Client struct {
	cluster *resty.Client
	gateway *resty.Client
	log     *slog.Logger
}

func NewClient(clusterAPIURL, gatewayURL string, log *slog.Logger) *Client {
	cluster := resty.New().
		SetBaseURL(clusterAPIURL).
		SetTimeout(30 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(1 * time.Second)

	gateway := resty.New().
		SetBaseURL(gatewayURL).
		SetTimeout(30 * time.Second)

	return &Client{
		cluster: cluster,
		gateway: gateway,
		log:     log.With(slog.String("component", "ipfs_client")),
	}
}

// Put adds the blob to the cluster and returns its content identifier.
func (c *Client) Put(ctx context.Context, blob []byte) (string, error) {
	var result addResponse
	resp, err := c.cluster.R().
		SetContext(ctx).
		SetFileReader("file", "batch", bytes.NewReader(blob)).
		SetResult(&result).
		Post("/add")
	if err != nil {
		c.log.Error("cluster add failed", "error", err)
		return "", fmt.Errorf("%w: add: %v", asset.ErrObjectStore, err)
	}
	if resp.IsError() {
		c.log.Error("cluster add rejected", "status", resp.StatusCode(), "body", resp.String())
		return "", fmt.Errorf("%w: add: unexpected status %d", asset.ErrObjectStore, resp.StatusCode())
	}

	if _, err := cid.Decode(result.CID); err != nil {
		return "", fmt.Errorf("%w: cluster returned malformed cid %q: %v", asset.ErrObjectStore, result.CID, err)
	}

	c.log.Debug("blob pinned", "cid", result.CID, "size", len(blob))
	return result.CID, nil
}

// Get fetches the blob for a content identifier through the gateway.
func (c *Client) Get(ctx context.Context, contentID string) ([]byte, error) {
	if _, err := cid.Decode(contentID); err != nil {
		return nil, fmt.Errorf("%w: malformed cid %q: %v", asset.ErrObjectStore, contentID, err)
	}

	resp, err := c.gateway.R().
		SetContext(ctx).
		Get("/ipfs/" + contentID)
	if err != nil {
		c.log.Error("gateway fetch failed", "cid", contentID, "error", err)
		return nil, fmt.Errorf("%w: get %s: %v", asset.ErrObjectStore, contentID, err)
	}
	if resp.IsError() {
		c.log.Error("gateway fetch rejected", "cid", contentID, "status", resp.StatusCode())
		return nil, fmt.Errorf("%w: get %s: unexpected status %d", asset.ErrObjectStore, contentID, resp.StatusCode())
	}

	return resp.Body(), nil
}
