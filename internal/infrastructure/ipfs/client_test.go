package ipfs

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"

	"sensorgate/internal/domain/asset"
)

const testCID = "QmYwAPJzv5CZsnA625s3Xf2nemtYgPpHdWEz79ojWnPbdG"

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestClient_Put(t *testing.T) {
	var gotBody []byte
	cluster := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/add", r.URL.Path)

		file, _, err := r.FormFile("file")
		require.NoError(t, err)
		gotBody, err = io.ReadAll(file)
		require.NoError(t, err)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"name":"batch","cid":"` + testCID + `","size":42}`))
	}))
	defer cluster.Close()

	c := NewClient(cluster.URL, "http://unused", discard())

	gotCID, err := c.Put(context.Background(), []byte("ciphertext blob"))
	require.NoError(t, err)
	assert.Equal(t, testCID, gotCID)
	assert.Equal(t, []byte("ciphertext blob"), gotBody)
}

func TestClient_PutMalformedCID(t *testing.T) {
	cluster := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"name":"batch","cid":"not-a-cid","size":42}`))
	}))
	defer cluster.Close()

	c := NewClient(cluster.URL, "http://unused", discard())

	_, err := c.Put(context.Background(), []byte("blob"))
	assert.ErrorIs(t, err, asset.ErrObjectStore)
}

func TestClient_PutServerError(t *testing.T) {
	cluster := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "cluster unavailable", http.StatusServiceUnavailable)
	}))
	defer cluster.Close()

	c := NewClient(cluster.URL, "http://unused", discard())

	_, err := c.Put(context.Background(), []byte("blob"))
	assert.ErrorIs(t, err, asset.ErrObjectStore)
}

func TestClient_Get(t *testing.T) {
	gateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/ipfs/"+testCID, r.URL.Path)
		_, _ = w.Write([]byte("ciphertext blob"))
	}))
	defer gateway.Close()

	c := NewClient("http://unused", gateway.URL, discard())

	blob, err := c.Get(context.Background(), testCID)
	require.NoError(t, err)
	assert.Equal(t, []byte("ciphertext blob"), blob)
}

func TestClient_GetRejectsMalformedCID(t *testing.T) {
	c := NewClient("http://unused", "http://unused", discard())

	_, err := c.Get(context.Background(), "../../etc/passwd")
	assert.ErrorIs(t, err, asset.ErrObjectStore)
}

func TestClient_GetNotFound(t *testing.T) {
	gateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer gateway.Close()

	c := NewClient("http://unused", gateway.URL, discard())

	_, err := c.Get(context.Background(), testCID)
	assert.ErrorIs(t, err, asset.ErrObjectStore)
}
