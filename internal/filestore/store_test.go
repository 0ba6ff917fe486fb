package filestore

import (
	"bytes"
	"context"
	"io"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/docshare/internal/config"
	appErr "github.com/xxxsen/docshare/internal/pkg/errors"
)

func newLocal(t *testing.T) Store {
	t.Helper()
	store, err := New(config.FileStoreConfig{
		Type: "local",
		Data: map[string]interface{}{
			"dir":         t.TempDir(),
			"public_url":  "http://files.example.com/",
			"sign_secret": "sign",
		},
	})
	require.NoError(t, err)
	return store
}

func TestNewRejectsUnknownType(t *testing.T) {
	_, err := New(config.FileStoreConfig{Type: "ftp"})
	require.Error(t, err)
	_, err = New(config.FileStoreConfig{Type: "local"})
	require.Error(t, err)
}

func TestLocalStoreSaveOpenDelete(t *testing.T) {
	ctx := context.Background()
	store := newLocal(t)
	require.Equal(t, "local", store.Type())

	require.NoError(t, store.Save(ctx, "a.txt", bytes.NewBufferString("hello"), 5, "text/plain"))
	rc, err := store.Open(ctx, "a.txt")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	require.Equal(t, "hello", string(data))

	require.Error(t, store.Save(ctx, "../escape", bytes.NewBufferString("x"), 1, ""))
	require.NoError(t, store.Delete(ctx, "a.txt"))
	require.NoError(t, store.Delete(ctx, "a.txt"))
	_, err = store.Open(ctx, "a.txt")
	require.Error(t, err)
}

func TestLocalStoreSignedURL(t *testing.T) {
	ctx := context.Background()
	store := newLocal(t)

	_, err := store.SignURL(ctx, "missing.pdf", time.Hour)
	require.ErrorIs(t, err, appErr.ErrStorageMissing)

	require.NoError(t, store.Save(ctx, "doc.pdf", bytes.NewBufferString("%PDF"), 4, "application/pdf"))
	signed, err := store.SignURL(ctx, "doc.pdf", time.Hour)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(signed, "http://files.example.com/api/files/doc.pdf?token="))

	u, err := url.Parse(signed)
	require.NoError(t, err)
	verifier, ok := store.(URLVerifier)
	require.True(t, ok)
	require.NoError(t, verifier.VerifyURL("doc.pdf", u.Query().Get("token")))
	require.Error(t, verifier.VerifyURL("other.pdf", u.Query().Get("token")))
}

func TestS3StorePresign(t *testing.T) {
	store, err := New(config.FileStoreConfig{
		Type: "s3",
		Data: map[string]interface{}{
			"endpoint":   "localhost:9000",
			"secret_id":  "id",
			"secret_key": "key",
			"bucket":     "docs",
			"prefix":     "/shared/",
		},
	})
	require.NoError(t, err)
	signed, err := store.SignURL(context.Background(), "doc.pdf", time.Hour)
	require.NoError(t, err)
	require.Contains(t, signed, "http://localhost:9000/docs/shared/doc.pdf")
	require.Contains(t, signed, "X-Amz-Expires=3600")
}

func TestMinioStorePresign(t *testing.T) {
	store, err := New(config.FileStoreConfig{
		Type: "minio",
		Data: map[string]interface{}{
			"endpoint":          "http://localhost:9000",
			"access_key_id":     "id",
			"secret_access_key": "key",
			"bucket":            "docs",
		},
	})
	require.NoError(t, err)
	signed, err := store.SignURL(context.Background(), "doc.pdf", time.Hour)
	require.NoError(t, err)
	require.Contains(t, signed, "localhost:9000/docs/doc.pdf")
	require.Contains(t, signed, "X-Amz-Expires=3600")
}

func TestBuildS3Endpoint(t *testing.T) {
	require.Equal(t, "", buildS3Endpoint("", true))
	require.Equal(t, "https://s3.example.com", buildS3Endpoint("s3.example.com", true))
	require.Equal(t, "http://minio:9000", buildS3Endpoint("http://minio:9000/", true))
}
