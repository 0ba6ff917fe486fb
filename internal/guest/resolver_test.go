package guest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/docshare/internal/model"
	"github.com/xxxsen/docshare/internal/pkg/errcode"
	appErr "github.com/xxxsen/docshare/internal/pkg/errors"
)

type fakeDocs struct {
	docs map[string]*model.Document
}

func (f *fakeDocs) Lookup(ctx context.Context, docID string) (*model.Document, error) {
	doc, ok := f.docs[docID]
	if !ok {
		return nil, appErr.ErrNotFound
	}
	return doc, nil
}

type fakeSigner struct {
	mu      sync.Mutex
	err     error
	lastTTL time.Duration
}

func (f *fakeSigner) SignURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastTTL = ttl
	if f.err != nil {
		return "", f.err
	}
	return "https://files.example.com/" + key + "?sig=1", nil
}

func TestStorageResolver(t *testing.T) {
	docs := &fakeDocs{docs: map[string]*model.Document{
		"d1": {ID: "d1", Name: "report.pdf", FileKey: "k1.pdf", ContentType: "application/pdf", Size: 42},
		"d2": {ID: "d2", Name: "lost.pdf"},
	}}
	signer := &fakeSigner{}
	resolver := NewStorageResolver(docs, signer, time.Hour)
	ctx := context.Background()

	doc, err := resolver.Resolve(ctx, &model.Share{ResourceID: "d1", ResourceType: model.ResourceTypeDocument})
	require.NoError(t, err)
	require.Equal(t, "d1", doc.DocumentID)
	require.Equal(t, "report.pdf", doc.FileName)
	require.Equal(t, "application/pdf", doc.FileType)
	require.Equal(t, "https://files.example.com/k1.pdf?sig=1", doc.SignedURL)
	require.Equal(t, time.Hour, signer.lastTTL)

	_, err = resolver.Resolve(ctx, &model.Share{ResourceID: "missing"})
	require.ErrorIs(t, err, appErr.ErrNotFound)

	_, err = resolver.Resolve(ctx, &model.Share{ResourceID: "d2"})
	require.ErrorIs(t, err, appErr.ErrStorageMissing)

	_, err = resolver.Resolve(ctx, &model.Share{ResourceID: "d1", ResourceType: "folder"})
	require.ErrorIs(t, err, appErr.ErrNotFound)

	signer.err = errors.New("boom")
	_, err = resolver.Resolve(ctx, &model.Share{ResourceID: "d1"})
	require.ErrorIs(t, err, appErr.ErrSignedURL)

	signer.err = fmt.Errorf("stat k1.pdf: %w", appErr.ErrStorageMissing)
	_, err = resolver.Resolve(ctx, &model.Share{ResourceID: "d1"})
	require.ErrorIs(t, err, appErr.ErrStorageMissing)
	require.NotErrorIs(t, err, appErr.ErrSignedURL)
}

func TestRemoteResolverEnvelope(t *testing.T) {
	var gotPath, gotAccess string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAccess = r.Header.Get(AccessHeader)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"code":0,"msg":"","data":{"document_id":"d1","file_name":"a.pdf","file_type":"application/pdf","signed_url":"https://s/a.pdf"}}`))
	}))
	defer srv.Close()

	resolver := NewRemoteResolver(srv.URL+"/", srv.Client())
	ctx := WithAccessToken(context.Background(), "acc")
	doc, err := resolver.Resolve(ctx, &model.Share{Token: "tok1"})
	require.NoError(t, err)
	require.Equal(t, "/api/guest/document/tok1", gotPath)
	require.Equal(t, "acc", gotAccess)
	require.Equal(t, "https://s/a.pdf", doc.SignedURL)
	require.Equal(t, "a.pdf", doc.FileName)
}

func TestRemoteResolverFlatBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"document_id":"d1","file_name":"a.png","file_type":"image/png","signed_url":"https://s/a.png"}`))
	}))
	defer srv.Close()

	doc, err := NewRemoteResolver(srv.URL, nil).Resolve(context.Background(), &model.Share{Token: "t"})
	require.NoError(t, err)
	require.Equal(t, "image/png", doc.FileType)
}

func TestRemoteResolverMissingSignedURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"document_id":"d1","file_name":"a.pdf","file_type":"application/pdf"}`))
	}))
	defer srv.Close()

	_, err := NewRemoteResolver(srv.URL, nil).Resolve(context.Background(), &model.Share{Token: "t"})
	require.ErrorIs(t, err, appErr.ErrSignedURL)
}

func TestRemoteResolverErrors(t *testing.T) {
	notFound := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer notFound.Close()
	_, err := NewRemoteResolver(notFound.URL, nil).Resolve(context.Background(), &model.Share{Token: "t"})
	require.ErrorIs(t, err, appErr.ErrNotFound)

	revoked := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(fmt.Sprintf(`{"code":%d,"msg":"revoked","data":null}`, errcode.ErrShareRevoked)))
	}))
	defer revoked.Close()
	_, err = NewRemoteResolver(revoked.URL, nil).Resolve(context.Background(), &model.Share{Token: "t"})
	require.ErrorIs(t, err, appErr.ErrRevoked)

	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer broken.Close()
	_, err = NewRemoteResolver(broken.URL, nil).Resolve(context.Background(), &model.Share{Token: "t"})
	require.Error(t, err)
	require.False(t, errors.Is(err, appErr.ErrNotFound))
}
