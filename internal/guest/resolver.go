package guest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/xxxsen/docshare/internal/model"
	"github.com/xxxsen/docshare/internal/pkg/errcode"
	appErr "github.com/xxxsen/docshare/internal/pkg/errors"
)

const AccessHeader = "X-Share-Access"

// ResolvedDocument is what a guest receives once a share has been validated.
type ResolvedDocument struct {
	DocumentID string `json:"document_id"`
	FileName   string `json:"file_name"`
	FileType   string `json:"file_type"`
	SignedURL  string `json:"signed_url"`
	Size       int64  `json:"size,omitempty"`
	ExpiresAt  int64  `json:"expires_at,omitempty"`
}

type Resolver interface {
	Resolve(ctx context.Context, share *model.Share) (*ResolvedDocument, error)
}

type DocumentLookup interface {
	Lookup(ctx context.Context, docID string) (*model.Document, error)
}

type URLSigner interface {
	SignURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

type storageResolver struct {
	docs   DocumentLookup
	signer URLSigner
	ttl    time.Duration
	now    func() time.Time
}

// NewStorageResolver resolves shares against the document table and signs
// the storage path with the configured file store.
func NewStorageResolver(docs DocumentLookup, signer URLSigner, ttl time.Duration) Resolver {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &storageResolver{docs: docs, signer: signer, ttl: ttl, now: time.Now}
}

func (r *storageResolver) Resolve(ctx context.Context, share *model.Share) (*ResolvedDocument, error) {
	if share.ResourceType != "" && share.ResourceType != model.ResourceTypeDocument {
		return nil, fmt.Errorf("resource type %s: %w", share.ResourceType, appErr.ErrNotFound)
	}
	doc, err := r.docs.Lookup(ctx, share.ResourceID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(doc.FileKey) == "" {
		return nil, appErr.ErrStorageMissing
	}
	signed, err := r.signer.SignURL(ctx, doc.FileKey, r.ttl)
	if errors.Is(err, appErr.ErrStorageMissing) {
		return nil, fmt.Errorf("sign %s: %w", doc.FileKey, err)
	}
	if err != nil {
		return nil, fmt.Errorf("sign %s: %v: %w", doc.FileKey, err, appErr.ErrSignedURL)
	}
	if signed == "" {
		return nil, appErr.ErrSignedURL
	}
	return &ResolvedDocument{
		DocumentID: doc.ID,
		FileName:   doc.Name,
		FileType:   doc.ContentType,
		SignedURL:  signed,
		Size:       doc.Size,
		ExpiresAt:  r.now().Add(r.ttl).Unix(),
	}, nil
}

type accessTokenKey struct{}

// WithAccessToken attaches a guest access token that remote calls forward.
func WithAccessToken(ctx context.Context, token string) context.Context {
	if token == "" {
		return ctx
	}
	return context.WithValue(ctx, accessTokenKey{}, token)
}

func accessTokenFrom(ctx context.Context) string {
	v, _ := ctx.Value(accessTokenKey{}).(string)
	return v
}

type remoteResolver struct {
	baseURL string
	client  *http.Client
}

// NewRemoteResolver delegates resolution to GET {base}/api/guest/document/{token}.
func NewRemoteResolver(baseURL string, client *http.Client) Resolver {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &remoteResolver{baseURL: strings.TrimSuffix(baseURL, "/"), client: client}
}

type remoteEnvelope struct {
	Code *int            `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

func (r *remoteResolver) Resolve(ctx context.Context, share *model.Share) (*ResolvedDocument, error) {
	endpoint := r.baseURL + "/api/guest/document/" + url.PathEscape(share.Token)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if token := accessTokenFrom(ctx); token != "" {
		req.Header.Set(AccessHeader, token)
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("resolve document: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, appErr.ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("resolve document: unexpected status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read document response: %w", err)
	}
	payload := body
	var env remoteEnvelope
	if err := json.Unmarshal(body, &env); err == nil && env.Code != nil {
		if *env.Code != 0 {
			return nil, remoteCodeErr(*env.Code, env.Msg)
		}
		payload = env.Data
	}
	var doc ResolvedDocument
	if len(payload) == 0 || string(payload) == "null" {
		return nil, appErr.ErrSignedURL
	}
	if err := json.Unmarshal(payload, &doc); err != nil {
		return nil, fmt.Errorf("decode document response: %w", err)
	}
	if doc.SignedURL == "" {
		return nil, appErr.ErrSignedURL
	}
	return &doc, nil
}

func remoteCodeErr(code int, msg string) error {
	switch code {
	case errcode.ErrNotFound:
		return appErr.ErrNotFound
	case errcode.ErrShareRevoked:
		return appErr.ErrRevoked
	case errcode.ErrShareExpired:
		return appErr.ErrExpired
	case errcode.ErrStorageMissing:
		return appErr.ErrStorageMissing
	case errcode.ErrSignedURL:
		return appErr.ErrSignedURL
	case errcode.ErrPasswordRequired:
		return appErr.ErrPasswordRequired
	case errcode.ErrWrongPassword:
		return appErr.ErrWrongPassword
	default:
		return fmt.Errorf("resolve document: code %d: %s", code, msg)
	}
}
