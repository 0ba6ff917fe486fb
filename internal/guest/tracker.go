package guest

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/docshare/internal/model"
	"github.com/xxxsen/docshare/internal/seen"
)

const SessionHeader = "X-Guest-Session"

// UsageTracker records a successful view. Track reports whether the view was
// counted; repeated views within one guest session are not.
type UsageTracker interface {
	Track(ctx context.Context, share *model.Share, sessionID string) (bool, error)
}

type UsageCounter interface {
	IncrementUsage(ctx context.Context, id string, now int64) (int64, error)
}

type storeTracker struct {
	counter UsageCounter
	marker  seen.Marker
	now     func() time.Time
}

func NewStoreTracker(counter UsageCounter, marker seen.Marker) UsageTracker {
	return &storeTracker{counter: counter, marker: marker, now: time.Now}
}

// Track counts at most one view per share and guest session. Views without a
// session id are not counted.
func (t *storeTracker) Track(ctx context.Context, share *model.Share, sessionID string) (bool, error) {
	if sessionID == "" {
		return false, nil
	}
	key := share.ID + ":" + sessionID
	first, err := t.marker.MarkOnce(ctx, key)
	if err != nil {
		return false, fmt.Errorf("mark view: %w", err)
	}
	if !first {
		return false, nil
	}
	count, err := t.counter.IncrementUsage(ctx, share.ID, t.now().Unix())
	if err != nil {
		if ferr := t.marker.Forget(ctx, key); ferr != nil {
			logutil.GetLogger(ctx).Warn("forget view mark failed", zap.String("key", key), zap.Error(ferr))
		}
		return false, fmt.Errorf("increment usage: %w", err)
	}
	share.UsageCount = count
	return true, nil
}

type remoteTracker struct {
	baseURL string
	client  *http.Client
	timeout time.Duration
}

// NewRemoteTracker posts views to {base}/api/shares/{id}/view without waiting for the answer.
func NewRemoteTracker(baseURL string, client *http.Client) UsageTracker {
	if client == nil {
		client = &http.Client{}
	}
	return &remoteTracker{baseURL: strings.TrimSuffix(baseURL, "/"), client: client, timeout: 10 * time.Second}
}

func (t *remoteTracker) Track(ctx context.Context, share *model.Share, sessionID string) (bool, error) {
	endpoint := t.baseURL + "/api/shares/" + url.PathEscape(share.ID) + "/view"
	bg := context.WithoutCancel(ctx)
	go t.post(bg, endpoint, sessionID)
	return true, nil
}

func (t *remoteTracker) post(ctx context.Context, endpoint, sessionID string) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		logutil.GetLogger(ctx).Warn("build view tracking request failed", zap.Error(err))
		return
	}
	if sessionID != "" {
		req.Header.Set(SessionHeader, sessionID)
	}
	resp, err := t.client.Do(req)
	if err != nil {
		logutil.GetLogger(ctx).Warn("view tracking failed", zap.String("url", endpoint), zap.Error(err))
		return
	}
	resp.Body.Close()
	if resp.StatusCode >= 300 {
		logutil.GetLogger(ctx).Warn("view tracking rejected", zap.String("url", endpoint), zap.Int("status", resp.StatusCode))
	}
}
