package service

import (
	"context"
	"time"

	"github.com/xxxsen/docshare/internal/guest"
	"github.com/xxxsen/docshare/internal/model"
	appErr "github.com/xxxsen/docshare/internal/pkg/errors"
	"github.com/xxxsen/docshare/internal/pkg/jwt"
	"github.com/xxxsen/docshare/internal/sharestore"
)

type GuestServiceConfig struct {
	Shares sharestore.Repository
	// Resolver and Tracker drive the viewer flow and may be remote.
	Resolver guest.Resolver
	Tracker  guest.UsageTracker
	// Documents and Views back the server-side endpoints and always use local storage.
	Documents guest.Resolver
	Views     guest.UsageTracker

	AccessSecret []byte
	AccessTTL    time.Duration
	Now          func() time.Time
}

type GuestService struct {
	cfg GuestServiceConfig
}

func NewGuestService(cfg GuestServiceConfig) *GuestService {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = time.Hour
	}
	return &GuestService{cfg: cfg}
}

type GuestShare struct {
	ResourceName     string `json:"resource_name"`
	ResourceType     string `json:"resource_type"`
	Permission       string `json:"permission"`
	AllowDownload    bool   `json:"allow_download"`
	AllowPrint       bool   `json:"allow_print"`
	ExpiresAt        int64  `json:"expires_at"`
	RequiresPassword bool   `json:"requires_password"`
	CanDownload      bool   `json:"can_download"`
}

// GuestView is what the share page renders.
type GuestView struct {
	State       guest.State             `json:"state"`
	Reason      string                  `json:"reason,omitempty"`
	Share       *GuestShare             `json:"share,omitempty"`
	Document    *guest.ResolvedDocument `json:"document,omitempty"`
	Preview     string                  `json:"preview,omitempty"`
	AccessToken string                  `json:"access_token,omitempty"`
}

func (s *GuestService) newSession(token, sessionID string) *guest.Session {
	return guest.NewSession(guest.Deps{
		Shares:   s.cfg.Shares,
		Resolver: s.cfg.Resolver,
		Tracker:  s.cfg.Tracker,
		Now:      s.cfg.Now,
	}, token, sessionID)
}

// Open runs the viewer flow. Failures are reported through the view state.
func (s *GuestService) Open(ctx context.Context, token, sessionID, accessToken string) *GuestView {
	session, _ := s.load(ctx, token, sessionID, accessToken)
	return buildView(session, "")
}

// Unlock checks the password and, when it matches, returns a ready view with
// an access token that later requests can present instead of the password.
func (s *GuestService) Unlock(ctx context.Context, token, sessionID, plainPassword string) (*GuestView, error) {
	session := s.newSession(token, sessionID)
	switch session.Load(ctx) {
	case guest.StateError:
		return nil, session.Err()
	case guest.StateReady:
		return buildView(session, ""), nil
	}
	if err := guest.CheckPassword(session.Share(), plainPassword); err != nil {
		return nil, err
	}
	// Remote resolvers forward the access token, so it must exist before resolution.
	access, err := jwt.GenerateScopedToken(jwt.ScopeGuestAccess, token, s.cfg.AccessSecret, s.cfg.AccessTTL)
	if err != nil {
		return nil, err
	}
	state, err := session.SubmitPassword(guest.WithAccessToken(ctx, access), plainPassword)
	if state == guest.StateLocked {
		return nil, err
	}
	if state == guest.StateError {
		return nil, session.Err()
	}
	return buildView(session, access), nil
}

func (s *GuestService) Download(ctx context.Context, token, sessionID, accessToken string) (string, error) {
	session, err := s.load(ctx, token, sessionID, accessToken)
	if err != nil {
		return "", err
	}
	return session.Download()
}

// ResolveDocument is the server-side resolution used by remote viewers.
// It neither counts usage nor changes share status.
func (s *GuestService) ResolveDocument(ctx context.Context, token, accessToken string) (*guest.ResolvedDocument, error) {
	if s.cfg.Documents == nil {
		return nil, appErr.ErrNotFound
	}
	share, err := s.cfg.Shares.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if err := guest.CheckValidity(share, s.cfg.Now()).Err(); err != nil {
		return nil, err
	}
	if share.HasPassword() && !s.accessGranted(token, accessToken) {
		return nil, appErr.ErrPasswordRequired
	}
	return s.cfg.Documents.Resolve(ctx, share)
}

// TrackView counts a view of shareID for the guest session. Repeats are ignored.
func (s *GuestService) TrackView(ctx context.Context, shareID, sessionID string) (bool, error) {
	share, err := s.cfg.Shares.GetByID(ctx, shareID)
	if err != nil {
		return false, err
	}
	if err := guest.CheckValidity(share, s.cfg.Now()).Err(); err != nil {
		return false, err
	}
	return s.cfg.Views.Track(ctx, share, sessionID)
}

func (s *GuestService) load(ctx context.Context, token, sessionID, accessToken string) (*guest.Session, error) {
	session := s.newSession(token, sessionID)
	if s.accessGranted(token, accessToken) {
		ctx = guest.WithAccessToken(ctx, accessToken)
		session.LoadUnlocked(ctx)
	} else {
		session.Load(ctx)
	}
	switch session.State() {
	case guest.StateError:
		return session, session.Err()
	case guest.StateLocked:
		return session, appErr.ErrPasswordRequired
	}
	return session, nil
}

func (s *GuestService) accessGranted(token, accessToken string) bool {
	if accessToken == "" {
		return false
	}
	return jwt.VerifyScopedToken(accessToken, jwt.ScopeGuestAccess, token, s.cfg.AccessSecret) == nil
}

func buildView(session *guest.Session, accessToken string) *GuestView {
	view := &GuestView{State: session.State(), Reason: session.Reason(), AccessToken: accessToken}
	if share := session.Share(); share != nil && session.State() != guest.StateError {
		view.Share = publicShare(share)
	}
	if doc := session.Document(); doc != nil {
		view.Document = doc
		view.Preview = guest.PreviewCategory(doc.FileType, doc.FileName)
	}
	return view
}

func publicShare(share *model.Share) *GuestShare {
	return &GuestShare{
		ResourceName:     share.ResourceName,
		ResourceType:     share.ResourceType,
		Permission:       share.Permission,
		AllowDownload:    share.AllowDownload,
		AllowPrint:       share.AllowPrint,
		ExpiresAt:        share.ExpiresAt,
		RequiresPassword: share.HasPassword(),
		CanDownload:      share.CanDownload(),
	}
}
