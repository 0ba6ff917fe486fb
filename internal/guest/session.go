package guest

import (
	"context"
	"errors"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/docshare/internal/model"
	appErr "github.com/xxxsen/docshare/internal/pkg/errors"
)

type State string

const (
	StateLoading State = "loading"
	StateError   State = "error"
	StateLocked  State = "locked"
	StateReady   State = "ready"
	StateViewing State = "viewing"
)

type ShareSource interface {
	GetByToken(ctx context.Context, token string) (*model.Share, error)
	MarkAccessed(ctx context.Context, id string, now int64) error
}

type Deps struct {
	Shares   ShareSource
	Resolver Resolver
	Tracker  UsageTracker
	Now      func() time.Time
}

// Session walks one guest through a share: lookup, validity, optional
// password, resolution, then view or download. It is not safe for concurrent use.
type Session struct {
	deps      Deps
	token     string
	sessionID string

	state    State
	reason   string
	err      error
	share    *model.Share
	document *ResolvedDocument
	preview  string
	counted  bool
}

func NewSession(deps Deps, token, sessionID string) *Session {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Session{deps: deps, token: token, sessionID: sessionID, state: StateLoading}
}

func (s *Session) State() State                { return s.state }
func (s *Session) Reason() string              { return s.reason }
func (s *Session) Err() error                  { return s.err }
func (s *Session) Share() *model.Share         { return s.share }
func (s *Session) Document() *ResolvedDocument { return s.document }
func (s *Session) Preview() string             { return s.preview }
func (s *Session) Counted() bool               { return s.counted }

// Load looks the token up and moves to error, locked or ready.
func (s *Session) Load(ctx context.Context) State {
	return s.load(ctx, false)
}

// LoadUnlocked is Load for a guest that already proved the password.
func (s *Session) LoadUnlocked(ctx context.Context) State {
	return s.load(ctx, true)
}

func (s *Session) load(ctx context.Context, unlocked bool) State {
	s.state = StateLoading
	share, err := s.deps.Shares.GetByToken(ctx, s.token)
	if err != nil {
		if errors.Is(err, appErr.ErrNotFound) {
			return s.fail(appErr.ErrNotFound, ReasonNotFound)
		}
		return s.fail(err, "failed to load share")
	}
	s.share = share
	validity := CheckValidity(share, s.deps.Now())
	if !validity.Valid {
		return s.fail(validity.Err(), validity.Reason)
	}
	if share.HasPassword() && !unlocked {
		s.state = StateLocked
		return s.state
	}
	return s.resolve(ctx)
}

// SubmitPassword is only meaningful while locked. A wrong password keeps the
// session locked and returns the error.
func (s *Session) SubmitPassword(ctx context.Context, password string) (State, error) {
	if s.state != StateLocked {
		return s.state, appErr.ErrInvalid
	}
	if err := CheckPassword(s.share, password); err != nil {
		s.err = err
		s.reason = err.Error()
		return s.state, err
	}
	s.err = nil
	s.reason = ""
	state := s.resolve(ctx)
	return state, s.err
}

// View opens the resolved document and returns its preview category.
func (s *Session) View() (string, error) {
	if s.state != StateReady && s.state != StateViewing {
		return "", appErr.ErrInvalid
	}
	s.preview = PreviewCategory(s.document.FileType, s.document.FileName)
	s.state = StateViewing
	return s.preview, nil
}

func (s *Session) Close() error {
	if s.state != StateViewing {
		return appErr.ErrInvalid
	}
	s.state = StateReady
	return nil
}

// Download returns the signed URL when the share permits downloading.
func (s *Session) Download() (string, error) {
	if s.state != StateReady && s.state != StateViewing {
		return "", appErr.ErrInvalid
	}
	if !s.share.CanDownload() {
		return "", appErr.ErrDownloadForbidden
	}
	return s.document.SignedURL, nil
}

func (s *Session) resolve(ctx context.Context) State {
	doc, err := s.deps.Resolver.Resolve(ctx, s.share)
	if err != nil {
		return s.fail(err, reasonFor(err))
	}
	s.document = doc
	s.state = StateReady
	now := s.deps.Now().Unix()
	if err := s.deps.Shares.MarkAccessed(ctx, s.share.ID, now); err != nil {
		logutil.GetLogger(ctx).Warn("mark share accessed failed", zap.String("share_id", s.share.ID), zap.Error(err))
	} else {
		s.share.Status = model.ShareStatusAccepted
		s.share.LastAccessedAt = now
	}
	if s.deps.Tracker != nil {
		counted, err := s.deps.Tracker.Track(ctx, s.share, s.sessionID)
		if err != nil {
			logutil.GetLogger(ctx).Warn("track share view failed", zap.String("share_id", s.share.ID), zap.Error(err))
		}
		s.counted = counted
	}
	return s.state
}

func (s *Session) fail(err error, reason string) State {
	s.state = StateError
	s.err = err
	s.reason = reason
	return s.state
}

func reasonFor(err error) string {
	switch {
	case errors.Is(err, appErr.ErrNotFound):
		return ReasonNotFound
	case errors.Is(err, appErr.ErrRevoked):
		return ReasonRevoked
	case errors.Is(err, appErr.ErrExpired):
		return ReasonExpired
	case errors.Is(err, appErr.ErrStorageMissing):
		return appErr.ErrStorageMissing.Error()
	case errors.Is(err, appErr.ErrSignedURL):
		return appErr.ErrSignedURL.Error()
	default:
		return "failed to resolve document"
	}
}
