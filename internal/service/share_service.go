package service

import (
	"context"
	"strings"

	"github.com/xxxsen/docshare/internal/model"
	appErr "github.com/xxxsen/docshare/internal/pkg/errors"
	"github.com/xxxsen/docshare/internal/pkg/password"
	"github.com/xxxsen/docshare/internal/pkg/timeutil"
	"github.com/xxxsen/docshare/internal/sharestore"
)

type ShareService struct {
	shares sharestore.Repository
	docs   DocumentStore
}

func NewShareService(shares sharestore.Repository, docs DocumentStore) *ShareService {
	return &ShareService{shares: shares, docs: docs}
}

type ShareInput struct {
	Permission    string `json:"permission"`
	AllowDownload bool   `json:"allow_download"`
	AllowPrint    bool   `json:"allow_print"`
	ExpiresAt     int64  `json:"expires_at"`
	InviteeEmail  string `json:"invitee_email"`
	// Password sets a new password when non-nil; an empty string clears it.
	Password *string `json:"password"`
}

func (in *ShareInput) validate(now int64) error {
	if in.Permission == "" {
		in.Permission = model.PermissionView
	}
	if !model.ValidPermission(in.Permission) {
		return appErr.ErrInvalid
	}
	if in.ExpiresAt < 0 || (in.ExpiresAt > 0 && in.ExpiresAt <= now) {
		return appErr.ErrInvalid
	}
	in.InviteeEmail = normalizeEmail(in.InviteeEmail)
	if in.InviteeEmail != "" && !strings.Contains(in.InviteeEmail, "@") {
		return appErr.ErrInvalid
	}
	return nil
}

func (s *ShareService) Create(ctx context.Context, ownerID, docID string, input ShareInput) (*model.Share, error) {
	now := timeutil.NowUnix()
	if err := input.validate(now); err != nil {
		return nil, err
	}
	doc, err := s.docs.GetByID(ctx, ownerID, docID)
	if err != nil {
		return nil, err
	}
	share := &model.Share{
		ID:            newID(),
		OwnerID:       ownerID,
		Token:         newToken(),
		ResourceID:    doc.ID,
		ResourceType:  model.ResourceTypeDocument,
		ResourceName:  doc.Name,
		InviteeEmail:  input.InviteeEmail,
		Permission:    input.Permission,
		AllowDownload: input.AllowDownload,
		AllowPrint:    input.AllowPrint,
		ExpiresAt:     input.ExpiresAt,
		Status:        model.ShareStatusPending,
		Ctime:         now,
		Mtime:         now,
	}
	if input.Password != nil && *input.Password != "" {
		if share.PasswordHash, err = password.Hash(*input.Password); err != nil {
			return nil, err
		}
	}
	if err := s.shares.Create(ctx, share); err != nil {
		return nil, err
	}
	return share, nil
}

func (s *ShareService) ListByDocument(ctx context.Context, ownerID, docID string) ([]model.Share, error) {
	if _, err := s.docs.GetByID(ctx, ownerID, docID); err != nil {
		return nil, err
	}
	return s.shares.ListByOwner(ctx, ownerID, docID)
}

func (s *ShareService) ListMine(ctx context.Context, ownerID string) ([]model.Share, error) {
	return s.shares.ListByOwner(ctx, ownerID, "")
}

// Update rewrites the share configuration. A password left nil is kept as is.
func (s *ShareService) Update(ctx context.Context, ownerID, shareID string, input ShareInput) (*model.Share, error) {
	now := timeutil.NowUnix()
	if err := input.validate(now); err != nil {
		return nil, err
	}
	share, err := s.owned(ctx, ownerID, shareID)
	if err != nil {
		return nil, err
	}
	if share.Status == model.ShareStatusRevoked {
		return nil, appErr.ErrRevoked
	}
	share.Permission = input.Permission
	share.AllowDownload = input.AllowDownload
	share.AllowPrint = input.AllowPrint
	share.ExpiresAt = input.ExpiresAt
	share.InviteeEmail = input.InviteeEmail
	share.Mtime = now
	if input.Password != nil {
		share.PasswordHash = ""
		if *input.Password != "" {
			if share.PasswordHash, err = password.Hash(*input.Password); err != nil {
				return nil, err
			}
		}
	}
	if err := s.shares.UpdateConfig(ctx, share); err != nil {
		return nil, err
	}
	return s.shares.GetByID(ctx, shareID)
}

func (s *ShareService) Revoke(ctx context.Context, ownerID, shareID string) error {
	if _, err := s.owned(ctx, ownerID, shareID); err != nil {
		return err
	}
	return s.shares.Revoke(ctx, ownerID, shareID, timeutil.NowUnix())
}

func (s *ShareService) owned(ctx context.Context, ownerID, shareID string) (*model.Share, error) {
	share, err := s.shares.GetByID(ctx, shareID)
	if err != nil {
		return nil, err
	}
	if share.OwnerID != ownerID {
		return nil, appErr.ErrNotFound
	}
	return share, nil
}
