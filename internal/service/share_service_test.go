package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/xxxsen/docshare/internal/model"
	appErr "github.com/xxxsen/docshare/internal/pkg/errors"
	"github.com/xxxsen/docshare/internal/pkg/password"
)

func seedDoc(t *testing.T, e *env, id, owner string) *model.Document {
	t.Helper()
	doc := &model.Document{
		ID: id, OwnerID: owner, Name: id + ".pdf", FileKey: id + ".pdf",
		ContentType: "application/pdf", Size: 10, State: model.DocumentStateNormal,
	}
	require.NoError(t, e.docs.Create(context.Background(), doc))
	return doc
}

func strPtr(s string) *string { return &s }

func TestShareCreate(t *testing.T) {
	e := newEnv(t)
	seedDoc(t, e, "d1", "owner")
	svc := NewShareService(e.shares, e.docs)
	ctx := context.Background()

	share, err := svc.Create(ctx, "owner", "d1", ShareInput{
		Permission:   model.PermissionDownload,
		Password:     strPtr("abc"),
		InviteeEmail: "Guest@Example.com",
		ExpiresAt:    time.Now().Add(time.Hour).Unix(),
	})
	require.NoError(t, err)
	_, err = uuid.Parse(share.ID)
	require.NoError(t, err)
	require.Len(t, share.Token, 40)
	require.Equal(t, model.ShareStatusPending, share.Status)
	require.Equal(t, "d1.pdf", share.ResourceName)
	require.Equal(t, "guest@example.com", share.InviteeEmail)
	require.NotEqual(t, "abc", share.PasswordHash)
	require.True(t, password.Matches(share.PasswordHash, "abc"))

	_, err = svc.Create(ctx, "intruder", "d1", ShareInput{})
	require.ErrorIs(t, err, appErr.ErrNotFound)
	_, err = svc.Create(ctx, "owner", "d1", ShareInput{Permission: "admin"})
	require.ErrorIs(t, err, appErr.ErrInvalid)
	_, err = svc.Create(ctx, "owner", "d1", ShareInput{ExpiresAt: time.Now().Add(-time.Hour).Unix()})
	require.ErrorIs(t, err, appErr.ErrInvalid)

	list, err := svc.ListByDocument(ctx, "owner", "d1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	mine, err := svc.ListMine(ctx, "owner")
	require.NoError(t, err)
	require.Len(t, mine, 1)
}

func TestShareUpdateAndRevoke(t *testing.T) {
	e := newEnv(t)
	seedDoc(t, e, "d1", "owner")
	svc := NewShareService(e.shares, e.docs)
	ctx := context.Background()

	share, err := svc.Create(ctx, "owner", "d1", ShareInput{Password: strPtr("abc")})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, "owner", share.ID, ShareInput{Permission: model.PermissionEdit, AllowPrint: true})
	require.NoError(t, err)
	require.Equal(t, model.PermissionEdit, updated.Permission)
	require.True(t, updated.AllowPrint)
	require.True(t, updated.HasPassword())

	updated, err = svc.Update(ctx, "owner", share.ID, ShareInput{Password: strPtr("")})
	require.NoError(t, err)
	require.False(t, updated.HasPassword())
	require.Equal(t, model.PermissionView, updated.Permission)

	_, err = svc.Update(ctx, "intruder", share.ID, ShareInput{})
	require.ErrorIs(t, err, appErr.ErrNotFound)
	require.ErrorIs(t, svc.Revoke(ctx, "intruder", share.ID), appErr.ErrNotFound)

	require.NoError(t, svc.Revoke(ctx, "owner", share.ID))
	stored, err := e.shares.GetByID(ctx, share.ID)
	require.NoError(t, err)
	require.Equal(t, model.ShareStatusRevoked, stored.Status)

	_, err = svc.Update(ctx, "owner", share.ID, ShareInput{})
	require.ErrorIs(t, err, appErr.ErrRevoked)
}
