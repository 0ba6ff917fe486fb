package repo_test

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/docshare/internal/model"
	appErr "github.com/xxxsen/docshare/internal/pkg/errors"
	"github.com/xxxsen/docshare/internal/pkg/timeutil"
	"github.com/xxxsen/docshare/internal/repo"
	"github.com/xxxsen/docshare/internal/testutil"
)

func randomID() string {
	buf := make([]byte, 12)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}

func newShare(ownerID string, expiresAt int64) *model.Share {
	now := timeutil.NowUnix()
	return &model.Share{
		ID:           randomID(),
		OwnerID:      ownerID,
		Token:        randomID(),
		ResourceID:   "doc-" + randomID(),
		ResourceType: model.ResourceTypeDocument,
		ResourceName: "report.pdf",
		Permission:   model.PermissionView,
		ExpiresAt:    expiresAt,
		Status:       model.ShareStatusPending,
		Ctime:        now,
		Mtime:        now,
	}
}

func TestShareRepoLifecycle(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()
	ctx := context.Background()
	shares := repo.NewShareRepo(db)

	owner := "owner-" + randomID()
	share := newShare(owner, 0)
	require.NoError(t, shares.Create(ctx, share))
	require.ErrorIs(t, shares.Create(ctx, share), appErr.ErrConflict)

	fetched, err := shares.GetByToken(ctx, share.Token)
	require.NoError(t, err)
	require.Equal(t, share.ID, fetched.ID)
	require.Equal(t, model.ShareStatusPending, fetched.Status)

	now := timeutil.NowUnix()
	require.NoError(t, shares.MarkAccessed(ctx, share.ID, now))
	fetched, err = shares.GetByID(ctx, share.ID)
	require.NoError(t, err)
	require.Equal(t, model.ShareStatusAccepted, fetched.Status)
	require.Equal(t, now, fetched.LastAccessedAt)

	count, err := shares.IncrementUsage(ctx, share.ID, now)
	require.NoError(t, err)
	require.Equal(t, int64(1), count)
	count, err = shares.IncrementUsage(ctx, share.ID, now)
	require.NoError(t, err)
	require.Equal(t, int64(2), count)

	items, err := shares.ListByOwner(ctx, owner, "")
	require.NoError(t, err)
	require.Len(t, items, 1)

	require.NoError(t, shares.Revoke(ctx, owner, share.ID, now))
	_, err = shares.IncrementUsage(ctx, share.ID, now)
	require.ErrorIs(t, err, appErr.ErrNotFound)
	require.ErrorIs(t, shares.Revoke(ctx, "someone-else", share.ID, now), appErr.ErrNotFound)
}

func TestShareRepoExpireBefore(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()
	ctx := context.Background()
	shares := repo.NewShareRepo(db)

	owner := "owner-" + randomID()
	now := timeutil.NowUnix()
	stale := newShare(owner, now-60)
	fresh := newShare(owner, now+3600)
	forever := newShare(owner, 0)
	for _, s := range []*model.Share{stale, fresh, forever} {
		require.NoError(t, shares.Create(ctx, s))
	}

	affected, err := shares.ExpireBefore(ctx, now)
	require.NoError(t, err)
	require.GreaterOrEqual(t, affected, int64(1))

	got, err := shares.GetByID(ctx, stale.ID)
	require.NoError(t, err)
	require.Equal(t, model.ShareStatusExpired, got.Status)
	got, err = shares.GetByID(ctx, fresh.ID)
	require.NoError(t, err)
	require.Equal(t, model.ShareStatusPending, got.Status)

	stale.ExpiresAt = 0
	stale.Mtime = now
	require.NoError(t, shares.UpdateConfig(ctx, stale))
	got, err = shares.GetByID(ctx, stale.ID)
	require.NoError(t, err)
	require.Equal(t, model.ShareStatusPending, got.Status)
}
