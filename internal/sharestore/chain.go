package sharestore

import (
	"context"
	"errors"

	"github.com/xxxsen/docshare/internal/model"
	appErr "github.com/xxxsen/docshare/internal/pkg/errors"
)

// ChainStore consults the local store first and falls back to the primary one.
// New shares always go to the primary store.
type ChainStore struct {
	local   Repository
	primary Repository
}

func NewChain(local, primary Repository) *ChainStore {
	return &ChainStore{local: local, primary: primary}
}

func (c *ChainStore) Create(ctx context.Context, share *model.Share) error {
	return c.primary.Create(ctx, share)
}

func (c *ChainStore) GetByToken(ctx context.Context, token string) (*model.Share, error) {
	share, err := c.local.GetByToken(ctx, token)
	if err == nil {
		return share, nil
	}
	if !errors.Is(err, appErr.ErrNotFound) {
		return nil, err
	}
	return c.primary.GetByToken(ctx, token)
}

func (c *ChainStore) GetByID(ctx context.Context, id string) (*model.Share, error) {
	share, err := c.local.GetByID(ctx, id)
	if err == nil {
		return share, nil
	}
	if !errors.Is(err, appErr.ErrNotFound) {
		return nil, err
	}
	return c.primary.GetByID(ctx, id)
}

func (c *ChainStore) ListByOwner(ctx context.Context, ownerID, resourceID string) ([]model.Share, error) {
	items, err := c.local.ListByOwner(ctx, ownerID, resourceID)
	if err != nil {
		return nil, err
	}
	remote, err := c.primary.ListByOwner(ctx, ownerID, resourceID)
	if err != nil {
		return nil, err
	}
	return append(items, remote...), nil
}

func (c *ChainStore) UpdateConfig(ctx context.Context, share *model.Share) error {
	store, err := c.holder(ctx, share.ID)
	if err != nil {
		return err
	}
	return store.UpdateConfig(ctx, share)
}

func (c *ChainStore) Revoke(ctx context.Context, ownerID, id string, mtime int64) error {
	store, err := c.holder(ctx, id)
	if err != nil {
		return err
	}
	return store.Revoke(ctx, ownerID, id, mtime)
}

func (c *ChainStore) RevokeByResource(ctx context.Context, ownerID, resourceID string, mtime int64) error {
	if err := c.local.RevokeByResource(ctx, ownerID, resourceID, mtime); err != nil {
		return err
	}
	return c.primary.RevokeByResource(ctx, ownerID, resourceID, mtime)
}

func (c *ChainStore) MarkAccessed(ctx context.Context, id string, now int64) error {
	store, err := c.holder(ctx, id)
	if err != nil {
		return err
	}
	return store.MarkAccessed(ctx, id, now)
}

func (c *ChainStore) IncrementUsage(ctx context.Context, id string, now int64) (int64, error) {
	store, err := c.holder(ctx, id)
	if err != nil {
		return 0, err
	}
	return store.IncrementUsage(ctx, id, now)
}

func (c *ChainStore) ExpireBefore(ctx context.Context, now int64) (int64, error) {
	local, err := c.local.ExpireBefore(ctx, now)
	if err != nil {
		return 0, err
	}
	primary, err := c.primary.ExpireBefore(ctx, now)
	if err != nil {
		return local, err
	}
	return local + primary, nil
}

func (c *ChainStore) holder(ctx context.Context, id string) (Repository, error) {
	_, err := c.local.GetByID(ctx, id)
	if err == nil {
		return c.local, nil
	}
	if !errors.Is(err, appErr.ErrNotFound) {
		return nil, err
	}
	return c.primary, nil
}
