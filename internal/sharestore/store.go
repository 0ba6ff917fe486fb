// Package sharestore maps share tokens to share records. Exactly one Repository
// is built from configuration and handed to every caller.
package sharestore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/xxxsen/docshare/internal/config"
	"github.com/xxxsen/docshare/internal/model"
	"github.com/xxxsen/docshare/internal/repo"
)

type Repository interface {
	Create(ctx context.Context, share *model.Share) error
	GetByToken(ctx context.Context, token string) (*model.Share, error)
	GetByID(ctx context.Context, id string) (*model.Share, error)
	ListByOwner(ctx context.Context, ownerID, resourceID string) ([]model.Share, error)
	UpdateConfig(ctx context.Context, share *model.Share) error
	Revoke(ctx context.Context, ownerID, id string, mtime int64) error
	RevokeByResource(ctx context.Context, ownerID, resourceID string, mtime int64) error
	MarkAccessed(ctx context.Context, id string, now int64) error
	IncrementUsage(ctx context.Context, id string, now int64) (int64, error)
	ExpireBefore(ctx context.Context, now int64) (int64, error)
}

var _ Repository = (*repo.ShareRepo)(nil)

func New(cfg config.ShareStoreConfig, db *sql.DB) (Repository, error) {
	switch cfg.Type {
	case config.ShareStoreDB:
		if db == nil {
			return nil, fmt.Errorf("db share store requires a database")
		}
		return repo.NewShareRepo(db), nil
	case config.ShareStoreLocal:
		return NewLocal(cfg.LocalFile), nil
	case config.ShareStoreChain:
		if db == nil {
			return nil, fmt.Errorf("chain share store requires a database")
		}
		return NewChain(NewLocal(cfg.LocalFile), repo.NewShareRepo(db)), nil
	default:
		return nil, fmt.Errorf("unsupported share store type: %s", cfg.Type)
	}
}
