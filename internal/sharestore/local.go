package sharestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/xxxsen/docshare/internal/model"
	appErr "github.com/xxxsen/docshare/internal/pkg/errors"
)

// LocalStore keeps shares as a JSON array in a single file.
type LocalStore struct {
	mu   sync.Mutex
	path string
}

func NewLocal(path string) *LocalStore {
	return &LocalStore{path: path}
}

func (s *LocalStore) Create(ctx context.Context, share *model.Share) error {
	return s.update(func(items []model.Share) ([]model.Share, error) {
		for _, item := range items {
			if item.ID == share.ID || item.Token == share.Token {
				return nil, appErr.ErrConflict
			}
		}
		return append(items, *share), nil
	})
}

func (s *LocalStore) GetByToken(ctx context.Context, token string) (*model.Share, error) {
	return s.find(func(item *model.Share) bool { return item.Token == token })
}

func (s *LocalStore) GetByID(ctx context.Context, id string) (*model.Share, error) {
	return s.find(func(item *model.Share) bool { return item.ID == id })
}

func (s *LocalStore) ListByOwner(ctx context.Context, ownerID, resourceID string) ([]model.Share, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items, err := s.load()
	if err != nil {
		return nil, err
	}
	out := make([]model.Share, 0)
	for _, item := range items {
		if item.OwnerID != ownerID {
			continue
		}
		if resourceID != "" && item.ResourceID != resourceID {
			continue
		}
		out = append(out, item)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Ctime > out[j].Ctime })
	return out, nil
}

func (s *LocalStore) UpdateConfig(ctx context.Context, share *model.Share) error {
	return s.mutateOne(
		func(item *model.Share) bool {
			return item.ID == share.ID && item.OwnerID == share.OwnerID && item.Status != model.ShareStatusRevoked
		},
		func(item *model.Share) {
			item.Permission = share.Permission
			item.AllowDownload = share.AllowDownload
			item.AllowPrint = share.AllowPrint
			item.ExpiresAt = share.ExpiresAt
			item.PasswordHash = share.PasswordHash
			item.InviteeEmail = share.InviteeEmail
			if item.Status == model.ShareStatusExpired && (share.ExpiresAt == 0 || share.ExpiresAt > share.Mtime) {
				item.Status = model.ShareStatusPending
				if item.LastAccessedAt > 0 {
					item.Status = model.ShareStatusAccepted
				}
			}
			item.Mtime = share.Mtime
		},
	)
}

func (s *LocalStore) Revoke(ctx context.Context, ownerID, id string, mtime int64) error {
	return s.mutateOne(
		func(item *model.Share) bool { return item.ID == id && item.OwnerID == ownerID },
		func(item *model.Share) {
			item.Status = model.ShareStatusRevoked
			item.Mtime = mtime
		},
	)
}

func (s *LocalStore) RevokeByResource(ctx context.Context, ownerID, resourceID string, mtime int64) error {
	return s.update(func(items []model.Share) ([]model.Share, error) {
		for i := range items {
			item := &items[i]
			if item.OwnerID == ownerID && item.ResourceID == resourceID && item.Status != model.ShareStatusRevoked {
				item.Status = model.ShareStatusRevoked
				item.Mtime = mtime
			}
		}
		return items, nil
	})
}

func (s *LocalStore) MarkAccessed(ctx context.Context, id string, now int64) error {
	err := s.mutateOne(
		func(item *model.Share) bool {
			return item.ID == id && (item.Status == model.ShareStatusPending || item.Status == model.ShareStatusAccepted)
		},
		func(item *model.Share) {
			item.Status = model.ShareStatusAccepted
			item.LastAccessedAt = now
			item.Mtime = now
		},
	)
	if errors.Is(err, appErr.ErrNotFound) {
		return nil
	}
	return err
}

func (s *LocalStore) IncrementUsage(ctx context.Context, id string, now int64) (int64, error) {
	var count int64
	err := s.mutateOne(
		func(item *model.Share) bool { return item.ID == id && item.Status != model.ShareStatusRevoked },
		func(item *model.Share) {
			item.UsageCount++
			item.Mtime = now
			count = item.UsageCount
		},
	)
	return count, err
}

func (s *LocalStore) ExpireBefore(ctx context.Context, now int64) (int64, error) {
	var affected int64
	err := s.update(func(items []model.Share) ([]model.Share, error) {
		for i := range items {
			item := &items[i]
			if item.ExpiresAt <= 0 || item.ExpiresAt >= now {
				continue
			}
			if item.Status != model.ShareStatusPending && item.Status != model.ShareStatusAccepted {
				continue
			}
			item.Status = model.ShareStatusExpired
			item.Mtime = now
			affected++
		}
		return items, nil
	})
	return affected, err
}

func (s *LocalStore) find(match func(item *model.Share) bool) (*model.Share, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items, err := s.load()
	if err != nil {
		return nil, err
	}
	for i := range items {
		if match(&items[i]) {
			found := items[i]
			return &found, nil
		}
	}
	return nil, appErr.ErrNotFound
}

func (s *LocalStore) mutateOne(match func(item *model.Share) bool, apply func(item *model.Share)) error {
	return s.update(func(items []model.Share) ([]model.Share, error) {
		for i := range items {
			if match(&items[i]) {
				apply(&items[i])
				return items, nil
			}
		}
		return nil, appErr.ErrNotFound
	})
}

func (s *LocalStore) update(fn func(items []model.Share) ([]model.Share, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	items, err := s.load()
	if err != nil {
		return err
	}
	items, err = fn(items)
	if err != nil {
		return err
	}
	return s.save(items)
}

func (s *LocalStore) load() ([]model.Share, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []model.Share{}, nil
		}
		return nil, fmt.Errorf("read share store: %w", err)
	}
	if len(data) == 0 {
		return []model.Share{}, nil
	}
	var items []model.Share
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("decode share store: %w", err)
	}
	return items, nil
}

func (s *LocalStore) save(items []model.Share) error {
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("encode share store: %w", err)
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".shares-*.json")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, s.path)
}
