package testutil

import (
	"context"
	"sort"
	"sync"

	"github.com/xxxsen/docshare/internal/model"
	appErr "github.com/xxxsen/docshare/internal/pkg/errors"
)

// MemoryUsers and MemoryDocuments stand in for the PostgreSQL repositories in tests.
type MemoryUsers struct {
	mu    sync.Mutex
	users map[string]*model.User
}

func NewMemoryUsers() *MemoryUsers {
	return &MemoryUsers{users: make(map[string]*model.User)}
}

func (m *MemoryUsers) Create(ctx context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == user.Email {
			return appErr.ErrConflict
		}
	}
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *MemoryUsers) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, appErr.ErrNotFound
}

func (m *MemoryUsers) GetByID(ctx context.Context, userID string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return nil, appErr.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

type MemoryDocuments struct {
	mu   sync.Mutex
	docs map[string]*model.Document
}

func NewMemoryDocuments() *MemoryDocuments {
	return &MemoryDocuments{docs: make(map[string]*model.Document)}
}

func (m *MemoryDocuments) Create(ctx context.Context, doc *model.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *doc
	m.docs[doc.ID] = &cp
	return nil
}

func (m *MemoryDocuments) GetByID(ctx context.Context, ownerID, docID string) (*model.Document, error) {
	doc, err := m.Lookup(ctx, docID)
	if err != nil || doc.OwnerID != ownerID {
		return nil, appErr.ErrNotFound
	}
	return doc, nil
}

func (m *MemoryDocuments) Lookup(ctx context.Context, docID string) (*model.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[docID]
	if !ok || doc.State != model.DocumentStateNormal {
		return nil, appErr.ErrNotFound
	}
	cp := *doc
	return &cp, nil
}

func (m *MemoryDocuments) List(ctx context.Context, ownerID string, limit, offset uint) ([]model.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Document, 0)
	for _, doc := range m.docs {
		if doc.OwnerID == ownerID && doc.State == model.DocumentStateNormal {
			out = append(out, *doc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if int(offset) >= len(out) {
		return []model.Document{}, nil
	}
	out = out[offset:]
	if int(limit) < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryDocuments) Delete(ctx context.Context, ownerID, docID string, mtime int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[docID]
	if !ok || doc.OwnerID != ownerID || doc.State != model.DocumentStateNormal {
		return appErr.ErrNotFound
	}
	doc.State = model.DocumentStateDeleted
	doc.Mtime = mtime
	return nil
}
