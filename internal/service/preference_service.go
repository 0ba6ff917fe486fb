package service

import (
	"context"
	"sort"
	"sync"

	"github.com/xxxsen/docshare/internal/ai"
	"github.com/xxxsen/docshare/internal/model"
	appErr "github.com/xxxsen/docshare/internal/pkg/errors"
	"github.com/xxxsen/docshare/internal/pkg/timeutil"
)

const (
	PrefSummaryType = "summary_type"
	PrefLanguage    = "language"
)

type preferenceDef struct {
	def     string
	allowed []string
}

var preferenceDefs = map[string]preferenceDef{
	PrefSummaryType: {def: ai.SummaryBrief, allowed: []string{ai.SummaryBrief, ai.SummaryDetailed, ai.SummaryBullets}},
	PrefLanguage:    {def: "en", allowed: []string{"en", "zh", "es", "fr", "de", "ja"}},
}

// PreferenceStore persists per-user overrides. Reset with an empty key drops all of them.
type PreferenceStore interface {
	Get(ctx context.Context, userID string) (map[string]string, error)
	Set(ctx context.Context, userID, key, value string) error
	Reset(ctx context.Context, userID, key string) error
}

type PreferenceService struct {
	store PreferenceStore
}

func NewPreferenceService(store PreferenceStore) *PreferenceService {
	return &PreferenceService{store: store}
}

func DefaultPreferences() map[string]string {
	out := make(map[string]string, len(preferenceDefs))
	for key, def := range preferenceDefs {
		out[key] = def.def
	}
	return out
}

// Get returns defaults overlaid with the user's valid overrides.
func (s *PreferenceService) Get(ctx context.Context, userID string) (map[string]string, error) {
	out := DefaultPreferences()
	overrides, err := s.store.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	for key, value := range overrides {
		if validPreference(key, value) {
			out[key] = value
		}
	}
	return out, nil
}

// Update validates every pair before writing any of them.
func (s *PreferenceService) Update(ctx context.Context, userID string, values map[string]string) (map[string]string, error) {
	if len(values) == 0 {
		return nil, appErr.ErrInvalid
	}
	keys := make([]string, 0, len(values))
	for key, value := range values {
		if !validPreference(key, value) {
			return nil, appErr.ErrInvalid
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if err := s.store.Set(ctx, userID, key, values[key]); err != nil {
			return nil, err
		}
	}
	return s.Get(ctx, userID)
}

func (s *PreferenceService) Reset(ctx context.Context, userID, key string) (map[string]string, error) {
	if key != "" {
		if _, ok := preferenceDefs[key]; !ok {
			return nil, appErr.ErrInvalid
		}
	}
	if err := s.store.Reset(ctx, userID, key); err != nil {
		return nil, err
	}
	return s.Get(ctx, userID)
}

func validPreference(key, value string) bool {
	def, ok := preferenceDefs[key]
	if !ok {
		return false
	}
	for _, item := range def.allowed {
		if item == value {
			return true
		}
	}
	return false
}

type PreferenceRows interface {
	List(ctx context.Context, userID string) ([]model.Preference, error)
	Upsert(ctx context.Context, pref *model.Preference) error
	Delete(ctx context.Context, userID, key string) error
}

type dbPreferenceStore struct {
	rows PreferenceRows
}

func NewDBPreferenceStore(rows PreferenceRows) PreferenceStore {
	return &dbPreferenceStore{rows: rows}
}

func (s *dbPreferenceStore) Get(ctx context.Context, userID string) (map[string]string, error) {
	items, err := s.rows.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(items))
	for _, item := range items {
		out[item.Key] = item.Value
	}
	return out, nil
}

func (s *dbPreferenceStore) Set(ctx context.Context, userID, key, value string) error {
	return s.rows.Upsert(ctx, &model.Preference{UserID: userID, Key: key, Value: value, Mtime: timeutil.NowUnix()})
}

func (s *dbPreferenceStore) Reset(ctx context.Context, userID, key string) error {
	return s.rows.Delete(ctx, userID, key)
}

type memoryPreferenceStore struct {
	mu    sync.RWMutex
	items map[string]map[string]string
}

func NewMemoryPreferenceStore() PreferenceStore {
	return &memoryPreferenceStore{items: make(map[string]map[string]string)}
}

func (s *memoryPreferenceStore) Get(ctx context.Context, userID string) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.items[userID]))
	for k, v := range s.items[userID] {
		out[k] = v
	}
	return out, nil
}

func (s *memoryPreferenceStore) Set(ctx context.Context, userID, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.items[userID] == nil {
		s.items[userID] = make(map[string]string)
	}
	s.items[userID][key] = value
	return nil
}

func (s *memoryPreferenceStore) Reset(ctx context.Context, userID, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if key == "" {
		delete(s.items, userID)
		return nil
	}
	delete(s.items[userID], key)
	return nil
}
