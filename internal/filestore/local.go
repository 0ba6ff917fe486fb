package filestore

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	appErr "github.com/xxxsen/docshare/internal/pkg/errors"
	"github.com/xxxsen/docshare/internal/pkg/jwt"
)

type localConfig struct {
	Dir        string `json:"dir"`
	PublicURL  string `json:"public_url"`
	SignSecret string `json:"sign_secret"`
}

type localStore struct {
	dir       string
	publicURL string
	secret    []byte
}

func init() {
	Register("local", createLocalStore)
}

func createLocalStore(args interface{}) (Store, error) {
	config := &localConfig{}
	if err := decodeConfig(args, config); err != nil {
		return nil, err
	}
	if config.Dir == "" {
		return nil, fmt.Errorf("local store dir is required")
	}
	if config.SignSecret == "" {
		return nil, fmt.Errorf("local store sign_secret is required")
	}
	return &localStore{
		dir:       config.Dir,
		publicURL: strings.TrimSuffix(config.PublicURL, "/"),
		secret:    []byte(config.SignSecret),
	}, nil
}

func (s *localStore) Type() string {
	return "local"
}

func (s *localStore) Save(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	if !validKey(key) {
		return fmt.Errorf("invalid file key")
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}
	out, err := os.Create(filepath.Join(s.dir, key))
	if err != nil {
		return err
	}
	defer out.Close()
	_, err = io.Copy(out, r)
	return err
}

func (s *localStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	if !validKey(key) {
		return nil, fmt.Errorf("invalid file key")
	}
	return os.Open(filepath.Join(s.dir, key))
}

func (s *localStore) Delete(ctx context.Context, key string) error {
	if !validKey(key) {
		return fmt.Errorf("invalid file key")
	}
	err := os.Remove(filepath.Join(s.dir, key))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (s *localStore) SignURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if !validKey(key) {
		return "", fmt.Errorf("invalid file key")
	}
	if _, err := os.Stat(filepath.Join(s.dir, key)); err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("stat %s: %w", key, appErr.ErrStorageMissing)
		}
		return "", fmt.Errorf("stat %s: %w", key, err)
	}
	token, err := jwt.GenerateScopedToken(jwt.ScopeFileDownload, key, s.secret, ttl)
	if err != nil {
		return "", err
	}
	return s.publicURL + "/api/files/" + url.PathEscape(key) + "?token=" + url.QueryEscape(token), nil
}

func (s *localStore) VerifyURL(key, token string) error {
	return jwt.VerifyScopedToken(token, jwt.ScopeFileDownload, key, s.secret)
}
