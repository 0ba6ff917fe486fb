package service

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/docshare/internal/config"
	"github.com/xxxsen/docshare/internal/filestore"
	"github.com/xxxsen/docshare/internal/sharestore"
	"github.com/xxxsen/docshare/internal/testutil"
)

type env struct {
	users  *testutil.MemoryUsers
	docs   *testutil.MemoryDocuments
	files  filestore.Store
	shares *sharestore.LocalStore
}

func newEnv(t *testing.T) *env {
	t.Helper()
	dir := t.TempDir()
	files, err := filestore.New(config.FileStoreConfig{
		Type: "local",
		Data: map[string]interface{}{
			"dir":         filepath.Join(dir, "files"),
			"public_url":  "http://files.test",
			"sign_secret": "sign-secret",
		},
	})
	require.NoError(t, err)
	return &env{
		users:  testutil.NewMemoryUsers(),
		docs:   testutil.NewMemoryDocuments(),
		files:  files,
		shares: sharestore.NewLocal(filepath.Join(dir, "shares.json")),
	}
}
