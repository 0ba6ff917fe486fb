package handler_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/xxxsen/common/webapi"

	"github.com/xxxsen/docshare/internal/ai"
	"github.com/xxxsen/docshare/internal/config"
	"github.com/xxxsen/docshare/internal/filestore"
	"github.com/xxxsen/docshare/internal/guest"
	"github.com/xxxsen/docshare/internal/handler"
	"github.com/xxxsen/docshare/internal/middleware"
	"github.com/xxxsen/docshare/internal/seen"
	"github.com/xxxsen/docshare/internal/service"
	"github.com/xxxsen/docshare/internal/sharestore"
	"github.com/xxxsen/docshare/internal/testutil"
)

type envelope struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

type testServer struct {
	t       *testing.T
	handler http.Handler
	cookies []*http.Cookie
}

func setupRouter(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
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
	users := testutil.NewMemoryUsers()
	docs := testutil.NewMemoryDocuments()
	shares := sharestore.NewLocal(filepath.Join(dir, "shares.json"))
	jwtSecret := []byte("test-secret")

	resolver := guest.NewStorageResolver(docs, files, time.Hour)
	tracker := guest.NewStoreTracker(shares, seen.NewLRU(100, time.Hour))
	guestService := service.NewGuestService(service.GuestServiceConfig{
		Shares:       shares,
		Resolver:     resolver,
		Tracker:      tracker,
		Documents:    resolver,
		Views:        tracker,
		AccessSecret: jwtSecret,
		AccessTTL:    time.Minute,
	})
	documentService := service.NewDocumentService(docs, files, shares, 1<<20)
	preferenceService := service.NewPreferenceService(service.NewMemoryPreferenceStore())
	provider, err := ai.NewProvider("none", nil)
	require.NoError(t, err)
	summaryService := service.NewSummaryService(documentService, preferenceService,
		ai.NewSummarizer(ai.NewGenerator(provider, ""), ai.SummarizerConfig{}), 1000)

	deps := handler.RouterDeps{
		Auth:            handler.NewAuthHandler(service.NewAuthService(users, jwtSecret, time.Hour)),
		Documents:       handler.NewDocumentHandler(documentService, summaryService, 1<<20),
		Shares:          handler.NewShareHandler(service.NewShareService(shares, docs)),
		Preferences:     handler.NewPreferenceHandler(preferenceService),
		Guest:           handler.NewGuestHandler(guestService),
		Files:           handler.NewFileHandler(files),
		JWTSecret:       jwtSecret,
		GuestSessionTTL: time.Hour,
	}
	engine, err := webapi.NewEngine(
		"/api",
		"",
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.RequestID(),
			middleware.CORS(nil),
		),
	)
	require.NoError(t, err)
	return &testServer{t: t, handler: engine}
}

func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	for _, c := range s.cookies {
		req.AddCookie(c)
	}
	resp := httptest.NewRecorder()
	s.handler.ServeHTTP(resp, req)
	if got := resp.Result().Cookies(); len(got) > 0 {
		s.cookies = got
	}
	return resp
}

func (s *testServer) call(method, path, token string, body interface{}, headers map[string]string) envelope {
	s.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp := s.do(req)
	require.Equal(s.t, http.StatusOK, resp.Code)
	var out envelope
	require.NoError(s.t, json.Unmarshal(resp.Body.Bytes(), &out))
	return out
}

func (s *testServer) upload(token, name string, content []byte) envelope {
	s.t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", name)
	require.NoError(s.t, err)
	_, err = part.Write(content)
	require.NoError(s.t, err)
	require.NoError(s.t, w.Close())
	req := httptest.NewRequest(http.MethodPost, "/api/documents", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	resp := s.do(req)
	require.Equal(s.t, http.StatusOK, resp.Code)
	var out envelope
	require.NoError(s.t, json.Unmarshal(resp.Body.Bytes(), &out))
	return out
}

func (s *testServer) register(email string) string {
	s.t.Helper()
	out := s.call(http.MethodPost, "/api/auth/register", "", map[string]string{"email": email, "password": "secret1"}, nil)
	require.Zero(s.t, out.Code, out.Msg)
	var data struct {
		Token string `json:"token"`
	}
	require.NoError(s.t, json.Unmarshal(out.Data, &data))
	require.NotEmpty(s.t, data.Token)
	return data.Token
}

func decode(t *testing.T, env envelope, dst interface{}) {
	t.Helper()
	require.Zero(t, env.Code, env.Msg)
	require.NoError(t, json.Unmarshal(env.Data, dst))
}
