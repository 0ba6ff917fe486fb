package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/xxxsen/docshare/internal/ai"
	"github.com/xxxsen/docshare/internal/config"
	"github.com/xxxsen/docshare/internal/db"
	"github.com/xxxsen/docshare/internal/filestore"
	"github.com/xxxsen/docshare/internal/guest"
	"github.com/xxxsen/docshare/internal/handler"
	"github.com/xxxsen/docshare/internal/job"
	"github.com/xxxsen/docshare/internal/middleware"
	"github.com/xxxsen/docshare/internal/repo"
	"github.com/xxxsen/docshare/internal/schedule"
	"github.com/xxxsen/docshare/internal/seen"
	"github.com/xxxsen/docshare/internal/service"
	"github.com/xxxsen/docshare/internal/sharestore"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "docshare",
		Short: "docshare guest document sharing server",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run docshare server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			conn, err := openDatabase(cfg)
			if err != nil {
				return err
			}
			if conn != nil {
				defer conn.Close()
			}
			return runServer(cfg, conn)
		},
	}

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "apply database migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			if !cfg.HasDatabase() {
				return fmt.Errorf("no database configured")
			}
			conn, err := openDatabase(cfg)
			if err != nil {
				return err
			}
			defer conn.Close()
			logutil.GetLogger(context.Background()).Info("migrations applied")
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config.json")
	rootCmd.AddCommand(runCmd, migrateCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return nil, fmt.Errorf("--config is required")
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	logger.Init(
		cfg.LogConfig.File,
		cfg.LogConfig.Level,
		int(cfg.LogConfig.FileCount),
		int(cfg.LogConfig.FileSize),
		int(cfg.LogConfig.KeepDays),
		cfg.LogConfig.Console,
	)
	logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", path))
	return cfg, nil
}

// openDatabase returns a nil handle when the deployment runs without PostgreSQL.
func openDatabase(cfg *config.Config) (*sql.DB, error) {
	if !cfg.HasDatabase() {
		return nil, nil
	}
	conn, err := db.Open(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.ApplyMigrations(conn); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}
	return conn, nil
}

func runServer(cfg *config.Config, conn *sql.DB) error {
	logutil.GetLogger(context.Background()).Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.String("share_store", cfg.ShareStore.Type),
		zap.String("resolver", cfg.Guest.Resolver.Type),
		zap.String("file_store", cfg.FileStore.Type),
	)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shares, err := sharestore.New(cfg.ShareStore, conn)
	if err != nil {
		return fmt.Errorf("init share store: %w", err)
	}
	store, err := filestore.New(cfg.FileStore)
	if err != nil {
		return fmt.Errorf("init file store: %w", err)
	}
	if ensurer, ok := store.(interface{ EnsureBucket(context.Context) error }); ok {
		if err := ensurer.EnsureBucket(ctx); err != nil {
			return fmt.Errorf("ensure bucket: %w", err)
		}
	}
	marker, closeMarker, err := newMarker(cfg)
	if err != nil {
		return fmt.Errorf("init session marker: %w", err)
	}
	defer closeMarker()

	jwtSecret := []byte(cfg.JWTSecret)
	views := guest.NewStoreTracker(shares, marker)
	guestCfg := service.GuestServiceConfig{
		Shares:       shares,
		Tracker:      views,
		Views:        views,
		AccessSecret: jwtSecret,
		AccessTTL:    time.Duration(cfg.Guest.AccessTTLMinutes) * time.Minute,
	}
	signedTTL := time.Duration(cfg.Guest.SignedURLTTLSeconds) * time.Second

	deps := handler.RouterDeps{
		Files:           handler.NewFileHandler(store),
		JWTSecret:       jwtSecret,
		GuestSessionTTL: time.Duration(cfg.Guest.SessionTTLHours) * time.Hour,
		RateLimitWindow: time.Duration(cfg.RateLimitMS) * time.Millisecond,
	}
	if conn != nil {
		docRepo := repo.NewDocumentRepo(conn)
		guestCfg.Documents = guest.NewStorageResolver(docRepo, store, signedTTL)
		guestCfg.Resolver = guestCfg.Documents

		documentService := service.NewDocumentService(docRepo, store, shares, cfg.UploadMaxBytes)
		preferenceService := service.NewPreferenceService(service.NewDBPreferenceStore(repo.NewPreferenceRepo(conn)))
		summarizer, err := newSummarizer(cfg)
		if err != nil {
			return err
		}
		summaryService := service.NewSummaryService(documentService, preferenceService, summarizer, cfg.AI.MaxInputChars)
		authService := service.NewAuthService(repo.NewUserRepo(conn), jwtSecret, time.Hour*time.Duration(cfg.JWTTTLHours))

		deps.Auth = handler.NewAuthHandler(authService)
		deps.Documents = handler.NewDocumentHandler(documentService, summaryService, cfg.UploadMaxBytes)
		deps.Shares = handler.NewShareHandler(service.NewShareService(shares, docRepo))
		deps.Preferences = handler.NewPreferenceHandler(preferenceService)
	}
	if cfg.Guest.Resolver.Type == config.ResolverRemote {
		client := &http.Client{Timeout: time.Duration(cfg.Guest.Resolver.TimeoutSeconds) * time.Second}
		guestCfg.Resolver = guest.NewRemoteResolver(cfg.Guest.Resolver.RemoteURL, client)
		guestCfg.Tracker = guest.NewRemoteTracker(cfg.Guest.Resolver.RemoteURL, client)
	}
	deps.Guest = handler.NewGuestHandler(service.NewGuestService(guestCfg))

	scheduler := schedule.NewCronScheduler()
	expiry := job.NewShareExpiryJob(shares)
	if err := scheduler.AddJob(expiry, cfg.Jobs.ShareExpirySpec); err != nil {
		return fmt.Errorf("schedule share expiry: %w", err)
	}
	scheduler.Start(ctx)
	defer scheduler.Stop()
	go func() {
		if err := scheduler.RunNow(expiry.Name()); err != nil {
			logutil.GetLogger(ctx).Error("startup job run failed", zap.String("job", expiry.Name()), zap.Error(err))
		}
	}()

	addr := fmt.Sprintf("0.0.0.0:%d", cfg.Port)
	engine, err := webapi.NewEngine(
		"/api",
		addr,
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.RequestID(),
			middleware.CORS(cfg.CORSAllowlist),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}
	logutil.GetLogger(ctx).Info("http server listening", zap.String("addr", addr))

	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	return nil
}

// newMarker prefers Redis so the once-per-session rule holds across replicas.
func newMarker(cfg *config.Config) (seen.Marker, func(), error) {
	ttl := time.Duration(cfg.Guest.SessionTTLHours) * time.Hour
	if cfg.Redis.URL == "" {
		return seen.NewLRU(cfg.Guest.SessionCacheSize, ttl), func() {}, nil
	}
	marker, err := seen.NewRedis(cfg.Redis.URL, cfg.Redis.Prefix, ttl)
	if err != nil {
		return nil, nil, err
	}
	return marker, func() { _ = marker.Close() }, nil
}

func newSummarizer(cfg *config.Config) (*ai.Summarizer, error) {
	providerArgs := cfg.AI.Data
	if providerArgs == nil {
		providerArgs = map[string]interface{}{}
	}
	provider, err := ai.NewProvider(cfg.AI.Provider, providerArgs)
	if err != nil {
		return nil, fmt.Errorf("init ai provider: %w", err)
	}
	return ai.NewSummarizer(ai.NewGenerator(provider, cfg.AI.Model), ai.SummarizerConfig{
		Timeout:       cfg.AI.Timeout,
		MaxInputChars: cfg.AI.MaxInputChars,
	}), nil
}
