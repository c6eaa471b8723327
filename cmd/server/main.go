package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"user-console/internal/config"
	"user-console/internal/directory"
	apphttp "user-console/internal/http"
	"user-console/internal/listing"
	"user-console/internal/localstore"
	"user-console/internal/repository"
	"user-console/internal/repository/memory"
	"user-console/internal/repository/sqlite"
	"user-console/internal/service"
	"user-console/internal/storage"
	"user-console/internal/telemetry"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	if level, err := logrus.ParseLevel(cfg.Log.Level); err == nil {
		logger.SetLevel(level)
	} else {
		logger.Warnf("unknown log level %q, keeping %s", cfg.Log.Level, logger.GetLevel())
	}

	secret := strings.TrimSpace(cfg.Auth.SessionSecret)
	if secret == "" {
		// Sessions will not survive a restart.
		secret = uuid.NewString()
		logger.Warn("auth session secret is not set, using a random one")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.Endpoint)
	if err != nil {
		logger.Fatalf("setup telemetry: %v", err)
	}

	kv, closeKV, err := buildKV(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("setup local store: %v", err)
	}
	defer closeKV()

	store := localstore.New(kv, logger)
	views := listing.NewRegistry()
	dir := directory.NewHTTPClient(directory.Options{
		BaseURL: cfg.Directory.BaseURL,
		APIKey:  cfg.Directory.APIKey,
		Timeout: cfg.Directory.Timeout,
	})

	var objects storage.Service
	if cfg.Snapshots.Bucket != "" {
		objects, err = buildStorage(ctx, cfg, logger)
		if err != nil {
			logger.Fatalf("setup storage: %v", err)
		}
	} else {
		logger.Info("snapshots disabled (no bucket configured)")
	}

	sessionService := service.NewSessionService(dir, store, views, logger)
	userService := service.NewUserService(dir, store, views, logger, service.UserServiceOptions{
		RemoteEdits: cfg.Directory.RemoteEdits,
	})
	snapshotService := service.NewSnapshotService(objects, store, views, logger, service.SnapshotOptions{
		Bucket: cfg.Snapshots.Bucket,
		Prefix: cfg.Snapshots.Prefix,
	})

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	handler := apphttp.NewHandler(
		sessionService,
		userService,
		snapshotService,
		logger,
		apphttp.Options{
			SessionSecret: []byte(secret),
			SessionTTL:    cfg.Auth.SessionTTL,
			SecureCookies: cfg.Auth.SecureCookies,
			DemoEmail:     cfg.Auth.DemoEmail,
			DemoPassword:  cfg.Auth.DemoPassword,
		},
	)
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: router,
	}

	go func() {
		logger.Infof("listening on %s (directory %s)", cfg.Server.Addr, cfg.Directory.BaseURL)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("http shutdown: %v", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Warnf("telemetry shutdown: %v", err)
	}

	logger.Info("bye")
}

func buildKV(ctx context.Context, cfg config.Config, logger *logrus.Logger) (repository.KVStore, func(), error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Storage.Backend)) {
	case "memory":
		logger.Warn("using in-memory local store, overlays are lost on restart")
		return memory.NewKVRepository(), func() {}, nil
	case "", "sqlite":
		db, err := sqlite.Open(cfg.Database.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("open database: %w", err)
		}
		repo := sqlite.NewKVRepository(db)
		if err := repo.Init(ctx); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("init local store: %w", err)
		}
		logger.Infof("local store at %s", cfg.Database.Path)
		return repo, func() { _ = db.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

func buildStorage(ctx context.Context, cfg config.Config, logger *logrus.Logger) (storage.Service, error) {
	loadOpts := []func(*awscfg.LoadOptions) error{
		awscfg.WithRegion(cfg.Snapshots.Region),
	}
	if cfg.AWS.Profile != "" {
		loadOpts = append(loadOpts, awscfg.WithSharedConfigProfile(cfg.AWS.Profile))
	}

	awsCfg, err := awscfg.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Snapshots.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Snapshots.Endpoint)
			o.UsePathStyle = true
		}
	})
	logger.Infof("using s3 bucket %s for snapshots (region %s)", cfg.Snapshots.Bucket, cfg.Snapshots.Region)
	return storage.NewS3Service(client), nil
}
