package main

import (
	"context"
	"log"
	"os"

	"cloudtab/config"
	"cloudtab/internal/blob"
	"cloudtab/internal/crypto"
	"cloudtab/internal/handler"
	"cloudtab/internal/redis"
	"cloudtab/internal/server"
	"cloudtab/internal/services"
	"cloudtab/internal/store"
	"cloudtab/pkg/database"
	"cloudtab/pkg/logger"
)

func main() {
	cfg := config.LoadConfig()

	logMode := logger.DevelopmentMode
	if cfg.AppMode == "release" {
		logMode = logger.ProductionMode
	}
	l := logger.New(logMode)
	defer l.Sync()
	logger.SetGlobalLogger(l)

	master, err := crypto.ParseKey(cfg.EncryptionKey)
	if err != nil {
		log.Fatalf("ENCRYPTION_KEY is missing or invalid: %v (run cmd/keygen to create one)", err)
	}

	if err := os.MkdirAll(cfg.TmpDir(), 0o700); err != nil {
		log.Fatalf("Failed to create tmp directory: %v", err)
	}

	sessions, limiter := buildSessionStore(cfg, l)
	blobs := buildBlobStore(cfg)

	sessionSvc := services.NewSessionService(sessions, blobs, master, cfg.SessionTTL, l)
	validator := services.NewFileValidator(cfg.MaxFileSize)
	ingestSvc := services.NewIngestService(sessionSvc, blobs, validator, l)
	retrieveSvc := services.NewRetrieveService(sessionSvc, blobs, cfg.TmpDir(), l)

	sweeper := services.NewSweeper(sessionSvc, sessions, blobs, cfg.SweepInterval, l)
	sweeper.Start()
	defer sweeper.Stop()

	srv := server.New(cfg, l)
	srv.SetupRoutes(&server.Handlers{
		Upload:  handler.NewUploadHandler(sessionSvc, ingestSvc, cfg.MaxFilesPerItem, cfg.TmpDir(), l),
		Session: handler.NewSessionHandler(sessionSvc, retrieveSvc, cfg.PublicBaseURL, l),
	}, limiter)

	if err := srv.Start(); err != nil {
		l.Errorf("Server shutdown error: %s", err)
	}
}

// buildSessionStore picks the session store backing. The rate limiter rides
// along because it needs the same redis client; it is nil for the other
// backings, which disables upload rate limiting.
func buildSessionStore(cfg *config.Config, l *logger.Logger) (store.Store, *redis.RateLimiter) {
	switch cfg.SessionStore {
	case "redis":
		client, err := redis.NewClient(redis.Config{
			Host:     cfg.RedisHost,
			Port:     cfg.RedisPort,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			log.Fatalf("Failed to connect to redis: %v", err)
		}
		rlCfg := redis.DefaultRateLimitConfig()
		rlCfg.UploadLimit = cfg.UploadRateLimit
		return store.NewRedisStore(client), redis.NewRateLimiter(client, rlCfg)
	case "postgres":
		db, err := database.Connect(cfg)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		st, err := store.NewGormStore(db)
		if err != nil {
			log.Fatalf("Failed to migrate session table: %v", err)
		}
		return st, nil
	case "file", "":
		st, err := store.NewFileStore(cfg.SessionsDir())
		if err != nil {
			log.Fatalf("Failed to open session store: %v", err)
		}
		return st, nil
	default:
		log.Fatalf("Unknown SESSION_STORE %q (expected file, redis or postgres)", cfg.SessionStore)
		return nil, nil
	}
}

func buildBlobStore(cfg *config.Config) blob.Store {
	switch cfg.BlobStore {
	case "s3":
		st, err := blob.NewS3Store(context.Background(), blob.S3Config{
			Region:    cfg.S3Region,
			Bucket:    cfg.S3Bucket,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Endpoint:  cfg.S3Endpoint,
		})
		if err != nil {
			log.Fatalf("Failed to initialise S3 storage: %v", err)
		}
		return st
	case "disk", "":
		st, err := blob.NewDiskStore(cfg.UploadsDir())
		if err != nil {
			log.Fatalf("Failed to open blob storage: %v", err)
		}
		return st
	default:
		log.Fatalf("Unknown BLOB_STORE %q (expected disk or s3)", cfg.BlobStore)
		return nil
	}
}
