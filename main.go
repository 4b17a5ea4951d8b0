package main

import (
	"time"

	"github.com/audioproof/audioproof/config"
	"github.com/audioproof/audioproof/forensics"
	"github.com/audioproof/audioproof/models"
	"github.com/audioproof/audioproof/relay"
	"github.com/audioproof/audioproof/routes"
	"github.com/audioproof/audioproof/storage"
	"github.com/audioproof/audioproof/utils"
)

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}

	db := config.InitDatabase(&models.User{}, &models.AudioVerification{}, &models.StoredBlob{})

	extractor := forensics.NewExtractor(cfg.FFprobePath, cfg.TempDir)

	client := relay.NewInferenceClient(cfg.InferenceBaseURL, time.Duration(cfg.InferenceTimeoutSec)*time.Second, utils.Sugar)
	svc := relay.NewService(client, relay.NewFallbackProvider(), utils.Sugar)

	var blobs storage.BlobStore
	switch cfg.StorageBackend {
	case "minio":
		s, err := storage.NewMinioStore(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
		if err != nil {
			utils.Sugar.Fatalf("minio store init failed: %v", err)
		}
		blobs = s
	default:
		blobs = storage.NewLocalStore(cfg.LocalUploadDir)
	}

	r := routes.SetupRouter(db, extractor, svc, blobs)

	// Background removal of expired stored blobs (best-effort)
	utils.StartBlobReaper(db, blobs, 5*time.Minute, cfg.BlobCleanupEnabled)

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	if err := utils.GraceServer(":"+cfg.AppPort, r); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
