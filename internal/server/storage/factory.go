package storage

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/notekeeper/internal/server/config"
)

// NewFromConfig builds the backend selected by cfg.ImageStore.
func NewFromConfig(ctx context.Context, cfg *config.Config) (ImageStore, error) {
	switch cfg.ImageStore {
	case config.ImageStoreFilesystem, "":
		return NewFilesystemStore(cfg.UploadDir)
	case config.ImageStoreMemory:
		return NewMemoryStore(), nil
	case config.ImageStoreS3:
		return NewS3Store(ctx, S3Options{
			Region:       cfg.S3Region,
			AccessKey:    cfg.S3RootUser,
			SecretKey:    cfg.S3RootPassword,
			Bucket:       cfg.S3Bucket,
			BaseEndpoint: cfg.S3BaseEndpoint,
		})
	default:
		return nil, fmt.Errorf("unknown image store %q", cfg.ImageStore)
	}
}
