package utils

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/audioproof/audioproof/models"
	"github.com/audioproof/audioproof/storage"
)

// StartBlobReaper launches a background goroutine that periodically deletes
// expired stored audio blobs and their bookkeeping rows. It is best-effort
// and logs failures; verification records themselves are never touched.
func StartBlobReaper(db *gorm.DB, store storage.BlobStore, interval time.Duration, enabled bool) {
	if !enabled || db == nil || store == nil {
		return
	}
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	go func() {
		for {
			// Sleep first to avoid racing immediately at startup
			time.Sleep(interval)

			var items []models.StoredBlob
			if err := db.Where("expire_at <= ?", time.Now()).Limit(100).Find(&items).Error; err != nil {
				Sugar.Warnf("blob reaper query failed: %v", err)
				continue
			}
			for _, it := range items {
				if it.Backend == store.Backend() {
					ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
					if err := store.Delete(ctx, it.Key); err != nil {
						Sugar.Warnf("blob reaper delete %s failed: %v", it.Key, err)
					}
					cancel()
				}
				// Remove the row regardless of blob deletion outcome
				if err := db.Delete(&models.StoredBlob{}, it.ID).Error; err != nil {
					Sugar.Warnf("blob reaper delete row failed: %v", err)
				}
			}
		}
	}()
}
