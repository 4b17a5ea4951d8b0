package models

import "time"

// StoredBlob records persisted audio blobs for timed cleanup. Backend is the
// storage backend name ("local" or "minio"); Key is backend-specific (a path
// for local storage, an object key for minio).
type StoredBlob struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Backend   string    `gorm:"size:16;not null" json:"backend"`
	Key       string    `gorm:"size:1024;not null" json:"key"`
	ExpireAt  time.Time `gorm:"index" json:"expire_at"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
