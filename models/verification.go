package models

import (
	"time"

	"gorm.io/gorm"
)

// Verification record lifecycle states.
const (
	VerificationStatusPending    = "pending"
	VerificationStatusProcessing = "processing"
	VerificationStatusCompleted  = "completed"
	VerificationStatusFailed     = "failed"
)

// AudioVerification is one saved verification result for an authenticated user.
// Rows are written once at process-completion time; only the status column is
// ever updated afterwards.
type AudioVerification struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	UserID   uint   `gorm:"index;not null" json:"user_id"`
	Filename string `gorm:"size:512;not null" json:"filename"`

	// Container-level facts captured before analysis. Numeric fields are
	// nullable: absent metadata stays NULL, never a zero sentinel.
	FileSizeBytes   int64    `gorm:"not null" json:"file_size_bytes"`
	ContentHash     string   `gorm:"size:64;index" json:"content_hash"`
	DurationSeconds *float64 `json:"duration_seconds"`
	SampleRateHz    *int     `json:"sample_rate_hz"`
	BitDepth        *int     `json:"bit_depth"`
	ChannelCount    *int     `json:"channel_count"`
	CodecName       *string  `gorm:"size:64" json:"codec_name"`

	// Outcome as produced by the relay. Verdict is the closed two-value enum;
	// no score or probability column exists on purpose.
	Orientation         string  `gorm:"size:16;not null" json:"orientation"`
	Verdict             string  `gorm:"type:enum('observed','not_observed');not null" json:"verdict"`
	StatusLabel         string  `gorm:"size:32" json:"crgStatus"`
	PrimaryExceededAxis *string `gorm:"size:64" json:"primaryExceededAxis"`
	ExceededAxes        string  `gorm:"type:json" json:"exceeded_axes"`
	Notice              *string `gorm:"size:512" json:"notice"`
	TimelineMarkers     string  `gorm:"type:json" json:"timeline_markers"`
	RawAnalysis         string  `gorm:"type:json" json:"-"`

	// Optional handle into the blob store (history-saving path only).
	StorageKey *string `gorm:"size:512" json:"storage_key"`

	Status    string         `gorm:"type:enum('pending','processing','completed','failed');default:'completed'" json:"status"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	User User `json:"-"`
}

// TableName keeps the historical table name.
func (AudioVerification) TableName() string {
	return "audio_verifications"
}

// BeforeCreate hook ensures timestamps and a terminal status are set.
func (v *AudioVerification) BeforeCreate(tx *gorm.DB) error {
	now := time.Now()
	if v.CreatedAt.IsZero() {
		v.CreatedAt = now
	}
	v.UpdatedAt = now
	if v.Status == "" {
		v.Status = VerificationStatusCompleted
	}
	return nil
}
