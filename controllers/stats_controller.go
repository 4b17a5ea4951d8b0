package controllers

import (
	"encoding/json"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/audioproof/audioproof/models"
	"github.com/audioproof/audioproof/relay"
	"github.com/audioproof/audioproof/utils"
)

// StatsController provides aggregate verification statistics.
type StatsController struct {
	db *gorm.DB
}

// NewStatsController creates a new StatsController instance.
func NewStatsController(db *gorm.DB) *StatsController {
	return &StatsController{db: db}
}

type statsPayload struct {
	UserCount         int64 `json:"user_count"`
	VerificationCount int64 `json:"verification_count"`
	ObservedCount     int64 `json:"observed_count"`
	NotObservedCount  int64 `json:"not_observed_count"`
	FallbackCount     int64 `json:"fallback_count"`
	TodayCount        int64 `json:"today_count"`
}

// GetStats returns aggregate counters for the whole system. Counters degrade
// to zero on query failure instead of failing the endpoint.
func (s *StatsController) GetStats(ctx *gin.Context) {
	const cacheKey = "cache:stats:global"
	if b, hit := utils.CacheGetBytes(cacheKey); hit {
		var cached statsPayload
		if json.Unmarshal(b, &cached) == nil {
			utils.Success(ctx, cached)
			return
		}
	}

	var payload statsPayload

	if err := s.db.Model(&models.User{}).Count(&payload.UserCount).Error; err != nil {
		payload.UserCount = 0
	}
	if err := s.db.Model(&models.AudioVerification{}).Count(&payload.VerificationCount).Error; err != nil {
		payload.VerificationCount = 0
	}
	if err := s.db.Model(&models.AudioVerification{}).
		Where("verdict = ?", string(relay.VerdictObserved)).
		Count(&payload.ObservedCount).Error; err != nil {
		payload.ObservedCount = 0
	}
	payload.NotObservedCount = payload.VerificationCount - payload.ObservedCount

	// Fallback outcomes are the rows carrying the mandatory notice.
	if err := s.db.Model(&models.AudioVerification{}).
		Where("notice IS NOT NULL").
		Count(&payload.FallbackCount).Error; err != nil {
		payload.FallbackCount = 0
	}

	dayStart := time.Now().In(time.Local).Truncate(24 * time.Hour)
	if err := s.db.Model(&models.AudioVerification{}).
		Where("created_at >= ?", dayStart).
		Count(&payload.TodayCount).Error; err != nil {
		payload.TodayCount = 0
	}

	utils.CacheSetJSON(cacheKey, payload, time.Minute)
	utils.Success(ctx, payload)
}
