package controllers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/audioproof/audioproof/models"
	"github.com/audioproof/audioproof/storage"
	"github.com/audioproof/audioproof/utils"
)

// RecordsController serves the authenticated verification history.
type RecordsController struct {
	db    *gorm.DB
	blobs storage.BlobStore
}

func NewRecordsController(db *gorm.DB, blobs storage.BlobStore) *RecordsController {
	return &RecordsController{db: db, blobs: blobs}
}

type recordListResponse struct {
	Total    int64                      `json:"total"`
	Page     int                        `json:"page"`
	PageSize int                        `json:"page_size"`
	Records  []models.AudioVerification `json:"records"`
}

// List returns the caller's verification records, newest first, with
// pagination and an optional created-at date range. Pages are cached in redis
// and invalidated on every write to the user's history.
func (r *RecordsController) List(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40101, "authentication required")
		return
	}

	page, pageSize := parsePagination(ctx.Query("page"), ctx.Query("page_size"))
	from, to := parseDateRange(ctx.Query("from"), ctx.Query("to"))

	cacheKey := "cache:user:" + strconv.Itoa(int(userID)) + ":verifications:" +
		strconv.Itoa(page) + ":" + strconv.Itoa(pageSize) + ":" + ctx.Query("from") + ":" + ctx.Query("to") + ":" + ctx.Query("verdict")
	if b, hit := utils.CacheGetBytes(cacheKey); hit {
		var cached recordListResponse
		if json.Unmarshal(b, &cached) == nil {
			utils.Success(ctx, cached)
			return
		}
	}

	query := r.db.Model(&models.AudioVerification{}).Where("user_id = ?", userID)
	if from != nil {
		query = query.Where("created_at >= ?", *from)
	}
	if to != nil {
		query = query.Where("created_at < ?", *to)
	}
	if verdict := ctx.Query("verdict"); verdict == "observed" || verdict == "not_observed" {
		query = query.Where("verdict = ?", verdict)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50040, "failed to count records")
		return
	}

	var records []models.AudioVerification
	if err := query.Order("created_at DESC").
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&records).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50041, "failed to load records")
		return
	}
	if records == nil {
		records = []models.AudioVerification{}
	}

	resp := recordListResponse{Total: total, Page: page, PageSize: pageSize, Records: records}
	utils.CacheSetJSON(cacheKey, resp, 5*time.Minute)
	utils.Success(ctx, resp)
}

// Get returns one record owned by the caller, with a download URL when the
// blob is still stored.
func (r *RecordsController) Get(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40101, "authentication required")
		return
	}

	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil || id <= 0 {
		utils.Error(ctx, http.StatusBadRequest, 40041, "invalid record id")
		return
	}

	var record models.AudioVerification
	if err := r.db.Where("id = ? AND user_id = ?", id, userID).First(&record).Error; err != nil {
		utils.Error(ctx, http.StatusNotFound, 40440, "record not found")
		return
	}

	payload := gin.H{"record": record}
	if record.StorageKey != nil && r.blobs != nil {
		if url, err := r.blobs.URL(ctx.Request.Context(), *record.StorageKey, 15*time.Minute); err == nil {
			payload["download_url"] = url
		}
	}

	utils.Success(ctx, payload)
}

// Delete removes a record. Owners may delete their own; admins may delete any.
// The stored blob, if any, goes with it.
func (r *RecordsController) Delete(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40101, "authentication required")
		return
	}

	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil || id <= 0 {
		utils.Error(ctx, http.StatusBadRequest, 40041, "invalid record id")
		return
	}

	var record models.AudioVerification
	if err := r.db.First(&record, id).Error; err != nil {
		utils.Error(ctx, http.StatusNotFound, 40440, "record not found")
		return
	}
	if record.UserID != userID && !isAdmin(ctx) {
		utils.Error(ctx, http.StatusForbidden, 40340, "not allowed to delete this record")
		return
	}

	if err := r.db.Delete(&record).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50042, "failed to delete record")
		return
	}

	if record.StorageKey != nil && r.blobs != nil {
		if err := r.blobs.Delete(ctx.Request.Context(), *record.StorageKey); err != nil {
			utils.Sugar.Warnw("blob delete failed", "key", *record.StorageKey, "err", err)
		}
		r.db.Where("backend = ? AND `key` = ?", r.blobs.Backend(), *record.StorageKey).Delete(&models.StoredBlob{})
	}

	utils.InvalidateByPrefix("cache:user:" + strconv.Itoa(int(record.UserID)) + ":verifications:")
	utils.InvalidateByPrefix("cache:stats:")
	utils.Success(ctx, gin.H{"deleted": record.ID})
}
