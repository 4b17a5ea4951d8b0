package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/audioproof/audioproof/models"
	"github.com/audioproof/audioproof/storage"
	"github.com/audioproof/audioproof/utils"
)

// AdminController exposes moderation endpoints. All routes are behind
// AdminRequired middleware; handlers do not re-check the role.
type AdminController struct {
	db    *gorm.DB
	blobs storage.BlobStore
}

func NewAdminController(db *gorm.DB, blobs storage.BlobStore) *AdminController {
	return &AdminController{db: db, blobs: blobs}
}

// ListVerifications returns verifications across all users, with the same
// filters the per-user listing supports plus an optional user_id filter.
func (a *AdminController) ListVerifications(ctx *gin.Context) {
	page, pageSize := parsePagination(ctx.Query("page"), ctx.Query("page_size"))
	from, to := parseDateRange(ctx.Query("from"), ctx.Query("to"))

	query := a.db.Model(&models.AudioVerification{})
	if uidStr := ctx.Query("user_id"); uidStr != "" {
		if uid, err := strconv.Atoi(uidStr); err == nil && uid > 0 {
			query = query.Where("user_id = ?", uid)
		}
	}
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
		utils.Error(ctx, http.StatusInternalServerError, 50050, "failed to count verifications")
		return
	}

	var records []models.AudioVerification
	if err := query.Order("created_at DESC").
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&records).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50051, "failed to load verifications")
		return
	}
	if records == nil {
		records = []models.AudioVerification{}
	}

	utils.Success(ctx, gin.H{
		"items": records,
		"pagination": gin.H{
			"page":        page,
			"page_size":   pageSize,
			"total":       total,
			"total_pages": int((total + int64(pageSize) - 1) / int64(pageSize)),
		},
	})
}

// DeleteVerification removes any user's record along with its stored blob.
func (a *AdminController) DeleteVerification(ctx *gin.Context) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil || id <= 0 {
		utils.Error(ctx, http.StatusBadRequest, 40041, "invalid record id")
		return
	}

	var record models.AudioVerification
	if err := a.db.First(&record, id).Error; err != nil {
		utils.Error(ctx, http.StatusNotFound, 40440, "record not found")
		return
	}

	if err := a.db.Delete(&record).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50052, "failed to delete record")
		return
	}

	if record.StorageKey != nil && a.blobs != nil {
		if err := a.blobs.Delete(ctx.Request.Context(), *record.StorageKey); err != nil {
			utils.Sugar.Warnw("blob delete failed", "key", *record.StorageKey, "err", err)
		}
		a.db.Where("backend = ? AND `key` = ?", a.blobs.Backend(), *record.StorageKey).Delete(&models.StoredBlob{})
	}

	utils.InvalidateByPrefix("cache:user:" + strconv.Itoa(int(record.UserID)) + ":verifications:")
	utils.InvalidateByPrefix("cache:stats:")
	utils.Success(ctx, gin.H{"deleted": record.ID})
}

// ListUsers returns paginated users, newest first.
func (a *AdminController) ListUsers(ctx *gin.Context) {
	page, pageSize := parsePagination(ctx.Query("page"), ctx.Query("page_size"))

	var total int64
	if err := a.db.Model(&models.User{}).Count(&total).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50053, "failed to count users")
		return
	}

	var users []models.User
	if err := a.db.Order("created_at DESC").
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&users).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50054, "failed to retrieve users")
		return
	}

	items := make([]gin.H, 0, len(users))
	for _, u := range users {
		items = append(items, userResponse(u))
	}

	utils.Success(ctx, gin.H{
		"items": items,
		"pagination": gin.H{
			"page":        page,
			"page_size":   pageSize,
			"total":       total,
			"total_pages": int((total + int64(pageSize) - 1) / int64(pageSize)),
		},
	})
}
