package controllers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/audioproof/audioproof/config"
	"github.com/audioproof/audioproof/forensics"
	"github.com/audioproof/audioproof/models"
	"github.com/audioproof/audioproof/relay"
	"github.com/audioproof/audioproof/storage"
	"github.com/audioproof/audioproof/utils"
)

// VerifyController handles upload, metadata pre-flight and the verification
// relay. Anonymous requests are processed statelessly; authenticated requests
// additionally get a history record and a stored copy of the blob.
type VerifyController struct {
	db    *gorm.DB
	cfg   config.AppConfig
	ext   *forensics.Extractor
	relay *relay.Service
	blobs storage.BlobStore
}

// NewVerifyController wires the controller with its collaborators. blobs may
// be nil when no storage backend is configured.
func NewVerifyController(db *gorm.DB, cfg config.AppConfig, ext *forensics.Extractor, svc *relay.Service, blobs storage.BlobStore) *VerifyController {
	return &VerifyController{db: db, cfg: cfg, ext: ext, relay: svc, blobs: blobs}
}

// readUpload pulls the multipart file into memory, enforcing the size cap.
func (v *VerifyController) readUpload(ctx *gin.Context) (relay.File, bool) {
	file, header, err := ctx.Request.FormFile("file")
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40030, "no file uploaded")
		return relay.File{}, false
	}
	defer file.Close()

	maxSize := int64(v.cfg.MaxUploadMB) * 1024 * 1024
	if header.Size > 0 && header.Size > maxSize {
		utils.Error(ctx, http.StatusBadRequest, 40032, "file size exceeds "+strconv.Itoa(v.cfg.MaxUploadMB)+"MB")
		return relay.File{}, false
	}

	lr := &io.LimitedReader{R: file, N: maxSize + 1}
	data, err := io.ReadAll(lr)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50030, "failed to read file")
		return relay.File{}, false
	}
	if int64(len(data)) > maxSize {
		utils.Error(ctx, http.StatusBadRequest, 40032, "file size exceeds "+strconv.Itoa(v.cfg.MaxUploadMB)+"MB")
		return relay.File{}, false
	}

	return relay.File{Name: header.Filename, Data: data}, true
}

// Metadata runs the container-inspection pre-flight only. Extraction failure
// is the one user-visible error in the pipeline.
func (v *VerifyController) Metadata(ctx *gin.Context) {
	file, ok := v.readUpload(ctx)
	if !ok {
		return
	}

	meta, err := v.ext.Extract(ctx.Request.Context(), file.Data, file.Name)
	if err != nil {
		utils.Sugar.Warnw("metadata extraction failed", "file", file.Name, "err", err)
		utils.Error(ctx, http.StatusUnprocessableEntity, 42201, "unable to inspect audio file")
		return
	}

	utils.Success(ctx, gin.H{"metadata": meta})
}

// Verify is the full pipeline: extract metadata, relay to the inference
// server (with local fallback), and persist a record when authenticated.
func (v *VerifyController) Verify(ctx *gin.Context) {
	file, ok := v.readUpload(ctx)
	if !ok {
		return
	}

	orientationStr := ctx.Query("orientation")
	if orientationStr == "" {
		orientationStr = ctx.PostForm("orientation")
	}
	orientation, err := relay.ParseOrientation(orientationStr)
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40033, "invalid orientation")
		return
	}

	meta, err := v.ext.Extract(ctx.Request.Context(), file.Data, file.Name)
	if err != nil {
		var exErr *forensics.ExtractionError
		if errors.As(err, &exErr) {
			utils.Sugar.Warnw("extraction failed", "file", file.Name, "err", err)
			utils.Error(ctx, http.StatusUnprocessableEntity, 42201, "unable to inspect audio file")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50033, "failed to inspect audio file")
		return
	}

	// Relay failures are absorbed inside the service; err here means the
	// pipeline could not construct any outcome at all.
	outcome, err := v.relay.Process(ctx.Request.Context(), file, orientation)
	if err != nil {
		utils.Sugar.Errorw("verification pipeline failed", "file", file.Name, "err", err)
		utils.Error(ctx, http.StatusInternalServerError, 50034, "verification failed")
		return
	}

	payload := gin.H{"metadata": meta, "outcome": outcome}
	if userID, authed := getUserID(ctx); authed {
		record := v.buildRecord(userID, file, meta, outcome)
		v.persistRecord(ctx, record, file)
		payload["record"] = record
	}

	utils.Success(ctx, payload)
}

// buildRecord assembles the persisted row from metadata and outcome.
func (v *VerifyController) buildRecord(userID uint, file relay.File, meta *forensics.ForensicMetadata, outcome *relay.VerificationOutcome) *models.AudioVerification {
	axes, _ := json.Marshal(outcome.ExceededAxes)
	raw, _ := json.Marshal(outcome)

	record := &models.AudioVerification{
		UserID:              userID,
		Filename:            meta.Filename,
		FileSizeBytes:       meta.FileSizeBytes,
		ContentHash:         meta.ContentHash,
		DurationSeconds:     meta.DurationSeconds,
		SampleRateHz:        meta.SampleRateHz,
		BitDepth:            meta.BitDepth,
		ChannelCount:        meta.ChannelCount,
		CodecName:           meta.CodecName,
		Orientation:         string(outcome.Orientation),
		Verdict:             string(outcome.Verdict),
		StatusLabel:         outcome.StatusLabel,
		PrimaryExceededAxis: outcome.PrimaryExceededAxis,
		ExceededAxes:        string(axes),
		Notice:              outcome.Notice,
		TimelineMarkers:     "[]",
		RawAnalysis:         string(raw),
		Status:              models.VerificationStatusCompleted,
	}
	if len(outcome.DetailedAnalysis) > 0 {
		record.RawAnalysis = string(outcome.DetailedAnalysis)
	}
	return record
}

// persistRecord writes the record and stores the blob, both best-effort:
// persistence failure is logged and never fails the in-flight response.
func (v *VerifyController) persistRecord(ctx *gin.Context, record *models.AudioVerification, file relay.File) {
	if v.blobs != nil {
		key, err := v.blobs.Save(ctx.Request.Context(), file.Name, file.Data, http.DetectContentType(file.Data))
		if err != nil {
			utils.Sugar.Warnw("blob store save failed", "file", file.Name, "err", err)
		} else {
			record.StorageKey = &key
			expireAt := time.Now().Add(time.Duration(v.cfg.BlobRetentionMinutes) * time.Minute)
			if err := v.db.Create(&models.StoredBlob{Backend: v.blobs.Backend(), Key: key, ExpireAt: expireAt}).Error; err != nil {
				utils.Sugar.Warnw("stored blob bookkeeping failed", "key", key, "err", err)
			}
		}
	}

	if err := v.db.Create(record).Error; err != nil {
		utils.Sugar.Errorw("failed to persist verification record", "user", record.UserID, "err", err)
		return
	}

	utils.InvalidateByPrefix("cache:user:" + strconv.Itoa(int(record.UserID)) + ":verifications:")
	utils.InvalidateByPrefix("cache:stats:")
}
