package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/silvanatrade/distributor-portal/internal/activity"
	"github.com/silvanatrade/distributor-portal/internal/http/api/response"
	"github.com/silvanatrade/distributor-portal/internal/models"
	"github.com/silvanatrade/distributor-portal/internal/storage"
	"gorm.io/gorm"
)

// maxUploadBytes caps upload size at 32 MiB.
const maxUploadBytes = 32 << 20

// MediaHandler manages marketing file uploads and downloads.
type MediaHandler struct {
	db       *gorm.DB
	store    *storage.MediaStore
	recorder *activity.Recorder
}

// NewMediaHandler constructs a MediaHandler.
func NewMediaHandler(db *gorm.DB, store *storage.MediaStore, recorder *activity.Recorder) *MediaHandler {
	return &MediaHandler{db: db, store: store, recorder: recorder}
}

// Upload stores a multipart file and records its metadata.
func (h *MediaHandler) Upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)

	fileHeader, errFile := c.FormFile("file")
	if errFile != nil {
		response.Abort(c, http.StatusBadRequest, "missing file")
		return
	}
	src, errOpen := fileHeader.Open()
	if errOpen != nil {
		response.Fail(c, errOpen)
		return
	}
	defer src.Close()

	storedName, size, errSave := h.store.Save(fileHeader.Filename, src)
	if errSave != nil {
		response.Fail(c, errSave)
		return
	}

	actor := currentUser(c)
	media := models.MediaFile{
		ID:           uuid.NewString(),
		FileName:     fileHeader.Filename,
		StoredName:   storedName,
		MimeType:     fileHeader.Header.Get("Content-Type"),
		Size:         size,
		UploadedByID: actor.ID,
	}
	if errCreate := h.db.WithContext(c.Request.Context()).Create(&media).Error; errCreate != nil {
		_ = h.store.Remove(storedName)
		response.Fail(c, errCreate)
		return
	}

	h.record(c, models.ActionMediaUploaded, media.ID, map[string]any{"file_name": media.FileName, "size": size})
	response.OK(c, http.StatusCreated, gin.H{"file": media})
}

// List returns uploaded file metadata.
func (h *MediaHandler) List(c *gin.Context) {
	var rows []models.MediaFile
	if errFind := h.db.WithContext(c.Request.Context()).
		Order("created_at DESC").Find(&rows).Error; errFind != nil {
		response.Fail(c, errFind)
		return
	}
	response.OK(c, http.StatusOK, gin.H{"files": rows})
}

// Download streams a stored file back under its original name.
func (h *MediaHandler) Download(c *gin.Context) {
	media, ok := h.loadMedia(c)
	if !ok {
		return
	}
	c.FileAttachment(h.store.Path(media.StoredName), media.FileName)
}

// Delete removes a file from disk and its metadata row.
func (h *MediaHandler) Delete(c *gin.Context) {
	media, ok := h.loadMedia(c)
	if !ok {
		return
	}
	if errDelete := h.db.WithContext(c.Request.Context()).Delete(&models.MediaFile{}, "id = ?", media.ID).Error; errDelete != nil {
		response.Fail(c, errDelete)
		return
	}
	if errRemove := h.store.Remove(media.StoredName); errRemove != nil {
		response.Fail(c, errRemove)
		return
	}
	h.record(c, models.ActionMediaDeleted, media.ID, map[string]any{"file_name": media.FileName})
	response.NoContent(c)
}

func (h *MediaHandler) loadMedia(c *gin.Context) (*models.MediaFile, bool) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		response.Abort(c, http.StatusBadRequest, "invalid id")
		return nil, false
	}
	var media models.MediaFile
	if errFind := h.db.WithContext(c.Request.Context()).First(&media, "id = ?", id).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			response.Abort(c, http.StatusNotFound, "file not found")
			return nil, false
		}
		response.Fail(c, errFind)
		return nil, false
	}
	return &media, true
}

func (h *MediaHandler) record(c *gin.Context, action models.ActivityAction, resourceID string, detail map[string]any) {
	actor := currentUser(c)
	h.recorder.Record(c.Request.Context(), activity.Entry{
		UserID:       &actor.ID,
		Action:       action,
		ResourceType: "media_file",
		ResourceID:   resourceID,
		IP:           c.ClientIP(),
		UserAgent:    c.Request.UserAgent(),
		Detail:       detail,
	})
}
