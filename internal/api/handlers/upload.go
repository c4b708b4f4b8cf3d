package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/printdesk/printdesk/internal/config"
	"github.com/printdesk/printdesk/internal/core"
	"github.com/printdesk/printdesk/internal/pages"
)

type UploadHandler struct {
	engine    *core.Engine
	uploadDir string
	publicURL string
}

func NewUploadHandler(engine *core.Engine, cfg *config.Config) *UploadHandler {
	return &UploadHandler{
		engine:    engine,
		uploadDir: cfg.Upload.Dir,
		publicURL: cfg.Server.PublicURL,
	}
}

// Upload receives the multipart form from the client page, stores the files,
// counts pages and admits the request into the queue.
func (h *UploadHandler) Upload(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid multipart form: %v", err)})
		return
	}

	uploads := form.File["files"]
	if len(uploads) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no files uploaded"})
		return
	}

	colorMode := core.ColorMode(c.PostForm("colorMode"))
	copies, err := strconv.Atoi(c.PostForm("copies"))
	if err != nil || copies < 1 {
		copies = 1
	}
	settings := core.PrinterSettings{
		Printer:   c.PostForm("printer"),
		ColorMode: colorMode,
		Copies:    copies,
	}
	ownerSessionID := c.PostForm("clientId")

	var files []core.PrintFile
	var pageCounts []int
	for _, fh := range uploads {
		storedName := uuid.New().String() + filepath.Ext(fh.Filename)
		dst := filepath.Join(h.uploadDir, storedName)
		if err := c.SaveUploadedFile(fh, dst); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("failed to store %s", fh.Filename)})
			return
		}

		files = append(files, core.PrintFile{
			StorageRef:   h.publicURL + "/uploads/" + storedName,
			OriginalName: fh.Filename,
		})
		pageCounts = append(pageCounts, pages.Count(dst, fh.Header.Get("Content-Type"), fh.Filename))
	}

	req, err := h.engine.Admit(files, settings, pageCounts, ownerSessionID)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrNoFiles),
			errors.Is(err, core.ErrInvalidConfiguration),
			errors.Is(err, core.ErrMerchantNotConfigured),
			errors.Is(err, core.ErrPayeeNotConfigured):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to admit print request"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "request": req})
}
