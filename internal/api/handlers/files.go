package handlers

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
)

type FileHandler struct {
	uploadDir string
}

func NewFileHandler(uploadDir string) *FileHandler {
	return &FileHandler{uploadDir: uploadDir}
}

// GetFile reports whether a stored upload still exists, for the merchant page
// to verify before printing.
func (h *FileHandler) GetFile(c *gin.Context) {
	filename := c.Query("filename")
	if filename == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "filename query parameter is required"})
		return
	}

	// Base strips any traversal attempt.
	path := filepath.Join(h.uploadDir, filepath.Base(filename))
	if _, err := os.Stat(path); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"exists": false, "message": "file not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"exists": true, "path": path})
}
