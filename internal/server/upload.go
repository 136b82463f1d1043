package server

import (
	"mime"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"
)

// Upload receives one multipart file and stores it through the storage
// provider. The response carries the reference callers embed in expense and
// income records.
func (s *Server) Upload(c *gin.Context) {
	orgID, ok := s.requestOrgID(c)
	if !ok {
		return
	}

	allowed, err := s.limiter.AllowUpload(c.Request.Context(), orgID.String())
	if err == nil && !allowed {
		AbortWithError(c, ErrTooManyRequests)
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		AbortWithError(c, newValidationError("file", "missing_file", "a file form field is required"))
		return
	}

	src, err := header.Open()
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	defer src.Close()

	url, err := s.storage.Save(c.Request.Context(), header.Filename, src)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	contentType := mime.TypeByExtension(filepath.Ext(header.Filename))
	if contentType == "" {
		contentType = header.Header.Get("Content-Type")
	}

	c.JSON(http.StatusCreated, gin.H{
		"type": contentType,
		"name": header.Filename,
		"url":  url,
	})
}
