package controller

import (
	"context"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	blobport "github.com/poke-max/jomach-sub000/internal/infrastructure/blob/port"
	"github.com/poke-max/jomach-sub000/internal/infrastructure/identity"
	chat "github.com/poke-max/jomach-sub000/internal/pkg/chat/application/domain"
)

// maxAttachmentSize caps uploads at 25 MiB.
const maxAttachmentSize = 25 << 20

// UploadAttachmentController stores an uploaded file and returns the
// attachment metadata the client embeds in a subsequent image or file message.
type UploadAttachmentController struct {
	Blob blobport.Store
}

func NewUploadAttachmentController(store blobport.Store) *UploadAttachmentController {
	return &UploadAttachmentController{Blob: store}
}

func (h *UploadAttachmentController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := identity.CurrentUser(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
			return
		}

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxAttachmentSize)

		fileHeader, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "file field is required"})
			return
		}

		src, err := fileHeader.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unable to read upload"})
			return
		}
		defer src.Close()

		ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
		defer cancel()

		// random prefix keeps uploads from colliding or being guessable
		name := filepath.Base(fileHeader.Filename)
		path := userID + "/" + uuid.NewString() + "_" + name

		url, err := h.Blob.Upload(ctx, src, path)
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "upload failed"})
			return
		}

		meta := chat.Attachment{
			FileName: name,
			FileSize: fileHeader.Size,
			FileType: fileHeader.Header.Get("Content-Type"),
			URL:      url,
		}
		c.JSON(http.StatusCreated, gin.H{"metadata": meta})
	}
}
