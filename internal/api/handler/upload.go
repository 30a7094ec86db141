package handler

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/clarionhq/daypress/internal/api/response"
)

// UploadHandler handles media upload endpoints. Uploaded files back
// the image and audio references in content metadata.
type UploadHandler struct {
	uploadDir string
}

// NewUploadHandler creates a new upload handler
func NewUploadHandler(uploadDir string) *UploadHandler {
	// Ensure upload directory exists
	os.MkdirAll(uploadDir, 0755)
	return &UploadHandler{uploadDir: uploadDir}
}

var mediaExts = map[string]string{
	".jpg":  "image",
	".jpeg": "image",
	".png":  "image",
	".webp": "image",
	".mp3":  "audio",
	".m4a":  "audio",
	".ogg":  "audio",
}

// UploadMedia handles image and audio file upload
func (h *UploadHandler) UploadMedia(w http.ResponseWriter, r *http.Request) {
	// Limit upload to 100MB
	r.ParseMultipartForm(100 << 20)

	file, header, err := r.FormFile("file")
	if err != nil {
		response.BadRequest(w, "no file uploaded")
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	kind, ok := mediaExts[ext]
	if !ok {
		response.BadRequest(w, "invalid file type. Allowed: .jpg, .jpeg, .png, .webp, .mp3, .m4a, .ogg")
		return
	}

	// Generate unique filename to avoid collisions
	uniqueName := fmt.Sprintf("%s%s", uuid.New().String(), ext)
	destPath := filepath.Join(h.uploadDir, uniqueName)

	dst, err := os.Create(destPath)
	if err != nil {
		response.InternalError(w, "failed to save file")
		return
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		os.Remove(destPath) // cleanup on error
		response.InternalError(w, "failed to save file")
		return
	}

	response.OK(w, map[string]any{
		"path":          "/media/" + uniqueName,
		"kind":          kind,
		"original_name": header.Filename,
		"size":          header.Size,
	})
}
