package handlers

import (
	"net/http"

	"github.com/align-alt-therapy/align-backend/internal/services"
)

var cloudinaryService *services.CloudinaryService

// InitCloudinaryService sets up the shared Cloudinary client for upload handlers.
func InitCloudinaryService(cloudName, apiKey, apiSecret string) error {
	svc, err := services.NewCloudinaryService(cloudName, apiKey, apiSecret)
	if err != nil {
		return err
	}
	cloudinaryService = svc
	return nil
}

// allowedUploadFolders keeps admin uploads inside known folders.
var allowedUploadFolders = map[string]bool{
	"banners":   true,
	"playlists": true,
	"songs":     true,
}

// UploadFile handles admin media uploads (banner images, playlist covers, song audio).
// Expects multipart form with "file" and an optional "folder" field.
func UploadFile(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}

	if cloudinaryService == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"success": false,
			"message": "Upload service not configured",
		})
		return
	}

	// 50 MB limit covers song audio files
	if err := r.ParseMultipartForm(50 << 20); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"success": false,
			"message": "Failed to parse upload",
		})
		return
	}

	_, fileHeader, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"success": false,
			"message": "Missing file",
		})
		return
	}

	folder := r.FormValue("folder")
	if folder == "" {
		folder = "banners"
	}
	if !allowedUploadFolders[folder] {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"success": false,
			"message": "Invalid upload folder",
		})
		return
	}

	url, err := cloudinaryService.UploadFileFromHeader(r.Context(), fileHeader, folder)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"success": false,
			"message": "Upload failed",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"url":     url,
	})
}
