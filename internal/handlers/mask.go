package handlers

import (
	"io"
	"net/http"
	"os"
	"path/filepath"

	"snowwatch/internal/config"
	"snowwatch/internal/logger"
)

// MaskImageHandler fetches, replaces or deletes the region-of-interest mask
// artifact. Deleting it degrades detection to full-frame-active.
func MaskImageHandler(cfg *config.Config, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			if _, err := os.Stat(cfg.MaskPath); err != nil {
				http.Error(w, "Mask not found", http.StatusNotFound)
				return
			}
			http.ServeFile(w, r, cfg.MaskPath)

		case http.MethodPost:
			file, _, err := r.FormFile("file")
			if err != nil {
				http.Error(w, "Missing file field", http.StatusBadRequest)
				return
			}
			defer file.Close()

			if err := os.MkdirAll(filepath.Dir(cfg.MaskPath), 0755); err != nil {
				logger.Error("Failed to create mask directory: %v", err)
				http.Error(w, "Failed to save mask", http.StatusInternalServerError)
				return
			}
			dst, err := os.Create(cfg.MaskPath)
			if err != nil {
				logger.Error("Failed to create mask file: %v", err)
				http.Error(w, "Failed to save mask", http.StatusInternalServerError)
				return
			}
			defer dst.Close()
			if _, err := io.Copy(dst, file); err != nil {
				logger.Error("Failed to write mask file: %v", err)
				http.Error(w, "Failed to save mask", http.StatusInternalServerError)
				return
			}
			logger.Info("Mask artifact replaced")
			writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true})

		case http.MethodDelete:
			if err := os.Remove(cfg.MaskPath); err != nil && !os.IsNotExist(err) {
				logger.Error("Failed to delete mask: %v", err)
				http.Error(w, "Failed to delete mask", http.StatusInternalServerError)
				return
			}
			logger.Info("Mask artifact removed")
			writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true})

		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}
