package handlers

import (
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"snowwatch/internal/archive"
	"snowwatch/internal/config"
	"snowwatch/internal/logger"
	"snowwatch/internal/services"
)

// HistoryItem describes one archived frame.
type HistoryItem struct {
	Path      string `json:"path"`
	MTime     string `json:"mtime,omitempty"`
	IsOverlay bool   `json:"is_overlay"`
}

// HistoryHandler lists recently archived frames, newest first.
func HistoryHandler(cfg *config.Config, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := atoiDefault(r.URL.Query().Get("limit"), 5)
		excludeOverlay := r.URL.Query().Get("exclude_overlay") != "false"

		paths, err := archive.ListRecent(cfg.StorageRoot, limit, !excludeOverlay)
		if err != nil {
			logger.Error("Failed to list archive: %v", err)
			http.Error(w, "Failed to list archive", http.StatusInternalServerError)
			return
		}

		items := make([]HistoryItem, 0, len(paths))
		for _, path := range paths {
			item := HistoryItem{Path: path, IsOverlay: archive.IsOverlay(filepath.Base(path))}
			if info, err := os.Stat(path); err == nil {
				item.MTime = info.ModTime().UTC().Format(time.RFC3339)
			}
			items = append(items, item)
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"images":          items,
			"limit":           limit,
			"exclude_overlay": excludeOverlay,
		})
	}
}

// EvaluationsHandler returns the persisted evaluation history.
func EvaluationsHandler(manager *services.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := atoiDefault(r.URL.Query().Get("limit"), 20)

		evaluations, err := manager.Evaluations().ListRecent(limit)
		if err != nil {
			logger.Error("Failed to list evaluations: %v", err)
			http.Error(w, "Failed to list evaluations", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"evaluations": evaluations,
			"limit":       limit,
		})
	}
}

// atoiDefault parses a positive integer, falling back to def.
func atoiDefault(value string, def int) int {
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
