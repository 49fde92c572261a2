// Package archive owns the timestamp-partitioned frame store: path layout,
// recency scans, overlay naming and the retention sweep.
package archive

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// OverlaySuffix marks derived overlay frames. Overlays are distinguished from
// raw frames purely by name; there is no separate index.
const OverlaySuffix = "_mask"

// Path maps a capture timestamp and file name to the frame's permanent
// location: root/YYYY/MM/DD/name. Pure function, no filesystem access.
func Path(root string, timestamp time.Time, name string) string {
	ts := timestamp.UTC()
	return filepath.Join(root,
		fmt.Sprintf("%04d", ts.Year()),
		fmt.Sprintf("%02d", int(ts.Month())),
		fmt.Sprintf("%02d", ts.Day()),
		name)
}

// EnsureDirectories creates every given directory including parents.
func EnsureDirectories(paths ...string) error {
	for _, path := range paths {
		if err := os.MkdirAll(path, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", path, err)
		}
	}
	return nil
}

// IsOverlay reports whether a file name follows the overlay naming convention.
func IsOverlay(name string) bool {
	return strings.Contains(name, OverlaySuffix)
}

// OverlayName derives the overlay file name for a frame path. Any run of
// trailing overlay suffixes on the base name collapses to exactly one, so
// deriving from an already-derived name never stacks suffixes.
func OverlayName(framePath string) string {
	base := filepath.Base(framePath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	for strings.HasSuffix(stem, OverlaySuffix) {
		stem = strings.TrimSuffix(stem, OverlaySuffix)
	}
	return filepath.Join(filepath.Dir(framePath), stem+OverlaySuffix+".png")
}

// ListRecent enumerates all files under root ordered by modification time
// descending and returns up to limit of them. Overlay-named files are
// excluded unless includeOverlays is set. The scan walks the whole tree on
// every call; at one frame per ingestion cycle this stays cheap.
func ListRecent(root string, limit int, includeOverlays bool) ([]string, error) {
	if _, err := os.Stat(root); err != nil {
		return nil, nil
	}

	type entry struct {
		path  string
		mtime time.Time
	}
	var entries []entry

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable entries are skipped, not fatal
		}
		if d.IsDir() {
			return nil
		}
		if !includeOverlays && IsOverlay(d.Name()) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		entries = append(entries, entry{path: path, mtime: info.ModTime()})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan archive %s: %w", root, err)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].mtime.After(entries[j].mtime)
	})

	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	paths := make([]string, len(entries))
	for i, e := range entries {
		paths[i] = e.path
	}
	return paths, nil
}

// CleanupOlderThan deletes every file under root whose modification time
// precedes now minus retentionDays and returns the deleted paths. Deletion is
// best-effort: per-file errors are skipped and the sweep continues.
func CleanupOlderThan(root string, retentionDays int) []string {
	cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays)
	var deleted []string

	if _, err := os.Stat(root); err != nil {
		return deleted
	}

	filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		if info.ModTime().UTC().Before(cutoff) {
			if err := os.Remove(path); err == nil {
				deleted = append(deleted, path)
			}
		}
		return nil
	})

	return deleted
}
