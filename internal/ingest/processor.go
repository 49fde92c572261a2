// Package ingest relocates files dropped by the camera into the archive.
// Two redundant triggers (filesystem events and a periodic sweep) funnel
// candidate paths into one coordinator goroutine; the atomic move's
// fails-if-source-missing behavior is the sole de-duplication mechanism.
package ingest

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"snowwatch/internal/archive"
	"snowwatch/internal/logger"
)

// Processor moves files from the incoming directory into the archive.
type Processor struct {
	incomingRoot string
	storageRoot  string
	onArchived   func(timestamp time.Time)
	logger       *logger.Logger
}

// NewProcessor creates a Processor. onArchived receives the capture timestamp
// after every successful move; it may be nil.
func NewProcessor(incomingRoot, storageRoot string, onArchived func(time.Time), logger *logger.Logger) *Processor {
	return &Processor{
		incomingRoot: incomingRoot,
		storageRoot:  storageRoot,
		onArchived:   onArchived,
		logger:       logger,
	}
}

// Relocate moves one file into its archive partition. The capture timestamp
// is the file's modification time. Returns the archived path, or "" when the
// source is not a regular file, has already been relocated by the other
// trigger, or the move fails at the OS level (logged, non-fatal). The two
// triggers may race on the same file; whichever loses finds the source gone
// and returns "" without error.
func (p *Processor) Relocate(path string) string {
	info, err := os.Lstat(path)
	if err != nil {
		// Already moved by the other trigger, or never existed.
		return ""
	}
	if !info.Mode().IsRegular() {
		return ""
	}

	timestamp := info.ModTime().UTC()
	target := archive.Path(p.storageRoot, timestamp, filepath.Base(path))

	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		p.logger.Error("Failed to create archive partition for %s: %v", path, err)
		return ""
	}

	if err := p.move(path, target); err != nil {
		if os.IsNotExist(err) {
			// Lost the race after the Lstat above; expected, not an error.
			return ""
		}
		p.logger.Error("Failed to archive %s: %v", path, err)
		return ""
	}

	p.notify(timestamp)
	return target
}

// move renames src to dst, falling back to copy+remove when the rename
// crosses filesystems.
func (p *Processor) move(src, dst string) error {
	err := os.Rename(src, dst)
	if err == nil {
		return nil
	}
	if le, ok := err.(*os.LinkError); !ok || !isCrossDevice(le.Err) {
		return err
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(dst)
		return err
	}
	return os.Remove(src)
}

// notify invokes the success callback. Callback failures never abort a
// completed relocation.
func (p *Processor) notify(timestamp time.Time) {
	if p.onArchived == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			p.logger.Warning("Ingestion callback panicked: %v", r)
		}
	}()
	p.onArchived(timestamp)
}

// ProcessPending relocates every regular file currently in the incoming
// directory. This is the periodic safety net for missed or coalesced
// filesystem events.
func (p *Processor) ProcessPending() []string {
	entries, err := os.ReadDir(p.incomingRoot)
	if err != nil {
		return nil
	}

	var moved []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if target := p.Relocate(filepath.Join(p.incomingRoot, entry.Name())); target != "" {
			moved = append(moved, target)
		}
	}
	return moved
}

// IncomingRoot returns the watched drop directory.
func (p *Processor) IncomingRoot() string {
	return p.incomingRoot
}
