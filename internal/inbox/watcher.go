// Package inbox ingests scanned images dropped into a directory: each
// image is OCR'd, cleaned, and saved as a new note, then moved into a
// processed/ subdirectory. Ingestion failures are logged and skipped;
// nothing here is fatal to the application.
package inbox

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/snapnote/snapnote/internal/models"
	"github.com/snapnote/snapnote/internal/ocr"
)

// processedDir is where handled images are moved, relative to the inbox.
const processedDir = "processed"

// scanTag is attached to every note created from the inbox.
const scanTag = "scanned"

var imageExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true,
	".webp": true, ".tif": true, ".tiff": true, ".bmp": true,
}

// NoteSaver persists ingested notes. *collection.Collection satisfies it.
type NoteSaver interface {
	Save(ctx context.Context, n models.Note) error
}

// Watcher converts inbox images into notes.
type Watcher struct {
	dir    string
	ocr    *ocr.Service
	notes  NoteSaver
	logger *slog.Logger

	// seen holds checksums of images already ingested in this run, so a
	// duplicate drop does not produce a duplicate note.
	seen map[string]struct{}
}

// New creates a watcher over dir. The directory and its processed/
// subdirectory are created if absent.
func New(dir string, ocrSvc *ocr.Service, notes NoteSaver, logger *slog.Logger) (*Watcher, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Join(abs, processedDir), 0o755); err != nil {
		return nil, err
	}
	return &Watcher{
		dir:    abs,
		ocr:    ocrSvc,
		notes:  notes,
		logger: logger,
		seen:   make(map[string]struct{}),
	}, nil
}

// Run sweeps images already present, then watches for new ones until ctx
// is cancelled. Write events are debounced briefly so half-copied files
// are not picked up mid-transfer.
func (w *Watcher) Run(ctx context.Context) error {
	w.sweep(ctx)

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	if err := fw.Add(w.dir); err != nil {
		return err
	}
	w.logger.Info("inbox: started", slog.String("dir", w.dir))

	pending := make(map[string]*time.Timer)
	ready := make(chan string, 16)

	schedule := func(path string) {
		if t, ok := pending[path]; ok {
			t.Reset(300 * time.Millisecond)
			return
		}
		pending[path] = time.AfterFunc(300*time.Millisecond, func() {
			select {
			case ready <- path:
			case <-ctx.Done():
			}
		})
	}

	for {
		select {
		case <-ctx.Done():
			for _, t := range pending {
				t.Stop()
			}
			w.logger.Info("inbox: stopped")
			return nil

		case path := <-ready:
			delete(pending, path)
			w.process(ctx, path)

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if !isImage(ev.Name) {
				continue
			}
			schedule(ev.Name)

		case watchErr, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("inbox: watch error", slog.String("error", watchErr.Error()))
		}
	}
}

// sweep processes images already sitting in the inbox at startup.
func (w *Watcher) sweep(ctx context.Context) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		w.logger.Warn("inbox: sweep failed", slog.String("error", err.Error()))
		return
	}
	for _, e := range entries {
		if e.IsDir() || !isImage(e.Name()) {
			continue
		}
		w.process(ctx, filepath.Join(w.dir, e.Name()))
	}
}

// process ingests a single image: dedupe by checksum, OCR, save, archive.
func (w *Watcher) process(ctx context.Context, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		w.logger.Warn("inbox: read failed", slog.String("path", path), slog.String("error", err.Error()))
		return
	}

	sum := sha256.Sum256(data)
	cs := hex.EncodeToString(sum[:])
	if _, dup := w.seen[cs]; dup {
		w.logger.Debug("inbox: duplicate image skipped", slog.String("path", path))
		w.archive(path)
		return
	}

	text, err := w.ocr.Text(ctx, path)
	if err != nil {
		w.logger.Warn("inbox: ocr failed", slog.String("path", path), slog.String("error", err.Error()))
		return
	}

	title, body := SplitTitle(text)
	note := models.New(title, body, nil)
	note.AddTag(scanTag)

	if err := w.notes.Save(ctx, note); err != nil {
		w.logger.Warn("inbox: save failed", slog.String("path", path), slog.String("error", err.Error()))
		return
	}

	w.seen[cs] = struct{}{}
	w.archive(path)
	w.logger.Info("inbox: note created",
		slog.String("id", note.ID),
		slog.String("title", note.Title),
		slog.String("image", filepath.Base(path)))
}

// archive moves a handled image into processed/, leaving it in place if
// the move fails.
func (w *Watcher) archive(path string) {
	dest := filepath.Join(w.dir, processedDir, filepath.Base(path))
	if err := os.Rename(path, dest); err != nil {
		w.logger.Warn("inbox: archive failed", slog.String("path", path), slog.String("error", err.Error()))
	}
}

// SplitTitle derives a note title from the first non-empty line of the
// recognized text; the rest becomes the body. Empty text yields an empty
// title (normalized to "Untitled" on save).
func SplitTitle(text string) (title, body string) {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		title = trimmed
		body = strings.TrimSpace(strings.Join(lines[i+1:], "\n"))
		return title, body
	}
	return "", ""
}

func isImage(name string) bool {
	return imageExtensions[strings.ToLower(filepath.Ext(name))]
}
