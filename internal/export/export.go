// Package export renders notes to shareable PDF and TXT files and hands
// them to the system opener.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/snapnote/snapnote/internal/models"
)

const maxFilenameBase = 60

var unsafeFilenameRe = regexp.MustCompile(`[/\\?%*:|"<>]`)

// Exporter writes note exports into a fixed directory.
type Exporter struct {
	dir string
}

// New creates an Exporter rooted at dir, creating it if needed.
func New(dir string) (*Exporter, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("export: resolve dir: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("export: create dir: %w", err)
	}
	return &Exporter{dir: abs}, nil
}

// Dir returns the absolute export directory.
func (e *Exporter) Dir() string {
	return e.dir
}

// AsTXT writes the note as a plain-text file and returns its path.
func (e *Exporter) AsTXT(n models.Note) (string, error) {
	n.Normalize()
	path := filepath.Join(e.dir, exportFilename(n.Title)+".txt")
	content := n.Title + "\n\n" + n.Body + "\n"

	if err := writeAtomic(path, []byte(content)); err != nil {
		return "", fmt.Errorf("export: txt: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("export: txt not created: %w", err)
	}
	return path, nil
}

// AsPDF renders the note to a single-column PDF and returns its path.
func (e *Exporter) AsPDF(n models.Note) (string, error) {
	n.Normalize()
	path := filepath.Join(e.dir, exportFilename(n.Title)+".pdf")

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Helvetica", "B", 16)
	pdf.MultiCell(0, 8, tr(n.Title), "", "L", false)

	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(107, 114, 128)
	pdf.CellFormat(0, 6, "Exported from SnapNote", "", 1, "L", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "", 11)
	pdf.SetTextColor(0, 0, 0)
	pdf.MultiCell(0, 6, tr(n.Body), "", "L", false)

	if len(n.Tags) > 0 {
		pdf.Ln(6)
		pdf.SetFont("Helvetica", "I", 9)
		pdf.SetTextColor(107, 114, 128)
		pdf.MultiCell(0, 5, tr("Tags: "+strings.Join(n.Tags, ", ")), "", "L", false)
	}

	if err := pdf.OutputFileAndClose(path); err != nil {
		return "", fmt.Errorf("export: pdf: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("export: pdf not created: %w", err)
	}
	return path, nil
}

// exportFilename derives a filesystem-safe base name from the title, with
// a timestamp suffix to keep repeated exports distinct.
func exportFilename(title string) string {
	base := strings.TrimSpace(title)
	if base == "" {
		base = "SnapNote"
	}
	base = unsafeFilenameRe.ReplaceAllString(base, "-")
	base = strings.Join(strings.Fields(base), "_")
	// Truncate on a rune boundary so multibyte titles stay valid UTF-8.
	if r := []rune(base); len(r) > maxFilenameBase {
		base = string(r[:maxFilenameBase])
	}
	return fmt.Sprintf("%s_%d", base, time.Now().UnixMilli())
}

// writeAtomic writes content via tmp file, fsync, rename.
func writeAtomic(path string, content []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".snapnote-tmp-*")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		return fmt.Errorf("write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	success = true
	return nil
}
