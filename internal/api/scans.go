package api

import (
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

const maxScanBytes = 50 << 20 // 50 MB

var scanExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true,
	".webp": true, ".tif": true, ".tiff": true, ".bmp": true,
}

// Scan handles POST /scans (multipart/form-data, field "image"): runs OCR
// on the uploaded image and returns the cleaned text as a draft. Nothing
// is persisted; saving the draft is a separate POST /notes.
func (h *Handler) Scan(w http.ResponseWriter, r *http.Request) {
	if h.ocr == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorBody("ocr is not configured"))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxScanBytes)
	if err := r.ParseMultipartForm(maxScanBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("file too large or invalid multipart"))
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("missing 'image' field in multipart form"))
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !scanExtensions[ext] {
		writeJSON(w, http.StatusBadRequest, errorBody("unsupported image type"))
		return
	}

	// The OCR engine works on files, so spool the upload to a temp path.
	tmp, err := os.CreateTemp("", "snapnote-scan-*"+ext)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorBody("failed to buffer upload"))
		return
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := io.Copy(tmp, file); err != nil {
		tmp.Close()
		writeJSON(w, http.StatusInternalServerError, errorBody("failed to buffer upload"))
		return
	}
	if err := tmp.Close(); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorBody("failed to buffer upload"))
		return
	}

	text, err := h.ocr.Text(r.Context(), tmpName)
	if err != nil {
		writeJSON(w, http.StatusBadGateway, errorBody("text recognition failed"))
		return
	}

	writeJSON(w, http.StatusOK, ScanResponse{Text: text})
}
