package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/snapnote/snapnote/internal/apperr"
	"github.com/snapnote/snapnote/internal/collection"
	"github.com/snapnote/snapnote/internal/models"
	"github.com/snapnote/snapnote/internal/ocr"
	"github.com/snapnote/snapnote/internal/testutil"
)

// fakeSharer records share calls; its next error is configurable.
type fakeSharer struct {
	calls int
	err   error
}

func (f *fakeSharer) Share(context.Context, string, string) error {
	f.calls++
	return f.err
}

type stubRecognizer struct {
	text string
	err  error
}

func (s stubRecognizer) Recognize(context.Context, string) (string, error) {
	return s.text, s.err
}

type testDeps struct {
	notes  *collection.Collection
	sharer *fakeSharer
	router http.Handler
}

// testEnv sets up a temp SQLite store, collection, exporter, and router.
// An empty authToken means auth is disabled.
func testEnv(t *testing.T, authToken string) testDeps {
	t.Helper()

	st := testutil.TestStore(t)
	notes := collection.New(st, nil)
	if err := notes.LoadAll(context.Background()); err != nil {
		t.Fatal(err)
	}

	sharer := &fakeSharer{}
	h := NewHandler(notes, testutil.TestExporter(t), sharer, ocr.NewService(stubRecognizer{text: "Scanned Title\nscanned body"}))
	router := NewRouter(h, authToken != "", authToken, nil)
	return testDeps{notes: notes, sharer: sharer, router: router}
}

func doJSON(t *testing.T, router http.Handler, method, target string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatal(err)
		}
		body = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, body)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func createNote(t *testing.T, env testDeps, title, body string, tags []string) models.Note {
	t.Helper()
	w := doJSON(t, env.router, http.MethodPost, "/notes", NoteRequest{Title: title, Body: body, Tags: tags})
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", w.Code, w.Body.String())
	}
	var n models.Note
	if err := json.Unmarshal(w.Body.Bytes(), &n); err != nil {
		t.Fatal(err)
	}
	return n
}

func TestCreateAndGetNote(t *testing.T) {
	env := testEnv(t, "")

	created := createNote(t, env, "Groceries", "milk", []string{"home", "HOME", "list"})
	if created.ID == "" {
		t.Fatal("created note has no id")
	}
	if len(created.Tags) != 2 {
		t.Errorf("tags = %v, want deduplicated [home list]", created.Tags)
	}

	w := doJSON(t, env.router, http.MethodGet, "/notes/"+created.ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d", w.Code)
	}
	var got models.Note
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.Title != "Groceries" || got.Body != "milk" {
		t.Errorf("got %+v", got)
	}
}

func TestCreateNoteEmptyTitleDefaults(t *testing.T) {
	env := testEnv(t, "")

	n := createNote(t, env, "   ", "body", nil)
	if n.Title != models.DefaultTitle {
		t.Errorf("title = %q, want %q", n.Title, models.DefaultTitle)
	}
}

func TestCreateNoteInvalidJSON(t *testing.T) {
	env := testEnv(t, "")

	req := httptest.NewRequest(http.MethodPost, "/notes", strings.NewReader("{broken"))
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestGetNoteNotFound(t *testing.T) {
	env := testEnv(t, "")

	w := doJSON(t, env.router, http.MethodGet, "/notes/ghost", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestListNotesFilterAndQuery(t *testing.T) {
	env := testEnv(t, "")

	createNote(t, env, "Plain", "short", nil)
	createNote(t, env, "Work", "meeting notes", []string{"work"})
	createNote(t, env, "Long", strings.Repeat("x", 700), nil)

	var list NoteListResponse

	w := doJSON(t, env.router, http.MethodGet, "/notes", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d", w.Code)
	}
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatal(err)
	}
	if list.Total != 3 {
		t.Errorf("total = %d, want 3", list.Total)
	}

	w = doJSON(t, env.router, http.MethodGet, "/notes?filter=tagged", nil)
	_ = json.Unmarshal(w.Body.Bytes(), &list)
	if list.Total != 1 || list.Notes[0].Title != "Work" {
		t.Errorf("tagged = %+v", list)
	}

	w = doJSON(t, env.router, http.MethodGet, "/notes?filter=long", nil)
	_ = json.Unmarshal(w.Body.Bytes(), &list)
	if list.Total != 1 || list.Notes[0].Title != "Long" {
		t.Errorf("long = %+v", list)
	}

	w = doJSON(t, env.router, http.MethodGet, "/notes?q=meeting", nil)
	_ = json.Unmarshal(w.Body.Bytes(), &list)
	if list.Total != 1 || list.Notes[0].Title != "Work" {
		t.Errorf("query = %+v", list)
	}
}

func TestListNotesUnknownFilter(t *testing.T) {
	env := testEnv(t, "")

	w := doJSON(t, env.router, http.MethodGet, "/notes?filter=starred", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestCounts(t *testing.T) {
	env := testEnv(t, "")

	createNote(t, env, "Plain", "short", nil)
	createNote(t, env, "Work", "meeting", []string{"work"})

	w := doJSON(t, env.router, http.MethodGet, "/notes/counts", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var counts CountsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &counts); err != nil {
		t.Fatal(err)
	}
	if counts.All != 2 || counts.Tagged != 1 || counts.Recent != 2 {
		t.Errorf("counts = %+v", counts)
	}
}

func TestUpdateNotePreservesCreatedAt(t *testing.T) {
	env := testEnv(t, "")

	created := createNote(t, env, "v1", "old", nil)

	w := doJSON(t, env.router, http.MethodPut, "/notes/"+created.ID,
		NoteRequest{Title: "v2", Body: "new", Tags: []string{"edited"}})
	if w.Code != http.StatusOK {
		t.Fatalf("update status = %d, body = %s", w.Code, w.Body.String())
	}
	var updated models.Note
	if err := json.Unmarshal(w.Body.Bytes(), &updated); err != nil {
		t.Fatal(err)
	}
	if updated.Title != "v2" || updated.Body != "new" {
		t.Errorf("updated = %+v", updated)
	}
	if updated.CreatedAt != created.CreatedAt {
		t.Errorf("createdAt = %d, want original %d", updated.CreatedAt, created.CreatedAt)
	}
	if updated.UpdatedAt < created.UpdatedAt {
		t.Errorf("updatedAt went backwards: %d < %d", updated.UpdatedAt, created.UpdatedAt)
	}
}

func TestUpdateNoteNotFound(t *testing.T) {
	env := testEnv(t, "")

	w := doJSON(t, env.router, http.MethodPut, "/notes/ghost", NoteRequest{Title: "x"})
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestDeleteNote(t *testing.T) {
	env := testEnv(t, "")

	created := createNote(t, env, "doomed", "", nil)

	w := doJSON(t, env.router, http.MethodDelete, "/notes/"+created.ID, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", w.Code)
	}

	w = doJSON(t, env.router, http.MethodGet, "/notes/"+created.ID, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("get after delete = %d, want 404", w.Code)
	}

	// Deleting again is still 204.
	w = doJSON(t, env.router, http.MethodDelete, "/notes/"+created.ID, nil)
	if w.Code != http.StatusNoContent {
		t.Errorf("second delete = %d, want 204", w.Code)
	}
}

func TestExportNoteTXT(t *testing.T) {
	env := testEnv(t, "")

	created := createNote(t, env, "Receipt", "total 12.50", nil)

	w := doJSON(t, env.router, http.MethodPost, "/notes/"+created.ID+"/export",
		ExportRequest{Format: "txt"})
	if w.Code != http.StatusOK {
		t.Fatalf("export status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp ExportResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Shared {
		t.Error("shared = true without share request")
	}
	content, err := os.ReadFile(resp.Path)
	if err != nil {
		t.Fatalf("exported file missing: %v", err)
	}
	if !strings.Contains(string(content), "total 12.50") {
		t.Errorf("content = %q", content)
	}
	if env.sharer.calls != 0 {
		t.Errorf("sharer called %d times, want 0", env.sharer.calls)
	}
}

func TestExportNoteWithShare(t *testing.T) {
	env := testEnv(t, "")
	created := createNote(t, env, "Receipt", "body", nil)

	w := doJSON(t, env.router, http.MethodPost, "/notes/"+created.ID+"/export",
		ExportRequest{Format: "txt", Share: true})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp ExportResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if !resp.Shared {
		t.Error("shared = false, want true")
	}
	if env.sharer.calls != 1 {
		t.Errorf("sharer calls = %d, want 1", env.sharer.calls)
	}
}

func TestExportNoteShareCanceledIsSilent(t *testing.T) {
	env := testEnv(t, "")
	env.sharer.err = apperr.ErrShareCanceled
	created := createNote(t, env, "Receipt", "body", nil)

	w := doJSON(t, env.router, http.MethodPost, "/notes/"+created.ID+"/export",
		ExportRequest{Format: "pdf", Share: true})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 despite cancellation", w.Code)
	}
	var resp ExportResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Shared {
		t.Error("shared = true after cancellation")
	}
}

func TestExportNoteShareFailure(t *testing.T) {
	env := testEnv(t, "")
	env.sharer.err = errors.New("no share target")
	created := createNote(t, env, "Receipt", "body", nil)

	w := doJSON(t, env.router, http.MethodPost, "/notes/"+created.ID+"/export",
		ExportRequest{Format: "txt", Share: true})
	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
}

func TestExportNoteBadFormat(t *testing.T) {
	env := testEnv(t, "")
	created := createNote(t, env, "Receipt", "body", nil)

	w := doJSON(t, env.router, http.MethodPost, "/notes/"+created.ID+"/export",
		ExportRequest{Format: "docx"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestScan(t *testing.T) {
	env := testEnv(t, "")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("image", "page.png")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := part.Write([]byte("fake image bytes")); err != nil {
		t.Fatal(err)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/scans", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("scan status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp ScanResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Text != "Scanned Title\nscanned body" {
		t.Errorf("text = %q", resp.Text)
	}
}

func TestScanRejectsNonImage(t *testing.T) {
	env := testEnv(t, "")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, _ := mw.CreateFormFile("image", "notes.txt")
	part.Write([]byte("plain text"))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/scans", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestAuthTokenMode(t *testing.T) {
	env := testEnv(t, "secret")

	// Missing token.
	w := doJSON(t, env.router, http.MethodGet, "/notes", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("no token status = %d, want 401", w.Code)
	}

	// Wrong token.
	req := httptest.NewRequest(http.MethodGet, "/notes", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong token status = %d, want 401", w.Code)
	}

	// Correct token.
	req = httptest.NewRequest(http.MethodGet, "/notes", nil)
	req.Header.Set("Authorization", "Bearer secret")
	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("valid token status = %d, want 200", w.Code)
	}
}
