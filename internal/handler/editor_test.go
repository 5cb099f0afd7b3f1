package handler_test

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/sourcebin/internal/handler"
	"github.com/sakif/sourcebin/internal/repository/memory"
	"github.com/sakif/sourcebin/internal/service"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

// newTestRouter wires the page and API handlers the way the server does, on
// an in-memory store.
func newTestRouter(t *testing.T) (http.Handler, *service.EditorService) {
	t.Helper()
	logger := testLogger()
	store := service.NewBinStore(memory.New(), "", logger)
	editor := service.NewEditorService(context.Background(), store, logger)

	page, err := handler.NewPageHandler(editor, logger)
	require.NoError(t, err)
	api := handler.NewEditorHandler(editor, "http://example.test/", logger)

	r := chi.NewRouter()
	r.Get("/", page.HandleEditor)
	r.Get("/health", handler.HandleHealth)
	r.Route("/api", api.Routes)
	return r, editor
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeResult(t *testing.T, rr *httptest.ResponseRecorder) service.Result {
	t.Helper()
	var res service.Result
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&res))
	return res
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) handler.ErrorResponse {
	t.Helper()
	var res handler.ErrorResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&res))
	return res
}

const formJSON = `{"title":"Foo","visibility":"unlisted","expiration":"1d","fileName":"main.go","language":"go","content":"package main\n"}`

func TestEditorHandler_State(t *testing.T) {
	h, _ := newTestRouter(t)

	rr := do(t, h, http.MethodGet, "/api/state?q=zzz", "")

	require.Equal(t, http.StatusOK, rr.Code)
	res := decodeResult(t, rr)
	assert.Equal(t, "Untitled Bin", res.View.Bin.Title)
	assert.Empty(t, res.View.Saved, "query filters the saved list")
	assert.Len(t, res.View.Languages, 21)
}

func TestEditorHandler_PersistEdits(t *testing.T) {
	h, editor := newTestRouter(t)

	t.Run("valid form", func(t *testing.T) {
		rr := do(t, h, http.MethodPut, "/api/edits", formJSON)

		require.Equal(t, http.StatusOK, rr.Code)
		res := decodeResult(t, rr)
		assert.Empty(t, res.Status)
		assert.Equal(t, "Foo", res.View.Bin.Title)
		assert.Equal(t, "package main\n", editor.Form().Content)
	})

	t.Run("invalid json", func(t *testing.T) {
		rr := do(t, h, http.MethodPut, "/api/edits", `{"title":`)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "validation_error", decodeError(t, rr).Error)
	})

	t.Run("missing body", func(t *testing.T) {
		rr := do(t, h, http.MethodPut, "/api/edits", "")

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestEditorHandler_Save(t *testing.T) {
	h, _ := newTestRouter(t)

	rr := do(t, h, http.MethodPost, "/api/save", formJSON)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Bin saved", decodeResult(t, rr).Status)
}

func TestEditorHandler_NewAndDuplicate(t *testing.T) {
	h, editor := newTestRouter(t)

	rr := do(t, h, http.MethodPost, "/api/bins/duplicate", formJSON)
	require.Equal(t, http.StatusOK, rr.Code)
	res := decodeResult(t, rr)
	assert.Equal(t, "Bin duplicated", res.Status)
	assert.Equal(t, "Foo (copy)", res.View.Bin.Title)

	rr = do(t, h, http.MethodPost, "/api/bins", "")
	require.Equal(t, http.StatusOK, rr.Code)
	res = decodeResult(t, rr)
	assert.Equal(t, "New bin created", res.Status)
	assert.Equal(t, "index.js", res.View.Bin.Files[0].Name)

	assert.Len(t, editor.Snapshot().Bins, 3)
}

func TestEditorHandler_NullBodyKeepsEdits(t *testing.T) {
	h, editor := newTestRouter(t)
	do(t, h, http.MethodPut, "/api/edits", formJSON)
	first := editor.View("").Bin.ID

	rr := do(t, h, http.MethodPost, "/api/bins", "null")
	require.Equal(t, http.StatusOK, rr.Code)

	bins := editor.Snapshot().Bins
	require.Len(t, bins, 2)
	assert.Equal(t, first, bins[1].ID)
	assert.Equal(t, "Foo", bins[1].Title)
	assert.Equal(t, "main.go", bins[1].Files[0].Name)
	assert.Equal(t, "package main\n", bins[1].Files[0].Content)

	rr = do(t, h, http.MethodPut, "/api/edits", "null")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestEditorHandler_SelectBin(t *testing.T) {
	h, editor := newTestRouter(t)
	first := editor.View("").Bin.ID
	do(t, h, http.MethodPost, "/api/bins", "")

	rr := do(t, h, http.MethodPost, "/api/bins/"+first+"/select", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Loaded bin: Untitled Bin", decodeResult(t, rr).Status)

	rr = do(t, h, http.MethodPost, "/api/bins/nope/select", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "not_found", decodeError(t, rr).Error)
}

func TestEditorHandler_DeleteBin(t *testing.T) {
	h, editor := newTestRouter(t)

	t.Run("last bin is refused", func(t *testing.T) {
		rr := do(t, h, http.MethodDelete, "/api/bins/current?confirm=true", "")

		assert.Equal(t, http.StatusConflict, rr.Code)
		e := decodeError(t, rr)
		assert.Equal(t, "refused", e.Error)
		assert.Equal(t, "Cannot delete the only remaining bin", e.Message)
		require.NotNil(t, e.View)
	})

	do(t, h, http.MethodPost, "/api/bins", "")

	t.Run("unconfirmed does nothing", func(t *testing.T) {
		rr := do(t, h, http.MethodDelete, "/api/bins/current", "")

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Empty(t, decodeResult(t, rr).Status)
		assert.Len(t, editor.Snapshot().Bins, 2)
	})

	t.Run("confirmed", func(t *testing.T) {
		rr := do(t, h, http.MethodDelete, "/api/bins/current?confirm=true", "")

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "Bin deleted", decodeResult(t, rr).Status)
		assert.Len(t, editor.Snapshot().Bins, 1)
	})
}

func TestEditorHandler_Files(t *testing.T) {
	h, _ := newTestRouter(t)

	rr := do(t, h, http.MethodDelete, "/api/files/current", "")
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, "At least one file is required", decodeError(t, rr).Message)

	rr = do(t, h, http.MethodPost, "/api/files", "")
	require.Equal(t, http.StatusOK, rr.Code)
	res := decodeResult(t, rr)
	assert.Equal(t, "File added", res.Status)
	assert.Equal(t, 1, res.View.ActiveFile)

	rr = do(t, h, http.MethodPost, "/api/files/0/select", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 0, decodeResult(t, rr).View.ActiveFile)

	rr = do(t, h, http.MethodPost, "/api/files/9/select", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = do(t, h, http.MethodPost, "/api/files/abc/select", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "index", decodeError(t, rr).Field)

	rr = do(t, h, http.MethodDelete, "/api/files/current", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "File removed", decodeResult(t, rr).Status)
}

func TestEditorHandler_ExportImport(t *testing.T) {
	h, editor := newTestRouter(t)

	rr := do(t, h, http.MethodPost, "/api/export", formJSON)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="Foo.json"`, rr.Header().Get("Content-Disposition"))
	assert.Equal(t, "Bin exported as JSON", rr.Header().Get(handler.StatusHeader))
	exported := rr.Body.String()
	assert.Contains(t, exported, `"title": "Foo"`)

	rr = do(t, h, http.MethodPost, "/api/import", exported)
	require.Equal(t, http.StatusOK, rr.Code)
	res := decodeResult(t, rr)
	assert.Equal(t, "JSON imported", res.Status)
	assert.Equal(t, "Foo", res.View.Bin.Title)
	assert.Len(t, editor.Snapshot().Bins, 2)

	rr = do(t, h, http.MethodPost, "/api/import", "not json")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "Failed to import JSON", decodeError(t, rr).Message)
	assert.Len(t, editor.Snapshot().Bins, 2)
}

func TestEditorHandler_Download(t *testing.T) {
	h, _ := newTestRouter(t)
	do(t, h, http.MethodPut, "/api/edits", formJSON)
	do(t, h, http.MethodPost, "/api/files", "")

	rr := do(t, h, http.MethodPost, "/api/download", `{"title":"Foo","fileName":"main.go","language":"go","content":"second"}`)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/zip", rr.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="Foo.zip"`, rr.Header().Get("Content-Disposition"))
	assert.Equal(t, "All files downloaded", rr.Header().Get(handler.StatusHeader))

	zr, err := zip.NewReader(bytes.NewReader(rr.Body.Bytes()), int64(rr.Body.Len()))
	require.NoError(t, err)
	require.Len(t, zr.File, 2)
	assert.Equal(t, "main.go", zr.File[0].Name)
	assert.Equal(t, "main-2.go", zr.File[1].Name, "duplicate names get a suffix")

	f, err := zr.File[1].Open()
	require.NoError(t, err)
	defer f.Close()
	content, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "second", string(content))
}

func TestEditorHandler_Download_EntriesStayInFolder(t *testing.T) {
	h, _ := newTestRouter(t)
	do(t, h, http.MethodPut, "/api/edits", `{"title":"Foo","fileName":"../../evil.txt","language":"plaintext","content":"a"}`)
	do(t, h, http.MethodPost, "/api/files", "")
	do(t, h, http.MethodPost, "/api/files", "")

	rr := do(t, h, http.MethodPost, "/api/download", `{"title":"Foo","fileName":"/etc/abs.txt","language":"plaintext","content":"c"}`)
	require.Equal(t, http.StatusOK, rr.Code)

	zr, err := zip.NewReader(bytes.NewReader(rr.Body.Bytes()), int64(rr.Body.Len()))
	require.NoError(t, err)
	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"evil.txt", "file-2.txt", "abs.txt"}, names)
}

func TestEditorHandler_Share(t *testing.T) {
	h, editor := newTestRouter(t)
	id := editor.View("").Bin.ID

	rr := do(t, h, http.MethodPost, "/api/share", "")

	require.Equal(t, http.StatusOK, rr.Code)
	res := decodeResult(t, rr)
	assert.Equal(t, "Share link copied", res.Status)
	assert.Equal(t, "http://example.test/?bin="+id, res.Link)
}

func TestPageHandler(t *testing.T) {
	h, editor := newTestRouter(t)
	first := editor.View("").Bin.ID
	do(t, h, http.MethodPost, "/api/bins", "")

	t.Run("plain", func(t *testing.T) {
		rr := do(t, h, http.MethodGet, "/", "")

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Header().Get("Content-Type"), "text/html")
		assert.Contains(t, rr.Body.String(), "SourceBin-like editor ready")
		assert.Contains(t, rr.Body.String(), "index.js")
	})

	t.Run("shared bin", func(t *testing.T) {
		rr := do(t, h, http.MethodGet, "/?bin="+first, "")

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, first, editor.View("").Bin.ID)
	})

	t.Run("refresh keeps active file", func(t *testing.T) {
		do(t, h, http.MethodPost, "/api/files", "")
		require.Equal(t, 1, editor.View("").ActiveFile)

		rr := do(t, h, http.MethodGet, "/?bin="+first, "")

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, 1, editor.View("").ActiveFile)
	})

	t.Run("unknown shared bin", func(t *testing.T) {
		rr := do(t, h, http.MethodGet, "/?bin=missing", "")

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), "Shared bin not found locally")
	})

	t.Run("status from previous operation", func(t *testing.T) {
		rr := do(t, h, http.MethodGet, "/?status=Bin+saved", "")

		assert.Contains(t, rr.Body.String(), `<span id="status">Bin saved</span>`)
	})
}

func TestHealth(t *testing.T) {
	h, _ := newTestRouter(t)

	rr := do(t, h, http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
}
