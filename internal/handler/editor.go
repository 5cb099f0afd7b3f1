package handler

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/sourcebin/internal/apperror"
	"github.com/sakif/sourcebin/internal/service"
	"github.com/sakif/sourcebin/internal/workspace"
)

// maxBodyBytes caps request bodies; an exported bin is a few KB at most.
const maxBodyBytes = 4 << 20

// StatusHeader carries the status message on responses whose body is a file.
const StatusHeader = "X-Sourcebin-Status"

// EditorHandler exposes the editor operations as a JSON API. It holds no
// state of its own: every request runs one EditorService operation and
// returns its Result.
type EditorHandler struct {
	editor       *service.EditorService
	shareBaseURL string
	logger       *slog.Logger
}

// NewEditorHandler creates an EditorHandler. shareBaseURL is the page URL
// share links point at.
func NewEditorHandler(editor *service.EditorService, shareBaseURL string, logger *slog.Logger) *EditorHandler {
	return &EditorHandler{
		editor:       editor,
		shareBaseURL: shareBaseURL,
		logger:       logger,
	}
}

// Routes mounts the API on r:
//
//	GET    /state?q=              current view, saved list filtered by q
//	PUT    /edits                 persist pending edits
//	POST   /save                  persist pending edits, "Bin saved"
//	POST   /bins                  new bin
//	POST   /bins/duplicate        duplicate current bin
//	POST   /bins/{id}/select      make bin current
//	DELETE /bins/current          delete current bin (needs ?confirm=true)
//	POST   /files                 add file
//	DELETE /files/current         remove active file
//	POST   /files/{index}/select  activate file
//	POST   /export                current bin as a JSON attachment
//	POST   /import                raw exported JSON in the body
//	POST   /download              every file of the current bin, zipped
//	POST   /share                 share link for the current bin
func (h *EditorHandler) Routes(r chi.Router) {
	r.Get("/state", h.HandleState)
	r.Put("/edits", h.HandlePersistEdits)
	r.Post("/save", h.HandleSave)
	r.Post("/bins", h.HandleNewBin)
	r.Post("/bins/duplicate", h.HandleDuplicateBin)
	r.Post("/bins/{id}/select", h.HandleSelectBin)
	r.Delete("/bins/current", h.HandleDeleteBin)
	r.Post("/files", h.HandleAddFile)
	r.Delete("/files/current", h.HandleRemoveFile)
	r.Post("/files/{index}/select", h.HandleSelectFile)
	r.Post("/export", h.HandleExport)
	r.Post("/import", h.HandleImport)
	r.Post("/download", h.HandleDownload)
	r.Post("/share", h.HandleShare)
}

// decodeForm reads the optional pending editor fields. An empty or null body
// means there is nothing to flush.
func decodeForm(r *http.Request) (*workspace.Form, error) {
	var raw json.RawMessage
	err := json.NewDecoder(r.Body).Decode(&raw)
	switch {
	case errors.Is(err, io.EOF):
		return nil, nil
	case err != nil:
		return nil, apperror.ValidationFailed("body", "Invalid JSON body")
	case bytes.Equal(raw, []byte("null")):
		return nil, nil
	}
	var form workspace.Form
	if err := json.Unmarshal(raw, &form); err != nil {
		return nil, apperror.ValidationFailed("body", "Invalid JSON body")
	}
	return &form, nil
}

// withForm decodes the pending form and hands it to op.
func (h *EditorHandler) withForm(w http.ResponseWriter, r *http.Request, op func(*workspace.Form) (service.Result, error)) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	form, err := decodeForm(r)
	if err != nil {
		h.logger.Warn("invalid editor form", slog.String("error", err.Error()))
		writeError(w, err, nil)
		return
	}
	res, err := op(form)
	writeResult(w, res, err)
}

// requireForm is withForm for operations that need the fields.
func (h *EditorHandler) requireForm(w http.ResponseWriter, r *http.Request, op func(workspace.Form) (service.Result, error)) {
	h.withForm(w, r, func(form *workspace.Form) (service.Result, error) {
		if form == nil {
			err := apperror.ValidationFailed("body", "Editor fields are required")
			return service.Result{View: h.editor.View("")}, err
		}
		return op(*form)
	})
}

// HandleState returns the current view.
//
// HTTP: GET /api/state?q=<search>
func (h *EditorHandler) HandleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, service.Result{View: h.editor.View(r.URL.Query().Get("q"))})
}

// HandlePersistEdits stores the editor fields without a status message. The
// page calls it on every keystroke.
//
// HTTP: PUT /api/edits
func (h *EditorHandler) HandlePersistEdits(w http.ResponseWriter, r *http.Request) {
	h.requireForm(w, r, func(form workspace.Form) (service.Result, error) {
		return h.editor.PersistEdits(r.Context(), form)
	})
}

// HTTP: POST /api/save
func (h *EditorHandler) HandleSave(w http.ResponseWriter, r *http.Request) {
	h.requireForm(w, r, func(form workspace.Form) (service.Result, error) {
		return h.editor.Save(r.Context(), form)
	})
}

// HTTP: POST /api/bins
func (h *EditorHandler) HandleNewBin(w http.ResponseWriter, r *http.Request) {
	h.withForm(w, r, func(form *workspace.Form) (service.Result, error) {
		return h.editor.NewBin(r.Context(), form)
	})
}

// HTTP: POST /api/bins/duplicate
func (h *EditorHandler) HandleDuplicateBin(w http.ResponseWriter, r *http.Request) {
	h.withForm(w, r, func(form *workspace.Form) (service.Result, error) {
		return h.editor.DuplicateBin(r.Context(), form)
	})
}

// HTTP: POST /api/bins/{id}/select
func (h *EditorHandler) HandleSelectBin(w http.ResponseWriter, r *http.Request) {
	res, err := h.editor.SelectBin(r.Context(), chi.URLParam(r, "id"))
	writeResult(w, res, err)
}

// HandleDeleteBin deletes the current bin. Without ?confirm=true nothing
// happens and the unchanged view is returned.
//
// HTTP: DELETE /api/bins/current?confirm=true
func (h *EditorHandler) HandleDeleteBin(w http.ResponseWriter, r *http.Request) {
	res, err := h.editor.DeleteBin(r.Context(), queryConfirmer(r))
	writeResult(w, res, err)
}

// HTTP: POST /api/files
func (h *EditorHandler) HandleAddFile(w http.ResponseWriter, r *http.Request) {
	res, err := h.editor.AddFile(r.Context())
	writeResult(w, res, err)
}

// HTTP: DELETE /api/files/current
func (h *EditorHandler) HandleRemoveFile(w http.ResponseWriter, r *http.Request) {
	res, err := h.editor.RemoveFile(r.Context())
	writeResult(w, res, err)
}

// HTTP: POST /api/files/{index}/select
func (h *EditorHandler) HandleSelectFile(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "index")
	index, err := strconv.Atoi(raw)
	if err != nil {
		view := h.editor.View("")
		writeError(w, apperror.ValidationFailed("index", "File index must be a number"), &view)
		return
	}
	res, err := h.editor.SelectFile(r.Context(), index)
	writeResult(w, res, err)
}

// HandleExport flushes pending edits and answers with the current bin as a
// JSON attachment. The status message travels in StatusHeader.
//
// HTTP: POST /api/export
func (h *EditorHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	form, err := decodeForm(r)
	if err != nil {
		writeError(w, err, nil)
		return
	}
	exp, res, err := h.editor.ExportBin(r.Context(), form)
	if err != nil {
		writeResult(w, res, err)
		return
	}
	writeAttachment(w, exp.FileName, exp.ContentType, res.Status, exp.Data)
}

// HandleImport adds the bin described by the raw JSON body.
//
// HTTP: POST /api/import
func (h *EditorHandler) HandleImport(w http.ResponseWriter, r *http.Request) {
	blob, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		view := h.editor.View("")
		writeError(w, apperror.ValidationFailed("body", workspace.MsgImportFailed), &view)
		return
	}
	res, err := h.editor.ImportBin(r.Context(), blob)
	writeResult(w, res, err)
}

// HandleDownload flushes pending edits and answers with a zip holding every
// file of the current bin.
//
// HTTP: POST /api/download
func (h *EditorHandler) HandleDownload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	form, err := decodeForm(r)
	if err != nil {
		writeError(w, err, nil)
		return
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	res, err := h.editor.DownloadFiles(r.Context(), form, newZipDownloader(zw, time.Now()))
	if err != nil {
		writeResult(w, res, err)
		return
	}
	if err := zw.Close(); err != nil {
		h.logger.Error("failed to finish archive", slog.String("error", err.Error()))
		writeError(w, fmt.Errorf("closing archive: %w", err), &res.View)
		return
	}

	name := strings.TrimSuffix(workspace.ExportFileName(res.View.Bin.Title), ".json") + ".zip"
	writeAttachment(w, name, "application/zip", res.Status, buf.Bytes())
}

// HandleShare flushes pending edits and returns the share link of the
// current bin; the page puts it on the clipboard.
//
// HTTP: POST /api/share
func (h *EditorHandler) HandleShare(w http.ResponseWriter, r *http.Request) {
	h.withForm(w, r, func(form *workspace.Form) (service.Result, error) {
		return h.editor.CopyShareLink(r.Context(), form, h.shareBaseURL, &linkClipboard{})
	})
}

func writeAttachment(w http.ResponseWriter, name, contentType, status string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set(StatusHeader, status)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		slog.Error("failed to write attachment", slog.String("error", err.Error()))
	}
}
