// Package handler contains the HTTP handlers of the editor: the rendered
// page and the JSON API behind it.
//
// Handlers only translate between HTTP and the editor service. They parse
// the request, run one service operation and write its Result; no bin is
// ever modified here.
package handler

import (
	"embed"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/sakif/sourcebin/internal/model"
	"github.com/sakif/sourcebin/internal/service"
	"github.com/sakif/sourcebin/internal/share"
)

//go:embed templates/*.html
var templateFS embed.FS

// PageData is what the editor template renders.
type PageData struct {
	Status       string
	Query        string
	View         service.View
	File         model.File
	Visibilities []model.Visibility
	Expirations  []model.Expiration
}

// PageHandler serves the editor page. Templates are parsed once at startup.
type PageHandler struct {
	editor    *service.EditorService
	templates *template.Template
	logger    *slog.Logger
}

// NewPageHandler parses the embedded templates.
func NewPageHandler(editor *service.EditorService, logger *slog.Logger) (*PageHandler, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &PageHandler{
		editor:    editor,
		templates: tmpl,
		logger:    logger,
	}, nil
}

// HandleEditor renders the editor.
//
// HTTP: GET /?bin=<id>&q=<search>&status=<message>
//
// A ?bin= token opens the shared bin when it exists in the store. ?status=
// carries the message of an operation the page just ran through the API.
func (h *PageHandler) HandleEditor(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	token, _ := share.FromQuery(query)
	res, err := h.editor.Open(r.Context(), token)
	if err != nil {
		h.logger.Info("shared bin not opened",
			slog.String("bin", token),
			slog.String("error", err.Error()),
		)
	}

	status := res.Status
	if query.Has("status") {
		status = query.Get("status")
	}
	view := h.editor.View(query.Get("q"))

	data := PageData{
		Status:       status,
		Query:        query.Get("q"),
		View:         view,
		File:         view.ActiveFileData(),
		Visibilities: model.Visibilities(),
		Expirations:  model.Expirations(),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.templates.ExecuteTemplate(w, "editor", data); err != nil {
		h.logger.Error("failed to render template",
			slog.String("error", err.Error()),
		)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// HandleHealth reports liveness.
//
// HTTP: GET /health
func HandleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
