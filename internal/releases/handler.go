// ABOUTME: HTTP handler for the releases tab fragment
// ABOUTME: Lists, creates and transitions releases; callers add auth and CSRF

package releases

import (
	"errors"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/2389/labeldesk/internal/store"
)

// Handler serves the releases fragment endpoints.
type Handler struct {
	svc    *Service
	tmpl   *template.Template
	logger *slog.Logger
}

// NewHandler creates a Handler for svc.
func NewHandler(svc *Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		svc:    svc,
		tmpl:   template.Must(template.ParseFS(templateFS, "templates/*.html")),
		logger: logger.With("component", "releases"),
	}
}

// Middleware wraps a route, typically with admin auth and CSRF checks.
type Middleware func(http.Handler) http.Handler

// RegisterRoutes mounts the fragment routes on mux, each wrapped with wrap.
func (h *Handler) RegisterRoutes(mux *http.ServeMux, wrap Middleware) {
	if wrap == nil {
		wrap = func(next http.Handler) http.Handler { return next }
	}
	mux.Handle("GET /admin/releases", wrap(http.HandlerFunc(h.handleList)))
	mux.Handle("POST /admin/releases", wrap(http.HandlerFunc(h.handleCreate)))
	mux.Handle("POST /admin/releases/{id}/status", wrap(http.HandlerFunc(h.handleSetStatus)))
}

type releaseRow struct {
	Release *store.Release
	Notes   template.HTML
	Next    []store.ReleaseStatus
}

type createForm struct {
	Title       string
	Artist      string
	UPC         string
	ReleaseDate string
	Notes       string
	Errors      map[string]string
}

type listData struct {
	Releases []releaseRow
	Filter   store.ReleaseStatus
	Statuses []store.ReleaseStatus
	Form     createForm
	Error    string
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	filter := store.ReleaseStatus(r.URL.Query().Get("status"))
	data := listData{Filter: filter}
	if filter != "" && !filter.Valid() {
		data.Filter = ""
		data.Error = "Unknown status filter."
		h.renderList(w, r, http.StatusBadRequest, data)
		return
	}
	h.renderList(w, r, http.StatusOK, data)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	in := CreateInput{
		Title:       r.FormValue("title"),
		Artist:      r.FormValue("artist"),
		UPC:         r.FormValue("upc"),
		ReleaseDate: r.FormValue("release_date"),
		Notes:       r.FormValue("notes"),
	}

	_, err := h.svc.Create(r.Context(), in)
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			data := listData{Form: createForm{
				Title:       in.Title,
				Artist:      in.Artist,
				UPC:         in.UPC,
				ReleaseDate: in.ReleaseDate,
				Notes:       in.Notes,
				Errors:      verr.Fields,
			}}
			h.renderList(w, r, http.StatusUnprocessableEntity, data)
			return
		}
		h.logger.Error("failed to create release", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.renderList(w, r, http.StatusCreated, listData{})
}

func (h *Handler) handleSetStatus(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	id := r.PathValue("id")
	to := store.ReleaseStatus(r.FormValue("status"))

	_, err := h.svc.SetStatus(r.Context(), id, to)
	switch {
	case err == nil:
		h.renderList(w, r, http.StatusOK, listData{})
	case errors.Is(err, store.ErrReleaseNotFound):
		http.Error(w, "Release not found", http.StatusNotFound)
	case errors.Is(err, ErrUnknownStatus):
		h.renderList(w, r, http.StatusBadRequest, listData{Error: "Unknown status."})
	case errors.Is(err, ErrInvalidTransition):
		h.renderList(w, r, http.StatusConflict, listData{Error: "That status change is not allowed."})
	case errors.Is(err, store.ErrReleaseConflict):
		h.renderList(w, r, http.StatusConflict, listData{Error: "The release changed while you were editing. Try again."})
	default:
		h.logger.Error("failed to set release status", "release_id", id, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// renderList loads releases for data.Filter and writes the list fragment.
func (h *Handler) renderList(w http.ResponseWriter, r *http.Request, status int, data listData) {
	releases, err := h.svc.List(r.Context(), data.Filter)
	if err != nil {
		h.logger.Error("failed to list releases", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	data.Statuses = store.ValidReleaseStatuses
	data.Releases = make([]releaseRow, 0, len(releases))
	for _, rel := range releases {
		data.Releases = append(data.Releases, releaseRow{
			Release: rel,
			Notes:   h.svc.RenderNotes(rel.Notes),
			Next:    NextStatuses(rel.Status),
		})
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := h.tmpl.ExecuteTemplate(w, "releases", data); err != nil {
		h.logger.Error("failed to render releases", "error", err)
	}
}
