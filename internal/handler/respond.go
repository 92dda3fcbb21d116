package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/a-h/templ"

	"github.com/leadflow/leadflow/internal/service"
	"github.com/leadflow/leadflow/internal/ui"
	"github.com/leadflow/leadflow/internal/ui/components/toast"
	"github.com/leadflow/leadflow/internal/ui/layouts"
	"github.com/leadflow/leadflow/internal/ui/pages"
)

// changedTrigger closes the open dialog and makes every view on the page re-fetch.
const changedTrigger = "closeDialog, leadflow:changed"

func toastSuccess(w http.ResponseWriter, r *http.Request, title string) {
	ui.RenderOOB(w, r, toast.Success(title), ui.ToastTarget)
}

func toastError(w http.ResponseWriter, r *http.Request, title, description string) {
	ui.RenderOOB(w, r, toast.Error(title, description), ui.ToastTarget)
}

// changed answers a successful mutation: the page closes its dialog and re-fetches.
func changed(w http.ResponseWriter, r *http.Request, title string) {
	w.Header().Set("HX-Trigger", changedTrigger)
	toastSuccess(w, r, title)
}

// renderPage answers the content area's own re-fetch with the content alone.
func renderPage(w http.ResponseWriter, r *http.Request, page, content templ.Component) {
	if ui.IsHTMX(r) && r.Header.Get("HX-Target") == layouts.ContentID {
		ui.Render(w, r, content)
		return
	}
	ui.Render(w, r, page)
}

func redirect(w http.ResponseWriter, r *http.Request, path string) {
	if ui.IsHTMX(r) {
		w.Header().Set("HX-Redirect", path)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, path, http.StatusSeeOther)
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	return id, err == nil && id > 0
}

// userMessage is the text shown for err. Validation errors carry their own
// message; store failures are reduced to their category.
func userMessage(err error) string {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return service.ErrNotFound.Error()
	case errors.Is(err, service.ErrUnavailable):
		return service.ErrUnavailable.Error()
	case errors.Is(err, service.ErrUnauthenticated):
		return service.ErrUnauthenticated.Error()
	default:
		return err.Error()
	}
}

// logFailure logs store failures as errors and everything else (validation,
// not found) as warnings.
func logFailure(r *http.Request, msg string, err error, attrs ...any) {
	args := append([]any{"error", err}, attrs...)
	if errors.Is(err, service.ErrUnavailable) {
		slog.ErrorContext(r.Context(), msg, args...)
		return
	}
	slog.WarnContext(r.Context(), msg, args...)
}

func notFound(w http.ResponseWriter, r *http.Request) {
	if ui.IsHTMX(r) {
		w.WriteHeader(http.StatusOK)
		toastError(w, r, "Erro", service.ErrNotFound.Error())
		return
	}
	w.WriteHeader(http.StatusNotFound)
	ui.Render(w, r, pages.NotFound())
}

// refreshed answers a mutation made inside the lead detail: views re-fetch
// but an open dialog stays open.
func refreshed(w http.ResponseWriter, r *http.Request, title string) {
	w.Header().Set("HX-Trigger", "leadflow:changed")
	toastSuccess(w, r, title)
}
