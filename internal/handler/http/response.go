package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/DavidAnato/AgriConnect/internal/session"
	apperrors "github.com/DavidAnato/AgriConnect/pkg/errors"
	"github.com/DavidAnato/AgriConnect/pkg/httputil"
	"github.com/DavidAnato/AgriConnect/pkg/validator"
)

// writeError writes err with the navigation the core requested during the
// request, or the redirect implied by the error class.
func writeError(w http.ResponseWriter, r *http.Request, err error, l *slog.Logger) {
	redirect := ""
	if nav := navigationFrom(r.Context()); nav != nil {
		redirect = nav.target()
	}
	if redirect == "" {
		redirect = session.RedirectFor(err)
	}
	httputil.WriteErrorRedirect(w, r, err, redirect, l)
}

// decode reads and validates a JSON request body. Malformed JSON is an
// input error.
func decode(r *http.Request, dst any) error {
	err := validator.DecodeAndValidate(r, dst)
	if err == nil {
		return nil
	}
	var valErr *validator.ValidationError
	if errors.As(err, &valErr) {
		return err
	}
	return apperrors.InvalidInput("invalid request body")
}

func parseIDParam(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	return httputil.ParseID(w, chi.URLParam(r, name))
}
