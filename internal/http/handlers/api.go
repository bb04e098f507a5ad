package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/iago/civic-issues-back/internal/domain"
	"github.com/iago/civic-issues-back/internal/http/middleware"
	"github.com/iago/civic-issues-back/internal/service"
)

type API struct {
	analytics *service.AnalyticsService
	logger    *log.Logger
}

func NewAPI(analytics *service.AnalyticsService, logger *log.Logger) *API {
	return &API{analytics: analytics, logger: logger}
}

func writeJSON(w http.ResponseWriter, statusCode int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(value)
}

func writeError(w http.ResponseWriter, r *http.Request, statusCode int, code, message string) {
	middleware.WriteError(w, r, statusCode, code, message)
}

// writeServiceError maps the domain error taxonomy onto HTTP. Only validation
// messages are echoed to the caller.
func (api *API) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var validation *domain.ValidationError
	switch {
	case errors.As(err, &validation):
		writeError(w, r, http.StatusBadRequest, "invalid_request", validation.Error())
	case errors.Is(err, domain.ErrUnauthenticated), errors.Is(err, domain.ErrPrincipalNotFound):
		writeError(w, r, http.StatusUnauthorized, "unauthorized", "authentication required")
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, r, http.StatusForbidden, "forbidden", domain.ErrForbidden.Error())
	case errors.Is(err, domain.ErrSourceUnavailable):
		api.logf("source unavailable request_id=%s err=%v", middleware.GetRequestID(r.Context()), err)
		w.Header().Set("Retry-After", "5")
		writeError(w, r, http.StatusServiceUnavailable, "source_unavailable", "report data is temporarily unavailable")
	default:
		api.logf("internal error request_id=%s err=%v", middleware.GetRequestID(r.Context()), err)
		writeError(w, r, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func (api *API) logf(format string, args ...any) {
	if api.logger != nil {
		api.logger.Printf(format, args...)
	}
}
