package handlers

import (
	"context"
	"net/http"

	"github.com/iago/civic-issues-back/internal/domain"
	"github.com/iago/civic-issues-back/internal/http/middleware"
)

// analyticsView runs one service call for the authenticated principal and the
// parsed period, then renders the result or the mapped error.
func (api *API) analyticsView(
	w http.ResponseWriter,
	r *http.Request,
	view func(ctx context.Context, principal domain.PrincipalRecord, periodDays int) (any, error),
) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		api.writeServiceError(w, r, domain.ErrUnauthenticated)
		return
	}
	periodDays, err := api.analytics.ParsePeriod(r.URL.Query().Get("period"))
	if err != nil {
		api.writeServiceError(w, r, err)
		return
	}
	result, err := view(r.Context(), principal, periodDays)
	if err != nil {
		api.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (api *API) Overview(w http.ResponseWriter, r *http.Request) {
	api.analyticsView(w, r, func(ctx context.Context, principal domain.PrincipalRecord, periodDays int) (any, error) {
		return api.analytics.Overview(ctx, principal, periodDays)
	})
}

func (api *API) Departments(w http.ResponseWriter, r *http.Request) {
	api.analyticsView(w, r, func(ctx context.Context, principal domain.PrincipalRecord, periodDays int) (any, error) {
		return api.analytics.Departments(ctx, principal, periodDays)
	})
}

func (api *API) MandalAreas(w http.ResponseWriter, r *http.Request) {
	api.analyticsView(w, r, func(ctx context.Context, principal domain.PrincipalRecord, periodDays int) (any, error) {
		return api.analytics.MandalAreas(ctx, principal, periodDays)
	})
}

func (api *API) Trends(w http.ResponseWriter, r *http.Request) {
	groupBy := r.URL.Query().Get("groupBy")
	api.analyticsView(w, r, func(ctx context.Context, principal domain.PrincipalRecord, periodDays int) (any, error) {
		return api.analytics.Trends(ctx, principal, periodDays, groupBy)
	})
}

func (api *API) Performance(w http.ResponseWriter, r *http.Request) {
	api.analyticsView(w, r, func(ctx context.Context, principal domain.PrincipalRecord, periodDays int) (any, error) {
		return api.analytics.Performance(ctx, principal, periodDays)
	})
}

func (api *API) Dashboard(w http.ResponseWriter, r *http.Request) {
	api.analyticsView(w, r, func(ctx context.Context, principal domain.PrincipalRecord, periodDays int) (any, error) {
		return api.analytics.Dashboard(ctx, principal, periodDays)
	})
}
