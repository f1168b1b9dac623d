package periods

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/shared"
	"github.com/odyssey-erp/odyssey-ledger/internal/platform/httpx"
)

// Handler exposes the fiscal calendar over JSON.
type Handler struct {
	service *Service
	logger  *slog.Logger
}

// NewHandler constructs the calendar handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes attaches calendar routes below /orgs/{orgID}.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/fiscal-years", h.ListFiscalYears)
	r.Post("/fiscal-years", h.CreateFiscalYear)
	r.Post("/fiscal-years/{id}/periods", h.GeneratePeriods)
	r.Post("/fiscal-years/{id}/close", h.CloseFiscalYear)
	r.Get("/periods", h.ListPeriods)
	r.Post("/periods/{id}/close", h.transition(h.service.ClosePeriod, "close period"))
	r.Post("/periods/{id}/lock", h.transition(h.service.LockPeriod, "lock period"))
	r.Post("/periods/{id}/reopen", h.transition(h.service.ReopenPeriod, "reopen period"))
}

func (h *Handler) ListFiscalYears(w http.ResponseWriter, r *http.Request) {
	orgID, err := httpx.PathInt64(r, "orgID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	years, err := h.service.ListFiscalYears(r.Context(), orgID)
	if err != nil {
		h.fail(w, "list fiscal years", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"fiscal_years": years})
}

func (h *Handler) CreateFiscalYear(w http.ResponseWriter, r *http.Request) {
	orgID, err := httpx.PathInt64(r, "orgID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var in CreateFiscalYearInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	in.OrgID = orgID
	year, err := h.service.CreateFiscalYear(r.Context(), in)
	if err != nil {
		h.fail(w, "create fiscal year", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, year)
}

type generateRequest struct {
	Count int `json:"count"`
}

func (h *Handler) GeneratePeriods(w http.ResponseWriter, r *http.Request) {
	id, ok := h.yearID(w, r)
	if !ok {
		return
	}
	var req generateRequest
	if r.ContentLength > 0 {
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.RespondError(w, err)
			return
		}
	}
	periods, err := h.service.GeneratePeriods(r.Context(), id, req.Count)
	if err != nil {
		h.fail(w, "generate periods", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{"periods": periods})
}

func (h *Handler) CloseFiscalYear(w http.ResponseWriter, r *http.Request) {
	id, ok := h.yearID(w, r)
	if !ok {
		return
	}
	actorID, err := httpx.ActorID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	year, err := h.service.CloseFiscalYear(r.Context(), id, actorID)
	if err != nil {
		h.fail(w, "close fiscal year", err)
		return
	}
	httpx.JSON(w, http.StatusOK, year)
}

func (h *Handler) ListPeriods(w http.ResponseWriter, r *http.Request) {
	orgID, err := httpx.PathInt64(r, "orgID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	periods, err := h.service.ListPeriods(r.Context(), orgID)
	if err != nil {
		h.fail(w, "list periods", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"periods": periods})
}

type transitionFunc func(context.Context, TransitionInput) (Period, error)

func (h *Handler) transition(fn transitionFunc, op string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orgID, err := httpx.PathInt64(r, "orgID")
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		id, err := httpx.PathInt64(r, "id")
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		actorID, err := httpx.ActorID(r)
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		current, err := h.service.GetPeriod(r.Context(), id)
		if err == nil && current.OrgID != orgID {
			err = fmt.Errorf("%w: period %d", shared.ErrNotFound, id)
		}
		if err != nil {
			h.fail(w, op, err)
			return
		}
		period, err := fn(r.Context(), TransitionInput{PeriodID: id, ActorID: actorID})
		if err != nil {
			h.fail(w, op, err)
			return
		}
		httpx.JSON(w, http.StatusOK, period)
	}
}

// yearID resolves the {id} fiscal year and checks it belongs to {orgID}.
func (h *Handler) yearID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	orgID, err := httpx.PathInt64(r, "orgID")
	if err != nil {
		httpx.RespondError(w, err)
		return 0, false
	}
	id, err := httpx.PathInt64(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return 0, false
	}
	year, err := h.service.GetFiscalYear(r.Context(), id)
	if err == nil && year.OrgID != orgID {
		err = fmt.Errorf("%w: fiscal year %d", shared.ErrNotFound, id)
	}
	if err != nil {
		h.fail(w, "resolve fiscal year", err)
		return 0, false
	}
	return id, true
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	h.logger.Warn(op, slog.Any("error", err))
	httpx.RespondError(w, err)
}
