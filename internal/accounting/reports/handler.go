package reports

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/shared"
	"github.com/odyssey-erp/odyssey-ledger/internal/platform/httpx"
)

// Handler serves ledger reports as JSON.
type Handler struct {
	service *Service
	logger  *slog.Logger
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes attaches report routes below /orgs/{orgID}/reports.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/trial-balance", h.TrialBalance)
	r.Get("/trial-balance/grouped", h.GroupedTrialBalance)
	r.Get("/balance-sheet", h.BalanceSheet)
	r.Get("/profit-loss", h.ProfitAndLoss)
	r.Post("/aging", h.Aging)
}

func (h *Handler) TrialBalance(w http.ResponseWriter, r *http.Request) {
	serve(h, w, r, "trial balance", h.service.TrialBalance)
}

func (h *Handler) GroupedTrialBalance(w http.ResponseWriter, r *http.Request) {
	serve(h, w, r, "grouped trial balance", h.service.GroupedTrialBalance)
}

func (h *Handler) BalanceSheet(w http.ResponseWriter, r *http.Request) {
	serve(h, w, r, "balance sheet", h.service.BalanceSheet)
}

func (h *Handler) ProfitAndLoss(w http.ResponseWriter, r *http.Request) {
	serve(h, w, r, "profit and loss", h.service.ProfitAndLoss)
}

type agingRequest struct {
	AsOf  string      `json:"as_of" validate:"required,datetime=2006-01-02"`
	Items []AgingItem `json:"items" validate:"dive"`
}

func (h *Handler) Aging(w http.ResponseWriter, r *http.Request) {
	var req agingRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := shared.ValidateStruct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	asOf, _ := time.Parse(time.DateOnly, req.AsOf)
	httpx.JSON(w, http.StatusOK, BuildAgingBuckets(asOf, req.Items))
}

func serve[T any](h *Handler, w http.ResponseWriter, r *http.Request, name string, build func(context.Context, int64, int64) (T, error)) {
	orgID, err := httpx.PathInt64(r, "orgID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	periodID, err := strconv.ParseInt(r.URL.Query().Get("period_id"), 10, 64)
	if err != nil || periodID <= 0 {
		httpx.RespondError(w, fmt.Errorf("%w: period_id query parameter required", shared.ErrInvalidInput))
		return
	}
	report, err := build(r.Context(), orgID, periodID)
	if err != nil {
		h.logger.Warn("build "+name, slog.Int64("org_id", orgID), slog.Int64("period_id", periodID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}
