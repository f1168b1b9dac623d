package accounts

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/odyssey-ledger/internal/platform/httpx"
)

// Handler exposes the chart of accounts over JSON.
type Handler struct {
	service *Service
	logger  *slog.Logger
}

// NewHandler constructs the accounts handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes attaches account routes below /orgs/{orgID}/accounts.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Register)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
	r.Post("/{id}/deactivate", h.Deactivate)
	r.Post("/{id}/activate", h.Activate)
	r.Post("/{id}/reparent", h.Reparent)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	orgID, err := httpx.PathInt64(r, "orgID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	accounts, err := h.service.List(r.Context(), orgID)
	if err != nil {
		h.fail(w, "list accounts", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"accounts": accounts})
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	orgID, err := httpx.PathInt64(r, "orgID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var in RegisterInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	in.OrgID = orgID
	account, err := h.service.Register(r.Context(), in)
	if err != nil {
		h.fail(w, "register account", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, account)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	orgID, id, ok := h.ids(w, r)
	if !ok {
		return
	}
	account, err := h.service.GetAccount(r.Context(), orgID, id)
	if err != nil {
		h.fail(w, "get account", err)
		return
	}
	httpx.JSON(w, http.StatusOK, account)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	orgID, id, ok := h.ids(w, r)
	if !ok {
		return
	}
	if _, err := h.service.GetAccount(r.Context(), orgID, id); err != nil {
		h.fail(w, "update account", err)
		return
	}
	var in UpdateInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	in.ID = id
	account, err := h.service.Update(r.Context(), in)
	if err != nil {
		h.fail(w, "update account", err)
		return
	}
	httpx.JSON(w, http.StatusOK, account)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	orgID, id, ok := h.ids(w, r)
	if !ok {
		return
	}
	if _, err := h.service.GetAccount(r.Context(), orgID, id); err != nil {
		h.fail(w, "delete account", err)
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.fail(w, "delete account", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Deactivate(w http.ResponseWriter, r *http.Request) {
	orgID, id, ok := h.ids(w, r)
	if !ok {
		return
	}
	if _, err := h.service.GetAccount(r.Context(), orgID, id); err != nil {
		h.fail(w, "deactivate account", err)
		return
	}
	account, err := h.service.Deactivate(r.Context(), id)
	if err != nil {
		h.fail(w, "deactivate account", err)
		return
	}
	httpx.JSON(w, http.StatusOK, account)
}

func (h *Handler) Activate(w http.ResponseWriter, r *http.Request) {
	orgID, id, ok := h.ids(w, r)
	if !ok {
		return
	}
	if _, err := h.service.GetAccount(r.Context(), orgID, id); err != nil {
		h.fail(w, "activate account", err)
		return
	}
	account, err := h.service.Activate(r.Context(), id)
	if err != nil {
		h.fail(w, "activate account", err)
		return
	}
	httpx.JSON(w, http.StatusOK, account)
}

type reparentRequest struct {
	ParentID *int64 `json:"parent_id"`
}

func (h *Handler) Reparent(w http.ResponseWriter, r *http.Request) {
	orgID, id, ok := h.ids(w, r)
	if !ok {
		return
	}
	if _, err := h.service.GetAccount(r.Context(), orgID, id); err != nil {
		h.fail(w, "reparent account", err)
		return
	}
	var req reparentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	account, err := h.service.Reparent(r.Context(), id, req.ParentID)
	if err != nil {
		h.fail(w, "reparent account", err)
		return
	}
	httpx.JSON(w, http.StatusOK, account)
}

func (h *Handler) ids(w http.ResponseWriter, r *http.Request) (int64, int64, bool) {
	orgID, err := httpx.PathInt64(r, "orgID")
	if err != nil {
		httpx.RespondError(w, err)
		return 0, 0, false
	}
	id, err := httpx.PathInt64(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return 0, 0, false
	}
	return orgID, id, true
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	h.logger.Warn(op, slog.Any("error", err))
	httpx.RespondError(w, err)
}
