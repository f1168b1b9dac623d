package journals

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/shared"
	"github.com/odyssey-erp/odyssey-ledger/internal/platform/httpx"
)

type Handler struct {
	service *Service
	logger  *slog.Logger
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	orgID, err := httpx.PathInt64(r, "orgID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	filter, err := parseFilter(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	filter.OrgID = orgID
	entries, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.fail(w, "list journals", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"journals": entries})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	orgID, err := httpx.PathInt64(r, "orgID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	actorID, err := httpx.ActorID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var in DraftInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	in.OrgID = orgID
	in.ActorID = actorID
	entry, err := h.service.CreateDraft(r.Context(), in)
	if err != nil {
		h.fail(w, "create journal draft", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, entry)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.load(w, r)
	if !ok {
		return
	}
	httpx.JSON(w, http.StatusOK, entry)
}

func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.load(w, r)
	if !ok {
		return
	}
	history, err := h.service.History(r.Context(), entry.ID)
	if err != nil {
		h.fail(w, "journal history", err)
		return
	}
	httpx.JSON(w, http.StatusOK, history)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.load(w, r)
	if !ok {
		return
	}
	actorID, err := httpx.ActorID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var in UpdateDraftInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	in.JournalID = entry.ID
	in.ActorID = actorID
	updated, err := h.service.UpdateDraft(r.Context(), in)
	if err != nil {
		h.fail(w, "update journal draft", err)
		return
	}
	httpx.JSON(w, http.StatusOK, updated)
}

func (h *Handler) Post(w http.ResponseWriter, r *http.Request) {
	entry, actorID, ok := h.loadWithActor(w, r)
	if !ok {
		return
	}
	posted, err := h.service.Post(r.Context(), PostInput{JournalID: entry.ID, ActorID: actorID})
	if err != nil {
		h.fail(w, "post journal", err)
		return
	}
	httpx.JSON(w, http.StatusOK, posted)
}

func (h *Handler) Reverse(w http.ResponseWriter, r *http.Request) {
	entry, actorID, ok := h.loadWithActor(w, r)
	if !ok {
		return
	}
	var in ReverseInput
	if r.ContentLength != 0 {
		if err := httpx.DecodeJSON(r, &in); err != nil {
			httpx.RespondError(w, err)
			return
		}
	}
	in.JournalID = entry.ID
	in.ActorID = actorID
	reversal, err := h.service.Reverse(r.Context(), in)
	if err != nil {
		h.fail(w, "reverse journal", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, reversal)
}

func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	entry, actorID, ok := h.loadWithActor(w, r)
	if !ok {
		return
	}
	cancelled, err := h.service.Cancel(r.Context(), CancelInput{JournalID: entry.ID, ActorID: actorID})
	if err != nil {
		h.fail(w, "cancel journal", err)
		return
	}
	httpx.JSON(w, http.StatusOK, cancelled)
}

func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.service.Approve)
}

func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.service.Reject)
}

func (h *Handler) decide(w http.ResponseWriter, r *http.Request, fn func(context.Context, ApprovalInput) (JournalEntry, error)) {
	entry, actorID, ok := h.loadWithActor(w, r)
	if !ok {
		return
	}
	var in ApprovalInput
	if r.ContentLength != 0 {
		if err := httpx.DecodeJSON(r, &in); err != nil {
			httpx.RespondError(w, err)
			return
		}
	}
	in.JournalID = entry.ID
	in.ActorID = actorID
	decided, err := fn(r.Context(), in)
	if err != nil {
		h.fail(w, "journal approval", err)
		return
	}
	httpx.JSON(w, http.StatusOK, decided)
}

// load fetches the journal named in the path and hides journals of other
// organisations.
func (h *Handler) load(w http.ResponseWriter, r *http.Request) (JournalEntry, bool) {
	orgID, err := httpx.PathInt64(r, "orgID")
	if err != nil {
		httpx.RespondError(w, err)
		return JournalEntry{}, false
	}
	id, err := httpx.PathInt64(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return JournalEntry{}, false
	}
	entry, err := h.service.Get(r.Context(), id)
	if err == nil && entry.OrgID != orgID {
		err = fmt.Errorf("%w: journal %d", shared.ErrNotFound, id)
	}
	if err != nil {
		h.fail(w, "load journal", err)
		return JournalEntry{}, false
	}
	return entry, true
}

func (h *Handler) loadWithActor(w http.ResponseWriter, r *http.Request) (JournalEntry, int64, bool) {
	actorID, err := httpx.ActorID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return JournalEntry{}, 0, false
	}
	entry, ok := h.load(w, r)
	return entry, actorID, ok
}

func (h *Handler) fail(w http.ResponseWriter, msg string, err error) {
	h.logger.Warn(msg, slog.Any("error", err))
	httpx.RespondError(w, err)
}

func parseFilter(r *http.Request) (ListFilter, error) {
	q := r.URL.Query()
	filter := ListFilter{Status: JournalStatus(q.Get("status"))}
	for name, target := range map[string]**time.Time{"from": &filter.From, "to": &filter.To} {
		raw := q.Get(name)
		if raw == "" {
			continue
		}
		parsed, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			return ListFilter{}, fmt.Errorf("%w: %s must be YYYY-MM-DD", shared.ErrInvalidInput, name)
		}
		*target = &parsed
	}
	for name, target := range map[string]*int{"limit": &filter.Limit, "offset": &filter.Offset} {
		raw := q.Get(name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return ListFilter{}, fmt.Errorf("%w: %s must be an integer", shared.ErrInvalidInput, name)
		}
		*target = n
	}
	return filter, nil
}
