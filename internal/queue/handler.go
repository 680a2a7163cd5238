package queue

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dmitrymomot/clinickit/pkg/httperror"
	"github.com/dmitrymomot/clinickit/pkg/logger"
)

// TicketService is what the HTTP handlers need from Service.
type TicketService interface {
	Issue(ctx context.Context, branchID uuid.UUID) (Ticket, error)
	ListToday(ctx context.Context, branchID uuid.UUID) ([]Ticket, error)
}

var errInvalidBranch = httperror.New(http.StatusBadRequest, "invalid_branch_id", "Branch id must be a UUID")

// Handler exposes tickets over HTTP.
type Handler struct {
	svc TicketService
	log *slog.Logger
}

func NewHandler(svc TicketService, log *slog.Logger) *Handler {
	return &Handler{svc: svc, log: log.With(logger.Component("queue"))}
}

// Routes mounts the ticket endpoints on r. The same routes serve the
// host-resolved API and the token-authenticated mobile API.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/branches/{branchID}/tickets", func(r chi.Router) {
		r.Post("/", h.issue)
		r.Get("/", h.list)
	})
}

func (h *Handler) issue(w http.ResponseWriter, r *http.Request) {
	branchID, ok := h.branchID(w, r)
	if !ok {
		return
	}
	t, err := h.svc.Issue(r.Context(), branchID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	branchID, ok := h.branchID(w, r)
	if !ok {
		return
	}
	tickets, err := h.svc.ListToday(r.Context(), branchID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if tickets == nil {
		tickets = []Ticket{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"tickets": tickets})
}

func (h *Handler) branchID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "branchID"))
	if err != nil {
		httperror.Write(w, r, errInvalidBranch)
		return uuid.Nil, false
	}
	return id, true
}

// fail answers 500, which also makes the request transaction roll back.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	h.log.ErrorContext(r.Context(), "ticket request failed", logger.Error(err))
	httperror.Write(w, r, httperror.ErrInternal)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
