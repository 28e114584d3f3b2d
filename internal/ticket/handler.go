package ticket

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/hanifmaulana/orgops/internal/auth"
	"github.com/hanifmaulana/orgops/internal/transport"
	"github.com/hanifmaulana/orgops/pkg/logger"
	"github.com/go-chi/chi"
)

type ServiceAPI interface {
	Issue(ctx context.Context, issuerID int64, dto IssueTicketDTO) (*Ticket, error)
	Respond(ctx context.Context, actorID, ticketID int64, dto RespondTicketDTO) (*TicketDecisionResponse, error)
	GetByID(ctx context.Context, callerID, ticketID int64) (*Ticket, error)
	ListForUser(ctx context.Context, callerID int64, limit, offset int) ([]*Ticket, error)
	Purge(ctx context.Context, callerID, ticketID int64) error
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(service ServiceAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     service,
	}
}

// IssueTicket handles POST /tickets.
func (h *Handler) IssueTicket(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.UserFromContext(r.Context())
	if !ok || caller == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var dto IssueTicketDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("IssueTicket: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	t, err := h.Service.Issue(r.Context(), caller.ID, dto)
	if err != nil {
		h.Logger.Error("IssueTicket: service error", "error", err, "issuer_id", caller.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("IssueTicket: ticket created",
		"ticket_id", t.ID,
		"target_id", t.TargetID,
		"anonymous", t.IsAnonymous)

	h.WriteJSON(w, http.StatusCreated, t)
}

// RespondTicket handles PATCH /tickets/{id}/respond.
func (h *Handler) RespondTicket(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.UserFromContext(r.Context())
	if !ok || caller == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	ticketID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid ticket ID")
		return
	}

	var dto RespondTicketDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("RespondTicket: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.Service.Respond(r.Context(), caller.ID, ticketID, dto)
	if err != nil {
		h.Logger.Error("RespondTicket: service error", "error", err, "ticket_id", ticketID, "actor_id", caller.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, resp)
}

// GetTicket handles GET /tickets/{id}.
func (h *Handler) GetTicket(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.UserFromContext(r.Context())
	if !ok || caller == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	ticketID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid ticket ID")
		return
	}

	t, err := h.Service.GetByID(r.Context(), caller.ID, ticketID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, t)
}

// ListTickets handles GET /tickets, tickets where the caller is a party.
func (h *Handler) ListTickets(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.UserFromContext(r.Context())
	if !ok || caller == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	limit, offset := transport.Pagination(r, 20, 100)

	tickets, err := h.Service.ListForUser(r.Context(), caller.ID, limit, offset)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"tickets": tickets,
		"limit":   limit,
		"offset":  offset,
	})
}

// PurgeTicket handles DELETE /tickets/{id}.
func (h *Handler) PurgeTicket(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.UserFromContext(r.Context())
	if !ok || caller == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	ticketID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid ticket ID")
		return
	}

	if err := h.Service.Purge(r.Context(), caller.ID, ticketID); err != nil {
		h.Logger.Error("PurgeTicket: service error", "error", err, "ticket_id", ticketID, "actor_id", caller.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("PurgeTicket: ticket deleted", "ticket_id", ticketID, "actor_id", caller.ID)
	w.WriteHeader(http.StatusNoContent)
}
