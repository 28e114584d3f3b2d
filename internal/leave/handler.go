package leave

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
	Submit(ctx context.Context, requesterID int64, dto CreateLeaveDTO) (*LeaveRequest, error)
	Respond(ctx context.Context, actorID, requestID int64, dto RespondLeaveDTO) (*LeaveRequest, error)
	GetByID(ctx context.Context, callerID, requestID int64) (*LeaveRequest, error)
	ListMine(ctx context.Context, callerID int64, limit, offset int) ([]*LeaveRequest, error)
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

// SubmitLeave handles POST /leave.
func (h *Handler) SubmitLeave(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.UserFromContext(r.Context())
	if !ok || caller == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var dto CreateLeaveDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("SubmitLeave: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req, err := h.Service.Submit(r.Context(), caller.ID, dto)
	if err != nil {
		h.Logger.Error("SubmitLeave: service error", "error", err, "requester_id", caller.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("SubmitLeave: request created",
		"leave_request_id", req.ID,
		"requester_id", caller.ID,
		"current_approver_id", req.CurrentApproverID)

	h.WriteJSON(w, http.StatusCreated, req)
}

// RespondLeave handles POST /leave/{id}/respond.
func (h *Handler) RespondLeave(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.UserFromContext(r.Context())
	if !ok || caller == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	requestID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid leave request ID")
		return
	}

	var dto RespondLeaveDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("RespondLeave: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req, err := h.Service.Respond(r.Context(), caller.ID, requestID, dto)
	if err != nil {
		h.Logger.Error("RespondLeave: service error", "error", err, "leave_request_id", requestID, "actor_id", caller.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, req)
}

// GetLeave handles GET /leave/{id}.
func (h *Handler) GetLeave(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.UserFromContext(r.Context())
	if !ok || caller == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	requestID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid leave request ID")
		return
	}

	req, err := h.Service.GetByID(r.Context(), caller.ID, requestID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, req)
}

// ListLeave handles GET /leave, the caller's own requests.
func (h *Handler) ListLeave(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.UserFromContext(r.Context())
	if !ok || caller == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	limit, offset := transport.Pagination(r, 20, 100)

	reqs, err := h.Service.ListMine(r.Context(), caller.ID, limit, offset)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"leave_requests": reqs,
		"limit":          limit,
		"offset":         offset,
	})
}
