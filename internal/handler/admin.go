package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/tandaclean/site/internal/auth"
	"github.com/tandaclean/site/internal/domain"
	"github.com/tandaclean/site/internal/service"
)

// AdminHandler serves the admin appointment workflow. All routes sit
// behind the identity and admin middleware.
//
// Routes handled:
// - GET  /api/admin/appointments               -> List
// - POST /api/admin/appointments/{id}/assign   -> Assign
// - POST /api/admin/appointments/{id}/complete -> Complete
// - POST /api/admin/appointments/{id}/cancel   -> Cancel
type AdminHandler struct {
	assignmentService service.AssignmentService
	logger            *slog.Logger
}

// NewAdminHandler creates the admin handler.
func NewAdminHandler(assignmentService service.AssignmentService, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		assignmentService: assignmentService,
		logger:            logger,
	}
}

type appointmentResponse struct {
	ID              string   `json:"id"`
	OwnerKind       string   `json:"ownerKind"`
	Name            string   `json:"name"`
	Email           string   `json:"email"`
	EmailVerified   bool     `json:"emailVerified"`
	ServiceName     string   `json:"serviceName"`
	VehicleCategory string   `json:"vehicleCategory"`
	PickupAddress   string   `json:"pickupAddress"`
	ScheduledAt     *string  `json:"scheduledAt"`
	Status          string   `json:"status"`
	AssignedStaff   string   `json:"assignedStaff"`
	Notes           string   `json:"notes"`
	CreatedAt       string   `json:"createdAt"`
}

func toAppointmentResponse(a *domain.Appointment) appointmentResponse {
	resp := appointmentResponse{
		ID:              a.ID.String(),
		OwnerKind:       string(a.Owner.Kind()),
		Name:            a.Owner.DisplayName(),
		Email:           a.Owner.Email(),
		EmailVerified:   a.Owner.Verified(),
		ServiceName:     a.WashTypeName,
		VehicleCategory: string(a.VehicleCategory),
		PickupAddress:   a.PickupAddress,
		Status:          string(a.Status),
		AssignedStaff:   a.AssignedStaff,
		Notes:           a.Notes,
		CreatedAt:       a.CreatedAt.Format(time.RFC3339),
	}
	if a.ScheduledAt != nil {
		s := a.ScheduledAt.Format(time.RFC3339)
		resp.ScheduledAt = &s
	}
	return resp
}

// List handles GET /api/admin/appointments.
func (h *AdminHandler) List(w http.ResponseWriter, r *http.Request) {
	appts, err := h.assignmentService.List(r.Context())
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	out := make([]appointmentResponse, 0, len(appts))
	for _, a := range appts {
		out = append(out, toAppointmentResponse(a))
	}
	writeJSON(w, http.StatusOK, map[string]any{"appointments": out})
}

func (h *AdminHandler) pathIDAndIdentity(w http.ResponseWriter, r *http.Request) (uuid.UUID, *auth.Identity, bool) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		ErrorResponse(w, r, h.logger, domain.Unauthorized("", "Authentication required."))
		return uuid.Nil, nil, false
	}
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Invalid appointment id."})
		return uuid.Nil, nil, false
	}
	return id, identity, true
}

type assignRequest struct {
	Date  string `json:"date"`
	Time  string `json:"time"`
	Staff string `json:"staff"`
}

// Assign handles POST /api/admin/appointments/{id}/assign.
func (h *AdminHandler) Assign(w http.ResponseWriter, r *http.Request) {
	id, identity, ok := h.pathIDAndIdentity(w, r)
	if !ok {
		return
	}

	var req assignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Invalid request body."})
		return
	}

	err := h.assignmentService.Assign(r.Context(), service.AssignParams{
		AdminID:       identity.UserID,
		AppointmentID: id,
		Date:          req.Date,
		Time:          req.Time,
		Staff:         req.Staff,
	})
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// Complete handles POST /api/admin/appointments/{id}/complete.
func (h *AdminHandler) Complete(w http.ResponseWriter, r *http.Request) {
	id, identity, ok := h.pathIDAndIdentity(w, r)
	if !ok {
		return
	}
	if err := h.assignmentService.Complete(r.Context(), identity.UserID, id); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// Cancel handles POST /api/admin/appointments/{id}/cancel.
func (h *AdminHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, identity, ok := h.pathIDAndIdentity(w, r)
	if !ok {
		return
	}
	if err := h.assignmentService.Cancel(r.Context(), identity.UserID, id); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}
