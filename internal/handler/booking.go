package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/tandaclean/site/internal/auth"
	"github.com/tandaclean/site/internal/domain"
	"github.com/tandaclean/site/internal/service"
)

// BookingHandler handles booking intake and the wash type listing.
//
// Routes handled:
// - POST /api/guest/book  -> CreateGuestBooking
// - POST /api/bookings    -> CreateCustomerBooking (requires identity)
// - GET  /api/wash-types  -> WashTypes
type BookingHandler struct {
	bookingService service.BookingService
	baseURL        string
	logger         *slog.Logger
}

// NewBookingHandler creates the booking handler. baseURL, when set,
// overrides the request host as the base for verification links.
func NewBookingHandler(bookingService service.BookingService, baseURL string, logger *slog.Logger) *BookingHandler {
	return &BookingHandler{
		bookingService: bookingService,
		baseURL:        baseURL,
		logger:         logger,
	}
}

// origin resolves the base URL for links embedded in emails.
func (h *BookingHandler) origin(r *http.Request) string {
	if h.baseURL != "" {
		return h.baseURL
	}
	scheme := "https"
	if r.TLS == nil && r.Header.Get("X-Forwarded-Proto") != "https" {
		scheme = "http"
	}
	return scheme + "://" + r.Host
}

type bookingRequest struct {
	Name              string   `json:"name"`
	Email             string   `json:"email"`
	Phone             string   `json:"phone"`
	WashTypeID        string   `json:"washTypeId"`
	CarType           string   `json:"carType"`
	PickupLocation    string   `json:"pickupLocation"`
	PickupLat         *float64 `json:"pickupLat"`
	PickupLng         *float64 `json:"pickupLng"`
	PreferredLanguage string   `json:"preferredLanguage"`
	Notes             string   `json:"notes"`
	RequestedAt       string   `json:"requestedAt"` // RFC 3339, account bookings only
}

// CreateGuestBooking handles POST /api/guest/book.
func (h *BookingHandler) CreateGuestBooking(w http.ResponseWriter, r *http.Request) {
	var req bookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Invalid request body."})
		return
	}

	_, err := h.bookingService.CreateGuestBooking(r.Context(), service.GuestBookingParams{
		Name:              req.Name,
		Email:             req.Email,
		Phone:             req.Phone,
		WashTypeID:        req.WashTypeID,
		CarType:           req.CarType,
		PickupLocation:    req.PickupLocation,
		PickupLat:         req.PickupLat,
		PickupLng:         req.PickupLng,
		PreferredLanguage: req.PreferredLanguage,
		Notes:             req.Notes,
		Origin:            h.origin(r),
	})
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// CreateCustomerBooking handles POST /api/bookings. The middleware has
// already verified the caller; identity comes from context, never from
// the body.
func (h *BookingHandler) CreateCustomerBooking(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		ErrorResponse(w, r, h.logger, domain.Unauthorized("booking.create_customer", "Sign in to book a pickup."))
		return
	}

	var req bookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Invalid request body."})
		return
	}

	var requestedAt *time.Time
	if req.RequestedAt != "" {
		t, err := time.Parse(time.RFC3339, req.RequestedAt)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "The selected date or time is invalid."})
			return
		}
		requestedAt = &t
	}

	id, err := h.bookingService.CreateCustomerBooking(r.Context(), service.CustomerBookingParams{
		UserID:            identity.UserID,
		Email:             identity.Email,
		Name:              req.Name,
		Phone:             req.Phone,
		WashTypeID:        req.WashTypeID,
		CarType:           req.CarType,
		PickupLocation:    req.PickupLocation,
		PickupLat:         req.PickupLat,
		PickupLng:         req.PickupLng,
		PreferredLanguage: req.PreferredLanguage,
		Notes:             req.Notes,
		RequestedAt:       requestedAt,
	})
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "appointmentId": id})
}

type washTypeResponse struct {
	ID     string `json:"id"`
	Code   string `json:"code"`
	NameEN string `json:"nameEn"`
	NameDE string `json:"nameDe"`
}

// WashTypes handles GET /api/wash-types.
func (h *BookingHandler) WashTypes(w http.ResponseWriter, r *http.Request) {
	types, err := h.bookingService.WashTypes(r.Context())
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	out := make([]washTypeResponse, 0, len(types))
	for _, wt := range types {
		out = append(out, washTypeResponse{
			ID:     wt.ID.String(),
			Code:   wt.Code,
			NameEN: wt.NameEN,
			NameDE: wt.NameDE,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"washTypes": out})
}
