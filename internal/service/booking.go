// Package service implements the application's business operations on
// top of the repository layer.
package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tandaclean/site/internal/domain"
	"github.com/tandaclean/site/internal/metrics"
	"github.com/tandaclean/site/internal/outbox"
)

// BookingStore is the persistence surface booking intake needs.
// *repository.Store satisfies it.
type BookingStore interface {
	CustomerEmailExists(ctx context.Context, email string) (bool, error)
	GuestByEmail(ctx context.Context, email string) (*domain.GuestCustomer, error)
	CreateGuestBooking(ctx context.Context, p domain.CreateGuestBookingParams) (appointmentID, guestID uuid.UUID, err error)
	UpsertCustomer(ctx context.Context, p domain.UpsertCustomerParams) (*domain.Customer, error)
	CreateAppointment(ctx context.Context, p domain.CreateAppointmentParams) (uuid.UUID, error)
	GetWashType(ctx context.Context, id uuid.UUID) (*domain.WashType, error)
	ListActiveWashTypes(ctx context.Context) ([]*domain.WashType, error)
	EnqueueEmail(ctx context.Context, p domain.EnqueueEmailParams) (uuid.UUID, error)
}

// DispatchTrigger kicks the outbox after an enqueue. Failures here are
// logged and swallowed; the periodic batch pass picks the job up later.
type DispatchTrigger interface {
	Dispatch(ctx context.Context, queueID *uuid.UUID) (int, error)
}

// GuestBookingParams is the public booking form submission.
type GuestBookingParams struct {
	Name              string
	Email             string
	Phone             string
	WashTypeID        string
	CarType           string
	PickupLocation    string
	PickupLat         *float64
	PickupLng         *float64
	PreferredLanguage string
	Notes             string
	Origin            string // Request origin, base for the verification link
}

// CustomerBookingParams is an authenticated booking. UserID and Email
// come from the verified identity, never from the request body.
type CustomerBookingParams struct {
	UserID            uuid.UUID
	Email             string
	Name              string
	Phone             string
	WashTypeID        string
	CarType           string
	PickupLocation    string
	PickupLat         *float64
	PickupLng         *float64
	PreferredLanguage string
	Notes             string
	RequestedAt       *time.Time // Requested pickup slot, if the form offered one
}

// BookingService handles booking intake for guests and customers.
type BookingService interface {
	CreateGuestBooking(ctx context.Context, p GuestBookingParams) (uuid.UUID, error)
	CreateCustomerBooking(ctx context.Context, p CustomerBookingParams) (uuid.UUID, error)
	WashTypes(ctx context.Context) ([]*domain.WashType, error)
}

type bookingService struct {
	store    BookingStore
	dispatch DispatchTrigger
	logger   *slog.Logger
}

// NewBookingService creates the booking intake service.
func NewBookingService(store BookingStore, dispatch DispatchTrigger, logger *slog.Logger) BookingService {
	return &bookingService{
		store:    store,
		dispatch: dispatch,
		logger:   logger,
	}
}

// NormalizeEmail trims whitespace and lowercases. Both conflict checks
// and storage use the normalized form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// generateVerificationToken returns a random token and its SHA-256 hex
// hash. Only the hash is stored; the raw token goes into the email.
func generateVerificationToken() (raw, hash string, err error) {
	b := make([]byte, domain.TokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", "", fmt.Errorf("generate token: %w", err)
	}
	raw = hex.EncodeToString(b)
	return raw, HashToken(raw), nil
}

// HashToken returns the SHA-256 hex digest of a raw verification token.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

const conflictSignIn = "Email already registered. Please sign in to book."
const conflictVerify = "Email already registered. Please verify your email before booking again."

func (s *bookingService) CreateGuestBooking(ctx context.Context, p GuestBookingParams) (uuid.UUID, error) {
	const op = "booking.create_guest"

	email := NormalizeEmail(p.Email)

	ve := &domain.ValidationError{Op: op, Fields: map[string]string{}}
	if p.Name == "" {
		ve.Fields["name"] = "Name is required."
	}
	if email == "" || !strings.Contains(email, "@") {
		ve.Fields["email"] = "A valid email address is required."
	}
	if p.Phone == "" {
		ve.Fields["phone"] = "Phone number is required."
	}
	if p.WashTypeID == "" {
		ve.Fields["washTypeId"] = "Wash type is required."
	}
	if p.PickupLocation == "" {
		ve.Fields["pickupLocation"] = "Pickup location is required."
	}
	if p.CarType == "" {
		ve.Fields["carType"] = "Car type is required."
	}
	if len(ve.Fields) > 0 {
		return uuid.Nil, ve
	}

	washTypeID, err := uuid.Parse(p.WashTypeID)
	if err != nil {
		return uuid.Nil, domain.NewValidationError(op, "washTypeId", "Wash type is invalid.")
	}

	taken, err := s.store.CustomerEmailExists(ctx, email)
	if err != nil {
		return uuid.Nil, domain.Internal(err, op, err.Error())
	}
	if taken {
		return uuid.Nil, domain.Conflict(op, conflictSignIn)
	}

	guest, err := s.store.GuestByEmail(ctx, email)
	if err != nil {
		return uuid.Nil, domain.Internal(err, op, err.Error())
	}
	if guest != nil {
		if guest.IsVerified() {
			return uuid.Nil, domain.Conflict(op, conflictSignIn)
		}
		return uuid.Nil, domain.Conflict(op, conflictVerify)
	}

	washType, err := s.store.GetWashType(ctx, washTypeID)
	if err != nil {
		return uuid.Nil, domain.Internal(err, op, err.Error())
	}
	if washType == nil || !washType.IsActive {
		return uuid.Nil, domain.NewValidationError(op, "washTypeId", "Wash type is invalid.")
	}

	rawToken, tokenHash, err := generateVerificationToken()
	if err != nil {
		return uuid.Nil, domain.Internal(err, op, "Failed to create guest booking.")
	}

	appointmentID, guestID, err := s.store.CreateGuestBooking(ctx, domain.CreateGuestBookingParams{
		FullName:          p.Name,
		Phone:             p.Phone,
		Email:             email,
		PreferredLanguage: domain.NormalizeLanguage(p.PreferredLanguage),
		WashTypeID:        washTypeID,
		VehicleCategory:   domain.VehicleCategoryForTag(p.CarType),
		PickupAddress:     p.PickupLocation,
		PickupLat:         p.PickupLat,
		PickupLng:         p.PickupLng,
		Notes:             p.Notes,
		TokenHash:         tokenHash,
		TokenExpiresAt:    time.Now().Add(domain.GuestVerificationTokenDuration),
	})
	if err != nil {
		return uuid.Nil, domain.Internal(err, op, err.Error())
	}

	verificationURL := strings.TrimSuffix(p.Origin, "/") + "/guest/verify?token=" + rawToken
	payload, err := json.Marshal(outbox.GuestVerificationPayload{
		Name:            p.Name,
		PickupLocation:  p.PickupLocation,
		VerificationURL: verificationURL,
	})
	if err != nil {
		return uuid.Nil, domain.Internal(err, op, "Failed to create guest booking.")
	}

	queueID, err := s.store.EnqueueEmail(ctx, domain.EnqueueEmailParams{
		RecipientEmail: email,
		Template:       domain.TemplateGuestVerification,
		Payload:        payload,
		AppointmentID:  &appointmentID,
		GuestID:        &guestID,
	})
	if err != nil {
		return uuid.Nil, domain.Internal(err, op, err.Error())
	}

	// Delivery is best effort here. A failed kick leaves the job
	// pending for the periodic batch pass.
	if _, err := s.dispatch.Dispatch(ctx, &queueID); err != nil {
		s.logger.Warn("verification email dispatch kick failed",
			"queue_id", queueID,
			"appointment_id", appointmentID,
			"error", err)
	}

	s.logger.Info("guest booking created",
		"appointment_id", appointmentID,
		"guest_id", guestID,
		"wash_type", washType.Code)
	metrics.BookingsCreated.WithLabelValues("guest").Inc()

	return appointmentID, nil
}

func (s *bookingService) CreateCustomerBooking(ctx context.Context, p CustomerBookingParams) (uuid.UUID, error) {
	const op = "booking.create_customer"

	if p.UserID == uuid.Nil {
		return uuid.Nil, domain.Unauthorized(op, "Sign in to book a pickup.")
	}

	email := NormalizeEmail(p.Email)

	ve := &domain.ValidationError{Op: op, Fields: map[string]string{}}
	if p.Name == "" {
		ve.Fields["name"] = "Name is required."
	}
	if p.Phone == "" {
		ve.Fields["phone"] = "Phone number is required."
	}
	if p.WashTypeID == "" {
		ve.Fields["washTypeId"] = "Wash type is required."
	}
	if p.PickupLocation == "" {
		ve.Fields["pickupLocation"] = "Pickup location is required."
	}
	if p.CarType == "" {
		ve.Fields["carType"] = "Car type is required."
	}
	if len(ve.Fields) > 0 {
		return uuid.Nil, ve
	}

	washTypeID, err := uuid.Parse(p.WashTypeID)
	if err != nil {
		return uuid.Nil, domain.NewValidationError(op, "washTypeId", "Wash type is invalid.")
	}
	washType, err := s.store.GetWashType(ctx, washTypeID)
	if err != nil {
		return uuid.Nil, domain.Internal(err, op, err.Error())
	}
	if washType == nil || !washType.IsActive {
		return uuid.Nil, domain.NewValidationError(op, "washTypeId", "Wash type is invalid.")
	}

	if _, err := s.store.UpsertCustomer(ctx, domain.UpsertCustomerParams{
		ID:                p.UserID,
		FullName:          p.Name,
		Phone:             p.Phone,
		Email:             email,
		PreferredLanguage: domain.NormalizeLanguage(p.PreferredLanguage),
	}); err != nil {
		return uuid.Nil, domain.Internal(err, op, err.Error())
	}

	appointmentID, err := s.store.CreateAppointment(ctx, domain.CreateAppointmentParams{
		CustomerID:      p.UserID,
		WashTypeID:      washTypeID,
		VehicleCategory: domain.VehicleCategoryForTag(p.CarType),
		PickupAddress:   p.PickupLocation,
		PickupLat:       p.PickupLat,
		PickupLng:       p.PickupLng,
		ScheduledAt:     p.RequestedAt,
		Notes:           p.Notes,
	})
	if err != nil {
		return uuid.Nil, domain.Internal(err, op, err.Error())
	}

	s.logger.Info("customer booking created",
		"appointment_id", appointmentID,
		"customer_id", p.UserID,
		"wash_type", washType.Code)
	metrics.BookingsCreated.WithLabelValues("customer").Inc()

	return appointmentID, nil
}

func (s *bookingService) WashTypes(ctx context.Context) ([]*domain.WashType, error) {
	const op = "booking.wash_types"

	types, err := s.store.ListActiveWashTypes(ctx)
	if err != nil {
		return nil, domain.Internal(err, op, err.Error())
	}
	return types, nil
}
