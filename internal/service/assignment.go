package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tandaclean/site/internal/domain"
	"github.com/tandaclean/site/internal/metrics"
	"github.com/tandaclean/site/internal/outbox"
)

// AssignmentStore is the persistence surface the admin workflow needs.
type AssignmentStore interface {
	AppointmentByID(ctx context.Context, id uuid.UUID) (*domain.Appointment, error)
	ListAppointments(ctx context.Context) ([]*domain.Appointment, error)
	AssignAppointment(ctx context.Context, id uuid.UUID, scheduledAt time.Time, staff string) error
	UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, status domain.AppointmentStatus) error
	AppendLog(ctx context.Context, p domain.AppendLogParams) error
	EnqueueEmail(ctx context.Context, p domain.EnqueueEmailParams) (uuid.UUID, error)
}

// AssignParams carries the admin's pickup assignment. Date and Time are
// the raw form values ("2026-09-12", "09:00"); AdminID is the verified
// identity performing the assignment.
type AssignParams struct {
	AdminID       uuid.UUID
	AppointmentID uuid.UUID
	Date          string
	Time          string
	Staff         string
}

// AssignmentService is the admin-facing appointment workflow.
type AssignmentService interface {
	Assign(ctx context.Context, p AssignParams) error
	Complete(ctx context.Context, adminID, appointmentID uuid.UUID) error
	Cancel(ctx context.Context, adminID, appointmentID uuid.UUID) error
	List(ctx context.Context) ([]*domain.Appointment, error)
}

type assignmentService struct {
	store    AssignmentStore
	dispatch DispatchTrigger
	logger   *slog.Logger
}

// NewAssignmentService creates the admin appointment workflow service.
func NewAssignmentService(store AssignmentStore, dispatch DispatchTrigger, logger *slog.Logger) AssignmentService {
	return &assignmentService{
		store:    store,
		dispatch: dispatch,
		logger:   logger,
	}
}

// scheduledAtDisplay is how the confirmed pickup time appears in email.
const scheduledAtDisplay = "Monday, 2 Jan 2006 at 15:04"

// Assign stamps a pickup time and staff onto a pending appointment,
// records the audit entry, and queues the confirmation email.
func (s *assignmentService) Assign(ctx context.Context, p AssignParams) error {
	const op = "assignment.assign"

	if p.Date == "" || p.Time == "" {
		return domain.Invalid(op, "Please select both a pickup date and time.")
	}
	scheduledAt, err := time.ParseInLocation("2006-01-02 15:04", p.Date+" "+p.Time, time.Local)
	if err != nil {
		return domain.Invalid(op, "The selected date or time is invalid.")
	}

	appt, err := s.store.AppointmentByID(ctx, p.AppointmentID)
	if err != nil {
		return domain.Internal(err, op, err.Error())
	}
	if appt == nil {
		return domain.NotFound(op, "Appointment", p.AppointmentID.String())
	}
	if !appt.Status.CanTransitionTo(domain.AppointmentStatusAssigned) {
		return domain.Invalid(op, "Failed to update appointment.")
	}
	if !appt.Owner.Verified() {
		return domain.Precondition(op, "Guest email is not verified yet.")
	}
	recipient := appt.Owner.Email()
	if recipient == "" {
		return domain.Precondition(op, "Missing client email address.")
	}

	if err := s.store.AssignAppointment(ctx, p.AppointmentID, scheduledAt, p.Staff); err != nil {
		return domain.Internal(err, op, err.Error())
	}

	adminID := p.AdminID
	if err := s.store.AppendLog(ctx, domain.AppendLogParams{
		AppointmentID: p.AppointmentID,
		ActorType:     domain.ActorAdmin,
		ActorID:       &adminID,
		Action:        domain.ActionAppointmentAssigned,
		Message:       "Appointment assigned with pickup time",
		Meta: map[string]any{
			"scheduled_at":   scheduledAt.Format(time.RFC3339),
			"assigned_staff": p.Staff,
		},
	}); err != nil {
		return domain.Internal(err, op, err.Error())
	}

	staff := p.Staff
	if staff == "" {
		staff = "T&A team"
	}
	serviceName := appt.WashTypeName
	if serviceName == "" {
		serviceName = "Car cleaning"
	}
	payload, err := json.Marshal(outbox.AppointmentConfirmedPayload{
		Name:           appt.Owner.DisplayName(),
		PickupLocation: appt.PickupAddress,
		ScheduledAt:    scheduledAt.Format(scheduledAtDisplay),
		ServiceName:    serviceName,
		AssignedStaff:  staff,
	})
	if err != nil {
		return domain.Internal(err, op, "Failed to update appointment.")
	}

	var guestID *uuid.UUID
	if g := appt.Owner.Guest(); g != nil {
		id := g.ID
		guestID = &id
	}
	queueID, err := s.store.EnqueueEmail(ctx, domain.EnqueueEmailParams{
		RecipientEmail: recipient,
		Template:       domain.TemplateAppointmentConfirmed,
		Payload:        payload,
		AppointmentID:  &p.AppointmentID,
		GuestID:        guestID,
	})
	if err != nil {
		return domain.Internal(err, op, err.Error())
	}

	if _, err := s.dispatch.Dispatch(ctx, &queueID); err != nil {
		s.logger.Warn("confirmation email dispatch kick failed",
			"queue_id", queueID,
			"appointment_id", p.AppointmentID,
			"error", err)
	}

	s.logger.Info("appointment assigned",
		"appointment_id", p.AppointmentID,
		"scheduled_at", scheduledAt,
		"staff", staff)
	metrics.AppointmentsAssigned.Inc()

	return nil
}

// Complete marks an assigned appointment as done.
func (s *assignmentService) Complete(ctx context.Context, adminID, appointmentID uuid.UUID) error {
	return s.transition(ctx, "assignment.complete", adminID, appointmentID,
		domain.AppointmentStatusCompleted, domain.ActionAppointmentCompleted,
		"Appointment marked as completed")
}

// Cancel cancels a pending or assigned appointment.
func (s *assignmentService) Cancel(ctx context.Context, adminID, appointmentID uuid.UUID) error {
	return s.transition(ctx, "assignment.cancel", adminID, appointmentID,
		domain.AppointmentStatusCancelled, domain.ActionAppointmentCancelled,
		"Appointment cancelled")
}

func (s *assignmentService) transition(ctx context.Context, op string, adminID, appointmentID uuid.UUID, next domain.AppointmentStatus, action, message string) error {
	appt, err := s.store.AppointmentByID(ctx, appointmentID)
	if err != nil {
		return domain.Internal(err, op, err.Error())
	}
	if appt == nil {
		return domain.NotFound(op, "Appointment", appointmentID.String())
	}
	if !appt.Status.CanTransitionTo(next) {
		return domain.Invalid(op, "Failed to update appointment.")
	}

	if err := s.store.UpdateAppointmentStatus(ctx, appointmentID, next); err != nil {
		return domain.Internal(err, op, err.Error())
	}

	if err := s.store.AppendLog(ctx, domain.AppendLogParams{
		AppointmentID: appointmentID,
		ActorType:     domain.ActorAdmin,
		ActorID:       &adminID,
		Action:        action,
		Message:       message,
	}); err != nil {
		return domain.Internal(err, op, err.Error())
	}

	s.logger.Info("appointment status updated",
		"appointment_id", appointmentID,
		"status", next)
	return nil
}

// List returns all appointments for the admin dashboard.
func (s *assignmentService) List(ctx context.Context) ([]*domain.Appointment, error) {
	const op = "assignment.list"

	appts, err := s.store.ListAppointments(ctx)
	if err != nil {
		return nil, domain.Internal(err, op, err.Error())
	}
	return appts, nil
}
