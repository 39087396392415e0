package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/tandaclean/site/internal/domain"
)

// appointmentQuery joins both possible owners plus the wash type. The
// CHECK constraint guarantees exactly one owner side is non-null.
const appointmentQuery = `
	SELECT
		a.id, a.wash_type_id, w.name_en, a.vehicle_category,
		a.pickup_address, a.pickup_lat, a.pickup_lng,
		a.scheduled_at, a.status, COALESCE(a.assigned_staff, ''), a.notes,
		a.created_at, a.updated_at,
		c.id, c.full_name, c.phone, c.email, c.preferred_language, c.created_at, c.updated_at,
		g.id, g.full_name, g.phone, g.email, g.preferred_language, g.verified_at, g.created_at
	FROM appointments a
	JOIN wash_types w ON w.id = a.wash_type_id
	LEFT JOIN customers c ON c.id = a.customer_id
	LEFT JOIN guest_customers g ON g.id = a.guest_customer_id`

func scanAppointment(row pgx.Row) (*domain.Appointment, error) {
	var (
		a domain.Appointment

		custID        *uuid.UUID
		custName      *string
		custPhone     *string
		custEmail     *string
		custLang      *string
		custCreatedAt *time.Time
		custUpdatedAt *time.Time

		guestID         *uuid.UUID
		guestName       *string
		guestPhone      *string
		guestEmail      *string
		guestLang       *string
		guestVerifiedAt *time.Time
		guestCreatedAt  *time.Time
	)
	err := row.Scan(
		&a.ID, &a.WashTypeID, &a.WashTypeName, &a.VehicleCategory,
		&a.PickupAddress, &a.PickupLat, &a.PickupLng,
		&a.ScheduledAt, &a.Status, &a.AssignedStaff, &a.Notes,
		&a.CreatedAt, &a.UpdatedAt,
		&custID, &custName, &custPhone, &custEmail, &custLang, &custCreatedAt, &custUpdatedAt,
		&guestID, &guestName, &guestPhone, &guestEmail, &guestLang, &guestVerifiedAt, &guestCreatedAt,
	)
	if err != nil {
		return nil, err
	}

	switch {
	case custID != nil:
		a.Owner = domain.CustomerOwner(&domain.Customer{
			ID:                *custID,
			FullName:          *custName,
			Phone:             *custPhone,
			Email:             *custEmail,
			PreferredLanguage: *custLang,
			CreatedAt:         *custCreatedAt,
			UpdatedAt:         *custUpdatedAt,
		})
	case guestID != nil:
		a.Owner = domain.GuestOwner(&domain.GuestCustomer{
			ID:                *guestID,
			FullName:          *guestName,
			Phone:             *guestPhone,
			Email:             *guestEmail,
			PreferredLanguage: *guestLang,
			VerifiedAt:        guestVerifiedAt,
			CreatedAt:         *guestCreatedAt,
		})
	}
	return &a, nil
}

// CreateAppointment inserts a pending appointment owned by a registered
// customer and appends the booking_created audit entry.
func (s *Store) CreateAppointment(ctx context.Context, p domain.CreateAppointmentParams) (uuid.UUID, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return uuid.Nil, fmt.Errorf("begin create appointment: %w", err)
	}
	defer tx.Rollback(ctx)

	var id uuid.UUID
	err = tx.QueryRow(ctx, `
		INSERT INTO appointments
			(customer_id, wash_type_id, vehicle_category, pickup_address, pickup_lat, pickup_lng, scheduled_at, status, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 'pending', $8)
		RETURNING id
	`, p.CustomerID, p.WashTypeID, p.VehicleCategory, p.PickupAddress,
		p.PickupLat, p.PickupLng, p.ScheduledAt, p.Notes).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert appointment: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO appointment_logs (appointment_id, actor_type, actor_id, action, message)
		VALUES ($1, 'client', $2, $3, 'Booking request received')
	`, id, p.CustomerID, domain.ActionBookingCreated)
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert booking log: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return uuid.Nil, fmt.Errorf("commit create appointment: %w", err)
	}
	return id, nil
}

// AppointmentByID loads an appointment with its owner and wash type.
// Returns (nil, nil) when no row exists.
func (s *Store) AppointmentByID(ctx context.Context, id uuid.UUID) (*domain.Appointment, error) {
	appt, err := scanAppointment(s.pool.QueryRow(ctx, appointmentQuery+` WHERE a.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	return appt, nil
}

// ListAppointments returns all appointments, newest first, for the
// admin dashboard.
func (s *Store) ListAppointments(ctx context.Context) ([]*domain.Appointment, error) {
	rows, err := s.pool.Query(ctx, appointmentQuery+` ORDER BY a.created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	defer rows.Close()

	var appts []*domain.Appointment
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan appointment: %w", err)
		}
		appts = append(appts, appt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	return appts, nil
}

// AssignAppointment stamps the schedule and staff onto a pending
// appointment and moves it to assigned.
func (s *Store) AssignAppointment(ctx context.Context, id uuid.UUID, scheduledAt time.Time, staff string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE appointments
		SET scheduled_at = $2,
			status = 'assigned',
			assigned_staff = $3,
			updated_at = now()
		WHERE id = $1
	`, id, scheduledAt, staff)
	if err != nil {
		return fmt.Errorf("assign appointment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// UpdateAppointmentStatus moves an appointment to the given status.
func (s *Store) UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, status domain.AppointmentStatus) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE appointments SET status = $2, updated_at = now() WHERE id = $1
	`, id, status)
	if err != nil {
		return fmt.Errorf("update appointment status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
