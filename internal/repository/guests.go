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

// CreateGuestBooking atomically creates the guest record, a pending
// appointment owned by it, the hashed verification token, and the
// booking_created audit entry. Either everything lands or nothing does.
func (s *Store) CreateGuestBooking(ctx context.Context, p domain.CreateGuestBookingParams) (appointmentID, guestID uuid.UUID, err error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("begin guest booking: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		INSERT INTO guest_customers (full_name, phone, email, preferred_language)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, p.FullName, p.Phone, p.Email, p.PreferredLanguage).Scan(&guestID)
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("insert guest: %w", err)
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO appointments
			(guest_customer_id, wash_type_id, vehicle_category, pickup_address, pickup_lat, pickup_lng, status, notes)
		VALUES ($1, $2, $3, $4, $5, $6, 'pending', $7)
		RETURNING id
	`, guestID, p.WashTypeID, p.VehicleCategory, p.PickupAddress, p.PickupLat, p.PickupLng, p.Notes).Scan(&appointmentID)
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("insert appointment: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO guest_verification_tokens (guest_customer_id, token_hash, expires_at)
		VALUES ($1, $2, $3)
	`, guestID, p.TokenHash, p.TokenExpiresAt)
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("insert verification token: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO appointment_logs (appointment_id, actor_type, action, message)
		VALUES ($1, 'system', $2, 'Guest booking request received')
	`, appointmentID, domain.ActionBookingCreated)
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("insert booking log: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("commit guest booking: %w", err)
	}
	return appointmentID, guestID, nil
}

// ConsumeGuestVerificationToken looks up a token by hash and verifies
// the owning guest.
//
// Replaying a consumed token for an already verified guest succeeds so
// that double-clicked links stay friendly. An expired or already
// consumed token for an unverified guest fails; the verified_at
// timestamp is set exactly once and never cleared.
func (s *Store) ConsumeGuestVerificationToken(ctx context.Context, tokenHash string, now time.Time) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin token consume: %w", err)
	}
	defer tx.Rollback(ctx)

	var (
		tok        domain.GuestVerificationToken
		verifiedAt *time.Time
	)
	err = tx.QueryRow(ctx, `
		SELECT t.id, t.guest_customer_id, t.token_hash, t.expires_at, t.consumed_at, t.created_at, g.verified_at
		FROM guest_verification_tokens t
		JOIN guest_customers g ON g.id = t.guest_customer_id
		WHERE t.token_hash = $1
		FOR UPDATE OF t, g
	`, tokenHash).Scan(&tok.ID, &tok.GuestID, &tok.TokenHash, &tok.ExpiresAt, &tok.ConsumedAt, &tok.CreatedAt, &verifiedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrTokenNotFound
	}
	if err != nil {
		return fmt.Errorf("lookup verification token: %w", err)
	}

	if verifiedAt != nil {
		// Idempotent replay
		return tx.Commit(ctx)
	}
	if tok.ConsumedAt != nil || tok.Expired(now) {
		return ErrTokenExpired
	}

	_, err = tx.Exec(ctx, `
		UPDATE guest_verification_tokens SET consumed_at = $2 WHERE id = $1
	`, tok.ID, now)
	if err != nil {
		return fmt.Errorf("consume token: %w", err)
	}
	_, err = tx.Exec(ctx, `
		UPDATE guest_customers SET verified_at = $2 WHERE id = $1 AND verified_at IS NULL
	`, tok.GuestID, now)
	if err != nil {
		return fmt.Errorf("mark guest verified: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit token consume: %w", err)
	}
	return nil
}
