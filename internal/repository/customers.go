package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/tandaclean/site/internal/domain"
)

// UpsertCustomer inserts or refreshes a customer record keyed by the
// auth platform's user id. Runs on every authenticated booking.
func (s *Store) UpsertCustomer(ctx context.Context, p domain.UpsertCustomerParams) (*domain.Customer, error) {
	var c domain.Customer
	err := s.pool.QueryRow(ctx, `
		INSERT INTO customers (id, full_name, phone, email, preferred_language)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			full_name = EXCLUDED.full_name,
			phone = EXCLUDED.phone,
			email = EXCLUDED.email,
			preferred_language = EXCLUDED.preferred_language,
			updated_at = now()
		RETURNING id, full_name, phone, email, preferred_language, created_at, updated_at
	`, p.ID, p.FullName, p.Phone, p.Email, p.PreferredLanguage).Scan(
		&c.ID,
		&c.FullName,
		&c.Phone,
		&c.Email,
		&c.PreferredLanguage,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert customer: %w", err)
	}
	return &c, nil
}

// CustomerEmailExists reports whether a registered account already uses
// the given (normalized) email.
func (s *Store) CustomerEmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM customers WHERE email = $1)
	`, email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check customer email: %w", err)
	}
	return exists, nil
}

// GuestByEmail fetches a guest customer by normalized email. Returns
// (nil, nil) when no guest exists.
func (s *Store) GuestByEmail(ctx context.Context, email string) (*domain.GuestCustomer, error) {
	var g domain.GuestCustomer
	err := s.pool.QueryRow(ctx, `
		SELECT id, full_name, phone, email, preferred_language, verified_at, created_at
		FROM guest_customers
		WHERE email = $1
	`, email).Scan(
		&g.ID,
		&g.FullName,
		&g.Phone,
		&g.Email,
		&g.PreferredLanguage,
		&g.VerifiedAt,
		&g.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get guest by email: %w", err)
	}
	return &g, nil
}
