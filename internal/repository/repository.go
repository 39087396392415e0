// Package repository provides PostgreSQL persistence for the booking
// service. All SQL lives here; services see typed methods only.
package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Sentinel errors surfaced by token consumption. Services translate
// them into user-facing verification failures.
var (
	ErrTokenNotFound = errors.New("verification token not found")
	ErrTokenExpired  = errors.New("verification token expired or already used")
)

// Store wraps a pgx connection pool with typed queries.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a Store backed by the given pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}
