package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// IsAdmin reports whether the given auth user belongs to the admin set.
func (s *Store) IsAdmin(ctx context.Context, userID uuid.UUID) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM admins WHERE user_id = $1)
	`, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check admin membership: %w", err)
	}
	return exists, nil
}
