package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/tandaclean/site/internal/domain"
)

// ListActiveWashTypes returns the bookable services for the public form.
func (s *Store) ListActiveWashTypes(ctx context.Context) ([]*domain.WashType, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, code, name_en, name_de, is_active
		FROM wash_types
		WHERE is_active
		ORDER BY code
	`)
	if err != nil {
		return nil, fmt.Errorf("list wash types: %w", err)
	}
	defer rows.Close()

	var types []*domain.WashType
	for rows.Next() {
		var w domain.WashType
		if err := rows.Scan(&w.ID, &w.Code, &w.NameEN, &w.NameDE, &w.IsActive); err != nil {
			return nil, fmt.Errorf("scan wash type: %w", err)
		}
		types = append(types, &w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list wash types: %w", err)
	}
	return types, nil
}

// GetWashType loads one wash type by id. Returns (nil, nil) when absent.
func (s *Store) GetWashType(ctx context.Context, id uuid.UUID) (*domain.WashType, error) {
	var w domain.WashType
	err := s.pool.QueryRow(ctx, `
		SELECT id, code, name_en, name_de, is_active
		FROM wash_types
		WHERE id = $1
	`, id).Scan(&w.ID, &w.Code, &w.NameEN, &w.NameDE, &w.IsActive)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get wash type: %w", err)
	}
	return &w, nil
}
