package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tandaclean/site/internal/domain"
)

// AppendLog inserts one audit entry. Meta, when present, is stored as
// JSONB. Log rows are append-only and never touched again.
func (s *Store) AppendLog(ctx context.Context, p domain.AppendLogParams) error {
	var meta []byte
	if len(p.Meta) > 0 {
		var err error
		meta, err = json.Marshal(p.Meta)
		if err != nil {
			return fmt.Errorf("marshal log meta: %w", err)
		}
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO appointment_logs (appointment_id, actor_type, actor_id, action, message, meta)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, p.AppointmentID, p.ActorType, p.ActorID, p.Action, p.Message, meta)
	if err != nil {
		return fmt.Errorf("append log: %w", err)
	}
	return nil
}
