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

const emailQueueColumns = `
	id, recipient_email, template, payload, appointment_id, guest_customer_id,
	status, attempts, send_after, last_attempt_at, last_error, created_at`

func scanEmailQueueItem(row pgx.Row) (*domain.EmailQueueItem, error) {
	var item domain.EmailQueueItem
	err := row.Scan(
		&item.ID,
		&item.RecipientEmail,
		&item.Template,
		&item.Payload,
		&item.AppointmentID,
		&item.GuestID,
		&item.Status,
		&item.Attempts,
		&item.SendAfter,
		&item.LastAttemptAt,
		&item.LastError,
		&item.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// EnqueueEmail inserts a pending outbox job and returns its id.
func (s *Store) EnqueueEmail(ctx context.Context, p domain.EnqueueEmailParams) (uuid.UUID, error) {
	var id uuid.UUID
	err := s.pool.QueryRow(ctx, `
		INSERT INTO email_queue
			(recipient_email, template, payload, appointment_id, guest_customer_id, send_after)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, p.RecipientEmail, p.Template, p.Payload, p.AppointmentID, p.GuestID, p.SendAfter).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("enqueue email: %w", err)
	}
	return id, nil
}

// PendingEmailByID loads one outbox job regardless of status. Returns
// (nil, nil) when it does not exist.
func (s *Store) PendingEmailByID(ctx context.Context, id uuid.UUID) (*domain.EmailQueueItem, error) {
	item, err := scanEmailQueueItem(s.pool.QueryRow(ctx, `
		SELECT`+emailQueueColumns+`
		FROM email_queue
		WHERE id = $1
	`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get email job: %w", err)
	}
	return item, nil
}

// DispatchableEmails selects up to limit pending jobs whose deferral,
// if any, has elapsed. Oldest first so enqueue order is respected.
func (s *Store) DispatchableEmails(ctx context.Context, limit int) ([]*domain.EmailQueueItem, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT`+emailQueueColumns+`
		FROM email_queue
		WHERE status = 'pending'
		  AND (send_after IS NULL OR send_after <= now())
		ORDER BY created_at
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("select dispatchable emails: %w", err)
	}
	defer rows.Close()

	var items []*domain.EmailQueueItem
	for rows.Next() {
		item, err := scanEmailQueueItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan email job: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("select dispatchable emails: %w", err)
	}
	return items, nil
}

// ClaimEmail attempts the pending -> sending transition, incrementing
// attempts and stamping last_attempt_at before any send happens. A
// false return means another dispatcher got there first; the caller
// must skip the job.
func (s *Store) ClaimEmail(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE email_queue
		SET status = 'sending',
			attempts = attempts + 1,
			last_attempt_at = now()
		WHERE id = $1 AND status = 'pending'
	`, id)
	if err != nil {
		return false, fmt.Errorf("claim email job: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// MarkEmailSent finalizes a delivered job, clears any stale error, and
// stamps last_attempt_at with the completion time.
func (s *Store) MarkEmailSent(ctx context.Context, id uuid.UUID) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE email_queue
		SET status = 'sent',
			last_error = NULL,
			last_attempt_at = now()
		WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("mark email sent: %w", err)
	}
	return nil
}

// MarkEmailFailed records a delivery failure with the provider's
// message and stamps last_attempt_at with the completion time.
func (s *Store) MarkEmailFailed(ctx context.Context, id uuid.UUID, message string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE email_queue
		SET status = 'failed',
			last_error = $2,
			last_attempt_at = now()
		WHERE id = $1
	`, id, message)
	if err != nil {
		return fmt.Errorf("mark email failed: %w", err)
	}
	return nil
}

// LogEmailSent appends the email_sent audit entry for a delivered job
// tied to an appointment.
func (s *Store) LogEmailSent(ctx context.Context, appointmentID uuid.UUID, recipient, template string) error {
	return s.AppendLog(ctx, domain.AppendLogParams{
		AppointmentID: appointmentID,
		ActorType:     domain.ActorSystem,
		Action:        domain.ActionEmailSent,
		Message:       fmt.Sprintf("Email %s sent", template),
		Meta: map[string]any{
			"template":  template,
			"recipient": recipient,
		},
	})
}

// RequeueFailedEmails moves failed jobs below the attempt ceiling back
// to pending, deferred past the cooldown. Returns how many were moved.
func (s *Store) RequeueFailedEmails(ctx context.Context, maxAttempts int, notBefore time.Time) (int, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE email_queue
		SET status = 'pending', send_after = $2
		WHERE status = 'failed' AND attempts < $1
	`, maxAttempts, notBefore)
	if err != nil {
		return 0, fmt.Errorf("requeue failed emails: %w", err)
	}
	return int(tag.RowsAffected()), nil
}
