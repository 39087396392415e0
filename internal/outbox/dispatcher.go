package outbox

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tandaclean/site/internal/domain"
	"github.com/tandaclean/site/internal/email"
	"github.com/tandaclean/site/internal/metrics"
)

// QueueStore is the persistence surface the dispatcher needs.
// *repository.Store satisfies it.
type QueueStore interface {
	PendingEmailByID(ctx context.Context, id uuid.UUID) (*domain.EmailQueueItem, error)
	DispatchableEmails(ctx context.Context, limit int) ([]*domain.EmailQueueItem, error)
	ClaimEmail(ctx context.Context, id uuid.UUID) (bool, error)
	MarkEmailSent(ctx context.Context, id uuid.UUID) error
	MarkEmailFailed(ctx context.Context, id uuid.UUID, message string) error
	LogEmailSent(ctx context.Context, appointmentID uuid.UUID, recipient, template string) error
	RequeueFailedEmails(ctx context.Context, maxAttempts int, notBefore time.Time) (int, error)
}

// RetryConfig controls the optional failed-job requeue pass. Disabled
// by default; jobs then stay failed until someone looks at them.
type RetryConfig struct {
	Enabled     bool
	MaxAttempts int
	Cooldown    time.Duration
}

// Dispatcher drains the email outbox. Jobs are processed sequentially;
// the conditional claim update is the only coordination between
// concurrent invocations.
type Dispatcher struct {
	store  QueueStore
	sender email.Sender
	logger *slog.Logger
	retry  RetryConfig
}

// NewDispatcher creates a dispatcher over the given store and sender.
func NewDispatcher(store QueueStore, sender email.Sender, logger *slog.Logger, retry RetryConfig) *Dispatcher {
	return &Dispatcher{
		store:  store,
		sender: sender,
		logger: logger,
		retry:  retry,
	}
}

// Dispatch processes outbox jobs and returns how many were delivered.
//
// With a queue id it targets that single job; otherwise it drains up to
// DispatchBatchSize pending jobs whose deferral has elapsed, oldest
// first. One bad job never stops the rest of the batch.
func (d *Dispatcher) Dispatch(ctx context.Context, queueID *uuid.UUID) (int, error) {
	start := time.Now()
	defer func() {
		metrics.DispatchDuration.Observe(time.Since(start).Seconds())
	}()

	var (
		items []*domain.EmailQueueItem
		err   error
	)
	if queueID != nil {
		item, err := d.store.PendingEmailByID(ctx, *queueID)
		if err != nil {
			return 0, err
		}
		if item != nil && item.Status == domain.QueueStatusPending {
			items = append(items, item)
		}
	} else {
		items, err = d.store.DispatchableEmails(ctx, domain.DispatchBatchSize)
		if err != nil {
			return 0, err
		}
	}

	processed := 0
	for _, item := range items {
		if d.dispatchOne(ctx, item) {
			processed++
		}
	}
	return processed, nil
}

// dispatchOne claims, renders, and sends one job. Returns true only for
// a delivered email.
func (d *Dispatcher) dispatchOne(ctx context.Context, item *domain.EmailQueueItem) bool {
	claimed, err := d.store.ClaimEmail(ctx, item.ID)
	if err != nil {
		d.logger.Error("failed to claim email job", "queue_id", item.ID, "error", err)
		return false
	}
	if !claimed {
		// Another dispatcher got there first
		metrics.EmailsDispatched.WithLabelValues(item.Template, "skipped").Inc()
		return false
	}

	subject, html := Render(item.Template, item.Payload)

	if sendErr := d.sender.Send(ctx, email.Message{
		To:      item.RecipientEmail,
		Subject: subject,
		HTML:    html,
	}); sendErr != nil {
		var derr *domain.Error
		if !errors.As(sendErr, &derr) {
			derr = domain.Delivery(sendErr, "outbox.dispatch", sendErr.Error())
		}
		if markErr := d.store.MarkEmailFailed(ctx, item.ID, derr.Message); markErr != nil {
			d.logger.Error("failed to record email failure", "queue_id", item.ID, "error", markErr)
		}
		d.logger.Warn("email delivery failed",
			"queue_id", item.ID,
			"template", item.Template,
			"attempts", item.Attempts+1,
			"error", derr)
		metrics.EmailsDispatched.WithLabelValues(item.Template, "failed").Inc()
		return false
	}

	if err := d.store.MarkEmailSent(ctx, item.ID); err != nil {
		d.logger.Error("failed to finalize sent email", "queue_id", item.ID, "error", err)
	}
	if item.AppointmentID != nil {
		if err := d.store.LogEmailSent(ctx, *item.AppointmentID, item.RecipientEmail, item.Template); err != nil {
			d.logger.Error("failed to append email_sent log", "queue_id", item.ID, "error", err)
		}
	}

	d.logger.Info("email dispatched",
		"queue_id", item.ID,
		"template", item.Template,
		"recipient", item.RecipientEmail)
	metrics.EmailsDispatched.WithLabelValues(item.Template, "sent").Inc()
	return true
}

// RequeueFailed returns eligible failed jobs to pending, deferred past
// the cooldown. No-op unless retries are enabled.
func (d *Dispatcher) RequeueFailed(ctx context.Context) (int, error) {
	if !d.retry.Enabled {
		return 0, nil
	}
	n, err := d.store.RequeueFailedEmails(ctx, d.retry.MaxAttempts, time.Now().Add(d.retry.Cooldown))
	if err != nil {
		return 0, err
	}
	if n > 0 {
		d.logger.Info("requeued failed email jobs", "count", n)
		metrics.EmailsRequeued.Add(float64(n))
	}
	return n, nil
}
