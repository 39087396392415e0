package domain

import (
	"time"

	"github.com/google/uuid"
)

// QueueStatus is the outbox job lifecycle state.
//
// pending -> sending -> sent | failed. A failed job only re-enters
// pending through the explicitly enabled requeue pass.
type QueueStatus string

const (
	QueueStatusPending QueueStatus = "pending"
	QueueStatusSending QueueStatus = "sending"
	QueueStatusSent    QueueStatus = "sent"
	QueueStatusFailed  QueueStatus = "failed"
)

// Notification template names. The outbox renders only these; anything
// else gets the generic fallback.
const (
	TemplateGuestVerification    = "guest_verification"
	TemplateAppointmentConfirmed = "appointment_confirmed"
)

// DispatchBatchSize caps how many pending jobs one batch pass picks up.
const DispatchBatchSize = 10

// EmailQueueItem is one outbox job. Payload holds the template's
// rendering data as stored JSON.
type EmailQueueItem struct {
	ID             uuid.UUID
	RecipientEmail string
	Template       string
	Payload        []byte
	AppointmentID  *uuid.UUID
	GuestID        *uuid.UUID
	Status         QueueStatus
	Attempts       int
	SendAfter      *time.Time
	LastAttemptAt  *time.Time
	LastError      *string
	CreatedAt      time.Time
}

// Dispatchable reports whether the job is eligible for a batch pass at
// the given instant: pending, and not deferred into the future.
func (e *EmailQueueItem) Dispatchable(now time.Time) bool {
	if e.Status != QueueStatusPending {
		return false
	}
	return e.SendAfter == nil || !e.SendAfter.After(now)
}

// EnqueueEmailParams contains parameters for inserting an outbox job.
type EnqueueEmailParams struct {
	RecipientEmail string
	Template       string
	Payload        []byte
	AppointmentID  *uuid.UUID
	GuestID        *uuid.UUID
	SendAfter      *time.Time
}
