package domain

import (
	"time"

	"github.com/google/uuid"
)

// Guest verification token parameters. Only the SHA-256 hash of the
// token is stored; the raw value appears once, inside the verification
// link emailed to the guest.
const (
	GuestVerificationTokenDuration = 24 * time.Hour
	TokenBytes                     = 32
)

// GuestVerificationToken mirrors a stored token row.
type GuestVerificationToken struct {
	ID         uuid.UUID
	GuestID    uuid.UUID
	TokenHash  string
	ExpiresAt  time.Time
	ConsumedAt *time.Time
	CreatedAt  time.Time
}

// Expired reports whether the token is past its expiry at the given instant.
func (t *GuestVerificationToken) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

// CreateGuestBookingParams contains everything the atomic guest-booking
// procedure writes: the guest record, the pending appointment, and the
// hashed verification token.
type CreateGuestBookingParams struct {
	FullName          string
	Phone             string
	Email             string // Already normalized
	PreferredLanguage string
	WashTypeID        uuid.UUID
	VehicleCategory   VehicleCategory
	PickupAddress     string
	PickupLat         *float64
	PickupLng         *float64
	Notes             string
	TokenHash         string
	TokenExpiresAt    time.Time
}
