// Package domain contains core business types and interfaces.
//
// This file defines the two kinds of bookers: registered customers
// (backed by an account at the hosted auth platform) and guest
// customers created from the public booking form.
package domain

import (
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/language"
)

// Customer represents a registered user who books through their account.
// The ID is the auth platform's user id; the record is upserted on every
// authenticated booking and never deleted here.
type Customer struct {
	ID                uuid.UUID
	FullName          string
	Phone             string
	Email             string
	PreferredLanguage string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// GuestCustomer represents an unregistered booker created by the guest
// booking flow. VerifiedAt stays nil until the guest clicks the
// verification link; once set it is never cleared.
type GuestCustomer struct {
	ID                uuid.UUID
	FullName          string
	Phone             string
	Email             string
	PreferredLanguage string
	VerifiedAt        *time.Time
	CreatedAt         time.Time
}

// IsVerified returns true once the guest has confirmed their email.
func (g *GuestCustomer) IsVerified() bool {
	return g.VerifiedAt != nil
}

// UpsertCustomerParams contains parameters for the identity-keyed
// customer upsert performed on every authenticated booking.
type UpsertCustomerParams struct {
	ID                uuid.UUID // Auth platform user id
	FullName          string
	Phone             string
	Email             string
	PreferredLanguage string
}

// The site ships in English and German; anything else falls back to English.
var languageMatcher = language.NewMatcher([]language.Tag{
	language.English,
	language.German,
})

// NormalizeLanguage maps an arbitrary language tag ("de-AT", "en_US", "")
// onto one of the supported site languages.
func NormalizeLanguage(tag string) string {
	if tag == "" {
		return "en"
	}
	t, err := language.Parse(tag)
	if err != nil {
		return "en"
	}
	_, index, _ := languageMatcher.Match(t)
	if index == 1 {
		return "de"
	}
	return "en"
}
