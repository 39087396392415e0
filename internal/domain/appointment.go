// Package domain contains core business types and interfaces.
//
// This file defines the Appointment aggregate: the booking request
// itself, its owner (exactly one of Customer or GuestCustomer), its
// status lifecycle, and the append-only audit log.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// Vehicle Categories
// =============================================================================

// VehicleCategory is the closed set of vehicle classes a booking can be
// priced against. The public form submits a free tag; only "bus" maps to
// the larger category, everything else is a car.
type VehicleCategory string

const (
	VehicleCategoryCar VehicleCategory = "CAR"
	VehicleCategoryBus VehicleCategory = "BUS_8_SEATS"
)

// VehicleCategoryForTag maps the booking form's car-type tag onto a category.
func VehicleCategoryForTag(tag string) VehicleCategory {
	if tag == "bus" {
		return VehicleCategoryBus
	}
	return VehicleCategoryCar
}

// Label returns the human-readable category name.
func (v VehicleCategory) Label() string {
	if v == VehicleCategoryBus {
		return "8-seat bus"
	}
	return "car"
}

// =============================================================================
// Appointment Status
// =============================================================================

// AppointmentStatus is the booking lifecycle state.
//
// pending -> assigned -> completed, with cancelled reachable from
// pending or assigned.
type AppointmentStatus string

const (
	AppointmentStatusPending   AppointmentStatus = "pending"
	AppointmentStatusAssigned  AppointmentStatus = "assigned"
	AppointmentStatusCompleted AppointmentStatus = "completed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
)

// IsValid returns true for a known status value.
func (s AppointmentStatus) IsValid() bool {
	switch s {
	case AppointmentStatusPending, AppointmentStatusAssigned,
		AppointmentStatusCompleted, AppointmentStatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether the lifecycle permits moving to next.
func (s AppointmentStatus) CanTransitionTo(next AppointmentStatus) bool {
	switch s {
	case AppointmentStatusPending:
		return next == AppointmentStatusAssigned || next == AppointmentStatusCancelled
	case AppointmentStatusAssigned:
		return next == AppointmentStatusCompleted || next == AppointmentStatusCancelled
	}
	return false
}

// =============================================================================
// Appointment Owner
// =============================================================================

// OwnerKind discriminates the two possible owners of an appointment.
type OwnerKind string

const (
	OwnerKindCustomer OwnerKind = "customer"
	OwnerKindGuest    OwnerKind = "guest"
)

// Owner is a tagged union over Customer and GuestCustomer. Exactly one
// of the two is set; the constructors below are the only way to build
// one, which keeps "both set" and "neither set" unrepresentable.
type Owner struct {
	kind     OwnerKind
	customer *Customer
	guest    *GuestCustomer
}

// CustomerOwner builds an Owner around a registered customer.
func CustomerOwner(c *Customer) Owner {
	return Owner{kind: OwnerKindCustomer, customer: c}
}

// GuestOwner builds an Owner around a guest customer.
func GuestOwner(g *GuestCustomer) Owner {
	return Owner{kind: OwnerKindGuest, guest: g}
}

// Kind returns the owner discriminant.
func (o Owner) Kind() OwnerKind {
	return o.kind
}

// IsGuest returns true when the appointment belongs to a guest.
func (o Owner) IsGuest() bool {
	return o.kind == OwnerKindGuest
}

// Guest returns the guest record, or nil for customer-owned appointments.
func (o Owner) Guest() *GuestCustomer {
	return o.guest
}

// Customer returns the customer record, or nil for guest-owned appointments.
func (o Owner) Customer() *Customer {
	return o.customer
}

// DisplayName resolves the booker's name for emails and the dashboard.
func (o Owner) DisplayName() string {
	switch o.kind {
	case OwnerKindCustomer:
		if o.customer != nil && o.customer.FullName != "" {
			return o.customer.FullName
		}
	case OwnerKindGuest:
		if o.guest != nil && o.guest.FullName != "" {
			return o.guest.FullName
		}
	}
	return "Client"
}

// Email resolves the booker's email, or "" if none is on record.
func (o Owner) Email() string {
	switch o.kind {
	case OwnerKindCustomer:
		if o.customer != nil {
			return o.customer.Email
		}
	case OwnerKindGuest:
		if o.guest != nil {
			return o.guest.Email
		}
	}
	return ""
}

// Verified reports whether the owner may receive an assignment. Customer
// owners are always verified; guest owners only after email verification.
func (o Owner) Verified() bool {
	if o.kind == OwnerKindGuest {
		return o.guest != nil && o.guest.IsVerified()
	}
	return true
}

// =============================================================================
// Appointment
// =============================================================================

// Appointment is a cleaning booking request.
type Appointment struct {
	ID              uuid.UUID
	Owner           Owner
	WashTypeID      uuid.UUID
	WashTypeName    string // Joined from wash_types for display and emails
	VehicleCategory VehicleCategory
	PickupAddress   string
	PickupLat       *float64
	PickupLng       *float64
	ScheduledAt     *time.Time // nil until assigned (requested slot for account bookings)
	Status          AppointmentStatus
	AssignedStaff   string
	Notes           string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// WashType is a bookable service, seeded by migration and managed out of band.
type WashType struct {
	ID       uuid.UUID
	Code     string
	NameEN   string
	NameDE   string
	IsActive bool
}

// CreateAppointmentParams contains parameters for inserting a pending
// appointment owned by a registered customer.
type CreateAppointmentParams struct {
	CustomerID      uuid.UUID
	WashTypeID      uuid.UUID
	VehicleCategory VehicleCategory
	PickupAddress   string
	PickupLat       *float64
	PickupLng       *float64
	ScheduledAt     *time.Time // Requested slot from the booking form, if any
	Notes           string
}

// =============================================================================
// Audit Log
// =============================================================================

// ActorType identifies who performed a logged action.
type ActorType string

const (
	ActorSystem ActorType = "system"
	ActorAdmin  ActorType = "admin"
	ActorClient ActorType = "client"
)

// Action codes for the appointment audit trail.
const (
	ActionBookingCreated       = "booking_created"
	ActionAppointmentAssigned  = "appointment_assigned"
	ActionAppointmentCompleted = "appointment_completed"
	ActionAppointmentCancelled = "appointment_cancelled"
	ActionEmailSent            = "email_sent"
)

// AppointmentLog is one append-only audit entry. Rows are never mutated
// or deleted.
type AppointmentLog struct {
	ID            uuid.UUID
	AppointmentID uuid.UUID
	ActorType     ActorType
	ActorID       *uuid.UUID
	Action        string
	Message       string
	Meta          map[string]any
	CreatedAt     time.Time
}

// AppendLogParams contains parameters for appending an audit entry.
type AppendLogParams struct {
	AppointmentID uuid.UUID
	ActorType     ActorType
	ActorID       *uuid.UUID
	Action        string
	Message       string
	Meta          map[string]any
}
