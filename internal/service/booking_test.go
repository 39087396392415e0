package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/tandaclean/site/internal/domain"
)

type fakeBookingStore struct {
	customerEmails map[string]bool
	guests         map[string]*domain.GuestCustomer
	washTypes      map[uuid.UUID]*domain.WashType

	createdGuestBooking *domain.CreateGuestBookingParams
	createdAppointment  *domain.CreateAppointmentParams
	upsertedCustomer    *domain.UpsertCustomerParams
	enqueued            []domain.EnqueueEmailParams

	appointmentID uuid.UUID
	guestID       uuid.UUID
	queueID       uuid.UUID
}

func newFakeBookingStore() *fakeBookingStore {
	washID := uuid.New()
	return &fakeBookingStore{
		customerEmails: map[string]bool{},
		guests:         map[string]*domain.GuestCustomer{},
		washTypes: map[uuid.UUID]*domain.WashType{
			washID: {ID: washID, Code: "premium", NameEN: "Premium wash", IsActive: true},
		},
		appointmentID: uuid.New(),
		guestID:       uuid.New(),
		queueID:       uuid.New(),
	}
}

func (f *fakeBookingStore) washTypeID() uuid.UUID {
	for id := range f.washTypes {
		return id
	}
	return uuid.Nil
}

func (f *fakeBookingStore) CustomerEmailExists(_ context.Context, email string) (bool, error) {
	return f.customerEmails[email], nil
}

func (f *fakeBookingStore) GuestByEmail(_ context.Context, email string) (*domain.GuestCustomer, error) {
	return f.guests[email], nil
}

func (f *fakeBookingStore) CreateGuestBooking(_ context.Context, p domain.CreateGuestBookingParams) (uuid.UUID, uuid.UUID, error) {
	f.createdGuestBooking = &p
	return f.appointmentID, f.guestID, nil
}

func (f *fakeBookingStore) UpsertCustomer(_ context.Context, p domain.UpsertCustomerParams) (*domain.Customer, error) {
	f.upsertedCustomer = &p
	return &domain.Customer{ID: p.ID, Email: p.Email, FullName: p.FullName}, nil
}

func (f *fakeBookingStore) CreateAppointment(_ context.Context, p domain.CreateAppointmentParams) (uuid.UUID, error) {
	f.createdAppointment = &p
	return f.appointmentID, nil
}

func (f *fakeBookingStore) GetWashType(_ context.Context, id uuid.UUID) (*domain.WashType, error) {
	return f.washTypes[id], nil
}

func (f *fakeBookingStore) ListActiveWashTypes(_ context.Context) ([]*domain.WashType, error) {
	var out []*domain.WashType
	for _, w := range f.washTypes {
		out = append(out, w)
	}
	return out, nil
}

func (f *fakeBookingStore) EnqueueEmail(_ context.Context, p domain.EnqueueEmailParams) (uuid.UUID, error) {
	f.enqueued = append(f.enqueued, p)
	return f.queueID, nil
}

type fakeDispatch struct {
	kicked []uuid.UUID
	err    error
}

func (f *fakeDispatch) Dispatch(_ context.Context, queueID *uuid.UUID) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	if queueID != nil {
		f.kicked = append(f.kicked, *queueID)
	}
	return 1, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func validGuestParams(store *fakeBookingStore) GuestBookingParams {
	return GuestBookingParams{
		Name:              "Anna Meyer",
		Email:             "  Anna@Example.COM ",
		Phone:             "+49 151 1234567",
		WashTypeID:        store.washTypeID().String(),
		CarType:           "sedan",
		PickupLocation:    "Hauptstraße 1, Berlin",
		PreferredLanguage: "de-AT",
		Origin:            "https://tandaclean.example",
	}
}

func TestCreateGuestBooking(t *testing.T) {
	store := newFakeBookingStore()
	dispatch := &fakeDispatch{}
	svc := NewBookingService(store, dispatch, discardLogger())

	id, err := svc.CreateGuestBooking(context.Background(), validGuestParams(store))
	if err != nil {
		t.Fatalf("CreateGuestBooking() error = %v", err)
	}
	if id != store.appointmentID {
		t.Errorf("appointment id = %s, want %s", id, store.appointmentID)
	}

	got := store.createdGuestBooking
	if got == nil {
		t.Fatal("guest booking was not created")
	}
	if got.Email != "anna@example.com" {
		t.Errorf("email = %q, want normalized", got.Email)
	}
	if got.VehicleCategory != domain.VehicleCategoryCar {
		t.Errorf("vehicle category = %s, want CAR", got.VehicleCategory)
	}
	if got.PreferredLanguage != "de" {
		t.Errorf("preferred language = %q, want de", got.PreferredLanguage)
	}
	if got.TokenHash == "" || len(got.TokenHash) != 64 {
		t.Errorf("token hash = %q, want sha-256 hex", got.TokenHash)
	}
	if remaining := time.Until(got.TokenExpiresAt); remaining < 23*time.Hour || remaining > 25*time.Hour {
		t.Errorf("token expiry %v from now, want about 24h", remaining)
	}

	if len(store.enqueued) != 1 {
		t.Fatalf("enqueued = %d jobs, want 1", len(store.enqueued))
	}
	job := store.enqueued[0]
	if job.Template != domain.TemplateGuestVerification {
		t.Errorf("template = %q", job.Template)
	}
	if job.RecipientEmail != "anna@example.com" {
		t.Errorf("recipient = %q", job.RecipientEmail)
	}
	if job.AppointmentID == nil || *job.AppointmentID != store.appointmentID {
		t.Error("job must reference the appointment")
	}

	if len(dispatch.kicked) != 1 || dispatch.kicked[0] != store.queueID {
		t.Errorf("dispatch kick = %v, want [%s]", dispatch.kicked, store.queueID)
	}
}

func TestCreateGuestBookingValidation(t *testing.T) {
	store := newFakeBookingStore()
	svc := NewBookingService(store, &fakeDispatch{}, discardLogger())

	tests := []struct {
		name   string
		mutate func(*GuestBookingParams)
		field  string
	}{
		{"missing name", func(p *GuestBookingParams) { p.Name = "" }, "name"},
		{"missing email", func(p *GuestBookingParams) { p.Email = "" }, "email"},
		{"email without at sign", func(p *GuestBookingParams) { p.Email = "anna.example.com" }, "email"},
		{"missing phone", func(p *GuestBookingParams) { p.Phone = "" }, "phone"},
		{"missing wash type", func(p *GuestBookingParams) { p.WashTypeID = "" }, "washTypeId"},
		{"missing pickup location", func(p *GuestBookingParams) { p.PickupLocation = "" }, "pickupLocation"},
		{"missing car type", func(p *GuestBookingParams) { p.CarType = "" }, "carType"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := validGuestParams(store)
			tt.mutate(&params)

			_, err := svc.CreateGuestBooking(context.Background(), params)
			var ve *domain.ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("error = %v, want ValidationError", err)
			}
			if _, ok := ve.Fields[tt.field]; !ok {
				t.Errorf("fields = %v, want %q present", ve.Fields, tt.field)
			}
			if store.createdGuestBooking != nil {
				t.Error("invalid input must not create a booking")
			}
		})
	}
}

func TestCreateGuestBookingConflicts(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name    string
		prepare func(*fakeBookingStore)
		message string
	}{
		{
			"registered customer",
			func(s *fakeBookingStore) { s.customerEmails["anna@example.com"] = true },
			"Email already registered. Please sign in to book.",
		},
		{
			"verified guest",
			func(s *fakeBookingStore) {
				s.guests["anna@example.com"] = &domain.GuestCustomer{Email: "anna@example.com", VerifiedAt: &now}
			},
			"Email already registered. Please sign in to book.",
		},
		{
			"unverified guest",
			func(s *fakeBookingStore) {
				s.guests["anna@example.com"] = &domain.GuestCustomer{Email: "anna@example.com"}
			},
			"Email already registered. Please verify your email before booking again.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeBookingStore()
			tt.prepare(store)
			svc := NewBookingService(store, &fakeDispatch{}, discardLogger())

			_, err := svc.CreateGuestBooking(context.Background(), validGuestParams(store))
			if domain.ErrorCode(err) != domain.ECONFLICT {
				t.Fatalf("code = %q, want conflict (err = %v)", domain.ErrorCode(err), err)
			}
			if domain.ErrorMessage(err) != tt.message {
				t.Errorf("message = %q, want %q", domain.ErrorMessage(err), tt.message)
			}
		})
	}
}

func TestCreateGuestBookingDispatchFailureIsNotFatal(t *testing.T) {
	store := newFakeBookingStore()
	svc := NewBookingService(store, &fakeDispatch{err: errors.New("provider down")}, discardLogger())

	if _, err := svc.CreateGuestBooking(context.Background(), validGuestParams(store)); err != nil {
		t.Fatalf("CreateGuestBooking() error = %v, dispatch kick must be best effort", err)
	}
	if len(store.enqueued) != 1 {
		t.Error("job must stay enqueued for the batch pass")
	}
}

func TestCreateGuestBookingUnknownWashType(t *testing.T) {
	store := newFakeBookingStore()
	svc := NewBookingService(store, &fakeDispatch{}, discardLogger())

	params := validGuestParams(store)
	params.WashTypeID = uuid.NewString()

	_, err := svc.CreateGuestBooking(context.Background(), params)
	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("error = %v, want ValidationError", err)
	}
}

func TestCreateCustomerBooking(t *testing.T) {
	store := newFakeBookingStore()
	svc := NewBookingService(store, &fakeDispatch{}, discardLogger())

	userID := uuid.New()
	requested := time.Now().Add(48 * time.Hour)
	id, err := svc.CreateCustomerBooking(context.Background(), CustomerBookingParams{
		UserID:            userID,
		Email:             "Anna@Example.com",
		Name:              "Anna Meyer",
		Phone:             "+49 151 1234567",
		WashTypeID:        store.washTypeID().String(),
		CarType:           "bus",
		PickupLocation:    "Hauptstraße 1, Berlin",
		PreferredLanguage: "de",
		RequestedAt:       &requested,
	})
	if err != nil {
		t.Fatalf("CreateCustomerBooking() error = %v", err)
	}
	if id != store.appointmentID {
		t.Errorf("appointment id = %s", id)
	}

	if store.upsertedCustomer == nil || store.upsertedCustomer.ID != userID {
		t.Fatal("customer must be upserted with the identity's user id")
	}
	if store.upsertedCustomer.Email != "anna@example.com" {
		t.Errorf("upserted email = %q, want normalized", store.upsertedCustomer.Email)
	}

	appt := store.createdAppointment
	if appt == nil {
		t.Fatal("appointment was not created")
	}
	if appt.VehicleCategory != domain.VehicleCategoryBus {
		t.Errorf("vehicle category = %s, want BUS_8_SEATS", appt.VehicleCategory)
	}
	if appt.ScheduledAt == nil || !appt.ScheduledAt.Equal(requested) {
		t.Error("requested slot must be stored on the appointment")
	}

	if len(store.enqueued) != 0 {
		t.Error("customer booking must not send email at creation time")
	}
}

func TestCreateCustomerBookingRequiresIdentity(t *testing.T) {
	store := newFakeBookingStore()
	svc := NewBookingService(store, &fakeDispatch{}, discardLogger())

	_, err := svc.CreateCustomerBooking(context.Background(), CustomerBookingParams{})
	if domain.ErrorCode(err) != domain.EUNAUTHORIZED {
		t.Errorf("code = %q, want unauthorized", domain.ErrorCode(err))
	}
}
