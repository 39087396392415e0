package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/tandaclean/site/internal/domain"
	"github.com/tandaclean/site/internal/outbox"
)

type fakeAssignmentStore struct {
	appointments map[uuid.UUID]*domain.Appointment

	assigned      bool
	assignedAt    time.Time
	assignedStaff string
	statusUpdates []domain.AppointmentStatus
	logs          []domain.AppendLogParams
	enqueued      []domain.EnqueueEmailParams
	queueID       uuid.UUID
}

func newFakeAssignmentStore(appts ...*domain.Appointment) *fakeAssignmentStore {
	s := &fakeAssignmentStore{
		appointments: map[uuid.UUID]*domain.Appointment{},
		queueID:      uuid.New(),
	}
	for _, a := range appts {
		s.appointments[a.ID] = a
	}
	return s
}

func (f *fakeAssignmentStore) AppointmentByID(_ context.Context, id uuid.UUID) (*domain.Appointment, error) {
	return f.appointments[id], nil
}

func (f *fakeAssignmentStore) ListAppointments(_ context.Context) ([]*domain.Appointment, error) {
	var out []*domain.Appointment
	for _, a := range f.appointments {
		out = append(out, a)
	}
	return out, nil
}

func (f *fakeAssignmentStore) AssignAppointment(_ context.Context, _ uuid.UUID, scheduledAt time.Time, staff string) error {
	f.assigned = true
	f.assignedAt = scheduledAt
	f.assignedStaff = staff
	return nil
}

func (f *fakeAssignmentStore) UpdateAppointmentStatus(_ context.Context, _ uuid.UUID, status domain.AppointmentStatus) error {
	f.statusUpdates = append(f.statusUpdates, status)
	return nil
}

func (f *fakeAssignmentStore) AppendLog(_ context.Context, p domain.AppendLogParams) error {
	f.logs = append(f.logs, p)
	return nil
}

func (f *fakeAssignmentStore) EnqueueEmail(_ context.Context, p domain.EnqueueEmailParams) (uuid.UUID, error) {
	f.enqueued = append(f.enqueued, p)
	return f.queueID, nil
}

func verifiedGuestAppointment() *domain.Appointment {
	now := time.Now()
	return &domain.Appointment{
		ID: uuid.New(),
		Owner: domain.GuestOwner(&domain.GuestCustomer{
			ID:         uuid.New(),
			FullName:   "Tomas Weber",
			Email:      "tomas@example.com",
			VerifiedAt: &now,
		}),
		WashTypeName:  "Premium wash",
		PickupAddress: "Kirchweg 5, Hamburg",
		Status:        domain.AppointmentStatusPending,
	}
}

func validAssign(appt *domain.Appointment) AssignParams {
	return AssignParams{
		AdminID:       uuid.New(),
		AppointmentID: appt.ID,
		Date:          "2026-09-12",
		Time:          "09:00",
		Staff:         "Lena",
	}
}

func TestAssign(t *testing.T) {
	appt := verifiedGuestAppointment()
	store := newFakeAssignmentStore(appt)
	dispatch := &fakeDispatch{}
	svc := NewAssignmentService(store, dispatch, discardLogger())

	p := validAssign(appt)
	if err := svc.Assign(context.Background(), p); err != nil {
		t.Fatalf("Assign() error = %v", err)
	}

	if !store.assigned {
		t.Fatal("appointment was not assigned")
	}
	if store.assignedStaff != "Lena" {
		t.Errorf("staff = %q", store.assignedStaff)
	}
	if got := store.assignedAt.Format("2006-01-02 15:04"); got != "2026-09-12 09:00" {
		t.Errorf("scheduled at = %q", got)
	}

	if len(store.logs) != 1 {
		t.Fatalf("logs = %d, want 1", len(store.logs))
	}
	log := store.logs[0]
	if log.Action != domain.ActionAppointmentAssigned {
		t.Errorf("action = %q", log.Action)
	}
	if log.ActorType != domain.ActorAdmin || log.ActorID == nil || *log.ActorID != p.AdminID {
		t.Error("log must carry the admin identity")
	}
	if log.Meta["assigned_staff"] != "Lena" {
		t.Errorf("meta = %v", log.Meta)
	}

	if len(store.enqueued) != 1 {
		t.Fatalf("enqueued = %d jobs, want 1", len(store.enqueued))
	}
	job := store.enqueued[0]
	if job.Template != domain.TemplateAppointmentConfirmed {
		t.Errorf("template = %q", job.Template)
	}
	if job.RecipientEmail != "tomas@example.com" {
		t.Errorf("recipient = %q", job.RecipientEmail)
	}

	var payload outbox.AppointmentConfirmedPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if payload.Name != "Tomas Weber" {
		t.Errorf("payload name = %q", payload.Name)
	}
	if payload.ServiceName != "Premium wash" {
		t.Errorf("payload service = %q", payload.ServiceName)
	}
	if payload.AssignedStaff != "Lena" {
		t.Errorf("payload staff = %q", payload.AssignedStaff)
	}
	if payload.ScheduledAt == "" {
		t.Error("payload must carry a human-readable pickup time")
	}

	if len(dispatch.kicked) != 1 {
		t.Error("assignment must kick a targeted dispatch")
	}
}

func TestAssignStaffFallback(t *testing.T) {
	appt := verifiedGuestAppointment()
	store := newFakeAssignmentStore(appt)
	svc := NewAssignmentService(store, &fakeDispatch{}, discardLogger())

	p := validAssign(appt)
	p.Staff = ""
	if err := svc.Assign(context.Background(), p); err != nil {
		t.Fatalf("Assign() error = %v", err)
	}

	var payload outbox.AppointmentConfirmedPayload
	if err := json.Unmarshal(store.enqueued[0].Payload, &payload); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if payload.AssignedStaff != "T&A team" {
		t.Errorf("payload staff = %q, want the team fallback", payload.AssignedStaff)
	}
}

func TestAssignValidation(t *testing.T) {
	appt := verifiedGuestAppointment()

	tests := []struct {
		name    string
		mutate  func(*AssignParams)
		message string
	}{
		{"missing date", func(p *AssignParams) { p.Date = "" }, "Please select both a pickup date and time."},
		{"missing time", func(p *AssignParams) { p.Time = "" }, "Please select both a pickup date and time."},
		{"garbage date", func(p *AssignParams) { p.Date = "12.09.2026" }, "The selected date or time is invalid."},
		{"garbage time", func(p *AssignParams) { p.Time = "morning" }, "The selected date or time is invalid."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeAssignmentStore(appt)
			svc := NewAssignmentService(store, &fakeDispatch{}, discardLogger())

			p := validAssign(appt)
			tt.mutate(&p)

			err := svc.Assign(context.Background(), p)
			if domain.ErrorCode(err) != domain.EINVALID {
				t.Fatalf("code = %q, want invalid", domain.ErrorCode(err))
			}
			if domain.ErrorMessage(err) != tt.message {
				t.Errorf("message = %q, want %q", domain.ErrorMessage(err), tt.message)
			}
			if store.assigned {
				t.Error("invalid input must not assign")
			}
		})
	}
}

func TestAssignGuards(t *testing.T) {
	unverified := verifiedGuestAppointment()
	unverified.Owner = domain.GuestOwner(&domain.GuestCustomer{
		ID:    uuid.New(),
		Email: "tomas@example.com",
	})

	noEmail := verifiedGuestAppointment()
	now := time.Now()
	noEmail.Owner = domain.GuestOwner(&domain.GuestCustomer{
		ID:         uuid.New(),
		VerifiedAt: &now,
	})

	tests := []struct {
		name    string
		appt    *domain.Appointment
		message string
	}{
		{"unverified guest", unverified, "Guest email is not verified yet."},
		{"missing email", noEmail, "Missing client email address."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeAssignmentStore(tt.appt)
			svc := NewAssignmentService(store, &fakeDispatch{}, discardLogger())

			err := svc.Assign(context.Background(), validAssign(tt.appt))
			if domain.ErrorCode(err) != domain.EPRECONDITION {
				t.Fatalf("code = %q, want precondition", domain.ErrorCode(err))
			}
			if domain.ErrorMessage(err) != tt.message {
				t.Errorf("message = %q, want %q", domain.ErrorMessage(err), tt.message)
			}
			if store.assigned || len(store.enqueued) != 0 {
				t.Error("guard failure must stop the whole assignment")
			}
		})
	}
}

func TestAssignRejectsNonPending(t *testing.T) {
	appt := verifiedGuestAppointment()
	appt.Status = domain.AppointmentStatusCompleted
	store := newFakeAssignmentStore(appt)
	svc := NewAssignmentService(store, &fakeDispatch{}, discardLogger())

	err := svc.Assign(context.Background(), validAssign(appt))
	if domain.ErrorCode(err) != domain.EINVALID {
		t.Errorf("code = %q, want invalid", domain.ErrorCode(err))
	}
}

func TestAssignUnknownAppointment(t *testing.T) {
	store := newFakeAssignmentStore()
	svc := NewAssignmentService(store, &fakeDispatch{}, discardLogger())

	p := validAssign(&domain.Appointment{ID: uuid.New()})
	err := svc.Assign(context.Background(), p)
	if domain.ErrorCode(err) != domain.ENOTFOUND {
		t.Errorf("code = %q, want not_found", domain.ErrorCode(err))
	}
}

func TestCompleteAndCancel(t *testing.T) {
	adminID := uuid.New()

	t.Run("complete assigned", func(t *testing.T) {
		appt := verifiedGuestAppointment()
		appt.Status = domain.AppointmentStatusAssigned
		store := newFakeAssignmentStore(appt)
		svc := NewAssignmentService(store, &fakeDispatch{}, discardLogger())

		if err := svc.Complete(context.Background(), adminID, appt.ID); err != nil {
			t.Fatalf("Complete() error = %v", err)
		}
		if len(store.statusUpdates) != 1 || store.statusUpdates[0] != domain.AppointmentStatusCompleted {
			t.Errorf("status updates = %v", store.statusUpdates)
		}
		if len(store.logs) != 1 || store.logs[0].Action != domain.ActionAppointmentCompleted {
			t.Errorf("logs = %v", store.logs)
		}
	})

	t.Run("complete pending is rejected", func(t *testing.T) {
		appt := verifiedGuestAppointment()
		store := newFakeAssignmentStore(appt)
		svc := NewAssignmentService(store, &fakeDispatch{}, discardLogger())

		err := svc.Complete(context.Background(), adminID, appt.ID)
		if domain.ErrorCode(err) != domain.EINVALID {
			t.Errorf("code = %q, want invalid", domain.ErrorCode(err))
		}
	})

	t.Run("cancel pending", func(t *testing.T) {
		appt := verifiedGuestAppointment()
		store := newFakeAssignmentStore(appt)
		svc := NewAssignmentService(store, &fakeDispatch{}, discardLogger())

		if err := svc.Cancel(context.Background(), adminID, appt.ID); err != nil {
			t.Fatalf("Cancel() error = %v", err)
		}
		if len(store.logs) != 1 || store.logs[0].Action != domain.ActionAppointmentCancelled {
			t.Errorf("logs = %v", store.logs)
		}
	})

	t.Run("cancel completed is rejected", func(t *testing.T) {
		appt := verifiedGuestAppointment()
		appt.Status = domain.AppointmentStatusCompleted
		store := newFakeAssignmentStore(appt)
		svc := NewAssignmentService(store, &fakeDispatch{}, discardLogger())

		err := svc.Cancel(context.Background(), adminID, appt.ID)
		if domain.ErrorCode(err) != domain.EINVALID {
			t.Errorf("code = %q, want invalid", domain.ErrorCode(err))
		}
	})
}
