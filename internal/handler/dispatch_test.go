package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
)

type mockDispatcher struct {
	DispatchFunc func(ctx context.Context, queueID *uuid.UUID) (int, error)
}

func (m *mockDispatcher) Dispatch(ctx context.Context, queueID *uuid.UUID) (int, error) {
	return m.DispatchFunc(ctx, queueID)
}

func TestDispatchHandlerBatch(t *testing.T) {
	var gotID *uuid.UUID
	h := NewDispatchHandler(&mockDispatcher{
		DispatchFunc: func(_ context.Context, queueID *uuid.UUID) (int, error) {
			gotID = queueID
			return 3, nil
		},
	}, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/email/dispatch", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	h.Dispatch(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if gotID != nil {
		t.Error("empty body must mean a batch pass")
	}

	var resp struct {
		Success   bool `json:"success"`
		Processed int  `json:"processed"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Success || resp.Processed != 3 {
		t.Errorf("response = %+v", resp)
	}
}

func TestDispatchHandlerTargeted(t *testing.T) {
	queueID := uuid.New()
	var gotID *uuid.UUID
	h := NewDispatchHandler(&mockDispatcher{
		DispatchFunc: func(_ context.Context, id *uuid.UUID) (int, error) {
			gotID = id
			return 1, nil
		},
	}, testLogger())

	body := `{"queueId":"` + queueID.String() + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/email/dispatch", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Dispatch(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if gotID == nil || *gotID != queueID {
		t.Errorf("queue id = %v, want %s", gotID, queueID)
	}
}

func TestDispatchHandlerInvalidQueueID(t *testing.T) {
	h := NewDispatchHandler(&mockDispatcher{
		DispatchFunc: func(context.Context, *uuid.UUID) (int, error) {
			t.Fatal("dispatcher must not run for an invalid id")
			return 0, nil
		},
	}, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/email/dispatch", strings.NewReader(`{"queueId":"nope"}`))
	rec := httptest.NewRecorder()
	h.Dispatch(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestDispatchHandlerEmptyBody(t *testing.T) {
	h := NewDispatchHandler(&mockDispatcher{
		DispatchFunc: func(_ context.Context, queueID *uuid.UUID) (int, error) {
			if queueID != nil {
				t.Error("absent body must mean a batch pass")
			}
			return 0, nil
		},
	}, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/email/dispatch", nil)
	rec := httptest.NewRecorder()
	h.Dispatch(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
}
