package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/lucasferr-dev/zapagenda/internal/booking"
	"github.com/lucasferr-dev/zapagenda/internal/config"
	"github.com/lucasferr-dev/zapagenda/internal/model"
)

type memStore struct {
	appts []model.Appointment
}

func (s *memStore) Load(context.Context) ([]model.Appointment, error) { return s.appts, nil }
func (s *memStore) Save(_ context.Context, appts []model.Appointment) error {
	s.appts = append([]model.Appointment(nil), appts...)
	return nil
}
func (s *memStore) Ready(context.Context) error { return nil }

func testConfig() config.Booking {
	return config.Booking{
		Services:      []string{"Limpeza Ar-condicionado"},
		TimeSlots:     []string{"08:00", "09:00"},
		BusinessPhone: "5547999999999",
		Weekdays: map[time.Weekday]bool{
			time.Monday:    true,
			time.Tuesday:   true,
			time.Wednesday: true,
			time.Thursday:  true,
			time.Friday:    true,
		},
	}
}

func newTestHandler() *BookingHandler {
	cfg := testConfig()
	engine := booking.NewEngine(cfg, &memStore{}, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return NewBookingHandler(engine, cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// nextMonday keeps request dates in the future and on a permitted weekday
// regardless of when the test runs.
func nextMonday() string {
	d := time.Now().AddDate(0, 0, 1)
	for d.Weekday() != time.Monday {
		d = d.AddDate(0, 0, 1)
	}
	return d.Format("2006-01-02")
}

func bookBody(timeLabel string) string {
	return fmt.Sprintf(`{
		"name": "Maria",
		"phone": "(47) 99999-9999",
		"service": "Limpeza Ar-condicionado",
		"date": %q,
		"time": %q
	}`, nextMonday(), timeLabel)
}

func TestSlots(t *testing.T) {
	h := newTestHandler()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/slots?date="+nextMonday(), nil)
	rw := httptest.NewRecorder()
	h.Slots(rw, req)
	if rw.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rw.Code)
	}

	var resp struct {
		Date  string   `json:"date"`
		Slots []string `json:"slots"`
	}
	if err := json.Unmarshal(rw.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response: %v", err)
	}
	if len(resp.Slots) != 2 {
		t.Fatalf("expected full catalog, got %v", resp.Slots)
	}
}

func TestBookCreated(t *testing.T) {
	h := newTestHandler()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/book", strings.NewReader(bookBody("08:00")))
	rw := httptest.NewRecorder()
	h.Book(rw, req)
	if rw.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rw.Code, rw.Body.String())
	}

	var resp struct {
		AppointmentID string `json:"appointment_id"`
		Message       string `json:"message"`
		WhatsAppURL   string `json:"whatsapp_url"`
	}
	if err := json.Unmarshal(rw.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response: %v", err)
	}
	if resp.AppointmentID == "" {
		t.Fatal("expected an appointment id")
	}
	if !strings.HasPrefix(resp.WhatsAppURL, "https://wa.me/5547999999999?text=") {
		t.Fatalf("unexpected whatsapp url: %s", resp.WhatsAppURL)
	}

	// The booked slot disappears from the slot list.
	slotsReq := httptest.NewRequest(http.MethodGet, "/api/v1/slots?date="+nextMonday(), nil)
	slotsRW := httptest.NewRecorder()
	h.Slots(slotsRW, slotsReq)
	var slots struct {
		Slots []string `json:"slots"`
	}
	if err := json.Unmarshal(slotsRW.Body.Bytes(), &slots); err != nil {
		t.Fatalf("invalid slots response: %v", err)
	}
	if len(slots.Slots) != 1 || slots.Slots[0] != "09:00" {
		t.Fatalf("expected only 09:00 free, got %v", slots.Slots)
	}
}

func TestBookConflict(t *testing.T) {
	h := newTestHandler()

	first := httptest.NewRecorder()
	h.Book(first, httptest.NewRequest(http.MethodPost, "/api/v1/book", strings.NewReader(bookBody("08:00"))))
	if first.Code != http.StatusCreated {
		t.Fatalf("first booking failed: %d", first.Code)
	}

	second := httptest.NewRecorder()
	h.Book(second, httptest.NewRequest(http.MethodPost, "/api/v1/book", strings.NewReader(bookBody("08:00"))))
	if second.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", second.Code, second.Body.String())
	}
}

func TestBookInvalidDraft(t *testing.T) {
	h := newTestHandler()

	rw := httptest.NewRecorder()
	h.Book(rw, httptest.NewRequest(http.MethodPost, "/api/v1/book", strings.NewReader(`{"name":"Maria"}`)))
	if rw.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rw.Code)
	}

	var resp struct {
		FieldErrors map[string]string `json:"field_errors"`
	}
	if err := json.Unmarshal(rw.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response: %v", err)
	}
	for _, field := range []string{"phone", "service", "date", "time"} {
		if resp.FieldErrors[field] == "" {
			t.Fatalf("expected error for %s, got %v", field, resp.FieldErrors)
		}
	}
}

func TestValidateEndpoint(t *testing.T) {
	h := newTestHandler()

	rw := httptest.NewRecorder()
	h.Validate(rw, httptest.NewRequest(http.MethodPost, "/api/v1/validate", strings.NewReader(bookBody("08:00"))))
	if rw.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rw.Code)
	}
	var resp struct {
		Valid bool `json:"valid"`
	}
	if err := json.Unmarshal(rw.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response: %v", err)
	}
	if !resp.Valid {
		t.Fatalf("expected valid draft: %s", rw.Body.String())
	}
}

func TestMethodNotAllowed(t *testing.T) {
	h := newTestHandler()

	rw := httptest.NewRecorder()
	h.Book(rw, httptest.NewRequest(http.MethodGet, "/api/v1/book", nil))
	if rw.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rw.Code)
	}

	rw = httptest.NewRecorder()
	h.Slots(rw, httptest.NewRequest(http.MethodPost, "/api/v1/slots", nil))
	if rw.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rw.Code)
	}
}

func TestListAppointments(t *testing.T) {
	h := newTestHandler()

	rw := httptest.NewRecorder()
	h.List(rw, httptest.NewRequest(http.MethodGet, "/api/v1/appointments", nil))
	if rw.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rw.Code)
	}
	if body := strings.TrimSpace(rw.Body.String()); body != "[]" {
		t.Fatalf("expected empty array, got %s", body)
	}

	book := httptest.NewRecorder()
	h.Book(book, httptest.NewRequest(http.MethodPost, "/api/v1/book", strings.NewReader(bookBody("09:00"))))
	if book.Code != http.StatusCreated {
		t.Fatalf("booking failed: %d", book.Code)
	}

	rw = httptest.NewRecorder()
	h.List(rw, httptest.NewRequest(http.MethodGet, "/api/v1/appointments", nil))
	var appts []model.Appointment
	if err := json.Unmarshal(rw.Body.Bytes(), &appts); err != nil {
		t.Fatalf("invalid response: %v", err)
	}
	if len(appts) != 1 || appts[0].Time != "09:00" {
		t.Fatalf("unexpected list: %v", appts)
	}
}
