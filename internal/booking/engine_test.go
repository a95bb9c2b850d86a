package booking

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/lucasferr-dev/zapagenda/internal/config"
	"github.com/lucasferr-dev/zapagenda/internal/model"
	"github.com/lucasferr-dev/zapagenda/internal/validate"
)

type memStore struct {
	appts    []model.Appointment
	saves    int
	failSave bool
}

func (s *memStore) Load(context.Context) ([]model.Appointment, error) {
	return s.appts, nil
}

func (s *memStore) Save(_ context.Context, appts []model.Appointment) error {
	if s.failSave {
		return errors.New("store down")
	}
	s.appts = append([]model.Appointment(nil), appts...)
	s.saves++
	return nil
}

func (s *memStore) Ready(context.Context) error { return nil }

func testConfig() config.Booking {
	return config.Booking{
		Services:      []string{"Limpeza Ar-condicionado", "Instalação Elétrica"},
		TimeSlots:     []string{"08:00", "09:00", "10:00"},
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

// Clock fixed to Wednesday 2026-03-04; next Monday is 2026-03-09 and the
// following Saturday is 2026-03-07.
func newTestEngine(store *memStore) *Engine {
	e := NewEngine(testConfig(), store, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	e.now = func() time.Time { return time.Date(2026, 3, 4, 15, 0, 0, 0, time.Local) }
	return e
}

func validDraft() model.FormDraft {
	return model.FormDraft{
		Name:    "Maria",
		Phone:   "(47) 99999-9999",
		Service: "Limpeza Ar-condicionado",
		Date:    "2026-03-09",
		Time:    "08:00",
	}
}

func TestSubmitBooksFreeSlot(t *testing.T) {
	store := &memStore{}
	e := newTestEngine(store)

	conf, err := e.Submit(context.Background(), validDraft())
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if conf.Appointment.ID == "" {
		t.Fatal("expected an appointment id")
	}
	if got := len(e.Appointments()); got != 1 {
		t.Fatalf("expected 1 appointment in ledger, got %d", got)
	}
	if store.saves != 1 {
		t.Fatalf("expected 1 synchronous persist, got %d", store.saves)
	}
	for _, want := range []string{
		"Maria",
		"(47) 99999-9999",
		"Limpeza Ar-condicionado",
		"segunda-feira, 9 de março de 2026",
		"08:00",
	} {
		if !strings.Contains(conf.Message, want) {
			t.Fatalf("confirmation message missing %q:\n%s", want, conf.Message)
		}
	}
	if !strings.HasPrefix(conf.WhatsAppURL, "https://wa.me/5547999999999?text=") {
		t.Fatalf("unexpected whatsapp url: %s", conf.WhatsAppURL)
	}
}

func TestSubmitSlotConflict(t *testing.T) {
	store := &memStore{}
	e := newTestEngine(store)

	if _, err := e.Submit(context.Background(), validDraft()); err != nil {
		t.Fatalf("first submit failed: %v", err)
	}

	second := validDraft()
	second.Name = "João"
	_, err := e.Submit(context.Background(), second)
	if !errors.Is(err, ErrSlotTaken) {
		t.Fatalf("expected ErrSlotTaken, got %v", err)
	}
	if got := len(e.Appointments()); got != 1 {
		t.Fatalf("expected ledger unchanged at 1 entry, got %d", got)
	}
	if store.saves != 1 {
		t.Fatalf("expected no extra persist, got %d", store.saves)
	}
}

func TestSubmitClosedWeekday(t *testing.T) {
	store := &memStore{}
	e := newTestEngine(store)

	draft := validDraft()
	draft.Date = "2026-03-07" // Saturday
	_, err := e.Submit(context.Background(), draft)
	fields, ok := IsValidation(err)
	if !ok {
		t.Fatalf("expected validation error, got %v", err)
	}
	if fields["date"] != validate.ReasonClosedWeekday {
		t.Fatalf("expected weekday violation on date, got %v", fields)
	}
	if len(e.Appointments()) != 0 || store.saves != 0 {
		t.Fatal("expected no ledger mutation for invalid draft")
	}
}

func TestSubmitPastDate(t *testing.T) {
	e := newTestEngine(&memStore{})

	draft := validDraft()
	draft.Date = "2026-03-03"
	_, err := e.Submit(context.Background(), draft)
	fields, ok := IsValidation(err)
	if !ok || fields["date"] != validate.ReasonPastDate {
		t.Fatalf("expected past-date violation, got %v (fields %v)", err, fields)
	}
}

func TestSubmitPersistFailureRollsBack(t *testing.T) {
	store := &memStore{failSave: true}
	e := newTestEngine(store)

	_, err := e.Submit(context.Background(), validDraft())
	if err == nil {
		t.Fatal("expected persistence failure")
	}
	if errors.Is(err, ErrSlotTaken) {
		t.Fatalf("persistence failure must not look like a conflict: %v", err)
	}
	if got := len(e.Appointments()); got != 0 {
		t.Fatalf("expected in-memory append rolled back, got %d entries", got)
	}

	// The slot must be bookable again once the store recovers.
	store.failSave = false
	if _, err := e.Submit(context.Background(), validDraft()); err != nil {
		t.Fatalf("resubmit after store recovery failed: %v", err)
	}
}

func TestValidateReportsAllFields(t *testing.T) {
	e := newTestEngine(&memStore{})

	errs := e.Validate(model.FormDraft{})
	for _, field := range []string{"name", "phone", "service", "date", "time"} {
		if errs[field] == "" {
			t.Fatalf("expected error for %s, got %v", field, errs)
		}
	}

	if errs := e.Validate(validDraft()); len(errs) != 0 {
		t.Fatalf("expected valid draft to pass, got %v", errs)
	}
}

func TestValidateSeesCommittedSlots(t *testing.T) {
	e := newTestEngine(&memStore{})
	if _, err := e.Submit(context.Background(), validDraft()); err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	errs := e.Validate(validDraft())
	if errs["time"] != validate.ReasonSlotTaken {
		t.Fatalf("expected slot-taken on time, got %v", errs)
	}
}

func TestFreeSlotsShrinkAfterSubmit(t *testing.T) {
	e := newTestEngine(&memStore{})

	before := e.FreeSlotsFor("2026-03-09")
	if len(before) != 3 {
		t.Fatalf("expected full catalog before booking, got %v", before)
	}
	if _, err := e.Submit(context.Background(), validDraft()); err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	after := e.FreeSlotsFor("2026-03-09")
	if len(after) != 2 {
		t.Fatalf("expected one slot consumed, got %v", after)
	}
	for _, label := range after {
		if label == "08:00" {
			t.Fatal("booked slot still listed as free")
		}
	}
}

func TestLoadRestoresPersistedLedger(t *testing.T) {
	store := &memStore{appts: []model.Appointment{{
		ID:   "prior",
		Name: "Ana",
		Date: "2026-03-09",
		Time: "09:00",
	}}}
	e := newTestEngine(store)
	if err := e.Load(context.Background()); err != nil {
		t.Fatalf("load failed: %v", err)
	}

	draft := validDraft()
	draft.Time = "09:00"
	if _, err := e.Submit(context.Background(), draft); !errors.Is(err, ErrSlotTaken) {
		t.Fatalf("expected restored booking to block the slot, got %v", err)
	}
}

func TestSubmitNormalizesFields(t *testing.T) {
	e := newTestEngine(&memStore{})

	draft := validDraft()
	draft.Name = "  Maria  "
	draft.Phone = "47999999999"
	draft.Notes = " chegar cedo "
	conf, err := e.Submit(context.Background(), draft)
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if conf.Appointment.Name != "Maria" {
		t.Fatalf("expected trimmed name, got %q", conf.Appointment.Name)
	}
	if conf.Appointment.Phone != "(47) 99999-9999" {
		t.Fatalf("expected canonical phone, got %q", conf.Appointment.Phone)
	}
	if conf.Appointment.Notes != "chegar cedo" {
		t.Fatalf("expected trimmed notes, got %q", conf.Appointment.Notes)
	}
	if !strings.Contains(conf.Message, "*Observações:* chegar cedo") {
		t.Fatalf("expected notes line in message:\n%s", conf.Message)
	}
}
