// Package booking is the appointment engine: it aggregates the field
// validators with the slot ledger, and runs the commit transaction that
// appends to the ledger, persists it, and renders the confirmation message.
package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lucasferr-dev/zapagenda/internal/config"
	"github.com/lucasferr-dev/zapagenda/internal/ledger"
	"github.com/lucasferr-dev/zapagenda/internal/model"
	"github.com/lucasferr-dev/zapagenda/internal/storage"
	"github.com/lucasferr-dev/zapagenda/internal/validate"
	"github.com/lucasferr-dev/zapagenda/internal/whatsapp"
)

// ErrSlotTaken is returned when the final pre-commit re-check finds the slot
// occupied. It carries the same meaning as the field-level reason; only the
// timing differs.
var ErrSlotTaken = ledger.ErrSlotTaken

// ValidationError reports a submit attempted with an invalid draft.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed (%d fields)", len(e.Fields))
}

// Events receives post-commit notifications. May be satisfied by a nil
// *events.Publisher.
type Events interface {
	AppointmentBooked(ctx context.Context, appt model.Appointment)
}

// Confirmation is the successful outcome of a submit.
type Confirmation struct {
	Appointment model.Appointment
	Message     string
	WhatsAppURL string
}

// Engine owns the ledger for one store handle. All operations serialize on
// an internal mutex: reads are cheap and submits are expected to be rare, so
// a single lock keeps the check-then-append commit race-free in-process.
// Cross-process races on a shared store are narrowed by the final IsTaken
// re-check inside Submit.
type Engine struct {
	mu     sync.Mutex
	cfg    config.Booking
	ledger *ledger.Ledger
	store  storage.Store
	events Events
	logger *slog.Logger
	now    func() time.Time
}

func NewEngine(cfg config.Booking, store storage.Store, events Events, logger *slog.Logger) *Engine {
	return &Engine{
		cfg:    cfg,
		ledger: ledger.New(cfg.TimeSlots, cfg.BlockedSlots),
		store:  store,
		events: events,
		logger: logger,
		now:    time.Now,
	}
}

// Load reads the persisted ledger. Called once at startup.
func (e *Engine) Load(ctx context.Context) error {
	appts, err := e.store.Load(ctx)
	if err != nil {
		return err
	}
	e.mu.Lock()
	e.ledger.Load(appts)
	e.mu.Unlock()
	e.logger.Info("ledger loaded", "appointments", len(appts))
	return nil
}

// Validate runs every field rule plus the slot-conflict check and returns
// the field->reason map. An empty map means the draft may be submitted.
// It is a total function with no side effects; callers may invoke it on
// every field edit.
func (e *Engine) Validate(draft model.FormDraft) map[string]string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.validateLocked(draft)
}

func (e *Engine) validateLocked(draft model.FormDraft) map[string]string {
	errs := make(map[string]string)
	if reason := validate.Name(draft.Name); reason != "" {
		errs["name"] = reason
	}
	if reason := validate.Phone(draft.Phone); reason != "" {
		errs["phone"] = reason
	}
	if reason := validate.Service(draft.Service, e.cfg.Services); reason != "" {
		errs["service"] = reason
	}
	dateReason := validate.Date(draft.Date, e.cfg.Weekdays, e.now())
	if dateReason != "" {
		errs["date"] = dateReason
	}
	// The conflict check is meaningless against an invalid date.
	taken := e.ledger.IsTaken
	if dateReason != "" {
		taken = nil
	}
	if reason := validate.Time(draft.Date, draft.Time, e.cfg.TimeSlots, taken); reason != "" {
		errs["time"] = reason
	}
	if e.cfg.RequireAddress {
		fixed := e.cfg.FixedCity != "" && e.cfg.FixedState != ""
		for field, reason := range validate.Address(draft.Address, fixed) {
			errs[field] = reason
		}
	}
	return errs
}

// FreeSlotsFor returns the remaining free slot labels for a date, in catalog
// order. Idempotent and side-effect-free.
func (e *Engine) FreeSlotsFor(date string) []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ledger.FreeSlotsFor(date)
}

// Appointments returns the committed ledger in commit order.
func (e *Engine) Appointments() []model.Appointment {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ledger.Appointments()
}

// Submit validates the draft once more, re-checks the slot, commits the
// appointment, and persists the ledger before acknowledging. On a
// persistence failure the in-memory append is rolled back so memory never
// diverges from durable state.
func (e *Engine) Submit(ctx context.Context, draft model.FormDraft) (Confirmation, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if errs := e.validateLocked(draft); len(errs) > 0 {
		// An otherwise-valid draft whose slot got taken between display and
		// submit is a conflict, not a form mistake.
		if len(errs) == 1 && errs["time"] == validate.ReasonSlotTaken {
			return Confirmation{}, ErrSlotTaken
		}
		return Confirmation{}, &ValidationError{Fields: errs}
	}

	appt := e.buildAppointment(draft)

	// Final re-check before commit. Validation above already covers the
	// in-process case; this closes the window against another process
	// sharing the same store.
	if e.ledger.IsTaken(appt.Date, appt.Time) {
		return Confirmation{}, ErrSlotTaken
	}
	if err := e.ledger.Append(appt); err != nil {
		return Confirmation{}, err
	}
	if err := e.store.Save(ctx, e.ledger.Appointments()); err != nil {
		e.ledger.Remove(appt.ID)
		return Confirmation{}, fmt.Errorf("persist ledger: %w", err)
	}

	msg := whatsapp.ConfirmationMessage(appt)
	conf := Confirmation{
		Appointment: appt,
		Message:     msg,
		WhatsAppURL: whatsapp.Link(e.cfg.BusinessPhone, msg),
	}

	if e.events != nil {
		e.events.AppointmentBooked(ctx, appt)
	}
	e.logger.Info("appointment booked",
		"appointment_id", appt.ID, "date", appt.Date, "time", appt.Time, "service", appt.Service)
	return conf, nil
}

func (e *Engine) buildAppointment(draft model.FormDraft) model.Appointment {
	appt := model.Appointment{
		ID:        uuid.NewString(),
		Name:      trim(draft.Name),
		Phone:     validate.FormatPhone(trim(draft.Phone)),
		Service:   trim(draft.Service),
		Date:      trim(draft.Date),
		Time:      trim(draft.Time),
		Notes:     trim(draft.Notes),
		CreatedAt: e.now().UTC(),
	}
	if e.cfg.RequireAddress && draft.Address != nil {
		addr := model.Address{
			PostalCode:   trim(draft.Address.PostalCode),
			Street:       trim(draft.Address.Street),
			Number:       trim(draft.Address.Number),
			Complement:   trim(draft.Address.Complement),
			Neighborhood: trim(draft.Address.Neighborhood),
			City:         trim(draft.Address.City),
			State:        trim(draft.Address.State),
		}
		if e.cfg.FixedCity != "" && e.cfg.FixedState != "" {
			addr.City = e.cfg.FixedCity
			addr.State = e.cfg.FixedState
		}
		appt.Address = &addr
	}
	return appt
}

func trim(s string) string {
	return strings.TrimSpace(s)
}

// IsValidation reports whether err is a draft-validation failure and, if so,
// returns its field map.
func IsValidation(err error) (map[string]string, bool) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Fields, true
	}
	return nil, false
}
