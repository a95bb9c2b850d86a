package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"strings"

	"github.com/lucasferr-dev/zapagenda/internal/booking"
	"github.com/lucasferr-dev/zapagenda/internal/config"
	"github.com/lucasferr-dev/zapagenda/internal/model"
)

type BookingHandler struct {
	engine *booking.Engine
	cfg    config.Booking
	logger *slog.Logger
}

func NewBookingHandler(engine *booking.Engine, cfg config.Booking, logger *slog.Logger) *BookingHandler {
	return &BookingHandler{engine: engine, cfg: cfg, logger: logger}
}

type draftRequest struct {
	Name    string         `json:"name"`
	Phone   string         `json:"phone"`
	Service string         `json:"service"`
	Date    string         `json:"date"`
	Time    string         `json:"time"`
	Notes   string         `json:"notes"`
	Address *model.Address `json:"address,omitempty"`
}

func (r draftRequest) toDraft() model.FormDraft {
	return model.FormDraft{
		Name:    r.Name,
		Phone:   r.Phone,
		Service: r.Service,
		Date:    r.Date,
		Time:    r.Time,
		Notes:   r.Notes,
		Address: r.Address,
	}
}

type validateResponse struct {
	Valid       bool              `json:"valid"`
	FieldErrors map[string]string `json:"field_errors"`
}

type bookResponse struct {
	AppointmentID string `json:"appointment_id"`
	Message       string `json:"message"`
	WhatsAppURL   string `json:"whatsapp_url"`
}

type slotsResponse struct {
	Date  string   `json:"date"`
	Slots []string `json:"slots"`
}

// Slots returns the remaining free slot labels for a date. Without a date it
// returns the full catalog, matching the form's not-yet-selected state.
func (h *BookingHandler) Slots(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	date := strings.TrimSpace(r.URL.Query().Get("date"))
	writeJSON(w, http.StatusOK, slotsResponse{
		Date:  date,
		Slots: h.engine.FreeSlotsFor(date),
	})
}

// Validate runs the full rule set against a draft without committing
// anything. The UI calls this on field edits.
func (h *BookingHandler) Validate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req draftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	errs := h.engine.Validate(req.toDraft())
	writeJSON(w, http.StatusOK, validateResponse{
		Valid:       len(errs) == 0,
		FieldErrors: errs,
	})
}

// Book submits a draft. 201 with the confirmation payload on success, 422
// with field errors on invalid input, 409 when the slot was taken between
// display and submit, 503 when the ledger could not be persisted.
func (h *BookingHandler) Book(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req draftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}

	conf, err := h.engine.Submit(r.Context(), req.toDraft())
	if err != nil {
		if fields, ok := booking.IsValidation(err); ok {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
				"error":        "validation failed",
				"field_errors": fields,
			})
			return
		}
		if errors.Is(err, booking.ErrSlotTaken) {
			http.Error(w, "time slot already booked", http.StatusConflict)
			return
		}
		h.logger.Error("booking submit failed", "err", err)
		http.Error(w, "failed to persist booking", http.StatusServiceUnavailable)
		return
	}

	writeJSON(w, http.StatusCreated, bookResponse{
		AppointmentID: conf.Appointment.ID,
		Message:       conf.Message,
		WhatsAppURL:   conf.WhatsAppURL,
	})
}

// List exposes the committed ledger, oldest first.
func (h *BookingHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	appts := h.engine.Appointments()
	if appts == nil {
		appts = []model.Appointment{}
	}
	writeJSON(w, http.StatusOK, appts)
}

// Config lets the UI render catalogs from the engine's configuration instead
// of duplicating them client-side.
func (h *BookingHandler) Config(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	weekdays := make([]int, 0, len(h.cfg.Weekdays))
	for d, ok := range h.cfg.Weekdays {
		if ok {
			weekdays = append(weekdays, int(d))
		}
	}
	sort.Ints(weekdays)
	writeJSON(w, http.StatusOK, map[string]any{
		"services":        h.cfg.Services,
		"time_slots":      h.cfg.TimeSlots,
		"weekdays":        weekdays,
		"business_phone":  h.cfg.BusinessPhone,
		"require_address": h.cfg.RequireAddress,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "failed to build response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
