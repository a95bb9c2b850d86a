// Package ledger tracks committed appointments and answers slot-availability
// questions. It is the single source of truth for slot occupancy; any slot
// list the UI renders is a cached view of FreeSlotsFor.
//
// The ledger itself is not safe for concurrent use. The booking engine owns
// one instance and serializes access.
package ledger

import (
	"errors"

	"github.com/lucasferr-dev/zapagenda/internal/model"
)

var ErrSlotTaken = errors.New("time slot already booked")

type Ledger struct {
	catalog      []string
	blocked      map[string]map[string]bool
	appointments []model.Appointment
	bySlot       map[string]string // slot key -> appointment ID
}

// New builds an empty ledger over the ordered slot catalog plus an optional
// per-date block-list (date -> extra unavailable slot labels).
func New(catalog []string, blocked map[string][]string) *Ledger {
	l := &Ledger{
		catalog: append([]string(nil), catalog...),
		blocked: make(map[string]map[string]bool, len(blocked)),
		bySlot:  make(map[string]string),
	}
	for date, labels := range blocked {
		set := make(map[string]bool, len(labels))
		for _, label := range labels {
			set[label] = true
		}
		l.blocked[date] = set
	}
	return l
}

// Load replaces the ledger contents with a persisted appointment sequence.
// Called once at startup.
func (l *Ledger) Load(appts []model.Appointment) {
	l.appointments = append([]model.Appointment(nil), appts...)
	l.bySlot = make(map[string]string, len(appts))
	for _, a := range appts {
		l.bySlot[slotKey(a.Date, a.Time)] = a.ID
	}
}

// Appointments returns the committed sequence in commit order.
func (l *Ledger) Appointments() []model.Appointment {
	return append([]model.Appointment(nil), l.appointments...)
}

func (l *Ledger) Len() int {
	return len(l.appointments)
}

// FreeSlotsFor returns the catalog minus slots already booked or blocked on
// the given date, preserving catalog order. An empty date means no day is
// selected yet and yields the full catalog.
func (l *Ledger) FreeSlotsFor(date string) []string {
	if date == "" {
		return append([]string(nil), l.catalog...)
	}
	free := make([]string, 0, len(l.catalog))
	for _, label := range l.catalog {
		if l.IsTaken(date, label) {
			continue
		}
		free = append(free, label)
	}
	return free
}

// IsTaken reports whether the (date, time) pair is occupied by a committed
// appointment or blocked by configuration.
func (l *Ledger) IsTaken(date, label string) bool {
	if _, ok := l.bySlot[slotKey(date, label)]; ok {
		return true
	}
	return l.blocked[date][label]
}

// Append commits an appointment. It refuses a duplicate (date, time) pair so
// the uniqueness invariant cannot be broken even by a buggy caller.
func (l *Ledger) Append(appt model.Appointment) error {
	if l.IsTaken(appt.Date, appt.Time) {
		return ErrSlotTaken
	}
	l.appointments = append(l.appointments, appt)
	l.bySlot[slotKey(appt.Date, appt.Time)] = appt.ID
	return nil
}

// Remove undoes a commit by appointment ID. Used to roll back an append
// whose persistence failed.
func (l *Ledger) Remove(id string) {
	for i, a := range l.appointments {
		if a.ID != id {
			continue
		}
		l.appointments = append(l.appointments[:i], l.appointments[i+1:]...)
		delete(l.bySlot, slotKey(a.Date, a.Time))
		return
	}
}

func slotKey(date, label string) string {
	return date + "|" + label
}
