package model

import "time"

// Appointment is one committed service visit. Date carries no time-of-day
// component; Time is a slot label from the configured catalog.
type Appointment struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Service   string    `json:"service"`
	Date      string    `json:"date"` // YYYY-MM-DD
	Time      string    `json:"time"` // e.g. "08:00"
	Notes     string    `json:"notes,omitempty"`
	Address   *Address  `json:"address,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type Address struct {
	PostalCode   string `json:"postal_code"`
	Street       string `json:"street"`
	Number       string `json:"number"`
	Complement   string `json:"complement,omitempty"`
	Neighborhood string `json:"neighborhood"`
	City         string `json:"city"`
	State        string `json:"state"`
}

// FormDraft holds in-progress field values exactly as the caller collected
// them. It is never persisted; the engine normalizes it into an Appointment
// only on a successful submit.
type FormDraft struct {
	Name    string
	Phone   string
	Service string
	Date    string
	Time    string
	Notes   string
	Address *Address
}
