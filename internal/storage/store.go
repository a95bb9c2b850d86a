// Package storage persists the committed appointment sequence. Every backend
// honors the same contract: the whole sequence is serialized as one JSON
// array under the fixed key "appointments", written synchronously after every
// commit and read once at startup.
package storage

import (
	"context"

	"github.com/lucasferr-dev/zapagenda/internal/model"
)

const LedgerKey = "appointments"

type Store interface {
	// Load returns the persisted sequence in commit order, or nil when
	// nothing has been persisted yet.
	Load(ctx context.Context) ([]model.Appointment, error)
	// Save replaces the persisted sequence.
	Save(ctx context.Context, appts []model.Appointment) error
	Ready(ctx context.Context) error
}
