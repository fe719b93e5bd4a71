package repository

import (
	"exposureserver/internal/model"
)

// LedgerRepository defines durable storage for the feedback ledger.
// Implementations must not lose records appended concurrently.
type LedgerRepository interface {
	// Read operations
	Load() (*model.Ledger, error)
	Count() (int, error)

	// Create operations
	Append(rec model.FeedbackRecord) error

	Close() error
}
