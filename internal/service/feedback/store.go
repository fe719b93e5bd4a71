// Package feedback keeps the ledger of settings users actually shot with
// and derives the learned ISO baseline from it.
package feedback

import (
	"fmt"
	"math"

	"exposureserver/internal/logger"
	"exposureserver/internal/model"
	"exposureserver/internal/repository"
)

// PersistenceError reports that the ledger could not be read or written.
// It is recoverable: analysis continues on the default baseline.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("feedback ledger %s failed: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Store is the feedback ledger service.
type Store struct {
	repo       repository.LedgerRepository
	defaultISO int
	logger     *logger.Logger
}

// NewStore creates a store over repo. A non-positive defaultISO falls back to 400.
func NewStore(repo repository.LedgerRepository, defaultISO int, logger *logger.Logger) *Store {
	if defaultISO <= 0 {
		defaultISO = 400
	}
	return &Store{repo: repo, defaultISO: defaultISO, logger: logger}
}

// DefaultISO returns the baseline used for an empty or unreadable ledger.
func (s *Store) DefaultISO() int {
	return s.defaultISO
}

// Load returns the whole ledger.
func (s *Store) Load() (*model.Ledger, error) {
	ledger, err := s.repo.Load()
	if err != nil {
		return nil, &PersistenceError{Op: "load", Err: err}
	}
	return ledger, nil
}

// Count returns the number of records in the ledger.
func (s *Store) Count() (int, error) {
	n, err := s.repo.Count()
	if err != nil {
		return 0, &PersistenceError{Op: "count", Err: err}
	}
	return n, nil
}

// Append validates rec and adds it to the ledger. On a PersistenceError
// the record is dropped.
func (s *Store) Append(rec model.FeedbackRecord) error {
	if err := Validate(rec); err != nil {
		return err
	}
	if err := s.repo.Append(rec); err != nil {
		s.logger.Error("Failed to persist feedback %+v: %v", rec, err)
		return &PersistenceError{Op: "append", Err: err}
	}
	s.logger.Info("Feedback stored: ISO %d, %s, %s", rec.ISO, rec.ShutterSpeed, rec.NDFilter)
	return nil
}

// AverageISO returns the learned baseline. If the ledger cannot be read the
// default is returned together with the PersistenceError.
func (s *Store) AverageISO() (int, error) {
	ledger, err := s.Load()
	if err != nil {
		s.logger.Warning("Using default ISO %d: %v", s.defaultISO, err)
		return s.defaultISO, err
	}
	return AverageISO(ledger, s.defaultISO), nil
}

// Close releases the underlying repository.
func (s *Store) Close() error {
	return s.repo.Close()
}

// AverageISO is the mean ISO of the ledger rounded half to even, or def
// when the ledger is empty.
func AverageISO(ledger *model.Ledger, def int) int {
	if ledger == nil || len(ledger.ISO) == 0 {
		return def
	}
	sum := 0
	for _, iso := range ledger.ISO {
		sum += iso
	}
	return int(math.RoundToEven(float64(sum) / float64(len(ledger.ISO))))
}
