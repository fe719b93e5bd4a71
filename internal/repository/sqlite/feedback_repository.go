package sqlite

import (
	"fmt"

	"exposureserver/internal/model"
)

// FeedbackRepository implements repository.LedgerRepository for SQLite.
// Each submission is its own row; Load rebuilds the parallel sequences in
// insertion order.
type FeedbackRepository struct {
	db *DB
}

// NewFeedbackRepository creates a new SQLite feedback repository.
func NewFeedbackRepository(db *DB) *FeedbackRepository {
	return &FeedbackRepository{db: db}
}

// Append inserts one feedback row.
func (r *FeedbackRepository) Append(rec model.FeedbackRecord) error {
	r.db.Lock()
	defer r.db.Unlock()

	_, err := r.db.Conn().Exec(`
		INSERT INTO feedback (iso, shutter_speed, nd_filter)
		VALUES (?, ?, ?)
	`, rec.ISO, rec.ShutterSpeed, rec.NDFilter)
	if err != nil {
		return fmt.Errorf("failed to insert feedback: %w", err)
	}
	return nil
}

// AppendBatch inserts several records in a single transaction.
func (r *FeedbackRepository) AppendBatch(records []model.FeedbackRecord) error {
	r.db.Lock()
	defer r.db.Unlock()

	tx, err := r.db.Conn().Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO feedback (iso, shutter_speed, nd_filter)
		VALUES (?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		if _, err := stmt.Exec(rec.ISO, rec.ShutterSpeed, rec.NDFilter); err != nil {
			return fmt.Errorf("failed to insert feedback: %w", err)
		}
	}

	return tx.Commit()
}

// Load returns every stored record in submission order.
func (r *FeedbackRepository) Load() (*model.Ledger, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	rows, err := r.db.Conn().Query(`SELECT iso, shutter_speed, nd_filter FROM feedback ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query feedback: %w", err)
	}
	defer rows.Close()

	ledger := model.NewLedger()
	for rows.Next() {
		var rec model.FeedbackRecord
		if err := rows.Scan(&rec.ISO, &rec.ShutterSpeed, &rec.NDFilter); err != nil {
			return nil, fmt.Errorf("failed to scan feedback: %w", err)
		}
		ledger.Append(rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read feedback: %w", err)
	}

	return ledger, nil
}

// Count returns the number of stored records.
func (r *FeedbackRepository) Count() (int, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	var count int
	if err := r.db.Conn().QueryRow(`SELECT COUNT(*) FROM feedback`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count feedback: %w", err)
	}
	return count, nil
}

// Close closes the underlying database.
func (r *FeedbackRepository) Close() error {
	return r.db.Close()
}
