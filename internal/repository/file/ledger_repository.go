// Package file stores the feedback ledger as a single JSON document.
package file

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"

	"exposureserver/internal/model"
)

// LedgerRepository implements repository.LedgerRepository on a JSON file.
// Appends hold an in-process mutex and an exclusive lock on a sidecar
// ".lock" file for the whole read-modify-write, then replace the document
// with an atomic rename.
type LedgerRepository struct {
	path string
	lock *flock.Flock
	mu   sync.Mutex
}

// NewLedgerRepository creates a repository for the document at path.
// The file itself is created on first append.
func NewLedgerRepository(path string) *LedgerRepository {
	return &LedgerRepository{
		path: path,
		lock: flock.New(path + ".lock"),
	}
}

// Path returns the location of the ledger document.
func (r *LedgerRepository) Path() string {
	return r.path
}

// Load reads the ledger. A missing file is an empty ledger.
func (r *LedgerRepository) Load() (*model.Ledger, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.read()
}

// Count returns the number of stored records.
func (r *LedgerRepository) Count() (int, error) {
	ledger, err := r.Load()
	if err != nil {
		return 0, err
	}
	return ledger.Len(), nil
}

// Append adds one record to the ledger document.
func (r *LedgerRepository) Append(rec model.FeedbackRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(r.path), 0755); err != nil {
		return fmt.Errorf("failed to create ledger directory: %w", err)
	}
	if err := r.lock.Lock(); err != nil {
		return fmt.Errorf("failed to lock ledger: %w", err)
	}
	defer r.lock.Unlock()

	ledger, err := r.read()
	if err != nil {
		return err
	}
	ledger.Append(rec)
	return r.write(ledger)
}

// Close releases the lock file handle.
func (r *LedgerRepository) Close() error {
	return r.lock.Close()
}

func (r *LedgerRepository) read() (*model.Ledger, error) {
	data, err := os.ReadFile(r.path)
	if errors.Is(err, os.ErrNotExist) {
		return model.NewLedger(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger: %w", err)
	}

	ledger := model.NewLedger()
	if err := json.Unmarshal(data, ledger); err != nil {
		return nil, fmt.Errorf("failed to parse ledger %s: %w", r.path, err)
	}
	if ledger.ISO == nil {
		ledger.ISO = []int{}
	}
	if ledger.ShutterSpeed == nil {
		ledger.ShutterSpeed = []string{}
	}
	if ledger.NDFilter == nil {
		ledger.NDFilter = []string{}
	}
	if !ledger.Consistent() {
		return nil, fmt.Errorf("ledger %s has sequences of different length (%d/%d/%d)",
			r.path, len(ledger.ISO), len(ledger.ShutterSpeed), len(ledger.NDFilter))
	}
	return ledger, nil
}

func (r *LedgerRepository) write(ledger *model.Ledger) error {
	data, err := json.MarshalIndent(ledger, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode ledger: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(r.path), filepath.Base(r.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp ledger: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write ledger: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync ledger: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp ledger: %w", err)
	}
	if err := os.Rename(tmp.Name(), r.path); err != nil {
		return fmt.Errorf("failed to replace ledger: %w", err)
	}
	return nil
}
