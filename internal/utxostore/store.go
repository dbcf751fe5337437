// Package utxostore tracks locally spent outputs so that freshly broadcast
// transactions do not get their inputs re-selected before the explorer
// backend observes the spend.
package utxostore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/mrz1836/satsend/internal/chain"
)

const (
	// spentFileName is the name of the spent-output storage file.
	spentFileName = "spent.json"

	// currentVersion is the current file format version.
	currentVersion = 1

	// filePermissions for spent.json.
	filePermissions = 0o600

	// defaultRetention is how long a spent marker survives. By then the
	// explorer has long since dropped the output from unspent responses.
	defaultRetention = 24 * time.Hour
)

// SpentOutput records one output consumed by a local broadcast.
type SpentOutput struct {
	TxID      string    `json:"txid"`
	Vout      uint32    `json:"vout"`
	SpentTxID string    `json:"spent_txid"`
	SpentAt   time.Time `json:"spent_at"`
}

// Key returns the unique identifier for this output (txid:vout).
func (s *SpentOutput) Key() string {
	return fmt.Sprintf("%s:%d", s.TxID, s.Vout)
}

// spentFile represents the JSON file structure (versioned).
type spentFile struct {
	Version   int                     `json:"version"`
	UpdatedAt time.Time               `json:"updated_at"`
	Spent     map[string]*SpentOutput `json:"spent"`
}

// Store manages spent-output persistence for a single wallet.
type Store struct {
	walletPath string
	mu         sync.RWMutex
	data       *spentFile
}

// New creates a store for the given wallet directory. The store starts
// empty; call Load to read persisted state.
func New(walletPath string) *Store {
	return &Store{
		walletPath: walletPath,
		data: &spentFile{
			Version:   currentVersion,
			UpdatedAt: time.Now(),
			Spent:     make(map[string]*SpentOutput),
		},
	}
}

// Load reads persisted spent markers. A missing file is not an error.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.filePath())
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading spent outputs: %w", err)
	}

	var file spentFile
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parsing spent outputs: %w", err)
	}
	if file.Spent == nil {
		file.Spent = make(map[string]*SpentOutput)
	}
	s.data = &file
	return nil
}

// Save writes the spent markers to disk.
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked()
}

// MarkSpent records every input of a broadcast transaction and persists.
func (s *Store) MarkSpent(coins []chain.UTXO, spendingTxID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for _, c := range coins {
		out := &SpentOutput{
			TxID:      c.TxID,
			Vout:      c.Vout,
			SpentTxID: spendingTxID,
			SpentAt:   now,
		}
		s.data.Spent[out.Key()] = out
	}
	return s.saveLocked()
}

// IsSpent reports whether the output was consumed by a local broadcast.
func (s *Store) IsSpent(txid string, vout uint32) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, spent := s.data.Spent[fmt.Sprintf("%s:%d", txid, vout)]
	return spent
}

// Filter drops locally spent outputs from an explorer unspent response.
func (s *Store) Filter(utxos []chain.UTXO) []chain.UTXO {
	s.mu.RLock()
	defer s.mu.RUnlock()

	kept := make([]chain.UTXO, 0, len(utxos))
	for _, u := range utxos {
		if _, spent := s.data.Spent[fmt.Sprintf("%s:%d", u.TxID, u.Vout)]; spent {
			continue
		}
		kept = append(kept, u)
	}
	return kept
}

// Prune removes markers older than the retention window and persists when
// anything was removed.
func (s *Store) Prune() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-defaultRetention)
	removed := 0
	for key, out := range s.data.Spent {
		if out.SpentAt.Before(cutoff) {
			delete(s.data.Spent, key)
			removed++
		}
	}

	if removed == 0 {
		return 0, nil
	}
	return removed, s.saveLocked()
}

// Size returns the number of tracked spent outputs.
func (s *Store) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data.Spent)
}

// saveLocked writes the file. Caller holds the write lock.
func (s *Store) saveLocked() error {
	s.data.UpdatedAt = time.Now()
	data, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling spent outputs: %w", err)
	}
	if err := os.MkdirAll(s.walletPath, 0o750); err != nil {
		return fmt.Errorf("creating wallet directory: %w", err)
	}
	if err := os.WriteFile(s.filePath(), data, filePermissions); err != nil {
		return fmt.Errorf("writing spent outputs: %w", err)
	}
	return nil
}

// filePath returns the full path to spent.json.
func (s *Store) filePath() string {
	return filepath.Join(s.walletPath, spentFileName)
}
