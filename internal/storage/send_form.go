package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// SaveFormValues stores values (any JSON-encodable value) under formKey,
// replacing what was there.
func (s *Storage) SaveFormValues(formKey string, values interface{}) error {
	data, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("failed to encode form values: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.Exec(`
		INSERT INTO send_form_values (form_key, values_json, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(form_key) DO UPDATE SET
			values_json = excluded.values_json,
			updated_at = excluded.updated_at
	`, formKey, string(data), time.Now().UnixMilli())
	return err
}

// LoadFormValues decodes the values stored under formKey into dst and
// returns when they were saved. It returns ErrNotFound when nothing is stored.
func (s *Storage) LoadFormValues(formKey string, dst interface{}) (time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var data string
	var updatedAt int64
	err := s.db.QueryRow(`
		SELECT values_json, updated_at FROM send_form_values WHERE form_key = ?
	`, formKey).Scan(&data, &updatedAt)
	if err == sql.ErrNoRows {
		return time.Time{}, ErrNotFound
	}
	if err != nil {
		return time.Time{}, err
	}

	if err := json.Unmarshal([]byte(data), dst); err != nil {
		return time.Time{}, fmt.Errorf("failed to decode form values: %w", err)
	}
	return time.UnixMilli(updatedAt), nil
}

// ClearFormValues removes the values stored under formKey.
func (s *Storage) ClearFormValues(formKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`DELETE FROM send_form_values WHERE form_key = ?`, formKey)
	return err
}

// PurgeFormValues removes values saved before cutoff and returns how many
// were removed.
func (s *Storage) PurgeFormValues(cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`DELETE FROM send_form_values WHERE updated_at < ?`, cutoff.UnixMilli())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
