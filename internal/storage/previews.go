package storage

import (
	"time"

	"github.com/Klingon-tech/btcsend/internal/navigate"
	"github.com/Klingon-tech/btcsend/pkg/logging"
)

// PreviewRecord is a transaction that was sent to the confirm screen.
type PreviewRecord struct {
	ID        string    `json:"id"`
	FormID    string    `json:"form_id,omitempty"`
	Network   string    `json:"network"`
	Recipient string    `json:"recipient"`
	Fee       uint64    `json:"fee"`
	TxHex     string    `json:"tx_hex"`
	CreatedAt time.Time `json:"created_at"`
}

// SavePreview records a preview. Saving the same ID twice is a no-op.
func (s *Storage) SavePreview(p *PreviewRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	createdAt := p.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := s.db.Exec(`
		INSERT OR IGNORE INTO previews (id, form_id, network, recipient, fee, tx_hex, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, p.ID, p.FormID, p.Network, p.Recipient, int64(p.Fee), p.TxHex, createdAt.UnixMilli())
	return err
}

// ListPreviews returns the most recent previews first.
func (s *Storage) ListPreviews(limit int) ([]*PreviewRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, COALESCE(form_id, ''), network, recipient, fee, tx_hex, created_at
		FROM previews
		ORDER BY created_at DESC
	`
	var args []interface{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*PreviewRecord
	for rows.Next() {
		var p PreviewRecord
		var fee, createdAt int64
		if err := rows.Scan(&p.ID, &p.FormID, &p.Network, &p.Recipient, &fee, &p.TxHex, &createdAt); err != nil {
			return nil, err
		}
		p.Fee = uint64(fee)
		p.CreatedAt = time.UnixMilli(createdAt)
		records = append(records, &p)
	}
	return records, rows.Err()
}

// PreviewSink returns a navigation sink that records every opening of the
// confirm screen. formID and network are read at event time.
func (s *Storage) PreviewSink(formID, network func() string) navigate.Sink {
	log := logging.GetDefault().Component("storage")
	return navigate.SinkFunc(func(e navigate.Event) {
		if e.Route != navigate.RouteConfirmBtc || e.State == nil {
			return
		}
		record := &PreviewRecord{
			ID:        e.ID,
			Network:   network(),
			Recipient: e.State.Recipient,
			Fee:       e.State.Fee,
			TxHex:     e.State.Tx,
			CreatedAt: e.At,
		}
		if formID != nil {
			record.FormID = formID()
		}
		if err := s.SavePreview(record); err != nil {
			log.Warn("Failed to record preview", "id", e.ID, "error", err)
		}
	})
}
