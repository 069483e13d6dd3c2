package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/qalinsara/rechnung/internal/models"
	"github.com/qalinsara/rechnung/internal/storage"
)

// GetSettings returns the single settings row, or storage.ErrNotFound.
func (s *SQLiteStore) GetSettings(ctx context.Context) (*models.Settings, error) {
	settings := &models.Settings{}
	err := s.db.QueryRowContext(ctx, `
		SELECT tax_id, bank_owner, bank_name, bank_iban, bank_bic,
		       default_vat_percent, small_business_note
		FROM settings WHERE id = 1`,
	).Scan(
		&settings.TaxID, &settings.BankOwner, &settings.BankName,
		&settings.BankIBAN, &settings.BankBIC,
		&settings.DefaultVATPercent, &settings.SmallBusinessNote,
	)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}
	return settings, nil
}

// SaveSettings upserts the single settings row.
func (s *SQLiteStore) SaveSettings(ctx context.Context, settings *models.Settings) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (
			id, tax_id, bank_owner, bank_name, bank_iban, bank_bic,
			default_vat_percent, small_business_note
		) VALUES (1, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			tax_id = excluded.tax_id,
			bank_owner = excluded.bank_owner,
			bank_name = excluded.bank_name,
			bank_iban = excluded.bank_iban,
			bank_bic = excluded.bank_bic,
			default_vat_percent = excluded.default_vat_percent,
			small_business_note = excluded.small_business_note`,
		settings.TaxID, settings.BankOwner, settings.BankName,
		settings.BankIBAN, settings.BankBIC,
		settings.DefaultVATPercent, settings.SmallBusinessNote,
	)
	if err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}

// Counter returns the persisted invoice counter state, or ("", 0) if none.
func (s *SQLiteStore) Counter(ctx context.Context) (string, int, error) {
	var monthKey string
	var sequence int
	err := s.db.QueryRowContext(ctx,
		"SELECT month_key, sequence FROM invoice_counter WHERE id = 1",
	).Scan(&monthKey, &sequence)
	if err == sql.ErrNoRows {
		return "", 0, nil
	}
	if err != nil {
		return "", 0, fmt.Errorf("failed to get invoice counter: %w", err)
	}
	return monthKey, sequence, nil
}

// SetCounter persists the invoice counter state.
func (s *SQLiteStore) SetCounter(ctx context.Context, monthKey string, sequence int) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO invoice_counter (id, month_key, sequence) VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			month_key = excluded.month_key,
			sequence = excluded.sequence`,
		monthKey, sequence,
	)
	if err != nil {
		return fmt.Errorf("failed to set invoice counter: %w", err)
	}
	return nil
}

// Get reads a value from the kv table, satisfying storage.KV so a draft
// session can run against the record store instead of a local file.
func (s *SQLiteStore) Get(ctx context.Context, key string) ([]byte, error) {
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get kv entry: %w", err)
	}
	return []byte(value), nil
}

// Set writes a value to the kv table.
func (s *SQLiteStore) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kv (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("failed to set kv entry: %w", err)
	}
	return nil
}
