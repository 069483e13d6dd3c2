package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/qalinsara/rechnung/internal/models"
	"github.com/qalinsara/rechnung/internal/storage"
)

// SaveInvoice upserts an invoice and its line items in one transaction.
// A missing ID and CreatedAt are assigned here. A soft-deleted invoice is
// gone as far as callers are concerned: writing to its ID reports
// storage.ErrNotFound and leaves the dead row untouched.
func (s *SQLiteStore) SaveInvoice(ctx context.Context, inv *models.Invoice) error {
	if inv.ID == "" {
		inv.ID = uuid.New().String()
	}
	if inv.CreatedAt == 0 {
		inv.CreatedAt = time.Now().Unix()
	}
	if inv.Status == "" {
		inv.Status = models.StatusDraft
	}
	inv.NormalizeItems()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var deletedAt sql.NullInt64
	err = tx.QueryRowContext(ctx, "SELECT deleted_at FROM invoices WHERE id = ?", inv.ID).Scan(&deletedAt)
	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("failed to check invoice: %w", err)
	}
	if deletedAt.Valid {
		return storage.ErrNotFound
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO invoices (
			id, invoice_number, issue_date, service_date,
			customer_name, customer_address, customer_phone,
			payment_method, vat_percent, deposit, status,
			created_by, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			invoice_number = excluded.invoice_number,
			issue_date = excluded.issue_date,
			service_date = excluded.service_date,
			customer_name = excluded.customer_name,
			customer_address = excluded.customer_address,
			customer_phone = excluded.customer_phone,
			payment_method = excluded.payment_method,
			vat_percent = excluded.vat_percent,
			deposit = excluded.deposit,
			status = excluded.status`,
		inv.ID, inv.InvoiceNumber, inv.IssueDate, inv.ServiceDate,
		inv.CustomerName, inv.CustomerAddress, inv.CustomerPhone,
		string(inv.PaymentMethod), inv.VATPercent, inv.Deposit, string(inv.Status),
		inv.CreatedBy, inv.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert invoice: %w", err)
	}

	// Items are rewritten wholesale so positions always mirror display order.
	if _, err := tx.ExecContext(ctx, "DELETE FROM line_items WHERE invoice_id = ?", inv.ID); err != nil {
		return fmt.Errorf("failed to clear line items: %w", err)
	}
	for i, item := range inv.Items {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO line_items (invoice_id, position, description, quantity, unit_price) VALUES (?, ?, ?, ?, ?)",
			inv.ID, i, item.Description, item.Quantity, item.UnitPrice,
		)
		if err != nil {
			return fmt.Errorf("failed to insert line item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetInvoice retrieves a live invoice with its items in display order.
func (s *SQLiteStore) GetInvoice(ctx context.Context, id string) (*models.Invoice, error) {
	inv := &models.Invoice{}
	var paymentMethod, status string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, invoice_number, issue_date, service_date,
		       customer_name, customer_address, customer_phone,
		       payment_method, vat_percent, deposit, status,
		       created_by, created_at, deleted_at
		FROM invoices WHERE id = ? AND deleted_at IS NULL`,
		id,
	).Scan(
		&inv.ID, &inv.InvoiceNumber, &inv.IssueDate, &inv.ServiceDate,
		&inv.CustomerName, &inv.CustomerAddress, &inv.CustomerPhone,
		&paymentMethod, &inv.VATPercent, &inv.Deposit, &status,
		&inv.CreatedBy, &inv.CreatedAt, &inv.DeletedAt,
	)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}
	inv.PaymentMethod = models.PaymentMethod(paymentMethod)
	inv.Status = models.Status(status)

	rows, err := s.db.QueryContext(ctx,
		"SELECT description, quantity, unit_price FROM line_items WHERE invoice_id = ? ORDER BY position",
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get line items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item models.LineItem
		if err := rows.Scan(&item.Description, &item.Quantity, &item.UnitPrice); err != nil {
			return nil, fmt.Errorf("failed to scan line item: %w", err)
		}
		inv.Items = append(inv.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate line items: %w", err)
	}

	inv.NormalizeItems()
	return inv, nil
}

// ListInvoices returns summaries of all live invoices, newest first.
func (s *SQLiteStore) ListInvoices(ctx context.Context) ([]storage.InvoiceSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT i.id, i.invoice_number, i.issue_date, i.customer_name, i.status, i.created_at,
		       COALESCE(SUM(li.quantity * li.unit_price), 0)
		FROM invoices i
		LEFT JOIN line_items li ON li.invoice_id = i.id
		WHERE i.deleted_at IS NULL
		GROUP BY i.id
		ORDER BY i.created_at DESC, i.id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}
	defer rows.Close()

	var summaries []storage.InvoiceSummary
	for rows.Next() {
		var sum storage.InvoiceSummary
		var status string
		if err := rows.Scan(&sum.ID, &sum.InvoiceNumber, &sum.IssueDate, &sum.CustomerName, &status, &sum.CreatedAt, &sum.Total); err != nil {
			return nil, fmt.Errorf("failed to scan invoice summary: %w", err)
		}
		sum.Status = models.Status(status)
		summaries = append(summaries, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate invoices: %w", err)
	}
	return summaries, nil
}

// DeleteInvoice soft-deletes an invoice.
func (s *SQLiteStore) DeleteInvoice(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE invoices SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL",
		time.Now().Unix(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete invoice: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}
