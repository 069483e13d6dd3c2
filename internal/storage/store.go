// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/qalinsara/rechnung/internal/models"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// KV is the minimal key-value capability the standalone draft editor needs.
// It can be backed by a local file on device or by a table in the record
// store, so the computation core never knows where its bytes live.
type KV interface {
	// Get returns the value for key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set overwrites the value for key.
	Set(ctx context.Context, key, value string) error
}

// InvoiceSummary is the list-view projection of an invoice record.
type InvoiceSummary struct {
	ID            string
	InvoiceNumber string
	IssueDate     string
	CustomerName  string
	Status        models.Status
	Total         float64
	CreatedAt     int64
}

// Store defines the interface for the multi-user invoice record store.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL, etc.)
// without changing the service layer.
type Store interface {
	// SaveInvoice upserts an invoice record. A missing ID is assigned by
	// the store, along with CreatedAt on first save.
	SaveInvoice(ctx context.Context, inv *models.Invoice) error

	// GetInvoice retrieves a live (not soft-deleted) invoice by ID.
	// Items come back in display order.
	GetInvoice(ctx context.Context, id string) (*models.Invoice, error)

	// ListInvoices returns summaries of all live invoices, newest first.
	ListInvoices(ctx context.Context) ([]InvoiceSummary, error)

	// DeleteInvoice soft-deletes an invoice by stamping DeletedAt.
	DeleteInvoice(ctx context.Context, id string) error

	// GetSettings returns the single settings row, or ErrNotFound.
	GetSettings(ctx context.Context) (*models.Settings, error)

	// SaveSettings upserts the single settings row.
	SaveSettings(ctx context.Context, s *models.Settings) error

	// Counter returns the persisted invoice counter state. A store with
	// no counter yet returns ("", 0, nil).
	Counter(ctx context.Context) (monthKey string, sequence int, err error)

	// SetCounter persists the invoice counter state.
	SetCounter(ctx context.Context, monthKey string, sequence int) error

	// CreateUser persists a new user, assigning ID and CreatedAt.
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByEmail retrieves a user by email, or ErrNotFound.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// GetUserByID retrieves a user by ID, or ErrNotFound.
	GetUserByID(ctx context.Context, id string) (*models.User, error)

	// Close releases any resources held by the store.
	Close() error
}
