// Package draft owns the single editable invoice draft. Every mutation
// sanitizes numeric input, writes the whole draft back to storage right away
// (there is no explicit commit step), and keeps the at-least-one-item
// invariant intact. The storage backend is an injected key-value capability,
// so the same session logic runs against a local file or the record store.
package draft

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/qalinsara/rechnung/internal/calculator"
	"github.com/qalinsara/rechnung/internal/models"
	"github.com/qalinsara/rechnung/internal/numbering"
	"github.com/qalinsara/rechnung/internal/sanitize"
	"github.com/qalinsara/rechnung/internal/storage"
)

const (
	draftKey    = "draft"
	settingsKey = "settings"
)

var (
	// ErrNoDraft is returned by mutations before a draft is loaded or created.
	ErrNoDraft = errors.New("no active draft")

	// ErrItemIndex is returned for an out-of-range item index.
	ErrItemIndex = errors.New("item index out of range")

	// ErrUnknownField is returned for a field name no draft carries.
	ErrUnknownField = errors.New("unknown draft field")

	// ErrInvalidPayment is returned for a payment method outside the
	// known set.
	ErrInvalidPayment = errors.New("unknown payment method")
)

// Session mediates between the form fields and persistent storage for one
// editor. Single active editor assumed; no cross-session coordination.
type Session struct {
	kv       storage.KV
	alloc    *numbering.Allocator
	settings models.Settings
	current  *models.Invoice
	now      func() time.Time
}

// NewSession creates a draft session over the given storage backend.
func NewSession(kv storage.KV, alloc *numbering.Allocator, settings models.Settings) *Session {
	return &Session{kv: kv, alloc: alloc, settings: settings, now: time.Now}
}

// Current returns the active draft, or nil before Load/CreateNew.
func (s *Session) Current() *models.Invoice {
	return s.current
}

// Load reads the persisted draft into the session. An absent or corrupt
// record yields storage.ErrNotFound; the caller then starts fresh via
// CreateNew.
func (s *Session) Load(ctx context.Context) (*models.Invoice, error) {
	raw, err := s.kv.Get(ctx, draftKey)
	if err != nil {
		return nil, err
	}
	var inv models.Invoice
	if err := json.Unmarshal(raw, &inv); err != nil {
		// Corrupt stored record is treated as absent.
		return nil, storage.ErrNotFound
	}
	inv.NormalizeItems()
	s.current = &inv
	return s.current, nil
}

// CreateNew starts a fresh draft: today's dates, an allocated invoice number,
// the default VAT rate from settings, and one blank line item. The new draft
// is persisted immediately.
func (s *Session) CreateNew(ctx context.Context) (*models.Invoice, error) {
	today := s.now().Format("2006-01-02")
	number, err := s.alloc.Allocate(ctx, today)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate invoice number: %w", err)
	}

	s.current = &models.Invoice{
		InvoiceNumber: number,
		IssueDate:     today,
		ServiceDate:   today,
		PaymentMethod: models.PaymentCash,
		VATPercent:    s.settings.DefaultVATPercent,
		Items:         []models.LineItem{models.BlankItem()},
		Status:        models.StatusDraft,
	}
	if err := s.Save(ctx); err != nil {
		return nil, err
	}
	return s.current, nil
}

// Save persists the full current draft.
func (s *Session) Save(ctx context.Context) error {
	if s.current == nil {
		return ErrNoDraft
	}
	s.current.NormalizeItems()
	raw, err := json.Marshal(s.current)
	if err != nil {
		return fmt.Errorf("failed to encode draft: %w", err)
	}
	return s.kv.Set(ctx, draftKey, string(raw))
}

// UpdateField writes one top-level form field. Numeric fields pass through
// the sanitizer; a manual invoice number edit also reconciles the counter so
// later allocations cannot collide with it.
func (s *Session) UpdateField(ctx context.Context, field, value string) error {
	if s.current == nil {
		return ErrNoDraft
	}
	switch field {
	case "invoiceNumber":
		s.current.InvoiceNumber = value
		if err := s.alloc.ReconcileManualEntry(ctx, value); err != nil {
			return err
		}
	case "issueDate":
		s.current.IssueDate = value
	case "serviceDate":
		s.current.ServiceDate = value
	case "customerName":
		s.current.CustomerName = value
	case "customerAddress":
		s.current.CustomerAddress = value
	case "customerPhone":
		s.current.CustomerPhone = value
	case "paymentMethod":
		method := models.PaymentMethod(value)
		if method != models.PaymentCash && method != models.PaymentBankTransfer {
			return fmt.Errorf("%w: %s", ErrInvalidPayment, value)
		}
		s.current.PaymentMethod = method
	case "vatPercent":
		s.current.VATPercent = sanitize.Number(value)
	case "deposit":
		s.current.Deposit = sanitize.Number(value)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	return s.Save(ctx)
}

// UpdateItem writes one field of one line item.
func (s *Session) UpdateItem(ctx context.Context, index int, field, value string) error {
	if s.current == nil {
		return ErrNoDraft
	}
	if index < 0 || index >= len(s.current.Items) {
		return fmt.Errorf("%w: %d", ErrItemIndex, index)
	}
	item := &s.current.Items[index]
	switch field {
	case "description":
		item.Description = value
	case "quantity", "area":
		item.Quantity = sanitize.Number(value)
	case "unitPrice", "pricePerSqm":
		item.UnitPrice = sanitize.Number(value)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	return s.Save(ctx)
}

// AddItem appends a blank line item.
func (s *Session) AddItem(ctx context.Context) error {
	if s.current == nil {
		return ErrNoDraft
	}
	s.current.Items = append(s.current.Items, models.BlankItem())
	return s.Save(ctx)
}

// RemoveItem deletes the item at index. Removing the last remaining item
// leaves a fresh blank one; a draft never has zero items.
func (s *Session) RemoveItem(ctx context.Context, index int) error {
	if s.current == nil {
		return ErrNoDraft
	}
	if index < 0 || index >= len(s.current.Items) {
		return fmt.Errorf("%w: %d", ErrItemIndex, index)
	}
	s.current.Items = append(s.current.Items[:index], s.current.Items[index+1:]...)
	if len(s.current.Items) == 0 {
		s.current.Items = []models.LineItem{models.BlankItem()}
	}
	return s.Save(ctx)
}

// Clear discards the current draft and starts a new one.
func (s *Session) Clear(ctx context.Context) (*models.Invoice, error) {
	s.current = nil
	return s.CreateNew(ctx)
}

// Totals computes the display totals for the current draft. VAT applies per
// the draft's rate (a zero rate with the settings flag set yields the
// exemption note); the deposit applies when one was entered.
func (s *Session) Totals() calculator.Totals {
	if s.current == nil {
		return calculator.Totals{}
	}
	return calculator.Compute(s.current.Items, calculator.Options{
		ApplyVAT:      true,
		VATPercent:    s.current.VATPercent,
		ExemptionNote: s.settings.SmallBusinessNote,
		ApplyDeposit:  s.current.Deposit > 0,
		Deposit:       s.current.Deposit,
	})
}
