package service

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/qalinsara/rechnung/internal/calculator"
	"github.com/qalinsara/rechnung/internal/middleware"
	"github.com/qalinsara/rechnung/internal/models"
	"github.com/qalinsara/rechnung/internal/numbering"
	"github.com/qalinsara/rechnung/internal/pdf"
	"github.com/qalinsara/rechnung/internal/sanitize"
	"github.com/qalinsara/rechnung/internal/storage"
)

var (
	// ErrNotAuthenticated guards every data-mutating call: no actor
	// identity, no persistence attempt.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrMissingCustomer rejects submission without a customer name.
	ErrMissingCustomer = errors.New("customer name is required")

	// ErrMissingNumber rejects submission without an invoice number.
	ErrMissingNumber = errors.New("invoice number is required")
)

// InvoiceService handles the multi-user invoice endpoints.
type InvoiceService struct {
	store    storage.Store
	alloc    *numbering.Allocator
	renderer *pdf.Renderer
	logoSrc  string
}

// NewInvoiceService creates a new InvoiceService with the given storage
// backend. logoSrc is the optional logo URL or file path for PDF export.
func NewInvoiceService(store storage.Store, alloc *numbering.Allocator, renderer *pdf.Renderer, logoSrc string) *InvoiceService {
	return &InvoiceService{store: store, alloc: alloc, renderer: renderer, logoSrc: logoSrc}
}

// RegisterRoutes mounts the invoice endpoints on an auth-required router.
func (s *InvoiceService) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/invoices", s.List).Methods(http.MethodGet)
	r.HandleFunc("/api/invoices", s.SaveDraft).Methods(http.MethodPost)
	r.HandleFunc("/api/invoices/next-number", s.NextNumber).Methods(http.MethodGet)
	r.HandleFunc("/api/invoices/{id}", s.Get).Methods(http.MethodGet)
	r.HandleFunc("/api/invoices/{id}", s.Update).Methods(http.MethodPut)
	r.HandleFunc("/api/invoices/{id}", s.Delete).Methods(http.MethodDelete)
	r.HandleFunc("/api/invoices/{id}/submit", s.Submit).Methods(http.MethodPost)
	r.HandleFunc("/api/invoices/{id}/pdf", s.PDF).Methods(http.MethodGet)
}

// invoiceResponse pairs a record with its computed totals for display.
type invoiceResponse struct {
	Invoice *models.Invoice   `json:"invoice"`
	Totals  calculator.Totals `json:"totals"`
}

func (s *InvoiceService) totals(r *http.Request, inv *models.Invoice) calculator.Totals {
	settings := s.settingsOrDefaults(r)
	return calculator.Compute(inv.Items, calculator.Options{
		ApplyVAT:      true,
		VATPercent:    inv.VATPercent,
		ExemptionNote: settings.SmallBusinessNote,
		ApplyDeposit:  inv.Deposit > 0,
		Deposit:       inv.Deposit,
	})
}

func (s *InvoiceService) settingsOrDefaults(r *http.Request) models.Settings {
	stored, err := s.store.GetSettings(r.Context())
	if err != nil {
		return models.DefaultSettings()
	}
	return models.MergeSettings(models.DefaultSettings(), *stored)
}

// List returns summaries of all live invoices.
func (s *InvoiceService) List(w http.ResponseWriter, r *http.Request) {
	summaries, err := s.store.ListInvoices(r.Context())
	if err != nil {
		slog.Error("ListInvoices failed", "error", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if summaries == nil {
		summaries = []storage.InvoiceSummary{}
	}
	writeJSON(w, http.StatusOK, summaries)
}

// Get returns one invoice with computed totals.
func (s *InvoiceService) Get(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	inv, err := s.store.GetInvoice(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, err)
			return
		}
		slog.Error("GetInvoice failed", "invoice_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, invoiceResponse{Invoice: inv, Totals: s.totals(r, inv)})
}

// SaveDraft upserts a new draft record for the authenticated user.
func (s *InvoiceService) SaveDraft(w http.ResponseWriter, r *http.Request) {
	s.save(w, r, "", models.StatusDraft)
}

// Update upserts an existing record, keeping draft status.
func (s *InvoiceService) Update(w http.ResponseWriter, r *http.Request) {
	s.save(w, r, mux.Vars(r)["id"], models.StatusDraft)
}

func (s *InvoiceService) save(w http.ResponseWriter, r *http.Request, id string, status models.Status) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		writeError(w, http.StatusUnauthorized, ErrNotAuthenticated)
		return
	}

	var inv models.Invoice
	if err := decodeJSON(r, &inv); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if id != "" {
		inv.ID = id
	}
	inv.Status = status
	inv.CreatedBy = userID
	sanitizeInvoice(&inv)

	// A manually entered number raises the counter's high-water mark so a
	// later allocation cannot hand out a duplicate.
	if err := s.alloc.ReconcileManualEntry(r.Context(), inv.InvoiceNumber); err != nil {
		slog.Warn("Counter reconciliation failed", "invoice_number", inv.InvoiceNumber, "error", err)
	}

	if err := s.store.SaveInvoice(r.Context(), &inv); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, err)
			return
		}
		slog.Error("SaveInvoice failed", "invoice_id", inv.ID, "error", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	slog.Info("Invoice saved", "invoice_id", inv.ID, "number", inv.InvoiceNumber, "user_id", userID)
	writeJSON(w, http.StatusOK, invoiceResponse{Invoice: &inv, Totals: s.totals(r, &inv)})
}

// Submit marks an invoice as submitted after checking preconditions.
func (s *InvoiceService) Submit(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		writeError(w, http.StatusUnauthorized, ErrNotAuthenticated)
		return
	}

	id := mux.Vars(r)["id"]
	inv, err := s.store.GetInvoice(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, err)
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	// Preconditions are rejected before any persistence attempt.
	if inv.CustomerName == "" {
		writeError(w, http.StatusBadRequest, ErrMissingCustomer)
		return
	}
	if inv.InvoiceNumber == "" {
		writeError(w, http.StatusBadRequest, ErrMissingNumber)
		return
	}

	inv.Status = models.StatusSubmitted
	if err := s.store.SaveInvoice(r.Context(), inv); err != nil {
		slog.Error("Submit failed", "invoice_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	slog.Info("Invoice submitted", "invoice_id", id, "number", inv.InvoiceNumber, "user_id", userID)
	writeJSON(w, http.StatusOK, invoiceResponse{Invoice: inv, Totals: s.totals(r, inv)})
}

// Delete soft-deletes an invoice.
func (s *InvoiceService) Delete(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := s.store.DeleteInvoice(r.Context(), id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, err)
			return
		}
		slog.Error("DeleteInvoice failed", "invoice_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	slog.Info("Invoice deleted", "invoice_id", id)
	w.WriteHeader(http.StatusNoContent)
}

// NextNumber allocates the next invoice number for the given issue date.
// When the counter store fails, a best-effort local number with a random
// suffix is returned instead so the editor keeps working.
func (s *InvoiceService) NextNumber(w http.ResponseWriter, r *http.Request) {
	issueDate := r.URL.Query().Get("issue_date")
	number, err := s.alloc.Allocate(r.Context(), issueDate)
	if err != nil {
		number = numbering.Fallback(issueDate)
		slog.Warn("Allocation failed, using fallback number",
			"issue_date", issueDate, "number", number, "error", err)
	}
	writeJSON(w, http.StatusOK, map[string]string{"invoiceNumber": number})
}

// PDF renders an invoice as a downloadable document named
// <invoiceNumber>.pdf.
func (s *InvoiceService) PDF(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	inv, err := s.store.GetInvoice(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, err)
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	settings := s.settingsOrDefaults(r)
	logo := pdf.FetchLogo(r.Context(), s.logoSrc)

	data, err := s.renderer.Render(inv, settings, logo)
	if err != nil {
		slog.Error("PDF rendering failed", "invoice_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	slog.Info("PDF generated", "invoice_id", id, "number", inv.InvoiceNumber, "bytes", len(data))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", pdf.Filename(inv)))
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Write(data)
}

// sanitizeInvoice coerces all numeric fields before storage.
func sanitizeInvoice(inv *models.Invoice) {
	inv.VATPercent = sanitize.Number(inv.VATPercent)
	inv.Deposit = sanitize.Number(inv.Deposit)
	for i := range inv.Items {
		inv.Items[i].Quantity = sanitize.Number(inv.Items[i].Quantity)
		inv.Items[i].UnitPrice = sanitize.Number(inv.Items[i].UnitPrice)
	}
	inv.NormalizeItems()
}
