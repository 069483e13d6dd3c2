package models

import "encoding/json"

// Status describes the lifecycle state of an invoice.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusSubmitted Status = "submitted"
)

// PaymentMethod is how the customer pays.
type PaymentMethod string

const (
	PaymentCash         PaymentMethod = "cash"
	PaymentBankTransfer PaymentMethod = "bank_transfer"
)

// LineItem is a single row on an invoice: a non-negative quantity (for this
// business usually an area in m²) times a non-negative unit price.
type LineItem struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unitPrice"`
}

// lineItemJSON carries both the canonical field names and the legacy
// area/pricePerSqm names older drafts were stored with.
type lineItemJSON struct {
	Description string   `json:"description"`
	Quantity    *float64 `json:"quantity"`
	UnitPrice   *float64 `json:"unitPrice"`
	Area        *float64 `json:"area"`
	PricePerSqm *float64 `json:"pricePerSqm"`
}

// UnmarshalJSON accepts both the canonical and the legacy item shape.
// Canonical names win when both are present.
func (it *LineItem) UnmarshalJSON(data []byte) error {
	var raw lineItemJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	it.Description = raw.Description
	switch {
	case raw.Quantity != nil:
		it.Quantity = *raw.Quantity
	case raw.Area != nil:
		it.Quantity = *raw.Area
	}
	switch {
	case raw.UnitPrice != nil:
		it.UnitPrice = *raw.UnitPrice
	case raw.PricePerSqm != nil:
		it.UnitPrice = *raw.PricePerSqm
	}
	return nil
}

// BlankItem returns a fresh empty line item. Drafts always hold at least one.
func BlankItem() LineItem {
	return LineItem{}
}

// Invoice represents one invoice, draft or submitted.
type Invoice struct {
	// ID is the unique identifier (UUID format). Empty until first saved
	// to the record store; the standalone draft file does not use it.
	ID string `json:"id,omitempty"`

	InvoiceNumber string `json:"invoiceNumber"`

	// IssueDate and ServiceDate are ISO dates (YYYY-MM-DD).
	IssueDate   string `json:"issueDate"`
	ServiceDate string `json:"serviceDate"`

	CustomerName    string `json:"customerName"`
	CustomerAddress string `json:"customerAddress"`
	CustomerPhone   string `json:"customerPhone"`

	// PaymentMethod is used by the multi-user variant.
	PaymentMethod PaymentMethod `json:"paymentMethod,omitempty"`

	// VATPercent applies in the standalone variant; 0 means no VAT line.
	VATPercent float64 `json:"vatPercent,omitempty"`

	// Deposit ("Anzahlung") applies in the multi-user variant.
	Deposit float64 `json:"deposit,omitempty"`

	// Items is never empty: a draft always carries at least one,
	// possibly blank, line item. Order is display order.
	Items []LineItem `json:"items"`

	Status Status `json:"status"`

	// CreatedBy is the ID of the user who created the record.
	CreatedBy string `json:"createdBy,omitempty"`

	// CreatedAt is the Unix timestamp when the record was first saved.
	CreatedAt int64 `json:"createdAt,omitempty"`

	// DeletedAt is the Unix timestamp of a soft delete, nil if live.
	DeletedAt *int64 `json:"deletedAt,omitempty"`
}

// NormalizeItems guarantees the at-least-one-item invariant.
func (inv *Invoice) NormalizeItems() {
	if len(inv.Items) == 0 {
		inv.Items = []LineItem{BlankItem()}
	}
}
