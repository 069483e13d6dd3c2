package models

// Settings holds tenant-wide configuration. Loaded once at startup and only
// changed through an explicit save.
type Settings struct {
	TaxID     string `json:"taxId"`
	BankOwner string `json:"bankOwner"`
	BankName  string `json:"bankName"`
	BankIBAN  string `json:"bankIban"`
	BankBIC   string `json:"bankBic"`

	// DefaultVATPercent seeds new drafts in the standalone variant.
	DefaultVATPercent float64 `json:"defaultVatPercent"`

	// SmallBusinessNote appends the § 19 UStG exemption note to invoices
	// that carry no VAT.
	SmallBusinessNote bool `json:"smallBusinessNote"`
}

// DefaultSettings returns the zero-configuration defaults.
func DefaultSettings() Settings {
	return Settings{}
}

// MergeSettings overlays a stored, possibly partial, record onto the defaults.
// Empty string fields in stored fall back to the default value.
func MergeSettings(defaults, stored Settings) Settings {
	merged := stored
	if merged.TaxID == "" {
		merged.TaxID = defaults.TaxID
	}
	if merged.BankOwner == "" {
		merged.BankOwner = defaults.BankOwner
	}
	if merged.BankName == "" {
		merged.BankName = defaults.BankName
	}
	if merged.BankIBAN == "" {
		merged.BankIBAN = defaults.BankIBAN
	}
	if merged.BankBIC == "" {
		merged.BankBIC = defaults.BankBIC
	}
	if merged.DefaultVATPercent == 0 {
		merged.DefaultVATPercent = defaults.DefaultVATPercent
	}
	return merged
}
