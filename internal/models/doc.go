// Package models defines the core domain models for Rechnung.
//
// # Models
//
//   - Invoice: a draft or submitted invoice with its line items
//   - LineItem: one row on an invoice (description, quantity, unit price)
//   - Settings: tenant-wide configuration (tax id, bank details, VAT defaults)
//   - User: a registered account with a role (admin or employee)
//
// # Design Principles
//
//  1. **One canonical schema**: older records stored items as area/pricePerSqm,
//     newer ones as quantity/unitPrice. Both decode into LineItem; only the
//     canonical names are ever written back.
//  2. **Plain data**: no storage or transport concerns here. Serialization tags
//     describe the persisted JSON shape and nothing else.
//  3. **Money is float64 at rest**: stored records and the JSON API keep plain
//     numbers for compatibility; precise arithmetic lives in the calculator.
package models
