// Package beanimport translates brokerage records into double-entry ledger
// entries, reconciling them with the entries already in the ledger.
//
// The core functionalities include:
//   - Lot tracking: the open lots of a security are rebuilt from the ledger
//     history (History) and sales consume them oldest first (Inventory.Sell),
//     splitting the last lot when needed.
//   - Realized gains: a sale is booked with its cash proceeds, its profit or
//     loss and one posting per sold lot at its original cost (SalePostings).
//   - Withholding taxes: tax records are merged into the dividends they were
//     withheld on, and tax recalculations are booked against the dividend they
//     amend (ReconcileWithholdingTaxes).
//   - Importers: Interactive Brokers (IBKR) and finpension (Finpension) records
//     are translated into balanced transactions carrying a trans_id, so that a
//     file imported twice produces no new entries.
//   - Data Persistence: entries and records are read and written as JSONL.
//
// Anomalies that leave the ledger balanced, like a sale not covered by the
// open lots, are returned as Diagnostics. Malformed records abort the
// extraction with a *RowError.
//
// This package serves as the foundational logic for the `bimp` command-line
// tool.
package beanimport
