// Package models defines the core domain models for the cake fund ledger.
//
// # Models
//
//   - User: a collaborator with a running balance in cake units
//   - Contribution: one purchase paid by a user, optionally split
//   - ContributionShare: one person's slice of a divided contribution
//   - CompensationRecord: audit marker emitted when a round closes
//   - Configuration: singleton with the cake unit price and round counter
//
// # Design Principles
//
//  1. All monetary and quantity fields are decimal.Decimal; floats never touch money.
//  2. Contributions are immutable once written, except for the evidence URL.
//  3. QuantityCakes is always derived from Value and the unit price captured at
//     creation time; it is never entered or edited independently.
//  4. User.Balance is mutated only by the contribution writer and the balance
//     recomputation engine.
package models
