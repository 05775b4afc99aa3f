package models

import "github.com/shopspring/decimal"

// Configuration is the singleton system configuration row.
type Configuration struct {
	// CakeUnitPrice is the current price of one cake. Admin-settable;
	// changes are prospective only, existing contributions keep the price
	// recorded at their creation time.
	CakeUnitPrice decimal.Decimal

	// CurrentRoundID is the round new contributions are tagged with. The
	// round-closure detector advances it.
	CurrentRoundID int64

	// MaintenanceMode blocks contribution writers while the recomputation
	// engine replays history.
	MaintenanceMode bool
}
