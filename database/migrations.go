package database

import (
	"fmt"

	"gorm.io/gorm"
)

// OptimizeIndexes creates the lookup indexes used by the stats API.
// The statements are valid for both PostgreSQL and SQLite.
func OptimizeIndexes(db *gorm.DB) error {
	// Ticker first, then date: every API query filters on a single ticker
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_daily_bars_tic_date
		ON daily_bars (tic, date DESC)
	`).Error; err != nil {
		return fmt.Errorf("failed to create ticker/date index: %w", err)
	}

	// Used by MAX(volume) lookups
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_daily_bars_tic_volume
		ON daily_bars (tic, volume DESC)
		WHERE volume IS NOT NULL
	`).Error; err != nil {
		return fmt.Errorf("failed to create ticker/volume index: %w", err)
	}

	return nil
}
