package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DailyBar stores one OHLCV bar per date and ticker
type DailyBar struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	Date      time.Time       `gorm:"uniqueIndex:uidx_date_tic;not null" json:"date"`
	Tic       string          `gorm:"uniqueIndex:uidx_date_tic;size:32;not null" json:"tic"`
	Open      decimal.Decimal `gorm:"type:numeric(18,4)" json:"open"`
	High      decimal.Decimal `gorm:"type:numeric(18,4)" json:"high"`
	Low       decimal.Decimal `gorm:"type:numeric(18,4)" json:"low"`
	Close     decimal.Decimal `gorm:"type:numeric(18,4)" json:"close"`
	Volume    int64           `json:"volume"`
	LoadID    string          `gorm:"size:36;index" json:"load_id"`
	CreatedAt time.Time       `json:"created_at"`
}

// BarStats is the aggregate returned by the stats API for one ticker
type BarStats struct {
	Tic            string          `json:"tic"`
	Bars           int64           `json:"bars"`
	FirstDate      time.Time       `json:"first_date"`
	LastDate       time.Time       `json:"last_date"`
	MinClose       decimal.Decimal `json:"min_close"`
	MaxClose       decimal.Decimal `json:"max_close"`
	MaxDailyVolume int64           `json:"max_daily_volume"`
}
