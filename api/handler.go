package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/viktsys/nifty50/models"
	"github.com/viktsys/nifty50/timestamp"
	"gorm.io/gorm"
)

const (
	DefaultLimit = 500
	MaxLimit     = 5000
)

var errUnknownTicker = errors.New("unknown ticker")

type BarsQuery struct {
	Tic   string `form:"tic" binding:"required"`
	Start string `form:"start"`
	End   string `form:"end"`
	Limit int    `form:"limit" binding:"omitempty,min=1"`
}

type StatsQuery struct {
	Tic   string `form:"tic" binding:"required"`
	Start string `form:"start"`
}

type Handler struct {
	db *gorm.DB
}

func NewHandler(db *gorm.DB) *Handler {
	return &Handler{db: db}
}

// GetBars lists stored bars for one ticker in date order, start inclusive and end exclusive.
func (h *Handler) GetBars(c *gin.Context) {
	var params BarsQuery
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	start, end, ok := parseRange(c, params.Start, params.End)
	if !ok {
		return
	}
	limit := params.Limit
	if limit == 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	if err := h.requireTicker(params.Tic); err != nil {
		writeError(c, err)
		return
	}

	query := h.db.Model(&models.DailyBar{}).Where("tic = ?", params.Tic)
	if !start.IsZero() {
		query = query.Where("date >= ?", start)
	}
	if !end.IsZero() {
		query = query.Where("date < ?", end)
	}

	var bars []models.DailyBar
	if err := query.Order("date").Limit(limit).Find(&bars).Error; err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"tic": params.Tic, "count": len(bars), "bars": bars})
}

// GetBarStats aggregates the bars of one ticker from start onwards.
func (h *Handler) GetBarStats(c *gin.Context) {
	var params StatsQuery
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	start, _, ok := parseRange(c, params.Start, "")
	if !ok {
		return
	}

	if err := h.requireTicker(params.Tic); err != nil {
		writeError(c, err)
		return
	}

	stats, err := h.calculateStats(params.Tic, start)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

func (h *Handler) requireTicker(tic string) error {
	var n int64
	if err := h.db.Model(&models.DailyBar{}).Where("tic = ?", tic).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return errUnknownTicker
	}
	return nil
}

func (h *Handler) calculateStats(tic string, start time.Time) (*models.BarStats, error) {
	scope := func() *gorm.DB {
		q := h.db.Model(&models.DailyBar{}).Where("tic = ?", tic)
		if !start.IsZero() {
			q = q.Where("date >= ?", start)
		}
		return q
	}

	var result struct {
		Bars           int64
		MinClose       decimal.NullDecimal
		MaxClose       decimal.NullDecimal
		MaxDailyVolume int64
	}
	err := scope().
		Select("COUNT(*) AS bars, MIN(close) AS min_close, MAX(close) AS max_close, COALESCE(MAX(volume), 0) AS max_daily_volume").
		Scan(&result).Error
	if err != nil {
		return nil, err
	}

	stats := &models.BarStats{
		Tic:            tic,
		Bars:           result.Bars,
		MinClose:       result.MinClose.Decimal,
		MaxClose:       result.MaxClose.Decimal,
		MaxDailyVolume: result.MaxDailyVolume,
	}
	if result.Bars == 0 {
		return stats, nil
	}

	// Typed rows keep date scanning portable across drivers
	var first, last models.DailyBar
	if err := scope().Order("date").First(&first).Error; err != nil {
		return nil, err
	}
	if err := scope().Order("date DESC").First(&last).Error; err != nil {
		return nil, err
	}
	stats.FirstDate = first.Date
	stats.LastDate = last.Date

	return stats, nil
}

func parseRange(c *gin.Context, startParam, endParam string) (start, end time.Time, ok bool) {
	var err error
	if startParam != "" {
		if start, err = time.Parse(timestamp.DateLayout, startParam); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid start date format. Use YYYY-MM-DD"})
			return start, end, false
		}
	}
	if endParam != "" {
		if end, err = time.Parse(timestamp.DateLayout, endParam); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid end date format. Use YYYY-MM-DD"})
			return start, end, false
		}
	}
	if !start.IsZero() && !end.IsZero() && !start.Before(end) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "start must be before end"})
		return start, end, false
	}
	return start, end, true
}

func writeError(c *gin.Context, err error) {
	if errors.Is(err, errUnknownTicker) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

func SetupRoutes(db *gorm.DB) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	h := NewHandler(db)
	r.GET("/api/bars", h.GetBars)
	r.GET("/api/bars/stats", h.GetBarStats)

	return r
}
