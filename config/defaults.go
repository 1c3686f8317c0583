package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultProvider        = "yahoo"
	DefaultStart           = "2010-01-01"
	DefaultEnd             = "2022-12-31"
	DefaultInterval        = "1d"
	DefaultOutputDir       = "."
	DefaultFilePrefix      = "nifty50_daily"
	DefaultTimeout         = 30 * time.Second
	DefaultConcurrency     = 4
	DefaultBaseline        = "nifty50_daily_2010-01-01_to_2022-12-31.csv"
	DefaultRecent          = "indian_stocks_copy.csv"
	DefaultOutput          = "combined.csv"
	DefaultDBDriver        = "postgres"
	DefaultDBHost          = "localhost"
	DefaultDBPort          = 5432
	DefaultDBUser          = "postgres"
	DefaultDBPassword      = "password"
	DefaultDBName          = "nifty50"
	DefaultDBSSLMode       = "disable"
	DefaultDBTimeZone      = "Asia/Kolkata"
	DefaultDBPath          = "data/nifty50.db"
	DefaultMaxOpenConns    = 25
	DefaultMaxIdleConns    = 25
	DefaultConnMaxLifetime = 30 * time.Minute
	DefaultBatchSize       = 2000
	DefaultWorkers         = 8
	DefaultServerAddr      = ":8080"
	DefaultLogLevel        = "info"
	DefaultLogFormat       = "text"
)

// Nifty50Tickers is the NSE constituent list used when no tickers are configured.
var Nifty50Tickers = []string{
	"ADANIENT.NS", "ADANIPORTS.NS", "APOLLOHOSP.NS", "ASIANPAINT.NS", "AXISBANK.NS",
	"BAJAJ-AUTO.NS", "BAJFINANCE.NS", "BAJAJFINSV.NS", "BPCL.NS", "BHARTIARTL.NS",
	"BRITANNIA.NS", "CIPLA.NS", "COALINDIA.NS", "DIVISLAB.NS", "DRREDDY.NS",
	"EICHERMOT.NS", "GRASIM.NS", "HCLTECH.NS", "HDFCBANK.NS", "HDFCLIFE.NS",
	"HEROMOTOCO.NS", "HINDALCO.NS", "HINDUNILVR.NS", "ICICIBANK.NS", "ITC.NS",
	"INDUSINDBK.NS", "INFY.NS", "JSWSTEEL.NS", "KOTAKBANK.NS", "LT.NS",
	"M&M.NS", "MARUTI.NS", "NTPC.NS", "NESTLEIND.NS", "ONGC.NS",
	"POWERGRID.NS", "RELIANCE.NS", "SBILIFE.NS", "SBIN.NS", "SUNPHARMA.NS",
	"TCS.NS", "TATACONSUM.NS", "TATAMOTORS.NS", "TATASTEEL.NS", "TECHM.NS",
	"TITAN.NS", "UPL.NS", "ULTRACEMCO.NS", "WIPRO.NS",
}

func (c *Config) applyDefaults() {
	f := &c.Fetch
	if f.Provider == "" {
		f.Provider = DefaultProvider
	}
	if len(f.Tickers) == 0 {
		f.Tickers = append([]string(nil), Nifty50Tickers...)
	}
	if f.Start == "" {
		f.Start = DefaultStart
	}
	if f.End == "" {
		f.End = DefaultEnd
	}
	if f.Interval == "" {
		f.Interval = DefaultInterval
	}
	if f.OutputDir == "" {
		f.OutputDir = DefaultOutputDir
	}
	if f.FilePrefix == "" {
		f.FilePrefix = DefaultFilePrefix
	}
	if f.Timeout == 0 {
		f.Timeout = DefaultTimeout
	}
	if f.Concurrency == 0 {
		f.Concurrency = DefaultConcurrency
	}

	m := &c.Merge
	if m.Baseline == "" {
		m.Baseline = DefaultBaseline
	}
	if m.Recent == "" {
		m.Recent = DefaultRecent
	}
	if m.Output == "" {
		m.Output = DefaultOutput
	}

	db := &c.Database
	if db.Driver == "" {
		db.Driver = DefaultDBDriver
	}
	if db.Host == "" {
		db.Host = DefaultDBHost
	}
	if db.Port == 0 {
		db.Port = DefaultDBPort
	}
	if db.User == "" {
		db.User = DefaultDBUser
	}
	if db.Password == "" {
		db.Password = DefaultDBPassword
	}
	if db.Name == "" {
		db.Name = DefaultDBName
	}
	if db.SSLMode == "" {
		db.SSLMode = DefaultDBSSLMode
	}
	if db.TimeZone == "" {
		db.TimeZone = DefaultDBTimeZone
	}
	if db.Path == "" {
		db.Path = DefaultDBPath
	}
	if db.MaxOpenConns == 0 {
		db.MaxOpenConns = DefaultMaxOpenConns
	}
	if db.MaxIdleConns == 0 {
		db.MaxIdleConns = DefaultMaxIdleConns
	}
	if db.ConnMaxLifetime == 0 {
		db.ConnMaxLifetime = DefaultConnMaxLifetime
	}

	if c.Load.BatchSize == 0 {
		c.Load.BatchSize = DefaultBatchSize
	}
	if c.Load.Workers == 0 {
		c.Load.Workers = DefaultWorkers
	}
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultServerAddr
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Log.Format == "" {
		c.Log.Format = DefaultLogFormat
	}
}
