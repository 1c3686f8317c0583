package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/viktsys/nifty50/logger"
)

// Validate checks every section of the configuration.
func (c *Config) Validate() error {
	return errors.Join(
		c.ValidateFetch(),
		c.ValidateMerge(),
		c.ValidateDatabase(),
		c.ValidateLoad(),
		c.ValidateServer(),
		c.ValidateLog(),
	)
}

// ValidateFetch checks the settings used by the fetch command.
func (c *Config) ValidateFetch() error {
	var errs []error

	f := c.Fetch
	switch strings.ToLower(f.Provider) {
	case "yahoo":
	case "tiingo":
		if f.TiingoToken == "" {
			errs = append(errs, errors.New("fetch.tiingo_token is required for the tiingo provider"))
		}
	default:
		errs = append(errs, fmt.Errorf("fetch.provider: unknown provider %q", f.Provider))
	}
	if len(f.Tickers) == 0 {
		errs = append(errs, errors.New("fetch.tickers must not be empty"))
	}
	start, startErr := f.StartDate()
	if startErr != nil {
		errs = append(errs, fmt.Errorf("fetch.start: %w", startErr))
	}
	end, endErr := f.EndDate()
	if endErr != nil {
		errs = append(errs, fmt.Errorf("fetch.end: %w", endErr))
	}
	if startErr == nil && endErr == nil && !start.Before(end) {
		errs = append(errs, errors.New("fetch.start must be before fetch.end"))
	}
	if f.Timeout < 0 {
		errs = append(errs, errors.New("fetch.timeout must not be negative"))
	}
	if f.Concurrency < 1 {
		errs = append(errs, errors.New("fetch.concurrency must be at least 1"))
	}

	return errors.Join(errs...)
}

// ValidateMerge checks the file names used by the merge command.
func (c *Config) ValidateMerge() error {
	var errs []error
	if c.Merge.Baseline == "" {
		errs = append(errs, errors.New("merge.baseline must not be empty"))
	}
	if c.Merge.Recent == "" {
		errs = append(errs, errors.New("merge.recent must not be empty"))
	}
	if c.Merge.Output == "" {
		errs = append(errs, errors.New("merge.output must not be empty"))
	}
	return errors.Join(errs...)
}

func (c *Config) ValidateDatabase() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
		return nil
	}
	return fmt.Errorf("database.driver: unknown driver %q", c.Database.Driver)
}

func (c *Config) ValidateLoad() error {
	var errs []error
	if c.Load.BatchSize < 1 {
		errs = append(errs, errors.New("load.batch_size must be at least 1"))
	}
	if c.Load.Workers < 1 {
		errs = append(errs, errors.New("load.workers must be at least 1"))
	}
	return errors.Join(errs...)
}

func (c *Config) ValidateServer() error {
	if c.Server.Addr == "" {
		return errors.New("server.addr must not be empty")
	}
	return nil
}

func (c *Config) ValidateLog() error {
	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	return nil
}
