package signals

import "time"

// Config holds the thresholds and horizons used by every stage of a run.
type Config struct {
	ReorderLevel       float64 // stock below this is low_stock
	OverstockThreshold float64 // stock above this is overstock
	FastMovingMin      float64 // avg daily sale at or above this is fast-moving
	SlowMovingMax      float64 // avg daily sale at or below this is slow-moving

	ForecastHorizonDays int     // H in projected_total = mean * H
	TrailingWindowDays  int     // most recent distinct dates averaged by the forecaster
	SafetyFactor        float64 // optimal stock = forecast * SafetyFactor

	TransferBufferDays float64 // required stock = avg daily sale * TransferBufferDays
	SurplusThreshold   float64 // excess above this makes a store a donor
	ShortageThreshold  float64 // excess below -ShortageThreshold makes a store a receiver
	// CapacityConstrainedTransfers decrements each store's remaining excess or deficit
	// after every emitted suggestion. Off by default: every surplus/shortage pair is
	// emitted with min(excess, deficit) regardless of earlier suggestions.
	CapacityConstrainedTransfers bool

	ExpiryWarningDays int       // days_left at or below this is expiring_soon
	AsOf              time.Time // reference date for expiry; zero means today
}

// DefaultConfig returns the stock thresholds the buying team uses.
func DefaultConfig() Config {
	return Config{
		ReorderLevel:        10,
		OverstockThreshold:  60,
		FastMovingMin:       10,
		SlowMovingMax:       2,
		ForecastHorizonDays: 30,
		TrailingWindowDays:  7,
		SafetyFactor:        1.2,
		TransferBufferDays:  7,
		SurplusThreshold:    20,
		ShortageThreshold:   5,
		ExpiryWarningDays:   7,
	}
}

// withDefaults fills zero-valued fields from DefaultConfig.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.ReorderLevel == 0 {
		c.ReorderLevel = d.ReorderLevel
	}
	if c.OverstockThreshold == 0 {
		c.OverstockThreshold = d.OverstockThreshold
	}
	if c.FastMovingMin == 0 {
		c.FastMovingMin = d.FastMovingMin
	}
	if c.SlowMovingMax == 0 {
		c.SlowMovingMax = d.SlowMovingMax
	}
	if c.ForecastHorizonDays <= 0 {
		c.ForecastHorizonDays = d.ForecastHorizonDays
	}
	if c.TrailingWindowDays <= 0 {
		c.TrailingWindowDays = d.TrailingWindowDays
	}
	if c.SafetyFactor <= 0 {
		c.SafetyFactor = d.SafetyFactor
	}
	if c.TransferBufferDays <= 0 {
		c.TransferBufferDays = d.TransferBufferDays
	}
	if c.SurplusThreshold == 0 {
		c.SurplusThreshold = d.SurplusThreshold
	}
	if c.ShortageThreshold == 0 {
		c.ShortageThreshold = d.ShortageThreshold
	}
	if c.ExpiryWarningDays <= 0 {
		c.ExpiryWarningDays = d.ExpiryWarningDays
	}
	if c.AsOf.IsZero() {
		c.AsOf = time.Now()
	}
	c.AsOf = truncateDay(c.AsOf)

	return c
}
