package service

import (
	"log/slog"
	"time"

	"github.com/mmynk/payledger/internal/calculator"
)

// Options carries the collaborators shared by every service.
// The zero value is usable: default logger, wall clock, UTC, default symbol.
type Options struct {
	Logger  *slog.Logger
	Metrics *Metrics

	// Now is the clock. Tests pin it.
	Now func() time.Time

	// Location is the zone in which calendar days are computed.
	Location *time.Location

	CurrencySymbol string
}

func (o Options) withDefaults() Options {
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.Location == nil {
		o.Location = time.UTC
	}
	if o.CurrencySymbol == "" {
		o.CurrencySymbol = calculator.DefaultCurrencySymbol
	}
	return o
}

func (o Options) copywriter() copywriter {
	return copywriter{now: o.Now, loc: o.Location, symbol: o.CurrencySymbol}
}
