// Package availability answers whether a property can be booked for a stay.
package availability

import (
	"context"
	"log/slog"

	domcal "stayhub/internal/domain/calendar"
	"stayhub/internal/domain/daterange"
	dompricing "stayhub/internal/domain/pricing"
	"stayhub/internal/domain/property"
	"stayhub/internal/domain/user"
	"stayhub/internal/pkg/errs"
	"stayhub/internal/usecase/calendar"
	"stayhub/internal/usecase/shared"

	"github.com/google/uuid"
)

const (
	ReasonCapacityExceeded = "capacity exceeded"
	ReasonDatesUnavailable = "dates unavailable"
)

var ErrInvalidGuests = errs.MarkNew("guests must be at least 1", errs.ErrValidation)

type BlockedRangeSource interface {
	BlockedRanges(ctx context.Context, p *property.Property, window daterange.Range) (calendar.Result, error)
}

type Quoter interface {
	Quote(ctx context.Context, p *property.Property, requester user.Identity, nights int) dompricing.Quote
}

type Query struct {
	PropertyID uuid.UUID
	Stay       daterange.Range
	Guests     int
	Requester  user.Identity
}

type Result struct {
	Available bool
	Reason    string
	Conflicts []domcal.BlockedRange
	// Set only when available.
	Quote    *dompricing.Quote
	Warnings []domcal.Warning
}

// Degraded reports that some external source was skipped, so the answer may be optimistic.
func (r Result) Degraded() bool {
	return len(r.Warnings) > 0
}

//go:generate mockgen -destination=../../testutil/mock/availability/checker_mock.go -package=availabilitymock stayhub/internal/usecase/availability Checker

// Checker answers availability questions for the HTTP layer.
type Checker interface {
	Check(ctx context.Context, q Query) (Result, error)
}

type Engine struct {
	properties shared.PropertyReader
	sources    BlockedRangeSource
	quoter     Quoter
	logger     *slog.Logger
}

var _ Checker = (*Engine)(nil)

func NewEngine(properties shared.PropertyReader, sources BlockedRangeSource, quoter Quoter, logger *slog.Logger) *Engine {
	return &Engine{
		properties: properties,
		sources:    sources,
		quoter:     quoter,
		logger:     logger.With(slog.String("component", "availability")),
	}
}

// Check loads the property and evaluates the query. It never writes.
func (e *Engine) Check(ctx context.Context, q Query) (Result, error) {
	if q.Stay.IsZero() {
		return Result{}, errs.Mark(daterange.ErrInvalidRange, errs.ErrValidation)
	}
	if q.Guests < 1 {
		return Result{}, ErrInvalidGuests
	}
	p, err := e.properties.PropertyByID(ctx, q.PropertyID)
	if err != nil {
		return Result{}, err
	}
	return e.Evaluate(ctx, p, q.Stay, q.Guests, q.Requester)
}

// Evaluate runs the availability rules against an already loaded property.
func (e *Engine) Evaluate(ctx context.Context, p *property.Property, stay daterange.Range, guests int, requester user.Identity) (Result, error) {
	if guests < 1 {
		return Result{}, ErrInvalidGuests
	}
	if !p.Fits(guests) {
		return Result{Available: false, Reason: ReasonCapacityExceeded}, nil
	}

	blocked, err := e.sources.BlockedRanges(ctx, p, stay)
	if err != nil {
		return Result{}, errs.Wrap(err, "failed to collect blocked ranges")
	}

	res := Result{Warnings: blocked.Warnings}
	if conflicts := domcal.Conflicts(stay, blocked.Ranges); len(conflicts) > 0 {
		res.Reason = ReasonDatesUnavailable
		res.Conflicts = conflicts
		return res, nil
	}

	quote := e.quoter.Quote(ctx, p, requester, stay.Nights())
	res.Available = true
	res.Quote = &quote
	if res.Degraded() {
		e.logger.Info("availability answered with skipped sources",
			slog.String("property_id", p.ID().String()),
			slog.Int("warnings", len(res.Warnings)))
	}
	return res, nil
}
