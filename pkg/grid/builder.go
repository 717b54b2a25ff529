package grid

import (
	"cmp"
	"slices"

	"github.com/samber/lo"

	"github.com/mpapenbr/racepredict/log"
	"github.com/mpapenbr/racepredict/pkg/coefficients"
	"github.com/mpapenbr/racepredict/pkg/model"
)

const (
	// DefaultPoleTime is used when no driver set a qualifying time
	DefaultPoleTime = 80.0

	// drivers without a time get fallbackGapBase + index*fallbackGapStep
	fallbackGapBase = 2.0
	fallbackGapStep = 0.1
)

type (
	Builder struct {
		tables   *coefficients.Tables
		poleTime *float64
		l        *log.Logger
	}
	Option func(*Builder)

	// Grid is the starting field ready for simulation.
	Grid struct {
		Entries  []model.DriverEntry
		PoleTime float64
		Warnings []*coefficients.MissingCoefficientWarning
	}
)

func WithPoleTime(t float64) Option {
	return func(b *Builder) {
		b.poleTime = &t
	}
}

func WithLogger(l *log.Logger) Option {
	return func(b *Builder) {
		b.l = l
	}
}

func NewBuilder(tables *coefficients.Tables, opts ...Option) *Builder {
	ret := &Builder{
		tables: tables,
		l:      log.Default().Named("grid"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

// Build combines the qualifying results with the coefficient tables.
// Gaps are taken as given or derived from the lap times. The result is not
// validated here, inconsistent input is reported by the simulation.
func (b *Builder) Build(results []model.QualifyingResult) *Grid {
	rows := slices.Clone(results)
	slices.SortStableFunc(rows, func(a, b model.QualifyingResult) int {
		return cmp.Compare(a.GridPosition, b.GridPosition)
	})

	reference := referenceTime(rows)
	ret := &Grid{
		Entries:  make([]model.DriverEntry, 0, len(rows)),
		PoleTime: lo.FromPtrOr(b.poleTime, reference),
	}
	prevGap := 0.0
	for i := range rows {
		row := &rows[i]
		entry := model.DriverEntry{
			DriverID:     row.DriverID,
			GridPosition: row.GridPosition,
		}
		switch gap, ok := gapOf(row, reference); {
		case ok:
			entry.QualifyingGap = gap
		default:
			entry.QualifyingGap = max(fallbackGapBase+float64(i)*fallbackGapStep, prevGap)
			w := &coefficients.MissingCoefficientWarning{
				Subject: coefficients.SubjectQualifying,
				Key:     row.DriverID,
			}
			w.Add("gap", entry.QualifyingGap)
			ret.Warnings = append(ret.Warnings, w)
		}
		prevGap = entry.QualifyingGap

		if w := b.tables.ApplyDriver(&entry); w != nil {
			ret.Warnings = append(ret.Warnings, w)
		}
		ret.Entries = append(ret.Entries, entry)
	}
	for _, w := range ret.Warnings {
		b.l.Warn("using defaults", log.String("warning", w.String()))
	}
	return ret
}

// gapOf prefers the explicit gap over the one derived from the lap time
func gapOf(row *model.QualifyingResult, reference float64) (float64, bool) {
	if row.Gap != nil {
		return *row.Gap, true
	}
	if t, ok := row.BestTime(); ok {
		return t - reference, true
	}
	return 0, false
}

// referenceTime is the pole lap according to the first driver on the grid who
// set a time. Gaps from lap times are relative to it, even if the pole time
// used for the race pace is overridden.
func referenceTime(rows []model.QualifyingResult) float64 {
	for i := range rows {
		if t, ok := rows[i].BestTime(); ok {
			return t - lo.FromPtrOr(rows[i].Gap, 0)
		}
	}
	return DefaultPoleTime
}
