package simulation

import (
	"cmp"
	"slices"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/mpapenbr/racepredict/pkg/model"
)

type (
	// DriverOutcome aggregates all trials for one driver.
	DriverOutcome struct {
		DriverID          string  `json:"driverId"`
		GridPosition      int     `json:"gridPosition"`
		QualifyingGap     float64 `json:"qualifyingGap"`
		Wins              int     `json:"wins"`
		Podiums           int     `json:"podiums"`
		WinProbability    float64 `json:"winProbability"`
		PodiumProbability float64 `json:"podiumProbability"`
		AverageFinish     float64 `json:"averageFinish"`
		// noiseless race pace and the race time derived from it
		ExpectedPace     float64 `json:"expectedPace"`
		ExpectedRaceTime float64 `json:"expectedRaceTime"`
		// sampled race pace over all trials
		MeanPace   float64 `json:"meanPace"`
		PaceStdDev float64 `json:"paceStdDev"`
	}

	Result struct {
		Trials     int                `json:"trials"`
		Seed       uint64             `json:"seed"`
		SafetyCars int                `json:"safetyCars"`
		PoleTime   float64            `json:"poleTime"`
		Track      model.TrackProfile `json:"track"`
		// ordered by descending win probability
		Outcomes []DriverOutcome `json:"outcomes"`
	}
)

// Winner returns the predicted winner: highest win probability, ties broken
// by the lower qualifying gap.
func (r *Result) Winner() DriverOutcome {
	return r.Outcomes[0]
}

// Rank orders the outcomes by descending win count. Equal win counts are
// ordered by qualifying gap, then grid position.
func (r *Result) Rank() {
	slices.SortFunc(r.Outcomes, compareOutcome)
}

// ByPodium returns the outcomes ordered by descending podium probability.
func (r *Result) ByPodium() []DriverOutcome {
	ret := slices.Clone(r.Outcomes)
	slices.SortStableFunc(ret, func(a, b DriverOutcome) int {
		if c := cmp.Compare(b.Podiums, a.Podiums); c != 0 {
			return c
		}
		return compareOutcome(a, b)
	})
	return ret
}

func (r *Result) TotalWins() int {
	return lo.SumBy(r.Outcomes, func(o DriverOutcome) int { return o.Wins })
}

func (r *Result) Outcome(driverID string) (DriverOutcome, bool) {
	return lo.Find(r.Outcomes, func(o DriverOutcome) bool { return o.DriverID == driverID })
}

// WinPercent returns the win probability as percentage with one decimal place
func (o DriverOutcome) WinPercent() string {
	return percent(o.WinProbability)
}

func (o DriverOutcome) PodiumPercent() string {
	return percent(o.PodiumProbability)
}

func percent(p float64) string {
	return decimal.NewFromFloat(p).Shift(2).StringFixed(1) + "%"
}

// compareOutcome: more wins first, then lower qualifying gap, then grid
func compareOutcome(a, b DriverOutcome) int {
	if c := cmp.Compare(b.Wins, a.Wins); c != 0 {
		return c
	}
	if c := cmp.Compare(a.QualifyingGap, b.QualifyingGap); c != 0 {
		return c
	}
	return cmp.Compare(a.GridPosition, b.GridPosition)
}

func (j *trialJob) result(t *tally) *Result {
	r := j.runner
	n := float64(r.trials)
	outcomes := make([]DriverOutcome, len(j.entries))
	for i := range j.entries {
		e := &j.entries[i]
		expected := racePace(e, j.in.PoleTime, r.baseMarkup, &j.in.Track, 0)
		mean, std := t.paceStats(i)
		outcomes[i] = DriverOutcome{
			DriverID:          e.DriverID,
			GridPosition:      e.GridPosition,
			QualifyingGap:     e.QualifyingGap,
			Wins:              t.wins[i],
			Podiums:           t.podiums[i],
			WinProbability:    float64(t.wins[i]) / n,
			PodiumProbability: float64(t.podiums[i]) / n,
			AverageFinish:     float64(t.positionSum[i]) / n,
			ExpectedPace:      expected,
			ExpectedRaceTime:  expected * float64(j.in.Track.LapCount),
			MeanPace:          mean,
			PaceStdDev:        std,
		}
	}
	ret := &Result{
		Trials:     r.trials,
		Seed:       r.seed,
		SafetyCars: t.safetyCars,
		PoleTime:   j.in.PoleTime,
		Track:      j.in.Track,
		Outcomes:   outcomes,
	}
	ret.Rank()
	return ret
}
