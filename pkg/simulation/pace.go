package simulation

import (
	"fmt"
	"math"

	"github.com/mpapenbr/racepredict/pkg/model"
)

const (
	// DefaultBaseMarkup is added to the pole time to get from a qualifying lap
	// to a race lap.
	DefaultBaseMarkup = 5.0

	trafficDragPerSlot  = 0.5
	elitePasserFactor   = 0.5
	rookieTrafficFactor = 1.2
)

// EffectivePassDifficulty returns the pass difficulty as experienced by the
// driver. Elite passers halve it, rookies suffer 20% more.
func EffectivePassDifficulty(d *model.DriverEntry, track *model.TrackProfile) float64 {
	ret := track.PassDifficulty
	if d.ElitePasser {
		ret *= elitePasserFactor
	}
	if d.Rookie {
		ret *= rookieTrafficFactor
	}
	return ret
}

// TrafficDrag is the penalty for starting further back on the grid.
func TrafficDrag(d *model.DriverEntry, track *model.TrackProfile) float64 {
	return float64(d.GridPosition) * trafficDragPerSlot * EffectivePassDifficulty(d, track)
}

// RacePace computes the race pace of a single driver. Pass noise=0 for the
// expected value. The result is never negative.
//
//nolint:whitespace // editor/linter issue
func RacePace(
	d *model.DriverEntry,
	poleTime, baseMarkup float64,
	track *model.TrackProfile,
	noise float64,
) (float64, error) {
	if d.GridPosition <= 0 {
		return 0, invalid(fmt.Sprintf("%s.gridPosition", d.DriverID),
			d.GridPosition, "grid positions start at 1")
	}
	if err := validatePassDifficulty(track.PassDifficulty); err != nil {
		return 0, err
	}
	return racePace(d, poleTime, baseMarkup, track, noise), nil
}

// racePace expects validated input
//
//nolint:whitespace // editor/linter issue
func racePace(
	d *model.DriverEntry,
	poleTime, baseMarkup float64,
	track *model.TrackProfile,
	noise float64,
) float64 {
	pace := poleTime + baseMarkup + d.QualifyingGap
	pace += d.TeamTierBonus
	pace += d.SkillPaceBonus
	if d.Rookie {
		pace += d.RookiePacePenalty
	}
	pace += TrafficDrag(d, track)
	pace += noise
	return math.Max(pace, 0)
}

func validatePassDifficulty(v float64) error {
	if math.IsNaN(v) || v < 0 || v > 1 {
		return invalid("passDifficulty", v, "must be within [0,1]")
	}
	return nil
}
