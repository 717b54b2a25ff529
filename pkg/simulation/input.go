package simulation

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"github.com/mpapenbr/racepredict/pkg/model"
)

// Input is the immutable data of one prediction request.
type Input struct {
	Entries  []model.DriverEntry
	Track    model.TrackProfile
	PoleTime float64
}

// Validate checks the complete input. It is called before any trial runs.
//
//nolint:cyclop,funlen // sequence of checks
func (in *Input) Validate() error {
	if len(in.Entries) == 0 {
		return invalid("entries", nil, "no drivers given")
	}
	if !isFinite(in.PoleTime) || in.PoleTime <= 0 {
		return invalid("poleTime", in.PoleTime, "must be positive")
	}
	if err := validatePassDifficulty(in.Track.PassDifficulty); err != nil {
		return err
	}
	if in.Track.LapCount <= 0 {
		return invalid("lapCount", in.Track.LapCount, "must be positive")
	}
	if p := in.Track.SafetyCarProbability; math.IsNaN(p) || p < 0 || p > 1 {
		return invalid("safetyCarProbability", p, "must be within [0,1]")
	}

	ids := make(map[string]bool, len(in.Entries))
	grid := make(map[int]string, len(in.Entries))
	for i := range in.Entries {
		e := &in.Entries[i]
		field := func(name string) string {
			return fmt.Sprintf("%s.%s", e.DriverID, name)
		}
		if e.DriverID == "" {
			return invalid(fmt.Sprintf("entries[%d].driverId", i), nil, "must not be empty")
		}
		if ids[e.DriverID] {
			return invalid("driverId", e.DriverID, "duplicate driver")
		}
		ids[e.DriverID] = true

		if e.GridPosition <= 0 {
			return invalid(field("gridPosition"), e.GridPosition, "grid positions start at 1")
		}
		if other, ok := grid[e.GridPosition]; ok {
			return invalid(field("gridPosition"), e.GridPosition,
				fmt.Sprintf("already taken by %s", other))
		}
		grid[e.GridPosition] = e.DriverID

		if !isFinite(e.QualifyingGap) || e.QualifyingGap < 0 {
			return invalid(field("qualifyingGap"), e.QualifyingGap, "must not be negative")
		}
		if !isFinite(e.TeamTierBonus) || e.TeamTierBonus > 0 {
			return invalid(field("teamTierBonus"), e.TeamTierBonus, "must be negative or 0")
		}
		if !isFinite(e.SkillPaceBonus) || e.SkillPaceBonus > 0 {
			return invalid(field("skillPaceBonus"), e.SkillPaceBonus, "must be negative or 0")
		}
		if !isFinite(e.ConsistencyVariance) || e.ConsistencyVariance <= 0 {
			return invalid(field("consistencyVariance"), e.ConsistencyVariance, "must be positive")
		}
		if !isFinite(e.RookiePacePenalty) || e.RookiePacePenalty < 0 {
			return invalid(field("rookiePacePenalty"), e.RookiePacePenalty, "must not be negative")
		}
	}

	ordered := in.byGrid()
	if ordered[0].GridPosition != 1 || ordered[0].QualifyingGap != 0 {
		return invalid("pole", ordered[0].DriverID, "grid position 1 with gap 0 required")
	}
	for i := 1; i < len(ordered); i++ {
		if ordered[i].QualifyingGap < ordered[i-1].QualifyingGap {
			return invalid(fmt.Sprintf("%s.qualifyingGap", ordered[i].DriverID),
				ordered[i].QualifyingGap,
				fmt.Sprintf("smaller than gap of %s starting ahead (%v)",
					ordered[i-1].DriverID, ordered[i-1].QualifyingGap))
		}
	}
	return nil
}

// byGrid returns a copy of the entries ordered by grid position
func (in *Input) byGrid() []model.DriverEntry {
	ret := slices.Clone(in.Entries)
	slices.SortFunc(ret, func(a, b model.DriverEntry) int {
		return cmp.Compare(a.GridPosition, b.GridPosition)
	})
	return ret
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
