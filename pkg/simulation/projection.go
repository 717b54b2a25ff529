package simulation

import (
	"cmp"
	"slices"
)

// Projection is the noiseless estimate for one driver.
type Projection struct {
	DriverID     string  `json:"driverId"`
	GridPosition int     `json:"gridPosition"`
	Pace         float64 `json:"pace"`
	RaceTime     float64 `json:"raceTime"`
}

// Project returns the deterministic finishing order (no noise, no safety car).
// Equal paces are ordered by grid position.
func Project(in *Input, baseMarkup float64) ([]Projection, error) {
	if !isFinite(baseMarkup) {
		return nil, invalid("baseMarkup", baseMarkup, "must be finite")
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	entries := in.byGrid()
	ret := make([]Projection, len(entries))
	for i := range entries {
		pace := racePace(&entries[i], in.PoleTime, baseMarkup, &in.Track, 0)
		ret[i] = Projection{
			DriverID:     entries[i].DriverID,
			GridPosition: entries[i].GridPosition,
			Pace:         pace,
			RaceTime:     pace * float64(in.Track.LapCount),
		}
	}
	slices.SortStableFunc(ret, func(a, b Projection) int {
		if c := cmp.Compare(a.Pace, b.Pace); c != 0 {
			return c
		}
		return cmp.Compare(a.GridPosition, b.GridPosition)
	})
	return ret, nil
}
