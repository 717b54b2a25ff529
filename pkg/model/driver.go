package model

// DriverEntry holds everything the simulation needs to know about one driver
// for one race weekend. All time values are seconds.
type DriverEntry struct {
	DriverID      string  `json:"driverId"` // three letter code, e.g. VER
	QualifyingGap float64 `json:"qualifyingGap"`
	GridPosition  int     `json:"gridPosition"`
	// negative values improve pace
	TeamTierBonus  float64 `json:"teamTierBonus"`
	SkillPaceBonus float64 `json:"skillPaceBonus"`
	// standard deviation of the per-trial noise
	ConsistencyVariance float64 `json:"consistencyVariance"`
	ElitePasser         bool    `json:"elitePasser"`
	// rookies lose RookiePacePenalty and struggle more in traffic
	Rookie            bool    `json:"rookie"`
	RookiePacePenalty float64 `json:"rookiePacePenalty"`
}
