package model

// TrackProfile describes the overtaking and disruption characteristics of a
// circuit.
type TrackProfile struct {
	Name string `json:"name"`
	// 0.0 = easy, 1.0 = impossible
	PassDifficulty       float64 `json:"passDifficulty"`
	LapCount             int     `json:"lapCount"`
	SafetyCarProbability float64 `json:"safetyCarProbability"`
}
