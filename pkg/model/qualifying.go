package model

// QualifyingResult is one row as delivered by a qualifying results provider.
// Either Gap or at least one of the session times must be set for a driver
// to be classified by time.
type QualifyingResult struct {
	DriverID     string   `json:"driver" yaml:"driver"`
	GridPosition int      `json:"grid" yaml:"grid"`
	Gap          *float64 `json:"gap,omitempty" yaml:"gap,omitempty"`
	Q1           *float64 `json:"q1,omitempty" yaml:"q1,omitempty"`
	Q2           *float64 `json:"q2,omitempty" yaml:"q2,omitempty"`
	Q3           *float64 `json:"q3,omitempty" yaml:"q3,omitempty"`
}

// BestTime returns the lap time of the latest session the driver took part in
// (Q3 before Q2 before Q1).
func (q *QualifyingResult) BestTime() (float64, bool) {
	for _, t := range []*float64{q.Q3, q.Q2, q.Q1} {
		if t != nil && *t > 0 {
			return *t, true
		}
	}
	return 0, false
}
