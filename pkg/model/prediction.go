package model

import (
	"time"

	"github.com/gofrs/uuid/v5"
)

// PredictionRun is the persisted and published form of a finished prediction.
type PredictionRun struct {
	ID         uuid.UUID       `json:"id"`
	Track      TrackProfile    `json:"track"`
	CreatedAt  time.Time       `json:"createdAt"`
	Trials     int             `json:"trials"`
	Seed       uint64          `json:"seed"`
	SafetyCars int             `json:"safetyCars"`
	PoleTime   float64         `json:"poleTime"`
	Warnings   []string        `json:"warnings,omitempty"`
	Results    []PredictionRow `json:"results"`
}

// PredictionRow is the outcome for a single driver, Rank 1 is the predicted
// winner.
type PredictionRow struct {
	Rank              int     `json:"rank"`
	DriverID          string  `json:"driverId"`
	GridPosition      int     `json:"gridPosition"`
	QualifyingGap     float64 `json:"qualifyingGap"`
	Wins              int     `json:"wins"`
	Podiums           int     `json:"podiums"`
	WinProbability    float64 `json:"winProbability"`
	PodiumProbability float64 `json:"podiumProbability"`
	ExpectedPace      float64 `json:"expectedPace"`
}
