package simulation

import (
	"math/rand/v2"
	"slices"

	"gonum.org/v1/gonum/stat/distuv"
)

const (
	// DefaultSCCompression is applied to each driver's gap to the trial leader
	// when a safety car bunches the field.
	DefaultSCCompression = 0.5
	// DefaultSCRestartJitter is the standard deviation of the extra noise
	// added after a safety car restart.
	DefaultSCRestartJitter = 0.2
)

// SafetyCar compresses the field of a single trial.
type SafetyCar struct {
	Compression   float64
	RestartJitter float64
}

func (sc SafetyCar) validate() error {
	if !isFinite(sc.Compression) || sc.Compression < 0 || sc.Compression >= 1 {
		return invalid("safetyCar.compression", sc.Compression, "must be within [0,1)")
	}
	if !isFinite(sc.RestartJitter) || sc.RestartJitter < 0 {
		return invalid("safetyCar.restartJitter", sc.RestartJitter, "must not be negative")
	}
	return nil
}

// Deployed draws the safety car event for one trial.
func (sc SafetyCar) Deployed(probability float64, src rand.Source) bool {
	if probability <= 0 {
		return false
	}
	return distuv.Bernoulli{P: probability, Src: src}.Rand() == 1
}

// Apply scales every pace delta to the fastest pace by the compression factor
// and adds the restart jitter. paces is modified in place.
func (sc SafetyCar) Apply(paces []float64, src rand.Source) {
	if len(paces) == 0 {
		return
	}
	leader := slices.Min(paces)
	for i := range paces {
		paces[i] = leader + (paces[i]-leader)*sc.Compression
	}
	if sc.RestartJitter == 0 {
		return
	}
	jitter := distuv.Normal{Mu: 0, Sigma: sc.RestartJitter, Src: src}
	for i := range paces {
		paces[i] += jitter.Rand()
	}
}
