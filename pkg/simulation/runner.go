package simulation

import (
	"cmp"
	"context"
	"math"
	"math/rand/v2"
	"runtime"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/mpapenbr/racepredict/log"
	"github.com/mpapenbr/racepredict/pkg/model"
)

const (
	DefaultTrials = 5000
	PodiumSize    = 3

	// trials are distributed to workers in chunks of this size. The chunking
	// does not depend on the number of workers, so the reduction order of the
	// partial tallies is the same for serial and parallel runs.
	trialsPerChunk = 250
)

type (
	Runner struct {
		trials     int
		workers    int
		seed       uint64
		baseMarkup float64
		safetyCar  SafetyCar
		noise      bool
		l          *log.Logger
	}
	Option func(*Runner)
)

func WithTrials(n int) Option {
	return func(r *Runner) {
		r.trials = n
	}
}

// WithWorkers sets the number of goroutines running trials. Values < 1 mean 1.
func WithWorkers(n int) Option {
	return func(r *Runner) {
		r.workers = max(n, 1)
	}
}

func WithSeed(seed uint64) Option {
	return func(r *Runner) {
		r.seed = seed
	}
}

func WithBaseMarkup(markup float64) Option {
	return func(r *Runner) {
		r.baseMarkup = markup
	}
}

func WithSafetyCar(sc SafetyCar) Option {
	return func(r *Runner) {
		r.safetyCar = sc
	}
}

// WithoutNoise disables the per-driver consistency noise. Safety car events
// are still drawn according to the track profile.
func WithoutNoise() Option {
	return func(r *Runner) {
		r.noise = false
	}
}

func WithLogger(l *log.Logger) Option {
	return func(r *Runner) {
		r.l = l
	}
}

func NewRunner(opts ...Option) *Runner {
	ret := &Runner{
		trials:     DefaultTrials,
		workers:    runtime.NumCPU(),
		baseMarkup: DefaultBaseMarkup,
		safetyCar: SafetyCar{
			Compression:   DefaultSCCompression,
			RestartJitter: DefaultSCRestartJitter,
		},
		noise: true,
		l:     log.Default().Named("sim"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

func (r *Runner) BaseMarkup() float64 {
	return r.baseMarkup
}

// Run validates the input and executes all trials. Either a complete result
// or an error is returned.
func (r *Runner) Run(ctx context.Context, in *Input) (*Result, error) {
	if r.trials <= 0 {
		return nil, invalid("trials", r.trials, "must be positive")
	}
	if !isFinite(r.baseMarkup) {
		return nil, invalid("baseMarkup", r.baseMarkup, "must be finite")
	}
	if err := r.safetyCar.validate(); err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	entries := in.byGrid()
	job := &trialJob{
		runner:  r,
		in:      in,
		entries: entries,
	}

	numChunks := (r.trials + trialsPerChunk - 1) / trialsPerChunk
	partials := make([]*tally, numChunks)
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for c := range numChunks {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			from := c * trialsPerChunk
			to := min(from+trialsPerChunk, r.trials)
			partials[c] = job.runTrials(from, to)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := newTally(len(entries))
	for _, p := range partials {
		total.add(p)
	}
	ret := job.result(total)
	r.l.Debug("simulation done",
		log.Int("drivers", len(entries)),
		log.Int("trials", r.trials),
		log.Uint64("seed", r.seed),
		log.Int("workers", r.workers),
		log.Int("safetyCars", total.safetyCars),
		log.Duration("duration", time.Since(start)))
	return ret, nil
}

type trialJob struct {
	runner  *Runner
	in      *Input
	entries []model.DriverEntry // ordered by grid position
}

func (j *trialJob) runTrials(from, to int) *tally {
	ret := newTally(len(j.entries))
	paces := make([]float64, len(j.entries))
	order := make([]int, len(j.entries))
	// samples[driver][trial-from]
	samples := make([][]float64, len(j.entries))
	for i := range samples {
		samples[i] = make([]float64, to-from)
	}
	for t := from; t < to; t++ {
		j.runTrial(t, paces, order, ret)
		for i := range paces {
			samples[i][t-from] = paces[i]
		}
	}
	ret.trials = to - from
	for i := range samples {
		mean, variance := stat.MeanVariance(samples[i], nil)
		ret.paceMean[i] = mean
		if ret.trials > 1 {
			ret.paceM2[i] = variance * float64(ret.trials-1)
		}
	}
	return ret
}

// runTrial uses a random stream derived from the seed and the trial index only
func (j *trialJob) runTrial(t int, paces []float64, order []int, acc *tally) {
	r := j.runner
	src := rand.NewPCG(r.seed, uint64(t))

	safetyCar := r.safetyCar.Deployed(j.in.Track.SafetyCarProbability, src)
	for i := range j.entries {
		e := &j.entries[i]
		noise := 0.0
		if r.noise {
			noise = distuv.Normal{Mu: 0, Sigma: e.ConsistencyVariance, Src: src}.Rand()
		}
		paces[i] = racePace(e, j.in.PoleTime, r.baseMarkup, &j.in.Track, noise)
	}
	if safetyCar {
		r.safetyCar.Apply(paces, src)
		acc.safetyCars++
	}

	for i := range order {
		order[i] = i
	}
	slices.SortFunc(order, func(a, b int) int {
		if c := cmp.Compare(paces[a], paces[b]); c != 0 {
			return c
		}
		return cmp.Compare(j.entries[a].GridPosition, j.entries[b].GridPosition)
	})
	acc.record(order)
}

type tally struct {
	trials      int
	wins        []int
	podiums     []int
	positionSum []int
	safetyCars  int
	// running race pace statistics per driver
	paceMean []float64
	paceM2   []float64 // sum of squared deviations from paceMean
}

func newTally(n int) *tally {
	return &tally{
		wins:        make([]int, n),
		podiums:     make([]int, n),
		positionSum: make([]int, n),
		paceMean:    make([]float64, n),
		paceM2:      make([]float64, n),
	}
}

// record books a finishing order (indexes into the entries)
func (t *tally) record(order []int) {
	t.wins[order[0]]++
	for pos, idx := range order {
		if pos < PodiumSize {
			t.podiums[idx]++
		}
		t.positionSum[idx] += pos + 1
	}
}

func (t *tally) add(other *tally) {
	for i := range t.wins {
		t.wins[i] += other.wins[i]
		t.podiums[i] += other.podiums[i]
		t.positionSum[i] += other.positionSum[i]
	}
	t.safetyCars += other.safetyCars
	t.mergePace(other)
}

// mergePace combines the pace statistics of two disjoint trial ranges
// (pairwise update of Chan et al.)
func (t *tally) mergePace(other *tally) {
	switch {
	case other.trials == 0:
		return
	case t.trials == 0:
		copy(t.paceMean, other.paceMean)
		copy(t.paceM2, other.paceM2)
		t.trials = other.trials
		return
	}
	na, nb := float64(t.trials), float64(other.trials)
	n := na + nb
	for i := range t.paceMean {
		delta := other.paceMean[i] - t.paceMean[i]
		t.paceMean[i] += delta * nb / n
		t.paceM2[i] += other.paceM2[i] + delta*delta*na*nb/n
	}
	t.trials += other.trials
}

// paceStats returns mean and sample standard deviation of a driver's pace
func (t *tally) paceStats(i int) (mean, stdDev float64) {
	if t.trials < 2 {
		return t.paceMean[i], 0
	}
	return t.paceMean[i], math.Sqrt(max(t.paceM2[i], 0) / float64(t.trials-1))
}
