//nolint:funlen // ok for tests
package simulation

import (
	"context"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"

	"github.com/mpapenbr/racepredict/pkg/model"
)

func TestRunner_Run_invalidInput(t *testing.T) {
	tests := []struct {
		name   string
		opts   []Option
		modify func(in *Input)
	}{
		{name: "zero trials", opts: []Option{WithTrials(0)}, modify: func(in *Input) {}},
		{name: "negative trials", opts: []Option{WithTrials(-5)}, modify: func(in *Input) {}},
		{name: "empty field", modify: func(in *Input) { in.Entries = nil }},
		{name: "duplicate grid", modify: func(in *Input) { in.Entries[1].GridPosition = 1 }},
		{name: "negative gap", modify: func(in *Input) { in.Entries[3].QualifyingGap = -1 }},
		{name: "pass difficulty 1.5", modify: func(in *Input) { in.Track.PassDifficulty = 1.5 }},
		{
			name:   "safety car compression 1",
			opts:   []Option{WithSafetyCar(SafetyCar{Compression: 1})},
			modify: func(in *Input) {},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := sampleInput()
			tt.modify(in)
			got, err := NewRunner(tt.opts...).Run(context.Background(), in)
			assert.ErrorIs(t, err, ErrInvalidInput)
			assert.Nil(t, got)
		})
	}
}

func TestRunner_Run_tallies(t *testing.T) {
	for _, seed := range []uint64{1, 42, 2026} {
		res, err := NewRunner(WithSeed(seed), WithTrials(2000)).Run(context.Background(), sampleInput())
		require.NoError(t, err)

		assert.Equal(t, 2000, res.TotalWins())
		podiums := 0
		for _, o := range res.Outcomes {
			assert.GreaterOrEqual(t, o.PodiumProbability, o.WinProbability, o.DriverID)
			assert.GreaterOrEqual(t, o.AverageFinish, 1.0)
			assert.LessOrEqual(t, o.AverageFinish, 4.0)
			podiums += o.Podiums
		}
		assert.Equal(t, 2000*PodiumSize, podiums)
		for i := 1; i < len(res.Outcomes); i++ {
			assert.GreaterOrEqual(t, res.Outcomes[i-1].Wins, res.Outcomes[i].Wins)
		}
	}
}

func TestRunner_Run_smallFieldPodium(t *testing.T) {
	in := sampleInput()
	in.Entries = in.Entries[:2]
	res, err := NewRunner(WithTrials(100)).Run(context.Background(), in)
	require.NoError(t, err)
	for _, o := range res.Outcomes {
		assert.Equal(t, 100, o.Podiums)
		assert.Equal(t, 1.0, o.PodiumProbability)
	}
}

func TestRunner_Run_deterministic(t *testing.T) {
	run := func(workers int) *Result {
		res, err := NewRunner(
			WithSeed(4711),
			WithTrials(DefaultTrials),
			WithWorkers(workers),
		).Run(context.Background(), sampleInput())
		require.NoError(t, err)
		return res
	}
	serial := run(1)
	assert.Equal(t, serial, run(1), "repeated serial run")
	assert.Equal(t, serial, run(8), "parallel run")
	assert.Equal(t, serial, run(3), "odd number of workers")
}

func TestRunner_Run_inputOrderIrrelevant(t *testing.T) {
	in := sampleInput()
	reversed := sampleInput()
	for i, j := 0, len(reversed.Entries)-1; i < j; i, j = i+1, j-1 {
		reversed.Entries[i], reversed.Entries[j] = reversed.Entries[j], reversed.Entries[i]
	}
	r := NewRunner(WithSeed(3), WithTrials(1000))
	a, err := r.Run(context.Background(), in)
	require.NoError(t, err)
	b, err := r.Run(context.Background(), reversed)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestRunner_Run_seedMatters(t *testing.T) {
	a, err := NewRunner(WithSeed(1), WithTrials(500)).Run(context.Background(), sampleInput())
	require.NoError(t, err)
	b, err := NewRunner(WithSeed(2), WithTrials(500)).Run(context.Background(), sampleInput())
	require.NoError(t, err)
	assert.NotEqual(t, a.Outcomes[0].MeanPace, b.Outcomes[0].MeanPace)
}

func TestRunner_Run_monotonicGap(t *testing.T) {
	r := NewRunner(WithSeed(99), WithTrials(DefaultTrials))
	base, err := r.Run(context.Background(), sampleInput())
	require.NoError(t, err)

	faster := sampleInput()
	faster.Entries[2].QualifyingGap = 0.35
	improved, err := r.Run(context.Background(), faster)
	require.NoError(t, err)

	before, _ := base.Outcome("CCC")
	after, _ := improved.Outcome("CCC")
	assert.GreaterOrEqual(t, after.WinProbability, before.WinProbability)
	assert.GreaterOrEqual(t, after.PodiumProbability, before.PodiumProbability)
}

func TestRunner_Run_tieBreakByGrid(t *testing.T) {
	in := &Input{
		// given in reverse grid order on purpose
		Entries: []model.DriverEntry{
			entry("BBB", 2, 0),
			entry("AAA", 1, 0),
		},
		Track:    model.TrackProfile{PassDifficulty: 0, LapCount: 50, SafetyCarProbability: 0},
		PoleTime: 80,
	}
	res, err := NewRunner(WithoutNoise(), WithTrials(300)).Run(context.Background(), in)
	require.NoError(t, err)

	a, _ := res.Outcome("AAA")
	b, _ := res.Outcome("BBB")
	assert.Equal(t, a.ExpectedPace, b.ExpectedPace)
	assert.Equal(t, 300, a.Wins)
	assert.Equal(t, 1.0, a.WinProbability)
	assert.Equal(t, 0, b.Wins)
	assert.Equal(t, "AAA", res.Winner().DriverID)
}

func TestRunner_Run_twoDriverScenario(t *testing.T) {
	const pole = 80.0
	in := &Input{
		Entries: []model.DriverEntry{
			{
				DriverID: "AAA", GridPosition: 1, QualifyingGap: 0,
				TeamTierBonus: -0.2, SkillPaceBonus: -0.1,
				ConsistencyVariance: 0.25, ElitePasser: true,
			},
			{DriverID: "BBB", GridPosition: 2, QualifyingGap: 0.2, ConsistencyVariance: 0.4},
		},
		Track:    model.TrackProfile{PassDifficulty: 0.2, LapCount: 52, SafetyCarProbability: 0},
		PoleTime: pole,
	}
	res, err := NewRunner(WithoutNoise(), WithTrials(1)).Run(context.Background(), in)
	require.NoError(t, err)

	winner := res.Winner()
	assert.Equal(t, "AAA", winner.DriverID)
	assert.Equal(t, 1.0, winner.WinProbability)
	assert.InDelta(t, pole+4.75, winner.ExpectedPace, 1e-9)
	assert.InDelta(t, (pole+4.75)*52, winner.ExpectedRaceTime, 1e-6)
	assert.Equal(t, 0.0, winner.PaceStdDev)

	b, _ := res.Outcome("BBB")
	assert.InDelta(t, pole+5.4, b.ExpectedPace, 1e-9)
	assert.Equal(t, 0, b.Wins)
}

func TestRunner_Run_safetyCarCount(t *testing.T) {
	always := sampleInput()
	always.Track.SafetyCarProbability = 1
	res, err := NewRunner(WithTrials(700)).Run(context.Background(), always)
	require.NoError(t, err)
	assert.Equal(t, 700, res.SafetyCars)

	never := sampleInput()
	never.Track.SafetyCarProbability = 0
	res, err = NewRunner(WithTrials(700)).Run(context.Background(), never)
	require.NoError(t, err)
	assert.Equal(t, 0, res.SafetyCars)
}

func TestRunner_Run_safetyCarSpreadsWins(t *testing.T) {
	calm := sampleInput()
	calm.Track.SafetyCarProbability = 0
	chaos := sampleInput()
	chaos.Track.SafetyCarProbability = 1

	r := NewRunner(WithSeed(5), WithTrials(DefaultTrials),
		WithSafetyCar(SafetyCar{Compression: 0.1, RestartJitter: 0.5}))
	a, err := r.Run(context.Background(), calm)
	require.NoError(t, err)
	b, err := r.Run(context.Background(), chaos)
	require.NoError(t, err)
	assert.Less(t, b.Winner().WinProbability, a.Winner().WinProbability)
}

func TestRunner_Run_canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := NewRunner().Run(ctx, sampleInput())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, res)
}

func TestResult_ByPodium(t *testing.T) {
	res := &Result{Outcomes: []DriverOutcome{
		{DriverID: "AAA", Wins: 10, Podiums: 12, GridPosition: 1},
		{DriverID: "BBB", Wins: 5, Podiums: 20, GridPosition: 2, QualifyingGap: 0.1},
		{DriverID: "CCC", Wins: 5, Podiums: 20, GridPosition: 3, QualifyingGap: 0.2},
	}}
	got := res.ByPodium()
	assert.Equal(t, []string{"BBB", "CCC", "AAA"},
		[]string{got[0].DriverID, got[1].DriverID, got[2].DriverID})
	assert.Equal(t, "AAA", res.Outcomes[0].DriverID, "original order untouched")
}

func TestDriverOutcome_Percent(t *testing.T) {
	o := DriverOutcome{WinProbability: 0.4236, PodiumProbability: 1}
	assert.Equal(t, "42.4%", o.WinPercent())
	assert.Equal(t, "100.0%", o.PodiumPercent())
}

func TestResult_WinnerTieBreak(t *testing.T) {
	res := &Result{Outcomes: []DriverOutcome{
		{DriverID: "BBB", Wins: 4, Podiums: 9, GridPosition: 2, QualifyingGap: 0.2},
		{DriverID: "AAA", Wins: 4, Podiums: 7, GridPosition: 1},
		{DriverID: "CCC", Wins: 2, Podiums: 10, GridPosition: 3, QualifyingGap: 0.3},
	}}
	res.Rank()
	assert.Equal(t, []string{"AAA", "BBB", "CCC"},
		[]string{res.Outcomes[0].DriverID, res.Outcomes[1].DriverID, res.Outcomes[2].DriverID})
	assert.Equal(t, "AAA", res.Winner().DriverID)

	byPodium := res.ByPodium()
	assert.Equal(t, "CCC", byPodium[0].DriverID)
}

func TestTally_mergePace(t *testing.T) {
	src := rand.New(rand.NewPCG(7, 11))
	values := make([]float64, 2*trialsPerChunk+37)
	for i := range values {
		values[i] = 85 + src.NormFloat64()*0.4
	}

	total := newTally(1)
	for from := 0; from < len(values); from += trialsPerChunk {
		chunk := values[from:min(from+trialsPerChunk, len(values))]
		part := newTally(1)
		part.trials = len(chunk)
		mean, variance := stat.MeanVariance(chunk, nil)
		part.paceMean[0] = mean
		part.paceM2[0] = variance * float64(len(chunk)-1)
		total.add(part)
	}

	wantMean, wantStd := stat.MeanStdDev(values, nil)
	gotMean, gotStd := total.paceStats(0)
	assert.Equal(t, len(values), total.trials)
	assert.InDelta(t, wantMean, gotMean, 1e-9)
	assert.InDelta(t, wantStd, gotStd, 1e-9)
}

func TestRunner_Run_paceStatsIndependentOfWorkers(t *testing.T) {
	in := sampleInput()
	serial, err := NewRunner(WithSeed(3), WithTrials(777), WithWorkers(1)).
		Run(context.Background(), in)
	require.NoError(t, err)
	parallel, err := NewRunner(WithSeed(3), WithTrials(777), WithWorkers(8)).
		Run(context.Background(), in)
	require.NoError(t, err)

	for i := range serial.Outcomes {
		assert.Equal(t, serial.Outcomes[i].MeanPace, parallel.Outcomes[i].MeanPace)
		assert.Equal(t, serial.Outcomes[i].PaceStdDev, parallel.Outcomes[i].PaceStdDev)
		assert.Greater(t, serial.Outcomes[i].PaceStdDev, 0.0)
	}
}
