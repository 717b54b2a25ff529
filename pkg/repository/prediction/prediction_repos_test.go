//nolint:funlen,errcheck //ok for this test code
package prediction

import (
	"context"
	"log"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/google/go-cmp/cmp"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpapenbr/racepredict/pkg/model"
	"github.com/mpapenbr/racepredict/testsupport/testdb"
)

func sampleRun(track string, created time.Time) *model.PredictionRun {
	return &model.PredictionRun{
		ID: uuid.Must(uuid.NewV7()),
		Track: model.TrackProfile{
			Name:                 track,
			PassDifficulty:       0.95,
			LapCount:             78,
			SafetyCarProbability: 0.8,
		},
		CreatedAt:  created.UTC().Truncate(time.Microsecond),
		Trials:     5000,
		Seed:       1 << 63,
		SafetyCars: 3980,
		PoleTime:   70.27,
		Warnings:   []string{`driver "XYZ": using defaults tierBonus=0`},
		Results: []model.PredictionRow{
			{
				Rank: 1, DriverID: "NOR", GridPosition: 1, QualifyingGap: 0,
				Wins: 3100, Podiums: 4800, WinProbability: 0.62,
				PodiumProbability: 0.96, ExpectedPace: 75.02,
			},
			{
				Rank: 2, DriverID: "LEC", GridPosition: 2, QualifyingGap: 0.1,
				Wins: 1900, Podiums: 4700, WinProbability: 0.38,
				PodiumProbability: 0.94, ExpectedPace: 75.2,
			},
		},
	}
}

func createSampleEntry(pool *pgxpool.Pool, run *model.PredictionRun) {
	err := pgx.BeginFunc(context.Background(), pool, func(tx pgx.Tx) error {
		return Create(context.Background(), tx, run)
	})
	if err != nil {
		log.Fatalf("createSampleEntry: %v\n", err)
	}
}

func TestCreateAndLoad(t *testing.T) {
	pool := testdb.InitTestDb()
	run := sampleRun("Monaco", time.Now())
	createSampleEntry(pool, run)

	got, err := LoadByID(context.Background(), pool, run.ID)
	require.NoError(t, err)
	if diff := cmp.Diff(run, got); diff != "" {
		t.Errorf("LoadByID() mismatch (-want +got):\n%s", diff)
	}
}

func TestCreate_duplicate(t *testing.T) {
	pool := testdb.InitTestDb()
	run := sampleRun("Monaco", time.Now())
	createSampleEntry(pool, run)

	err := NewStore(pool).Store(context.Background(), run)
	assert.Error(t, err)
}

func TestStore_noWarnings(t *testing.T) {
	pool := testdb.InitTestDb()
	run := sampleRun("Bahrain", time.Now())
	run.Warnings = nil
	require.NoError(t, NewStore(pool).Store(context.Background(), run))

	got, err := LoadByID(context.Background(), pool, run.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Warnings)
	assert.Len(t, got.Results, 2)
}

func TestLoadByID_notFound(t *testing.T) {
	pool := testdb.InitTestDb()
	_, err := LoadByID(context.Background(), pool, uuid.Must(uuid.NewV4()))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLoadLatestByTrack(t *testing.T) {
	pool := testdb.InitTestDb()
	now := time.Now()
	older := sampleRun("Monaco", now.Add(-time.Hour))
	newer := sampleRun("Monaco", now)
	other := sampleRun("Singapore", now.Add(time.Hour))
	for _, r := range []*model.PredictionRun{older, newer, other} {
		createSampleEntry(pool, r)
	}

	got, err := LoadLatestByTrack(context.Background(), pool, "Monaco")
	require.NoError(t, err)
	assert.Equal(t, newer.ID, got.ID)

	_, err = LoadLatestByTrack(context.Background(), pool, "Madrid")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteByID(t *testing.T) {
	pool := testdb.InitTestDb()
	run := sampleRun("Monaco", time.Now())
	createSampleEntry(pool, run)

	n, err := DeleteByID(context.Background(), pool, run.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	var results int
	pool.QueryRow(context.Background(),
		"select count(*) from prediction_result where run_id=$1", run.ID).Scan(&results)
	assert.Equal(t, 0, results)

	n, err = DeleteByID(context.Background(), pool, run.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}
