//nolint:whitespace //can't make both the linter and editor happy :(
package prediction

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mpapenbr/racepredict/pkg/model"
	"github.com/mpapenbr/racepredict/pkg/repository"
)

var ErrNotFound = errors.New("prediction not found")

// Create stores the run together with its result rows.
// Use a transaction as conn to get an atomic insert.
func Create(ctx context.Context, conn repository.Querier, run *model.PredictionRun) error {
	warnings := run.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	_, err := conn.Exec(ctx, `insert into prediction_run (
		id, track, pass_difficulty, lap_count, safety_car_probability,
		created_at, trials, seed, safety_cars, pole_time, warnings)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		run.ID, run.Track.Name, run.Track.PassDifficulty, run.Track.LapCount,
		run.Track.SafetyCarProbability, run.CreatedAt, run.Trials,
		// bigint has no unsigned variant, the bits are kept
		int64(run.Seed), //nolint:gosec // see above
		run.SafetyCars, run.PoleTime, warnings)
	if err != nil {
		return err
	}
	for i := range run.Results {
		r := &run.Results[i]
		_, err := conn.Exec(ctx, `insert into prediction_result (
			run_id, rank, driver_id, grid_position, qualifying_gap, wins, podiums,
			win_probability, podium_probability, expected_pace)
			values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
			run.ID, r.Rank, r.DriverID, r.GridPosition, r.QualifyingGap,
			r.Wins, r.Podiums, r.WinProbability, r.PodiumProbability, r.ExpectedPace)
		if err != nil {
			return fmt.Errorf("result rank %d: %w", r.Rank, err)
		}
	}
	return nil
}

func LoadByID(
	ctx context.Context,
	conn repository.Querier,
	id uuid.UUID,
) (*model.PredictionRun, error) {
	row := conn.QueryRow(ctx, fmt.Sprintf("%s where id=$1", runSelector), id)
	return loadRun(ctx, conn, row)
}

// LoadLatestByTrack returns the most recent run for the track
func LoadLatestByTrack(
	ctx context.Context,
	conn repository.Querier,
	track string,
) (*model.PredictionRun, error) {
	row := conn.QueryRow(ctx,
		fmt.Sprintf("%s where track=$1 order by created_at desc limit 1", runSelector),
		track)
	return loadRun(ctx, conn, row)
}

// deletes a run and its results, returns number of runs deleted.
func DeleteByID(ctx context.Context, conn repository.Querier, id uuid.UUID) (int, error) {
	cmdTag, err := conn.Exec(ctx, "delete from prediction_run where id=$1", id)
	if err != nil {
		return 0, err
	}
	return int(cmdTag.RowsAffected()), nil
}

// Store implements the predict.Store interface on a connection pool
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) Store(ctx context.Context, run *model.PredictionRun) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return Create(ctx, tx, run)
	})
}

// little helpers
const runSelector = `select id, track, pass_difficulty, lap_count,
	safety_car_probability, created_at, trials, seed, safety_cars, pole_time,
	warnings from prediction_run`

const resultSelector = `select rank, driver_id, grid_position, qualifying_gap,
	wins, podiums, win_probability, podium_probability, expected_pace
	from prediction_result`

func loadRun(
	ctx context.Context,
	conn repository.Querier,
	row pgx.Row,
) (*model.PredictionRun, error) {
	var item model.PredictionRun
	var seed int64
	err := row.Scan(&item.ID, &item.Track.Name, &item.Track.PassDifficulty,
		&item.Track.LapCount, &item.Track.SafetyCarProbability, &item.CreatedAt,
		&item.Trials, &seed, &item.SafetyCars, &item.PoleTime, &item.Warnings)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	item.Seed = uint64(seed) //nolint:gosec // stored bitwise

	rows, err := conn.Query(ctx,
		fmt.Sprintf("%s where run_id=$1 order by rank asc", resultSelector), item.ID)
	if err != nil {
		return nil, err
	}
	item.Results, err = pgx.CollectRows(rows, scanResult)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func scanResult(row pgx.CollectableRow) (model.PredictionRow, error) {
	var r model.PredictionRow
	err := row.Scan(&r.Rank, &r.DriverID, &r.GridPosition, &r.QualifyingGap,
		&r.Wins, &r.Podiums, &r.WinProbability, &r.PodiumProbability, &r.ExpectedPace)
	return r, err
}
