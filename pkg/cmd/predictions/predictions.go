package predictions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/mpapenbr/racepredict/log"
	"github.com/mpapenbr/racepredict/pkg/cmd/util"
	"github.com/mpapenbr/racepredict/pkg/config"
	"github.com/mpapenbr/racepredict/pkg/db/postgres"
	"github.com/mpapenbr/racepredict/pkg/model"
	"github.com/mpapenbr/racepredict/pkg/repository"
	"github.com/mpapenbr/racepredict/pkg/repository/prediction"
	"github.com/mpapenbr/racepredict/pkg/utils"
)

var errNoSelection = errors.New("either a track or --id is required")

func NewPredictionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "predictions",
		Short: "commands for stored predictions",
	}

	cmd.AddCommand(NewShowCmd())
	cmd.AddCommand(NewDeleteCmd())

	return cmd
}

func NewShowCmd() *cobra.Command {
	var id, output string
	cmd := &cobra.Command{
		Use:   "show [track]",
		Short: "shows a stored prediction",
		Long: `Shows the latest stored prediction for the track or the prediction
with the given id.`,
		Example: `  rpr predictions show Monaco
  rpr predictions show --id 0190f6a8-6c1e-7d3a-9a55-2f1b1e8c4b10 -o json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if output != "text" && output != "json" {
				return fmt.Errorf("unsupported output format %q", output)
			}
			track := ""
			if len(args) > 0 {
				track = args[0]
			}
			return withPool(cmd, func(pool *pgxpool.Pool) error {
				return showPrediction(cmd.Context(), cmd.OutOrStdout(), pool, track, id, output)
			})
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "id of the prediction")
	cmd.Flags().StringVarP(&output, "output", "o", "text", "output format (text, json)")
	return cmd
}

func NewDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete id",
		Short: "deletes a stored prediction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPool(cmd, func(pool *pgxpool.Pool) error {
				return deletePrediction(cmd.Context(), cmd.OutOrStdout(), pool, args[0])
			})
		},
	}
	return cmd
}

func withPool(cmd *cobra.Command, f func(pool *pgxpool.Pool) error) error {
	_, sqlLogger, err := util.SetupLoggers(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if err := util.WaitForServices(ctx, utils.ExtractFromDBURL(config.DB)); err != nil {
		return fmt.Errorf("database not ready: %w", err)
	}
	pool, err := postgres.InitWithURL(ctx, config.DB,
		postgres.WithTracer(postgres.NewQueryTracer(sqlLogger, log.DebugLevel, false)))
	if err != nil {
		return err
	}
	defer pool.Close()
	return f(pool)
}

func showPrediction(
	ctx context.Context,
	out io.Writer,
	conn repository.Querier,
	track, id, output string,
) error {
	var run *model.PredictionRun
	var err error
	switch {
	case id != "":
		var runID uuid.UUID
		if runID, err = uuid.FromString(id); err != nil {
			return fmt.Errorf("invalid id %q: %w", id, err)
		}
		run, err = prediction.LoadByID(ctx, conn, runID)
	case track != "":
		run, err = prediction.LoadLatestByTrack(ctx, conn, track)
	default:
		return errNoSelection
	}
	if err != nil {
		return err
	}
	if output == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(run)
	}
	return writeText(out, run)
}

func deletePrediction(ctx context.Context, out io.Writer, conn repository.Querier, id string) error {
	runID, err := uuid.FromString(id)
	if err != nil {
		return fmt.Errorf("invalid id %q: %w", id, err)
	}
	n, err := prediction.DeleteByID(ctx, conn, runID)
	if err != nil {
		return err
	}
	if n == 0 {
		return prediction.ErrNotFound
	}
	log.Info("prediction deleted", log.String("id", id))
	_, err = fmt.Fprintf(out, "deleted %s\n", id)
	return err
}

func writeText(w io.Writer, run *model.PredictionRun) error {
	fmt.Fprintf(w, "Prediction %s (%s)\n", run.ID, run.CreatedAt.Format("2006-01-02 15:04:05Z07:00"))
	fmt.Fprintf(w, "Track:  %s (pass difficulty %.2f, %d laps, safety car %.0f%%)\n",
		run.Track.Name, run.Track.PassDifficulty, run.Track.LapCount,
		run.Track.SafetyCarProbability*100)
	fmt.Fprintf(w, "Trials: %d (seed %d, safety cars %d, pole time %.3fs)\n\n",
		run.Trials, run.Seed, run.SafetyCars, run.PoleTime)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Rank\tDriver\tGrid\tGap\tWin\tPodium\tPace")
	for i := range run.Results {
		r := &run.Results[i]
		fmt.Fprintf(tw, "%d\t%s\t%d\t%.3f\t%.1f%%\t%.1f%%\t%.3f\n",
			r.Rank, r.DriverID, r.GridPosition, r.QualifyingGap,
			r.WinProbability*100, r.PodiumProbability*100, r.ExpectedPace)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if len(run.Warnings) > 0 {
		fmt.Fprintln(w, "\nWarnings:")
		for _, warning := range run.Warnings {
			fmt.Fprintf(w, "  %s\n", warning)
		}
	}
	return nil
}
