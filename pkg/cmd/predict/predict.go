package predict

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	otlpruntime "go.opentelemetry.io/contrib/instrumentation/runtime"

	"github.com/mpapenbr/racepredict/log"
	"github.com/mpapenbr/racepredict/pkg/cmd/util"
	"github.com/mpapenbr/racepredict/pkg/config"
	"github.com/mpapenbr/racepredict/pkg/db/postgres"
	predictsvc "github.com/mpapenbr/racepredict/pkg/predict"
	"github.com/mpapenbr/racepredict/pkg/publish"
	"github.com/mpapenbr/racepredict/pkg/repository/prediction"
	"github.com/mpapenbr/racepredict/pkg/simulation"
	"github.com/mpapenbr/racepredict/pkg/utils"
)

//nolint:funlen // flag definitions
func NewPredictCmd() *cobra.Command {
	cfg := config.DefaultPredictConfig()
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "predicts the race outcome from a qualifying result",
		Long: `Reads a qualifying result (yaml) and runs a Monte Carlo simulation of the
race. Win and podium probabilities are reported per driver.`,
		Example: `  rpr predict --input monaco.yml
  rpr predict --track "Great Britain" --trials 20000 --output json < quali.yml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPredict(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), cfg)
		},
	}
	cmd.Flags().StringVarP(&cfg.Input, "input", "i", "",
		"qualifying result file (yaml), stdin if empty or -")
	cmd.Flags().StringVarP(&cfg.Track, "track", "t", "",
		"track name, overrides the track of the input file")
	cmd.Flags().IntVarP(&cfg.Trials, "trials", "n", cfg.Trials,
		"number of simulated races")
	cmd.Flags().Uint64Var(&cfg.Seed, "seed", cfg.Seed,
		"seed for the random numbers, same seed and input give the same result")
	cmd.Flags().IntVar(&cfg.Workers, "workers", cfg.Workers,
		"number of goroutines running trials")
	cmd.Flags().Float64Var(&cfg.BaseMarkup, "base-markup", cfg.BaseMarkup,
		"seconds added to the pole time to get the race pace")
	cmd.Flags().Float64Var(&cfg.SCCompression, "sc-compression", cfg.SCCompression,
		"share of the gap to the leader kept after a safety car [0,1)")
	cmd.Flags().Float64Var(&cfg.SCRestartJitter, "sc-restart-jitter", cfg.SCRestartJitter,
		"std dev (seconds) of the pace noise after a safety car restart")
	cmd.Flags().Float64Var(&cfg.PoleTime, "pole-time", 0,
		"pole lap time in seconds, overrides the value from the input")
	cmd.Flags().StringVarP(&cfg.Output, "output", "o", cfg.Output,
		"output format (text, json)")
	cmd.Flags().BoolVar(&cfg.Store, "store", false,
		"store the prediction in the database")
	cmd.Flags().StringVar(&config.NatsURL, "nats-url", "",
		"publish the prediction to this nats server")
	cmd.Flags().StringVar(&config.NatsSubject, "nats-subject", publish.DefaultSubjectPrefix,
		"subject prefix for published predictions")
	cmd.Flags().BoolVar(&config.EnableTelemetry, "enable-telemetry", false,
		"enables telemetry")
	cmd.Flags().StringVar(&config.TelemetryEndpoint, "telemetry-endpoint", "",
		"otlp grpc endpoint for telemetry data, stdout if empty")
	return cmd
}

//nolint:funlen,cyclop // by design
func runPredict(ctx context.Context, stdin io.Reader, out io.Writer, cfg *config.PredictConfig) error {
	if cfg.Output != "text" && cfg.Output != "json" {
		return fmt.Errorf("unsupported output format %q", cfg.Output)
	}
	logger, sqlLogger, err := util.SetupLoggers(os.Stderr)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck // nothing to do

	tables, err := util.LoadTables()
	if err != nil {
		return err
	}
	in, err := readInputFile(cfg.Input, stdin)
	if err != nil {
		return err
	}

	if config.EnableTelemetry {
		telemetry, err := config.SetupTelemetry(ctx)
		if err != nil {
			logger.Warn("Could not setup telemetry", log.ErrorField(err))
		} else {
			defer telemetry.Shutdown()
			err = otlpruntime.Start(otlpruntime.WithMinimumReadMemStatsInterval(time.Second))
			if err != nil {
				logger.Warn("Could not start runtime metrics", log.ErrorField(err))
			}
		}
	}

	opts := []predictsvc.Option{
		predictsvc.WithTables(tables),
		predictsvc.WithRunner(simulation.NewRunner(cfg.RunnerOptions()...)),
	}
	if cfg.Store {
		if err := util.WaitForServices(ctx, utils.ExtractFromDBURL(config.DB)); err != nil {
			return err
		}
		pool, err := postgres.InitWithURL(ctx, config.DB,
			postgres.WithTracer(postgres.NewQueryTracer(
				sqlLogger, log.DebugLevel, config.EnableTelemetry)))
		if err != nil {
			return err
		}
		defer pool.Close()
		opts = append(opts, predictsvc.WithStore(prediction.NewStore(pool)))
	}
	if config.NatsURL != "" {
		if err := util.WaitForServices(ctx, utils.ExtractFromNatsURL(config.NatsURL)); err != nil {
			return err
		}
		conn, err := publish.Connect(config.NatsURL)
		if err != nil {
			return err
		}
		defer conn.Close()
		opts = append(opts, predictsvc.WithPublisher(
			publish.NewNatsPublisher(conn, publish.WithSubjectPrefix(config.NatsSubject))))
	}

	return execute(ctx, out, cfg, in, opts...)
}

func execute(
	ctx context.Context,
	out io.Writer,
	cfg *config.PredictConfig,
	in *qualifyingFile,
	opts ...predictsvc.Option,
) error {
	req := &predictsvc.Request{
		Track:      in.Track,
		Qualifying: in.Qualifying,
		PoleTime:   in.PoleTime,
	}
	if cfg.Track != "" {
		req.Track = cfg.Track
	}
	if cfg.PoleTime > 0 {
		req.PoleTime = &cfg.PoleTime
	}
	p, err := predictsvc.NewService(opts...).Predict(ctx, req)
	if err != nil {
		return err
	}
	if cfg.Output == "json" {
		return writeJSON(out, p)
	}
	return writeText(out, p)
}
