package config

import (
	"runtime"

	"github.com/mpapenbr/racepredict/pkg/simulation"
)

// this holds the resolved configuration values from CLI
//
//nolint:lll,gochecknoglobals // readablity
var (
	DB                 string // connection string for the database
	WaitForServices    string // duration to wait for other services to be ready
	LogLevel           string // sets the log level (zap log level values)
	SQLLogLevel        string // sets the log level for sql subsystem
	LogFormat          string // text vs json
	LogFilter          string // zapfilter rules
	MigrationSourceURL string // location of migration files
	EnableTelemetry    bool   // enable telemetry
	TelemetryEndpoint  string // otlp grpc endpoint, stdout if empty
	NatsURL            string // publish predictions to this nats server
	NatsSubject        string // subject prefix for published predictions
	TablesFile         string // yaml file replacing the built-in coefficient tables
)

// PredictConfig holds the values of a single prediction request
type PredictConfig struct {
	Input           string  // qualifying yaml file, stdin if empty or "-"
	Track           string  // track name, looked up in the coefficient tables
	Trials          int     // number of simulated races
	Seed            uint64  // seed for the random streams
	Workers         int     // goroutines running trials
	BaseMarkup      float64 // seconds added to the pole time
	SCCompression   float64 // share of the gap to the leader kept after a safety car
	SCRestartJitter float64 // std dev of the restart noise after a safety car
	PoleTime        float64 // overrides the pole time if > 0
	Store           bool    // persist the prediction
	Output          string  // text or json
}

func DefaultPredictConfig() *PredictConfig {
	return &PredictConfig{
		Trials:          simulation.DefaultTrials,
		Workers:         runtime.NumCPU(),
		BaseMarkup:      simulation.DefaultBaseMarkup,
		SCCompression:   simulation.DefaultSCCompression,
		SCRestartJitter: simulation.DefaultSCRestartJitter,
		Output:          "text",
	}
}

// RunnerOptions converts the config into options for the simulation runner
func (c *PredictConfig) RunnerOptions() []simulation.Option {
	return []simulation.Option{
		simulation.WithTrials(c.Trials),
		simulation.WithSeed(c.Seed),
		simulation.WithWorkers(c.Workers),
		simulation.WithBaseMarkup(c.BaseMarkup),
		simulation.WithSafetyCar(simulation.SafetyCar{
			Compression:   c.SCCompression,
			RestartJitter: c.SCRestartJitter,
		}),
	}
}
