package util

import (
	"context"
	"io"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mpapenbr/racepredict/log"
	"github.com/mpapenbr/racepredict/pkg/coefficients"
	"github.com/mpapenbr/racepredict/pkg/config"
	"github.com/mpapenbr/racepredict/pkg/utils"
)

func parseLogLevel(l string, defaultVal log.Level) log.Level {
	level, err := log.ParseLevel(l)
	if err != nil {
		return defaultVal
	}
	return level
}

// SetupLoggers creates the application and sql logger according to the log
// flags. The application logger becomes the default logger.
func SetupLoggers(w io.Writer) (logger, sqlLogger *log.Logger, err error) {
	switch config.LogFormat {
	case "json":
		logger = log.New(w,
			parseLogLevel(config.LogLevel, log.InfoLevel),
			log.WithCaller(true),
			log.AddCallerSkip(1))
		sqlLogger = log.New(w,
			parseLogLevel(config.SQLLogLevel, log.InfoLevel),
			log.WithCaller(true),
			log.AddCallerSkip(1))
	default:
		logger = log.DevLogger(w,
			parseLogLevel(config.LogLevel, log.InfoLevel),
			log.WithCaller(true),
			log.AddCallerSkip(1))
		sqlLogger = log.DevLogger(w,
			parseLogLevel(config.SQLLogLevel, log.InfoLevel),
			log.WithCaller(true),
			log.AddCallerSkip(1))
	}
	if logger, err = logger.WithFilter(config.LogFilter); err != nil {
		return nil, nil, err
	}
	log.ResetDefault(logger)
	return logger, sqlLogger, nil
}

// WaitForServices waits until all addresses accept tcp connections.
// Empty addresses are ignored.
func WaitForServices(ctx context.Context, addrs ...string) error {
	timeout, err := time.ParseDuration(config.WaitForServices)
	if err != nil {
		log.Warn("Invalid duration value. Setting default 60s", log.ErrorField(err))
		timeout = 60 * time.Second
	}
	g, gCtx := errgroup.WithContext(ctx)
	for _, addr := range addrs {
		if addr == "" {
			continue
		}
		g.Go(func() error {
			return utils.WaitForTCP(gCtx, addr, timeout)
		})
	}
	return g.Wait()
}

// LoadTables returns the coefficient tables from the --tables file or the
// built-in season tables.
func LoadTables() (*coefficients.Tables, error) {
	if config.TablesFile == "" {
		return coefficients.Season2026(), nil
	}
	return coefficients.LoadFile(config.TablesFile)
}
