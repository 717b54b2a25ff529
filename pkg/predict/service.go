package predict

import (
	"context"
	"time"

	"github.com/gofrs/uuid/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"

	"github.com/mpapenbr/racepredict/log"
	"github.com/mpapenbr/racepredict/pkg/coefficients"
	"github.com/mpapenbr/racepredict/pkg/grid"
	"github.com/mpapenbr/racepredict/pkg/model"
	"github.com/mpapenbr/racepredict/pkg/simulation"
)

type (
	// Store persists finished predictions
	Store interface {
		Store(ctx context.Context, run *model.PredictionRun) error
	}
	// Publisher announces finished predictions to interested parties
	Publisher interface {
		Publish(ctx context.Context, run *model.PredictionRun) error
	}

	Request struct {
		Track      string
		Qualifying []model.QualifyingResult
		// overrides the pole time derived from the qualifying results
		PoleTime *float64
	}

	Prediction struct {
		ID        uuid.UUID
		CreatedAt time.Time
		Result    *simulation.Result
		// noiseless finishing order
		Expected []simulation.Projection
		Warnings []*coefficients.MissingCoefficientWarning
	}
)

type Service struct {
	tables    *coefficients.Tables
	runner    *simulation.Runner
	store     Store
	publisher Publisher

	log       *log.Logger
	tracer    trace.Tracer
	meter     metric.Meter
	counter   metric.Int64Counter
	durations metric.Float64Histogram
}

type Option func(*Service)

func WithTables(t *coefficients.Tables) Option {
	return func(s *Service) {
		s.tables = t
	}
}

func WithRunner(r *simulation.Runner) Option {
	return func(s *Service) {
		s.runner = r
	}
}

func WithStore(store Store) Option {
	return func(s *Service) {
		s.store = store
	}
}

func WithPublisher(p Publisher) Option {
	return func(s *Service) {
		s.publisher = p
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tracer
	}
}

func WithMeter(meter metric.Meter) Option {
	return func(s *Service) {
		s.meter = meter
	}
}

func WithLogger(l *log.Logger) Option {
	return func(s *Service) {
		s.log = l
	}
}

func NewService(opts ...Option) *Service {
	ret := &Service{
		log: log.Default().Named("predict"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	if ret.tables == nil {
		ret.tables = coefficients.Season2026()
	}
	if ret.runner == nil {
		ret.runner = simulation.NewRunner()
	}
	if ret.tracer == nil {
		ret.tracer = otel.Tracer("rpr")
	}
	if ret.meter == nil {
		ret.meter = otel.Meter("rpr")
	}
	ret.initMetrics()
	return ret
}

// initMetrics falls back to noop instruments if the meter refuses to create them
func (s *Service) initMetrics() {
	var err error
	s.counter, err = s.meter.Int64Counter("predictions",
		metric.WithDescription("number of finished predictions"))
	if err != nil {
		s.log.Warn("could not create metric", log.String("metric", "predictions"),
			log.ErrorField(err))
		s.counter = noop.Int64Counter{}
	}
	s.durations, err = s.meter.Float64Histogram("prediction_duration",
		metric.WithDescription("duration of a prediction including storage"),
		metric.WithUnit("s"))
	if err != nil {
		s.log.Warn("could not create metric", log.String("metric", "prediction_duration"),
			log.ErrorField(err))
		s.durations = noop.Float64Histogram{}
	}
}

// Predict builds the starting grid for the request, runs the simulation and
// hands the result to the configured store and publisher.
// A failing store is an error, a failing publisher is only logged.
//
//nolint:funlen // ok
func (s *Service) Predict(ctx context.Context, req *Request) (*Prediction, error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "predict")
	defer span.End()
	span.SetAttributes(
		attribute.String("track", req.Track),
		attribute.Int("drivers", len(req.Qualifying)),
	)

	track, trackWarning := s.tables.Track(req.Track)
	builderOpts := []grid.Option{grid.WithLogger(s.log.Named("grid"))}
	if req.PoleTime != nil {
		builderOpts = append(builderOpts, grid.WithPoleTime(*req.PoleTime))
	}
	g := grid.NewBuilder(s.tables, builderOpts...).Build(req.Qualifying)

	ret := &Prediction{CreatedAt: time.Now().UTC()}
	if trackWarning != nil {
		s.log.Warn("using track defaults", log.String("warning", trackWarning.String()))
		ret.Warnings = append(ret.Warnings, trackWarning)
	}
	ret.Warnings = append(ret.Warnings, g.Warnings...)

	in := &simulation.Input{
		Entries:  g.Entries,
		Track:    track,
		PoleTime: g.PoleTime,
	}
	simCtx, simSpan := s.tracer.Start(ctx, "simulate")
	res, err := s.runner.Run(simCtx, in)
	simSpan.End()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	ret.Result = res
	if ret.Expected, err = simulation.Project(in, s.runner.BaseMarkup()); err != nil {
		return nil, err
	}
	if ret.ID, err = uuid.NewV7(); err != nil {
		return nil, err
	}
	span.SetAttributes(
		attribute.String("id", ret.ID.String()),
		attribute.String("winner", res.Winner().DriverID),
	)

	if s.store != nil {
		storeCtx, storeSpan := s.tracer.Start(ctx, "store")
		err = s.store.Store(storeCtx, ret.ToRun())
		storeSpan.End()
		if err != nil {
			s.log.Error("could not store prediction", log.ErrorField(err))
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
	}
	if s.publisher != nil {
		pubCtx, pubSpan := s.tracer.Start(ctx, "publish")
		if err := s.publisher.Publish(pubCtx, ret.ToRun()); err != nil {
			s.log.Warn("could not publish prediction",
				log.String("id", ret.ID.String()),
				log.ErrorField(err))
			pubSpan.RecordError(err)
		}
		pubSpan.End()
	}

	trackAttr := metric.WithAttributes(attribute.String("track", track.Name))
	s.counter.Add(ctx, 1, trackAttr)
	s.durations.Record(ctx, time.Since(start).Seconds(), trackAttr)
	s.log.Info("prediction done",
		log.String("id", ret.ID.String()),
		log.String("track", track.Name),
		log.String("winner", res.Winner().DriverID),
		log.Duration("duration", time.Since(start)))
	return ret, nil
}

// ToRun converts the prediction into its persisted form.
func (p *Prediction) ToRun() *model.PredictionRun {
	ret := &model.PredictionRun{
		ID:         p.ID,
		Track:      p.Result.Track,
		CreatedAt:  p.CreatedAt,
		Trials:     p.Result.Trials,
		Seed:       p.Result.Seed,
		SafetyCars: p.Result.SafetyCars,
		PoleTime:   p.Result.PoleTime,
		Results:    make([]model.PredictionRow, len(p.Result.Outcomes)),
	}
	for _, w := range p.Warnings {
		ret.Warnings = append(ret.Warnings, w.String())
	}
	for i := range p.Result.Outcomes {
		o := &p.Result.Outcomes[i]
		ret.Results[i] = model.PredictionRow{
			Rank:              i + 1,
			DriverID:          o.DriverID,
			GridPosition:      o.GridPosition,
			QualifyingGap:     o.QualifyingGap,
			Wins:              o.Wins,
			Podiums:           o.Podiums,
			WinProbability:    o.WinProbability,
			PodiumProbability: o.PodiumProbability,
			ExpectedPace:      o.ExpectedPace,
		}
	}
	return ret
}
