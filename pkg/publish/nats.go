package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nats-io/nats.go"

	"github.com/mpapenbr/racepredict/log"
	"github.com/mpapenbr/racepredict/pkg/model"
)

const DefaultSubjectPrefix = "predictions"

type (
	msgPublisher interface {
		PublishMsg(m *nats.Msg) error
		FlushWithContext(ctx context.Context) error
	}

	// NatsPublisher sends finished predictions as JSON to
	// <prefix>.<track token>
	NatsPublisher struct {
		conn   msgPublisher
		prefix string
		l      *log.Logger
	}
	Option func(*NatsPublisher)
)

func WithSubjectPrefix(prefix string) Option {
	return func(p *NatsPublisher) {
		p.prefix = strings.TrimSuffix(prefix, ".")
	}
}

func WithLogger(l *log.Logger) Option {
	return func(p *NatsPublisher) {
		p.l = l
	}
}

func NewNatsPublisher(conn *nats.Conn, opts ...Option) *NatsPublisher {
	return newPublisher(conn, opts...)
}

func newPublisher(conn msgPublisher, opts ...Option) *NatsPublisher {
	ret := &NatsPublisher{
		conn:   conn,
		prefix: DefaultSubjectPrefix,
		l:      log.Default().Named("nats"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

// Connect opens a connection to the nats server at url
func Connect(url string) (*nats.Conn, error) {
	return nats.Connect(url, nats.Name("rpr"))
}

func (p *NatsPublisher) Subject(track string) string {
	return fmt.Sprintf("%s.%s", p.prefix, subjectToken(track))
}

// Publish sends the run and waits until the server has processed it.
func (p *NatsPublisher) Publish(ctx context.Context, run *model.PredictionRun) error {
	data, err := json.Marshal(run)
	if err != nil {
		return err
	}
	msg := nats.NewMsg(p.Subject(run.Track.Name))
	msg.Header.Set(nats.MsgIdHdr, run.ID.String())
	msg.Data = data
	if err := p.conn.PublishMsg(msg); err != nil {
		return err
	}
	if err := p.conn.FlushWithContext(ctx); err != nil {
		return err
	}
	p.l.Debug("published prediction",
		log.String("subject", msg.Subject),
		log.String("id", run.ID.String()),
		log.Int("size", len(data)))
	return nil
}

// subjectToken turns a track name into a single nats subject token
func subjectToken(name string) string {
	token := strings.Map(func(r rune) rune {
		switch r {
		case '.', '*', '>':
			return -1
		case ' ', '\t':
			return '_'
		}
		return r
	}, strings.ToLower(strings.TrimSpace(name)))
	if token == "" {
		return "unknown"
	}
	return token
}
