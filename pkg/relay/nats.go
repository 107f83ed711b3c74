package relay

import (
	"context"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/ohler55/ojg/oj"

	"github.com/mpapenbr/raceplay/log"
	"github.com/mpapenbr/raceplay/pkg/model"
)

// NatsRelay republishes accepted snapshots as JSON messages on the
// subject raceplay.state.<sessionKey>. It acts as one more subscriber
// of the replay controller, remote consumers (dashboards, recorders)
// follow the replay without touching the engine.
type NatsRelay struct {
	conn    *nats.Conn
	subject string
	l       *log.Logger
	numSent int
}

func NewNatsRelay(url, sessionKey string) (*NatsRelay, error) {
	conn, err := nats.Connect(url, nats.Name("raceplay"))
	if err != nil {
		return nil, fmt.Errorf("could not connect to nats: %w", err)
	}
	return &NatsRelay{
		conn:    conn,
		subject: fmt.Sprintf("raceplay.state.%s", sessionKey),
		l:       log.Default().Named("relay"),
	}, nil
}

// Run consumes the snapshot subscription until ctx is done or the
// channel is closed
func (r *NatsRelay) Run(ctx context.Context, snapshots <-chan *model.RaceState) {
	r.l.Info("relay started", log.String("subject", r.subject))
	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-snapshots:
			if !ok {
				return
			}
			data, err := oj.Marshal(snap)
			if err != nil {
				r.l.Error("could not marshal snapshot", log.ErrorField(err))
				continue
			}
			if err := r.conn.Publish(r.subject, data); err != nil {
				r.l.Error("could not publish snapshot", log.ErrorField(err))
				continue
			}
			r.numSent++
		}
	}
}

func (r *NatsRelay) Close() {
	r.l.Info("relay closed", log.Int("sent", r.numSent))
	if err := r.conn.Drain(); err != nil {
		r.l.Warn("error draining nats connection", log.ErrorField(err))
	}
}
