package events

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"
)

const (
	// StreamName is the JetStream stream holding order events.
	StreamName = "ORDERS"
	// StreamSubjects covers every order subject.
	StreamSubjects = "orders.>"
)

var _ Publisher = (*NATS)(nil)

// NATS publishes events to a JetStream stream.
type NATS struct {
	nc *nats.Conn
	js jetstream.JetStream
	lg *zap.Logger
}

// ConnectNATS dials the server and ensures the ORDERS stream exists.
func ConnectNATS(ctx context.Context, url string, lg *zap.Logger) (*NATS, error) {
	nc, err := nats.Connect(url,
		nats.Name("mabel-naski"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(10),
		nats.ReconnectWait(time.Second),
	)
	if err != nil {
		return nil, errors.Wrap(err, "connect nats")
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, errors.Wrap(err, "create jetstream")
	}

	if _, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:        StreamName,
		Description: "Order lifecycle events",
		Subjects:    []string{StreamSubjects},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      7 * 24 * time.Hour,
		Storage:     jetstream.FileStorage,
		Replicas:    1,
		Duplicates:  2 * time.Minute,
	}); err != nil {
		nc.Close()
		return nil, errors.Wrap(err, "create stream")
	}

	lg.Info("Connected to NATS", zap.String("url", url), zap.String("stream", StreamName))
	return &NATS{nc: nc, js: js, lg: lg}, nil
}

// Publish sends payload to subject. id is used for JetStream de-duplication.
func (n *NATS) Publish(ctx context.Context, subject, id string, payload []byte) error {
	ack, err := n.js.Publish(ctx, subject, payload, jetstream.WithMsgID(subject+":"+id))
	if err != nil {
		return errors.Wrapf(err, "publish %s", subject)
	}
	n.lg.Debug("Published event",
		zap.String("subject", subject),
		zap.String("id", id),
		zap.Uint64("seq", ack.Sequence),
	)
	return nil
}

// Ping reports whether the connection is up.
func (n *NATS) Ping(context.Context) error {
	if !n.nc.IsConnected() {
		return errors.Errorf("nats status %s", n.nc.Status())
	}
	return nil
}

// Close drains the connection.
func (n *NATS) Close() error {
	return n.nc.Drain()
}
