package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

const subjectPrefix = "urbangrow"

// Subject returns the NATS subject an event type is published on.
func Subject(t Type) string {
	switch t {
	case ReadingCreated:
		return subjectPrefix + ".readings"
	case ActuatorChanged:
		return subjectPrefix + ".actuators"
	}
	return subjectPrefix + ".events"
}

// NATSPublisher mirrors the live feed onto NATS subjects.
type NATSPublisher struct {
	nc     *nats.Conn
	logger *zap.Logger
}

// NATSConnect dials url. The client reconnects on its own after the first
// successful connection.
func NATSConnect(url string, logger *zap.Logger) (*NATSPublisher, error) {
	if url == "" {
		url = nats.DefaultURL
	}
	logger = logger.Named("nats")

	nc, err := nats.Connect(url,
		nats.Name("urbangrow"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("nats disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats %s: %w", url, err)
	}
	return &NATSPublisher{nc: nc, logger: logger}, nil
}

func (p *NATSPublisher) Publish(_ context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return p.nc.Publish(Subject(ev.Type), payload)
}

// Close flushes pending messages and closes the connection.
func (p *NATSPublisher) Close() {
	if err := p.nc.Drain(); err != nil {
		p.logger.Warn("nats drain failed", zap.Error(err))
		p.nc.Close()
	}
}
