package events

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

type NATSOptions struct {
	URL           string
	SubjectPrefix string
	MaxReconnects int
	ReconnectWait time.Duration
}

// NATSBroker publishes each event on "<prefix>.<event name>".
type NATSBroker struct {
	conn   *nats.Conn
	prefix string
}

func NewNATSBroker(opts NATSOptions) (*NATSBroker, error) {
	if opts.MaxReconnects == 0 {
		opts.MaxReconnects = 5
	}
	if opts.ReconnectWait == 0 {
		opts.ReconnectWait = 2 * time.Second
	}
	nc, err := nats.Connect(opts.URL,
		nats.Name("movietracker-api"),
		nats.MaxReconnects(opts.MaxReconnects),
		nats.ReconnectWait(opts.ReconnectWait),
		nats.RetryOnFailedConnect(false),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect %s (max_reconnects=%d, wait=%s): %w",
			opts.URL, opts.MaxReconnects, opts.ReconnectWait, err)
	}
	return &NATSBroker{conn: nc, prefix: opts.SubjectPrefix}, nil
}

func (b *NATSBroker) subject(name string) string {
	if b.prefix == "" {
		return name
	}
	return b.prefix + "." + name
}

func (b *NATSBroker) Publish(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m := nats.NewMsg(b.subject(msg.Name))
	m.Header.Set(nats.MsgIdHdr, msg.ID)
	m.Header.Set("Content-Type", "application/json")
	m.Data = msg.Body
	return b.conn.PublishMsg(m)
}

func (b *NATSBroker) Close() error {
	return b.conn.Drain()
}
