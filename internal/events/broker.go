package events

import "fmt"

const (
	DriverNone = "none"
	DriverAMQP = "amqp"
	DriverNATS = "nats"
)

type BrokerOptions struct {
	Driver        string
	URL           string
	Exchange      string
	SubjectPrefix string
}

// NewBroker returns a nil Broker for DriverNone.
func NewBroker(opts BrokerOptions) (Broker, error) {
	switch opts.Driver {
	case DriverNone, "":
		return nil, nil
	case DriverAMQP:
		broker, err := NewAMQPBroker(opts.URL, opts.Exchange)
		if err != nil {
			return nil, err
		}
		return broker, nil
	case DriverNATS:
		broker, err := NewNATSBroker(NATSOptions{URL: opts.URL, SubjectPrefix: opts.SubjectPrefix})
		if err != nil {
			return nil, err
		}
		return broker, nil
	default:
		return nil, fmt.Errorf("unknown events driver %q", opts.Driver)
	}
}
