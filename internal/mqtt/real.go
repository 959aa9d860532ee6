package mqtt

import (
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/sweeney/ir-remote/internal/action"
)

// Options configures a RealPublisher.
type Options struct {
	Broker   string
	ClientID string
	Encoding Encoding
	Logger   *zap.SugaredLogger
}

// RealPublisher publishes to an actual MQTT broker.
type RealPublisher struct {
	client   paho.Client
	topic    string
	encoding Encoding
	log      *zap.SugaredLogger
}

// NewRealPublisher creates a publisher connected to the given broker.
// If the broker cannot be reached within the connect timeout, the client
// keeps retrying in the background and the publisher is still returned.
func NewRealPublisher(opts Options) (*RealPublisher, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	clientID := opts.ClientID
	if clientID == "" {
		clientID = "ir-remote"
	}

	will, err := FormatSystemPayload(SystemEvent{Timestamp: time.Now(), Event: "OFFLINE", Reason: "LWT"})
	if err != nil {
		return nil, fmt.Errorf("format will payload: %w", err)
	}

	clientOpts := paho.NewClientOptions().
		AddBroker(opts.Broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetBinaryWill(TopicSystem, will, 1, true).
		SetOnConnectHandler(func(paho.Client) {
			logger.Infof("mqtt: connected to %s", opts.Broker)
		}).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			logger.Warnf("mqtt: connection lost: %v", err)
		})

	client := paho.NewClient(clientOpts)
	token := client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		logger.Warnf("mqtt: broker %s not reachable yet, retrying in background", opts.Broker)
	} else if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}

	return &RealPublisher{
		client:   client,
		topic:    Topic,
		encoding: opts.Encoding,
		log:      logger,
	}, nil
}

// Publish queues a remote action for the MQTT broker and returns without
// waiting. Delivery failures are logged.
func (p *RealPublisher) Publish(event action.Event) error {
	payload, err := FormatPayload(event, p.encoding)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}

	// QoS 0 (at-most-once), not retained
	token := p.client.Publish(p.topic, 0, false, payload)
	go p.await(token, event.ID)

	return nil
}

func (p *RealPublisher) await(token paho.Token, id string) {
	if !token.WaitTimeout(5 * time.Second) {
		p.log.Warnf("publish %s: timeout", id)
		return
	}
	if err := token.Error(); err != nil {
		p.log.Warnf("publish %s: %v", id, err)
	}
}

// PublishSystem sends a system lifecycle event to the MQTT broker.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}

	// QoS 1 (at-least-once) for lifecycle events - we want to ensure delivery
	token := p.client.Publish(TopicSystem, 1, event.Retained, payload)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish system timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish system: %w", err)
	}

	return nil
}

// IsConnected reports whether the client currently has an open connection.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnectionOpen()
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000) // 1 second timeout
	return nil
}
