package events

import (
	"context"
	"fmt"
	"sync"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/streadway/amqp"
)

// Publisher delivers outcome events.
type Publisher interface {
	PublishOutcome(ctx context.Context, ev OutcomeEvent) error
	Close() error
}

// Config selects and configures the broker. An empty URL disables
// publishing.
type Config struct {
	AMQPURL    string `mapstructure:"amqp_url"`
	Exchange   string `mapstructure:"exchange"`
	RoutingKey string `mapstructure:"routing_key"`
}

// channel is the subset of *amqp.Channel the publisher uses.
type channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQPPublisher publishes persistent JSON messages to a topic exchange.
type AMQPPublisher struct {
	mu         sync.Mutex
	conn       *amqp.Connection
	ch         channel
	exchange   string
	routingKey string
	log        zerolog.Logger
}

// New returns an AMQP publisher for cfg, or a NopPublisher when no URL is
// configured.
func New(cfg Config, log zerolog.Logger) (Publisher, error) {
	if cfg.AMQPURL == "" {
		log.Info().Msg("event publishing disabled")
		return NopPublisher{}, nil
	}

	conn, err := amqp.Dial(cfg.AMQPURL)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open amqp channel: %w", err)
	}

	p, err := NewAMQPPublisher(ch, cfg.Exchange, cfg.RoutingKey, log)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}
	p.conn = conn
	return p, nil
}

// NewAMQPPublisher declares the exchange on ch and returns a publisher for
// it. Empty exchange and key fall back to "campaigns" and
// DefaultRoutingKey.
func NewAMQPPublisher(ch channel, exchange, routingKey string, log zerolog.Logger) (*AMQPPublisher, error) {
	if exchange == "" {
		exchange = "campaigns"
	}
	if routingKey == "" {
		routingKey = DefaultRoutingKey
	}
	if err := ch.ExchangeDeclare(exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	return &AMQPPublisher{
		ch:         ch,
		exchange:   exchange,
		routingKey: routingKey,
		log:        log,
	}, nil
}

// PublishOutcome sends ev. The AMQP client has no context support, so ctx
// is only checked before publishing.
func (p *AMQPPublisher) PublishOutcome(ctx context.Context, ev OutcomeEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal outcome event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	err = p.ch.Publish(p.exchange, p.routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    ev.JobID,
		Timestamp:    ev.OccurredAt,
		Type:         p.routingKey,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish outcome for %s: %w", ev.CampaignID, err)
	}

	p.log.Debug().
		Str("campaign_id", ev.CampaignID).
		Str("routing_key", p.routingKey).
		Msg("outcome event published")
	return nil
}

// Close closes the channel and, when owned, the connection.
func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	err := p.ch.Close()
	if p.conn != nil {
		if cerr := p.conn.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// NopPublisher discards events.
type NopPublisher struct{}

func (NopPublisher) PublishOutcome(context.Context, OutcomeEvent) error { return nil }

func (NopPublisher) Close() error { return nil }
