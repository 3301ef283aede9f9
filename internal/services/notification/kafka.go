package notification

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"payhook/internal/config"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/sasl"
	"github.com/segmentio/kafka-go/sasl/plain"
	"github.com/segmentio/kafka-go/sasl/scram"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaNotifier publishes settlement events to a Kafka topic, keyed by
// payment id.
type KafkaNotifier struct {
	writer       messageWriter
	topic        string
	writeTimeout time.Duration
}

func NewKafkaNotifier(cfg config.KafkaConfig) (*KafkaNotifier, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("no kafka brokers configured")
	}

	transport := &kafka.Transport{}
	if cfg.Username != "" {
		mechanism, err := saslMechanism(cfg.Mechanism, cfg.Username, cfg.Password)
		if err != nil {
			return nil, err
		}
		transport.SASL = mechanism
	}
	if cfg.TLSEnabled {
		transport.TLS = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		WriteTimeout: cfg.WriteTimeout,
		Transport:    transport,
	}

	log.Printf("Kafka notifier configured (topic=%s, brokers=%d, tls=%t)", cfg.Topic, len(cfg.Brokers), cfg.TLSEnabled)
	return newKafkaNotifier(writer, cfg.Topic, cfg.WriteTimeout), nil
}

func newKafkaNotifier(w messageWriter, topic string, writeTimeout time.Duration) *KafkaNotifier {
	if writeTimeout <= 0 {
		writeTimeout = 5 * time.Second
	}
	return &KafkaNotifier{writer: w, topic: topic, writeTimeout: writeTimeout}
}

func (k *KafkaNotifier) Publish(ctx context.Context, event SettlementEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal settlement event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, k.writeTimeout)
	defer cancel()

	msg := kafka.Message{
		Key:   []byte(event.PaymentID),
		Value: value,
		Time:  time.Now(),
		Headers: []kafka.Header{
			{Key: "message_id", Value: []byte(uuid.NewString())},
			{Key: "type", Value: []byte(event.Type)},
		},
	}
	if err := k.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish to %s: %w", k.topic, err)
	}
	return nil
}

func (k *KafkaNotifier) Close() error {
	return k.writer.Close()
}

func saslMechanism(name, username, password string) (sasl.Mechanism, error) {
	switch name {
	case "plain":
		return plain.Mechanism{Username: username, Password: password}, nil
	case "scram-sha-256":
		return scram.Mechanism(scram.SHA256, username, password)
	case "scram-sha-512", "":
		return scram.Mechanism(scram.SHA512, username, password)
	default:
		return nil, fmt.Errorf("unsupported kafka sasl mechanism %q", name)
	}
}

// New returns a KafkaNotifier when brokers are configured and a LogNotifier
// otherwise, or when the Kafka writer cannot be built.
func New(cfg config.KafkaConfig) Notifier {
	if len(cfg.Brokers) == 0 {
		log.Printf("No Kafka brokers configured, settlement notifications are logged only")
		return NewLogNotifier()
	}
	n, err := NewKafkaNotifier(cfg)
	if err != nil {
		log.Printf("⚠️ Kafka notifier unavailable, falling back to log only: %v", err)
		return NewLogNotifier()
	}
	return n
}
