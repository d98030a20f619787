package kafka_storage

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/sasl/plain"

	"github.com/lidofinance/rta/storage"
)

const (
	kafkaMinBytes    = 10
	kafkaMaxBytes    = 10e6
	kafkaMaxAttempts = 16

	readWindow = 10 * time.Second
)

var _ storage.Storage = (*KafkaStorage)(nil)

type KafkaAuthCredentials struct {
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// Mechanism returns SASL plain credentials, nil when no username is set.
func (c KafkaAuthCredentials) Mechanism() *plain.Mechanism {
	if c.Username == "" {
		return nil
	}
	return &plain.Mechanism{Username: c.Username, Password: c.Password}
}

// KafkaStorage publishes journal messages to a topic keyed by message id.
type KafkaStorage struct {
	reader                               *kafka.Reader
	writer                               *kafka.Writer
	tlsConfig                            *tls.Config
	producerCreds, consumerCreds         *plain.Mechanism
	brokerEndpoint, consumerGroup, topic string
	timeout                              time.Duration
}

func NewKafkaStorage(
	brokerEndpoint,
	topic,
	consumerGroup string,
	tlsConfig *tls.Config,
	producerCreds,
	consumerCreds *plain.Mechanism,
	timeout time.Duration,
) (*KafkaStorage, error) {
	ks := &KafkaStorage{
		brokerEndpoint: brokerEndpoint,
		topic:          topic,
		consumerGroup:  consumerGroup,
		tlsConfig:      tlsConfig,
		producerCreds:  producerCreds,
		consumerCreds:  consumerCreds,
		timeout:        timeout,
	}
	if err := ks.reset(); err != nil {
		return nil, fmt.Errorf("failed to create a NewKafkaStorage: %w", err)
	}

	return ks, nil
}

func (ks *KafkaStorage) Close() error {
	if ks.reader != nil {
		if err := ks.reader.Close(); err != nil {
			return fmt.Errorf("failed to Close reader: %w", err)
		}
	}

	if ks.writer != nil {
		if err := ks.writer.Close(); err != nil {
			return fmt.Errorf("failed to Close writer: %w", err)
		}
	}

	return nil
}

// Send writes messages in one batch. IDs are assigned here, offsets are
// assigned by the broker and known only on read.
func (ks *KafkaStorage) Send(messages ...storage.Message) error {
	for i := range messages {
		messages[i].ID = uuid.New().String()
	}

	kafkaMessages, err := storageToKafkaMessages(messages...)
	if err != nil {
		return fmt.Errorf("failed to storageToKafkaMessages: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), ks.timeout)
	defer cancel()
	if err := ks.writer.WriteMessages(ctx, kafkaMessages...); err != nil {
		return fmt.Errorf("failed to WriteMessages: %w", err)
	}

	return nil
}

// GetMessages reads what the consumer group has not committed yet, skipping
// messages below offset. It returns once the topic is idle for readWindow.
func (ks *KafkaStorage) GetMessages(offset uint64) ([]storage.Message, error) {
	ctx, cancel := context.WithTimeout(context.Background(), readWindow)
	defer cancel()

	var messages []storage.Message
	for {
		kafkaMessage, err := ks.reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				break
			}
			return nil, fmt.Errorf("failed to ReadMessage: %w", err)
		}

		message, err := kafkaToStorageMessage(kafkaMessage)
		if err != nil {
			return nil, err
		}
		if message.Offset < offset {
			continue
		}
		messages = append(messages, message)
	}

	return messages, nil
}

func storageToKafkaMessages(messages ...storage.Message) ([]kafka.Message, error) {
	kafkaMessages := make([]kafka.Message, len(messages))
	for i, m := range messages {
		data, err := json.Marshal(m)
		if err != nil {
			return kafkaMessages, fmt.Errorf("failed to marshal a message %s: %w", m.Event, err)
		}
		kafkaMessages[i] = kafka.Message{
			Key:   []byte(m.ID),
			Value: data,
			Headers: []kafka.Header{
				{Key: "event", Value: []byte(m.Event)},
			},
		}
	}

	return kafkaMessages, nil
}

func kafkaToStorageMessage(kafkaMessage kafka.Message) (storage.Message, error) {
	var message storage.Message
	if err := json.Unmarshal(kafkaMessage.Value, &message); err != nil {
		return message, fmt.Errorf("failed to unmarshal a message %s: %w", string(kafkaMessage.Value), err)
	}
	message.Offset = uint64(kafkaMessage.Offset)
	return message, nil
}

func (ks *KafkaStorage) reset() error {
	if err := ks.Close(); err != nil {
		return fmt.Errorf("failed to Close connections: %w", err)
	}

	ks.reader = kafka.NewReader(kafka.ReaderConfig{
		Brokers:     []string{ks.brokerEndpoint},
		GroupID:     ks.consumerGroup,
		Topic:       ks.topic,
		MinBytes:    kafkaMinBytes,
		MaxBytes:    kafkaMaxBytes,
		MaxAttempts: kafkaMaxAttempts,
		Dialer: &kafka.Dialer{
			Timeout:       ks.timeout,
			DualStack:     true,
			TLS:           ks.tlsConfig,
			SASLMechanism: saslMechanism(ks.consumerCreds),
		},
	})

	ks.writer = &kafka.Writer{
		Addr:         kafka.TCP(ks.brokerEndpoint),
		Topic:        ks.topic,
		Balancer:     &kafka.LeastBytes{},
		MaxAttempts:  kafkaMaxAttempts,
		BatchTimeout: ks.timeout,
		ReadTimeout:  ks.timeout,
		WriteTimeout: ks.timeout,
		RequiredAcks: kafka.RequireAll,
		Transport: &kafka.Transport{
			Dial: (&net.Dialer{
				Timeout: ks.timeout,
			}).DialContext,
			TLS:  ks.tlsConfig,
			SASL: saslMechanism(ks.producerCreds),
		},
	}

	return nil
}
