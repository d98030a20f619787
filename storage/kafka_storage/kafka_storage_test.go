package kafka_storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"

	"github.com/lidofinance/rta/storage"
)

const testTopic = "rta_test_journal"

func TestKafkaMessageConversion(t *testing.T) {
	req := require.New(t)

	msg := storage.Message{
		ID:         "4f8e2d9a-1c3b-4b5a-9e7f-0a1b2c3d4e5f",
		Event:      "transfer_requested",
		Data:       json.RawMessage(`{"id":1}`),
		SenderAddr: "0x00000000000000000000000000000000000000e0",
		CreatedAt:  time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
	}

	kafkaMessages, err := storageToKafkaMessages(msg)
	req.NoError(err)
	req.Len(kafkaMessages, 1)
	req.Equal([]byte(msg.ID), kafkaMessages[0].Key)
	req.Equal("event", kafkaMessages[0].Headers[0].Key)
	req.Equal([]byte(msg.Event), kafkaMessages[0].Headers[0].Value)

	kafkaMessages[0].Offset = 42
	decoded, err := kafkaToStorageMessage(kafkaMessages[0])
	req.NoError(err)
	msg.Offset = 42
	req.Equal(msg, decoded)

	_, err = kafkaToStorageMessage(kafka.Message{Value: []byte("not json")})
	req.Error(err)
}

func TestGetTLSConfig(t *testing.T) {
	req := require.New(t)

	cfg, err := GetTLSConfig("")
	req.NoError(err)
	req.Nil(cfg)

	_, err = GetTLSConfig(filepath.Join(t.TempDir(), "missing.crt"))
	req.Error(err)

	empty := filepath.Join(t.TempDir(), "empty.crt")
	req.NoError(os.WriteFile(empty, []byte("no pem here"), 0600))
	_, err = GetTLSConfig(empty)
	req.Error(err)
}

func TestKafkaAuthCredentials(t *testing.T) {
	req := require.New(t)

	req.Nil(KafkaAuthCredentials{}.Mechanism())
	req.Nil(saslMechanism(nil))

	m := KafkaAuthCredentials{Username: "producer", Password: "producerpass"}.Mechanism()
	req.Equal("producer", m.Username)
	req.NotNil(saslMechanism(m))
}

func TestKafkaStorage_Send(t *testing.T) {
	endpoint := os.Getenv("RTA_TEST_KAFKA_ENDPOINT")
	if testing.Short() || endpoint == "" {
		t.Skip("RTA_TEST_KAFKA_ENDPOINT is not set")
	}
	req := require.New(t)

	stg, err := NewKafkaStorage(endpoint, testTopic, "rta_test_"+time.Now().Format("150405"), nil, nil, nil, 10*time.Second)
	req.NoError(err)
	defer stg.Close()

	// drain what the topic already holds
	_, err = stg.GetMessages(0)
	req.NoError(err)

	msgs := make([]storage.Message, 0, 10)
	for i := 0; i < 10; i++ {
		msgs = append(msgs, storage.Message{Event: "minted", Data: json.RawMessage(`{}`)})
	}
	req.NoError(stg.Send(msgs...))

	after, err := stg.GetMessages(0)
	req.NoError(err)
	req.Len(after, len(msgs))
}
