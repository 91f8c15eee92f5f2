package output

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/IBM/sarama"
)

// KafkaStore publishes each collection to a topic of the same name, keyed by
// reading id.
type KafkaStore struct {
	producer sarama.SyncProducer
}

func NewKafkaStore(brokers string, logger *slog.Logger) (*KafkaStore, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Producer.RequiredAcks = sarama.WaitForAll
	saramaConfig.Producer.Retry.Max = 5
	saramaConfig.Producer.Retry.Backoff = 100 * time.Millisecond
	saramaConfig.Producer.Return.Successes = true // Must be true for SyncProducer
	saramaConfig.Net.DialTimeout = 30 * time.Second
	saramaConfig.Net.ReadTimeout = 30 * time.Second
	saramaConfig.Net.WriteTimeout = 30 * time.Second

	brokerList := strings.Split(brokers, ",")

	producer, err := sarama.NewSyncProducer(brokerList, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Sarama producer: %w", err)
	}

	logger.Info("kafka producer created", "brokers", brokerList)
	return &KafkaStore{producer: producer}, nil
}

func (k *KafkaStore) Insert(ctx context.Context, collection string, doc any) error {
	if k.producer == nil {
		return fmt.Errorf("kafka producer is closed")
	}
	id, _, err := documentKey(doc)
	if err != nil {
		return err
	}
	msg, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("error serializing %s document: %w", collection, err)
	}

	_, _, err = k.producer.SendMessage(&sarama.ProducerMessage{
		Topic: collection,
		Key:   sarama.StringEncoder(id),
		Value: sarama.ByteEncoder(msg),
	})
	if err != nil {
		return fmt.Errorf("failed to send message to topic %s: %w", collection, err)
	}
	return nil
}

func (k *KafkaStore) Close() error {
	if k.producer == nil {
		return nil
	}
	err := k.producer.Close()
	k.producer = nil
	return err
}
