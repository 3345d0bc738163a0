// Package event publishes finished games to Kafka for analytics consumers.
package event

import (
	"crypto/tls"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"

	"github.com/iamasit07/drop4/pkg/logger"
)

const GameOver = "GAME_OVER"

type GameEvent struct {
	Event    string    `json:"event"`
	GameID   string    `json:"gameId"`
	Mode     string    `json:"mode"`
	Outcome  string    `json:"outcome"`
	Winner   string    `json:"winner,omitempty"`
	Moves    int       `json:"moves"`
	Duration float64   `json:"duration_seconds"`
	Fallback bool      `json:"oracle_fallback,omitempty"`
	At       time.Time `json:"at"`
}

type Producer struct {
	producer sarama.SyncProducer
	topic    string
}

// NewProducer connects a synchronous producer. SASL over TLS is enabled when
// user is set.
func NewProducer(brokers []string, topic, user, password string) (*Producer, error) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5

	if user != "" {
		config.Net.SASL.Enable = true
		config.Net.SASL.User = user
		config.Net.SASL.Password = password
		config.Net.SASL.Mechanism = sarama.SASLTypePlaintext
		config.Net.TLS.Enable = true
		config.Net.TLS.Config = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	p, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}

	logger.Info("KAFKA", "Producer connected to %v (topic %s)", brokers, topic)
	return NewProducerWith(p, topic), nil
}

func NewProducerWith(p sarama.SyncProducer, topic string) *Producer {
	return &Producer{producer: p, topic: topic}
}

// EmitGameOver sends e keyed by game ID so one game's events stay ordered.
func (p *Producer) EmitGameOver(e GameEvent) error {
	if e.Event == "" {
		e.Event = GameOver
	}

	val, err := json.Marshal(e)
	if err != nil {
		return err
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(e.GameID),
		Value: sarama.ByteEncoder(val),
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("kafka send: %w", err)
	}
	logger.Debug("KAFKA", "Event for game %s stored at %d/%d (%.2fs)", e.GameID, partition, offset, e.Duration)
	return nil
}

func (p *Producer) Close() error {
	return p.producer.Close()
}
