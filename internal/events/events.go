// Package events publica los cambios de ciclo de vida de los DespatchAdvice.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

const (
	TypeGenerated = "despatch.generated"
	TypeCancelled = "despatch.cancelled"
)

type Event struct {
	Type       string    `json:"type"`
	DocUUID    string    `json:"docUUID"`
	DespatchID string    `json:"despatchId"`
	Reason     string    `json:"reason,omitempty"`
	At         time.Time `json:"at"`
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// KafkaPublisher usa docUUID como clave: los eventos de un mismo documento
// caen en la misma partición y conservan el orden.
type KafkaPublisher struct {
	writer kafkaMessageWriter
}

// kafkaMessageWriter es la parte de *kafka.Writer que usa el publisher.
type kafkaMessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{writer: &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
	}}
}

func newKafkaPublisherWith(w kafkaMessageWriter) *KafkaPublisher {
	return &KafkaPublisher{writer: w}
}

func (k *KafkaPublisher) Publish(ctx context.Context, e Event) error {
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	b, err := json.Marshal(&e)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	return k.writer.WriteMessages(ctx, kafka.Message{Key: []byte(e.DocUUID), Value: b})
}

// Close libera el writer si lo admite.
func (k *KafkaPublisher) Close() error {
	if c, ok := k.writer.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}

// NopPublisher descarta los eventos. Se usa cuando no hay brokers configurados.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
