package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/jhoicas/catalogo-api/internal/application/ports"
)

var _ ports.EventPublisher = (*KafkaPublisher)(nil)

// MessageWriter lo cumple *kafka.Writer.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher publica eventos de catálogo como JSON; la clave del mensaje es la clave del
// evento para conservar el orden por categoría o por trabajo.
type KafkaPublisher struct {
	writer MessageWriter
	topic  string
}

// NewKafkaPublisher writer con balanceo LeastBytes hacia brokers.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchSize:    100,
		BatchTimeout: 50 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
	}
	return &KafkaPublisher{writer: writer, topic: topic}
}

// NewKafkaPublisherWithWriter para tests o writers ya configurados.
func NewKafkaPublisherWithWriter(w MessageWriter, topic string) *KafkaPublisher {
	return &KafkaPublisher{writer: w, topic: topic}
}

// Publish serializa y escribe el evento.
func (p *KafkaPublisher) Publish(ctx context.Context, event ports.CatalogEvent) error {
	msg, err := EncodeEvent(event)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write message to kafka topic %s: %w", p.topic, err)
	}
	return nil
}

// Close vacía el buffer del writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// EncodeEvent convierte el evento en un mensaje Kafka con cabecera event-type.
func EncodeEvent(event ports.CatalogEvent) (kafka.Message, error) {
	value, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("marshal event %s: %w", event.Type, err)
	}
	return kafka.Message{
		Key:   []byte(event.Key),
		Value: value,
		Time:  event.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(event.Type)},
		},
	}, nil
}
