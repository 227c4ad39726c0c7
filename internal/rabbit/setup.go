// setup.go
package rabbit

import (
	"context"
	"fmt"

	"github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"despatch-advice-service/internal/logging"
)

const (
	QueueName    = "despatch_advice_orders"
	ExchangeName = "order_documents"
)

// Channel es el subconjunto de *amqp091.Channel que usa SetupConsumers.
type Channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp091.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp091.Table) (amqp091.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp091.Table) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp091.Table) (<-chan amqp091.Delivery, error)
}

// SetupConsumers declara exchange y cola y arranca el consumo en una goroutine
// que termina al cancelar ctx o al cerrarse el canal.
func SetupConsumers(ctx context.Context, ch Channel, svc DespatchGenerator, log *logrus.Logger) error {
	consumer := NewOrderDocumentConsumer(svc, log)
	rlog := log.WithField(logging.FieldComponent, "rabbit")

	// 1. Declarar el exchange fanout
	if err := ch.ExchangeDeclare(ExchangeName, "fanout", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	// 2. Declarar la queue
	q, err := ch.QueueDeclare(
		QueueName, // cola exclusiva para este micro
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	// 3. Bindear al exchange fanout
	err = ch.QueueBind(
		q.Name,
		"", // fanout ignora routing key
		ExchangeName,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}

	// 4. Consumir con ack manual
	msgs, err := ch.Consume(q.Name, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume: %w", err)
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-msgs:
				if !ok {
					return
				}
				// Los mensajes que fallan no se reencolan: el XML no va a cambiar
				if err := consumer.Handle(ctx, m.Body); err != nil {
					if nerr := m.Nack(false, false); nerr != nil {
						rlog.WithError(nerr).Error("[Rabbit] nack failed")
					}
					continue
				}
				if aerr := m.Ack(false); aerr != nil {
					rlog.WithError(aerr).Error("[Rabbit] ack failed")
				}
			}
		}
	}()

	rlog.Infof("[Rabbit] subscribed to exchange %s (fanout)", ExchangeName)
	return nil
}
