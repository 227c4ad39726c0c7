package rabbit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"despatch-advice-service/internal/logging"
	"despatch-advice-service/internal/model"
	"despatch-advice-service/internal/service"
)

// DespatchGenerator es la parte de DespatchService que usa el consumer.
type DespatchGenerator interface {
	GenerateFromXML(ctx context.Context, raw string, inputs map[string]string) (*model.DespatchAdvice, error)
}

type OrderDocumentConsumer struct {
	Service DespatchGenerator
	Log     *logrus.Logger
}

func NewOrderDocumentConsumer(s DespatchGenerator, log *logrus.Logger) *OrderDocumentConsumer {
	return &OrderDocumentConsumer{Service: s, Log: log}
}

// OrderDocumentMessage es el sobre publicado en el exchange order_documents.
type OrderDocumentMessage struct {
	CorrelationID string `json:"correlation_id"`
	Exchange      string `json:"exchange"`
	RoutingKey    string `json:"routing_key"`
	Message       struct {
		OrderXML   string            `json:"orderXml"`
		UserInputs map[string]string `json:"userInputs"`
	} `json:"message"`
}

var ErrEmptyOrderXML = errors.New("message without orderXml")

// Handle procesa un mensaje. Un duplicado no es un error: el pedido ya
// tiene su DespatchAdvice y el mensaje se descarta.
func (c *OrderDocumentConsumer) Handle(ctx context.Context, msg []byte) error {
	var event OrderDocumentMessage
	if err := json.Unmarshal(msg, &event); err != nil {
		c.Log.WithError(err).Warn("[Rabbit] invalid message")
		return fmt.Errorf("decode message: %w", err)
	}

	log := c.Log.WithField(logging.FieldCorrelationID, event.CorrelationID)
	if event.Message.OrderXML == "" {
		log.Warn("[Rabbit] message without orderXml")
		return ErrEmptyOrderXML
	}

	doc, err := c.Service.GenerateFromXML(ctx, event.Message.OrderXML, event.Message.UserInputs)
	if errors.Is(err, service.ErrDuplicateDocument) {
		log.Info("[Rabbit] despatch advice already exists, skipping")
		return nil
	}
	if err != nil {
		log.WithError(err).Error("[Rabbit] could not generate despatch advice")
		return err
	}

	log.WithField(logging.FieldDocUUID, doc.DocUUID).Info("[Rabbit] despatch advice generated")
	return nil
}
