package rabbit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"despatch-advice-service/internal/events"
	"despatch-advice-service/internal/logging"
	"despatch-advice-service/internal/model"
	"despatch-advice-service/internal/repository"
	"despatch-advice-service/internal/service"
	"despatch-advice-service/internal/ubl"
)

const orderMessage = `{
  "correlation_id": "c-1",
  "exchange": "order_documents",
  "message": {
    "orderXml": "<Order xmlns:cbc=\"urn:cbc\"><cbc:ID>AEG012345</cbc:ID><cbc:UUID>U-1</cbc:UUID></Order>",
    "userInputs": {"backorderReason": "Overstocked"}
  }
}`

func newConsumer() (*OrderDocumentConsumer, *repository.MemoryDespatchRepository) {
	repo := repository.NewMemoryDespatchRepository()
	svc := service.NewDespatchService(repo, events.NopPublisher{}, nil, logging.Discard())
	return NewOrderDocumentConsumer(svc, logging.Discard()), repo
}

func TestHandle_GeneratesDocument(t *testing.T) {
	c, repo := newConsumer()
	ctx := context.Background()

	require.NoError(t, c.Handle(ctx, []byte(orderMessage)))

	doc, err := repo.FindByUUID(ctx, "U-1")
	require.NoError(t, err)
	assert.Equal(t, "AEG012345", doc.DespatchID)
	assert.Contains(t, doc.XML, "Overstocked")

	// un duplicado se descarta sin error
	assert.NoError(t, c.Handle(ctx, []byte(orderMessage)))
}

func TestHandle_Errors(t *testing.T) {
	c, _ := newConsumer()
	ctx := context.Background()

	assert.Error(t, c.Handle(ctx, []byte("{not json")))
	assert.ErrorIs(t, c.Handle(ctx, []byte(`{"message":{}}`)), ErrEmptyOrderXML)
	assert.ErrorIs(t, c.Handle(ctx, []byte(`{"message":{"orderXml":"<Foo/>"}}`)), ubl.ErrMalformedDocument)
	assert.ErrorIs(t, c.Handle(ctx, []byte(`{"message":{"orderXml":"<Order/>","userInputs":{"bad":"x"}}}`)), service.ErrInvalidOverrideKey)
}

type fakeAck struct {
	mu    sync.Mutex
	acks  int
	nacks int
	err   error
	done  chan struct{}
}

func (f *fakeAck) Ack(uint64, bool) error { return f.record(true) }

func (f *fakeAck) Nack(uint64, bool, bool) error { return f.record(false) }

func (f *fakeAck) Reject(uint64, bool) error { return f.record(false) }

func (f *fakeAck) record(ack bool) error {
	f.mu.Lock()
	if ack {
		f.acks++
	} else {
		f.nacks++
	}
	f.mu.Unlock()
	f.done <- struct{}{}
	return f.err
}

type fakeChannel struct {
	deliveries chan amqp091.Delivery
	bound      string
	exchange   string
	kind       string
	failBind   bool
}

func (f *fakeChannel) ExchangeDeclare(name, kind string, _, _, _, _ bool, _ amqp091.Table) error {
	f.exchange, f.kind = name, kind
	return nil
}

func (f *fakeChannel) QueueDeclare(name string, _, _, _, _ bool, _ amqp091.Table) (amqp091.Queue, error) {
	return amqp091.Queue{Name: name}, nil
}

func (f *fakeChannel) QueueBind(name, _, exchange string, _ bool, _ amqp091.Table) error {
	if f.failBind {
		return errors.New("bind refused")
	}
	f.bound = name + "->" + exchange
	return nil
}

func (f *fakeChannel) Consume(string, string, bool, bool, bool, bool, amqp091.Table) (<-chan amqp091.Delivery, error) {
	return f.deliveries, nil
}

type stubGenerator struct{}

func (stubGenerator) GenerateFromXML(_ context.Context, raw string, _ map[string]string) (*model.DespatchAdvice, error) {
	if raw == "fail" {
		return nil, errors.New("boom")
	}
	return &model.DespatchAdvice{DocUUID: "u"}, nil
}

func TestSetupConsumers(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := &fakeChannel{deliveries: make(chan amqp091.Delivery, 2)}
	require.NoError(t, SetupConsumers(ctx, ch, stubGenerator{}, logging.Discard()))
	assert.Equal(t, ExchangeName, ch.exchange)
	assert.Equal(t, "fanout", ch.kind)
	assert.Equal(t, QueueName+"->"+ExchangeName, ch.bound)

	ack := &fakeAck{done: make(chan struct{}, 2)}
	ch.deliveries <- amqp091.Delivery{Acknowledger: ack, Body: []byte(`{"message":{"orderXml":"ok"}}`)}
	ch.deliveries <- amqp091.Delivery{Acknowledger: ack, Body: []byte(`{"message":{"orderXml":"fail"}}`)}

	for i := 0; i < 2; i++ {
		select {
		case <-ack.done:
		case <-time.After(2 * time.Second):
			t.Fatal("consumer did not process deliveries")
		}
	}
	ack.mu.Lock()
	defer ack.mu.Unlock()
	assert.Equal(t, 1, ack.acks)
	assert.Equal(t, 1, ack.nacks)
}

func TestSetupConsumers_BindError(t *testing.T) {
	ch := &fakeChannel{failBind: true}
	err := SetupConsumers(context.Background(), ch, stubGenerator{}, logging.Discard())
	assert.ErrorContains(t, err, "bind queue")
}

func TestSetupConsumers_LogsAckErrors(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log, hook := logtest.NewNullLogger()
	ch := &fakeChannel{deliveries: make(chan amqp091.Delivery, 2)}
	require.NoError(t, SetupConsumers(ctx, ch, stubGenerator{}, log))

	ack := &fakeAck{err: errors.New("channel closed"), done: make(chan struct{}, 2)}
	ch.deliveries <- amqp091.Delivery{Acknowledger: ack, Body: []byte(`{"message":{"orderXml":"ok"}}`)}
	ch.deliveries <- amqp091.Delivery{Acknowledger: ack, Body: []byte(`{"message":{"orderXml":"fail"}}`)}

	for i := 0; i < 2; i++ {
		select {
		case <-ack.done:
		case <-time.After(2 * time.Second):
			t.Fatal("consumer did not process deliveries")
		}
	}

	// el log se escribe justo después del ack/nack
	assert.Eventually(t, func() bool {
		var msgs []string
		for _, e := range hook.AllEntries() {
			if e.Level == logrus.ErrorLevel && e.Data[logging.FieldComponent] == "rabbit" {
				msgs = append(msgs, e.Message)
			}
		}
		return len(msgs) == 2
	}, 2*time.Second, 10*time.Millisecond)
}
