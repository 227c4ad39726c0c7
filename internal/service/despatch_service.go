package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"despatch-advice-service/internal/events"
	"despatch-advice-service/internal/logging"
	"despatch-advice-service/internal/metrics"
	"despatch-advice-service/internal/model"
	"despatch-advice-service/internal/report"
	"despatch-advice-service/internal/repository"
	"despatch-advice-service/internal/ubl"
)

// Interfaz que debe implementar repository
type DespatchRepository interface {
	Insert(ctx context.Context, d *model.DespatchAdvice) error
	FindByUUID(ctx context.Context, docUUID string) (*model.DespatchAdvice, error)
	FindByDespatchID(ctx context.Context, despatchID string) (*model.DespatchAdvice, error)
	MarkCancelled(ctx context.Context, docUUID, reason string) error
}

// Errores de negocio exportados (los usa el controller)
var (
	ErrMissingOrder       = errors.New("parsedOrder is required")
	ErrMissingDocumentKey = errors.New("parsedOrder.orderUUID is required")
	ErrInvalidOverrideKey = errors.New("invalid override key")
	ErrDuplicateDocument  = errors.New("a despatch advice already exists for this order")
	ErrDocumentNotFound   = errors.New("despatch advice not found")
	ErrAlreadyCancelled   = errors.New("despatch advice is already cancelled")
	ErrInvalidReason      = errors.New("cancellation reason must be at least 3 characters")
)

const minReasonLen = 3

// InvalidOverrideKeyError indica la primera clave (en orden alfabético) que
// no está en model.AllowedOverrideKeys.
type InvalidOverrideKeyError struct {
	Key string
}

func (e *InvalidOverrideKeyError) Error() string {
	return fmt.Sprintf("Invalid key in userInputs: %s", e.Key)
}

func (e *InvalidOverrideKeyError) Is(target error) bool { return target == ErrInvalidOverrideKey }

var allowedOverrides = func() map[string]bool {
	m := make(map[string]bool, len(model.AllowedOverrideKeys))
	for _, k := range model.AllowedOverrideKeys {
		m[k] = true
	}
	return m
}()

type DespatchService struct {
	repo      DespatchRepository
	publisher events.Publisher
	metrics   *metrics.Registry
	log       *logrus.Logger
	synth     *ubl.Synthesizer
	renderer  *report.Renderer
	now       func() time.Time
}

func NewDespatchService(r DespatchRepository, p events.Publisher, m *metrics.Registry, log *logrus.Logger) *DespatchService {
	if p == nil {
		p = events.NopPublisher{}
	}
	if m == nil {
		m = metrics.NewRegistry()
	}
	if log == nil {
		log = logging.Discard()
	}
	return &DespatchService{
		repo:      r,
		publisher: p,
		metrics:   m,
		log:       log,
		synth:     ubl.NewSynthesizer(),
		renderer:  report.NewRenderer(),
		now:       time.Now,
	}
}

// ParseOrder lee un UBL Order. Los errores son *ubl.MalformedDocumentError.
func (s *DespatchService) ParseOrder(raw string) (*model.ParsedOrder, error) {
	order, err := ubl.ExtractOrder(raw)
	switch ubl.MalformedKindOf(err) {
	case ubl.NotWellFormed:
		s.metrics.OrdersParsed.WithLabelValues(metrics.ParseNotWellFormed).Inc()
	case ubl.MissingRoot:
		s.metrics.OrdersParsed.WithLabelValues(metrics.ParseMissingRoot).Inc()
	default:
		if err == nil {
			s.metrics.OrdersParsed.WithLabelValues(metrics.ParseOK).Inc()
		}
	}
	return order, err
}

// ValidateOverrides rechaza cualquier clave fuera de la lista permitida.
func (s *DespatchService) ValidateOverrides(in map[string]string) (model.Overrides, error) {
	return ValidateOverrides(in)
}

// ValidateOverrides revisa las claves en orden alfabético para que el error
// sea determinista.
func ValidateOverrides(in map[string]string) (model.Overrides, error) {
	keys := make([]string, 0, len(in))
	for k := range in {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if !allowedOverrides[k] {
			return model.Overrides{}, &InvalidOverrideKeyError{Key: k}
		}
	}
	return model.OverridesFromMap(in), nil
}

// Generate sintetiza y guarda el DespatchAdvice de un pedido. La clave del
// documento es el UUID del pedido; un segundo intento con la misma clave
// devuelve ErrDuplicateDocument y el XML generado se descarta.
func (s *DespatchService) Generate(ctx context.Context, order *model.ParsedOrder, inputs map[string]string) (*model.DespatchAdvice, error) {
	if order == nil {
		return nil, ErrMissingOrder
	}
	ov, err := s.ValidateOverrides(inputs)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(order.OrderUUID) == "" {
		return nil, ErrMissingDocumentKey
	}

	// 1. Primero preguntamos si ya existe
	if _, err := s.repo.FindByUUID(ctx, order.OrderUUID); err == nil {
		s.metrics.DuplicatesRejected.Inc()
		return nil, ErrDuplicateDocument
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	// 2. El store decide si hay carrera entre dos generaciones
	doc := &model.DespatchAdvice{
		DocUUID:    order.OrderUUID,
		DespatchID: order.OrderID,
		XML:        s.synth.Synthesize(*order, ov),
	}
	if err := s.repo.Insert(ctx, doc); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			s.metrics.DuplicatesRejected.Inc()
			return nil, ErrDuplicateDocument
		}
		return nil, err
	}

	s.metrics.DespatchGenerated.Inc()
	s.log.WithFields(logrus.Fields{
		logging.FieldDocUUID:    doc.DocUUID,
		logging.FieldDespatchID: doc.DespatchID,
	}).Info("despatch advice generated")

	s.publish(ctx, events.Event{Type: events.TypeGenerated, DocUUID: doc.DocUUID, DespatchID: doc.DespatchID})
	return doc, nil
}

// GenerateFromXML es ParseOrder + Generate. Lo usa el consumer de Rabbit.
func (s *DespatchService) GenerateFromXML(ctx context.Context, raw string, inputs map[string]string) (*model.DespatchAdvice, error) {
	order, err := s.ParseOrder(raw)
	if err != nil {
		return nil, err
	}
	return s.Generate(ctx, order, inputs)
}

func (s *DespatchService) Get(ctx context.Context, docUUID string) (*model.DespatchAdvice, error) {
	doc, err := s.repo.FindByUUID(ctx, docUUID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrDocumentNotFound
	}
	return doc, err
}

func (s *DespatchService) GetXML(ctx context.Context, docUUID string) (string, error) {
	doc, err := s.Get(ctx, docUUID)
	if err != nil {
		return "", err
	}
	return doc.XML, nil
}

func (s *DespatchService) RenderPDF(ctx context.Context, docUUID string) ([]byte, error) {
	xml, err := s.GetXML(ctx, docUUID)
	if err != nil {
		return nil, err
	}
	out, err := s.renderer.RenderXML(xml)
	if err != nil {
		return nil, err
	}
	s.metrics.PDFRendered.Inc()
	return out, nil
}

// Cancel busca por despatchId y marca el documento como cancelado.
// El XML guardado no se modifica.
func (s *DespatchService) Cancel(ctx context.Context, despatchID, reason string) (*model.DespatchAdvice, error) {
	reason = strings.TrimSpace(reason)
	if len([]rune(reason)) < minReasonLen {
		return nil, ErrInvalidReason
	}

	doc, err := s.repo.FindByDespatchID(ctx, despatchID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrDocumentNotFound
	}
	if err != nil {
		return nil, err
	}
	if doc.Cancelled {
		return nil, ErrAlreadyCancelled
	}

	switch err := s.repo.MarkCancelled(ctx, doc.DocUUID, reason); {
	case errors.Is(err, repository.ErrAlreadyCancelled):
		return nil, ErrAlreadyCancelled
	case errors.Is(err, repository.ErrNotFound):
		return nil, ErrDocumentNotFound
	case err != nil:
		return nil, err
	}

	doc.Cancelled = true
	doc.CancellationReason = reason
	doc.UpdatedAt = s.now().UTC()

	s.metrics.Cancellations.Inc()
	s.log.WithFields(logrus.Fields{
		logging.FieldDocUUID:    doc.DocUUID,
		logging.FieldDespatchID: doc.DespatchID,
	}).Info("despatch advice cancelled")

	s.publish(ctx, events.Event{Type: events.TypeCancelled, DocUUID: doc.DocUUID, DespatchID: doc.DespatchID, Reason: reason})
	return doc, nil
}

// publish nunca falla la operación: el documento ya está guardado.
func (s *DespatchService) publish(ctx context.Context, e events.Event) {
	e.At = s.now().UTC()
	if err := s.publisher.Publish(ctx, e); err != nil {
		s.metrics.EventsFailed.Inc()
		s.log.WithError(err).WithFields(logrus.Fields{
			logging.FieldEventType: e.Type,
			logging.FieldDocUUID:   e.DocUUID,
		}).Warn("could not publish event")
	}
}
