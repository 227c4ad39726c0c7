// Package logging configura logrus para todo el servicio.
package logging

import (
	"io"
	"strings"

	"github.com/sirupsen/logrus"
)

// Nombres de campo usados en los logs estructurados.
const (
	FieldRequestID     = "request_id"
	FieldMethod        = "method"
	FieldPath          = "path"
	FieldStatus        = "status"
	FieldLatency       = "latency"
	FieldDocUUID       = "doc_uuid"
	FieldDespatchID    = "despatch_id"
	FieldCorrelationID = "correlation_id"
	FieldEventType     = "event_type"
	FieldEmail         = "email"
	FieldComponent     = "component"
)

// New devuelve un logger con el nivel y formato pedidos.
// Un nivel desconocido cae en info; format "json" usa JSONFormatter, cualquier otro texto.
func New(level, format string) *logrus.Logger {
	logger := logrus.New()

	lvl, err := logrus.ParseLevel(strings.ToLower(level))
	if err != nil {
		logger.Warnf("Invalid log level '%s', using 'info'", level)
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)

	if strings.ToLower(format) == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger
}

// Discard es un logger silencioso para tests.
func Discard() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
