package ubl

import (
	"errors"
	"fmt"
)

// ErrMalformedDocument agrupa los dos tipos de fallo del extractor.
var ErrMalformedDocument = errors.New("malformed document")

type MalformedKind int

const (
	// NotWellFormed: entrada vacía o con errores de sintaxis XML.
	NotWellFormed MalformedKind = iota + 1
	// MissingRoot: XML válido pero sin el elemento raíz esperado.
	MissingRoot
)

func (k MalformedKind) String() string {
	switch k {
	case NotWellFormed:
		return "not_well_formed"
	case MissingRoot:
		return "missing_root"
	default:
		return "unknown"
	}
}

// MalformedDocumentError describe por qué no se pudo leer un documento UBL.
type MalformedDocumentError struct {
	Kind MalformedKind
	Root string
	Err  error
}

func (e *MalformedDocumentError) Error() string {
	switch e.Kind {
	case MissingRoot:
		return fmt.Sprintf("XML is not a valid UBL %s.", e.Root)
	default:
		if e.Err != nil {
			return fmt.Sprintf("XML is not well-formed: %v", e.Err)
		}
		return "XML is not well-formed"
	}
}

func (e *MalformedDocumentError) Unwrap() error {
	return e.Err
}

func (e *MalformedDocumentError) Is(target error) bool {
	return target == ErrMalformedDocument
}

// MalformedKindOf devuelve el tipo de fallo, o 0 si err no es de este paquete.
func MalformedKindOf(err error) MalformedKind {
	var me *MalformedDocumentError
	if errors.As(err, &me) {
		return me.Kind
	}
	return 0
}
