package repository

import "errors"

var (
	ErrNotFound         = errors.New("documento no encontrado")
	ErrDuplicate        = errors.New("ya existe un documento con esa clave")
	ErrAlreadyCancelled = errors.New("el documento ya estaba cancelado")
)
