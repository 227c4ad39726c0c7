package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/cockroachdb/pebble"

	"despatch-advice-service/internal/model"
)

var docPrefix = []byte("doc/")

// PebbleDespatchRepository guarda los documentos en un Pebble embebido.
// Clave: doc/<docUUID>, valor: el registro en JSON.
type PebbleDespatchRepository struct {
	db *pebble.DB
	// Pebble no tiene insert condicional: Get+Set van bajo el mismo lock.
	mu sync.Mutex
}

func NewPebbleDespatchRepository(dir string) (*PebbleDespatchRepository, error) {
	d, err := pebble.Open(filepath.Clean(dir), &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("pebble open: %w", err)
	}
	return &PebbleDespatchRepository{db: d}, nil
}

func (p *PebbleDespatchRepository) Close() error { return p.db.Close() }

func docKey(docUUID string) []byte {
	return append(append([]byte(nil), docPrefix...), docUUID...)
}

func (p *PebbleDespatchRepository) Insert(_ context.Context, d *model.DespatchAdvice) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	k := docKey(d.DocUUID)
	if _, err := p.get(k); err == nil {
		return ErrDuplicate
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}

	now := time.Now().UTC()
	if d.CreatedAt.IsZero() {
		d.CreatedAt = now
	}
	d.UpdatedAt = now
	return p.put(k, d)
}

func (p *PebbleDespatchRepository) FindByUUID(_ context.Context, docUUID string) (*model.DespatchAdvice, error) {
	return p.get(docKey(docUUID))
}

// FindByDespatchID recorre todo el keyspace: no hay índice secundario.
// Con varios candidatos gana el de CreatedAt más antiguo.
func (p *PebbleDespatchRepository) FindByDespatchID(_ context.Context, despatchID string) (*model.DespatchAdvice, error) {
	it, err := p.db.NewIter(&pebble.IterOptions{
		LowerBound: docPrefix,
		UpperBound: []byte("doc0"), // '0' es el byte siguiente a '/'
	})
	if err != nil {
		return nil, err
	}
	defer it.Close()

	var found *model.DespatchAdvice
	for it.First(); it.Valid(); it.Next() {
		var d model.DespatchAdvice
		if err := json.Unmarshal(it.Value(), &d); err != nil {
			return nil, fmt.Errorf("decode %s: %w", it.Key(), err)
		}
		if d.DespatchID != despatchID {
			continue
		}
		if found == nil || d.CreatedAt.Before(found.CreatedAt) {
			cp := d
			found = &cp
		}
	}
	if err := it.Error(); err != nil {
		return nil, err
	}
	if found == nil {
		return nil, ErrNotFound
	}
	return found, nil
}

func (p *PebbleDespatchRepository) MarkCancelled(_ context.Context, docUUID, reason string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	k := docKey(docUUID)
	d, err := p.get(k)
	if err != nil {
		return err
	}
	if d.Cancelled {
		return ErrAlreadyCancelled
	}
	d.Cancelled = true
	d.CancellationReason = reason
	d.UpdatedAt = time.Now().UTC()
	return p.put(k, d)
}

func (p *PebbleDespatchRepository) get(k []byte) (*model.DespatchAdvice, error) {
	v, closer, err := p.db.Get(k)
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	defer closer.Close()

	var d model.DespatchAdvice
	if err := json.Unmarshal(v, &d); err != nil {
		return nil, fmt.Errorf("decode %s: %w", k, err)
	}
	return &d, nil
}

func (p *PebbleDespatchRepository) put(k []byte, d *model.DespatchAdvice) error {
	b, err := json.Marshal(d)
	if err != nil {
		return err
	}
	return p.db.Set(k, b, pebble.Sync)
}
