package repository

import (
	"context"
	"sync"
	"time"

	"despatch-advice-service/internal/model"
)

// MemoryDespatchRepository guarda los documentos en el proceso. Sirve para
// desarrollo local y tests.
type MemoryDespatchRepository struct {
	mu    sync.RWMutex
	docs  map[string]*model.DespatchAdvice
	order []string // orden de inserción
}

func NewMemoryDespatchRepository() *MemoryDespatchRepository {
	return &MemoryDespatchRepository{docs: map[string]*model.DespatchAdvice{}}
}

func (m *MemoryDespatchRepository) Insert(_ context.Context, d *model.DespatchAdvice) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.docs[d.DocUUID]; ok {
		return ErrDuplicate
	}
	now := time.Now().UTC()
	if d.CreatedAt.IsZero() {
		d.CreatedAt = now
	}
	d.UpdatedAt = now

	cp := *d
	m.docs[d.DocUUID] = &cp
	m.order = append(m.order, d.DocUUID)
	return nil
}

func (m *MemoryDespatchRepository) FindByUUID(_ context.Context, docUUID string) (*model.DespatchAdvice, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	d, ok := m.docs[docUUID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (m *MemoryDespatchRepository) FindByDespatchID(_ context.Context, despatchID string) (*model.DespatchAdvice, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	// Igual que en Mongo: gana el más antiguo, a igualdad el primero insertado
	var found *model.DespatchAdvice
	for _, id := range m.order {
		d := m.docs[id]
		if d.DespatchID != despatchID {
			continue
		}
		if found == nil || d.CreatedAt.Before(found.CreatedAt) {
			found = d
		}
	}
	if found == nil {
		return nil, ErrNotFound
	}
	cp := *found
	return &cp, nil
}

func (m *MemoryDespatchRepository) MarkCancelled(_ context.Context, docUUID, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	d, ok := m.docs[docUUID]
	if !ok {
		return ErrNotFound
	}
	if d.Cancelled {
		return ErrAlreadyCancelled
	}
	d.Cancelled = true
	d.CancellationReason = reason
	d.UpdatedAt = time.Now().UTC()
	return nil
}

type MemoryUserRepository struct {
	mu      sync.RWMutex
	byEmail map[string]*model.User
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{byEmail: map[string]*model.User{}}
}

func (m *MemoryUserRepository) Create(_ context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byEmail[u.Email]; ok {
		return ErrDuplicate
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	cp := *u
	m.byEmail[u.Email] = &cp
	return nil
}

func (m *MemoryUserRepository) FindByEmail(_ context.Context, email string) (*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.byEmail[email]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}
