package visit

import (
	"context"
	"fmt"
	"time"

	"github.com/abduss/clinstudy/internal/httpx"
	"github.com/google/uuid"
)

type visitStore interface {
	Create(ctx context.Context, in CreateInput) (Visit, error)
	Get(ctx context.Context, id uuid.UUID) (Visit, error)
	List(ctx context.Context, filter Filter, page httpx.Page) ([]Visit, error)
	Update(ctx context.Context, v Visit) (Visit, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Service implements visit scheduling use cases.
type Service struct {
	store   visitStore
	nowFunc func() time.Time
}

// NewService constructs a Service.
func NewService(store visitStore) *Service {
	return &Service{store: store, nowFunc: time.Now}
}

// Create schedules a visit.
func (s *Service) Create(ctx context.Context, in CreateInput) (Visit, error) {
	now := s.nowFunc().UTC()
	in.normalize(now)
	if err := in.Validate(); err != nil {
		return Visit{}, err
	}
	if err := validateVisit(Visit{Status: in.Status, CompletedAt: in.CompletedAt}, now); err != nil {
		return Visit{}, err
	}
	return s.store.Create(ctx, in)
}

// Get returns a single visit.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Visit, error) {
	return s.store.Get(ctx, id)
}

// List returns matching visits; never nil.
func (s *Service) List(ctx context.Context, filter Filter, page httpx.Page) ([]Visit, error) {
	visits, err := s.store.List(ctx, filter, page)
	if err != nil {
		return nil, fmt.Errorf("list visits: %w", err)
	}
	if visits == nil {
		visits = []Visit{}
	}
	return visits, nil
}

// Update applies patch to an existing visit.
func (s *Service) Update(ctx context.Context, id uuid.UUID, patch Patch) (Visit, error) {
	if err := patch.Validate(); err != nil {
		return Visit{}, err
	}

	current, err := s.store.Get(ctx, id)
	if err != nil {
		return Visit{}, err
	}

	now := s.nowFunc().UTC()
	patch.Apply(&current, now)
	if err := validateVisit(current, now); err != nil {
		return Visit{}, err
	}
	return s.store.Update(ctx, current)
}

// Delete removes a visit.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.store.Delete(ctx, id)
}
