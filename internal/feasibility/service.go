package feasibility

import (
	"context"
	"fmt"
	"time"

	"github.com/abduss/clinstudy/internal/httpx"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type feasibilityStore interface {
	Create(ctx context.Context, in CreateInput) (Feasibility, error)
	Get(ctx context.Context, id uuid.UUID) (Feasibility, error)
	List(ctx context.Context, filter Filter, page httpx.Page) ([]Feasibility, error)
	Update(ctx context.Context, f Feasibility) (Feasibility, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Service implements the feasibility review workflow.
type Service struct {
	store   feasibilityStore
	log     *zap.Logger
	nowFunc func() time.Time
}

// NewService constructs a Service.
func NewService(store feasibilityStore) *Service {
	return &Service{store: store, log: zap.L().Named("feasibility"), nowFunc: time.Now}
}

// Create opens a new feasibility request.
func (s *Service) Create(ctx context.Context, in CreateInput) (Feasibility, error) {
	in.normalize()
	if err := in.Validate(); err != nil {
		return Feasibility{}, err
	}
	return s.store.Create(ctx, in)
}

// Get returns a single feasibility.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Feasibility, error) {
	return s.store.Get(ctx, id)
}

// List returns matching feasibilities; never nil.
func (s *Service) List(ctx context.Context, filter Filter, page httpx.Page) ([]Feasibility, error) {
	out, err := s.store.List(ctx, filter, page)
	if err != nil {
		return nil, fmt.Errorf("list feasibilities: %w", err)
	}
	if out == nil {
		out = []Feasibility{}
	}
	return out, nil
}

// Update applies patch, enforcing the review workflow on status changes.
func (s *Service) Update(ctx context.Context, id uuid.UUID, patch Patch) (Feasibility, error) {
	if err := patch.Validate(); err != nil {
		return Feasibility{}, err
	}

	current, err := s.store.Get(ctx, id)
	if err != nil {
		return Feasibility{}, err
	}
	from := current.Status
	if patch.Status != nil && !canTransition(from, *patch.Status) {
		return Feasibility{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, *patch.Status)
	}

	patch.Apply(&current, s.nowFunc().UTC())

	updated, err := s.store.Update(ctx, current)
	if err != nil {
		return Feasibility{}, err
	}
	if updated.Status != from {
		s.log.Info("feasibility status changed",
			zap.String("feasibility_id", id.String()),
			zap.String("from", string(from)),
			zap.String("to", string(updated.Status)),
		)
	}
	return updated, nil
}

// Delete removes a feasibility.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.store.Delete(ctx, id)
}
