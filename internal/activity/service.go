package activity

import (
	"context"
	"fmt"

	"github.com/abduss/clinstudy/internal/httpx"
	"github.com/google/uuid"
)

type activityStore interface {
	Create(ctx context.Context, in CreateInput) (Activity, error)
	Get(ctx context.Context, id uuid.UUID) (Activity, error)
	List(ctx context.Context, filter Filter, page httpx.Page) ([]Activity, error)
	Update(ctx context.Context, a Activity) (Activity, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Service implements activity use cases.
type Service struct {
	store activityStore
}

// NewService constructs a Service.
func NewService(store activityStore) *Service {
	return &Service{store: store}
}

// Create validates and stores a new activity.
func (s *Service) Create(ctx context.Context, in CreateInput) (Activity, error) {
	in.normalize()
	if err := in.Validate(); err != nil {
		return Activity{}, err
	}
	return s.store.Create(ctx, in)
}

// Get returns a single activity.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Activity, error) {
	return s.store.Get(ctx, id)
}

// List returns matching activities; never nil.
func (s *Service) List(ctx context.Context, filter Filter, page httpx.Page) ([]Activity, error) {
	activities, err := s.store.List(ctx, filter, page)
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	if activities == nil {
		activities = []Activity{}
	}
	return activities, nil
}

// Update applies patch to an existing activity.
func (s *Service) Update(ctx context.Context, id uuid.UUID, patch Patch) (Activity, error) {
	if err := patch.Validate(); err != nil {
		return Activity{}, err
	}

	current, err := s.store.Get(ctx, id)
	if err != nil {
		return Activity{}, err
	}
	patch.Apply(&current)
	return s.store.Update(ctx, current)
}

// Delete removes an activity.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.store.Delete(ctx, id)
}
