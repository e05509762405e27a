package study

import (
	"context"
	"fmt"

	"github.com/abduss/clinstudy/internal/httpx"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type studyStore interface {
	Create(ctx context.Context, in CreateInput) (Study, error)
	Get(ctx context.Context, id uuid.UUID) (Study, error)
	List(ctx context.Context, filter Filter, page httpx.Page) ([]Study, error)
	Update(ctx context.Context, s Study) (Study, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Service implements study use cases.
type Service struct {
	store studyStore
	log   *zap.Logger
}

// NewService constructs a Service.
func NewService(store studyStore) *Service {
	return &Service{store: store, log: zap.L().Named("study")}
}

// Create validates and stores a new study.
func (s *Service) Create(ctx context.Context, in CreateInput) (Study, error) {
	in.normalize()
	if err := in.Validate(); err != nil {
		return Study{}, err
	}

	created, err := s.store.Create(ctx, in)
	if err != nil {
		return Study{}, err
	}
	s.log.Info("study created", zap.String("study_id", created.ID.String()), zap.String("code", created.Code))
	return created, nil
}

// Get returns a single study.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Study, error) {
	return s.store.Get(ctx, id)
}

// List returns matching studies; never nil.
func (s *Service) List(ctx context.Context, filter Filter, page httpx.Page) ([]Study, error) {
	studies, err := s.store.List(ctx, filter, page)
	if err != nil {
		return nil, fmt.Errorf("list studies: %w", err)
	}
	if studies == nil {
		studies = []Study{}
	}
	return studies, nil
}

// Update applies patch to an existing study.
func (s *Service) Update(ctx context.Context, id uuid.UUID, patch Patch) (Study, error) {
	if err := patch.Validate(); err != nil {
		return Study{}, err
	}

	current, err := s.store.Get(ctx, id)
	if err != nil {
		return Study{}, err
	}
	patch.Apply(&current)
	if err := validateDates(current); err != nil {
		return Study{}, err
	}

	return s.store.Update(ctx, current)
}

// Delete removes a study.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info("study deleted", zap.String("study_id", id.String()))
	return nil
}
