package patient

import (
	"context"
	"fmt"

	"github.com/abduss/clinstudy/internal/httpx"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type patientStore interface {
	Create(ctx context.Context, in CreateInput) (Patient, error)
	Get(ctx context.Context, id uuid.UUID) (Patient, error)
	List(ctx context.Context, filter Filter, page httpx.Page) ([]Patient, error)
	Update(ctx context.Context, p Patient) (Patient, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Service implements patient use cases.
type Service struct {
	store patientStore
	log   *zap.Logger
}

// NewService constructs a Service.
func NewService(store patientStore) *Service {
	return &Service{store: store, log: zap.L().Named("patient")}
}

// Create validates and stores a new patient.
func (s *Service) Create(ctx context.Context, in CreateInput) (Patient, error) {
	in.normalize()
	if err := in.Validate(); err != nil {
		return Patient{}, err
	}

	created, err := s.store.Create(ctx, in)
	if err != nil {
		return Patient{}, err
	}
	s.log.Info("patient screened",
		zap.String("patient_id", created.ID.String()),
		zap.String("study_id", created.StudyID.String()),
	)
	return created, nil
}

// Get returns a single patient.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Patient, error) {
	return s.store.Get(ctx, id)
}

// List returns matching patients; never nil.
func (s *Service) List(ctx context.Context, filter Filter, page httpx.Page) ([]Patient, error) {
	patients, err := s.store.List(ctx, filter, page)
	if err != nil {
		return nil, fmt.Errorf("list patients: %w", err)
	}
	if patients == nil {
		patients = []Patient{}
	}
	return patients, nil
}

// Update applies patch to an existing patient.
func (s *Service) Update(ctx context.Context, id uuid.UUID, patch Patch) (Patient, error) {
	if err := patch.Validate(); err != nil {
		return Patient{}, err
	}

	current, err := s.store.Get(ctx, id)
	if err != nil {
		return Patient{}, err
	}
	previous := current.Status
	patch.Apply(&current)

	updated, err := s.store.Update(ctx, current)
	if err != nil {
		return Patient{}, err
	}
	if updated.Status != previous {
		s.log.Info("patient status changed",
			zap.String("patient_id", id.String()),
			zap.String("from", string(previous)),
			zap.String("to", string(updated.Status)),
		)
	}
	return updated, nil
}

// Delete removes a patient.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.store.Delete(ctx, id)
}
