package comment

import (
	"context"
	"fmt"
	"strings"

	"github.com/abduss/clinstudy/internal/httpx"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type commentStore interface {
	Create(ctx context.Context, in CreateInput) (Comment, error)
	Get(ctx context.Context, id uuid.UUID) (Comment, error)
	List(ctx context.Context, filter Filter, page httpx.Page) ([]Comment, error)
	UpdateBody(ctx context.Context, id uuid.UUID, body string) (Comment, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Service manages comment threads.
type Service struct {
	store commentStore
	log   *zap.Logger
}

// NewService constructs a Service.
func NewService(store commentStore) *Service {
	return &Service{store: store, log: zap.L().Named("comment")}
}

// Create posts a comment as the given author.
func (s *Service) Create(ctx context.Context, authorID uuid.UUID, in CreateInput) (Comment, error) {
	in.normalize()
	in.AuthorID = authorID
	if err := in.Validate(); err != nil {
		return Comment{}, err
	}
	return s.store.Create(ctx, in)
}

// Get returns a single comment.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Comment, error) {
	return s.store.Get(ctx, id)
}

// List returns matching comments; never nil.
func (s *Service) List(ctx context.Context, filter Filter, page httpx.Page) ([]Comment, error) {
	out, err := s.store.List(ctx, filter, page)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	if out == nil {
		out = []Comment{}
	}
	return out, nil
}

// Update edits the comment body on behalf of actor.
func (s *Service) Update(ctx context.Context, actor Actor, id uuid.UUID, patch Patch) (Comment, error) {
	if err := patch.Validate(); err != nil {
		return Comment{}, err
	}

	current, err := s.store.Get(ctx, id)
	if err != nil {
		return Comment{}, err
	}
	if !actor.canModify(current) {
		return Comment{}, ErrForbidden
	}
	return s.store.UpdateBody(ctx, id, strings.TrimSpace(*patch.Body))
}

// Delete removes a comment on behalf of actor.
func (s *Service) Delete(ctx context.Context, actor Actor, id uuid.UUID) error {
	current, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if !actor.canModify(current) {
		return ErrForbidden
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	if actor.ID != current.AuthorID {
		s.log.Info("comment removed by admin",
			zap.String("comment_id", id.String()),
			zap.String("author_id", current.AuthorID.String()),
			zap.String("admin_id", actor.ID.String()),
		)
	}
	return nil
}
