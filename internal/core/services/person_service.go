package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/hearthschool/goaltrack/internal/core/domain"
)

type PersonService struct {
	repo domain.PersonRepository
}

func NewPersonService(repo domain.PersonRepository) *PersonService {
	return &PersonService{repo: repo}
}

type CreatePersonInput struct {
	HomeschoolID string
	Name         string
	Role         string
	Email        string
}

func (s *PersonService) Create(ctx context.Context, input CreatePersonInput) (*domain.Person, error) {
	person, err := domain.NewPerson(uuid.NewString(), input.HomeschoolID, input.Name, input.Role, input.Email)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, person); err != nil {
		return nil, err
	}

	return person, nil
}

func (s *PersonService) GetByID(ctx context.Context, id, homeschoolID string) (*domain.Person, error) {
	person, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if person.HomeschoolID != homeschoolID {
		return nil, domain.ErrPersonNotFound
	}
	return person, nil
}

func (s *PersonService) ListByHomeschool(ctx context.Context, homeschoolID string) ([]*domain.Person, error) {
	return s.repo.ListByHomeschool(ctx, homeschoolID)
}

func (s *PersonService) ListByIDs(ctx context.Context, ids []string) ([]*domain.Person, error) {
	return s.repo.ListByIDs(ctx, ids)
}
