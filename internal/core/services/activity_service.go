package services

import (
	"context"

	"github.com/hearthschool/goaltrack/internal/core/domain"
)

type ActivityService struct {
	repo domain.ActivityRepository
}

func NewActivityService(repo domain.ActivityRepository) *ActivityService {
	return &ActivityService{repo: repo}
}

type CreateActivityInput struct {
	HomeschoolID    string
	Name            string
	TrackPercentage bool
	TrackTime       bool
	TrackCount      bool
}

type UpdateActivityInput struct {
	ID              string
	HomeschoolID    string
	Name            string
	TrackPercentage bool
	TrackTime       bool
	TrackCount      bool
}

func (s *ActivityService) Create(ctx context.Context, input CreateActivityInput) (*domain.Activity, error) {
	activity, err := domain.NewActivity(input.HomeschoolID, input.Name, input.TrackPercentage, input.TrackTime, input.TrackCount)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, activity); err != nil {
		return nil, err
	}

	return activity, nil
}

func (s *ActivityService) GetByID(ctx context.Context, id, homeschoolID string) (*domain.Activity, error) {
	activity, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if activity.HomeschoolID != homeschoolID {
		return nil, domain.ErrActivityNotFound
	}
	return activity, nil
}

func (s *ActivityService) ListByHomeschool(ctx context.Context, homeschoolID string) ([]*domain.Activity, error) {
	return s.repo.ListByHomeschool(ctx, homeschoolID)
}

func (s *ActivityService) Update(ctx context.Context, input UpdateActivityInput) (*domain.Activity, error) {
	activity, err := s.GetByID(ctx, input.ID, input.HomeschoolID)
	if err != nil {
		return nil, err
	}

	if err := activity.Update(input.Name, input.TrackPercentage, input.TrackTime, input.TrackCount); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, activity); err != nil {
		return nil, err
	}

	return activity, nil
}

func (s *ActivityService) Delete(ctx context.Context, id, homeschoolID string) error {
	activity, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if activity.HomeschoolID != homeschoolID {
		return domain.ErrActivityNotFound
	}

	return s.repo.Delete(ctx, id)
}
