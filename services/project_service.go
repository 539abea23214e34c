package services

import (
	"context"
	"strings"
	"time"

	"github.com/rpupo63/fieldlens-backend/database"
	"github.com/rpupo63/fieldlens-backend/errs"
	"github.com/rpupo63/fieldlens-backend/events"
	"github.com/rpupo63/fieldlens-backend/models"
)

type ProjectService struct {
	base
	repo database.ProjectRepo
}

func (s *ProjectService) GetAll(ctx context.Context) (projects []models.Project, err error) {
	defer func(start time.Time) { err = s.observe("getAll", start, err) }(time.Now())

	if err = s.wait(ctx, "list", s.latency.GetAll); err != nil {
		return nil, err
	}
	return s.repo.FindAll(ctx)
}

func (s *ProjectService) GetByID(ctx context.Context, id int64) (project models.Project, err error) {
	defer func(start time.Time) { err = s.observe("getById", start, err) }(time.Now())

	if err = s.wait(ctx, "find", s.latency.GetByID); err != nil {
		return models.Project{}, err
	}
	return s.repo.FindByID(ctx, id)
}

// Create stores a new project. StartDate defaults to now, Status to active, and the photo
// count always starts at zero.
func (s *ProjectService) Create(ctx context.Context, data models.Project) (project models.Project, err error) {
	defer func(start time.Time) { err = s.observe("create", start, err) }(time.Now())

	data.Name = strings.TrimSpace(data.Name)
	if data.Name == "" {
		return models.Project{}, errs.NewMissingRequiredFieldError("name")
	}
	if data.Status == "" {
		data.Status = models.ProjectStatusActive
	}
	if !data.Status.Valid() {
		return models.Project{}, errs.NewInvalidFieldError("status", "unknown project status "+string(data.Status))
	}
	if data.StartDate.IsZero() {
		data.StartDate = time.Now().UTC()
	}
	if data.TeamMembers == nil {
		data.TeamMembers = []int64{}
	}
	data.PhotoCount = 0

	if err = s.wait(ctx, "create", s.latency.CreateProject); err != nil {
		return models.Project{}, err
	}

	project, err = s.repo.Add(ctx, data)
	if err != nil {
		return models.Project{}, err
	}
	s.publish(events.ProjectCreated, project.ID, project.ID, project)
	return project, nil
}

// Update merges the fields present in patch into the stored project
func (s *ProjectService) Update(ctx context.Context, id int64, patch models.ProjectPatch) (project models.Project, err error) {
	defer func(start time.Time) { err = s.observe("update", start, err) }(time.Now())

	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return models.Project{}, errs.NewInvalidFieldError("name", "must not be empty")
	}
	if patch.Status != nil && !patch.Status.Valid() {
		return models.Project{}, errs.NewInvalidFieldError("status", "unknown project status "+string(*patch.Status))
	}
	if patch.PhotoCount != nil && *patch.PhotoCount < 0 {
		return models.Project{}, errs.NewInvalidFieldError("photoCount", "must not be negative")
	}

	if err = s.wait(ctx, "update", s.latency.Update); err != nil {
		return models.Project{}, err
	}

	project, err = s.repo.Update(ctx, id, patch)
	if err != nil {
		return models.Project{}, err
	}
	s.publish(events.ProjectUpdated, project.ID, project.ID, project)
	return project, nil
}

// Delete removes the project. Its photos are left in place.
func (s *ProjectService) Delete(ctx context.Context, id int64) (err error) {
	defer func(start time.Time) { err = s.observe("delete", start, err) }(time.Now())

	if err = s.wait(ctx, "delete", s.latency.Delete); err != nil {
		return err
	}
	if err = s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.publish(events.ProjectDeleted, id, id, nil)
	return nil
}

// adjustPhotoCount adds delta to the project's photo count, never going below zero
func adjustPhotoCount(ctx context.Context, repo database.ProjectRepo, projectID int64, delta int) error {
	_, err := repo.Mutate(ctx, projectID, func(p *models.Project) error {
		p.PhotoCount += delta
		if p.PhotoCount < 0 {
			p.PhotoCount = 0
		}
		return nil
	})
	return err
}
