package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rpupo63/fieldlens-backend/database"
	"github.com/rpupo63/fieldlens-backend/errs"
	"github.com/rpupo63/fieldlens-backend/events"
	"github.com/rpupo63/fieldlens-backend/models"
)

type PhotoService struct {
	base
	repo     database.PhotoRepo
	projects database.ProjectRepo
}

func (s *PhotoService) GetAll(ctx context.Context) (photos []models.Photo, err error) {
	defer func(start time.Time) { err = s.observe("getAll", start, err) }(time.Now())

	if err = s.wait(ctx, "list", s.latency.GetAll); err != nil {
		return nil, err
	}
	return s.repo.FindAll(ctx)
}

// GetByProject lists the photos attached to one project, in store order
func (s *PhotoService) GetByProject(ctx context.Context, projectID int64) (photos []models.Photo, err error) {
	defer func(start time.Time) { err = s.observe("getByProject", start, err) }(time.Now())

	if err = s.wait(ctx, "list", s.latency.GetAll); err != nil {
		return nil, err
	}
	all, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	photos = make([]models.Photo, 0, len(all))
	for _, photo := range all {
		if photo.ProjectID == projectID {
			photos = append(photos, photo)
		}
	}
	return photos, nil
}

func (s *PhotoService) GetByID(ctx context.Context, id int64) (photo models.Photo, err error) {
	defer func(start time.Time) { err = s.observe("getById", start, err) }(time.Now())

	if err = s.wait(ctx, "find", s.latency.GetByID); err != nil {
		return models.Photo{}, err
	}
	return s.repo.FindByID(ctx, id)
}

// Create stores a new photo for an existing project and bumps that project's photo count.
// Timestamp defaults to now and UploadedBy to the acting user.
func (s *PhotoService) Create(ctx context.Context, data models.Photo) (photo models.Photo, err error) {
	defer func(start time.Time) { err = s.observe("create", start, err) }(time.Now())

	if data.ProjectID == 0 {
		return models.Photo{}, errs.NewMissingRequiredFieldError("projectId")
	}
	if strings.TrimSpace(data.URL) == "" {
		return models.Photo{}, errs.NewMissingRequiredFieldError("url")
	}
	if data.Timestamp.IsZero() {
		data.Timestamp = time.Now().UTC()
	}
	if data.UploadedBy == "" {
		data.UploadedBy = UserFromContext(ctx, DefaultUserName)
	}
	if data.Annotations == nil {
		data.Annotations = []models.Annotation{}
	}
	if data.Tags == nil {
		data.Tags = []string{}
	}

	if err = s.wait(ctx, "create", s.latency.CreatePhoto); err != nil {
		return models.Photo{}, err
	}

	if err = s.requireProject(ctx, data.ProjectID); err != nil {
		return models.Photo{}, err
	}

	photo, err = s.repo.Add(ctx, data)
	if err != nil {
		return models.Photo{}, err
	}
	if err := adjustPhotoCount(ctx, s.projects, photo.ProjectID, 1); err != nil {
		s.logger.Warn().Err(err).Int64("projectId", photo.ProjectID).Msg("Failed to increment photo count")
	}

	s.publish(events.PhotoCreated, photo.ID, photo.ProjectID, photo)
	return photo, nil
}

// Update merges the fields present in patch. Moving a photo to another project moves its
// contribution to the photo counts as well.
func (s *PhotoService) Update(ctx context.Context, id int64, patch models.PhotoPatch) (photo models.Photo, err error) {
	defer func(start time.Time) { err = s.observe("update", start, err) }(time.Now())

	if patch.URL != nil && strings.TrimSpace(*patch.URL) == "" {
		return models.Photo{}, errs.NewInvalidFieldError("url", "must not be empty")
	}
	if patch.ProjectID != nil && *patch.ProjectID == 0 {
		return models.Photo{}, errs.NewInvalidFieldError("projectId", "must reference a project")
	}

	if err = s.wait(ctx, "update", s.latency.Update); err != nil {
		return models.Photo{}, err
	}

	var previousProject int64
	if patch.ProjectID != nil {
		current, err := s.repo.FindByID(ctx, id)
		if err != nil {
			return models.Photo{}, err
		}
		previousProject = current.ProjectID
		if previousProject != *patch.ProjectID {
			if err := s.requireProject(ctx, *patch.ProjectID); err != nil {
				return models.Photo{}, err
			}
		}
	}

	photo, err = s.repo.Update(ctx, id, patch)
	if err != nil {
		return models.Photo{}, err
	}

	if previousProject != 0 && previousProject != photo.ProjectID {
		if err := adjustPhotoCount(ctx, s.projects, previousProject, -1); err != nil && !errs.IsNotFound(err) {
			s.logger.Warn().Err(err).Int64("projectId", previousProject).Msg("Failed to decrement photo count")
		}
		if err := adjustPhotoCount(ctx, s.projects, photo.ProjectID, 1); err != nil {
			s.logger.Warn().Err(err).Int64("projectId", photo.ProjectID).Msg("Failed to increment photo count")
		}
	}

	eventType := events.PhotoUpdated
	if patch.Annotations != nil {
		eventType = events.AnnotationsSaved
	}
	s.publish(eventType, photo.ID, photo.ProjectID, photo)
	return photo, nil
}

// Delete removes the photo and decrements its project's photo count
func (s *PhotoService) Delete(ctx context.Context, id int64) (err error) {
	defer func(start time.Time) { err = s.observe("delete", start, err) }(time.Now())

	if err = s.wait(ctx, "delete", s.latency.Delete); err != nil {
		return err
	}

	photo, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err = s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if err := adjustPhotoCount(ctx, s.projects, photo.ProjectID, -1); err != nil && !errs.IsNotFound(err) {
		s.logger.Warn().Err(err).Int64("projectId", photo.ProjectID).Msg("Failed to decrement photo count")
	}

	s.publish(events.PhotoDeleted, id, photo.ProjectID, nil)
	return nil
}

func (s *PhotoService) requireProject(ctx context.Context, projectID int64) error {
	if _, err := s.projects.FindByID(ctx, projectID); err != nil {
		if errs.IsNotFound(err) {
			return errs.NewInvalidFieldError("projectId", fmt.Sprintf("project %d does not exist", projectID))
		}
		return err
	}
	return nil
}
