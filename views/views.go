// Package views assembles the read models behind each page: dashboard, project detail, photo
// viewer, team and reports.
package views

import (
	"context"
	"slices"
	"time"

	"github.com/rpupo63/fieldlens-backend/annotation"
	"github.com/rpupo63/fieldlens-backend/errs"
	"github.com/rpupo63/fieldlens-backend/models"
	"golang.org/x/sync/errgroup"
)

const (
	recentPhotoCount = 6
	recentWindow     = 7 * 24 * time.Hour
)

type ProjectReader interface {
	GetAll(ctx context.Context) ([]models.Project, error)
	GetByID(ctx context.Context, id int64) (models.Project, error)
}

type PhotoReader interface {
	GetAll(ctx context.Context) ([]models.Photo, error)
	GetByID(ctx context.Context, id int64) (models.Photo, error)
	GetByProject(ctx context.Context, projectID int64) ([]models.Photo, error)
}

type TeamReader interface {
	GetAll(ctx context.Context) ([]models.TeamMember, error)
}

type DraftReader interface {
	Get(ctx context.Context, photoID int64) (annotation.Draft, error)
}

// Service builds views from the entity services
type Service struct {
	projects ProjectReader
	photos   PhotoReader
	team     TeamReader
	drafts   DraftReader
	now      func() time.Time
}

func New(projects ProjectReader, photos PhotoReader, team TeamReader, drafts DraftReader) *Service {
	return &Service{
		projects: projects,
		photos:   photos,
		team:     team,
		drafts:   drafts,
		now:      time.Now,
	}
}

type Dashboard struct {
	ActiveProjects    int              `json:"activeProjects"`
	CompletedProjects int              `json:"completedProjects"`
	TotalPhotos       int              `json:"totalPhotos"`
	TotalTeamMembers  int              `json:"totalTeamMembers"`
	RecentPhotos      []models.Photo   `json:"recentPhotos"`
	Projects          []models.Project `json:"projects"`
}

// Dashboard loads projects and photos concurrently. TotalPhotos sums the projects' photo
// counts and TotalTeamMembers counts distinct member ids across projects.
func (s *Service) Dashboard(ctx context.Context) (Dashboard, error) {
	var projects []models.Project
	var photos []models.Photo

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		projects, err = s.projects.GetAll(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		photos, err = s.photos.GetAll(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return Dashboard{}, err
	}

	d := Dashboard{
		Projects:     projects,
		RecentPhotos: photos[:min(recentPhotoCount, len(photos))],
	}
	members := make(map[int64]struct{})
	for _, p := range projects {
		switch p.Status {
		case models.ProjectStatusActive:
			d.ActiveProjects++
		case models.ProjectStatusCompleted:
			d.CompletedProjects++
		}
		d.TotalPhotos += p.PhotoCount
		for _, id := range p.TeamMembers {
			members[id] = struct{}{}
		}
	}
	d.TotalTeamMembers = len(members)
	return d, nil
}

// PhotoFilter selects photos on the project detail page
type PhotoFilter string

const (
	FilterAll       PhotoFilter = "all"
	FilterRecent    PhotoFilter = "recent"
	FilterAnnotated PhotoFilter = "annotated"
)

// ParsePhotoFilter accepts the empty string as all
func ParsePhotoFilter(raw string) (PhotoFilter, error) {
	switch f := PhotoFilter(raw); f {
	case "":
		return FilterAll, nil
	case FilterAll, FilterRecent, FilterAnnotated:
		return f, nil
	default:
		return "", errs.NewInvalidFieldError("filter", "expected all, recent or annotated")
	}
}

type ProjectDetail struct {
	Project    models.Project `json:"project"`
	Photos     []models.Photo `json:"photos"`
	Filter     PhotoFilter    `json:"filter"`
	TotalCount int            `json:"totalCount"`
	Annotated  int            `json:"annotatedCount"`
}

func (s *Service) ProjectDetail(ctx context.Context, projectID int64, filter PhotoFilter) (ProjectDetail, error) {
	var project models.Project
	var photos []models.Photo

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		project, err = s.projects.GetByID(gctx, projectID)
		return err
	})
	g.Go(func() error {
		var err error
		photos, err = s.photos.GetByProject(gctx, projectID)
		return err
	})
	if err := g.Wait(); err != nil {
		return ProjectDetail{}, err
	}

	detail := ProjectDetail{
		Project:    project,
		Filter:     filter,
		TotalCount: len(photos),
		Photos:     make([]models.Photo, 0, len(photos)),
	}
	cutoff := s.now().Add(-recentWindow)
	for _, photo := range photos {
		if photo.IsAnnotated() {
			detail.Annotated++
		}
		switch filter {
		case FilterRecent:
			if !photo.Timestamp.After(cutoff) {
				continue
			}
		case FilterAnnotated:
			if !photo.IsAnnotated() {
				continue
			}
		}
		detail.Photos = append(detail.Photos, photo)
	}
	return detail, nil
}

type PhotoView struct {
	Photo   models.Photo     `json:"photo"`
	Project *models.Project  `json:"project,omitempty"`
	Draft   annotation.Draft `json:"draft"`
}

// Photo returns the photo, its owning project when it still exists, and its annotation draft
func (s *Service) Photo(ctx context.Context, photoID int64) (PhotoView, error) {
	photo, err := s.photos.GetByID(ctx, photoID)
	if err != nil {
		return PhotoView{}, err
	}

	view := PhotoView{Photo: photo}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		project, err := s.projects.GetByID(gctx, photo.ProjectID)
		if errs.IsNotFound(err) {
			return nil
		}
		if err != nil {
			return err
		}
		view.Project = &project
		return nil
	})
	g.Go(func() error {
		var err error
		view.Draft, err = s.drafts.Get(gctx, photoID)
		return err
	})
	if err := g.Wait(); err != nil {
		return PhotoView{}, err
	}
	return view, nil
}

type RoleCount struct {
	Role  models.Role `json:"role"`
	Count int         `json:"count"`
}

type TeamView struct {
	Members        []models.TeamMember `json:"members"`
	Projects       []models.Project    `json:"projects"`
	TotalMembers   int                 `json:"totalMembers"`
	ActiveProjects int                 `json:"activeProjects"`
	Roles          []RoleCount         `json:"roles"`
}

func (s *Service) Team(ctx context.Context) (TeamView, error) {
	var members []models.TeamMember
	var projects []models.Project

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		members, err = s.team.GetAll(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		projects, err = s.projects.GetAll(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return TeamView{}, err
	}

	view := TeamView{
		Members:      members,
		Projects:     projects,
		TotalMembers: len(members),
		Roles:        make([]RoleCount, 0, len(models.Roles)),
	}
	for _, p := range projects {
		if p.Status == models.ProjectStatusActive {
			view.ActiveProjects++
		}
	}
	for _, role := range models.Roles {
		count := 0
		for _, m := range members {
			if m.Role == role {
				count++
			}
		}
		view.Roles = append(view.Roles, RoleCount{Role: role, Count: count})
	}
	return view, nil
}

// sortedByTime returns photos ordered by timestamp, oldest first
func sortedByTime(photos []models.Photo) []models.Photo {
	out := slices.Clone(photos)
	slices.SortStableFunc(out, func(a, b models.Photo) int {
		return a.Timestamp.Compare(b.Timestamp)
	})
	return out
}
