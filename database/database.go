package database

import (
	"github.com/rpupo63/fieldlens-backend/fixtures"
	"github.com/rpupo63/fieldlens-backend/models"
	"gorm.io/gorm"
)

type Database struct {
	projectRepo    ProjectRepo
	photoRepo      PhotoRepo
	teamMemberRepo TeamMemberRepo
}

// New wires already constructed repositories together
func New(projects ProjectRepo, photos PhotoRepo, teamMembers TeamMemberRepo) Database {
	return Database{
		projectRepo:    projects,
		photoRepo:      photos,
		teamMemberRepo: teamMembers,
	}
}

// NewMemory initializes in-memory repositories holding copies of seed
func NewMemory(seed fixtures.Seed) (Database, error) {
	projects, err := NewMemoryRepo[models.Project, models.ProjectPatch]("project", seed.Projects)
	if err != nil {
		return Database{}, err
	}
	photos, err := NewMemoryRepo[models.Photo, models.PhotoPatch]("photo", seed.Photos)
	if err != nil {
		return Database{}, err
	}
	members, err := NewMemoryRepo[models.TeamMember, models.TeamMemberPatch]("team member", seed.TeamMembers)
	if err != nil {
		return Database{}, err
	}
	return New(projects, photos, members), nil
}

// NewGorm initializes GORM backed repositories sharing one connection
func NewGorm(db *gorm.DB) Database {
	return New(
		NewGormRepo[models.Project, models.ProjectPatch](db, "project"),
		NewGormRepo[models.Photo, models.PhotoPatch](db, "photo"),
		NewGormRepo[models.TeamMember, models.TeamMemberPatch](db, "team member"),
	)
}

// Accessor methods for each repository

func (d Database) ProjectRepo() ProjectRepo {
	return d.projectRepo
}

func (d Database) PhotoRepo() PhotoRepo {
	return d.photoRepo
}

func (d Database) TeamMemberRepo() TeamMemberRepo {
	return d.teamMemberRepo
}
