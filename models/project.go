package models

import (
	"slices"
	"time"

	"gorm.io/datatypes"
)

// ProjectStatus is the lifecycle state of a field project
type ProjectStatus string

const (
	ProjectStatusActive    ProjectStatus = "active"
	ProjectStatusCompleted ProjectStatus = "completed"
	ProjectStatusOnHold    ProjectStatus = "on-hold"
	ProjectStatusCancelled ProjectStatus = "cancelled"
)

// Valid reports whether s is one of the known project statuses
func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectStatusActive, ProjectStatusCompleted, ProjectStatusOnHold, ProjectStatusCancelled:
		return true
	}
	return false
}

// Project represents a documented job site
type Project struct {
	ID          int64                      `json:"Id" gorm:"primaryKey;autoIncrement"`
	Name        string                     `json:"name" gorm:"type:text;not null"`
	ClientName  string                     `json:"clientName" gorm:"type:text"`
	Address     string                     `json:"address" gorm:"type:text"`
	Status      ProjectStatus              `json:"status" gorm:"type:text;not null"`
	StartDate   time.Time                  `json:"startDate"`
	PhotoCount  int                        `json:"photoCount" gorm:"not null"`
	TeamMembers datatypes.JSONSlice[int64] `json:"teamMembers"`
}

func (p Project) Key() int64 {
	return p.ID
}

func (p Project) WithKey(id int64) Project {
	p.ID = id
	return p
}

// Clone returns a copy that shares no slices with p
func (p Project) Clone() Project {
	p.TeamMembers = slices.Clone(p.TeamMembers)
	return p
}

// ProjectPatch carries the fields of a partial project update. Nil fields are left untouched.
type ProjectPatch struct {
	Name        *string        `json:"name,omitempty"`
	ClientName  *string        `json:"clientName,omitempty"`
	Address     *string        `json:"address,omitempty"`
	Status      *ProjectStatus `json:"status,omitempty"`
	StartDate   *time.Time     `json:"startDate,omitempty"`
	PhotoCount  *int           `json:"photoCount,omitempty"`
	TeamMembers *[]int64       `json:"teamMembers,omitempty"`
}

func (patch ProjectPatch) Apply(p *Project) {
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.ClientName != nil {
		p.ClientName = *patch.ClientName
	}
	if patch.Address != nil {
		p.Address = *patch.Address
	}
	if patch.Status != nil {
		p.Status = *patch.Status
	}
	if patch.StartDate != nil {
		p.StartDate = *patch.StartDate
	}
	if patch.PhotoCount != nil {
		p.PhotoCount = *patch.PhotoCount
	}
	if patch.TeamMembers != nil {
		p.TeamMembers = slices.Clone(datatypes.JSONSlice[int64](*patch.TeamMembers))
	}
}
