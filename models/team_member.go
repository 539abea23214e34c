package models

import (
	"slices"

	"gorm.io/datatypes"
)

// Role is a team member's permission level
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleMember  Role = "member"
	RoleViewer  Role = "viewer"
)

// Roles lists every role in display order
var Roles = []Role{RoleAdmin, RoleManager, RoleMember, RoleViewer}

func (r Role) Valid() bool {
	return slices.Contains(Roles, r)
}

// TeamMember represents a person invited to work on projects
type TeamMember struct {
	ID       int64                      `json:"Id" gorm:"primaryKey;autoIncrement"`
	Name     string                     `json:"name" gorm:"type:text;not null"`
	Email    string                     `json:"email" gorm:"type:text;not null"`
	Role     Role                       `json:"role" gorm:"type:text;not null"`
	Projects datatypes.JSONSlice[int64] `json:"projects"`
	Avatar   *string                    `json:"avatar"`
}

func (m TeamMember) Key() int64 {
	return m.ID
}

func (m TeamMember) WithKey(id int64) TeamMember {
	m.ID = id
	return m
}

func (m TeamMember) Clone() TeamMember {
	m.Projects = slices.Clone(m.Projects)
	if m.Avatar != nil {
		avatar := *m.Avatar
		m.Avatar = &avatar
	}
	return m
}

// TeamMemberPatch carries the fields of a partial team member update
type TeamMemberPatch struct {
	Name     *string  `json:"name,omitempty"`
	Email    *string  `json:"email,omitempty"`
	Role     *Role    `json:"role,omitempty"`
	Projects *[]int64 `json:"projects,omitempty"`
	Avatar   *string  `json:"avatar,omitempty"`
}

func (patch TeamMemberPatch) Apply(m *TeamMember) {
	if patch.Name != nil {
		m.Name = *patch.Name
	}
	if patch.Email != nil {
		m.Email = *patch.Email
	}
	if patch.Role != nil {
		m.Role = *patch.Role
	}
	if patch.Projects != nil {
		m.Projects = slices.Clone(datatypes.JSONSlice[int64](*patch.Projects))
	}
	if patch.Avatar != nil {
		avatar := *patch.Avatar
		m.Avatar = &avatar
	}
}
