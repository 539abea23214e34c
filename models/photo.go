package models

import (
	"slices"
	"time"

	"gorm.io/datatypes"
)

// GeoPoint is where a photo was taken
type GeoPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Photo is a captured or uploaded image attached to a project
type Photo struct {
	ID           int64                           `json:"Id" gorm:"primaryKey;autoIncrement"`
	ProjectID    int64                           `json:"projectId" gorm:"not null;index:idx_photo_project_id"`
	URL          string                          `json:"url" gorm:"type:text;not null"`
	ThumbnailURL string                          `json:"thumbnailUrl" gorm:"type:text"`
	Timestamp    time.Time                       `json:"timestamp"`
	UploadedBy   string                          `json:"uploadedBy" gorm:"type:text"`
	Annotations  datatypes.JSONSlice[Annotation] `json:"annotations"`
	Tags         datatypes.JSONSlice[string]     `json:"tags"`
	Location     *GeoPoint                       `json:"location,omitempty" gorm:"serializer:json"`
	Description  string                          `json:"description,omitempty" gorm:"type:text"`
}

func (p Photo) Key() int64 {
	return p.ID
}

func (p Photo) WithKey(id int64) Photo {
	p.ID = id
	return p
}

func (p Photo) Clone() Photo {
	p.Annotations = slices.Clone(p.Annotations)
	p.Tags = slices.Clone(p.Tags)
	if p.Location != nil {
		loc := *p.Location
		p.Location = &loc
	}
	return p
}

// IsAnnotated reports whether the photo carries at least one annotation
func (p Photo) IsAnnotated() bool {
	return len(p.Annotations) > 0
}

// PhotoPatch carries the fields of a partial photo update
type PhotoPatch struct {
	ProjectID    *int64        `json:"projectId,omitempty"`
	URL          *string       `json:"url,omitempty"`
	ThumbnailURL *string       `json:"thumbnailUrl,omitempty"`
	Timestamp    *time.Time    `json:"timestamp,omitempty"`
	UploadedBy   *string       `json:"uploadedBy,omitempty"`
	Annotations  *[]Annotation `json:"annotations,omitempty"`
	Tags         *[]string     `json:"tags,omitempty"`
	Location     *GeoPoint     `json:"location,omitempty"`
	Description  *string       `json:"description,omitempty"`
}

func (patch PhotoPatch) Apply(p *Photo) {
	if patch.ProjectID != nil {
		p.ProjectID = *patch.ProjectID
	}
	if patch.URL != nil {
		p.URL = *patch.URL
	}
	if patch.ThumbnailURL != nil {
		p.ThumbnailURL = *patch.ThumbnailURL
	}
	if patch.Timestamp != nil {
		p.Timestamp = *patch.Timestamp
	}
	if patch.UploadedBy != nil {
		p.UploadedBy = *patch.UploadedBy
	}
	if patch.Annotations != nil {
		p.Annotations = slices.Clone(datatypes.JSONSlice[Annotation](*patch.Annotations))
	}
	if patch.Tags != nil {
		p.Tags = slices.Clone(datatypes.JSONSlice[string](*patch.Tags))
	}
	if patch.Location != nil {
		loc := *patch.Location
		p.Location = &loc
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
}
