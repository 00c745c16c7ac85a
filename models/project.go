package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// ProjectNamespace is the blob store namespace project images are written to.
const ProjectNamespace = "projects"

// Project represents a portfolio project managed from the admin area.
// Soft-deleted projects keep their row, technologies and image until purged.
type Project struct {
	ID           uint           `json:"id" db:"id" gorm:"column:id;primaryKey"`
	Name         string         `json:"name" db:"name" gorm:"column:name;type:text;not null;uniqueIndex:idx_projects_name"`
	Description  string         `json:"description" db:"description" gorm:"column:description;type:text;not null"`
	ProjectURL   string         `json:"project_url" db:"project_url" gorm:"column:project_url;type:text;not null"`
	ImageURL     *string        `json:"image_url" db:"image_url" gorm:"column:image_url;type:text"`
	TypeID       *uint          `json:"type_id" db:"type_id" gorm:"column:type_id;index"`
	IsPublished  bool           `json:"is_published" db:"is_published" gorm:"column:is_published;not null;default:false"`
	CreatedAt    time.Time      `json:"created_at" db:"created_at" gorm:"column:created_at"`
	UpdatedAt    time.Time      `json:"updated_at" db:"updated_at" gorm:"column:updated_at"`
	DeletedAt    gorm.DeletedAt `json:"deleted_at" db:"deleted_at" gorm:"column:deleted_at;index"`
	Type         *Type          `json:"type,omitempty" gorm:"foreignKey:TypeID;references:ID;constraint:OnDelete:SET NULL"`
	Technologies []Technology   `json:"technologies,omitempty" gorm:"many2many:project_technology;joinForeignKey:ProjectID;joinReferences:TechnologyID"`
}

// IsTrashed reports whether the project has been soft-deleted.
func (p Project) IsTrashed() bool {
	return p.DeletedAt.Valid
}

// HasUploadedImage reports whether ImageURL points at a blob we stored.
// Seeded projects carry absolute placeholder URLs that must never be deleted.
func (p Project) HasUploadedImage() bool {
	if p.ImageURL == nil || *p.ImageURL == "" {
		return false
	}
	ref := strings.ToLower(*p.ImageURL)
	return !strings.HasPrefix(ref, "http://") && !strings.HasPrefix(ref, "https://")
}

// TechnologyIDs returns the ids of the preloaded technologies.
func (p Project) TechnologyIDs() []uint {
	ids := make([]uint, 0, len(p.Technologies))
	for _, t := range p.Technologies {
		ids = append(ids, t.ID)
	}
	return ids
}
