package database

import (
	"context"

	"github.com/rpupo63/portfolio-admin-backend/errs"
	"github.com/rpupo63/portfolio-admin-backend/models"
	"gorm.io/gorm"
)

type TypeRepo struct {
	db *gorm.DB
}

func NewTypeRepo(db *gorm.DB) *TypeRepo {
	return &TypeRepo{db}
}

// FindAll returns all project types ordered by id
func (r *TypeRepo) FindAll(ctx context.Context) ([]models.Type, error) {
	var types []models.Type
	if err := conn(ctx, r.db).Order("id").Find(&types).Error; err != nil {
		return nil, errs.NewDatabaseError("find", "types", err)
	}
	return types, nil
}

func (r *TypeRepo) Exists(ctx context.Context, id uint) (bool, error) {
	var count int64
	if err := conn(ctx, r.db).Model(&models.Type{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, errs.NewDatabaseError("find", "type", err)
	}
	return count > 0, nil
}

// Add inserts a new type into the database
func (r *TypeRepo) Add(ctx context.Context, t *models.Type) error {
	if err := conn(ctx, r.db).Create(t).Error; err != nil {
		return errs.NewDatabaseError("create", "type", err)
	}
	return nil
}
