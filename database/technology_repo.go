package database

import (
	"context"

	"github.com/rpupo63/portfolio-admin-backend/errs"
	"github.com/rpupo63/portfolio-admin-backend/models"
	"gorm.io/gorm"
)

type TechnologyRepo struct {
	db *gorm.DB
}

func NewTechnologyRepo(db *gorm.DB) *TechnologyRepo {
	return &TechnologyRepo{db}
}

// FindAll returns all technologies ordered by id
func (r *TechnologyRepo) FindAll(ctx context.Context) ([]models.Technology, error) {
	var technologies []models.Technology
	if err := conn(ctx, r.db).Order("id").Find(&technologies).Error; err != nil {
		return nil, errs.NewDatabaseError("find", "technologies", err)
	}
	return technologies, nil
}

// MissingIDs returns the ids in ids that match no technology.
func (r *TechnologyRepo) MissingIDs(ctx context.Context, ids []uint) ([]uint, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var found []uint
	err := conn(ctx, r.db).Model(&models.Technology{}).Where("id IN ?", ids).Pluck("id", &found).Error
	if err != nil {
		return nil, errs.NewDatabaseError("find", "technologies", err)
	}

	existing := make(map[uint]struct{}, len(found))
	for _, id := range found {
		existing[id] = struct{}{}
	}

	var missing []uint
	for _, id := range ids {
		if _, ok := existing[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

// Add inserts a new technology into the database
func (r *TechnologyRepo) Add(ctx context.Context, technology *models.Technology) error {
	if err := conn(ctx, r.db).Create(technology).Error; err != nil {
		return errs.NewDatabaseError("create", "technology", err)
	}
	return nil
}
