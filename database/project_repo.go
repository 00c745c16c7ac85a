package database

import (
	"context"
	"errors"

	"github.com/rpupo63/portfolio-admin-backend/errs"
	"github.com/rpupo63/portfolio-admin-backend/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProjectRepo struct {
	db *gorm.DB
}

func NewProjectRepo(db *gorm.DB) *ProjectRepo {
	return &ProjectRepo{db}
}

// Transaction runs fn in a database transaction. Repository calls made with
// the context passed to fn join that transaction.
func (r *ProjectRepo) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return transaction(ctx, r.db, fn)
}

func withRelations(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Type").
		Preload("Technologies", func(db *gorm.DB) *gorm.DB { return db.Order("technologies.id") })
}

// FindByID returns a project by its ID. Trashed projects are only returned
// when includeTrashed is set.
func (r *ProjectRepo) FindByID(ctx context.Context, id uint, includeTrashed bool) (*models.Project, error) {
	q := primary(ctx, r.db)
	if includeTrashed {
		q = q.Unscoped()
	}

	var project models.Project
	if err := withRelations(q).First(&project, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewNotFound("project")
		}
		return nil, errs.NewDatabaseError("find", "project", err)
	}
	return &project, nil
}

// FindTrashedByID returns a project only if it is soft-deleted.
func (r *ProjectRepo) FindTrashedByID(ctx context.Context, id uint) (*models.Project, error) {
	var project models.Project
	err := withRelations(primary(ctx, r.db).Unscoped()).
		Where("deleted_at IS NOT NULL").
		First(&project, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewNotFound("project")
		}
		return nil, errs.NewDatabaseError("find trashed", "project", err)
	}
	return &project, nil
}

// ListActive returns a page of non-trashed projects, most recently updated first.
func (r *ProjectRepo) ListActive(ctx context.Context, filter models.StatusFilter, page, pageSize int) (*models.ProjectPage, error) {
	q := conn(ctx, r.db).Model(&models.Project{})
	if published := filter.Published(); published != nil {
		q = q.Where("is_published = ?", *published)
	}
	return r.paginate(q, "updated_at DESC, id DESC", page, pageSize)
}

// ListTrashed returns a page of soft-deleted projects, most recently deleted first.
func (r *ProjectRepo) ListTrashed(ctx context.Context, page, pageSize int) (*models.ProjectPage, error) {
	q := conn(ctx, r.db).Unscoped().Model(&models.Project{}).Where("deleted_at IS NOT NULL")
	return r.paginate(q, "deleted_at DESC, id DESC", page, pageSize)
}

func (r *ProjectRepo) paginate(q *gorm.DB, order string, page, pageSize int) (*models.ProjectPage, error) {
	page = models.NormalizePage(page)

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, errs.NewDatabaseError("count", "projects", err)
	}

	var projects []models.Project
	err := withRelations(q.Session(&gorm.Session{})).
		Order(order).
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&projects).Error
	if err != nil {
		return nil, errs.NewDatabaseError("list", "projects", err)
	}

	return models.NewProjectPage(projects, page, pageSize, total), nil
}

// NameTaken reports whether any project, trashed or not, other than
// excludeID already uses name.
func (r *ProjectRepo) NameTaken(ctx context.Context, name string, excludeID uint) (bool, error) {
	q := primary(ctx, r.db).Unscoped().Model(&models.Project{}).Where("name = ?", name)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}

	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, errs.NewDatabaseError("check name of", "project", err)
	}
	return count > 0, nil
}

// Create inserts a new project. Technologies are attached separately.
func (r *ProjectRepo) Create(ctx context.Context, project *models.Project) error {
	if err := conn(ctx, r.db).Omit(clause.Associations).Create(project).Error; err != nil {
		return errs.NewDatabaseError("create", "project", err)
	}
	return nil
}

// Update writes every column of an active project. A project trashed or
// purged since it was loaded is reported as not found and left untouched.
func (r *ProjectRepo) Update(ctx context.Context, project *models.Project) error {
	result := conn(ctx, r.db).
		Model(project).
		Select("*").
		Omit(clause.Associations, "id", "created_at", "deleted_at").
		Updates(project)
	if result.Error != nil {
		return errs.NewDatabaseError("update", "project", result.Error)
	}
	if result.RowsAffected == 0 {
		return errs.NewNotFound("project")
	}
	return nil
}

// SoftDelete sets deleted_at on an active project.
func (r *ProjectRepo) SoftDelete(ctx context.Context, id uint) error {
	result := conn(ctx, r.db).Delete(&models.Project{}, id)
	if result.Error != nil {
		return errs.NewDatabaseError("delete", "project", result.Error)
	}
	if result.RowsAffected == 0 {
		return errs.NewNotFound("project")
	}
	return nil
}

// Restore clears deleted_at on a trashed project.
func (r *ProjectRepo) Restore(ctx context.Context, id uint) error {
	result := conn(ctx, r.db).Unscoped().
		Model(&models.Project{}).
		Where("id = ? AND deleted_at IS NOT NULL", id).
		Update("deleted_at", nil)
	if result.Error != nil {
		return errs.NewDatabaseError("restore", "project", result.Error)
	}
	if result.RowsAffected == 0 {
		return errs.NewNotFound("project")
	}
	return nil
}

// Purge removes the row for good, bypassing soft delete.
func (r *ProjectRepo) Purge(ctx context.Context, id uint) error {
	result := conn(ctx, r.db).Unscoped().Delete(&models.Project{}, id)
	if result.Error != nil {
		return errs.NewDatabaseError("purge", "project", result.Error)
	}
	if result.RowsAffected == 0 {
		return errs.NewNotFound("project")
	}
	return nil
}

// TechnologyIDs returns the ids currently attached to a project.
func (r *ProjectRepo) TechnologyIDs(ctx context.Context, id uint) ([]uint, error) {
	var ids []uint
	err := primary(ctx, r.db).Model(&models.ProjectTechnology{}).
		Where("project_id = ?", id).
		Order("technology_id").
		Pluck("technology_id", &ids).Error
	if err != nil {
		return nil, errs.NewDatabaseError("list technologies of", "project", err)
	}
	return ids, nil
}

// Attach adds technologies to a project, ignoring ones already attached.
func (r *ProjectRepo) Attach(ctx context.Context, id uint, technologyIDs []uint) error {
	if len(technologyIDs) == 0 {
		return nil
	}

	rows := make([]models.ProjectTechnology, 0, len(technologyIDs))
	for _, techID := range technologyIDs {
		rows = append(rows, models.ProjectTechnology{ProjectID: id, TechnologyID: techID})
	}

	err := conn(ctx, r.db).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&rows).Error
	if err != nil {
		return errs.NewDatabaseError("attach technologies to", "project", err)
	}
	return nil
}

// Sync makes the project's technologies exactly technologyIDs.
func (r *ProjectRepo) Sync(ctx context.Context, id uint, technologyIDs []uint) error {
	return r.Transaction(ctx, func(ctx context.Context) error {
		q := conn(ctx, r.db).Where("project_id = ?", id)
		if len(technologyIDs) > 0 {
			q = q.Where("technology_id NOT IN ?", technologyIDs)
		}
		if err := q.Delete(&models.ProjectTechnology{}).Error; err != nil {
			return errs.NewDatabaseError("sync technologies of", "project", err)
		}
		return r.Attach(ctx, id, technologyIDs)
	})
}

// DetachAll removes every technology from a project.
func (r *ProjectRepo) DetachAll(ctx context.Context, id uint) error {
	err := conn(ctx, r.db).Where("project_id = ?", id).Delete(&models.ProjectTechnology{}).Error
	if err != nil {
		return errs.NewDatabaseError("detach technologies from", "project", err)
	}
	return nil
}
