package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/rpupo63/portfolio-admin-backend/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ProjectStore persists projects and their technology pivot rows.
type ProjectStore interface {
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error

	Create(ctx context.Context, project *models.Project) error
	Update(ctx context.Context, project *models.Project) error
	FindByID(ctx context.Context, id uint, includeTrashed bool) (*models.Project, error)
	FindTrashedByID(ctx context.Context, id uint) (*models.Project, error)
	ListActive(ctx context.Context, filter models.StatusFilter, page, pageSize int) (*models.ProjectPage, error)
	ListTrashed(ctx context.Context, page, pageSize int) (*models.ProjectPage, error)
	SoftDelete(ctx context.Context, id uint) error
	Restore(ctx context.Context, id uint) error
	Purge(ctx context.Context, id uint) error
	NameTaken(ctx context.Context, name string, excludeID uint) (bool, error)

	TechnologyIDs(ctx context.Context, id uint) ([]uint, error)
	Attach(ctx context.Context, id uint, technologyIDs []uint) error
	Sync(ctx context.Context, id uint, technologyIDs []uint) error
	DetachAll(ctx context.Context, id uint) error
}

type TechnologyStore interface {
	FindAll(ctx context.Context) ([]models.Technology, error)
	MissingIDs(ctx context.Context, ids []uint) ([]uint, error)
}

type TypeStore interface {
	FindAll(ctx context.Context) ([]models.Type, error)
	Exists(ctx context.Context, id uint) (bool, error)
}

// BlobStore keeps uploaded files addressed by opaque references.
type BlobStore interface {
	Put(ctx context.Context, namespace string, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, ref string) error
}

type ResultKind string

const (
	ResultSuccess ResultKind = "success"
	ResultError   ResultKind = "error"
)

// Result is the human readable outcome shown to the operator.
type Result struct {
	Message string     `json:"message"`
	Kind    ResultKind `json:"type"`
}

func success(format string, args ...any) Result {
	return Result{Message: fmt.Sprintf(format, args...), Kind: ResultSuccess}
}

// Failure wraps an error for display.
func Failure(err error) Result {
	return Result{Message: err.Error(), Kind: ResultError}
}

// ProjectForm is the data a create or edit form needs.
type ProjectForm struct {
	Project               *models.Project     `json:"project"`
	Types                 []models.Type       `json:"types"`
	Technologies          []models.Technology `json:"technologies"`
	SelectedTechnologyIDs []uint              `json:"project_technologies"`
}

// ProjectService owns the project lifecycle: create, update, trash,
// restore, purge and publication. Image blobs and technology links are only
// cleaned up on purge so that a restore never has to rebuild them.
type ProjectService struct {
	logger       zerolog.Logger
	projects     ProjectStore
	technologies TechnologyStore
	types        TypeStore
	blobs        BlobStore
	mails        MailQueue
	validator    *ProjectValidator
	frontendURL  string
}

func NewProjectService(projects ProjectStore, technologies TechnologyStore, types TypeStore, blobs BlobStore, mails MailQueue, frontendURL string) *ProjectService {
	return &ProjectService{
		logger:       log.With().Str("serviceName", "projectService").Logger(),
		projects:     projects,
		technologies: technologies,
		types:        types,
		blobs:        blobs,
		mails:        mails,
		validator:    NewProjectValidator(projects, technologies, types),
		frontendURL:  frontendURL,
	}
}

func displayName(p *models.Project) string {
	return strings.ToUpper(p.Name)
}

// List returns active projects, most recently updated first.
func (s *ProjectService) List(ctx context.Context, statusFilter string, page int) (*models.ProjectPage, error) {
	filter := models.ParseStatusFilter(statusFilter)
	result, err := s.projects.ListActive(ctx, filter, models.NormalizePage(page), models.DefaultPageSize)
	if err != nil {
		return nil, err
	}
	result.Filter = filter
	return result, nil
}

// ListTrashed returns soft-deleted projects, most recently deleted first.
func (s *ProjectService) ListTrashed(ctx context.Context, page int) (*models.ProjectPage, error) {
	return s.projects.ListTrashed(ctx, models.NormalizePage(page), models.DefaultPageSize)
}

// Get returns a project whether or not it is trashed.
func (s *ProjectService) Get(ctx context.Context, id uint) (*models.Project, error) {
	return s.projects.FindByID(ctx, id, true)
}

// Form loads the selectable types and technologies, plus the project being
// edited when id is not nil.
func (s *ProjectService) Form(ctx context.Context, id *uint) (*ProjectForm, error) {
	types, err := s.types.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	technologies, err := s.technologies.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	form := &ProjectForm{
		Project:               &models.Project{},
		Types:                 types,
		Technologies:          technologies,
		SelectedTechnologyIDs: []uint{},
	}
	if id == nil {
		return form, nil
	}

	project, err := s.projects.FindByID(ctx, *id, true)
	if err != nil {
		return nil, err
	}
	selected, err := s.projects.TechnologyIDs(ctx, project.ID)
	if err != nil {
		return nil, err
	}
	form.Project = project
	if selected != nil {
		form.SelectedTechnologyIDs = selected
	}
	return form, nil
}

// Create validates in, stores its image and inserts the project together
// with its technologies.
func (s *ProjectService) Create(ctx context.Context, in ProjectInput) (*models.Project, Result, error) {
	valid, err := s.validator.Validate(ctx, in, 0)
	if err != nil {
		return nil, Result{}, err
	}

	project := &models.Project{}
	valid.apply(project)

	imageRef, err := s.storeImage(ctx, valid.Image)
	if err != nil {
		return nil, Result{}, err
	}
	if imageRef != "" {
		project.ImageURL = &imageRef
	}

	err = s.projects.Transaction(ctx, func(ctx context.Context) error {
		if err := s.projects.Create(ctx, project); err != nil {
			return err
		}
		return s.projects.Attach(ctx, project.ID, valid.TechnologyIDs)
	})
	if err != nil {
		s.discardImage(ctx, imageRef)
		return nil, Result{}, err
	}

	created, err := s.projects.FindByID(ctx, project.ID, false)
	if err != nil {
		return nil, Result{}, err
	}

	s.logger.Info().Uint("projectID", created.ID).Str("name", created.Name).Msg("Project created")
	return created, success("Project %q has been created successfully", displayName(created)), nil
}

// Update validates in against the active project id and applies it. A new
// image replaces the previous uploaded one; the technology set becomes
// exactly in.TechnologyIDs.
func (s *ProjectService) Update(ctx context.Context, id uint, in ProjectInput) (*models.Project, Result, error) {
	project, err := s.projects.FindByID(ctx, id, false)
	if err != nil {
		return nil, Result{}, err
	}

	valid, err := s.validator.Validate(ctx, in, project.ID)
	if err != nil {
		return nil, Result{}, err
	}

	previousImage := replacedImage(project, valid.Image)

	imageRef, err := s.storeImage(ctx, valid.Image)
	if err != nil {
		return nil, Result{}, err
	}

	valid.apply(project)
	if imageRef != "" {
		project.ImageURL = &imageRef
	}
	project.Type = nil
	project.Technologies = nil

	err = s.projects.Transaction(ctx, func(ctx context.Context) error {
		if err := s.projects.Update(ctx, project); err != nil {
			return err
		}
		return s.syncTechnologies(ctx, project.ID, valid.TechnologyIDs)
	})
	if err != nil {
		s.discardImage(ctx, imageRef)
		return nil, Result{}, err
	}

	s.releaseImage(ctx, previousImage)

	updated, err := s.projects.FindByID(ctx, project.ID, false)
	if err != nil {
		return nil, Result{}, err
	}

	s.logger.Info().Uint("projectID", updated.ID).Msg("Project updated")
	return updated, success("Project %q has been updated successfully", displayName(updated)), nil
}

// Delete moves an active project to the trash. Its image and technologies
// stay untouched.
func (s *ProjectService) Delete(ctx context.Context, id uint) (Result, error) {
	project, err := s.projects.FindByID(ctx, id, false)
	if err != nil {
		return Result{}, err
	}
	if err := s.projects.SoftDelete(ctx, project.ID); err != nil {
		return Result{}, err
	}

	s.logger.Info().Uint("projectID", project.ID).Msg("Project trashed")
	return success("Project %q has been moved to the trash", displayName(project)), nil
}

// Restore brings a trashed project back.
func (s *ProjectService) Restore(ctx context.Context, id uint) (*models.Project, Result, error) {
	project, err := s.projects.FindTrashedByID(ctx, id)
	if err != nil {
		return nil, Result{}, err
	}
	if err := s.projects.Restore(ctx, project.ID); err != nil {
		return nil, Result{}, err
	}

	restored, err := s.projects.FindByID(ctx, project.ID, false)
	if err != nil {
		return nil, Result{}, err
	}

	s.logger.Info().Uint("projectID", restored.ID).Msg("Project restored")
	return restored, success("Project %q has been restored successfully", displayName(restored)), nil
}

// Purge permanently removes a trashed project, its technology links and its
// uploaded image.
func (s *ProjectService) Purge(ctx context.Context, id uint) (Result, error) {
	project, err := s.projects.FindTrashedByID(ctx, id)
	if err != nil {
		return Result{}, err
	}

	err = s.projects.Transaction(ctx, func(ctx context.Context) error {
		if err := s.detachAll(ctx, project.ID); err != nil {
			return err
		}
		return s.projects.Purge(ctx, project.ID)
	})
	if err != nil {
		return Result{}, err
	}

	if project.HasUploadedImage() {
		s.releaseImage(ctx, *project.ImageURL)
	}

	s.logger.Info().Uint("projectID", project.ID).Msg("Project purged")
	return success("Project %q has been permanently deleted", displayName(project)), nil
}

// TogglePublish flips the publication state of an active project. Publishing
// queues one notification to the operator; moving to drafts sends nothing.
func (s *ProjectService) TogglePublish(ctx context.Context, id uint, operator models.Operator) (*models.Project, Result, error) {
	project, err := s.projects.FindByID(ctx, id, false)
	if err != nil {
		return nil, Result{}, err
	}

	project.IsPublished = !project.IsPublished
	if err := s.projects.Update(ctx, project); err != nil {
		return nil, Result{}, err
	}

	if !project.IsPublished {
		s.logger.Info().Uint("projectID", project.ID).Msg("Project moved to drafts")
		return project, success("Project %q has been moved to drafts.", displayName(project)), nil
	}

	s.notifyPublished(ctx, project, operator)
	s.logger.Info().Uint("projectID", project.ID).Str("operatorID", operator.ID).Msg("Project published")
	return project, success("Project %q has been published successfully.", displayName(project)), nil
}
