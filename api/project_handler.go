package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rpupo63/portfolio-admin-backend/errs"
	"github.com/rpupo63/portfolio-admin-backend/models"
	"github.com/rpupo63/portfolio-admin-backend/services"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// projectManager is the project lifecycle as the handlers see it.
type projectManager interface {
	List(ctx context.Context, statusFilter string, page int) (*models.ProjectPage, error)
	ListTrashed(ctx context.Context, page int) (*models.ProjectPage, error)
	Get(ctx context.Context, id uint) (*models.Project, error)
	Form(ctx context.Context, id *uint) (*services.ProjectForm, error)
	Create(ctx context.Context, in services.ProjectInput) (*models.Project, services.Result, error)
	Update(ctx context.Context, id uint, in services.ProjectInput) (*models.Project, services.Result, error)
	Delete(ctx context.Context, id uint) (services.Result, error)
	Restore(ctx context.Context, id uint) (*models.Project, services.Result, error)
	Purge(ctx context.Context, id uint) (services.Result, error)
	TogglePublish(ctx context.Context, id uint, operator models.Operator) (*models.Project, services.Result, error)
}

type projectHandler struct {
	responder      Responder
	logger         zerolog.Logger
	projects       projectManager
	maxUploadBytes int64
}

func newProjectHandler(projects projectManager, maxUploadBytes int64) projectHandler {
	logger := log.With().Str("handlerName", "projectHandler").Logger()
	if maxUploadBytes <= 0 {
		maxUploadBytes = defaultMaxUploadBytes
	}

	return projectHandler{
		responder:      NewResponder(logger),
		logger:         logger,
		projects:       projects,
		maxUploadBytes: maxUploadBytes,
	}
}

func projectIDParam(r *http.Request) (uint, error) {
	raw := chi.URLParam(r, "projectID")
	if raw == "" {
		return 0, errs.NewBadRequestError("missing projectID")
	}
	id, err := strconv.ParseUint(raw, 10, 0)
	if err != nil || id == 0 {
		return 0, errs.NewBadRequestError("invalid projectID")
	}
	return uint(id), nil
}

func pageParam(r *http.Request) int {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil {
		return 1
	}
	return models.NormalizePage(page)
}

// statusFilterParam reads status-filter, falling back to status.
func statusFilterParam(r *http.Request) string {
	query := r.URL.Query()
	if query.Has("status-filter") {
		return query.Get("status-filter")
	}
	return query.Get("status")
}

// listProjects handles GET /projects?status-filter=published|draft&page=N
func (h projectHandler) listProjects() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := h.projects.List(r.Context(), statusFilterParam(r), pageParam(r))
		if err != nil {
			h.responder.WriteError(w, errs.NewDatabaseError("list", "projects", err))
			return
		}
		h.responder.WriteJSON(w, page)
	}
}

// listTrashedProjects handles GET /projects/trash?page=N
func (h projectHandler) listTrashedProjects() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := h.projects.ListTrashed(r.Context(), pageParam(r))
		if err != nil {
			h.responder.WriteError(w, errs.NewDatabaseError("list", "trashed projects", err))
			return
		}
		h.responder.WriteJSON(w, page)
	}
}

// getProject handles GET /projects/{projectID}, trashed projects included.
func (h projectHandler) getProject() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := projectIDParam(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		project, err := h.projects.Get(r.Context(), id)
		if err != nil {
			h.responder.WriteError(w, errs.NewDatabaseError("find", "project", err))
			return
		}
		h.responder.WriteJSON(w, project)
	}
}

// createForm handles GET /projects/create
func (h projectHandler) createForm() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		form, err := h.projects.Form(r.Context(), nil)
		if err != nil {
			h.responder.WriteError(w, errs.NewDatabaseError("load", "project form", err))
			return
		}
		h.responder.WriteJSON(w, form)
	}
}

// editForm handles GET /projects/{projectID}/edit
func (h projectHandler) editForm() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := projectIDParam(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		form, err := h.projects.Form(r.Context(), &id)
		if err != nil {
			h.responder.WriteError(w, errs.NewDatabaseError("load", "project form", err))
			return
		}
		h.responder.WriteJSON(w, form)
	}
}

// createProject handles POST /projects
func (h projectHandler) createProject() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		in, err := decodeProjectForm(w, r, h.maxUploadBytes)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		project, result, err := h.projects.Create(r.Context(), in)
		if err != nil {
			h.writeMutationError(w, "create", err)
			return
		}
		h.responder.WriteResult(w, http.StatusCreated, result, project)
	}
}

// updateProject handles PUT /projects/{projectID}
func (h projectHandler) updateProject() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := projectIDParam(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		in, err := decodeProjectForm(w, r, h.maxUploadBytes)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		project, result, err := h.projects.Update(r.Context(), id, in)
		if err != nil {
			h.writeMutationError(w, "update", err)
			return
		}
		h.responder.WriteResult(w, http.StatusOK, result, project)
	}
}

// deleteProject handles DELETE /projects/{projectID} (soft delete)
func (h projectHandler) deleteProject() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := projectIDParam(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		result, err := h.projects.Delete(r.Context(), id)
		if err != nil {
			h.writeMutationError(w, "delete", err)
			return
		}
		h.responder.WriteResult(w, http.StatusOK, result, nil)
	}
}

// restoreProject handles PATCH /projects/trash/{projectID}/restore
func (h projectHandler) restoreProject() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := projectIDParam(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		project, result, err := h.projects.Restore(r.Context(), id)
		if err != nil {
			h.writeMutationError(w, "restore", err)
			return
		}
		h.responder.WriteResult(w, http.StatusOK, result, project)
	}
}

// purgeProject handles DELETE /projects/trash/{projectID}
func (h projectHandler) purgeProject() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := projectIDParam(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		result, err := h.projects.Purge(r.Context(), id)
		if err != nil {
			h.writeMutationError(w, "purge", err)
			return
		}
		h.responder.WriteResult(w, http.StatusOK, result, nil)
	}
}

// togglePublish handles PATCH /projects/{projectID}/toggle
func (h projectHandler) togglePublish() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := projectIDParam(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		operator, ok := ctxGetOperator(r.Context())
		if !ok {
			h.responder.WriteError(w, errs.Unauthorized)
			return
		}

		project, result, err := h.projects.TogglePublish(r.Context(), id, operator)
		if err != nil {
			h.writeMutationError(w, "toggle publication of", err)
			return
		}
		h.responder.WriteResult(w, http.StatusOK, result, project)
	}
}

// writeMutationError keeps validation failures as they are and classifies
// everything else as a persistence error.
func (h projectHandler) writeMutationError(w http.ResponseWriter, operation string, err error) {
	if errs.IsValidationError(err) {
		h.responder.WriteError(w, err)
		return
	}
	h.logger.Warn().Err(err).Str("operation", operation).Msg("Project mutation failed")
	h.responder.WriteError(w, errs.NewDatabaseError(operation, "project", err))
}
