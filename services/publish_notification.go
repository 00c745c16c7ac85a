package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/rpupo63/portfolio-admin-backend/models"
)

const PublishedProjectTemplate = "projects/published"

// PublishedProjectMail is the template data of the "project published" mail.
type PublishedProjectMail struct {
	Project models.Project `json:"project"`
	URL     string         `json:"url"`
}

// ProjectFrontendURL joins base and "projects/{id}" with exactly one slash.
func ProjectFrontendURL(base string, id uint) string {
	return strings.TrimRight(base, "/") + "/projects/" + strconv.FormatUint(uint64(id), 10)
}

// notifyPublished queues the publish mail for operator. Queue failures are
// logged and never undo the publication.
func (s *ProjectService) notifyPublished(ctx context.Context, project *models.Project, operator models.Operator) {
	if operator.Email == "" {
		s.logger.Warn().Uint("projectID", project.ID).Str("operatorID", operator.ID).Msg("Operator has no email, skipping publish notification")
		return
	}

	data := PublishedProjectMail{
		Project: *project,
		URL:     ProjectFrontendURL(s.frontendURL, project.ID),
	}
	msg, err := NewMailMessage([]string{operator.Email}, fmt.Sprintf("New project %s published", project.Name), PublishedProjectTemplate, data)
	if err != nil {
		s.logger.Error().Err(err).Uint("projectID", project.ID).Msg("Failed to build publish notification")
		return
	}

	if err := s.mails.Enqueue(ctx, msg); err != nil {
		s.logger.Error().Err(err).Uint("projectID", project.ID).Str("to", operator.Email).Msg("Failed to queue publish notification")
		return
	}
	s.logger.Info().Uint("projectID", project.ID).Str("to", operator.Email).Msg("Queued publish notification")
}
