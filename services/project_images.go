package services

import (
	"context"

	"github.com/rpupo63/portfolio-admin-backend/models"
)

// storeImage writes image to the blob store and returns its reference, or ""
// when there is nothing to store.
func (s *ProjectService) storeImage(ctx context.Context, image *ValidatedImage) (string, error) {
	if image == nil {
		return "", nil
	}
	ref, err := s.blobs.Put(ctx, models.ProjectNamespace, image.Data, image.ContentType)
	if err != nil {
		return "", err
	}
	s.logger.Debug().Str("ref", ref).Msg("Stored project image")
	return ref, nil
}

// discardImage removes a blob written for a mutation that did not commit.
func (s *ProjectService) discardImage(ctx context.Context, ref string) {
	if ref == "" {
		return
	}
	if err := s.blobs.Delete(context.WithoutCancel(ctx), ref); err != nil {
		s.logger.Error().Err(err).Str("ref", ref).Msg("Failed to remove image of rolled back project write")
	}
}

// releaseImage removes a blob no committed project references anymore.
// Failures leave an orphaned blob and are logged for cleanup.
func (s *ProjectService) releaseImage(ctx context.Context, ref string) {
	if ref == "" {
		return
	}
	if err := s.blobs.Delete(context.WithoutCancel(ctx), ref); err != nil {
		s.logger.Error().Err(err).Str("ref", ref).Msg("Failed to remove orphaned project image")
		return
	}
	s.logger.Debug().Str("ref", ref).Msg("Removed project image")
}

// replacedImage returns the reference that a new upload supersedes. Placeholder
// URLs and projects without an image yield "".
func replacedImage(p *models.Project, upload *ValidatedImage) string {
	if upload == nil || !p.HasUploadedImage() {
		return ""
	}
	return *p.ImageURL
}
