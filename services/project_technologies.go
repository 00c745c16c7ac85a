package services

import "context"

// syncTechnologies makes the project's technology set exactly ids. An empty
// ids clears existing links and is a no-op when there are none.
func (s *ProjectService) syncTechnologies(ctx context.Context, projectID uint, ids []uint) error {
	if len(ids) > 0 {
		return s.projects.Sync(ctx, projectID, ids)
	}
	return s.detachAll(ctx, projectID)
}

func (s *ProjectService) detachAll(ctx context.Context, projectID uint) error {
	current, err := s.projects.TechnologyIDs(ctx, projectID)
	if err != nil {
		return err
	}
	if len(current) == 0 {
		return nil
	}
	return s.projects.DetachAll(ctx, projectID)
}
