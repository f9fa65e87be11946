package services

import (
	"context"
	"errors"
	"strings"

	"github.com/crowdfund/apiserver/types"
)

// ErrMissingField is returned when a required project field is empty.
var ErrMissingField = errors.New("missing required field")

// ProjectRepository defines persistence operations for projects.
type ProjectRepository interface {
	List(ctx context.Context, offset, limit int) ([]types.Project, int, error)
	Get(ctx context.Context, id int) (types.Project, error)
	Create(ctx context.Context, project types.Project) (types.Project, error)
	UpdateOwned(ctx context.Context, project types.Project, creator int) error
	DeleteOwned(ctx context.Context, id, creator int) error
}

// ProjectService encapsulates project use-cases.
type ProjectService struct {
	repo   ProjectRepository
	events *ProjectEvents
}

func NewProjectService(repo ProjectRepository, events *ProjectEvents) *ProjectService {
	return &ProjectService{repo: repo, events: events}
}

// List returns a newest-first window of projects plus the total count.
// When pageSize and page are both positive the window covers pageSize
// rows starting at pageSize*(page-1); otherwise every project is
// returned. An empty store yields an empty slice and count zero.
func (s *ProjectService) List(ctx context.Context, pageSize, page int) ([]types.Project, int, error) {
	offset, limit := 0, 0
	if pageSize > 0 && page > 0 {
		offset = pageSize * (page - 1)
		limit = pageSize
	}
	return s.repo.List(ctx, offset, limit)
}

func (s *ProjectService) Get(ctx context.Context, id int) (types.Project, error) {
	return s.repo.Get(ctx, id)
}

// Create persists a new project owned by creator. Title, content, and
// image path are all required.
func (s *ProjectService) Create(ctx context.Context, creator int, title, content, imagePath string) (types.Project, error) {
	if err := validateFields(title, content, imagePath); err != nil {
		return types.Project{}, err
	}

	created, err := s.repo.Create(ctx, types.Project{
		Title:     title,
		Content:   content,
		ImagePath: imagePath,
		Creator:   creator,
	})
	if err != nil {
		return types.Project{}, err
	}

	s.events.ProjectCreated(ctx, created)
	return created, nil
}

// Update replaces title, content, and image path of the project with
// the given id, but only when requester owns it. The owner reference
// itself is never reassigned. A miss (wrong id or wrong owner)
// surfaces as store.ErrNotOwned.
func (s *ProjectService) Update(ctx context.Context, id, requester int, title, content, imagePath string) error {
	if err := validateFields(title, content, imagePath); err != nil {
		return err
	}

	project := types.Project{
		ID:        id,
		Title:     title,
		Content:   content,
		ImagePath: imagePath,
	}
	if err := s.repo.UpdateOwned(ctx, project, requester); err != nil {
		return err
	}

	s.events.ProjectUpdated(ctx, project)
	return nil
}

// Delete removes the project with the given id when requester owns
// it, with the same miss semantics as Update.
func (s *ProjectService) Delete(ctx context.Context, id, requester int) error {
	if err := s.repo.DeleteOwned(ctx, id, requester); err != nil {
		return err
	}

	s.events.ProjectDeleted(ctx, id)
	return nil
}

func validateFields(title, content, imagePath string) error {
	if strings.TrimSpace(title) == "" || strings.TrimSpace(content) == "" || strings.TrimSpace(imagePath) == "" {
		return ErrMissingField
	}
	return nil
}
