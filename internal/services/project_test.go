package services

import (
	"context"
	"errors"
	"testing"

	"github.com/crowdfund/apiserver/types"
)

type windowRepo struct {
	gotOffset int
	gotLimit  int
}

func (r *windowRepo) List(ctx context.Context, offset, limit int) ([]types.Project, int, error) {
	r.gotOffset = offset
	r.gotLimit = limit
	return []types.Project{}, 0, nil
}

func (r *windowRepo) Get(ctx context.Context, id int) (types.Project, error) {
	return types.Project{}, nil
}

func (r *windowRepo) Create(ctx context.Context, project types.Project) (types.Project, error) {
	project.ID = 1
	return project, nil
}

func (r *windowRepo) UpdateOwned(ctx context.Context, project types.Project, creator int) error {
	return nil
}

func (r *windowRepo) DeleteOwned(ctx context.Context, id, creator int) error {
	return nil
}

func TestProjectList_WindowMath(t *testing.T) {
	tests := []struct {
		name       string
		pageSize   int
		page       int
		wantOffset int
		wantLimit  int
	}{
		{name: "paged", pageSize: 2, page: 2, wantOffset: 2, wantLimit: 2},
		{name: "first page", pageSize: 10, page: 1, wantOffset: 0, wantLimit: 10},
		{name: "unpaged", pageSize: 0, page: 0, wantOffset: 0, wantLimit: 0},
		{name: "missing page", pageSize: 5, page: 0, wantOffset: 0, wantLimit: 0},
		{name: "negative", pageSize: -1, page: 3, wantOffset: 0, wantLimit: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &windowRepo{}
			svc := NewProjectService(repo, nil)

			if _, _, err := svc.List(context.Background(), tt.pageSize, tt.page); err != nil {
				t.Fatalf("list: %v", err)
			}
			if repo.gotOffset != tt.wantOffset || repo.gotLimit != tt.wantLimit {
				t.Fatalf("got offset=%d limit=%d, want offset=%d limit=%d",
					repo.gotOffset, repo.gotLimit, tt.wantOffset, tt.wantLimit)
			}
		})
	}
}

func TestProjectCreate_RequiresFields(t *testing.T) {
	svc := NewProjectService(&windowRepo{}, nil)

	tests := []struct {
		name      string
		title     string
		content   string
		imagePath string
	}{
		{name: "empty title", content: "body", imagePath: "http://x/images/a.png"},
		{name: "empty content", title: "t", imagePath: "http://x/images/a.png"},
		{name: "empty image", title: "t", content: "body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), 1, tt.title, tt.content, tt.imagePath)
			if !errors.Is(err, ErrMissingField) {
				t.Fatalf("expected ErrMissingField, got %v", err)
			}
		})
	}
}

func TestProjectCreate_SetsOwner(t *testing.T) {
	svc := NewProjectService(&windowRepo{}, nil)

	created, err := svc.Create(context.Background(), 42, "title", "content", "http://x/images/a.png")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Creator != 42 {
		t.Fatalf("expected creator 42, got %d", created.Creator)
	}
	if created.ID == 0 {
		t.Fatalf("expected assigned id")
	}
}
