package records

import (
	"context"
	"strings"

	"github.com/katatrina/backoffice-BE/internal/fallback"
	"github.com/katatrina/backoffice-BE/internal/model"
	"github.com/katatrina/backoffice-BE/internal/remote"
)

type CollaboratorFilter struct {
	Active     *bool
	Department string
	// Search matches name or CPF, case-insensitively.
	Search string
}

type CollaboratorService struct {
	repo *fallback.Repository[model.Collaborator, *model.Collaborator]
}

func NewCollaboratorService(coll remote.Collection[model.Collaborator], local fallback.LocalStore, timeouts Timeouts) *CollaboratorService {
	repo := fallback.New[model.Collaborator](CollectionCollaborators, coll, local, fallback.Options[model.Collaborator]{
		Timeout:       timeouts.Remote,
		LocalFallback: true,
		Less: func(a, b *model.Collaborator) bool {
			return strings.ToLower(a.Name) < strings.ToLower(b.Name)
		},
	})
	return &CollaboratorService{repo: repo}
}

func (s *CollaboratorService) Repository() *fallback.Repository[model.Collaborator, *model.Collaborator] {
	return s.repo
}

func (s *CollaboratorService) Create(ctx context.Context, c model.Collaborator) (model.Collaborator, error) {
	return s.repo.Create(ctx, c)
}

func (s *CollaboratorService) Get(ctx context.Context, id string) (model.Collaborator, error) {
	return s.repo.Get(ctx, id)
}

func (s *CollaboratorService) List(ctx context.Context, filter CollaboratorFilter) ([]model.Collaborator, error) {
	q := remote.Query{}
	if filter.Active != nil {
		q = q.Where("ativo", remote.OpEqual, *filter.Active)
	}
	if filter.Department != "" {
		q = q.Where("departamento", remote.OpEqual, filter.Department)
	}

	search := strings.ToLower(strings.TrimSpace(filter.Search))
	var match func(*model.Collaborator) bool
	if search != "" {
		match = func(c *model.Collaborator) bool {
			return strings.Contains(strings.ToLower(c.Name), search) || strings.Contains(c.CPF, search)
		}
	}

	return s.repo.List(ctx, q, match)
}

func (s *CollaboratorService) Update(ctx context.Context, id string, mutate func(*model.Collaborator) error) (model.Collaborator, error) {
	return s.repo.Update(ctx, id, mutate)
}

func (s *CollaboratorService) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}
