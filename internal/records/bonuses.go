package records

import (
	"context"
	"time"

	"github.com/katatrina/backoffice-BE/internal/fallback"
	"github.com/katatrina/backoffice-BE/internal/model"
	"github.com/katatrina/backoffice-BE/internal/remote"
)

type BonusFilter struct {
	CollaboratorID string
	// ReferenceMonth is formatted as YYYY-MM.
	ReferenceMonth string
}

type BonusService struct {
	repo *fallback.Repository[model.Bonus, *model.Bonus]
}

func NewBonusService(coll remote.Collection[model.Bonus], local fallback.LocalStore, timeouts Timeouts) *BonusService {
	repo := fallback.New[model.Bonus](CollectionBonuses, coll, local, fallback.Options[model.Bonus]{
		Timeout:       timeouts.Remote,
		LocalFallback: true,
		Less: func(a, b *model.Bonus) bool {
			return a.CreatedAt.After(b.CreatedAt)
		},
	})
	return &BonusService{repo: repo}
}

func (s *BonusService) Repository() *fallback.Repository[model.Bonus, *model.Bonus] {
	return s.repo
}

func (s *BonusService) Create(ctx context.Context, b model.Bonus) (model.Bonus, error) {
	return s.repo.Create(ctx, b)
}

func (s *BonusService) Get(ctx context.Context, id string) (model.Bonus, error) {
	return s.repo.Get(ctx, id)
}

func (s *BonusService) List(ctx context.Context, filter BonusFilter) ([]model.Bonus, error) {
	q := remote.Query{}
	if filter.CollaboratorID != "" {
		q = q.Where("colaboradorId", remote.OpEqual, filter.CollaboratorID)
	}
	if filter.ReferenceMonth != "" {
		q = q.Where("mesReferencia", remote.OpEqual, filter.ReferenceMonth)
	}
	return s.repo.List(ctx, q, nil)
}

// ListBonusesSince returns the bonuses created at or after since, newest first.
func (s *BonusService) ListBonusesSince(ctx context.Context, since time.Time) ([]model.Bonus, error) {
	q := remote.Query{}.Where("createdAt", remote.OpGreaterEqual, since)
	return s.repo.List(ctx, q, nil)
}

// KnownIDs returns the ids the bonus was referenced by, its current one first.
func (s *BonusService) KnownIDs(ctx context.Context, id string) ([]string, error) {
	return s.repo.KnownIDs(ctx, id)
}

func (s *BonusService) Update(ctx context.Context, id string, mutate func(*model.Bonus) error) (model.Bonus, error) {
	return s.repo.Update(ctx, id, mutate)
}

func (s *BonusService) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}
