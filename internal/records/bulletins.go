package records

import (
	"context"

	"github.com/katatrina/backoffice-BE/internal/fallback"
	"github.com/katatrina/backoffice-BE/internal/model"
	"github.com/katatrina/backoffice-BE/internal/remote"
)

type BulletinFilter struct {
	Status   model.BulletinStatus
	Contract string
}

type BulletinService struct {
	repo *fallback.Repository[model.Bulletin, *model.Bulletin]
}

func NewBulletinService(coll remote.Collection[model.Bulletin], local fallback.LocalStore, timeouts Timeouts) *BulletinService {
	repo := fallback.New[model.Bulletin](CollectionBulletins, coll, local, fallback.Options[model.Bulletin]{
		Timeout:       timeouts.Remote,
		LocalFallback: true,
		Less: func(a, b *model.Bulletin) bool {
			return a.DueDate.Before(b.DueDate)
		},
	})
	return &BulletinService{repo: repo}
}

func (s *BulletinService) Repository() *fallback.Repository[model.Bulletin, *model.Bulletin] {
	return s.repo
}

func (s *BulletinService) Create(ctx context.Context, b model.Bulletin) (model.Bulletin, error) {
	if b.Status == "" {
		b.Status = model.BulletinStatusPending
	}
	return s.repo.Create(ctx, b)
}

func (s *BulletinService) Get(ctx context.Context, id string) (model.Bulletin, error) {
	return s.repo.Get(ctx, id)
}

func (s *BulletinService) List(ctx context.Context, filter BulletinFilter) ([]model.Bulletin, error) {
	q := remote.Query{}
	if filter.Status != "" {
		q = q.Where("status", remote.OpEqual, string(filter.Status))
	}
	if filter.Contract != "" {
		q = q.Where("contrato", remote.OpEqual, filter.Contract)
	}
	return s.repo.List(ctx, q, nil)
}

func (s *BulletinService) ListBulletins(ctx context.Context) ([]model.Bulletin, error) {
	return s.repo.List(ctx, remote.Query{}, nil)
}

func (s *BulletinService) Update(ctx context.Context, id string, mutate func(*model.Bulletin) error) (model.Bulletin, error) {
	return s.repo.Update(ctx, id, mutate)
}

func (s *BulletinService) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}
