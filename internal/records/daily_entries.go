package records

import (
	"context"
	"time"

	"github.com/katatrina/backoffice-BE/internal/fallback"
	"github.com/katatrina/backoffice-BE/internal/model"
	"github.com/katatrina/backoffice-BE/internal/remote"
)

type EntryFilter struct {
	From     *time.Time
	To       *time.Time
	Kind     model.EntryKind
	Category string
}

func (f EntryFilter) query() remote.Query {
	q := remote.Query{}
	if f.From != nil {
		q = q.Where("data", remote.OpGreaterEqual, *f.From)
	}
	if f.To != nil {
		q = q.Where("data", remote.OpLessEqual, *f.To)
	}
	if f.Kind != "" {
		q = q.Where("tipo", remote.OpEqual, string(f.Kind))
	}
	if f.Category != "" {
		q = q.Where("categoria", remote.OpEqual, f.Category)
	}
	return q
}

// Balance sums the entries of a period.
type Balance struct {
	Income  float64 `json:"entradas"`
	Expense float64 `json:"saidas"`
	Total   float64 `json:"saldo"`
}

type DailyEntryService struct {
	repo *fallback.Repository[model.DailyEntry, *model.DailyEntry]
}

func NewDailyEntryService(coll remote.Collection[model.DailyEntry], local fallback.LocalStore, timeouts Timeouts) *DailyEntryService {
	repo := fallback.New[model.DailyEntry](CollectionDailyEntries, coll, local, fallback.Options[model.DailyEntry]{
		Timeout:       timeouts.Remote,
		LocalFallback: true,
		Less: func(a, b *model.DailyEntry) bool {
			return a.Date.After(b.Date)
		},
	})
	return &DailyEntryService{repo: repo}
}

func (s *DailyEntryService) Repository() *fallback.Repository[model.DailyEntry, *model.DailyEntry] {
	return s.repo
}

func (s *DailyEntryService) Create(ctx context.Context, e model.DailyEntry) (model.DailyEntry, error) {
	return s.repo.Create(ctx, e)
}

func (s *DailyEntryService) Get(ctx context.Context, id string) (model.DailyEntry, error) {
	return s.repo.Get(ctx, id)
}

// List returns the entries of the filter, newest first.
func (s *DailyEntryService) List(ctx context.Context, filter EntryFilter) ([]model.DailyEntry, error) {
	return s.repo.List(ctx, filter.query(), nil)
}

func (s *DailyEntryService) Balance(ctx context.Context, filter EntryFilter) (Balance, error) {
	entries, err := s.List(ctx, filter)
	if err != nil {
		return Balance{}, err
	}

	var b Balance
	for _, e := range entries {
		if e.Kind == model.EntryKindExpense {
			b.Expense += e.Amount
		} else {
			b.Income += e.Amount
		}
		b.Total += e.Signed()
	}
	return b, nil
}

func (s *DailyEntryService) Update(ctx context.Context, id string, mutate func(*model.DailyEntry) error) (model.DailyEntry, error) {
	return s.repo.Update(ctx, id, mutate)
}

func (s *DailyEntryService) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}
