package fallback

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/katatrina/backoffice-BE/internal/localstore"
	"github.com/katatrina/backoffice-BE/internal/model"
	"github.com/katatrina/backoffice-BE/internal/remote"
	"github.com/katatrina/backoffice-BE/internal/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type collaboratorRepo = Repository[model.Collaborator, *model.Collaborator]

func newLocalStore(t *testing.T) *localstore.Store {
	t.Helper()

	s, err := localstore.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func newRepo(t *testing.T, coll remote.Collection[model.Collaborator], fallback bool) (*collaboratorRepo, *localstore.Store) {
	t.Helper()

	local := newLocalStore(t)
	repo := New[model.Collaborator]("colaboradores", coll, local, Options[model.Collaborator]{
		Timeout:       50 * time.Millisecond,
		LocalFallback: fallback,
		Less: func(a, b *model.Collaborator) bool {
			return a.Name < b.Name
		},
	})
	return repo, local
}

func collaborator(name string) model.Collaborator {
	return model.Collaborator{
		Name:          name,
		CPF:           "12345678901",
		Role:          "Eletricista",
		Salary:        3500,
		AdmissionDate: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		Active:        true,
	}
}

func TestCreateRemoteSuccess(t *testing.T) {
	coll := remote.NewMemoryCollection[model.Collaborator]("colaboradores")
	repo, local := newRepo(t, coll, true)
	ctx := context.Background()

	created, err := repo.Create(ctx, collaborator("Ana Souza"))
	require.NoError(t, err)
	assert.False(t, util.IsLocalID(created.ID))
	assert.False(t, created.CreatedAt.IsZero())
	assert.Equal(t, 1, coll.Len())

	_, ok, err := local.Get(ctx, "local:colaboradores")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCreateTimeoutFallsBackAndIsListed(t *testing.T) {
	coll := remote.NewMemoryCollection[model.Collaborator]("colaboradores")
	coll.SetLatency(time.Hour)
	repo, local := newRepo(t, coll, true)
	ctx := context.Background()

	start := time.Now()
	created, err := repo.Create(ctx, collaborator("Bruno Lima"))
	require.NoError(t, err)
	assert.Less(t, time.Since(start), time.Second)
	assert.True(t, util.IsLocalID(created.ID))

	list, err := repo.List(ctx, remote.Query{}, nil)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)

	pending, err := local.Pending(ctx, "colaboradores", 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, created.ID, pending[0].LocalID)
}

func TestCreateRemoteErrorFallsBack(t *testing.T) {
	coll := remote.NewMemoryCollection[model.Collaborator]("colaboradores")
	coll.SetFailure(errors.New("permission denied"))
	repo, _ := newRepo(t, coll, true)

	created, err := repo.Create(context.Background(), collaborator("Carla Dias"))
	require.NoError(t, err)
	assert.True(t, util.IsLocalID(created.ID))
}

func TestCreateWithoutRemoteGoesLocal(t *testing.T) {
	repo, _ := newRepo(t, nil, true)

	created, err := repo.Create(context.Background(), collaborator("Davi Rocha"))
	require.NoError(t, err)
	assert.True(t, util.IsLocalID(created.ID))

	list, err := repo.List(context.Background(), remote.Query{}, nil)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestPureRemoteErrorPropagates(t *testing.T) {
	coll := remote.NewMemoryCollection[model.Collaborator]("colaboradores")
	coll.SetFailure(errors.New("unavailable"))
	repo, _ := newRepo(t, coll, false)

	_, err := repo.Create(context.Background(), collaborator("Elisa Melo"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRemoteUnavailable)

	_, err = repo.List(context.Background(), remote.Query{}, nil)
	assert.ErrorIs(t, err, ErrRemoteUnavailable)

	repo, _ = newRepo(t, nil, false)
	_, err = repo.Create(context.Background(), collaborator("Elisa Melo"))
	assert.ErrorIs(t, err, remote.ErrNotConfigured)
}

func TestValidationFailsBeforeIO(t *testing.T) {
	coll := remote.NewMemoryCollection[model.Collaborator]("colaboradores")
	repo, _ := newRepo(t, coll, true)

	invalid := collaborator("Fabi")
	invalid.CPF = "123"
	_, err := repo.Create(context.Background(), invalid)

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "cpf", validationErr.Field)
	assert.Equal(t, "cpf must have exactly 11 characters", validationErr.Message)
	assert.Equal(t, 0, coll.Len())
}

func TestListMergeRemoteWins(t *testing.T) {
	ctx := context.Background()
	coll := remote.NewMemoryCollection[model.Collaborator]("colaboradores")
	repo, local := newRepo(t, coll, true)

	remoteDoc := collaborator("Gustavo Reis")
	remoteDoc.ID = "shared-id"
	require.NoError(t, coll.Set(ctx, "shared-id", remoteDoc))

	other := collaborator("Helena Prado")
	require.NoError(t, coll.Set(ctx, "remote-2", other))

	// A local record colliding with a remote id and one that does not.
	require.NoError(t, local.Set(ctx, "local:colaboradores",
		`[{"id":"shared-id","nome":"Stale Name"},{"id":"local-1-abc","nome":"Igor Local"}]`))

	list, err := repo.List(ctx, remote.Query{}, nil)
	require.NoError(t, err)
	require.Len(t, list, 3)

	byID := map[string]string{}
	for _, c := range list {
		byID[c.ID] = c.Name
	}
	assert.Equal(t, "Gustavo Reis", byID["shared-id"])
	assert.Equal(t, "Igor Local", byID["local-1-abc"])
	assert.Equal(t, "Gustavo Reis", list[0].Name)
}

func TestListRemoteFailureServesLocalFiltered(t *testing.T) {
	ctx := context.Background()
	coll := remote.NewMemoryCollection[model.Collaborator]("colaboradores")
	coll.SetFailure(errors.New("offline"))
	repo, _ := newRepo(t, coll, true)

	_, err := repo.Create(ctx, collaborator("João Alves"))
	require.NoError(t, err)
	inactive := collaborator("Karina Luz")
	inactive.Active = false
	_, err = repo.Create(ctx, inactive)
	require.NoError(t, err)

	list, err := repo.List(ctx, remote.Query{}.Where("ativo", remote.OpEqual, true), nil)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "João Alves", list[0].Name)

	list, err = repo.List(ctx, remote.Query{}, func(c *model.Collaborator) bool {
		return c.Name == "Karina Luz"
	})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestUpdateAndDeleteByOrigin(t *testing.T) {
	ctx := context.Background()
	coll := remote.NewMemoryCollection[model.Collaborator]("colaboradores")
	repo, _ := newRepo(t, coll, true)

	remoteDoc, err := repo.Create(ctx, collaborator("Lucas Neri"))
	require.NoError(t, err)

	coll.SetFailure(errors.New("offline"))
	localDoc, err := repo.Create(ctx, collaborator("Marta Leão"))
	require.NoError(t, err)
	require.True(t, util.IsLocalID(localDoc.ID))

	updated, err := repo.Update(ctx, localDoc.ID, func(c *model.Collaborator) error {
		c.Role = "Supervisora"
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, localDoc.ID, updated.ID)
	assert.Equal(t, "Supervisora", updated.Role)

	coll.SetFailure(nil)
	updated, err = repo.Update(ctx, remoteDoc.ID, func(c *model.Collaborator) error {
		c.Salary = 4000
		return nil
	})
	require.NoError(t, err)
	stored, err := coll.Get(ctx, remoteDoc.ID)
	require.NoError(t, err)
	assert.Equal(t, 4000.0, stored.Salary)

	_, err = repo.Update(ctx, remoteDoc.ID, func(c *model.Collaborator) error {
		c.Name = ""
		return nil
	})
	var validationErr *ValidationError
	assert.ErrorAs(t, err, &validationErr)

	require.NoError(t, repo.Delete(ctx, localDoc.ID))
	require.NoError(t, repo.Delete(ctx, remoteDoc.ID))
	assert.ErrorIs(t, repo.Delete(ctx, localDoc.ID), ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, "local-0-missing"), ErrNotFound)

	list, err := repo.List(ctx, remote.Query{}, nil)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestCapabilityChecked(t *testing.T) {
	ctx := context.Background()
	coll := remote.NewMemoryCollection[model.Collaborator]("colaboradores")
	repo, _ := newRepo(t, coll, true)

	created, err := repo.Create(ctx, collaborator("Nina Paz"))
	require.NoError(t, err)

	coll.SetCapabilities(remote.CapBatch)
	_, err = repo.Update(ctx, created.ID, func(*model.Collaborator) error { return nil })
	assert.ErrorIs(t, err, remote.ErrUnsupported)
	assert.ErrorIs(t, repo.Delete(ctx, created.ID), remote.ErrUnsupported)
}

func TestFlushRewritesLocalID(t *testing.T) {
	ctx := context.Background()
	coll := remote.NewMemoryCollection[model.Collaborator]("colaboradores")
	coll.SetFailure(errors.New("offline"))
	repo, local := newRepo(t, coll, true)

	localDoc, err := repo.Create(ctx, collaborator("Otávio Cruz"))
	require.NoError(t, err)

	synced, err := repo.Flush(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, synced)
	pending, err := local.Pending(ctx, "colaboradores", 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, 1, pending[0].Attempts)

	coll.SetFailure(nil)
	reconciler, err := NewReconciler(time.Minute, repo)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"colaboradores": 1}, reconciler.FlushAll(ctx))

	list, err := repo.List(ctx, remote.Query{}, nil)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.False(t, util.IsLocalID(list[0].ID))

	remoteID, ok, err := local.Alias(ctx, "colaboradores", localDoc.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, list[0].ID, remoteID)

	// The old local id still reaches the record.
	updated, err := repo.Update(ctx, localDoc.ID, func(c *model.Collaborator) error {
		c.Department = "Manutenção"
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, remoteID, updated.ID)

	ids, err := repo.KnownIDs(ctx, remoteID)
	require.NoError(t, err)
	assert.Equal(t, []string{remoteID, localDoc.ID}, ids)

	pending, err = local.Pending(ctx, "colaboradores", 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestFlushSkipsDeletedRecords(t *testing.T) {
	ctx := context.Background()
	coll := remote.NewMemoryCollection[model.Collaborator]("colaboradores")
	coll.SetFailure(errors.New("offline"))
	repo, local := newRepo(t, coll, true)

	localDoc, err := repo.Create(ctx, collaborator("Paula Reis"))
	require.NoError(t, err)
	require.NoError(t, repo.Delete(ctx, localDoc.ID))

	coll.SetFailure(nil)
	synced, err := repo.Flush(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, synced)
	assert.Equal(t, 0, coll.Len())

	pending, err := local.Pending(ctx, "colaboradores", 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}
