package database

import (
	"context"
	"testing"
	"time"

	"github.com/rpupo63/portfolio-admin-backend/errs"
	"github.com/rpupo63/portfolio-admin-backend/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	db       Database
	projects *ProjectRepo
	tech     []models.Technology
	webApp   models.Type
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()
	db := New(getTestDB(t))

	f := fixture{db: db, projects: db.ProjectRepo()}
	for _, name := range []string{"Go", "PostgreSQL", "Vue"} {
		tech := models.Technology{Name: name}
		require.NoError(t, db.TechnologyRepo().Add(ctx, &tech))
		f.tech = append(f.tech, tech)
	}
	f.webApp = models.Type{Name: "Web app"}
	require.NoError(t, db.TypeRepo().Add(ctx, &f.webApp))
	return f
}

func (f fixture) create(t *testing.T, name string, published bool, updatedAt time.Time) *models.Project {
	t.Helper()
	p := &models.Project{
		Name:        name,
		Description: "desc",
		ProjectURL:  "https://example.com",
		IsPublished: published,
		CreatedAt:   updatedAt,
		UpdatedAt:   updatedAt,
	}
	require.NoError(t, f.projects.Create(context.Background(), p))
	require.NotZero(t, p.ID)
	return p
}

func TestProjectRepo_CreateAndFind(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p := f.create(t, "Portfolio Site", false, time.Now())
	p.TypeID = &f.webApp.ID
	require.NoError(t, f.projects.Update(ctx, p))
	require.NoError(t, f.projects.Attach(ctx, p.ID, []uint{f.tech[1].ID, f.tech[0].ID}))

	found, err := f.projects.FindByID(ctx, p.ID, false)
	require.NoError(t, err)
	assert.Equal(t, "Portfolio Site", found.Name)
	assert.False(t, found.IsPublished)
	assert.Nil(t, found.ImageURL)
	require.NotNil(t, found.Type)
	assert.Equal(t, "Web app", found.Type.Name)
	assert.Equal(t, []uint{f.tech[0].ID, f.tech[1].ID}, found.TechnologyIDs())

	_, err = f.projects.FindByID(ctx, 9999, true)
	assert.True(t, errs.IsNotFound(err))
}

func TestProjectRepo_UniqueName(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p := f.create(t, "Portfolio Site", false, time.Now())
	require.NoError(t, f.projects.SoftDelete(ctx, p.ID))

	taken, err := f.projects.NameTaken(ctx, "Portfolio Site", 0)
	require.NoError(t, err)
	assert.True(t, taken, "trashed projects keep their name")

	taken, err = f.projects.NameTaken(ctx, "Portfolio Site", p.ID)
	require.NoError(t, err)
	assert.False(t, taken)

	dup := &models.Project{Name: "Portfolio Site", Description: "d", ProjectURL: "https://x.dev"}
	err = f.projects.Create(ctx, dup)
	assert.True(t, errs.IsUniqueConstraintViolationError(err))
}

func TestProjectRepo_ListActiveFilterAndOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	base := time.Now().Add(-time.Hour)

	for i := 0; i < 12; i++ {
		f.create(t, "draft-"+string(rune('a'+i)), false, base.Add(time.Duration(i)*time.Minute))
	}
	published := f.create(t, "published", true, base.Add(30*time.Minute))

	page, err := f.projects.ListActive(ctx, models.StatusAll, 1, models.DefaultPageSize)
	require.NoError(t, err)
	assert.EqualValues(t, 13, page.Total)
	assert.Equal(t, 2, page.LastPage)
	require.Len(t, page.Items, 10)
	assert.Equal(t, published.ID, page.Items[0].ID)
	assert.Equal(t, "draft-l", page.Items[1].Name)

	second, err := f.projects.ListActive(ctx, models.StatusAll, 2, models.DefaultPageSize)
	require.NoError(t, err)
	assert.Len(t, second.Items, 3)

	onlyPublished, err := f.projects.ListActive(ctx, models.StatusPublished, 1, models.DefaultPageSize)
	require.NoError(t, err)
	require.Len(t, onlyPublished.Items, 1)
	assert.Equal(t, published.ID, onlyPublished.Items[0].ID)

	drafts, err := f.projects.ListActive(ctx, models.StatusDraft, 1, models.DefaultPageSize)
	require.NoError(t, err)
	assert.EqualValues(t, 12, drafts.Total)
}

func TestProjectRepo_SoftDeleteRestore(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p := f.create(t, "Portfolio Site", false, time.Now())
	require.NoError(t, f.projects.Attach(ctx, p.ID, []uint{f.tech[0].ID}))
	require.NoError(t, f.projects.SoftDelete(ctx, p.ID))

	active, err := f.projects.ListActive(ctx, models.StatusAll, 1, 10)
	require.NoError(t, err)
	assert.Empty(t, active.Items)

	trashed, err := f.projects.ListTrashed(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, trashed.Items, 1)
	assert.True(t, trashed.Items[0].IsTrashed())

	_, err = f.projects.FindByID(ctx, p.ID, false)
	assert.True(t, errs.IsNotFound(err))
	viewed, err := f.projects.FindByID(ctx, p.ID, true)
	require.NoError(t, err)
	assert.Equal(t, []uint{f.tech[0].ID}, viewed.TechnologyIDs(), "soft delete keeps associations")

	assert.True(t, errs.IsNotFound(f.projects.SoftDelete(ctx, p.ID)))

	require.NoError(t, f.projects.Restore(ctx, p.ID))
	restored, err := f.projects.FindByID(ctx, p.ID, false)
	require.NoError(t, err)
	assert.False(t, restored.IsTrashed())
	assert.Equal(t, p.Name, restored.Name)

	assert.True(t, errs.IsNotFound(f.projects.Restore(ctx, p.ID)))
	_, err = f.projects.FindTrashedByID(ctx, p.ID)
	assert.True(t, errs.IsNotFound(err))
}

func TestProjectRepo_ListTrashedOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := f.create(t, "first", false, time.Now())
	second := f.create(t, "second", false, time.Now())
	require.NoError(t, f.projects.SoftDelete(ctx, first.ID))
	time.Sleep(5 * time.Millisecond)
	require.NoError(t, f.projects.SoftDelete(ctx, second.ID))

	trashed, err := f.projects.ListTrashed(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, trashed.Items, 2)
	assert.Equal(t, second.ID, trashed.Items[0].ID)
	assert.Equal(t, first.ID, trashed.Items[1].ID)
}

func TestProjectRepo_SyncAndDetach(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.create(t, "Portfolio Site", false, time.Now())

	require.NoError(t, f.projects.Attach(ctx, p.ID, []uint{f.tech[0].ID, f.tech[1].ID}))
	require.NoError(t, f.projects.Attach(ctx, p.ID, []uint{f.tech[0].ID}), "attaching twice is ignored")

	want := []uint{f.tech[1].ID, f.tech[2].ID}
	for i := 0; i < 2; i++ {
		require.NoError(t, f.projects.Sync(ctx, p.ID, want))
		ids, err := f.projects.TechnologyIDs(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, want, ids)
	}

	require.NoError(t, f.projects.Sync(ctx, p.ID, nil))
	ids, err := f.projects.TechnologyIDs(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, ids)

	require.NoError(t, f.projects.Attach(ctx, p.ID, want))
	require.NoError(t, f.projects.DetachAll(ctx, p.ID))
	ids, err = f.projects.TechnologyIDs(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestProjectRepo_PurgeInTransaction(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.create(t, "Portfolio Site", false, time.Now())
	require.NoError(t, f.projects.Attach(ctx, p.ID, []uint{f.tech[0].ID}))
	require.NoError(t, f.projects.SoftDelete(ctx, p.ID))

	err := f.projects.Transaction(ctx, func(ctx context.Context) error {
		if err := f.projects.DetachAll(ctx, p.ID); err != nil {
			return err
		}
		return f.projects.Purge(ctx, p.ID)
	})
	require.NoError(t, err)

	_, err = f.projects.FindByID(ctx, p.ID, true)
	assert.True(t, errs.IsNotFound(err))
	ids, err := f.projects.TechnologyIDs(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, ids)
	assert.True(t, errs.IsNotFound(f.projects.Purge(ctx, p.ID)))
}

func TestProjectRepo_TransactionRollback(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	err := f.projects.Transaction(ctx, func(ctx context.Context) error {
		p := &models.Project{Name: "rolled back", Description: "d", ProjectURL: "https://x.dev"}
		if err := f.projects.Create(ctx, p); err != nil {
			return err
		}
		return f.projects.Attach(ctx, p.ID, []uint{424242})
	})
	require.Error(t, err)

	taken, err := f.projects.NameTaken(ctx, "rolled back", 0)
	require.NoError(t, err)
	assert.False(t, taken)
}

func TestCatalogRepos(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	technologies, err := f.db.TechnologyRepo().FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, technologies, 3)
	assert.Equal(t, "Go", technologies[0].Name)

	missing, err := f.db.TechnologyRepo().MissingIDs(ctx, []uint{f.tech[0].ID, 77})
	require.NoError(t, err)
	assert.Equal(t, []uint{77}, missing)

	exists, err := f.db.TypeRepo().Exists(ctx, f.webApp.ID)
	require.NoError(t, err)
	assert.True(t, exists)
	exists, err = f.db.TypeRepo().Exists(ctx, 99)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, f.db.Ping(ctx))
}

func TestProjectRepo_UpdateDoesNotRestoreTrashed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p := f.create(t, "Portfolio Site", false, time.Now())
	loaded, err := f.projects.FindByID(ctx, p.ID, false)
	require.NoError(t, err)

	require.NoError(t, f.projects.SoftDelete(ctx, p.ID))
	loaded.IsPublished = true
	assert.True(t, errs.IsNotFound(f.projects.Update(ctx, loaded)))

	still, err := f.projects.FindByID(ctx, p.ID, true)
	require.NoError(t, err)
	assert.True(t, still.IsTrashed())
	assert.False(t, still.IsPublished)

	require.NoError(t, f.projects.Purge(ctx, p.ID))
	assert.True(t, errs.IsNotFound(f.projects.Update(ctx, loaded)))
	_, err = f.projects.FindByID(ctx, p.ID, true)
	assert.True(t, errs.IsNotFound(err), "update must not insert a purged project")
}

func TestProjectRepo_ReadsAfterWriteUsePrimary(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	createEmptyDatabase(t, sharedDB, "portfolio_replica")
	db, err := Open(map[string]string{
		"DATABASE_URL":          testDSN("portfolio_test"),
		"DATABASE_REPLICA_URLS": testDSN("portfolio_replica"),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	projects := New(db).ProjectRepo()

	// The replica has no tables, so plain reads routed to it fail.
	_, err = projects.ListActive(ctx, models.StatusAll, 1, 10)
	require.Error(t, err)

	p := &models.Project{Name: "Portfolio Site", Description: "desc", ProjectURL: "https://example.com"}
	require.NoError(t, projects.Create(ctx, p))
	require.NoError(t, projects.Attach(ctx, p.ID, []uint{f.tech[0].ID}))

	found, err := projects.FindByID(ctx, p.ID, false)
	require.NoError(t, err)
	assert.Equal(t, []uint{f.tech[0].ID}, found.TechnologyIDs())

	taken, err := projects.NameTaken(ctx, "Portfolio Site", 0)
	require.NoError(t, err)
	assert.True(t, taken)

	ids, err := projects.TechnologyIDs(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{f.tech[0].ID}, ids)

	require.NoError(t, projects.SoftDelete(ctx, p.ID))
	trashed, err := projects.FindTrashedByID(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, trashed.IsTrashed())
}
