package persistence

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	platformdb "crud_backend/internal/platform/db"
	"crud_backend/internal/platform/search"
)

type testState struct {
	ID      uint   `gorm:"primaryKey"`
	Name    string `gorm:"size:100;not null"`
	Acronym string `gorm:"size:2;uniqueIndex"`
}

func (s testState) GetID() uint { return s.ID }

type testCity struct {
	ID      uint   `gorm:"primaryKey"`
	Name    string `gorm:"size:100;not null"`
	StateID uint   `gorm:"not null"`
	State   *testState
}

func (c testCity) GetID() uint { return c.ID }

type testDoc struct {
	ID       uint   `gorm:"primaryKey"`
	Title    string `gorm:"size:100"`
	Inactive bool   `gorm:"not null;default:false"`
	Version  int    `gorm:"not null;default:0"`
}

func (d testDoc) GetID() uint         { return d.ID }
func (d testDoc) GetVersion() int     { return d.Version }
func (d *testDoc) SetVersion(v int)   { d.Version = v }
func (d testDoc) IsInactive() bool    { return d.Inactive }
func (d *testDoc) SetInactive(v bool) { d.Inactive = v }

// setupTestDB opens a private in-memory sqlite database with foreign keys enforced.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(platformdb.SQLite("file::memory:?_foreign_keys=1"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&testState{}, &testCity{}, &testDoc{}, &Revision{}))
	return db
}

func seedStates(t *testing.T, gw *Gateway[testState]) {
	t.Helper()
	ctx := context.Background()
	for _, s := range []testState{
		{Name: "São Paulo", Acronym: "SP"},
		{Name: "Santa Catarina", Acronym: "SC"},
		{Name: "Paraná", Acronym: "PR"},
	} {
		s := s
		require.NoError(t, gw.Save(ctx, &s))
	}
}

func TestGateway_SaveFindUpdateDelete(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	gw := NewGateway[testState](db)
	ctx := context.Background()

	s := &testState{Name: "Bahia", Acronym: "BA"}
	require.NoError(t, gw.Save(ctx, s))
	require.NotZero(t, s.ID)

	found, err := gw.FindByID(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, "Bahia", found.Name)

	found.Name = "Bahia de Todos os Santos"
	require.NoError(t, gw.Update(ctx, found))

	again, err := gw.FindByID(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, "Bahia de Todos os Santos", again.Name)

	require.NoError(t, gw.Delete(ctx, again))
	_, err = gw.FindByID(ctx, s.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGateway_UpdateMissingRow(t *testing.T) {
	t.Parallel()
	gw := NewGateway[testState](setupTestDB(t))

	err := gw.Update(context.Background(), &testState{ID: 99, Name: "ghost"})
	assert.ErrorIs(t, err, ErrNotFound)

	err = gw.Update(context.Background(), &testState{Name: "unsaved"})
	assert.ErrorIs(t, err, ErrMissingID)

	err = gw.Delete(context.Background(), &testState{ID: 99})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGateway_DuplicateIsClassified(t *testing.T) {
	t.Parallel()
	gw := NewGateway[testState](setupTestDB(t))
	ctx := context.Background()

	require.NoError(t, gw.Save(ctx, &testState{Name: "Goiás", Acronym: "GO"}))
	err := gw.Save(ctx, &testState{Name: "Goiás again", Acronym: "GO"})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestGateway_DeleteReferencedRowIsConstraint(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	states := NewGateway[testState](db)
	cities := NewGateway[testCity](db, WithPreload("State"))
	ctx := context.Background()

	st := &testState{Name: "Ceará", Acronym: "CE"}
	require.NoError(t, states.Save(ctx, st))
	city := &testCity{Name: "Fortaleza", StateID: st.ID}
	require.NoError(t, cities.Save(ctx, city))

	err := states.Delete(ctx, st)
	require.ErrorIs(t, err, ErrConstraint)

	still, err := states.FindByID(ctx, st.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ceará", still.Name)

	loaded, err := cities.FindByID(ctx, city.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded.State)
	assert.Equal(t, "CE", loaded.State.Acronym)
}

func TestGateway_OptimisticLock(t *testing.T) {
	t.Parallel()
	gw := NewGateway[testDoc](setupTestDB(t))
	ctx := context.Background()

	doc := &testDoc{Title: "draft"}
	require.NoError(t, gw.Save(ctx, doc))

	first, err := gw.FindByID(ctx, doc.ID)
	require.NoError(t, err)
	second, err := gw.FindByID(ctx, doc.ID)
	require.NoError(t, err)

	first.Title = "first edit"
	require.NoError(t, gw.Update(ctx, first))
	assert.Equal(t, 1, first.Version)

	second.Title = "second edit"
	err = gw.Update(ctx, second)
	require.ErrorIs(t, err, ErrStaleObject)
	assert.Equal(t, 0, second.Version, "version is restored after a stale update")

	stored, err := gw.FindByID(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "first edit", stored.Title)
}

func TestGateway_MergeAndSaveOrUpdate(t *testing.T) {
	t.Parallel()
	gw := NewGateway[testState](setupTestDB(t))
	ctx := context.Background()

	merged, err := gw.Merge(ctx, &testState{Name: "Pará", Acronym: "PA"})
	require.NoError(t, err)
	require.NotZero(t, merged.ID)

	merged.Name = "Pará (PA)"
	again, err := gw.Merge(ctx, merged)
	require.NoError(t, err)
	assert.Equal(t, merged.ID, again.ID)
	assert.Equal(t, "Pará (PA)", again.Name)

	_, err = gw.Merge(ctx, &testState{ID: 999, Name: "Ghost", Acronym: "GH"})
	assert.ErrorIs(t, err, ErrNotFound)

	s := &testState{Name: "Acre", Acronym: "AC"}
	require.NoError(t, gw.SaveOrUpdate(ctx, s))
	s.Name = "Acre!"
	require.NoError(t, gw.SaveOrUpdate(ctx, s))

	total, err := gw.TotalRows(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
}

func TestGateway_DeactivateAndFindActive(t *testing.T) {
	t.Parallel()
	gw := NewGateway[testDoc](setupTestDB(t))
	ctx := context.Background()

	a := &testDoc{Title: "a"}
	b := &testDoc{Title: "b"}
	require.NoError(t, gw.Save(ctx, a))
	require.NoError(t, gw.Save(ctx, b))

	require.NoError(t, gw.Deactivate(ctx, a))

	all, err := gw.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2, "FindAll keeps inactive rows")

	active, err := gw.FindActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "b", active[0].Title)

	_, err = NewGateway[testState](gw.db).FindActive(ctx)
	assert.ErrorIs(t, err, ErrNotSoftDeletable)
	assert.ErrorIs(t, NewGateway[testState](gw.db).Deactivate(ctx, &testState{ID: 1}), ErrNotSoftDeletable)
}

func TestGateway_SearchQueries(t *testing.T) {
	t.Parallel()
	gw := NewGateway[testState](setupTestDB(t))
	seedStates(t, gw)
	ctx := context.Background()

	table, err := gw.Table()
	require.NoError(t, err)
	assert.Equal(t, "test_states", table)
	assert.Equal(t, "sqlite", gw.Dialect())

	b := search.NewBuilder(table, gw.Dialect())

	tests := []struct {
		name  string
		mode  search.Mode
		value string
		want  []string
	}{
		{name: "accent-insensitive contains", mode: search.Contains, value: "sao", want: []string{"São Paulo"}},
		{name: "starts with, ordered by column", mode: search.StartsWith, value: "s", want: []string{"Santa Catarina", "São Paulo"}},
		{name: "equals on accented input", mode: search.Equals, value: "PARANÁ", want: []string{"Paraná"}},
		{name: "ends with", mode: search.EndsWith, value: "RINA", want: []string{"Santa Catarina"}},
		{name: "no match", mode: search.Contains, value: "xyz", want: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := b.Build(search.Request{Field: &search.Field{Column: "name"}, Mode: tt.mode, Value: tt.value})
			require.NoError(t, err)

			n, err := gw.Count(ctx, q.CountSQL(), q.Args...)
			require.NoError(t, err)
			assert.Equal(t, int64(len(tt.want)), n)

			list, err := gw.FindByQuery(ctx, q.SelectSQL(), q.Args...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, names(list))
		})
	}
}

func TestGateway_SearchMatchesNonASCIIText(t *testing.T) {
	t.Parallel()
	gw := NewGateway[testState](setupTestDB(t))
	ctx := context.Background()
	for _, s := range []testState{{Name: "Conceição", Acronym: "CC"}, {Name: "Concórdia", Acronym: "CO"}} {
		s := s
		require.NoError(t, gw.Save(ctx, &s))
	}

	b := search.NewBuilder("test_states", gw.Dialect())
	for _, value := range []string{"Conceição", "conceiçao", "CONCEIÇÃO", "ceiç"} {
		q, err := b.Build(search.Request{Field: &search.Field{Column: "name"}, Mode: search.Contains, Value: value})
		require.NoError(t, err)

		n, err := gw.Count(ctx, q.CountSQL(), q.Args...)
		require.NoError(t, err, value)
		assert.Equal(t, int64(1), n, value)
	}

	q, err := b.Build(search.Request{Field: &search.Field{Column: "id"}, Mode: search.Equals, Value: "2"})
	require.NoError(t, err)
	list, err := gw.FindByQuery(ctx, q.SelectSQL(), q.Args...)
	require.NoError(t, err)
	assert.Equal(t, []string{"Concórdia"}, names(list))
}

func TestGateway_SearchPagesCoverTies(t *testing.T) {
	t.Parallel()
	gw := NewGateway[testState](setupTestDB(t))
	ctx := context.Background()

	const total = 7
	for i := 0; i < total; i++ {
		s := testState{Name: "Ana", Acronym: fmt.Sprintf("A%d", i)}
		require.NoError(t, gw.Save(ctx, &s))
	}

	q, err := search.NewBuilder("test_states", gw.Dialect()).Build(search.Request{
		Field: &search.Field{Column: "name"},
		Mode:  search.Equals,
		Value: "ana",
	})
	require.NoError(t, err)

	n, err := gw.Count(ctx, q.CountSQL(), q.Args...)
	require.NoError(t, err)
	require.Equal(t, int64(total), n)

	seen := map[uint]bool{}
	for first := 0; first < total; first += 2 {
		page, err := gw.FindByQueryPage(ctx, q.SelectSQL(), first, 2, q.Args...)
		require.NoError(t, err)
		assert.LessOrEqual(t, len(page), 2)
		for _, s := range page {
			assert.False(t, seen[s.ID], "id %d on two pages", s.ID)
			seen[s.ID] = true
		}
	}
	assert.Len(t, seen, total)
}

func TestGateway_FindByQueryPage(t *testing.T) {
	t.Parallel()
	gw := NewGateway[testState](setupTestDB(t))
	seedStates(t, gw)
	ctx := context.Background()

	sql := "SELECT * FROM test_states WHERE acronym <> ? ORDER BY name"

	page, err := gw.FindByQueryPage(ctx, sql, 0, 2, "XX")
	require.NoError(t, err)
	assert.Equal(t, []string{"Paraná", "Santa Catarina"}, names(page))

	page, err = gw.FindByQueryPage(ctx, sql, 2, 2, "XX")
	require.NoError(t, err)
	assert.Equal(t, []string{"São Paulo"}, names(page))

	page, err = gw.FindByQueryPage(ctx, sql, 0, 0, "XX")
	require.NoError(t, err)
	assert.Empty(t, page)
}

func TestGateway_FindUniqueByProperty(t *testing.T) {
	t.Parallel()
	gw := NewGateway[testState](setupTestDB(t))
	seedStates(t, gw)
	ctx := context.Background()

	s, err := gw.FindUniqueByProperty(ctx, "acronym", "SC", search.Condition{})
	require.NoError(t, err)
	assert.Equal(t, "Santa Catarina", s.Name)

	_, err = gw.FindUniqueByProperty(ctx, "acronym", "SC", search.Where("name = ?", "other"))
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = gw.FindUniqueByProperty(ctx, "acronym = 'SC' OR 1=1 --", "x", search.Condition{})
	assert.ErrorIs(t, err, ErrInvalidColumn)
}

func TestGateway_ExecAndRawList(t *testing.T) {
	t.Parallel()
	gw := NewGateway[testState](setupTestDB(t))
	seedStates(t, gw)
	ctx := context.Background()

	n, err := gw.Exec(ctx, "UPDATE test_states SET name = ? WHERE acronym = ?", "Estado de São Paulo", "SP")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	rows, err := gw.RawList(ctx, "SELECT name, acronym FROM test_states WHERE acronym = ?", "SP")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Estado de São Paulo", text(rows[0]["name"]))
}

func TestGateway_AuditTrail(t *testing.T) {
	t.Parallel()
	gw := NewGateway[testDoc](setupTestDB(t), WithAudit("doc"))
	ctx := WithActor(context.Background(), 7)

	doc := &testDoc{Title: "audited"}
	require.NoError(t, gw.Save(ctx, doc))
	doc.Title = "audited twice"
	require.NoError(t, gw.Update(ctx, doc))
	require.NoError(t, gw.Delete(context.Background(), doc))

	revs, err := gw.Revisions(context.Background(), doc.ID)
	require.NoError(t, err)
	require.Len(t, revs, 3)

	assert.Equal(t, RevisionAdd, revs[0].Operation)
	assert.Equal(t, RevisionMod, revs[1].Operation)
	assert.Equal(t, RevisionDel, revs[2].Operation)
	require.NotNil(t, revs[0].UserID)
	assert.Equal(t, uint(7), *revs[0].UserID)
	assert.Nil(t, revs[2].UserID, "writes without an actor leave the user empty")
}

func TestGateway_JoinsBoundTransaction(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	gw := NewGateway[testState](db)

	tx := db.Begin()
	require.NoError(t, tx.Error)
	ctx := WithTx(context.Background(), tx)

	require.NoError(t, gw.Save(ctx, &testState{Name: "Roraima", Acronym: "RR"}))
	n, err := gw.TotalRows(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	require.NoError(t, tx.Rollback().Error)

	n, err = gw.TotalRows(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func names(list []testState) []string {
	out := make([]string, len(list))
	for i, s := range list {
		out[i] = s.Name
	}
	return out
}

func text(v any) string {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return fmt.Sprint(v)
}
