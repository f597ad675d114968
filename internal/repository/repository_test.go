package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/templui/datafolio/internal/dbtest"
	"github.com/templui/datafolio/internal/grid"
	"github.com/templui/datafolio/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(dbtest.Open(t))
}

func seedUser(t *testing.T, s *Store, email string) *model.User {
	t.Helper()
	u := &model.User{ID: uuid.New().String(), Email: email, CreatedAt: time.Now()}
	require.NoError(t, s.Users.Create(context.Background(), u))
	return u
}

func seedPortfolio(t *testing.T, s *Store, owner *model.User, name string) *model.Portfolio {
	t.Helper()
	p := &model.Portfolio{ID: uuid.New().String(), UserID: owner.ID, Name: name, CreatedAt: time.Now()}
	require.NoError(t, s.Portfolios.Create(context.Background(), p))
	return p
}

func newTable(owner *model.User, name string, p *model.Portfolio) *model.Table {
	return &model.Table{ID: uuid.New().String(), UserID: owner.ID, Name: name, PortfolioID: p.ID, CreatedAt: time.Now()}
}

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	u := seedUser(t, s, "ada@example.com")

	got, err := s.Users.ByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.False(t, got.HasPassword())

	err = s.Users.Create(ctx, &model.User{ID: uuid.New().String(), Email: "ada@example.com", CreatedAt: time.Now()})
	assert.ErrorIs(t, err, ErrDuplicateEmail)

	_, err = s.Users.ByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrUserNotFound)

	hash := "hash"
	got.PasswordHash = &hash
	require.NoError(t, s.Users.Update(ctx, got))
	got, err = s.Users.ByID(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, got.HasPassword())
}

func TestPortfolioRepository(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	u := seedUser(t, s, "ada@example.com")
	p := seedPortfolio(t, s, u, "Finance")

	err := s.Portfolios.Create(ctx, &model.Portfolio{ID: uuid.New().String(), UserID: u.ID, Name: "Finance", CreatedAt: time.Now()})
	assert.ErrorIs(t, err, ErrDuplicatePortfolio)

	list, err := s.Portfolios.ByUser(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, p.ID, list[0].ID)

	require.NoError(t, s.Portfolios.Delete(ctx, p.ID))
	assert.ErrorIs(t, s.Portfolios.Delete(ctx, p.ID), ErrPortfolioNotFound)
}

func TestTableCreateIfAbsentIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	u := seedUser(t, s, "ada@example.com")
	p1 := seedPortfolio(t, s, u, "One")
	p2 := seedPortfolio(t, s, u, "Two")

	require.NoError(t, s.Tables.Create(ctx, newTable(u, "sales_abcd1234", p1)))

	ok, err := s.Tables.CreateIfAbsent(ctx, newTable(u, "sales_abcd1234", p2))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Tables.CreateIfAbsent(ctx, newTable(u, "sales_abcd1234", p2))
	require.NoError(t, err)
	assert.False(t, ok)

	tables, err := s.Tables.ByPortfolio(ctx, p2.ID)
	require.NoError(t, err)
	assert.Len(t, tables, 1)

	err = s.Tables.Create(ctx, newTable(u, "sales_abcd1234", p1))
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestTableAccessAndSharing(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	owner := seedUser(t, s, "owner@example.com")
	other := seedUser(t, s, "other@example.com")
	p := seedPortfolio(t, s, owner, "Main")
	table := newTable(owner, "sales_abcd1234", p)
	require.NoError(t, s.Tables.Create(ctx, table))

	ok, err := s.Tables.CanRead(ctx, owner.ID, table.Name)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Tables.CanRead(ctx, other.ID, table.Name)
	require.NoError(t, err)
	assert.False(t, ok)

	granted, err := s.Shares.GrantTable(ctx, table.ID, other.ID)
	require.NoError(t, err)
	assert.True(t, granted)

	granted, err = s.Shares.GrantTable(ctx, table.ID, other.ID)
	require.NoError(t, err)
	assert.False(t, granted)

	ok, err = s.Tables.CanRead(ctx, other.ID, table.Name)
	require.NoError(t, err)
	assert.True(t, ok)

	shared, err := s.Tables.SharedWith(ctx, other.ID)
	require.NoError(t, err)
	require.Len(t, shared, 1)
	assert.Equal(t, table.ID, shared[0].ID)
}

func TestTableRemoveAndDelete(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	u := seedUser(t, s, "ada@example.com")
	p1 := seedPortfolio(t, s, u, "One")
	p2 := seedPortfolio(t, s, u, "Two")
	reader := seedUser(t, s, "reader@example.com")
	inP1 := newTable(u, "t_abcd1234", p1)
	require.NoError(t, s.Tables.Create(ctx, inP1))
	require.NoError(t, s.Tables.Create(ctx, newTable(u, "t_abcd1234", p2)))
	_, err := s.Shares.GrantTable(ctx, inP1.ID, reader.ID)
	require.NoError(t, err)

	require.NoError(t, s.Tables.RemoveFromPortfolio(ctx, u.ID, "t_abcd1234", p1.ID))
	assert.ErrorIs(t, s.Tables.RemoveFromPortfolio(ctx, u.ID, "t_abcd1234", p1.ID), ErrTableNotFound)

	ok, err := s.Tables.CanRead(ctx, reader.ID, "t_abcd1234")
	require.NoError(t, err)
	assert.True(t, ok, "grant follows the remaining mapping")
	shared, err := s.Tables.SharedWith(ctx, reader.ID)
	require.NoError(t, err)
	require.Len(t, shared, 1)
	assert.Equal(t, p2.ID, shared[0].PortfolioID)

	first, err := s.Tables.OwnedByName(ctx, u.ID, "t_abcd1234")
	require.NoError(t, err)
	assert.Equal(t, p2.ID, first.PortfolioID)

	n, err := s.Tables.DeleteByName(ctx, u.ID, "t_abcd1234")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	_, err = s.Tables.OwnedByName(ctx, u.ID, "t_abcd1234")
	assert.ErrorIs(t, err, ErrTableNotFound)
}

func TestFileRepository(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	owner := seedUser(t, s, "owner@example.com")
	other := seedUser(t, s, "other@example.com")
	p1 := seedPortfolio(t, s, owner, "One")
	p2 := seedPortfolio(t, s, owner, "Two")

	file := &model.File{
		ID: uuid.New().String(), UserID: owner.ID, Name: "q1-1700000000000.csv", PortfolioID: p1.ID,
		MimeType: "text/csv", Size: 12, StoragePath: owner.ID + "/q1-1700000000000.csv", CreatedAt: time.Now(),
	}
	require.NoError(t, s.Files.Create(ctx, file))

	copied := *file
	copied.ID = uuid.New().String()
	copied.PortfolioID = p2.ID
	ok, err := s.Files.CreateIfAbsent(ctx, &copied)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = s.Files.CreateIfAbsent(ctx, &copied)
	require.NoError(t, err)
	assert.False(t, ok)

	count, err := s.Files.CountByStoragePath(ctx, file.StoragePath)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	ok, err = s.Files.CanRead(ctx, other.ID, file.ID)
	require.NoError(t, err)
	assert.False(t, ok)
	_, err = s.Shares.GrantFile(ctx, file.ID, other.ID)
	require.NoError(t, err)
	ok, err = s.Files.CanRead(ctx, other.ID, file.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	shared, err := s.Files.SharedWith(ctx, other.ID)
	require.NoError(t, err)
	assert.Len(t, shared, 1)

	removed, err := s.Files.RemoveFromPortfolio(ctx, owner.ID, file.Name, p1.ID)
	require.NoError(t, err)
	assert.Equal(t, file.ID, removed.ID)
	_, err = s.Files.RemoveFromPortfolio(ctx, owner.ID, file.Name, p1.ID)
	assert.ErrorIs(t, err, ErrFileNotFound)

	ok, err = s.Files.CanRead(ctx, other.ID, copied.ID)
	require.NoError(t, err)
	assert.True(t, ok, "grant follows the remaining mapping")
	shared, err = s.Files.SharedWith(ctx, other.ID)
	require.NoError(t, err)
	require.Len(t, shared, 1)
	assert.Equal(t, copied.ID, shared[0].ID)

	deleted, err := s.Files.DeleteByPortfolio(ctx, p2.ID)
	require.NoError(t, err)
	assert.Len(t, deleted, 1)
	count, err = s.Files.CountByStoragePath(ctx, file.StoragePath)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestDatasetLifecycle(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.Datasets.Create(ctx, "sales_abcd1234", []string{"region", "amount"}))
	assert.ErrorIs(t, s.Datasets.Create(ctx, "sales_abcd1234", []string{"region"}), ErrTableExists)

	rows := []grid.Row{
		{"region": "N", "amount": int64(10)},
		{"region": "S", "amount": nil, "ignored": "x"},
		{"region": "E"},
	}
	require.NoError(t, s.Datasets.Insert(ctx, "sales_abcd1234", []string{"region", "amount"}, rows))

	g, err := s.Datasets.Load(ctx, "sales_abcd1234")
	require.NoError(t, err)
	assert.Equal(t, []string{"region", "amount"}, g.Columns)
	assert.Equal(t, []grid.Row{
		{"region": "N", "amount": "10"},
		{"region": "S", "amount": nil},
		{"region": "E", "amount": nil},
	}, g.Rows)

	require.NoError(t, s.Datasets.Drop(ctx, "sales_abcd1234"))
	require.NoError(t, s.Datasets.Drop(ctx, "sales_abcd1234"))
	_, err = s.Datasets.Load(ctx, "sales_abcd1234")
	assert.ErrorIs(t, err, ErrDatasetNotFound)
}

func TestInTxRollsBack(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	u := seedUser(t, s, "ada@example.com")
	boom := errors.New("boom")

	err := s.InTx(ctx, func(tx *Store) error {
		require.NoError(t, tx.Datasets.Create(ctx, "t_abcd1234", []string{"a"}))
		require.NoError(t, tx.Portfolios.Create(ctx, &model.Portfolio{ID: uuid.New().String(), UserID: u.ID, Name: "X", CreatedAt: time.Now()}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = s.Datasets.Load(ctx, "t_abcd1234")
	assert.ErrorIs(t, err, ErrDatasetNotFound)
	list, err := s.Portfolios.ByUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestPortfolioDeleteCascadesMetadata(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	owner := seedUser(t, s, "owner@example.com")
	other := seedUser(t, s, "other@example.com")
	p := seedPortfolio(t, s, owner, "Main")
	table := newTable(owner, "t_abcd1234", p)
	require.NoError(t, s.Tables.Create(ctx, table))
	_, err := s.Shares.GrantTable(ctx, table.ID, other.ID)
	require.NoError(t, err)

	require.NoError(t, s.Portfolios.Delete(ctx, p.ID))

	_, err = s.Tables.ByID(ctx, table.ID)
	assert.ErrorIs(t, err, ErrTableNotFound)
	shared, err := s.Tables.SharedWith(ctx, other.ID)
	require.NoError(t, err)
	assert.Empty(t, shared)
}
