package service

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/templui/datafolio/internal/grid"
	"github.com/templui/datafolio/internal/repository"
)

func TestTableCreateNamesTableAfterOwner(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "alice@example.com")
	p := env.portfolio(t, alice, "Sales")

	tbl := env.table(t, alice, p.ID, "orders", []string{"region", "amount"},
		grid.Row{"region": "north", "amount": "10"},
		grid.Row{"region": "south", "amount": 2.5},
	)

	assert.Equal(t, "orders_"+alice.ShortID(), tbl.Name)
	assert.Equal(t, "orders", tbl.DisplayName())

	g, err := env.tables.Rows(ctx, alice, tbl.Name)
	require.NoError(t, err)
	assert.Equal(t, []string{"region", "amount"}, g.Columns)
	assert.Equal(t, []grid.Row{
		{"region": "north", "amount": "10"},
		{"region": "south", "amount": "2.5"},
	}, g.Rows)

	contents, err := env.portfolios.Contents(ctx, alice, p.ID)
	require.NoError(t, err)
	require.Len(t, contents.Tables, 1)
	assert.Equal(t, tbl.Name, contents.Tables[0].Name)
}

func TestTableCreateRejectsInvalidInput(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "alice@example.com")
	p := env.portfolio(t, alice, "Sales")

	tests := []struct {
		name    string
		table   string
		columns []string
	}{
		{"bad name", "1orders", []string{"a"}},
		{"quote in name", `orders"; DROP TABLE users; --`, []string{"a"}},
		{"no columns", "orders", nil},
		{"reserved id", "orders", []string{"id", "a"}},
		{"duplicate column", "orders", []string{"a", "A"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.tables.Create(ctx, alice, CreateTableInput{Name: tt.table, PortfolioID: p.ID, Columns: tt.columns})
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestTableCreateDuplicateRollsBack(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "alice@example.com")
	p := env.portfolio(t, alice, "Sales")
	env.table(t, alice, p.ID, "orders", []string{"a"}, grid.Row{"a": "1"})

	_, err := env.tables.Create(ctx, alice, CreateTableInput{
		Name:        "orders",
		PortfolioID: p.ID,
		Columns:     []string{"b"},
		Rows:        []grid.Row{{"b": "2"}},
	})
	assert.ErrorIs(t, err, ErrTableExists)
	assert.Equal(t, 1, env.count(t, `SELECT COUNT(*) FROM data_tables`))
}

func TestTableCreateInForeignPortfolio(t *testing.T) {
	env := newTestEnv(t)
	alice := env.user(t, "alice@example.com")
	bob := env.user(t, "bob@example.com")
	p := env.portfolio(t, alice, "Sales")

	_, err := env.tables.Create(context.Background(), bob, CreateTableInput{
		Name:        "orders",
		PortfolioID: p.ID,
		Columns:     []string{"a"},
	})
	assert.ErrorIs(t, err, ErrPortfolioNotFound)

	_, err = env.store.Datasets.Load(context.Background(), "orders_"+bob.ShortID())
	assert.ErrorIs(t, err, repository.ErrDatasetNotFound)
}

func TestTableCopyIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "alice@example.com")
	p1 := env.portfolio(t, alice, "One")
	p2 := env.portfolio(t, alice, "Two")
	tbl := env.table(t, alice, p1.ID, "orders", []string{"a"})

	created, err := env.tables.Copy(ctx, alice, tbl.Name, p1.ID)
	require.NoError(t, err)
	assert.False(t, created)

	created, err = env.tables.Copy(ctx, alice, tbl.Name, p2.ID)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = env.tables.Copy(ctx, alice, tbl.Name, p2.ID)
	require.NoError(t, err)
	assert.False(t, created)

	assert.Equal(t, 2, env.count(t, `SELECT COUNT(*) FROM data_tables WHERE name = $1`, tbl.Name))
}

func TestTableCopyRequiresOwnership(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "alice@example.com")
	bob := env.user(t, "bob@example.com")
	tbl := env.table(t, alice, env.portfolio(t, alice, "One").ID, "orders", []string{"a"})
	bobs := env.portfolio(t, bob, "Mine")

	_, err := env.tables.Copy(ctx, bob, tbl.Name, bobs.ID)
	assert.ErrorIs(t, err, ErrTableNotFound)
}

func TestTableRemoveKeepsPhysicalTable(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "alice@example.com")
	p := env.portfolio(t, alice, "One")
	tbl := env.table(t, alice, p.ID, "orders", []string{"a"}, grid.Row{"a": "x"})

	require.NoError(t, env.tables.RemoveFromPortfolio(ctx, alice, tbl.Name, p.ID))
	assert.ErrorIs(t, env.tables.RemoveFromPortfolio(ctx, alice, tbl.Name, p.ID), ErrTableNotFound)

	g, err := env.store.Datasets.Load(ctx, tbl.Name)
	require.NoError(t, err)
	assert.Equal(t, 1, g.Len())
}

func TestTableRemoveKeepsGrantsOnRemainingMapping(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "alice@example.com")
	bob := env.user(t, "bob@example.com")
	p1 := env.portfolio(t, alice, "One")
	p2 := env.portfolio(t, alice, "Two")
	tbl := env.table(t, alice, p1.ID, "orders", []string{"a"}, grid.Row{"a": "x"})
	_, err := env.tables.Copy(ctx, alice, tbl.Name, p2.ID)
	require.NoError(t, err)
	require.NoError(t, env.tables.Share(ctx, alice, tbl.ID, "bob@example.com"))

	require.NoError(t, env.tables.RemoveFromPortfolio(ctx, alice, tbl.Name, p1.ID))

	g, err := env.tables.Rows(ctx, bob, tbl.Name)
	require.NoError(t, err)
	assert.Equal(t, 1, g.Len())
	assert.Equal(t, 1, env.count(t, `SELECT COUNT(*) FROM shared_tables`))

	require.NoError(t, env.tables.RemoveFromPortfolio(ctx, alice, tbl.Name, p2.ID))

	_, err = env.tables.Rows(ctx, bob, tbl.Name)
	assert.ErrorIs(t, err, ErrTableNotFound)
	assert.Equal(t, 0, env.count(t, `SELECT COUNT(*) FROM shared_tables`))
}

func TestTableDeleteDropsEverywhere(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "alice@example.com")
	p1 := env.portfolio(t, alice, "One")
	p2 := env.portfolio(t, alice, "Two")
	tbl := env.table(t, alice, p1.ID, "orders", []string{"a"}, grid.Row{"a": "x"})
	_, err := env.tables.Copy(ctx, alice, tbl.Name, p2.ID)
	require.NoError(t, err)

	_, err = env.tables.Rows(ctx, alice, tbl.Name)
	require.NoError(t, err)
	_, err = env.cache.Get(ctx, gridKey(tbl.Name))
	require.NoError(t, err)

	require.NoError(t, env.tables.Delete(ctx, alice, tbl.Name))

	assert.Equal(t, 0, env.count(t, `SELECT COUNT(*) FROM data_tables`))
	_, err = env.store.Datasets.Load(ctx, tbl.Name)
	assert.ErrorIs(t, err, repository.ErrDatasetNotFound)
	_, err = env.cache.Get(ctx, gridKey(tbl.Name))
	assert.Error(t, err)
}

func TestTableShare(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "alice@example.com")
	bob := env.user(t, "bob@example.com")
	tbl := env.table(t, alice, env.portfolio(t, alice, "One").ID, "orders", []string{"a"}, grid.Row{"a": "x"})

	_, err := env.tables.Rows(ctx, bob, tbl.Name)
	assert.ErrorIs(t, err, ErrTableNotFound)

	t.Run("unknown email creates no grant", func(t *testing.T) {
		err := env.tables.Share(ctx, alice, tbl.ID, "nobody@example.com")
		assert.ErrorIs(t, err, ErrUserNotFound)
		assert.Equal(t, 0, env.count(t, `SELECT COUNT(*) FROM shared_tables`))
	})

	t.Run("self share is rejected", func(t *testing.T) {
		err := env.tables.Share(ctx, alice, tbl.ID, "Alice@Example.com")
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("only the owner shares", func(t *testing.T) {
		err := env.tables.Share(ctx, bob, tbl.ID, "alice@example.com")
		assert.ErrorIs(t, err, ErrTableNotFound)
	})

	t.Run("grant is deduplicated", func(t *testing.T) {
		require.NoError(t, env.tables.Share(ctx, alice, tbl.ID, "bob@example.com"))
		require.NoError(t, env.tables.Share(ctx, alice, tbl.ID, "bob@example.com"))
		assert.Equal(t, 1, env.count(t, `SELECT COUNT(*) FROM shared_tables`))

		g, err := env.tables.Rows(ctx, bob, tbl.Name)
		require.NoError(t, err)
		assert.Equal(t, 1, g.Len())

		shared, err := env.portfolios.Contents(ctx, bob, "shared")
		require.NoError(t, err)
		require.Len(t, shared.Tables, 1)
		assert.Equal(t, tbl.Name, shared.Tables[0].Name)
	})

	t.Run("grantee cannot delete", func(t *testing.T) {
		assert.ErrorIs(t, env.tables.Delete(ctx, bob, tbl.Name), ErrTableNotFound)
	})
}

func TestTableExport(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "alice@example.com")
	tbl := env.table(t, alice, env.portfolio(t, alice, "One").ID, "orders", []string{"a", "b"},
		grid.Row{"a": "1", "b": "x y"},
	)

	var buf bytes.Buffer
	require.NoError(t, env.tables.Export(ctx, alice, tbl.Name, "tsv", &buf))
	assert.Equal(t, "a\tb\n1\tx y\n", buf.String())

	err := env.tables.Export(ctx, alice, tbl.Name, "xlsx", &buf)
	assert.ErrorIs(t, err, ErrInvalidInput)
}
