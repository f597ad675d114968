package service

import (
	"bytes"
	"context"
	"mime/multipart"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/templui/datafolio/internal/cache"
	"github.com/templui/datafolio/internal/dbtest"
	"github.com/templui/datafolio/internal/grid"
	"github.com/templui/datafolio/internal/model"
	"github.com/templui/datafolio/internal/repository"
	"github.com/templui/datafolio/internal/storage"
)

const testPassword = "correct-horse-battery"

type testEnv struct {
	store      *repository.Store
	storage    *storage.MemoryStorage
	cache      *cache.Memory
	auth       *AuthService
	portfolios *PortfolioService
	tables     *TableService
	files      *FileService
	analysis   *AnalysisService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := repository.NewStore(dbtest.Open(t))
	st := storage.NewMemoryStorage()
	c := cache.NewMemory()
	email := NewEmailService("", "noreply@example.com", "http://localhost:8090", "Datafolio", true)

	tables := NewTableService(store, c, email, time.Minute)
	files := NewFileService(store, st, email, 1<<20, time.Hour)
	return &testEnv{
		store:      store,
		storage:    st,
		cache:      c,
		auth:       NewAuthService(store.Users, "test-secret", time.Hour),
		portfolios: NewPortfolioService(store, st, c),
		tables:     tables,
		files:      files,
		analysis:   NewAnalysisService(tables, files),
	}
}

func (e *testEnv) user(t *testing.T, email string) *model.User {
	t.Helper()
	u, err := e.auth.Signup(context.Background(), email, testPassword)
	require.NoError(t, err)
	return u
}

func (e *testEnv) portfolio(t *testing.T, user *model.User, name string) *model.Portfolio {
	t.Helper()
	p, err := e.portfolios.Create(context.Background(), user, name)
	require.NoError(t, err)
	return p
}

func (e *testEnv) table(t *testing.T, user *model.User, portfolioID, name string, columns []string, rows ...grid.Row) *model.Table {
	t.Helper()
	tbl, err := e.tables.Create(context.Background(), user, CreateTableInput{
		Name:        name,
		PortfolioID: portfolioID,
		Columns:     columns,
		Rows:        rows,
	})
	require.NoError(t, err)
	return tbl
}

func (e *testEnv) count(t *testing.T, query string, args ...any) int {
	t.Helper()
	var n int
	require.NoError(t, e.store.DB().QueryRowContext(context.Background(), query, args...).Scan(&n))
	return n
}

func fileHeader(t *testing.T, name, content string) *multipart.FileHeader {
	t.Helper()

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	part, err := w.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(body, w.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })
	return form.File["file"][0]
}
