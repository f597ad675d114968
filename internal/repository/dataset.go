package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/templui/datafolio/internal/db"
	"github.com/templui/datafolio/internal/grid"
)

// DatasetRepository manages the physical tables holding uploaded data. Each
// has an auto-increment id column followed by one TEXT column per data column.
type DatasetRepository interface {
	Create(ctx context.Context, name string, columns []string) error
	Insert(ctx context.Context, name string, columns []string, rows []grid.Row) error
	Drop(ctx context.Context, name string) error
	Load(ctx context.Context, name string) (grid.Grid, error)
}

type datasetRepository struct {
	db      sqlx.ExtContext
	dialect db.Dialect
}

func NewDatasetRepository(q sqlx.ExtContext) DatasetRepository {
	return &datasetRepository{db: q, dialect: db.DialectFor(q.DriverName())}
}

func (r *datasetRepository) Create(ctx context.Context, name string, columns []string) error {
	defs := make([]string, 0, len(columns)+1)
	defs = append(defs, r.dialect.IDColumn("id"))
	for _, c := range columns {
		defs = append(defs, db.QuoteIdent(c)+" TEXT")
	}
	query := fmt.Sprintf("CREATE TABLE %s (%s)", db.QuoteIdent(name), strings.Join(defs, ", "))

	_, err := r.db.ExecContext(ctx, query)
	if isDuplicateTable(err) {
		return ErrTableExists
	}

	return err
}

// Insert writes rows in order. Values are stored as text; absent and nil
// values are stored as NULL. Keys outside columns are ignored.
func (r *datasetRepository) Insert(ctx context.Context, name string, columns []string, rows []grid.Row) error {
	if len(columns) == 0 || len(rows) == 0 {
		return nil
	}

	quoted := make([]string, len(columns))
	placeholders := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = db.QuoteIdent(c)
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		db.QuoteIdent(name), strings.Join(quoted, ", "), strings.Join(placeholders, ", "))

	args := make([]any, len(columns))
	for n, row := range rows {
		for i, c := range columns {
			v, ok := row[c]
			if !ok || v == nil {
				args[i] = nil
				continue
			}
			args[i] = grid.FormatValue(v)
		}
		_, err := r.db.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("failed to insert row %d: %w", n, err)
		}
	}

	return nil
}

func (r *datasetRepository) Drop(ctx context.Context, name string) error {
	_, err := r.db.ExecContext(ctx, "DROP TABLE IF EXISTS "+db.QuoteIdent(name))
	return err
}

// Load returns the table's data columns and rows in insertion order.
func (r *datasetRepository) Load(ctx context.Context, name string) (grid.Grid, error) {
	query := fmt.Sprintf("SELECT * FROM %s ORDER BY id", db.QuoteIdent(name))

	rows, err := r.db.QueryxContext(ctx, query)
	if isUndefinedTable(err) {
		return grid.Grid{}, ErrDatasetNotFound
	}
	if err != nil {
		return grid.Grid{}, err
	}
	defer rows.Close()

	names, err := rows.Columns()
	if err != nil {
		return grid.Grid{}, err
	}
	columns := make([]string, 0, len(names))
	for _, c := range names {
		if c != "id" {
			columns = append(columns, c)
		}
	}

	out := make([]grid.Row, 0)
	for rows.Next() {
		values, err := rows.SliceScan()
		if err != nil {
			return grid.Grid{}, err
		}
		row := make(grid.Row, len(columns))
		for i, c := range names {
			if c == "id" {
				continue
			}
			row[c] = textValue(values[i])
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return grid.Grid{}, err
	}

	return grid.New(columns, out), nil
}

func textValue(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case []byte:
		return string(x)
	case string:
		return x
	default:
		return grid.FormatValue(x)
	}
}
