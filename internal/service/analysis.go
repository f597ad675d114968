package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/templui/datafolio/internal/grid"
	"github.com/templui/datafolio/internal/model"
)

// Source selects the grid an analysis reads: a stored table, an uploaded
// file, or inline columns and rows. View narrows it before use.
type Source struct {
	Table   string     `json:"table,omitempty"`
	FileID  string     `json:"file_id,omitempty"`
	Columns []string   `json:"columns,omitempty"`
	Rows    []grid.Row `json:"rows,omitempty"`
	View    grid.View  `json:"view"`
}

type JoinRequest struct {
	Left     Source `json:"left"`
	Right    Source `json:"right"`
	LeftKey  string `json:"leftKey" validate:"required"`
	RightKey string `json:"rightKey" validate:"required"`
	Kind     string `json:"kind" validate:"omitempty,oneof=inner left right INNER LEFT RIGHT"`
}

type GroupRequest struct {
	Source
	Column    string `json:"column" validate:"required"`
	Aggregate string `json:"aggregate" validate:"required"`
}

type AnalysisService struct {
	tables *TableService
	files  *FileService
}

func NewAnalysisService(tables *TableService, files *FileService) *AnalysisService {
	return &AnalysisService{
		tables: tables,
		files:  files,
	}
}

func (s *AnalysisService) Join(ctx context.Context, user *model.User, req JoinRequest) (grid.Grid, error) {
	kind, err := grid.ParseJoinKind(req.Kind)
	if err != nil {
		return grid.Grid{}, invalidInput(err)
	}

	left, err := s.Resolve(ctx, user, req.Left)
	if err != nil {
		return grid.Grid{}, fmt.Errorf("left: %w", err)
	}
	right, err := s.Resolve(ctx, user, req.Right)
	if err != nil {
		return grid.Grid{}, fmt.Errorf("right: %w", err)
	}

	out, err := grid.Join(left, right, req.LeftKey, req.RightKey, kind)
	if err != nil {
		return grid.Grid{}, invalidInput(err)
	}
	return out, nil
}

func (s *AnalysisService) Group(ctx context.Context, user *model.User, req GroupRequest) (grid.Grid, error) {
	op, err := grid.ParseAggregate(req.Aggregate)
	if err != nil {
		return grid.Grid{}, invalidInput(err)
	}

	g, err := s.Resolve(ctx, user, req.Source)
	if err != nil {
		return grid.Grid{}, err
	}

	out, err := grid.Group(g, req.Column, op)
	if err != nil {
		return grid.Grid{}, invalidInput(err)
	}
	return out, nil
}

// Resolve loads a source and applies its view.
func (s *AnalysisService) Resolve(ctx context.Context, user *model.User, src Source) (grid.Grid, error) {
	var (
		g   grid.Grid
		err error
	)

	switch {
	case countSet(src.Table != "", src.FileID != "", len(src.Columns) > 0) != 1:
		return grid.Grid{}, invalidInput(errors.New("exactly one of table, file_id or columns is required"))
	case src.Table != "":
		g, err = s.tables.Rows(ctx, user, src.Table)
	case src.FileID != "":
		g, err = s.files.Grid(ctx, user, src.FileID)
	default:
		g = grid.New(src.Columns, src.Rows)
	}
	if err != nil {
		return grid.Grid{}, err
	}

	if src.View.IsZero() {
		return g, nil
	}
	out, err := g.Apply(src.View)
	if err != nil {
		return grid.Grid{}, invalidInput(err)
	}
	return out, nil
}

func countSet(flags ...bool) int {
	n := 0
	for _, f := range flags {
		if f {
			n++
		}
	}
	return n
}
