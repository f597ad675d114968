package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/templui/datafolio/internal/grid"
)

type outputFlags struct {
	format string
}

func (o *outputFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.format, "format", "f", "table", "output format (table, markdown, csv, tsv)")
}

func ShowCmd() *cobra.Command {
	out := &outputFlags{}
	cmd := &cobra.Command{
		Use:   "show FILE",
		Short: "Print a CSV or TSV file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := readGrid(args[0])
			if err != nil {
				return err
			}
			return writeGrid(cmd.OutOrStdout(), g, out.format)
		},
	}
	out.register(cmd)
	return cmd
}

func JoinCmd() *cobra.Command {
	out := &outputFlags{}
	var leftKey, rightKey, kind string
	cmd := &cobra.Command{
		Use:   "join LEFT RIGHT",
		Short: "Join two CSV or TSV files on a key column",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := grid.ParseJoinKind(kind)
			if err != nil {
				return err
			}
			left, err := readGrid(args[0])
			if err != nil {
				return err
			}
			right, err := readGrid(args[1])
			if err != nil {
				return err
			}
			if rightKey == "" {
				rightKey = leftKey
			}
			joined, err := grid.Join(left, right, leftKey, rightKey, k)
			if err != nil {
				return err
			}
			return writeGrid(cmd.OutOrStdout(), joined, out.format)
		},
	}
	cmd.Flags().StringVar(&leftKey, "left-key", "", "key column of LEFT")
	cmd.Flags().StringVar(&rightKey, "right-key", "", "key column of RIGHT (defaults to --left-key)")
	cmd.Flags().StringVar(&kind, "kind", "inner", "join kind (inner, left, right)")
	_ = cmd.MarkFlagRequired("left-key")
	out.register(cmd)
	return cmd
}

func GroupCmd() *cobra.Command {
	out := &outputFlags{}
	var column, op string
	cmd := &cobra.Command{
		Use:   "group FILE",
		Short: "Aggregate one column grouped by all the others",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			agg, err := grid.ParseAggregate(op)
			if err != nil {
				return err
			}
			g, err := readGrid(args[0])
			if err != nil {
				return err
			}
			grouped, err := grid.Group(g, column, agg)
			if err != nil {
				return err
			}
			return writeGrid(cmd.OutOrStdout(), grouped, out.format)
		},
	}
	cmd.Flags().StringVar(&column, "agg", "", "column to aggregate")
	cmd.Flags().StringVar(&op, "op", "count", "aggregate (count, sum, min, max, avg)")
	_ = cmd.MarkFlagRequired("agg")
	out.register(cmd)
	return cmd
}

func readGrid(path string) (grid.Grid, error) {
	delim, err := grid.DelimiterFor(path)
	if err != nil {
		return grid.Grid{}, err
	}
	f, err := os.Open(path)
	if err != nil {
		return grid.Grid{}, err
	}
	defer f.Close()

	g, err := grid.ParseDelimited(f, delim)
	if err != nil {
		return grid.Grid{}, fmt.Errorf("%s: %w", path, err)
	}
	return g, nil
}

func writeGrid(w io.Writer, g grid.Grid, format string) error {
	switch format {
	case "csv", "tsv":
		delim, err := grid.DelimiterFor(format)
		if err != nil {
			return err
		}
		return grid.WriteDelimited(w, g, delim)
	case "markdown", "md":
		_, err := io.WriteString(w, grid.Markdown(g))
		return err
	case "table", "":
		r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(0))
		if err != nil {
			return err
		}
		rendered, err := r.Render(grid.Markdown(g))
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, rendered)
		return err
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}
