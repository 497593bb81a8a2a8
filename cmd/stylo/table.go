package main

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
)

var (
	winnerColor = color.New(color.FgGreen, color.Bold)
	tieColor    = color.New(color.FgYellow, color.Bold)
)

// tableView is a rounded go-pretty table. Totals go in the footer, which
// keeps its case so channel and total labels read the same.
type tableView struct {
	tw table.Writer
}

func newTable(headers ...string) *tableView {
	style := table.StyleRounded
	style.Format.Footer = text.FormatDefault

	tw := table.NewWriter()
	tw.SetStyle(style)
	tw.AppendHeader(toRow(headers))
	return &tableView{tw: tw}
}

// alignRight right-aligns the given 1-based columns.
func (t *tableView) alignRight(columns ...int) *tableView {
	configs := make([]table.ColumnConfig, 0, len(columns))
	for _, n := range columns {
		configs = append(configs, table.ColumnConfig{
			Number:      n,
			Align:       text.AlignRight,
			AlignFooter: text.AlignRight,
			AlignHeader: text.AlignLeft,
		})
	}
	t.tw.SetColumnConfigs(configs)
	return t
}

func (t *tableView) row(cells ...string) {
	t.tw.AppendRow(toRow(cells))
}

// scoreRow appends label followed by each score at fixed precision.
func (t *tableView) scoreRow(label string, scores ...float64) {
	t.tw.AppendRow(toRow(append([]string{label}, formatScores(scores)...)))
}

func (t *tableView) scoreFooter(label string, scores ...float64) {
	t.tw.AppendFooter(toRow(append([]string{label}, formatScores(scores)...)))
}

func (t *tableView) String() string {
	return t.tw.Render()
}

func toRow(cells []string) table.Row {
	r := make(table.Row, len(cells))
	for i, c := range cells {
		r[i] = c
	}
	return r
}

func formatScores(scores []float64) []string {
	out := make([]string, len(scores))
	for i, v := range scores {
		out[i] = fmt.Sprintf("%.4f", v)
	}
	return out
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
