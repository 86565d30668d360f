package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
)

// column describes one listing column. Numeric columns are right aligned.
type column struct {
	title   string
	numeric bool
}

// recordColumns matches the cells produced by recordRow.
var recordColumns = []column{
	{title: "#", numeric: true},
	{title: "Filename"},
	{title: "Rank"},
	{title: "RA", numeric: true},
	{title: "Dec", numeric: true},
	{title: "Secondary"},
	{title: "Comment"},
}

// writeListing prints rows as a box on a terminal and as tab separated
// lines otherwise. Rows shorter than columns are padded with empty cells.
func writeListing(w io.Writer, columns []column, rows [][]string) {
	if len(columns) == 0 {
		return
	}
	if f, ok := w.(*os.File); !ok || !(isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())) {
		titles := make([]string, len(columns))
		for i, c := range columns {
			titles[i] = c.title
		}
		fmt.Fprintln(w, strings.Join(titles, "\t"))
		for _, row := range rows {
			fmt.Fprintln(w, strings.Join(padRow(row, len(columns)), "\t"))
		}
		return
	}

	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleLight)
	header := make(table.Row, len(columns))
	configs := make([]table.ColumnConfig, len(columns))
	for i, c := range columns {
		header[i] = c.title
		configs[i] = table.ColumnConfig{Number: i + 1, AlignHeader: text.AlignLeft}
		if c.numeric {
			configs[i].Align = text.AlignRight
		}
	}
	tw.AppendHeader(header)
	tw.SetColumnConfigs(configs)
	for _, row := range rows {
		cells := padRow(row, len(columns))
		r := make(table.Row, len(cells))
		for i, cell := range cells {
			r[i] = cell
		}
		tw.AppendRow(r)
	}
	tw.Render()
}

func padRow(row []string, n int) []string {
	if len(row) >= n {
		return row[:n]
	}
	ret := make([]string, n)
	copy(ret, row)
	return ret
}
