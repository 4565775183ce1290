package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// cellKind decides how a column formats its values and which side it hugs.
type cellKind int

const (
	textCell     cellKind = iota
	countCell             // int
	sizeCell              // int64 bytes, humanized
	durationCell          // time.Duration, rounded
	ageCell               // time.Time, relative to now
	secondsCell           // float64 seconds
)

type column struct {
	title string
	kind  cellKind
}

func textCol(title string) column     { return column{title: title, kind: textCell} }
func countCol(title string) column    { return column{title: title, kind: countCell} }
func sizeCol(title string) column     { return column{title: title, kind: sizeCell} }
func durationCol(title string) column { return column{title: title, kind: durationCell} }
func ageCol(title string) column      { return column{title: title, kind: ageCell} }
func secondsCol(title string) column  { return column{title: title, kind: secondsCell} }

func (c column) align() text.Align {
	if c.kind == textCell || c.kind == ageCell {
		return text.AlignLeft
	}
	return text.AlignRight
}

// format renders one cell. Values of an unexpected type fall back to
// fmt.Sprint so a mismatched row still prints.
func (c column) format(value any) string {
	if value == nil {
		return ""
	}
	switch c.kind {
	case countCell:
		if n, ok := value.(int); ok {
			return strconv.Itoa(n)
		}
	case sizeCell:
		if n, ok := value.(int64); ok {
			if n < 0 {
				n = 0
			}
			return humanize.Bytes(uint64(n))
		}
	case durationCell:
		if d, ok := value.(time.Duration); ok {
			if d >= time.Minute {
				return d.Round(time.Second).String()
			}
			return d.Round(time.Millisecond).String()
		}
	case ageCell:
		if ts, ok := value.(time.Time); ok {
			if ts.IsZero() {
				return "-"
			}
			return humanize.Time(ts)
		}
	case secondsCell:
		if f, ok := value.(float64); ok {
			return strconv.FormatFloat(f, 'f', 3, 64) + "s"
		}
	}
	if s, ok := value.(string); ok {
		return s
	}
	return fmt.Sprint(value)
}

// renderTable draws rows under columns. A non-nil footer adds a totals row
// formatted like the body.
func renderTable(columns []column, rows [][]any, footer []any) string {
	if len(columns) == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, len(columns))
	configs := make([]table.ColumnConfig, len(columns))
	for i, col := range columns {
		header[i] = col.title
		configs[i] = table.ColumnConfig{
			Number:      i + 1,
			Align:       col.align(),
			AlignFooter: col.align(),
			AlignHeader: text.AlignLeft,
		}
	}
	tw.AppendHeader(header)
	tw.SetColumnConfigs(configs)

	for _, row := range rows {
		tw.AppendRow(formatRow(columns, row))
	}
	if footer != nil {
		tw.AppendFooter(formatRow(columns, footer))
	}
	return tw.Render()
}

func formatRow(columns []column, values []any) table.Row {
	row := make(table.Row, len(columns))
	for i, col := range columns {
		var value any
		if i < len(values) {
			value = values[i]
		}
		row[i] = col.format(value)
	}
	return row
}
