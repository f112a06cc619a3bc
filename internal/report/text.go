package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"
)

// TextOptions controls the column-aligned text rendering.
type TextOptions struct {
	// Precision overrides each component's precision when > 0
	Precision int

	// Width is the minimum width of numeric columns
	Width int

	PrintCount       bool
	PrintMean        bool
	PrintStats       bool
	PrintPercentiles bool

	// Flat renders the flat table instead of the call tree
	Flat bool

	// Colors is the color scheme; nil renders without colors
	Colors *ColorScheme
}

// DefaultTextOptions prints every column except percentiles.
func DefaultTextOptions() TextOptions {
	return TextOptions{
		Width:      10,
		PrintCount: true,
		PrintMean:  true,
		PrintStats: true,
	}
}

type column struct {
	header string
	cell   func(n *Node) string
}

// WriteText renders every component of the document in registration order.
func WriteText(w io.Writer, d *Document, opts TextOptions) error {
	for i, c := range d.Ordered() {
		if i > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		if err := WriteComponentText(w, c, opts); err != nil {
			return err
		}
	}
	return nil
}

// WriteComponentText renders one component as a table. Timeline events are
// listed after the table when present.
func WriteComponentText(w io.Writer, c *Component, opts TextOptions) error {
	colors := opts.Colors
	if colors == nil {
		colors = NoColorScheme()
	}

	precision := c.Precision
	if opts.Precision > 0 {
		precision = opts.Precision
	}
	num := func(v float64) string {
		if c.Kind == "int" && c.UnitValue == 1 {
			return strconv.FormatFloat(v, 'f', 0, 64)
		}
		return strconv.FormatFloat(v, 'f', precision, 64)
	}

	cols := []column{{header: "LABEL", cell: labelCell}}
	if opts.PrintCount {
		cols = append(cols, column{header: "COUNT", cell: func(n *Node) string { return strconv.FormatInt(n.Count, 10) }})
	}
	cols = append(cols,
		column{header: "DEPTH", cell: func(n *Node) string { return strconv.Itoa(n.Depth) }},
		column{header: "METRIC", cell: func(*Node) string { return c.Name }},
		column{header: "UNITS", cell: func(*Node) string { return c.Unit }},
		column{header: "VALUE", cell: func(n *Node) string { return num(n.Value) }},
	)
	if opts.PrintMean {
		cols = append(cols, column{header: "MEAN", cell: func(n *Node) string { return num(n.Mean) }})
	}
	if opts.PrintStats {
		cols = append(cols,
			column{header: "MIN", cell: func(n *Node) string { return num(n.Min) }},
			column{header: "MAX", cell: func(n *Node) string { return num(n.Max) }},
			column{header: "STDDEV", cell: func(n *Node) string { return num(n.StdDev) }},
		)
	}
	if opts.PrintPercentiles && c.Category == "timing" {
		pct := func(get func(*Percentiles) float64) func(n *Node) string {
			return func(n *Node) string {
				if n.Percentiles == nil {
					return "-"
				}
				return num(get(n.Percentiles))
			}
		}
		cols = append(cols,
			column{header: "P50", cell: pct(func(p *Percentiles) float64 { return p.P50 })},
			column{header: "P95", cell: pct(func(p *Percentiles) float64 { return p.P95 })},
			column{header: "P99", cell: pct(func(p *Percentiles) float64 { return p.P99 })},
		)
	}

	nodes := c.Graph
	if opts.Flat {
		nodes = c.Flat
	}

	rows := make([][]string, len(nodes))
	widths := make([]int, len(cols))
	for j, col := range cols {
		widths[j] = utf8.RuneCountInString(col.header)
		if j > 0 && widths[j] < opts.Width {
			widths[j] = opts.Width
		}
	}
	for i := range nodes {
		rows[i] = make([]string, len(cols))
		for j, col := range cols {
			rows[i][j] = col.cell(&nodes[i])
			if l := utf8.RuneCountInString(rows[i][j]); l > widths[j] {
				widths[j] = l
			}
		}
	}

	total := 1
	for _, wd := range widths {
		total += wd + 3
	}
	border := colors.Border.Sprint("|" + strings.Repeat("-", total-2) + "|")

	title := strings.ToUpper(c.Description)
	if title == "" {
		title = strings.ToUpper(c.Name)
	}
	if utf8.RuneCountInString(title) > total-4 {
		title = string([]rune(title)[:total-4])
	}

	var sb strings.Builder
	sb.WriteString(border + "\n")
	sb.WriteString(colors.Border.Sprint("| ") + colors.Title.Sprint(pad(title, total-4, false)) + colors.Border.Sprint(" |") + "\n")
	sb.WriteString(border + "\n")

	sb.WriteString(colors.Border.Sprint("|"))
	for j, col := range cols {
		sb.WriteString(" " + colors.Header.Sprint(center(col.header, widths[j])) + " " + colors.Border.Sprint("|"))
	}
	sb.WriteString("\n" + border + "\n")

	for i, row := range rows {
		sb.WriteString(colors.Border.Sprint("|"))
		for j, cell := range row {
			var text string
			switch {
			case j == 0:
				text = colors.Label.Sprint(pad(cell, widths[j], false))
			case nodes[i].Degraded:
				text = colors.Degraded.Sprint(pad(cell, widths[j], true))
			default:
				text = colors.Value.Sprint(pad(cell, widths[j], true))
			}
			sb.WriteString(" " + text + " " + colors.Border.Sprint("|"))
		}
		sb.WriteString("\n")
	}
	sb.WriteString(border + "\n")

	if len(c.Timeline) > 0 {
		sb.WriteString(fmt.Sprintf("\n%s timeline (%d events)\n", c.Name, len(c.Timeline)))
		for _, e := range c.Timeline {
			sb.WriteString(fmt.Sprintf("  #%-6d thread %-3d %-40s %s %s\n", e.Seq, e.Thread, e.Prefix, num(e.Value), c.Unit))
		}
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

// labelCell indents nested regions below their parent.
func labelCell(n *Node) string {
	if n.Depth <= 1 {
		return ">>> " + n.Key
	}
	return ">>> " + strings.Repeat("  ", n.Depth-2) + "|_" + n.Key
}

func pad(s string, width int, right bool) string {
	gap := width - utf8.RuneCountInString(s)
	if gap <= 0 {
		return s
	}
	if right {
		return strings.Repeat(" ", gap) + s
	}
	return s + strings.Repeat(" ", gap)
}

func center(s string, width int) string {
	gap := width - utf8.RuneCountInString(s)
	if gap <= 0 {
		return s
	}
	left := gap / 2
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", gap-left)
}
