// Package output renders engine results as pretty tables, CSV or JSON.
package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/iwvelando/cre-underwriter/pkg/constants"
	"github.com/iwvelando/cre-underwriter/pkg/format"
	"github.com/jedib0t/go-pretty/v6/table"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

type cellKind int

const (
	textCell cellKind = iota
	moneyCell
	rateCell
	multipleCell
	numberCell
)

// cell keeps the raw value so each format can render it its own way.
type cell struct {
	kind cellKind
	v    *float64
	s    string
}

func text(s string) cell { return cell{kind: textCell, s: s} }
func money(v float64) cell { return cell{kind: moneyCell, v: &v} }
func moneyPtr(v *float64) cell { return cell{kind: moneyCell, v: v} }
func rate(v *float64) cell { return cell{kind: rateCell, v: v} }
func rateOf(v float64) cell { return cell{kind: rateCell, v: &v} }
func multiple(v *float64) cell { return cell{kind: multipleCell, v: v} }
func number(v *float64) cell { return cell{kind: numberCell, v: v} }
func integer(v int) cell { return text(strconv.Itoa(v)) }
func numberOf(v float64) cell { return cell{kind: numberCell, v: &v} }
func label(name string, c cell) []cell { return []cell{text(name), c} }

// section is one titled table.
type section struct {
	title  string
	header []string
	rows   [][]cell
}

var printer = message.NewPrinter(language.English)

func (c cell) pretty() string {
	if c.kind == textCell {
		return c.s
	}
	if c.v == nil {
		return format.NotAvailable
	}
	v := *c.v
	switch c.kind {
	case moneyCell:
		if v < 0 {
			return printer.Sprintf("-$%.0f", -v)
		}
		return printer.Sprintf("$%.0f", v)
	case rateCell:
		return format.Percent(c.v)
	case multipleCell:
		return format.Multiple(c.v)
	default:
		return printer.Sprintf("%.2f", v)
	}
}

func (c cell) csv() string {
	if c.kind == textCell {
		return c.s
	}
	if c.v == nil {
		return ""
	}
	if c.kind == moneyCell {
		return strconv.FormatFloat(*c.v, 'f', 2, 64)
	}
	return strconv.FormatFloat(*c.v, 'f', -1, 64)
}

// render writes value as JSON, or its sections as tables or CSV.
func render(w io.Writer, outputFormat string, value interface{}, sections []section, warnings []string) error {
	switch outputFormat {
	case constants.OutputFormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(value)
	case constants.OutputFormatCSV:
		return renderCSV(w, sections)
	case constants.OutputFormatPretty, "":
		renderPretty(w, sections)
		renderWarnings(w, warnings)
		return nil
	default:
		return fmt.Errorf("unsupported output format %q", outputFormat)
	}
}

func renderPretty(w io.Writer, sections []section) {
	for i, s := range sections {
		if len(s.rows) == 0 {
			continue
		}
		t := table.NewWriter()
		t.SetOutputMirror(w)
		t.SetStyle(table.StyleLight)
		if s.title != "" {
			t.SetTitle(s.title)
		}
		if len(s.header) > 0 {
			header := make(table.Row, len(s.header))
			for j, h := range s.header {
				header[j] = h
			}
			t.AppendHeader(header)
		}
		for _, r := range s.rows {
			row := make(table.Row, len(r))
			for j, c := range r {
				row[j] = c.pretty()
			}
			t.AppendRow(row)
		}
		t.Render()
		if i < len(sections)-1 {
			_, _ = fmt.Fprintln(w)
		}
	}
}

// renderCSV writes each section as its own CSV block separated by a blank line.
func renderCSV(w io.Writer, sections []section) error {
	first := true
	for _, s := range sections {
		if len(s.rows) == 0 {
			continue
		}
		if !first {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		first = false

		cw := csv.NewWriter(w)
		if len(s.header) > 0 {
			if err := cw.Write(s.header); err != nil {
				return err
			}
		}
		for _, r := range s.rows {
			record := make([]string, len(r))
			for j, c := range r {
				record[j] = c.csv()
			}
			if err := cw.Write(record); err != nil {
				return err
			}
		}
		cw.Flush()
		if err := cw.Error(); err != nil {
			return err
		}
	}
	return nil
}

func renderWarnings(w io.Writer, warnings []string) {
	if len(warnings) == 0 {
		return
	}
	_, _ = fmt.Fprintln(w, "\nWarnings:")
	for _, warning := range warnings {
		_, _ = fmt.Fprintf(w, "  - %s\n", warning)
	}
}
