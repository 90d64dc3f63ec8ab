package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/mattn/go-isatty"

	"github.com/vyrodovalexey/catalog-api/internal/client"
	"github.com/vyrodovalexey/catalog-api/internal/model"
)

// Output formats.
const (
	outputAuto  = "auto"
	outputTable = "table"
	outputJSON  = "json"
)

var (
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#A78BFA")).Bold(true)
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C7086"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F38BA8")).Bold(true)
)

func validateOutput(format string) error {
	switch format {
	case outputAuto, outputTable, outputJSON:
		return nil
	default:
		return fmt.Errorf("unknown output format %q (want auto, table or json)", format)
	}
}

func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// useTable resolves the output format for w. Auto picks a table on a
// terminal and JSON otherwise.
func (o *globalOptions) useTable() bool {
	switch o.output {
	case outputTable:
		return true
	case outputJSON:
		return false
	default:
		return isTerminal(o.stdout)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func renderItems(w io.Writer, items []model.Item) error {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		price := ""
		if p, ok := item.Price(); ok {
			price = strconv.FormatFloat(p, 'f', -1, 64)
		}
		rows = append(rows, []string{
			strconv.FormatInt(item.ID, 10),
			item.Name,
			price,
			item.Category(),
			extraFields(item),
		})
	}

	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(mutedStyle).
		Headers("ID", "NAME", "PRICE", "CATEGORY", "OTHER").
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})

	_, err := fmt.Fprintln(w, tbl.Render())
	return err
}

func renderPagination(w io.Writer, p *model.Pagination) error {
	_, err := fmt.Fprintln(w, mutedStyle.Render(fmt.Sprintf(
		"page %d of %d, %d items total, more: %t",
		p.Page, p.TotalPages, p.Total, p.HasMore,
	)))
	return err
}

func renderStats(w io.Writer, s *model.Stats) error {
	_, err := fmt.Fprintf(w, "%s %d\n%s %s\n",
		headerStyle.Render("Total items:  "), s.Total,
		headerStyle.Render("Average price:"), strconv.FormatFloat(s.AveragePrice, 'f', 2, 64),
	)
	return err
}

// extraFields lists fields other than the well-known ones as key=value.
func extraFields(item model.Item) string {
	keys := make([]string, 0, len(item.Fields))
	for key := range item.Fields {
		if key != model.FieldPrice && key != model.FieldCategory {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	out := ""
	for i, key := range keys {
		if i > 0 {
			out += " "
		}
		out += key + "=" + string(item.Fields[key])
	}
	return out
}

func printError(w io.Writer, err error) {
	msg := err.Error()

	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		msg = fmt.Sprintf("%s (HTTP %d)", apiErr.Message, apiErr.Status)
	}

	if isTerminal(w) {
		msg = errorStyle.Render("error:") + " " + msg
	} else {
		msg = "error: " + msg
	}
	fmt.Fprintln(w, msg)
}
