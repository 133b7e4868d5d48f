package preview

import (
	"html/template"
	"strings"
)

// NoDataText is the single cell shown for an empty table
const NoDataText = "No data available"

var tableTemplate = template.Must(template.New("table").Funcs(template.FuncMap{
	"cell": FormatCell,
}).Parse(`{{if .Empty}}<tr><td>` + NoDataText + `</td></tr>{{else}}<tr>{{range .Columns}}<th>{{.}}</th>{{end}}</tr>{{range .Rows}}<tr>{{range .}}<td>{{cell .}}</td>{{end}}</tr>{{end}}{{end}}`))

// Render returns the full inner HTML of the data table. Every call builds the
// table from scratch; nil or empty input yields one placeholder row.
func Render(t *Table) template.HTML {
	data := struct {
		Empty   bool
		Columns []string
		Rows    [][]any
	}{Empty: t.IsEmpty()}
	if !data.Empty {
		data.Columns = t.Columns
		data.Rows = t.Rows
	}

	var b strings.Builder
	if err := tableTemplate.Execute(&b, data); err != nil {
		// only reachable on a writer error, which strings.Builder never returns
		return template.HTML("<tr><td>" + template.HTMLEscapeString(err.Error()) + "</td></tr>")
	}
	return template.HTML(b.String())
}
