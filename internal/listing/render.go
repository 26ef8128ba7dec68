package listing

import (
	"bytes"
	"encoding/json"
	"html/template"
	"path"
	"strconv"

	"github.com/dustin/go-humanize"
)

// jsonEntry is the wire shape of §4.8's JSON listing format.
type jsonEntry struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	MTime string `json:"mtime"`
	Size  int64  `json:"size"`
}

// RenderJSON builds the `{"paths":[...]}` body of §4.8.
func RenderJSON(entries []Entry) ([]byte, error) {
	out := make([]jsonEntry, len(entries))
	for i, e := range entries {
		out[i] = jsonEntry{
			Name:  e.Name,
			Type:  e.Type(),
			MTime: e.ModTime.UTC().Format("2006-01-02T15:04:05Z07:00"),
			Size:  e.Size,
		}
	}
	return json.Marshal(struct {
		Paths []jsonEntry `json:"paths"`
	}{Paths: out})
}

// htmlRow is the template context for one HTML listing row.
type htmlRow struct {
	Name    string
	URL     string
	IsDir   bool
	Size    string
	ModTime string
}

type htmlContext struct {
	Title     string
	ParentURL string
	Rows      []htmlRow
	SortLinks map[string]string
}

var htmlTpl = template.Must(template.New("listing").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>{{.Title}}</title></head>
<body>
<h1>{{.Title}}</h1>
{{if .ParentURL}}<p><a href="{{.ParentURL}}">../</a></p>{{end}}
<table>
<thead><tr>
<th><a href="{{.SortLinks.name}}">Name</a></th>
<th><a href="{{.SortLinks.mtime}}">Last Modified</a></th>
<th><a href="{{.SortLinks.size}}">Size</a></th>
</tr></thead>
<tbody>
{{range .Rows}}<tr><td><a href="{{.URL}}">{{.Name}}{{if .IsDir}}/{{end}}</a></td><td>{{.ModTime}}</td><td>{{.Size}}</td></tr>
{{end}}</tbody>
</table>
</body>
</html>
`))

// RenderHTML builds the minimal, self-contained HTML document of
// §4.8: a table with parent-directory link and column-header links that
// flip the sort code, passed in as nextOrder (the order code to request
// if this column is clicked again).
func RenderHTML(urlPath string, entries []Entry, nextOrder map[string]int) ([]byte, error) {
	rows := make([]htmlRow, len(entries))
	for i, e := range entries {
		rows[i] = htmlRow{
			Name:    e.Name,
			URL:     "./" + e.Name,
			IsDir:   e.IsDir,
			Size:    sizeLabel(e),
			ModTime: e.ModTime.UTC().Format("2006-01-02 15:04:05 UTC"),
		}
	}

	sortLinks := map[string]string{}
	for col, order := range nextOrder {
		sortLinks[col] = "?sort=" + strconv.Itoa(order)
	}

	ctx := htmlContext{
		Title:     path.Base(urlPath),
		ParentURL: ParentLink(urlPath),
		Rows:      rows,
		SortLinks: sortLinks,
	}
	if ctx.Title == "/" || ctx.Title == "." {
		ctx.Title = "/"
	}

	var buf bytes.Buffer
	if err := htmlTpl.Execute(&buf, ctx); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func sizeLabel(e Entry) string {
	if e.IsDir {
		return "-"
	}
	return humanize.IBytes(uint64(e.Size))
}
