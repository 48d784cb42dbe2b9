package category

import (
	"html/template"
	"io"
)

var treeTemplate = template.Must(template.New("tree").Parse(
	`{{define "nodes"}}<ul class="category-tree">` +
		`{{range .}}<li data-id="{{.Category.ID}}" data-depth="{{.Depth}}">` +
		`{{if .Circular}}<span class="category-circular">circular reference: {{.Category.Name}}</span>` +
		`{{else if .Truncated}}<span class="category-truncated">{{.Category.Name}} (maximum depth reached)</span>` +
		`{{else}}<span class="category-name{{if not .Category.IsActive}} inactive{{end}}">{{.Category.Name}}</span>` +
		`{{if .Children}}{{template "nodes" .Children}}{{end}}{{end}}` +
		`</li>{{end}}</ul>{{end}}` +
		`{{template "nodes" .}}`,
))

// RenderHTML writes the tree as nested lists. Names are escaped.
func RenderHTML(w io.Writer, nodes []*TreeNode) error {
	return treeTemplate.Execute(w, nodes)
}
