package render

import "html/template"

var pageTemplates = template.Must(template.New("page").Parse(`
{{define "document"}}<!DOCTYPE html>
<html lang="{{.Lang}}">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
{{range .Stylesheets}}<link rel="stylesheet" href="{{.}}">
{{end}}</head>
<body class="pb-body pb-body--{{.Mode}}">
{{.Body}}
{{if .Editor}}<script type="application/json" id="pagebuilder-state">{{.Editor}}</script>
{{range .Scripts}}<script src="{{.}}" defer></script>
{{end}}{{end}}</body>
</html>
{{end}}

{{define "wrapper"}}<div class="pb-page {{.ClassName}}" data-template-path="{{.Path}}" data-mode="{{.Mode}}">
{{if .Toggle}}<div class="pb-toolbar">
{{if .Editing}}<button type="button" class="pb-toolbar__save" data-action="save">Save</button>
{{if not .Creating}}<button type="button" class="pb-toolbar__cancel" data-action="cancel">Cancel</button>{{end}}
{{else}}<a class="pb-toolbar__edit" href="{{.EditURL}}" data-action="edit">Edit page</a>
{{end}}</div>
{{end}}{{range .Instances}}{{.}}
{{end}}{{if .Editing}}<div class="pb-add-component">
<button type="button" data-action="add-component">Add component</button>
</div>
{{end}}</div>{{end}}

{{define "instance"}}{{if .Editing}}<div class="pb-instance{{if .Hidden}} pb-instance--hidden{{end}}" data-instance-id="{{.ID}}" data-component-key="{{.Key}}">
<button type="button" class="pb-insert pb-insert--before" data-action="insert-before" data-target="{{.ID}}">Insert above</button>
<div class="pb-controls">
<button type="button" data-action="toggle-visibility" data-target="{{.ID}}">{{if .Hidden}}Show{{else}}Hide{{end}}</button>
<button type="button" data-action="remove" data-target="{{.ID}}">Remove</button>
{{if .Configurable}}<button type="button" data-action="properties" data-target="{{.ID}}">Properties</button>
{{end}}</div>
{{.Content}}
<button type="button" class="pb-insert pb-insert--after" data-action="insert-after" data-target="{{.ID}}">Insert below</button>
</div>{{else}}<div class="pb-instance" data-instance-id="{{.ID}}">{{.Content}}</div>{{end}}{{end}}

{{define "missing"}}<div class="pb-missing" data-component-key="{{.Key}}">Unknown component "{{.Key}}"</div>{{end}}

{{define "editable"}}<span class="pb-editable" data-instance-id="{{.InstanceID}}" data-element-id="{{.ElementID}}"{{if .Multiline}} data-multiline="true"{{end}} contenteditable="true">{{.Value}}</span>{{end}}

{{define "notfound"}}<!DOCTYPE html>
<html lang="{{.Lang}}">
<head>
<meta charset="utf-8">
<title>Page not found</title>
{{range .Stylesheets}}<link rel="stylesheet" href="{{.}}">
{{end}}</head>
<body class="pb-body pb-body--notfound">
<main class="pb-notfound">
<h1>Page not found</h1>
<p>No page exists at <code>{{.Path}}</code>{{if .Lang}} for language <code>{{.Lang}}</code>{{end}}.</p>
{{if .CreateURL}}<a class="pb-button pb-button--md" href="{{.CreateURL}}" data-action="create">Create page</a>{{end}}
</main>
</body>
</html>
{{end}}
`))
