// Package templates holds the HTML fragments returned to HTMX clients.
package templates

import (
	"context"
	"html/template"
	"io"

	"github.com/a-h/templ"
)

var alertTmpl = template.Must(template.New("alert").Parse(
	`<div class="alert alert-error" role="alert" data-code="{{.Code}}">` +
		`<p class="alert-message">{{.Message}}</p>` +
		`{{if .Action}}<p class="alert-action">{{.Action}}</p>{{end}}` +
		`<p class="alert-code">Code: {{.Code}}</p>` +
		`</div>`))

// ErrorAlert renders an error message as an alert box for swapping into a page.
func ErrorAlert(message, action, code string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		return alertTmpl.Execute(w, struct {
			Message, Action, Code string
		}{message, action, code})
	})
}
